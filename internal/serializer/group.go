package serializer

import (
	"io"

	"github.com/sakif/snippets/internal/model"
)

type GroupInput struct {
	Name *string `json:"name" validate:"omitempty,notblank,max=150"`
}

type GroupRepresentation struct {
	URL  string `json:"url"`
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

func DecodeGroup(body io.Reader) (*GroupInput, error) {
	var in GroupInput
	if err := decode(body, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

func (in *GroupInput) Validate(partial bool) error {
	errs := Errors{}

	in.Name = trimmed(in.Name)

	if !partial && in.Name == nil {
		errs.Add("name", MsgRequired)
	}
	validateStruct(in, errs)

	return errs.Err()
}

func (in *GroupInput) Create() *model.Group {
	g := &model.Group{}
	in.Apply(g)
	return g
}

func (in *GroupInput) Apply(g *model.Group) {
	if in.Name != nil {
		g.Name = *in.Name
	}
}

func RepresentGroup(g *model.Group, l Linker) GroupRepresentation {
	return GroupRepresentation{
		URL:  l.GroupURL(g.ID),
		ID:   g.ID,
		Name: g.Name,
	}
}

func RepresentGroups(items []model.Group, l Linker) []GroupRepresentation {
	out := make([]GroupRepresentation, 0, len(items))
	for i := range items {
		out = append(out, RepresentGroup(&items[i], l))
	}
	return out
}
