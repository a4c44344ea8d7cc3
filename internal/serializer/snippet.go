package serializer

import (
	"io"

	"github.com/sakif/snippets/internal/model"
)

// MaxTitleLength bounds Snippet.Title (in characters, not bytes).
const MaxTitleLength = 100

// SnippetInput is the writable part of a snippet as sent by a client.
// id is read-only and ignored if present.
type SnippetInput struct {
	Title    *string `json:"title"    validate:"omitempty,max=100"`
	Code     *string `json:"code"     validate:"omitempty,notblank"`
	Linenos  *bool   `json:"linenos"`
	Language *string `json:"language" validate:"omitempty,language"`
	Style    *string `json:"style"    validate:"omitempty,style"`
}

// SnippetRepresentation is what clients receive for a snippet.
type SnippetRepresentation struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Code     string `json:"code"`
	Linenos  bool   `json:"linenos"`
	Language string `json:"language"`
	Style    string `json:"style"`
}

// DecodeSnippet parses a request body. It only reports JSON-level problems;
// call Validate before using the result.
func DecodeSnippet(body io.Reader) (*SnippetInput, error) {
	var in SnippetInput
	if err := decode(body, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// Validate checks every supplied field. When partial is false (create, PUT)
// code must be present as well.
//
// The title is trimmed in place before its length is checked.
func (in *SnippetInput) Validate(partial bool) error {
	errs := Errors{}

	in.Title = trimmed(in.Title)

	if !partial && in.Code == nil {
		errs.Add("code", MsgRequired)
	}
	validateStruct(in, errs)

	return errs.Err()
}

// Create builds a new snippet from validated input. Absent fields take the
// model defaults.
func (in *SnippetInput) Create() *model.Snippet {
	s := model.NewSnippet()
	in.Apply(s)
	return s
}

// Apply copies every supplied field onto s. Fields the client didn't send keep
// their current value.
func (in *SnippetInput) Apply(s *model.Snippet) {
	if in.Title != nil {
		s.Title = *in.Title
	}
	if in.Code != nil {
		s.Code = *in.Code
	}
	if in.Linenos != nil {
		s.Linenos = *in.Linenos
	}
	if in.Language != nil {
		s.Language = *in.Language
	}
	if in.Style != nil {
		s.Style = *in.Style
	}
}

// RepresentSnippet renders s for the wire.
func RepresentSnippet(s *model.Snippet) SnippetRepresentation {
	return SnippetRepresentation{
		ID:       s.ID,
		Title:    s.Title,
		Code:     s.Code,
		Linenos:  s.Linenos,
		Language: s.Language,
		Style:    s.Style,
	}
}

// RepresentSnippets renders a page of snippets. The result is never nil so it
// encodes as [] rather than null.
func RepresentSnippets(items []model.Snippet) []SnippetRepresentation {
	out := make([]SnippetRepresentation, 0, len(items))
	for i := range items {
		out = append(out, RepresentSnippet(&items[i]))
	}
	return out
}
