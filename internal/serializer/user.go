package serializer

import (
	"fmt"
	"io"

	"github.com/sakif/snippets/internal/auth"
	"github.com/sakif/snippets/internal/model"
)

// MsgPasswordTooLong is reported for a password bcrypt cannot hash.
var MsgPasswordTooLong = fmt.Sprintf("Ensure this field has no more than %d bytes.", auth.MaxPasswordBytes)

// UserInput is the writable part of a user. Password is write-only: it is
// accepted here but never appears in UserRepresentation.
type UserInput struct {
	Username *string   `json:"username" validate:"omitempty,notblank,max=150,username"`
	Email    *string   `json:"email"    validate:"omitempty,max=254,optemail"`
	Password *string   `json:"password" validate:"omitempty,min=8,max=72"`
	Groups   *[]string `json:"groups"`

	// GroupIDs is filled by Validate from Groups.
	GroupIDs []int64 `json:"-"`
}

// UserRepresentation is what clients receive for a user.
type UserRepresentation struct {
	URL      string   `json:"url"`
	ID       int64    `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Groups   []string `json:"groups"`
}

// DecodeUser parses a request body; see DecodeSnippet.
func DecodeUser(body io.Reader) (*UserInput, error) {
	var in UserInput
	if err := decode(body, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// Validate checks the supplied fields and resolves group links to ids.
// It cannot know whether those groups exist; the service checks that.
// Links are matched on their path alone, so no Linker is needed here.
func (in *UserInput) Validate(partial bool) error {
	errs := Errors{}

	in.Username = trimmed(in.Username)
	in.Email = trimmed(in.Email)

	if !partial && in.Username == nil {
		errs.Add("username", MsgRequired)
	}
	validateStruct(in, errs)

	// max=72 above counts characters; bcrypt counts bytes.
	if in.Password != nil && len(*in.Password) > auth.MaxPasswordBytes && errs["password"] == nil {
		errs.Add("password", MsgPasswordTooLong)
	}

	in.GroupIDs = nil
	if in.Groups != nil {
		seen := make(map[int64]bool, len(*in.Groups))
		for _, link := range *in.Groups {
			id, ok := parseGroupLink(link)
			if !ok {
				errs.Add("groups", MsgLinkNoMatch)
				continue
			}
			if !seen[id] {
				seen[id] = true
				in.GroupIDs = append(in.GroupIDs, id)
			}
		}
	}

	return errs.Err()
}

// Create builds a new user from validated input. The password is not copied;
// hashing belongs to the caller.
func (in *UserInput) Create() *model.User {
	u := &model.User{}
	in.Apply(u)
	return u
}

// Apply copies supplied profile fields onto u. Memberships are replaced only
// when "groups" was sent.
func (in *UserInput) Apply(u *model.User) {
	if in.Username != nil {
		u.Username = *in.Username
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.Groups != nil {
		u.GroupIDs = append([]int64(nil), in.GroupIDs...)
	}
}

// RepresentUser renders u with absolute links.
func RepresentUser(u *model.User, l Linker) UserRepresentation {
	groups := make([]string, 0, len(u.GroupIDs))
	for _, id := range u.GroupIDs {
		groups = append(groups, l.GroupURL(id))
	}
	return UserRepresentation{
		URL:      l.UserURL(u.ID),
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Groups:   groups,
	}
}

func RepresentUsers(items []model.User, l Linker) []UserRepresentation {
	out := make([]UserRepresentation, 0, len(items))
	for i := range items {
		out = append(out, RepresentUser(&items[i], l))
	}
	return out
}
