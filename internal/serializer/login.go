package serializer

import "io"

// MsgBadCredentials is reported under non_field_errors for a failed login.
const MsgBadCredentials = "Unable to log in with provided credentials."

// LoginInput is the body of POST /auth/login.
type LoginInput struct {
	Username *string `json:"username" validate:"required,notblank"`
	Password *string `json:"password" validate:"required,notblank"`
}

// TokenRepresentation is returned by a successful login.
type TokenRepresentation struct {
	Token string `json:"token"`
}

func DecodeLogin(body io.Reader) (*LoginInput, error) {
	var in LoginInput
	if err := decode(body, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// Validate requires both fields. The username is trimmed; the password is
// taken exactly as sent.
func (in *LoginInput) Validate() error {
	errs := Errors{}
	in.Username = trimmed(in.Username)
	validateStruct(in, errs)
	return errs.Err()
}
