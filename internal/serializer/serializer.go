// Package serializer converts between persisted records and their JSON
// representation, and validates incoming data before it reaches a record.
//
// Every resource has the same three pieces:
//
//	XxxInput:          what a client may send. Pointer fields, so "absent"
//	                   (nil) is distinguishable from "set to the zero value".
//	                   Validation rules live in `validate:"..."` struct tags.
//	XxxRepresentation: exactly the fields a client sees.
//	Represent, Create, Apply: the mapping in both directions.
//
// WHY POINTERS ON INPUT?
// A PATCH that only sends {"title": "x"} must leave code, language, ... as they
// were. With plain strings we couldn't tell "not sent" from "sent empty".
//
// Validation failures are always reported as a field -> messages mapping
// (apperror.Invalid), never as a bare error string.
package serializer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/snippets/internal/apperror"
	"github.com/sakif/snippets/internal/model"
)

// Messages shared by every serializer.
const (
	MsgRequired    = "This field is required."
	MsgBlank       = "This field may not be blank."
	MsgEmail       = "Enter a valid email address."
	MsgNoSuchLink  = "Invalid hyperlink - Object does not exist."
	MsgLinkNoMatch = "Invalid hyperlink - No URL match."
	MsgNull        = "This field may not be null."

	MsgTrailingData = "JSON parse error - unexpected data after the JSON object."
	msgUsername    = "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters."
)

// Errors collects validation messages per field.
type Errors map[string][]string

// Add appends a message for field.
func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// Err returns nil when no messages were collected, otherwise an
// *apperror.AppError wrapping ErrValidation.
func (e Errors) Err() error {
	if len(e) == 0 {
		return nil
	}
	return apperror.Invalid(e)
}

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// validate is shared by all serializers. A *validator.Validate caches struct
// metadata and is safe for concurrent use.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON name ("linenos", not "Linenos").
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(v, "notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "language", func(fl validator.FieldLevel) bool {
		return model.IsLanguage(fl.Field().String())
	})
	mustRegister(v, "style", func(fl validator.FieldLevel) bool {
		return model.IsStyle(fl.Field().String())
	})
	mustRegister(v, "username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	// Blank clears the address; anything else must look like one.
	mustRegister(v, "optemail", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return s == "" || v.Var(s, "email") == nil
	})

	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("serializer: registering %q: %v", tag, err))
	}
}

// validateStruct runs the struct-tag rules and folds any failures into errs.
func validateStruct(in any, errs Errors) {
	err := validate.Struct(in)
	if err == nil {
		return
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add(apperror.NonFieldErrors, err.Error())
		return
	}
	for _, fe := range verrs {
		errs.Add(fe.Field(), message(fe))
	}
}

// message turns one failed rule into the text a client sees.
func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return MsgRequired
	case "notblank":
		return MsgBlank
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
	case "min":
		return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
	case "language", "style":
		return fmt.Sprintf("%q is not a valid choice.", fmt.Sprint(fe.Value()))
	case "optemail", "email":
		return MsgEmail
	case "username":
		return msgUsername
	default:
		return "Invalid value."
	}
}

// decode reads a JSON object from body into dst.
//
// An empty body decodes as {} so that a POST without a body reports the
// missing required fields instead of a parse error. A value of the wrong JSON
// type is reported against the field it was sent for, and so is an explicit
// null: no writable field is nullable, and a nil pointer would otherwise
// read as "not sent".
//
// The body must hold exactly one JSON value; anything after it is a parse error.
func decode(body io.Reader, dst any) error {
	raw, err := io.ReadAll(body)
	if err != nil {
		return parseError(err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			errs := Errors{}
			errs.Add(typeErr.Field, typeMessage(typeErr))
			return errs.Err()
		}
		return parseError(err)
	}
	if extra := dec.Decode(&struct{}{}); !errors.Is(extra, io.EOF) {
		errs := Errors{}
		errs.Add(apperror.NonFieldErrors, MsgTrailingData)
		return errs.Err()
	}

	return rejectNulls(raw, dst)
}

func parseError(err error) error {
	errs := Errors{}
	errs.Add(apperror.NonFieldErrors, "JSON parse error - "+err.Error())
	return errs.Err()
}

// rejectNulls reports every field of dst that was sent as JSON null.
func rejectNulls(raw []byte, dst any) error {
	var sent map[string]json.RawMessage
	if err := json.Unmarshal(raw, &sent); err != nil {
		return nil // not an object; dst already decoded it without complaint
	}

	errs := Errors{}
	for _, name := range jsonFields(dst) {
		if v, ok := sent[name]; ok && bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			errs.Add(name, MsgNull)
		}
	}
	return errs.Err()
}

// jsonFields lists the JSON names of the exported fields of the struct dst
// points to.
func jsonFields(dst any) []string {
	t := reflect.TypeOf(dst)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}

	var names []string
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		switch name {
		case "-":
			continue
		case "":
			name = f.Name
		}
		names = append(names, name)
	}
	return names
}

func typeMessage(e *json.UnmarshalTypeError) string {
	kind := e.Type.Kind()
	if kind == reflect.Ptr {
		kind = e.Type.Elem().Kind()
	}
	switch kind {
	case reflect.String:
		return "Not a valid string."
	case reflect.Bool:
		return "Must be a valid boolean."
	case reflect.Slice:
		return fmt.Sprintf("Expected a list of items but got type %q.", e.Value)
	default:
		return "Invalid value."
	}
}

// trimmed returns a copy of *p with surrounding whitespace removed, or nil.
func trimmed(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	return &s
}
