// Package validation checks entity field constraints before they reach the
// store. Rules are declared as `validate` struct tags on the db models.
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Violation is one failed field constraint.
type Violation struct {
	Field  string
	Reason string
}

func (v Violation) String() string {
	return v.Field + ": " + v.Reason
}

// Errors is the set of violations found on one entity, sorted by field.
type Errors []Violation

func (e Errors) Error() string {
	parts := make([]string, len(e))
	for i, v := range e {
		parts[i] = v.String()
	}
	return strings.Join(parts, "; ")
}

// Validator validates helpdesk entities.
type Validator struct {
	v *validator.Validate
}

// New returns a Validator with the helpdesk tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	// Registration only fails on empty tags or nil funcs.
	_ = v.RegisterValidation("notblank", notBlank)
	_ = v.RegisterValidation("mailbox", mailbox)

	return &Validator{v: v}
}

// Validate returns nil or an Errors value listing every violation.
func (val *Validator) Validate(entity any) error {
	err := val.v.Struct(entity)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(Errors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, Violation{Field: fe.Field(), Reason: reason(fe)})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Field == out[j].Field {
			return out[i].Reason < out[j].Reason
		}
		return out[i].Field < out[j].Field
	})
	return out
}

func reason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "notblank":
		return "must not be blank."
	case "mailbox":
		return "must be a valid address."
	case "max":
		return fmt.Sprintf("length must be <= %s.", fe.Param())
	case "gt", "required":
		return "must not be null."
	default:
		return fmt.Sprintf("failed %q constraint.", fe.Tag())
	}
}

func notBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// mailbox accepts a bare address: local-part "@" domain, where the domain
// contains a dot that is neither its first nor its last character.
func mailbox(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	if at <= 0 {
		return false
	}
	domain := s[at+1:]
	dot := strings.IndexByte(domain, '.')
	return dot > 0 && !strings.HasSuffix(domain, ".")
}
