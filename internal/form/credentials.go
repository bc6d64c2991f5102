package form

import (
	"alcyxob/fitlist/internal/domain"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Credentials is the login form.
type Credentials struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

// Validate checks the login form.
func (c Credentials) Validate() error {
	c.Email = strings.TrimSpace(c.Email)
	return toValidationError(validate.Struct(c))
}

// Signup is the registration form.
type Signup struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required,min=6"`
	Confirm  string `validate:"required,eqfield=Password"`
}

// Validate checks blanks first, then the confirmation, then the rest.
func (s Signup) Validate() error {
	s.Email = strings.TrimSpace(s.Email)
	return toValidationError(validate.Struct(s))
}

// Credentials returns the login form for the new account.
func (s Signup) Credentials() Credentials {
	return Credentials{Email: strings.TrimSpace(s.Email), Password: s.Password}
}

var tagReasons = []struct{ tag, reason string }{
	{"required", "required"},
	{"eqfield", "must match the password"},
	{"min", "must be at least 6 characters"},
	{"email", "must be a valid email address"},
}

// toValidationError folds validator errors into one ValidationError,
// reporting the most basic failing rule.
func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	for _, tr := range tagReasons {
		var fields []string
		for _, fe := range fieldErrs {
			if fe.Tag() == tr.tag {
				fields = append(fields, strings.ToLower(fe.Field()))
			}
		}
		if len(fields) > 0 {
			return &domain.ValidationError{Fields: fields, Reason: tr.reason}
		}
	}
	fe := fieldErrs[0]
	return &domain.ValidationError{Fields: []string{strings.ToLower(fe.Field())}, Reason: "is invalid"}
}
