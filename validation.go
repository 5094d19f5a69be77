package mailroom

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const maxSourceLength = 255

var validate = validator.New()

// SubscribeRequest is the input of the subscribe workflow
type SubscribeRequest struct {
	Email  string `validate:"required,email,max=254"`
	Source string
}

// Normalize trims and lower-cases the email and bounds the source length.
func (r *SubscribeRequest) Normalize() {
	r.Email = NormalizeEmail(r.Email)
	r.Source = truncate(strings.TrimSpace(r.Source), maxSourceLength)
}

// Validate returns an ErrInvalid error describing the first bad field.
func (r *SubscribeRequest) Validate() error {
	if err := validate.Struct(r); err != nil {
		return validationError(err, "Email is required", "Invalid email address")
	}
	return nil
}

// ContactForm is the input of the contact workflow
type ContactForm struct {
	FullName string `validate:"required,max=255"`
	Phone    string `validate:"max=50"`
	Email    string `validate:"required,email,max=254"`
	Message  string `validate:"required"`
}

func (f *ContactForm) Normalize() {
	f.FullName = strings.TrimSpace(f.FullName)
	f.Phone = strings.TrimSpace(f.Phone)
	f.Email = NormalizeEmail(f.Email)
	f.Message = strings.TrimSpace(f.Message)
}

func (f *ContactForm) Validate() error {
	if err := validate.Struct(f); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
			return &Error{Code: ErrInvalid, Message: "Invalid contact form.", Err: err}
		}

		fe := fieldErrs[0]
		switch fe.Field() {
		case "FullName":
			if fe.Tag() == "required" {
				return Errorf(ErrInvalid, "Full name is required.")
			}
			return Errorf(ErrInvalid, "Full name is too long.")
		case "Phone":
			return Errorf(ErrInvalid, "Phone number is too long.")
		case "Email":
			if fe.Tag() == "required" {
				return Errorf(ErrInvalid, "Email is required.")
			}
			return Errorf(ErrInvalid, "Invalid email address.")
		default:
			return Errorf(ErrInvalid, "Message is required.")
		}
	}
	return nil
}

// NormalizeEmail returns the identity form of an address: trimmed and lower-cased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email is a well-formed address.
func ValidEmail(email string) bool {
	return validate.Var(email, "required,email") == nil
}

func validationError(err error, requiredMsg, invalidMsg string) error {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Tag() == "required" {
		return &Error{Code: ErrInvalid, Message: requiredMsg}
	}
	return &Error{Code: ErrInvalid, Message: invalidMsg}
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
