package authflow

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

const (
	emailMaxLength       = 254
	passwordMinLength    = 6
	passwordMaxLength    = 128
	displayNameMinLength = 2
	displayNameMaxLength = 100
)

// emailShape enforces local-part@domain with a dotted domain, which is
// stricter than is.Email alone.
func emailShape(value any) error {
	s, _ := value.(string)

	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return errors.New("must be a valid email address")
	}

	domain := s[at+1:]
	dot := strings.LastIndex(domain, ".")
	if dot <= 0 || dot == len(domain)-1 {
		return errors.New("must be a valid email address")
	}

	return nil
}

// SignInRequest payload
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate will run validation rules
func (r SignInRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			validation.RuneLength(3, emailMaxLength),
			is.Email,
			validation.By(emailShape),
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.RuneLength(passwordMinLength, passwordMaxLength),
		),
	)
}

// SignUpRequest payload
type SignUpRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// Validate will run validation rules
func (r SignUpRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			validation.RuneLength(3, emailMaxLength),
			is.Email,
			validation.By(emailShape),
		),
		validation.Field(
			&r.Password,
			validation.Required,
			validation.RuneLength(passwordMinLength, passwordMaxLength),
		),
		validation.Field(
			&r.DisplayName,
			validation.Required,
			validation.RuneLength(displayNameMinLength, displayNameMaxLength),
		),
	)
}

// ResetRequest payload. Reset is exempt from password validation.
type ResetRequest struct {
	Email string `json:"email"`
}

// Validate will run validation rules
func (r ResetRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(
			&r.Email,
			validation.Required,
			validation.RuneLength(3, emailMaxLength),
			is.Email,
			validation.By(emailShape),
		),
	)
}

// normalizeEmail applies the canonical form sent to the provider.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
