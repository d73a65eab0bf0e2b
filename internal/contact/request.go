package contact

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	ErrKeyTooManyRequests     = "contact.error.tooManyRequests"
	ErrKeyVerificationExpired = "contact.error.verificationExpired"
	ErrKeyInvalidAnswer       = "contact.error.invalidAnswer"
	ErrKeyNameRequired        = "contact.error.nameRequired"
	ErrKeyEmailRequired       = "contact.error.emailRequired"
	ErrKeyEmailInvalid        = "contact.error.emailInvalid"
	ErrKeyMessageRequired     = "contact.error.messageRequired"
	ErrKeyValidation          = "validation"

	errDeliveryFailed = "Failed to send email"
	errUnexpected     = "An unexpected error occurred"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Answer is the visitor's reply to the challenge. Forms post it either as a
// JSON number or as a string.
type Answer struct {
	Value int
	Valid bool
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = Answer{}
		return nil
	}

	raw := string(data)
	if strings.HasPrefix(raw, `"`) {
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
	}

	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		*a = Answer{}
		return nil
	}
	*a = Answer{Value: value, Valid: true}
	return nil
}

type Request struct {
	Name       string `json:"name" validate:"required"`
	Email      string `json:"email" validate:"required,email"`
	Subject    string `json:"subject"`
	Message    string `json:"message" validate:"required"`
	Honeypot   string `json:"honeypot"`
	MathAnswer Answer `json:"mathAnswer"`
}

// IsBot reports whether the hidden honeypot field was filled in.
func (r *Request) IsBot() bool {
	return strings.TrimSpace(r.Honeypot) != ""
}

func (r *Request) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Subject = strings.TrimSpace(r.Subject)
	r.Message = strings.TrimSpace(r.Message)
}

// Validate returns the translation keys of every invalid field, in form order.
func (r *Request) Validate() []string {
	r.normalize()

	err := validate.Struct(r)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return []string{ErrKeyValidation}
	}

	keys := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		switch fieldErr.Field() {
		case "Name":
			keys = append(keys, ErrKeyNameRequired)
		case "Email":
			if fieldErr.Tag() == "email" {
				keys = append(keys, ErrKeyEmailInvalid)
			} else {
				keys = append(keys, ErrKeyEmailRequired)
			}
		case "Message":
			keys = append(keys, ErrKeyMessageRequired)
		}
	}
	return keys
}
