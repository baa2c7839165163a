package lead

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Contact is the visitor's contact form.
type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Zip   string `json:"zip"`
	Phone string `json:"phone"`
}

// Contact form fields.
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldZip   = "zip"
	FieldPhone = "phone"
)

var (
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	zipPattern    = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	phoneDisallow = regexp.MustCompile(`[^\d\s\-()]`)
	zipDisallow   = regexp.MustCompile(`[^\d-]`)
	nonDigits     = regexp.MustCompile(`\D`)
)

const minPhoneDigits = 10

// ValidationError maps form fields to user-facing messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid contact: " + strings.Join(parts, "; ")
}

// Normalize trims every field and strips characters the form does not accept
// from the phone number and ZIP code.
func (c Contact) Normalize() Contact {
	return Contact{
		Name:  strings.TrimSpace(c.Name),
		Email: strings.TrimSpace(c.Email),
		Zip:   strings.TrimSpace(zipDisallow.ReplaceAllString(c.Zip, "")),
		Phone: strings.TrimSpace(phoneDisallow.ReplaceAllString(c.Phone, "")),
	}
}

// Validate checks c and returns a *ValidationError listing every bad field.
func (c Contact) Validate() error {
	errs := map[string]string{}

	if strings.TrimSpace(c.Name) == "" {
		errs[FieldName] = "Name is required"
	}

	switch email := strings.TrimSpace(c.Email); {
	case email == "":
		errs[FieldEmail] = "Email is required"
	case !emailPattern.MatchString(email):
		errs[FieldEmail] = "Please enter a valid email address"
	}

	switch zip := strings.TrimSpace(c.Zip); {
	case zip == "":
		errs[FieldZip] = "Zip code is required"
	case !zipPattern.MatchString(zip):
		errs[FieldZip] = "Please enter a valid zip code (e.g., 12345 or 12345-6789)"
	}

	switch phone := strings.TrimSpace(c.Phone); {
	case phone == "":
		errs[FieldPhone] = "Phone number is required"
	case len(nonDigits.ReplaceAllString(phone, "")) < minPhoneDigits:
		errs[FieldPhone] = "Please enter a valid phone number (at least 10 digits)"
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
