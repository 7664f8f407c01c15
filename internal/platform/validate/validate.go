// Copyright (c) 2026 Gibiteca. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package validate collects field failures into one VALIDATION_ERROR.

	v := &validate.Validator{}
	v.Required("title", input.Title).
		MaxLen("title", input.Title, 200).
		OptionalRange("start_year", input.StartYear, 1800, 2200)
	if err := v.Err(); err != nil {
		return err
	}

A Validator is per call and not safe for concurrent use. The Optional rules
skip nil pointers, matching PATCH bodies and nullable columns.
*/
package validate

import (
	"fmt"
	"net/mail"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/taibuivan/gibiteca/internal/platform/apperr"
)

// ErrInvalidJSON is returned when a request body cannot be decoded.
var ErrInvalidJSON = apperr.ValidationError("Invalid JSON payload")

type Validator struct {
	errs []apperr.FieldError
}

// # String rules

// Required fails on an empty or whitespace-only value.
func (v *Validator) Required(field, value string) *Validator {
	return v.Custom(field, strings.TrimSpace(value) == "", "This field is required")
}

// MaxLen counts runes, not bytes.
func (v *Validator) MaxLen(field, value string, max int) *Validator {
	return v.Custom(field, utf8.RuneCountInString(value) > max, fmt.Sprintf("Maximum %d characters", max))
}

// MinLen counts runes, not bytes.
func (v *Validator) MinLen(field, value string, min int) *Validator {
	return v.Custom(field, utf8.RuneCountInString(value) < min, fmt.Sprintf("Minimum %d characters", min))
}

func (v *Validator) Email(field, value string) *Validator {
	address, err := mail.ParseAddress(value)
	return v.Custom(field, err != nil || address.Address != value, "Must be a valid email address")
}

// URL accepts an empty value or an absolute http(s) URL.
func (v *Validator) URL(field, value string) *Validator {
	if value == "" {
		return v
	}
	parsed, err := url.Parse(value)
	valid := err == nil && parsed.Host != "" && (parsed.Scheme == "http" || parsed.Scheme == "https")
	return v.Custom(field, !valid, "Must be a valid http(s) URL")
}

// # Number rules

// Range is inclusive on both ends.
func (v *Validator) Range(field string, value, min, max int) *Validator {
	return v.Custom(field, value < min || value > max, fmt.Sprintf("Must be between %d and %d", min, max))
}

// # Optional rules

func (v *Validator) OptionalRange(field string, value *int, min, max int) *Validator {
	if value == nil {
		return v
	}
	return v.Range(field, *value, min, max)
}

func (v *Validator) OptionalMaxLen(field string, value *string, max int) *Validator {
	if value == nil {
		return v
	}
	return v.MaxLen(field, *value, max)
}

func (v *Validator) OptionalURL(field string, value *string) *Validator {
	if value == nil {
		return v
	}
	return v.URL(field, *value)
}

// # Outcome

// Custom records message for field when failed is true. Only the first
// failure per field is kept.
func (v *Validator) Custom(field string, failed bool, message string) *Validator {
	if !failed {
		return v
	}
	for _, existing := range v.errs {
		if existing.Field == field {
			return v
		}
	}
	v.errs = append(v.errs, apperr.FieldError{Field: field, Message: message})
	return v
}

func (v *Validator) HasErrors() bool {
	return len(v.errs) > 0
}

// Err returns nil or a VALIDATION_ERROR listing every failed field.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return apperr.ValidationError("Validation failed", v.errs...)
}
