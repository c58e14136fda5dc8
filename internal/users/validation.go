package users

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"

	"github.com/rgsons/storeops/internal/shared"
)

// newValidator extends the shared validator with a "mobile" tag that
// accepts numbers valid for region.
func newValidator(region string) *validator.Validate {
	v := shared.NewValidator()
	mustRegister(v, "mobile", func(fl validator.FieldLevel) bool {
		return ValidMobile(fl.Field().String(), region)
	})
	return v
}

// mustRegister panics when tag cannot be registered so a struct tag is never
// silently left unchecked.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("users: register %q validation: %v", tag, err))
	}
}

// ValidMobile reports whether number parses as a valid phone number, using
// region for numbers without a country prefix.
func ValidMobile(number, region string) bool {
	p, err := libphonenumber.Parse(number, region)
	if err != nil {
		return false
	}
	return libphonenumber.IsValidNumber(p)
}
