package services

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"passkeeper/internal/models"
)

const minPasswordLength = 8

var (
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`\d`)
	specialRe = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
	httpURLRe = regexp.MustCompile(`^(?i)https?://`)
)

// ValidatePassword enforces the account password policy and reports the
// first rule the password breaks.
func ValidatePassword(password string) error {
	if len(password) < minPasswordLength {
		return newError(ErrValidation, "Password too short, min 8 chars.")
	}
	if len(password) > maxPasswordBytes {
		return newError(ErrValidation, msgPasswordTooLong)
	}
	err := validation.Validate(password,
		validation.Match(upperRe).Error("Password must contain at least one uppercase letter."),
		validation.Match(lowerRe).Error("Password must contain at least one lowercase letter."),
		validation.Match(digitRe).Error("Password must contain at least one digit."),
		validation.Match(specialRe).Error("Password must contain at least one special character."),
	)
	if err != nil {
		return newError(ErrValidation, err.Error())
	}
	return nil
}

func validateCredential(in models.CredentialInput) error {
	err := validation.Errors{
		"login":     validation.Validate(in.Login, validation.Required),
		"password":  validation.Validate(in.Password, validation.Required),
		"site_name": validation.Validate(in.SiteName, validation.Required),
		"url":       validateURL(in.URL),
	}.Filter()
	if err != nil {
		return newError(ErrValidation, err.Error())
	}
	return nil
}

func validateURL(u *string) error {
	if u == nil {
		return nil
	}
	return validation.Validate(*u,
		is.URL.Error("must be a valid URL"),
		validation.Match(httpURLRe).Error("must be an http or https URL"),
	)
}
