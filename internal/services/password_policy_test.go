package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"passkeeper/internal/models"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		want     string
	}{
		{"Sh0rt!", "Password too short, min 8 chars."},
		{"lowercase1!", "Password must contain at least one uppercase letter."},
		{"UPPERCASE1!", "Password must contain at least one lowercase letter."},
		{"NoDigits!!", "Password must contain at least one digit."},
		{"NoSpecial12", "Password must contain at least one special character."},
		{"Passw0rd!", ""},
		{"Correct-Horse7{", ""},
	}
	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, ErrValidation)
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestValidateCredential(t *testing.T) {
	ptr := func(s string) *string { return &s }

	assert.NoError(t, validateCredential(models.CredentialInput{Login: "l", Password: "p", SiteName: "s"}))
	assert.NoError(t, validateCredential(models.CredentialInput{Login: "l", Password: "p", SiteName: "s", URL: ptr("https://github.com/login")}))

	err := validateCredential(models.CredentialInput{Password: "p", SiteName: "s"})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "login")

	err = validateCredential(models.CredentialInput{Login: "l", Password: "p", SiteName: "s", URL: ptr("not a url")})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "url")

	err = validateCredential(models.CredentialInput{Login: "l", Password: "p", SiteName: "s", URL: ptr("ftp://files.example.com")})
	assert.ErrorIs(t, err, ErrValidation)
}
