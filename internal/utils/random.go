package utils

import (
	"crypto/rand"
	"errors"
	"math/big"
	mrand "math/rand"
	"strconv"
)

const (
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	digitChars  = "0123456789"
	symbolChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

	DefaultPasswordLength = 15
	MaxPasswordLength     = 128
)

var (
	ErrEmptyAlphabet = errors.New("at least one character class must be enabled")
	ErrInvalidLength = errors.New("length must be between 1 and 128")
)

// NumericCode returns a six digit code in [100000, 999999]. The source is
// math/rand: codes are short-lived and attempt-limited.
func NumericCode() string {
	return strconv.Itoa(100000 + mrand.Intn(900000))
}

type PasswordOptions struct {
	Length    int
	Symbols   bool
	Numbers   bool
	Uppercase bool
	Lowercase bool
}

func DefaultPasswordOptions() PasswordOptions {
	return PasswordOptions{
		Length:    DefaultPasswordLength,
		Symbols:   true,
		Numbers:   true,
		Uppercase: true,
		Lowercase: true,
	}
}

func (o PasswordOptions) alphabet() string {
	var a string
	if o.Uppercase {
		a += upperChars
	}
	if o.Lowercase {
		a += lowerChars
	}
	if o.Numbers {
		a += digitChars
	}
	if o.Symbols {
		a += symbolChars
	}
	return a
}

// GeneratePassword draws every character independently from crypto/rand over
// the enabled classes.
func GeneratePassword(opts PasswordOptions) (string, error) {
	if opts.Length <= 0 || opts.Length > MaxPasswordLength {
		return "", ErrInvalidLength
	}
	alphabet := opts.alphabet()
	if alphabet == "" {
		return "", ErrEmptyAlphabet
	}

	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, opts.Length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[n.Int64()]
	}
	return string(out), nil
}
