package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"passkeeper/internal/config"
)

const (
	purposePasswordReset = "password_reset"
	// bcrypt only sees the first 72 bytes and rejects longer input
	maxPasswordBytes   = 72
	msgPasswordTooLong = "Password too long, max 72 bytes."
)

// Claims of access and reset tokens. Subject is the user's e-mail.
type Claims struct {
	Purpose string `json:"purpose,omitempty"`
	jwt.RegisteredClaims
}

type AuthService interface {
	HashPassword(password string) (string, error)
	CheckPassword(hash, password string) bool
	IssueAccessToken(email string) (string, error)
	// ParseAccessToken returns the subject of a valid access token.
	ParseAccessToken(token string) (string, error)
	IssueResetToken(email string) (string, error)
	ParseResetToken(token string) (string, error)
}

type authService struct {
	accessKey []byte
	resetKey  []byte
	accessTTL time.Duration
	resetTTL  time.Duration
	cost      int
	now       func() time.Time
}

func NewAuthService(cfg config.JWTConfig) AuthService {
	resetKey := cfg.ResetSecretKey
	if resetKey == "" {
		resetKey = cfg.SecretKey
	}
	return &authService{
		accessKey: []byte(cfg.SecretKey),
		resetKey:  []byte(resetKey),
		accessTTL: cfg.AccessTokenTTL,
		resetTTL:  cfg.ResetTokenTTL,
		cost:      bcrypt.DefaultCost,
		now:       time.Now,
	}
}

func (s *authService) HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", newError(ErrValidation, msgPasswordTooLong)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

func (s *authService) CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

func (s *authService) sign(key []byte, email, purpose string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

func (s *authService) parse(key []byte, tokenStr string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		// HMAC only
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return key, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidOrExpiredToken
	}
	if claims.Subject == "" {
		return nil, ErrInvalidOrExpiredToken
	}
	return claims, nil
}

func (s *authService) IssueAccessToken(email string) (string, error) {
	return s.sign(s.accessKey, email, "", s.accessTTL)
}

func (s *authService) ParseAccessToken(token string) (string, error) {
	claims, err := s.parse(s.accessKey, token)
	if err != nil {
		return "", err
	}
	if claims.Purpose != "" {
		return "", ErrInvalidOrExpiredToken
	}
	return claims.Subject, nil
}

func (s *authService) IssueResetToken(email string) (string, error) {
	return s.sign(s.resetKey, email, purposePasswordReset, s.resetTTL)
}

func (s *authService) ParseResetToken(token string) (string, error) {
	claims, err := s.parse(s.resetKey, token)
	if err != nil {
		return "", err
	}
	if claims.Purpose != purposePasswordReset {
		return "", ErrInvalidOrExpiredToken
	}
	return claims.Subject, nil
}
