package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"passkeeper/internal/config"
	"passkeeper/internal/logging"
	"passkeeper/internal/models"
	"passkeeper/internal/repositories"
)

// LockoutService tracks failed logins per user in block_users.
type LockoutService interface {
	// Blocked reports whether the user is inside a lockout window.
	Blocked(ctx context.Context, userID int) (bool, error)
	RegisterFailure(ctx context.Context, userID int) (*models.Lockout, error)
	Reset(ctx context.Context, userID int) error
}

type lockoutService struct {
	db        *sql.DB
	repos     repositories.Manager
	threshold int
	window    time.Duration
	log       logging.Logger
	now       func() time.Time
}

func NewLockoutService(db *sql.DB, repos repositories.Manager, cfg config.AuthConfig, log logging.Logger) LockoutService {
	return &lockoutService{
		db:        db,
		repos:     repos,
		threshold: cfg.LockoutThreshold,
		window:    cfg.LockoutDuration,
		log:       log.With("module", "lockout"),
		now:       time.Now,
	}
}

func (s *lockoutService) Blocked(ctx context.Context, userID int) (bool, error) {
	l, err := s.repos.Lockouts(s.db).Get(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return l.Blocked(s.now()), nil
}

func (s *lockoutService) RegisterFailure(ctx context.Context, userID int) (*models.Lockout, error) {
	now := s.now()
	l, err := s.repos.Lockouts(s.db).RegisterFailure(ctx, userID, now, s.threshold, now.Add(s.window))
	if err != nil {
		return nil, fmt.Errorf("register login failure: %w", err)
	}
	if l.Blocked(now) && l.Attempts == s.threshold {
		s.log.Warn(ctx, "account locked", "user_id", userID, "until", l.BlockedUntil)
	}
	return l, nil
}

func (s *lockoutService) Reset(ctx context.Context, userID int) error {
	return s.repos.Lockouts(s.db).Delete(ctx, userID)
}
