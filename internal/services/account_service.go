package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"passkeeper/internal/config"
	"passkeeper/internal/dbx"
	"passkeeper/internal/logging"
	"passkeeper/internal/models"
	"passkeeper/internal/repositories"
	"passkeeper/internal/utils"
)

const (
	msgEmailTaken         = "Email already registered"
	msgUserExists         = "User with this email already exists"
	msgUsernameTaken      = "Username already taken"
	msgUserNotFound       = "User not found"
	msgBadLogin           = "Incorrect email or password. Try again"
	msgBlocked            = "This account blocked. Please try again after 10 minutes."
	msgInvalidConfirm     = "Invalid confirmation code"
	msgConfirmExpired     = "Confirmation code expired"
	msgAlreadyConfirmed   = "Email already confirmed"
	msgTwoFactorNotFound  = "User or 2FA not found"
	msgInvalidTwoFactor   = "Invalid 2FA code"
	msgTwoFactorExpired   = "2FA code expired"
	msgBadToken           = "Invalid or expired token"
	msgResetTooShort      = "Password too short, min 8 chars."
	msgWrongPassword      = "Current password is incorrect"
	msgCouldNotValidate   = "Could not validate credentials"
	msgCannotDeleteOthers = "You can only delete your own account"
)

// AccountService drives the account lifecycle: registration, e-mail
// confirmation, login with lockout, the e-mailed second factor, password
// reset and profile changes.
type AccountService interface {
	Register(ctx context.Context, username, email, password string) (*models.User, error)
	CreateAccount(ctx context.Context, username, email, password string) (*models.User, error)
	CreateUser(ctx context.Context, username, email, password string) (*models.User, error)
	ConfirmEmail(ctx context.Context, email, code string) error
	Login(ctx context.Context, identifier, password string) (string, error)
	RequestSecondFactor(ctx context.Context, email string) error
	VerifySecondFactor(ctx context.Context, email, code string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	ChangePassword(ctx context.Context, user *models.User, oldPassword, newPassword string) error
	UpdateProfile(ctx context.Context, user *models.User, upd models.UserUpdate) (*models.User, error)
	CurrentUser(ctx context.Context, token string) (*models.User, error)
	GetUser(ctx context.Context, id int) (*models.User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error)
	DeleteUser(ctx context.Context, actor *models.User, id int) error
}

type accountService struct {
	db       *sql.DB
	repos    repositories.Manager
	auth     AuthService
	lockouts LockoutService
	notifier Notifier
	cfg      config.AuthConfig
	resetTTL time.Duration
	log      logging.Logger
	now      func() time.Time
	newCode  func() string
}

func NewAccountService(
	db *sql.DB,
	repos repositories.Manager,
	auth AuthService,
	lockouts LockoutService,
	notifier Notifier,
	cfg *config.Config,
	log logging.Logger,
) AccountService {
	return &accountService{
		db:       db,
		repos:    repos,
		auth:     auth,
		lockouts: lockouts,
		notifier: notifier,
		cfg:      cfg.Auth,
		resetTTL: cfg.JWT.ResetTokenTTL,
		log:      log.With("module", "accounts"),
		now:      time.Now,
		newCode:  utils.NumericCode,
	}
}

// notify sends best-effort; failures are logged and swallowed.
func (s *accountService) notify(ctx context.Context, to string, m message) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, to, m.subject, m.body); err != nil {
		s.log.Warn(ctx, "email delivery failed", "to", to, "subject", m.subject, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

func (s *accountService) userByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.repos.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, msgUserNotFound)
	}
	return u, err
}

// insertUser maps unique violations onto Conflict.
func (s *accountService) insertUser(ctx context.Context, u *models.User, emailTakenMsg string) error {
	users := s.repos.Users(s.db)
	if _, err := users.GetByEmail(ctx, u.Email); err == nil {
		return newError(ErrConflict, emailTakenMsg)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	if _, err := users.GetByUsername(ctx, u.Username); err == nil {
		return newError(ErrConflict, msgUsernameTaken)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}
	if err := users.Create(ctx, u); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return newError(ErrConflict, emailTakenMsg)
		}
		return err
	}
	return nil
}

func (s *accountService) newUser(username, email, password string) (*models.User, error) {
	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &models.User{
		Username:     strings.TrimSpace(username),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
		IsActive:     true,
	}, nil
}

func (s *accountService) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	u, err := s.newUser(username, email, password)
	if err != nil {
		return nil, err
	}
	code := s.newCode()
	sentAt := s.now()
	u.EmailConfirmationCode = &code
	u.EmailConfirmationSentAt = &sentAt

	if err := s.insertUser(ctx, u, msgEmailTaken); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user registered", "user_id", u.ID)
	s.notify(ctx, u.Email, confirmationMessage(code))
	return u, nil
}

func (s *accountService) CreateAccount(ctx context.Context, username, email, password string) (*models.User, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	return s.CreateUser(ctx, username, email, password)
}

// CreateUser inserts a user without a pending confirmation code.
func (s *accountService) CreateUser(ctx context.Context, username, email, password string) (*models.User, error) {
	u, err := s.newUser(username, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.insertUser(ctx, u, msgUserExists); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user created", "user_id", u.ID)
	return u, nil
}

func (s *accountService) ConfirmEmail(ctx context.Context, email, code string) error {
	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	if u.IsEmailConfirmed && u.EmailConfirmationCode == nil {
		return newError(ErrAlreadyConfirmed, msgAlreadyConfirmed)
	}
	if u.EmailConfirmationCode == nil || *u.EmailConfirmationCode != strings.TrimSpace(code) {
		return newError(ErrInvalidCode, msgInvalidConfirm)
	}
	if u.EmailConfirmationSentAt == nil || s.now().After(u.EmailConfirmationSentAt.Add(s.cfg.ConfirmationCodeTTL)) {
		return newError(ErrExpired, msgConfirmExpired)
	}
	if err := s.repos.Users(s.db).ConfirmEmail(ctx, u.ID); err != nil {
		return fmt.Errorf("confirm email: %w", err)
	}
	s.log.Info(ctx, "email confirmed", "user_id", u.ID)
	return nil
}

// lookupLogin resolves the identifier as an e-mail first, then a username.
func (s *accountService) lookupLogin(ctx context.Context, identifier string) (*models.User, error) {
	users := s.repos.Users(s.db)
	identifier = strings.TrimSpace(identifier)
	u, err := users.GetByEmail(ctx, identifier)
	if errors.Is(err, repositories.ErrNotFound) {
		u, err = users.GetByUsername(ctx, identifier)
	}
	return u, err
}

func (s *accountService) Login(ctx context.Context, identifier, password string) (string, error) {
	u, err := s.lookupLogin(ctx, identifier)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", newError(ErrUnauthorized, msgBadLogin)
	}
	if err != nil {
		return "", err
	}

	blocked, err := s.lockouts.Blocked(ctx, u.ID)
	if err != nil {
		return "", err
	}
	if blocked {
		s.log.Info(ctx, "login rejected: locked", "user_id", u.ID)
		return "", newError(ErrForbidden, msgBlocked)
	}

	if !s.auth.CheckPassword(u.PasswordHash, password) {
		if _, err := s.lockouts.RegisterFailure(ctx, u.ID); err != nil {
			return "", err
		}
		s.log.Info(ctx, "login failed", "user_id", u.ID)
		return "", newError(ErrUnauthorized, msgBadLogin)
	}

	if err := s.lockouts.Reset(ctx, u.ID); err != nil {
		return "", err
	}
	token, err := s.auth.IssueAccessToken(u.Email)
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	s.log.Info(ctx, "login succeeded", "user_id", u.ID)
	return token, nil
}

func (s *accountService) RequestSecondFactor(ctx context.Context, email string) error {
	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	code := s.newCode()
	now := s.now()
	if err := s.repos.TwoFactors(s.db).Upsert(ctx, u.ID, code, now, now.Add(s.cfg.TwoFactorCodeTTL)); err != nil {
		return fmt.Errorf("store 2fa code: %w", err)
	}
	s.notify(ctx, u.Email, twoFactorMessage(code))
	return nil
}

func (s *accountService) VerifySecondFactor(ctx context.Context, email, code string) error {
	u, err := s.userByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return newError(ErrNotFound, msgTwoFactorNotFound)
	}
	if err != nil {
		return err
	}

	// outcome is committed together with the failure counter
	var outcome error
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		twoFactors := s.repos.TwoFactors(tx)
		tf, err := twoFactors.GetForUpdate(ctx, u.ID)
		if errors.Is(err, repositories.ErrNotFound) {
			outcome = newError(ErrNotFound, msgTwoFactorNotFound)
			return nil
		}
		if err != nil {
			return err
		}
		if tf.Code != strings.TrimSpace(code) {
			if _, err := twoFactors.IncrementFailures(ctx, u.ID); err != nil {
				return err
			}
			outcome = newError(ErrInvalidCode, msgInvalidTwoFactor)
			return nil
		}
		if !tf.Usable(s.now(), s.cfg.TwoFactorMaxFails) {
			outcome = newError(ErrExpired, msgTwoFactorExpired)
			return nil
		}
		n, err := s.repos.Credentials(tx).MarkLogged(ctx, u.ID)
		if err != nil {
			return err
		}
		s.log.Info(ctx, "second factor verified", "user_id", u.ID, "credentials", n)
		return nil
	})
	if err != nil {
		return fmt.Errorf("verify 2fa: %w", err)
	}
	return outcome
}

func (s *accountService) ForgotPassword(ctx context.Context, email string) error {
	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	token, err := s.auth.IssueResetToken(u.Email)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}
	s.notify(ctx, u.Email, resetMessage(s.cfg.ResetLinkBaseURL+token, s.resetTTL))
	s.log.Info(ctx, "password reset requested", "user_id", u.ID)
	return nil
}

func (s *accountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return newError(ErrValidation, msgResetTooShort)
	}
	email, err := s.auth.ParseResetToken(strings.TrimSpace(token))
	if err != nil {
		return newError(ErrInvalidOrExpiredToken, msgBadToken)
	}
	u, err := s.userByEmail(ctx, email)
	if err != nil {
		return err
	}
	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.repos.Users(s.db).UpdatePassword(ctx, u.ID, hash); err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	s.log.Info(ctx, "password reset", "user_id", u.ID)
	return nil
}

func (s *accountService) ChangePassword(ctx context.Context, user *models.User, oldPassword, newPassword string) error {
	if !s.auth.CheckPassword(user.PasswordHash, oldPassword) {
		return newError(ErrBadCredentials, msgWrongPassword)
	}
	hash, err := s.auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.repos.Users(s.db).UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	user.PasswordHash = hash
	return nil
}

// UpdateProfile applies the non-empty fields of upd.
func (s *accountService) UpdateProfile(ctx context.Context, user *models.User, upd models.UserUpdate) (*models.User, error) {
	u := *user
	if upd.Username != nil && strings.TrimSpace(*upd.Username) != "" {
		u.Username = strings.TrimSpace(*upd.Username)
	}
	if upd.Email != nil && normalizeEmail(*upd.Email) != "" {
		u.Email = normalizeEmail(*upd.Email)
	}
	if upd.Password != nil && *upd.Password != "" {
		hash, err := s.auth.HashPassword(*upd.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}

	if err := s.repos.Users(s.db).Update(ctx, &u); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicate):
			return nil, newError(ErrConflict, "Username or email already taken")
		case errors.Is(err, repositories.ErrNotFound):
			return nil, newError(ErrNotFound, msgUserNotFound)
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return &u, nil
}

func (s *accountService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	email, err := s.auth.ParseAccessToken(token)
	if err != nil {
		return nil, newError(ErrUnauthorized, msgCouldNotValidate)
	}
	u, err := s.repos.Users(s.db).GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrUnauthorized, msgCouldNotValidate)
	}
	return u, err
}

func (s *accountService) GetUser(ctx context.Context, id int) (*models.User, error) {
	u, err := s.repos.Users(s.db).GetByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, msgUserNotFound)
	}
	return u, err
}

func (s *accountService) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	return s.repos.Users(s.db).List(ctx, limit, offset)
}

// DeleteUser removes an account; only the owner may delete it.
func (s *accountService) DeleteUser(ctx context.Context, actor *models.User, id int) error {
	if _, err := s.GetUser(ctx, id); err != nil {
		return err
	}
	if actor == nil || actor.ID != id {
		return newError(ErrForbidden, msgCannotDeleteOthers)
	}
	if err := s.repos.Users(s.db).Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.log.Info(ctx, "user deleted", "user_id", id)
	return nil
}
