package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"passkeeper/internal/config"
	"passkeeper/internal/cryptox"
	"passkeeper/internal/logging"
	"passkeeper/internal/models"
	"passkeeper/internal/repositories"
)

const (
	msgCredentialNotFound = "Password not found"
	msgBadVaultCode       = "Invalid or expired 2FA code"
	defaultSiteName       = "unknown"
)

// CredentialService manages a user's stored credentials. Listing and search
// reveal the vault only to holders of a live second-factor code.
type CredentialService interface {
	Create(ctx context.Context, user *models.User, in models.CredentialInput) (*models.Credential, error)
	List(ctx context.Context, user *models.User, code string) ([]*models.Credential, error)
	Search(ctx context.Context, user *models.User, siteName, code string) ([]*models.Credential, error)
	Replace(ctx context.Context, user *models.User, id int, in models.CredentialInput) (*models.Credential, error)
	Patch(ctx context.Context, user *models.User, id int, p models.CredentialPatch) (*models.Credential, error)
	Delete(ctx context.Context, user *models.User, id int) (*models.Credential, error)
}

type credentialService struct {
	db       *sql.DB
	repos    repositories.Manager
	sealer   *cryptox.Sealer
	maxFails int
	log      logging.Logger
	now      func() time.Time
}

func NewCredentialService(db *sql.DB, repos repositories.Manager, sealer *cryptox.Sealer, cfg config.AuthConfig, log logging.Logger) CredentialService {
	return &credentialService{
		db:       db,
		repos:    repos,
		sealer:   sealer,
		maxFails: cfg.TwoFactorMaxFails,
		log:      log.With("module", "credentials"),
		now:      time.Now,
	}
}

func cleanOptional(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

func normalizeInput(in models.CredentialInput) models.CredentialInput {
	in.SiteName = strings.TrimSpace(in.SiteName)
	in.Description = cleanOptional(in.Description)
	in.URL = cleanOptional(in.URL)
	return in
}

// store runs write with c.Password sealed and restores the plaintext after.
func (s *credentialService) store(ctx context.Context, c *models.Credential, write func(*models.Credential) error) error {
	plain := c.Password
	sealed, err := s.sealer.Seal(plain)
	if err != nil {
		return fmt.Errorf("seal password: %w", err)
	}
	c.Password = sealed
	err = write(c)
	c.Password = plain
	return err
}

func (s *credentialService) open(list []*models.Credential) error {
	for _, c := range list {
		plain, err := s.sealer.Open(c.Password)
		if err != nil {
			return fmt.Errorf("open credential %d: %w", c.ID, err)
		}
		c.Password = plain
	}
	return nil
}

func (s *credentialService) get(ctx context.Context, userID, id int) (*models.Credential, error) {
	c, err := s.repos.Credentials(s.db).GetByID(ctx, userID, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, newError(ErrNotFound, msgCredentialNotFound)
	}
	if err != nil {
		return nil, err
	}
	if err := s.open([]*models.Credential{c}); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *credentialService) Create(ctx context.Context, user *models.User, in models.CredentialInput) (*models.Credential, error) {
	in = normalizeInput(in)
	if in.SiteName == "" {
		return nil, newError(ErrValidation, "site_name is required")
	}
	if err := validateCredential(in); err != nil {
		return nil, err
	}
	c := &models.Credential{
		UserID:      user.ID,
		Login:       in.Login,
		Password:    in.Password,
		SiteName:    in.SiteName,
		Description: in.Description,
		URL:         in.URL,
	}
	repo := s.repos.Credentials(s.db)
	if err := s.store(ctx, c, func(c *models.Credential) error { return repo.Create(ctx, c) }); err != nil {
		return nil, fmt.Errorf("create credential: %w", err)
	}
	s.log.Info(ctx, "credential created", "user_id", user.ID, "credential_id", c.ID)
	return c, nil
}

// checkCode admits the caller when code matches the user's unexpired 2FA
// record. A mismatch counts as a failed attempt.
func (s *credentialService) checkCode(ctx context.Context, userID int, code string) error {
	twoFactors := s.repos.TwoFactors(s.db)
	tf, err := twoFactors.Get(ctx, userID)
	if errors.Is(err, repositories.ErrNotFound) {
		return newError(ErrUnauthorized, msgBadVaultCode)
	}
	if err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return newError(ErrUnauthorized, msgBadVaultCode)
	}
	if tf.Code != code {
		if _, err := twoFactors.IncrementFailures(ctx, userID); err != nil {
			return err
		}
		return newError(ErrUnauthorized, msgBadVaultCode)
	}
	if !tf.Usable(s.now(), s.maxFails) {
		return newError(ErrUnauthorized, msgBadVaultCode)
	}
	return nil
}

func (s *credentialService) List(ctx context.Context, user *models.User, code string) ([]*models.Credential, error) {
	if err := s.checkCode(ctx, user.ID, code); err != nil {
		return nil, err
	}
	list, err := s.repos.Credentials(s.db).ListByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return list, s.open(list)
}

func (s *credentialService) Search(ctx context.Context, user *models.User, siteName, code string) ([]*models.Credential, error) {
	if err := s.checkCode(ctx, user.ID, code); err != nil {
		return nil, err
	}
	list, err := s.repos.Credentials(s.db).SearchBySite(ctx, user.ID, strings.TrimSpace(siteName))
	if err != nil {
		return nil, err
	}
	if err := s.open(list); err != nil {
		return nil, err
	}
	s.log.Debug(ctx, "credential search", "user_id", user.ID, "hits", len(list))
	return list, nil
}

func (s *credentialService) update(ctx context.Context, c *models.Credential) error {
	repo := s.repos.Credentials(s.db)
	err := s.store(ctx, c, func(c *models.Credential) error { return repo.Update(ctx, c) })
	if errors.Is(err, repositories.ErrNotFound) {
		return newError(ErrNotFound, msgCredentialNotFound)
	}
	return err
}

func (s *credentialService) Replace(ctx context.Context, user *models.User, id int, in models.CredentialInput) (*models.Credential, error) {
	in = normalizeInput(in)
	if in.SiteName == "" {
		in.SiteName = defaultSiteName
	}
	if err := validateCredential(in); err != nil {
		return nil, err
	}
	c, err := s.get(ctx, user.ID, id)
	if err != nil {
		return nil, err
	}
	c.Login = in.Login
	c.Password = in.Password
	c.SiteName = in.SiteName
	c.Description = in.Description
	c.URL = in.URL
	if err := s.update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *credentialService) Patch(ctx context.Context, user *models.User, id int, p models.CredentialPatch) (*models.Credential, error) {
	c, err := s.get(ctx, user.ID, id)
	if err != nil {
		return nil, err
	}
	if p.Login != nil {
		c.Login = *p.Login
	}
	if p.Password != nil {
		c.Password = *p.Password
	}
	if p.SiteName != nil && strings.TrimSpace(*p.SiteName) != "" {
		c.SiteName = strings.TrimSpace(*p.SiteName)
	}
	if p.Description != nil {
		c.Description = cleanOptional(p.Description)
	}
	if p.URL != nil {
		c.URL = cleanOptional(p.URL)
	}
	in := models.CredentialInput{Login: c.Login, Password: c.Password, SiteName: c.SiteName, Description: c.Description, URL: c.URL}
	if err := validateCredential(in); err != nil {
		return nil, err
	}
	if err := s.update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *credentialService) Delete(ctx context.Context, user *models.User, id int) (*models.Credential, error) {
	c, err := s.get(ctx, user.ID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repos.Credentials(s.db).Delete(ctx, user.ID, id); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, newError(ErrNotFound, msgCredentialNotFound)
		}
		return nil, fmt.Errorf("delete credential: %w", err)
	}
	s.log.Info(ctx, "credential deleted", "user_id", user.ID, "credential_id", id)
	return c, nil
}
