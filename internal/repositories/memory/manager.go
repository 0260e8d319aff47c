// Package memory is a map-backed repositories.Manager. Transactions are not
// modelled: every repository writes straight to the shared maps.
package memory

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"passkeeper/internal/dbx"
	"passkeeper/internal/models"
	"passkeeper/internal/repositories"
)

type Manager struct {
	mu          sync.Mutex
	nextUser    int
	nextCred    int
	nextLock    int
	nextTwo     int
	users       map[int]models.User
	credentials map[int]models.Credential
	lockouts    map[int]models.Lockout   // by user id
	twoFactors  map[int]models.TwoFactor // by user id
}

var _ repositories.Manager = (*Manager)(nil)

func NewManager() *Manager {
	return &Manager{
		users:       map[int]models.User{},
		credentials: map[int]models.Credential{},
		lockouts:    map[int]models.Lockout{},
		twoFactors:  map[int]models.TwoFactor{},
	}
}

func (m *Manager) RunMigrations(context.Context, *sql.DB) error { return nil }

func (m *Manager) Users(dbx.DBTX) repositories.UserRepository             { return userRepo{m} }
func (m *Manager) Credentials(dbx.DBTX) repositories.CredentialRepository { return credentialRepo{m} }
func (m *Manager) Lockouts(dbx.DBTX) repositories.LockoutRepository       { return lockoutRepo{m} }
func (m *Manager) TwoFactors(dbx.DBTX) repositories.TwoFactorRepository   { return twoFactorRepo{m} }

// Lockout and TwoFactor expose raw rows to tests.
func (m *Manager) Lockout(userID int) (models.Lockout, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.lockouts[userID]
	return l, ok
}

func (m *Manager) TwoFactor(userID int) (models.TwoFactor, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.twoFactors[userID]
	return t, ok
}

// Credential returns the stored row as persisted, without unsealing.
func (m *Manager) Credential(id int) (models.Credential, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.credentials[id]
	return c, ok
}

type userRepo struct{ m *Manager }

func (r userRepo) uniqueLocked(u *models.User) error {
	for id, other := range r.m.users {
		if id == u.ID {
			continue
		}
		if other.Email == u.Email || other.Username == u.Username {
			return repositories.ErrDuplicate
		}
	}
	return nil
}

func (r userRepo) Create(_ context.Context, u *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.uniqueLocked(u); err != nil {
		return err
	}
	r.m.nextUser++
	u.ID = r.m.nextUser
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.m.users[u.ID] = *u
	return nil
}

func (r userRepo) find(match func(models.User) bool) (*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r userRepo) GetByID(_ context.Context, id int) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.ID == id })
}

func (r userRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Email == email })
}

func (r userRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u models.User) bool { return u.Username == username })
}

func (r userRepo) List(_ context.Context, limit, offset int) ([]*models.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	ids := make([]int, 0, len(r.m.users))
	for id := range r.m.users {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	var out []*models.User
	for i, id := range ids {
		if i < offset {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		u := r.m.users[id]
		out = append(out, &u)
	}
	return out, nil
}

func (r userRepo) Update(_ context.Context, u *models.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[u.ID]; !ok {
		return repositories.ErrNotFound
	}
	if err := r.uniqueLocked(u); err != nil {
		return err
	}
	u.UpdatedAt = time.Now()
	r.m.users[u.ID] = *u
	return nil
}

func (r userRepo) modify(id int, fn func(*models.User)) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return repositories.ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now()
	r.m.users[id] = u
	return nil
}

func (r userRepo) UpdatePassword(_ context.Context, id int, hash string) error {
	return r.modify(id, func(u *models.User) { u.PasswordHash = hash })
}

func (r userRepo) ConfirmEmail(_ context.Context, id int) error {
	return r.modify(id, func(u *models.User) {
		u.IsEmailConfirmed = true
		u.EmailConfirmationCode = nil
	})
}

// Delete cascades like the SQL schema does.
func (r userRepo) Delete(_ context.Context, id int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.users[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(r.m.users, id)
	delete(r.m.lockouts, id)
	delete(r.m.twoFactors, id)
	for cid, c := range r.m.credentials {
		if c.UserID == id {
			delete(r.m.credentials, cid)
		}
	}
	return nil
}

type credentialRepo struct{ m *Manager }

func (r credentialRepo) Create(_ context.Context, c *models.Credential) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.nextCred++
	c.ID = r.m.nextCred
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	r.m.credentials[c.ID] = *c
	return nil
}

func (r credentialRepo) GetByID(_ context.Context, userID, id int) (*models.Credential, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.credentials[id]
	if !ok || c.UserID != userID {
		return nil, repositories.ErrNotFound
	}
	return &c, nil
}

func (r credentialRepo) filter(userID int, keep func(models.Credential) bool) []*models.Credential {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := []*models.Credential{}
	for _, c := range r.m.credentials {
		if c.UserID == userID && keep(c) {
			c := c
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r credentialRepo) ListByUser(_ context.Context, userID int) ([]*models.Credential, error) {
	return r.filter(userID, func(models.Credential) bool { return true }), nil
}

func (r credentialRepo) SearchBySite(_ context.Context, userID int, siteName string) ([]*models.Credential, error) {
	q := strings.ToLower(siteName)
	return r.filter(userID, func(c models.Credential) bool {
		return strings.Contains(strings.ToLower(c.SiteName), q)
	}), nil
}

func (r credentialRepo) Update(_ context.Context, c *models.Credential) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	cur, ok := r.m.credentials[c.ID]
	if !ok || cur.UserID != c.UserID {
		return repositories.ErrNotFound
	}
	c.CreatedAt = cur.CreatedAt
	c.IsLogged = cur.IsLogged
	c.UpdatedAt = time.Now()
	r.m.credentials[c.ID] = *c
	return nil
}

func (r credentialRepo) Delete(_ context.Context, userID, id int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c, ok := r.m.credentials[id]
	if !ok || c.UserID != userID {
		return repositories.ErrNotFound
	}
	delete(r.m.credentials, id)
	return nil
}

func (r credentialRepo) MarkLogged(_ context.Context, userID int) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for id, c := range r.m.credentials {
		if c.UserID == userID {
			c.IsLogged = 1
			r.m.credentials[id] = c
			n++
		}
	}
	return n, nil
}

type lockoutRepo struct{ m *Manager }

func (r lockoutRepo) Get(_ context.Context, userID int) (*models.Lockout, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l, ok := r.m.lockouts[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &l, nil
}

func (r lockoutRepo) RegisterFailure(_ context.Context, userID int, at time.Time, threshold int, blockUntil time.Time) (*models.Lockout, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	l, ok := r.m.lockouts[userID]
	if !ok {
		r.m.nextLock++
		l = models.Lockout{ID: r.m.nextLock, UserID: userID}
	}
	l.Attempts++
	l.LastAttempt = at
	if l.Attempts >= threshold {
		until := blockUntil
		l.BlockedUntil = &until
	}
	r.m.lockouts[userID] = l
	return &l, nil
}

func (r lockoutRepo) Delete(_ context.Context, userID int) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	delete(r.m.lockouts, userID)
	return nil
}

type twoFactorRepo struct{ m *Manager }

func (r twoFactorRepo) Upsert(_ context.Context, userID int, code string, createdAt, expiresAt time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.twoFactors[userID]
	if !ok {
		r.m.nextTwo++
		t = models.TwoFactor{ID: r.m.nextTwo, UserID: userID}
	}
	t.Code = code
	t.CreatedAt = createdAt
	t.ExpiresAt = expiresAt
	t.FailedAttempts = 0
	r.m.twoFactors[userID] = t
	return nil
}

func (r twoFactorRepo) Get(_ context.Context, userID int) (*models.TwoFactor, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.twoFactors[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	return &t, nil
}

func (r twoFactorRepo) GetForUpdate(ctx context.Context, userID int) (*models.TwoFactor, error) {
	return r.Get(ctx, userID)
}

func (r twoFactorRepo) IncrementFailures(_ context.Context, userID int) (int, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.twoFactors[userID]
	if !ok {
		return 0, repositories.ErrNotFound
	}
	t.FailedAttempts++
	r.m.twoFactors[userID] = t
	return t.FailedAttempts, nil
}
