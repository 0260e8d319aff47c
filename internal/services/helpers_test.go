package services

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"passkeeper/internal/config"
	"passkeeper/internal/cryptox"
	"passkeeper/internal/logging"
	"passkeeper/internal/repositories/memory"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type sentMail struct {
	to, subject, body string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (n *recordingNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMail{to: to, subject: subject, body: body})
	return n.err
}

func (n *recordingNotifier) last(t *testing.T) sentMail {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.sent, "no mail sent")
	return n.sent[len(n.sent)-1]
}

var codeRe = regexp.MustCompile(`\d{6}`)

func (n *recordingNotifier) lastCode(t *testing.T) string {
	t.Helper()
	code := codeRe.FindString(n.last(t).body)
	require.NotEmpty(t, code)
	return code
}

type testEnv struct {
	db          *sql.DB
	mock        sqlmock.Sqlmock
	repos       *memory.Manager
	clock       *testClock
	mail        *recordingNotifier
	cfg         *config.Config
	auth        *authService
	accounts    *accountService
	credentials *credentialService
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.JWT.SecretKey = "test-secret"
	cfg.JWT.ResetSecretKey = "test-reset-secret"
	cfg.Auth.ResetLinkBaseURL = "http://test/reset?token="
	return cfg
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithSealer(t, nil)
}

func newTestEnvWithSealer(t *testing.T, sealer *cryptox.Sealer) *testEnv {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})

	cfg := testConfig()
	log := logging.Nop()
	clock := &testClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	repos := memory.NewManager()
	mail := &recordingNotifier{}

	auth := NewAuthService(cfg.JWT).(*authService)
	auth.cost = bcrypt.MinCost
	auth.now = clock.Now

	lockouts := NewLockoutService(db, repos, cfg.Auth, log).(*lockoutService)
	lockouts.now = clock.Now

	accounts := NewAccountService(db, repos, auth, lockouts, mail, cfg, log).(*accountService)
	accounts.now = clock.Now

	if sealer == nil {
		sealer, err = cryptox.NewSealer("")
		require.NoError(t, err)
	}
	credentials := NewCredentialService(db, repos, sealer, cfg.Auth, log).(*credentialService)
	credentials.now = clock.Now

	return &testEnv{
		db:          db,
		mock:        mock,
		repos:       repos,
		clock:       clock,
		mail:        mail,
		cfg:         cfg,
		auth:        auth,
		accounts:    accounts,
		credentials: credentials,
	}
}

// expectTx registers one committed transaction.
func (e *testEnv) expectTx() {
	e.mock.ExpectBegin()
	e.mock.ExpectCommit()
}

var errMailDown = errors.New("smtp down")
