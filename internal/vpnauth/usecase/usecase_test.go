package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shandysiswandi/vpnguard/internal/pkg/clock"
	"github.com/shandysiswandi/vpnguard/internal/pkg/config"
	"github.com/shandysiswandi/vpnguard/internal/pkg/goerror"
	"github.com/shandysiswandi/vpnguard/internal/pkg/goroutine"
	"github.com/shandysiswandi/vpnguard/internal/pkg/instrument"
	"github.com/shandysiswandi/vpnguard/internal/pkg/lockout"
	"github.com/shandysiswandi/vpnguard/internal/pkg/mfa"
	"github.com/shandysiswandi/vpnguard/internal/pkg/otp"
	"github.com/shandysiswandi/vpnguard/internal/pkg/uid"
	"github.com/shandysiswandi/vpnguard/internal/pkg/validator"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/entity"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/outbound/memdb"
)

var errStoreDown = errors.New("store down")

// flakyDB lets a test break selected store calls.
type flakyDB struct {
	*memdb.MemDB

	mu           sync.Mutex
	failGet      bool
	failLog      bool
	failMarkOnce bool
	logCalls     int
}

func (f *flakyDB) GetAccount(ctx context.Context, username string) (*entity.Account, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return nil, errStoreDown
	}
	return f.MemDB.GetAccount(ctx, username)
}

func (f *flakyDB) MarkAccountEnabled(ctx context.Context, username string, at time.Time) (bool, error) {
	f.mu.Lock()
	fail := f.failMarkOnce
	f.failMarkOnce = false
	f.mu.Unlock()
	if fail {
		return false, errStoreDown
	}
	return f.MemDB.MarkAccountEnabled(ctx, username, at)
}

func (f *flakyDB) CreateAccessLog(ctx context.Context, log entity.AccessLog) error {
	f.mu.Lock()
	f.logCalls++
	fail := f.failLog
	f.mu.Unlock()
	if fail {
		return errStoreDown
	}
	return f.MemDB.CreateAccessLog(ctx, log)
}

type fakeMessaging struct {
	mu       sync.Mutex
	setup    []SetupRequiredEvent
	degraded []AccessLogDegradedEvent
}

func (f *fakeMessaging) PublishSetupRequired(_ context.Context, msg SetupRequiredEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.setup = append(f.setup, msg)
	return nil
}

func (f *fakeMessaging) PublishAccessLogDegraded(_ context.Context, msg AccessLogDegradedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.degraded = append(f.degraded, msg)
	return nil
}

type fixture struct {
	uc    *Usecase
	db    *flakyDB
	mq    *fakeMessaging
	clock *clock.Manual
	totp  *otp.TOTP
	gm    *goroutine.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg, err := config.NewViperFromBytes("yaml", []byte("app: {}"))
	require.NoError(t, err)

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	sf, err := uid.NewSnowflakeNode(1)
	require.NoError(t, err)

	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}

	// aligned to a 30s step so previous/next step codes are unambiguous
	clk := clock.NewManual(time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC))
	totp := otp.NewTOTP("AWS VPN 2FA", 0, 0)
	f := &fixture{
		db:    &flakyDB{MemDB: memdb.NewMemDB()},
		mq:    &fakeMessaging{},
		clock: clk,
		totp:  totp,
		gm:    goroutine.NewManager(8),
	}

	f.uc = New(Dependency{
		RepoDB:        f.db,
		RepoMessaging: f.mq,
		Validator:     v,
		Config:        cfg,
		MFAEncryptor:  mfa.NewAESGCMEncryptor(mfa.StaticKeyProvider{KeyBytes: key}),
		UID:           sf,
		Totp:          totp,
		Clock:         clk,
		Lockout:       lockout.NewMemory(clk, lockout.Config{MaxFailures: 6, Window: 15 * time.Minute}),
		Instrument:    instrument.NewNoop(),
		Goroutine:     f.gm,
	})

	return f
}

func (f *fixture) code(t *testing.T, secret string, offset time.Duration) string {
	t.Helper()

	code, err := f.totp.GenerateCode(secret, f.clock.Now().Add(offset))
	require.NoError(t, err)
	return code
}

// wrongCode returns a well-formed code that matches neither the current nor
// the previous step.
func (f *fixture) wrongCode(t *testing.T, secret string) string {
	t.Helper()

	cur := f.code(t, secret, 0)
	prev := f.code(t, secret, -30*time.Second)
	for _, c := range []string{"000000", "111111", "222222"} {
		if c != cur && c != prev {
			return c
		}
	}
	t.Fatal("no wrong code available")
	return ""
}

func (f *fixture) enrolled(t *testing.T, username string) string {
	t.Helper()

	out, err := f.uc.Setup(context.Background(), SetupInput{Username: username})
	require.NoError(t, err)
	require.NoError(t, f.uc.Enable(context.Background(), EnableInput{
		Username: username,
		Token:    f.code(t, out.Secret, 0),
	}))
	return out.Secret
}

func (f *fixture) logs(t *testing.T) []entity.AccessLog {
	t.Helper()

	logs, err := f.db.ListRecentAccessLogs(context.Background(), 0)
	require.NoError(t, err)
	return logs
}

func requireCode(t *testing.T, err error, code goerror.Code) {
	t.Helper()

	require.Error(t, err)
	require.Equal(t, code, goerror.CodeOf(err), "unexpected error: %v", err)
}
