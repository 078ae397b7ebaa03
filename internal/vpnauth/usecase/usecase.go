package usecase

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"github.com/shandysiswandi/vpnguard/internal/pkg/clock"
	"github.com/shandysiswandi/vpnguard/internal/pkg/config"
	"github.com/shandysiswandi/vpnguard/internal/pkg/goroutine"
	"github.com/shandysiswandi/vpnguard/internal/pkg/instrument"
	"github.com/shandysiswandi/vpnguard/internal/pkg/lockout"
	"github.com/shandysiswandi/vpnguard/internal/pkg/mfa"
	"github.com/shandysiswandi/vpnguard/internal/pkg/otp"
	"github.com/shandysiswandi/vpnguard/internal/pkg/uid"
	"github.com/shandysiswandi/vpnguard/internal/pkg/validator"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/entity"
)

const (
	keyIssuer            = "modules.vpnauth.issuer"
	keyRecentLimit       = "modules.vpnauth.access_log.recent_limit"
	keyRetentionDays     = "modules.vpnauth.access_log.retention_days"
	keyRetentionInterval = "modules.vpnauth.access_log.retention_interval_minutes"

	defaultIssuer      = "AWS VPN 2FA"
	defaultRecentLimit = 50
)

type SetupRequiredEvent struct {
	Username   string
	Has2FA     bool
	IsEnabled  bool
	ObservedAt time.Time
}

type AccessLogDegradedEvent struct {
	Entry entity.AccessLog
	Err   error
}

type repoMessaging interface {
	PublishSetupRequired(ctx context.Context, msg SetupRequiredEvent) error
	PublishAccessLogDegraded(ctx context.Context, msg AccessLogDegradedEvent) error
}

type repoDB interface {
	GetAccount(ctx context.Context, username string) (*entity.Account, error)
	ListRecentAccessLogs(ctx context.Context, limit int) ([]entity.AccessLog, error)

	ProvisionAccount(ctx context.Context, acc entity.Account) (*entity.Account, bool, error)
	MarkAccountEnabled(ctx context.Context, username string, at time.Time) (bool, error)
	CreateAccessLog(ctx context.Context, log entity.AccessLog) error

	DeleteAccessLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	validator     validator.Validator
	cfg           config.Config
	mfaEncryptor  mfa.Encryptor
	uid           uid.NumberID
	totp          otp.OTP
	clock         clock.Clocker
	lockout       lockout.Limiter
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager

	attempts metric.Int64Counter
	degraded metric.Int64Counter
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Validator     validator.Validator
	Config        config.Config
	MFAEncryptor  mfa.Encryptor
	UID           uid.NumberID
	Totp          otp.OTP
	Clock         clock.Clocker
	Lockout       lockout.Limiter
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	s := &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		cfg:           dep.Config,
		mfaEncryptor:  dep.MFAEncryptor,
		uid:           dep.UID,
		totp:          dep.Totp,
		clock:         dep.Clock,
		lockout:       dep.Lockout,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}

	if s.ins == nil {
		s.ins = instrument.NewNoop()
	}

	meter := s.ins.Meter("vpnauth.usecase")

	var err error
	s.attempts, err = meter.Int64Counter("vpnauth.verification.attempts",
		metric.WithDescription("Enable and verify attempts by action and reason."))
	if err != nil {
		slog.Warn("failed to create verification attempts counter", "error", err)
		s.attempts = noop.Int64Counter{}
	}

	s.degraded, err = meter.Int64Counter("vpnauth.access_log.degraded",
		metric.WithDescription("Access-log entries that could not be persisted."))
	if err != nil {
		slog.Warn("failed to create access log degraded counter", "error", err)
		s.degraded = noop.Int64Counter{}
	}

	return s
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("vpnauth.usecase").Start(ctx, name)
}

func (s *Usecase) issuer() string {
	if v := s.cfg.GetString(keyIssuer); v != "" {
		return v
	}
	return defaultIssuer
}

// lockoutKey namespaces the failure counter shared by enable and verify.
func lockoutKey(username string) string {
	return "totp:" + username
}

func (s *Usecase) countAttempt(ctx context.Context, action entity.Action, reason entity.Reason) {
	s.attempts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("action", string(action)),
		attribute.String("reason", string(reason)),
	))
}
