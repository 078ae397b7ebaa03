package vpnauth

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shandysiswandi/vpnguard/internal/pkg/clock"
	"github.com/shandysiswandi/vpnguard/internal/pkg/config"
	"github.com/shandysiswandi/vpnguard/internal/pkg/goroutine"
	"github.com/shandysiswandi/vpnguard/internal/pkg/instrument"
	"github.com/shandysiswandi/vpnguard/internal/pkg/lockout"
	"github.com/shandysiswandi/vpnguard/internal/pkg/messaging"
	"github.com/shandysiswandi/vpnguard/internal/pkg/mfa"
	"github.com/shandysiswandi/vpnguard/internal/pkg/otp"
	"github.com/shandysiswandi/vpnguard/internal/pkg/router"
	"github.com/shandysiswandi/vpnguard/internal/pkg/uid"
	"github.com/shandysiswandi/vpnguard/internal/pkg/validator"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/entity"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/inbound"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/outbound/db"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/outbound/memdb"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/outbound/mq"
	"github.com/shandysiswandi/vpnguard/internal/vpnauth/usecase"
)

// store is satisfied by both the Postgres and the in-memory backends.
type store interface {
	GetAccount(ctx context.Context, username string) (*entity.Account, error)
	ListRecentAccessLogs(ctx context.Context, limit int) ([]entity.AccessLog, error)
	ProvisionAccount(ctx context.Context, acc entity.Account) (*entity.Account, bool, error)
	MarkAccountEnabled(ctx context.Context, username string, at time.Time) (bool, error)
	CreateAccessLog(ctx context.Context, log entity.AccessLog) error
	DeleteAccessLogsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type Dependency struct {
	Ctx          context.Context            `validate:"required"`
	Goroutine    *goroutine.Manager         `validate:"required"`
	Router       *router.Router             `validate:"required"`
	Messaging    messaging.Publisher        `validate:"required"`
	Lockout      lockout.Limiter            `validate:"required"`
	Config       config.Config              `validate:"required"`
	Instrument   instrument.Instrumentation `validate:"required"`
	UID          uid.NumberID               `validate:"required"`
	MFAEncryptor mfa.Encryptor              `validate:"required"`
	Clock        clock.Clocker              `validate:"required"`
	Totp         otp.OTP                    `validate:"required"`
	Validator    validator.Validator        `validate:"required"`

	// DBConn is optional; accounts and logs stay in process memory without it.
	DBConn *pgxpool.Pool
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	var repoDB store
	if dep.DBConn != nil {
		if dep.Config.GetBool("database.migrate") {
			if err := db.Migrate(dep.Ctx, dep.DBConn); err != nil {
				return err
			}
		}
		repoDB = db.NewDB(dep.DBConn, dep.Instrument)
	} else {
		slog.Warn("vpnauth is using the in-memory store, data is lost on restart")
		repoDB = memdb.NewMemDB()
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:        repoDB,
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Validator:     dep.Validator,
		Config:        dep.Config,
		MFAEncryptor:  dep.MFAEncryptor,
		UID:           dep.UID,
		Totp:          dep.Totp,
		Clock:         dep.Clock,
		Lockout:       dep.Lockout,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	uc.StartRetention(dep.Ctx)
	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
