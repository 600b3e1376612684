package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/shandysiswandi/gorecover/internal/pkg/clock"
	"github.com/shandysiswandi/gorecover/internal/pkg/config"
	"github.com/shandysiswandi/gorecover/internal/pkg/goroutine"
	"github.com/shandysiswandi/gorecover/internal/pkg/hash"
	"github.com/shandysiswandi/gorecover/internal/pkg/instrument"
	"github.com/shandysiswandi/gorecover/internal/pkg/jwt"
	"github.com/shandysiswandi/gorecover/internal/pkg/messaging"
	"github.com/shandysiswandi/gorecover/internal/pkg/otp"
	"github.com/shandysiswandi/gorecover/internal/pkg/ratelimit"
	"github.com/shandysiswandi/gorecover/internal/pkg/router"
	"github.com/shandysiswandi/gorecover/internal/pkg/secretbox"
	"github.com/shandysiswandi/gorecover/internal/pkg/session"
	"github.com/shandysiswandi/gorecover/internal/pkg/uid"
	"github.com/shandysiswandi/gorecover/internal/pkg/validator"
	"github.com/shandysiswandi/gorecover/internal/recovery/entity"
	"github.com/shandysiswandi/gorecover/internal/recovery/inbound"
	"github.com/shandysiswandi/gorecover/internal/recovery/outbound/db"
	"github.com/shandysiswandi/gorecover/internal/recovery/outbound/memory"
	"github.com/shandysiswandi/gorecover/internal/recovery/outbound/mq"
	"github.com/shandysiswandi/gorecover/internal/recovery/usecase"
)

const (
	// DriverPostgres stores verifications in postgres.
	DriverPostgres = "postgres"
	// DriverMemory keeps verifications in process. Local runs only.
	DriverMemory = "memory"

	attemptPrefix = "gorecover:recovery:attempts:"
)

var ErrDBConnRequired = errors.New("recovery: postgres driver requires a database connection")

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	DBConn     *pgxpool.Pool              // nil with the memory driver
	CacheConn  *redis.Client              `validate:"required"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	UID        uid.NumberID               `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Sealer     secretbox.Sealer           `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Totp       otp.OTP                    `validate:"required"`
	Validator  validator.Validator        `validate:"required"`
	JWT        jwt.JWT                    `validate:"required"`
}

type repoDB interface {
	GetActiveVerification(ctx context.Context, kind entity.VerificationKind, target, codeHash string, now time.Time) (*entity.Verification, error)
	GetIdentityByLogin(ctx context.Context, login string) (*entity.Identity, error)
	ReplaceVerification(ctx context.Context, v entity.Verification) error
	ConsumeVerification(ctx context.Context, kind entity.VerificationKind, target, codeHash string) (int64, error)
	DeleteExpiredVerifications(ctx context.Context, before time.Time) (int64, error)
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	repo, err := newRepoDB(dep)
	if err != nil {
		return err
	}

	uc := usecase.New(usecase.Dependency{
		RepoDB:        repo,
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Handoff:       session.NewHandoff(dep.JWT, session.NewRedisStore(dep.CacheConn), dep.Clock),
		Limiter: ratelimit.NewFixedWindow(
			dep.CacheConn,
			attemptPrefix,
			dep.Config.GetInt64("modules.recovery.attempt_limit"),
			dep.Config.GetMinute("modules.recovery.attempt_window_minutes"),
		),
		Sealer:     dep.Sealer,
		Validator:  dep.Validator,
		Config:     dep.Config,
		HMAC:       dep.HMAC,
		UID:        dep.UID,
		Totp:       dep.Totp,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
		Goroutine:  dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	if interval := dep.Config.GetMinute("modules.recovery.purge_interval_minutes"); interval > 0 {
		dep.Goroutine.Go(dep.Ctx, "recovery.janitor", func(ctx context.Context) error {
			return uc.RunJanitor(ctx, interval)
		})
	}

	return nil
}

func newRepoDB(dep Dependency) (repoDB, error) {
	switch driver := strings.TrimSpace(dep.Config.GetString("database.driver")); driver {
	case "", DriverPostgres:
		if dep.DBConn == nil {
			return nil, ErrDBConnRequired
		}
		return db.NewDB(dep.DBConn, dep.Instrument), nil
	case DriverMemory:
		users := parseMemoryUsers(dep.Config.GetArray("modules.recovery.memory_users"))
		slog.WarnContext(dep.Ctx, "recovery uses the in-memory store", "users", len(users))
		return memory.NewStore(users...), nil
	default:
		return nil, fmt.Errorf("recovery: unknown database driver %q", driver)
	}
}

// parseMemoryUsers reads "email|username" pairs. Malformed entries are skipped.
func parseMemoryUsers(raw []string) []entity.Identity {
	return lo.FilterMap(raw, func(item string, _ int) (entity.Identity, bool) {
		email, username, ok := strings.Cut(item, "|")
		email, username = strings.TrimSpace(email), strings.TrimSpace(username)
		if !ok || email == "" || username == "" {
			return entity.Identity{}, false
		}
		return entity.Identity{Email: email, Username: username}, true
	})
}
