package usecase

import (
	"context"
	"time"

	"github.com/shandysiswandi/gorecover/internal/pkg/clock"
	"github.com/shandysiswandi/gorecover/internal/pkg/config"
	"github.com/shandysiswandi/gorecover/internal/pkg/goerror"
	"github.com/shandysiswandi/gorecover/internal/pkg/goroutine"
	"github.com/shandysiswandi/gorecover/internal/pkg/hash"
	"github.com/shandysiswandi/gorecover/internal/pkg/instrument"
	"github.com/shandysiswandi/gorecover/internal/pkg/otp"
	"github.com/shandysiswandi/gorecover/internal/pkg/ratelimit"
	"github.com/shandysiswandi/gorecover/internal/pkg/secretbox"
	"github.com/shandysiswandi/gorecover/internal/pkg/session"
	"github.com/shandysiswandi/gorecover/internal/pkg/uid"
	"github.com/shandysiswandi/gorecover/internal/pkg/validator"
	"github.com/shandysiswandi/gorecover/internal/recovery/entity"
	"go.opentelemetry.io/otel/trace"
)

const defaultDriftWindow = 50

type CodeIssuedEvent struct {
	Target    string
	Email     string
	Username  string
	Code      string
	ExpiresAt *time.Time
}

type VerifiedEvent struct {
	Target     string
	Username   string
	VerifiedAt time.Time
}

type repoMessaging interface {
	PublishCodeIssued(ctx context.Context, msg CodeIssuedEvent) error
	PublishVerified(ctx context.Context, msg VerifiedEvent) error
}

type repoDB interface {
	GetActiveVerification(ctx context.Context, kind entity.VerificationKind, target, codeHash string, now time.Time) (*entity.Verification, error)
	GetIdentityByLogin(ctx context.Context, login string) (*entity.Identity, error)

	ReplaceVerification(ctx context.Context, v entity.Verification) error

	ConsumeVerification(ctx context.Context, kind entity.VerificationKind, target, codeHash string) (int64, error)
	DeleteExpiredVerifications(ctx context.Context, before time.Time) (int64, error)
}

type handoff interface {
	Issue(ctx context.Context, username string) (*session.Session, error)
	Redeem(ctx context.Context, token string) (string, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	handoff       handoff
	limiter       ratelimit.Limiter
	sealer        secretbox.Sealer
	validator     validator.Validator
	cfg           config.Config
	hmac          hash.Hash
	uid           uid.NumberID
	totp          otp.OTP
	clock         clock.Clocker
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Handoff       handoff
	Limiter       ratelimit.Limiter
	Sealer        secretbox.Sealer
	Validator     validator.Validator
	Config        config.Config
	HMAC          hash.Hash
	UID           uid.NumberID
	Totp          otp.OTP
	Clock         clock.Clocker
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		handoff:       dep.Handoff,
		limiter:       dep.Limiter,
		sealer:        dep.Sealer,
		validator:     dep.Validator,
		cfg:           dep.Config,
		hmac:          dep.HMAC,
		uid:           dep.UID,
		totp:          dep.Totp,
		clock:         dep.Clock,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("recovery.usecase").Start(ctx, name)
}

// errInvalidCode is the single rejection for unknown, mismatched and replayed codes.
func errInvalidCode() error {
	return goerror.NewInvalidInput(nil, "code", "Invalid code")
}

func sealScope(kind entity.VerificationKind, target string) secretbox.Scope {
	return secretbox.Scope{
		Subject: kind.String() + ":" + target,
		Purpose: secretbox.PurposeRecoverySeed,
	}
}

func attemptKey(kind entity.VerificationKind, target string) string {
	return kind.String() + ":" + target
}

func (s *Usecase) driftWindow() int {
	if s.cfg == nil {
		return defaultDriftWindow
	}
	if w := s.cfg.GetInt("modules.recovery.drift_window"); w > 0 {
		return w
	}
	return defaultDriftWindow
}
