package db

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/gorecover/internal/pkg/goerror"
	"github.com/shandysiswandi/gorecover/internal/pkg/instrument"
	"github.com/shandysiswandi/gorecover/internal/pkg/otp"
	"github.com/shandysiswandi/gorecover/internal/recovery/entity"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

const kind = entity.VerificationKindPasswordRecovery

func newTestDB(t *testing.T) (*DB, *pgxpool.Pool) {
	t.Helper()

	if testing.Short() {
		t.Skip("postgres integration test skipped in -short mode")
	}

	ctx := context.Background()
	ctr, err := postgres.Run(ctx, "postgres:17-alpine",
		postgres.WithDatabase("recovery"),
		postgres.WithUsername("recovery"),
		postgres.WithPassword("recovery"),
		postgres.WithInitScripts(filepath.Join("..", "..", "..", "..", "migrations", "0001_recovery.up.sql")),
		postgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, ctr)
	if err != nil {
		t.Fatalf("start postgres: %v", err)
	}

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("pool: %v", err)
	}
	t.Cleanup(pool.Close)

	if _, err := pool.Exec(ctx, `INSERT INTO users (id, email, username) VALUES (1, 'alice@example.com', 'alice')`); err != nil {
		t.Fatalf("seed users: %v", err)
	}

	return NewDB(pool, instrument.NewNoop()), pool
}

func newRecord(id int64, target, codeHash string, expiresAt *time.Time) entity.Verification {
	return entity.Verification{
		ID:           id,
		Kind:         kind,
		Target:       target,
		CodeHash:     codeHash,
		Secret:       []byte{0x01, 0x02, 0x03},
		Algorithm:    otp.AlgorithmSHA256,
		ValidSeconds: 30,
		ExpiresAt:    expiresAt,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestDB_Verifications(t *testing.T) {
	store, _ := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	exp := now.Add(time.Hour)
	if err := store.ReplaceVerification(ctx, newRecord(10, "alice", "hash-1", &exp)); err != nil {
		t.Fatalf("ReplaceVerification() error = %v", err)
	}

	got, err := store.GetActiveVerification(ctx, kind, "alice", "hash-1", now)
	if err != nil {
		t.Fatalf("GetActiveVerification() error = %v", err)
	}
	if got.ID != 10 || got.Algorithm != otp.AlgorithmSHA256 || got.ValidSeconds != 30 || len(got.Secret) != 3 || got.ExpiresAt == nil {
		t.Fatalf("GetActiveVerification() = %+v", got)
	}

	if _, err := store.GetActiveVerification(ctx, kind, "alice", "hash-1", exp.Add(time.Second)); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("expired lookup error = %v, want ErrNotFound", err)
	}

	// a new issue replaces the previous record
	if err := store.ReplaceVerification(ctx, newRecord(11, "alice", "hash-2", nil)); err != nil {
		t.Fatalf("second ReplaceVerification() error = %v", err)
	}
	if _, err := store.GetActiveVerification(ctx, kind, "alice", "hash-1", now); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("replaced record still active: %v", err)
	}

	n, err := store.ConsumeVerification(ctx, kind, "alice", "hash-2")
	if err != nil || n != 1 {
		t.Fatalf("first consume = (%d, %v), want (1, nil)", n, err)
	}
	n, err = store.ConsumeVerification(ctx, kind, "alice", "hash-2")
	if err != nil || n != 0 {
		t.Fatalf("second consume = (%d, %v), want (0, nil)", n, err)
	}
}

func TestDB_ConcurrentConsume(t *testing.T) {
	store, _ := newTestDB(t)
	ctx := context.Background()

	if err := store.ReplaceVerification(ctx, newRecord(20, "alice@example.com", "h", nil)); err != nil {
		t.Fatal(err)
	}

	var removed atomic.Int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Go(func() {
			n, err := store.ConsumeVerification(ctx, kind, "alice@example.com", "h")
			if err != nil {
				t.Errorf("consume error = %v", err)
			}
			removed.Add(n)
		})
	}
	wg.Wait()

	if removed.Load() != 1 {
		t.Fatalf("total removed = %d, want 1", removed.Load())
	}
}

func TestDB_PurgeAndIdentity(t *testing.T) {
	store, _ := newTestDB(t)
	ctx := context.Background()
	now := time.Now()

	past := now.Add(-time.Minute)
	_ = store.ReplaceVerification(ctx, newRecord(30, "old", "h", &past))
	_ = store.ReplaceVerification(ctx, newRecord(31, "forever", "h", nil))

	n, err := store.DeleteExpiredVerifications(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("DeleteExpiredVerifications() = (%d, %v), want (1, nil)", n, err)
	}

	for _, login := range []string{"alice", "alice@example.com"} {
		ident, err := store.GetIdentityByLogin(ctx, login)
		if err != nil || ident.Username != "alice" {
			t.Fatalf("GetIdentityByLogin(%q) = (%+v, %v)", login, ident, err)
		}
	}
	if _, err := store.GetIdentityByLogin(ctx, "nobody@example.com"); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("unknown login error = %v, want ErrNotFound", err)
	}
}
