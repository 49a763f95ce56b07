package session

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"appcheckout/internal/domain"
	"appcheckout/internal/migrate"
)

func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()
	id := uuid.NewString()

	if _, err := repo.Get(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	state := domain.NewSessionState(id, time.Now().UTC())
	state.State = domain.StateActive
	state.Items = []domain.CartItem{{Key: "k1", ProductID: "p1", Quantity: 2, UnitPrice: domain.Cents(1000), LineSubtotal: domain.Cents(2000)}}
	state.ChosenRates["v1"] = "flat_rate:1"
	if err := repo.Save(ctx, state); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if state.Version != 1 {
		t.Fatalf("expected version 1, got %d", state.Version)
	}

	loaded, err := repo.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Version != 1 || len(loaded.Items) != 1 || loaded.ChosenRates["v1"] != "flat_rate:1" {
		t.Fatalf("unexpected loaded state %+v", loaded)
	}
	if !loaded.Items[0].LineSubtotal.Equal(domain.Cents(2000)) {
		t.Fatalf("money not preserved: %s", loaded.Items[0].LineSubtotal)
	}

	stale := *loaded
	loaded.Items[0].Quantity = 3
	if err := repo.Save(ctx, loaded); err != nil {
		t.Fatalf("second save: %v", err)
	}
	if err := repo.Save(ctx, &stale); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for stale write, got %v", err)
	}
	fresh := domain.NewSessionState(id, time.Now())
	if err := repo.Save(ctx, fresh); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict for new session over live id, got %v", err)
	}

	if err := repo.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Get(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestMemoryRepository(t *testing.T) {
	exerciseRepository(t, NewMemory(time.Hour, nil))
}

func TestMemoryRepositoryExpires(t *testing.T) {
	repo := NewMemory(time.Hour, nil).(*memoryRepo)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	state := domain.NewSessionState("s1", now)
	if err := repo.Save(context.Background(), state); err != nil {
		t.Fatalf("save: %v", err)
	}
	now = now.Add(2 * time.Hour)
	if _, err := repo.Get(context.Background(), "s1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
	if err := repo.Save(context.Background(), domain.NewSessionState("s1", now)); err != nil {
		t.Fatalf("new session over expired id: %v", err)
	}
}

func TestMemoryRepositoryIsolatesCallers(t *testing.T) {
	repo := NewMemory(time.Hour, nil)
	ctx := context.Background()
	state := domain.NewSessionState("s1", time.Now())
	state.Items = []domain.CartItem{{Key: "k", Quantity: 1}}
	if err := repo.Save(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}
	state.Items[0].Quantity = 99
	loaded, err := repo.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.Items[0].Quantity != 1 {
		t.Fatalf("store shares memory with caller")
	}
}

func TestPostgresRepository(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer pool.Close()
	if err := migrate.Apply(ctx, pool, nil); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	repo := NewPostgres(pool, time.Hour, nil)
	exerciseRepository(t, repo)
	if _, err := repo.PurgeExpired(ctx); err != nil {
		t.Fatalf("purge: %v", err)
	}
}

func TestRedisRepository(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("ping redis: %v", err)
	}
	exerciseRepository(t, NewRedis(client, time.Minute, nil))
}
