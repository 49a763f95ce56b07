package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"appcheckout/internal/domain"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	ttl    time.Duration
	logger *zap.Logger
}

// PostgresRepository is the Postgres session store. It can also purge
// expired rows.
type PostgresRepository interface {
	Repository
	PurgeExpired(ctx context.Context) (int64, error)
}

func NewPostgres(pool *pgxpool.Pool, ttl time.Duration, logger *zap.Logger) PostgresRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, ttl: ttl, logger: logger}
}

func (r *postgresRepo) Get(ctx context.Context, id string) (*domain.SessionState, error) {
	const q = `
SELECT version, payload
FROM checkout_sessions
WHERE id = $1 AND expires_at > now()
`
	var version int
	var payload []byte
	if err := r.pool.QueryRow(ctx, q, id).Scan(&version, &payload); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("session get failed", zap.String("session_id", id), zap.Error(err))
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	state, err := decode(payload)
	if err != nil {
		return nil, err
	}
	state.Version = version
	return state, nil
}

func (r *postgresRepo) Save(ctx context.Context, state *domain.SessionState) error {
	next := *state
	next.Version = state.Version + 1
	payload, err := encode(&next)
	if err != nil {
		return err
	}
	expiresAt := time.Now().Add(r.ttl)

	var q string
	args := []any{state.ID, string(state.State), payload, expiresAt}
	if state.Version == 0 {
		// A new session may take over the id of an expired row.
		q = `
INSERT INTO checkout_sessions (id, version, state, payload, expires_at)
VALUES ($1, 1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE SET
    version = 1,
    state = EXCLUDED.state,
    payload = EXCLUDED.payload,
    expires_at = EXCLUDED.expires_at,
    created_at = now(),
    updated_at = now()
WHERE checkout_sessions.expires_at <= now()
`
	} else {
		q = `
UPDATE checkout_sessions
SET version = version + 1,
    state = $2,
    payload = $3,
    expires_at = $4,
    updated_at = now()
WHERE id = $1 AND version = $5 AND expires_at > now()
`
		args = append(args, state.Version)
	}

	tag, err := r.pool.Exec(ctx, q, args...)
	if err != nil {
		r.logger.Error("session save failed", zap.String("session_id", state.ID), zap.Error(err))
		return fmt.Errorf("save session %s: %w", state.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConflict
	}
	state.Version = next.Version
	return nil
}

func (r *postgresRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM checkout_sessions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}

func (r *postgresRepo) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM checkout_sessions WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("purge sessions: %w", err)
	}
	if n := tag.RowsAffected(); n > 0 {
		r.logger.Info("purged expired sessions", zap.Int64("count", n))
	}
	return tag.RowsAffected(), nil
}
