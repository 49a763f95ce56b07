package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"appcheckout/internal/domain"
)

const keyPrefix = "appcheckout:session:"

type redisRepo struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedis stores sessions as JSON values with a TTL. Saves are guarded by
// WATCH so a concurrent writer turns into domain.ErrConflict.
func NewRedis(client *redis.Client, ttl time.Duration, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &redisRepo{client: client, ttl: ttl, logger: logger}
}

func redisKey(id string) string {
	return keyPrefix + id
}

func (r *redisRepo) Get(ctx context.Context, id string) (*domain.SessionState, error) {
	raw, err := r.client.Get(ctx, redisKey(id)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return decode(raw)
}

func (r *redisRepo) Save(ctx context.Context, state *domain.SessionState) error {
	key := redisKey(state.ID)
	next := *state
	next.Version = state.Version + 1
	payload, err := encode(&next)
	if err != nil {
		return err
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current := 0
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case err == redis.Nil:
		case err != nil:
			return err
		default:
			stored, err := decode(raw)
			if err != nil {
				return err
			}
			current = stored.Version
		}
		if current != state.Version {
			return domain.ErrConflict
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, r.ttl)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		state.Version = next.Version
		return nil
	case errors.Is(err, domain.ErrConflict), errors.Is(err, redis.TxFailedErr):
		r.logger.Debug("session version conflict", zap.String("session_id", state.ID))
		return domain.ErrConflict
	default:
		return fmt.Errorf("save session %s: %w", state.ID, err)
	}
}

func (r *redisRepo) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, redisKey(id)).Err(); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	return nil
}
