package session

import (
	"context"
	"encoding/json"
	"fmt"

	"appcheckout/internal/domain"
)

// Repository stores checkout session snapshots keyed by session id.
// Get returns domain.ErrNotFound for unknown or expired sessions. Save
// requires the snapshot's Version to match the stored version (zero for a
// new session), bumps it on success and returns domain.ErrConflict otherwise.
type Repository interface {
	Get(ctx context.Context, id string) (*domain.SessionState, error)
	Save(ctx context.Context, state *domain.SessionState) error
	Delete(ctx context.Context, id string) error
}

func encode(state *domain.SessionState) ([]byte, error) {
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode session %s: %w", state.ID, err)
	}
	return raw, nil
}

func decode(raw []byte) (*domain.SessionState, error) {
	var state domain.SessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if state.ChosenRates == nil {
		state.ChosenRates = map[string]string{}
	}
	return &state, nil
}
