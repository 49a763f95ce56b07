package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"appcheckout/internal/domain"
)

type memoryEntry struct {
	version   int
	payload   []byte
	expiresAt time.Time
}

type memoryRepo struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
	logger  *zap.Logger
}

// NewMemory keeps sessions in process. Snapshots are stored encoded so
// callers never share state with the store.
func NewMemory(ttl time.Duration, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &memoryRepo{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger,
	}
}

func (r *memoryRepo) Get(_ context.Context, id string) (*domain.SessionState, error) {
	r.mu.Lock()
	entry, ok := r.live(id)
	r.mu.Unlock()
	if !ok {
		return nil, domain.ErrNotFound
	}
	state, err := decode(entry.payload)
	if err != nil {
		return nil, err
	}
	state.Version = entry.version
	return state, nil
}

func (r *memoryRepo) Save(_ context.Context, state *domain.SessionState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current := 0
	if entry, ok := r.live(state.ID); ok {
		current = entry.version
	}
	if current != state.Version {
		r.logger.Debug("session version conflict",
			zap.String("session_id", state.ID),
			zap.Int("stored", current),
			zap.Int("given", state.Version),
		)
		return domain.ErrConflict
	}

	next := *state
	next.Version = current + 1
	payload, err := encode(&next)
	if err != nil {
		return err
	}
	r.entries[state.ID] = memoryEntry{
		version:   next.Version,
		payload:   payload,
		expiresAt: r.now().Add(r.ttl),
	}
	state.Version = next.Version
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	delete(r.entries, id)
	r.mu.Unlock()
	return nil
}

// live returns a non-expired entry, dropping expired ones. Callers hold mu.
func (r *memoryRepo) live(id string) (memoryEntry, bool) {
	entry, ok := r.entries[id]
	if !ok {
		return memoryEntry{}, false
	}
	if r.ttl > 0 && !r.now().Before(entry.expiresAt) {
		delete(r.entries, id)
		return memoryEntry{}, false
	}
	return entry, true
}
