package order

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"appcheckout/internal/domain"
)

// MemoryPlacer keeps placed orders in process.
type MemoryPlacer struct {
	mu     sync.Mutex
	orders map[string]domain.OrderRequest
	byKey  map[string]*domain.OrderReference
	next   int
	logger *zap.Logger
}

func NewMemory(logger *zap.Logger) *MemoryPlacer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MemoryPlacer{
		orders: make(map[string]domain.OrderRequest),
		byKey:  make(map[string]*domain.OrderReference),
		next:   1001,
		logger: logger,
	}
}

// PlaceOrder records the order. A repeated idempotency key returns the
// order placed the first time.
func (m *MemoryPlacer) PlaceOrder(_ context.Context, req domain.OrderRequest) (*domain.OrderReference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.byKey[req.IdempotencyKey]; ok && req.IdempotencyKey != "" {
		ref := *existing
		return &ref, nil
	}
	ref := &domain.OrderReference{
		ID:       uuid.NewString(),
		Number:   fmt.Sprintf("%d", m.next),
		PlacedAt: time.Now().UTC(),
	}
	m.next++
	m.orders[ref.ID] = req
	if req.IdempotencyKey != "" {
		stored := *ref
		m.byKey[req.IdempotencyKey] = &stored
	}
	m.logger.Info("order placed", zap.String("order_id", ref.ID), zap.String("session_id", req.SessionID))
	return ref, nil
}

// Get returns a placed order request by id.
func (m *MemoryPlacer) Get(id string) (domain.OrderRequest, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.orders[id]
	return req, ok
}
