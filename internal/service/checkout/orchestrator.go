package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"appcheckout/internal/domain"
	"appcheckout/internal/service/cart"
	"appcheckout/internal/service/coupon"
	"appcheckout/internal/service/pricing"
	"appcheckout/internal/service/shipping"
)

// SessionRepository persists session snapshots. Save is optimistic: the
// snapshot's Version must match the stored one (zero for a new session) and
// is incremented on success; a stale version returns domain.ErrConflict.
type SessionRepository interface {
	Get(ctx context.Context, id string) (*domain.SessionState, error)
	Save(ctx context.Context, state *domain.SessionState) error
	Delete(ctx context.Context, id string) error
}

// OrderPlacer turns a finalized checkout into an order.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req domain.OrderRequest) (*domain.OrderReference, error)
}

type Deps struct {
	Sessions SessionRepository
	Catalog  cart.Catalog
	Coupons  coupon.Evaluator
	Quoter   shipping.Quoter
	Orders   OrderPlacer
	Pricing  *pricing.Engine
	Logger   *zap.Logger
	Tracer   trace.Tracer
}

// Orchestrator sequences every customer action: load the session, mutate,
// resolve shipping, price, save.
type Orchestrator struct {
	sessions SessionRepository
	catalog  cart.Catalog
	coupons  coupon.Evaluator
	orders   OrderPlacer
	resolver *shipping.Resolver
	pricing  *pricing.Engine
	logger   *zap.Logger
	tracer   trace.Tracer
	locks    *sessionLocks
	now      func() time.Time
}

func New(deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	tracer := deps.Tracer
	if tracer == nil {
		tracer = otel.Tracer("appcheckout/checkout")
	}
	engine := deps.Pricing
	if engine == nil {
		engine = pricing.New("")
	}
	return &Orchestrator{
		sessions: deps.Sessions,
		catalog:  deps.Catalog,
		coupons:  deps.Coupons,
		orders:   deps.Orders,
		resolver: shipping.NewResolver(deps.Quoter, logger),
		pricing:  engine,
		logger:   logger,
		tracer:   tracer,
		locks:    newSessionLocks(),
		now:      time.Now,
	}
}

type persistMode int

const (
	// readOnly never writes the session back.
	readOnly persistMode = iota
	// refresh writes back only sessions that already exist.
	refresh
	// write always saves, creating the session lazily.
	write
)

// run wraps one orchestrator call: it serializes calls for the session,
// loads state, runs fn and saves only when fn succeeds, so a failed
// mutation never reaches the store.
func (o *Orchestrator) run(ctx context.Context, id, op string, mode persistMode, fn func(ctx context.Context, s *Session) error) (*Session, error) {
	ctx, span := o.tracer.Start(ctx, "checkout."+op, trace.WithAttributes(
		attribute.String("session.id", id),
	))
	defer span.End()

	id = strings.TrimSpace(id)
	if id == "" {
		return nil, o.fail(span, op, id, domain.Validation(domain.CodeInvalidRequest, "session id required"))
	}

	unlock := o.locks.lock(id)
	defer unlock()

	s, err := o.load(ctx, id)
	if err != nil {
		return nil, o.fail(span, op, id, err)
	}
	if err := fn(ctx, s); err != nil {
		return nil, o.fail(span, op, id, err)
	}
	if mode == write || (mode == refresh && s.Version > 0) {
		if err := o.save(ctx, s); err != nil {
			return nil, o.fail(span, op, id, err)
		}
	}
	span.SetAttributes(
		attribute.String("checkout.state", string(s.State)),
		attribute.Int("checkout.items", s.Cart.Len()),
	)
	return s, nil
}

func (o *Orchestrator) fail(span trace.Span, op, id string, err error) error {
	de := domain.AsError(err)
	span.RecordError(de)
	span.SetStatus(codes.Error, de.Code)
	if de.Kind == domain.KindCollaborator || de.Code == domain.CodeConcurrentModification {
		o.logger.Warn("checkout operation failed",
			zap.String("op", op),
			zap.String("session_id", id),
			zap.String("code", de.Code),
			zap.Error(err),
		)
	}
	return de
}

func (o *Orchestrator) load(ctx context.Context, id string) (*Session, error) {
	if o.sessions == nil {
		return nil, domain.Collaborator(domain.CodeSessionStoreUnavailable, "session store unavailable", nil)
	}
	state, err := o.sessions.Get(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		state = domain.NewSessionState(id, o.now().UTC())
	} else if err != nil {
		return nil, domain.Collaborator(domain.CodeSessionStoreUnavailable, "session could not be loaded", err)
	}
	return o.open(state), nil
}

func (o *Orchestrator) save(ctx context.Context, s *Session) error {
	state := s.snapshot()
	state.UpdatedAt = o.now().UTC()
	if err := o.sessions.Save(ctx, state); err != nil {
		return domain.AsError(err)
	}
	s.Version = state.Version
	return nil
}

// Clear tears the session down.
func (o *Orchestrator) Clear(ctx context.Context, id string) error {
	ctx, span := o.tracer.Start(ctx, "checkout.clear", trace.WithAttributes(attribute.String("session.id", id)))
	defer span.End()
	if o.sessions == nil {
		return o.fail(span, "clear", id, domain.Collaborator(domain.CodeSessionStoreUnavailable, "session store unavailable", nil))
	}
	unlock := o.locks.lock(id)
	defer unlock()
	if err := o.sessions.Delete(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return o.fail(span, "clear", id, err)
	}
	return nil
}
