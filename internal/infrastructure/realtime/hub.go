// Package realtime pushes tenant-scoped collection snapshots to live subscribers.
//
// A subscriber receives the full current state of one collection on subscribe and
// again after every committed change to it. Snapshots replace earlier ones, so a slow
// consumer only ever sees the latest state.
package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erp/invoicing/internal/domain/identity"
	"github.com/erp/invoicing/internal/domain/invoicing"
	"github.com/erp/invoicing/internal/domain/partner"
	"github.com/erp/invoicing/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Collection names a live collection
type Collection string

const (
	CollectionQuotes    Collection = "quotes"
	CollectionInvoices  Collection = "invoices"
	CollectionCustomers Collection = "customers"
	CollectionSuppliers Collection = "suppliers"
	CollectionPayments  Collection = "payments"
)

// ErrUnknownCollection is returned when no loader is registered for a collection
var ErrUnknownCollection = shared.NewDomainError("INVALID_COLLECTION", "Unknown live collection")

// ErrHubStopped is returned by Subscribe after Stop
var ErrHubStopped = shared.NewDomainError("UNAVAILABLE", "Live updates are shutting down")

// collectionsByAggregate lists the collections whose content depends on an aggregate type
var collectionsByAggregate = map[string][]Collection{
	invoicing.AggregateTypeQuote:    {CollectionQuotes},
	invoicing.AggregateTypeInvoice:  {CollectionInvoices},
	invoicing.AggregateTypePayment:  {CollectionPayments, CollectionInvoices},
	partner.AggregateTypeCustomer:   {CollectionCustomers},
	partner.AggregateTypeSupplier:   {CollectionSuppliers},
}

// Snapshot is the full state of one tenant collection at a point in time
type Snapshot struct {
	Collection Collection `json:"collection"`
	TenantID   uuid.UUID  `json:"tenant_id"`
	Sequence   uint64     `json:"sequence"`
	Items      any        `json:"items"`
	Total      int64      `json:"total"`
	At         time.Time  `json:"at"`
}

// Loader reads the current state of a collection. The context carries a session for the tenant.
type Loader func(ctx context.Context, tenantID uuid.UUID) (items any, total int64, err error)

type topic struct {
	tenantID   uuid.UUID
	collection Collection
}

type refreshState struct {
	pending bool
}

// Option configures a Hub
type Option func(*Hub)

// WithBroker shares change notifications with other instances through b
func WithBroker(b Broker) Option {
	return func(h *Hub) {
		h.broker = b
	}
}

// WithLoadTimeout bounds each snapshot load
func WithLoadTimeout(d time.Duration) Option {
	return func(h *Hub) {
		if d > 0 {
			h.loadTimeout = d
		}
	}
}

// Hub fans committed changes out to live subscriptions
type Hub struct {
	logger      *zap.Logger
	broker      Broker
	loadTimeout time.Duration

	loaders map[Collection]Loader

	mu         sync.Mutex
	subs       map[topic]map[*Subscription]struct{}
	refreshing map[topic]*refreshState
	stopped    bool

	seq    atomic.Uint64
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHub creates a hub; register loaders before serving subscriptions
func NewHub(logger *zap.Logger, opts ...Option) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		logger:      logger.Named("realtime"),
		loadTimeout: 10 * time.Second,
		loaders:     make(map[Collection]Loader),
		subs:        make(map[topic]map[*Subscription]struct{}),
		refreshing:  make(map[topic]*refreshState),
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register sets the loader of a collection
func (h *Hub) Register(collection Collection, loader Loader) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loaders[collection] = loader
}

// Supports reports whether a collection has a loader
func (h *Hub) Supports(collection Collection) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.loaders[collection]
	return ok
}

// Subscribe opens a live stream of snapshots for one tenant collection.
// The first snapshot is loaded before Subscribe returns and is waiting on C.
// The subscription is registered before that load, so a change committed while it runs
// still triggers a refresh.
// The subscription ends when Cancel is called, ctx is done or the hub stops; C is then closed.
func (h *Hub) Subscribe(ctx context.Context, tenantID uuid.UUID, collection Collection) (*Subscription, error) {
	t := topic{tenantID: tenantID, collection: collection}
	ch := make(chan Snapshot, 1)
	sub := &Subscription{
		C:     ch,
		ch:    ch,
		done:  make(chan struct{}),
		hub:   h,
		topic: t,
	}

	h.mu.Lock()
	loader, ok := h.loaders[collection]
	if !ok {
		h.mu.Unlock()
		return nil, ErrUnknownCollection
	}
	if h.stopped {
		h.mu.Unlock()
		return nil, ErrHubStopped
	}
	if h.subs[t] == nil {
		h.subs[t] = make(map[*Subscription]struct{})
	}
	h.subs[t][sub] = struct{}{}
	h.mu.Unlock()

	snapshot, err := h.load(ctx, t, loader)
	if err != nil {
		sub.Cancel()
		return nil, err
	}
	sub.deliver(*snapshot)

	select {
	case <-sub.done:
		return nil, ErrHubStopped
	default:
	}

	go func() {
		select {
		case <-ctx.Done():
			sub.Cancel()
		case <-sub.done:
		}
	}()

	h.logger.Debug("Live subscription opened",
		zap.String("tenant_id", tenantID.String()),
		zap.String("collection", string(collection)),
	)
	return sub, nil
}

// Notify signals that a tenant collection changed.
// With a broker the change is published for every instance; on publish failure it is applied locally.
func (h *Hub) Notify(ctx context.Context, tenantID uuid.UUID, collection Collection) {
	if h.broker != nil {
		err := h.broker.Publish(ctx, Change{TenantID: tenantID, Collection: collection})
		if err == nil {
			return
		}
		h.logger.Warn("Failed to publish live change, refreshing locally",
			zap.String("collection", string(collection)),
			zap.Error(err),
		)
	}
	h.schedule(topic{tenantID: tenantID, collection: collection})
}

// Handle implements shared.EventHandler
func (h *Hub) Handle(ctx context.Context, event shared.DomainEvent) error {
	for _, collection := range collectionsByAggregate[event.AggregateType()] {
		h.Notify(ctx, event.TenantID(), collection)
	}
	return nil
}

// EventTypes implements shared.EventHandler; the hub listens to every event
func (h *Hub) EventTypes() []string {
	return nil
}

// Start begins consuming broker notifications
func (h *Hub) Start(context.Context) error {
	if h.broker == nil {
		return nil
	}
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		err := h.broker.Listen(h.ctx, func(c Change) {
			h.schedule(topic{tenantID: c.TenantID, collection: c.Collection})
		})
		if err != nil && h.ctx.Err() == nil {
			h.logger.Error("Live change listener stopped", zap.Error(err))
		}
	}()
	h.logger.Info("Live change listener started")
	return nil
}

// Stop closes every subscription and waits for in-flight refreshes
func (h *Hub) Stop(ctx context.Context) error {
	h.mu.Lock()
	h.stopped = true
	var open []*Subscription
	for _, subs := range h.subs {
		for sub := range subs {
			open = append(open, sub)
		}
	}
	h.mu.Unlock()

	h.cancel()
	for _, sub := range open {
		sub.Cancel()
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if h.broker != nil {
		return h.broker.Close()
	}
	return nil
}

// Subscribers returns the number of open subscriptions
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, subs := range h.subs {
		n += len(subs)
	}
	return n
}

// schedule refreshes a topic, coalescing changes that arrive while a load is running
func (h *Hub) schedule(t topic) {
	h.mu.Lock()
	if h.stopped || len(h.subs[t]) == 0 {
		h.mu.Unlock()
		return
	}
	if st, ok := h.refreshing[t]; ok {
		st.pending = true
		h.mu.Unlock()
		return
	}
	h.refreshing[t] = &refreshState{}
	h.wg.Add(1)
	h.mu.Unlock()

	go h.refresh(t)
}

func (h *Hub) refresh(t topic) {
	defer h.wg.Done()
	for {
		h.reload(t)

		h.mu.Lock()
		st := h.refreshing[t]
		if h.stopped || !st.pending || len(h.subs[t]) == 0 {
			delete(h.refreshing, t)
			h.mu.Unlock()
			return
		}
		st.pending = false
		h.mu.Unlock()
	}
}

func (h *Hub) reload(t topic) {
	h.mu.Lock()
	loader := h.loaders[t.collection]
	h.mu.Unlock()

	snapshot, err := h.load(h.ctx, t, loader)
	if err != nil {
		if h.ctx.Err() == nil {
			h.logger.Warn("Failed to load live snapshot",
				zap.String("tenant_id", t.tenantID.String()),
				zap.String("collection", string(t.collection)),
				zap.Error(err),
			)
		}
		return
	}

	h.mu.Lock()
	targets := make([]*Subscription, 0, len(h.subs[t]))
	for sub := range h.subs[t] {
		targets = append(targets, sub)
	}
	h.mu.Unlock()

	for _, sub := range targets {
		sub.deliver(*snapshot)
	}
}

// load numbers the snapshot before reading, so a higher sequence never holds older data
func (h *Hub) load(ctx context.Context, t topic, loader Loader) (*Snapshot, error) {
	seq := h.seq.Add(1)
	ctx, cancel := context.WithTimeout(ctx, h.loadTimeout)
	defer cancel()
	ctx = identity.WithSession(ctx, &identity.Session{UserID: t.tenantID, TenantID: t.tenantID})

	items, total, err := loader(ctx, t.tenantID)
	if err != nil {
		return nil, err
	}
	return &Snapshot{
		Collection: t.collection,
		TenantID:   t.tenantID,
		Sequence:   seq,
		Items:      items,
		Total:      total,
		At:         time.Now().UTC(),
	}, nil
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.subs[sub.topic]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(h.subs, sub.topic)
		}
	}
}

// Subscription is one live stream of snapshots
type Subscription struct {
	// C receives snapshots; it is closed when the subscription ends
	C <-chan Snapshot

	ch     chan Snapshot
	mu     sync.Mutex
	closed bool
	last   uint64
	done   chan struct{}
	once   sync.Once
	hub    *Hub
	topic  topic
}

// Done is closed when the subscription ends
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Cancel ends the subscription; it is safe to call more than once
func (s *Subscription) Cancel() {
	s.once.Do(func() {
		s.hub.remove(s)
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
		close(s.done)
	})
}

// deliver replaces any unread snapshot with snap; snapshots older than the last one are dropped
func (s *Subscription) deliver(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || snap.Sequence <= s.last {
		return
	}
	s.last = snap.Sequence
	select {
	case s.ch <- snap:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	s.ch <- snap
}

var _ shared.EventHandler = (*Hub)(nil)
