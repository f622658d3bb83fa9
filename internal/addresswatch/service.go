// Package addresswatch implements the per-network address watcher: it consumes
// the frames of an address-activity feed, tracks the lifecycle of every
// transaction id it sees, and notifies an external sink exactly once per
// transaction, on its first sighting, with the moved amount converted to USD.
package addresswatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gabapcia/hosewatch/internal/pkg/logger"
	"github.com/gabapcia/hosewatch/internal/pkg/telemetry"
	"github.com/gabapcia/hosewatch/internal/pkg/x/chflow"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ErrServiceAlreadyStarted is returned if Start is called on a running watcher.
var ErrServiceAlreadyStarted = errors.New("service already started")

// Feed is the source of raw frames for one network/address subscription.
type Feed interface {
	// Subscribe starts streaming frames for the watched address. Frames are
	// delivered in transport order; the channel is closed once ctx is canceled.
	// Reconnection is the Feed's responsibility.
	Subscribe(ctx context.Context) (<-chan []byte, error)
}

// Config is the immutable identity of a watcher.
type Config struct {
	Network          string // network name used in the feed subscription and logs
	Address          string // watched address
	Symbol           string // asset symbol used for the fiat conversion
	BlockExplorerURL string // prefix joined with the txid to build the explorer link
	IconURL          string // network icon shown in notifications
}

// Service is the lifecycle of one watcher.
type Service interface {
	// Start subscribes to the feed and begins handling frames in the background.
	// Returns ErrServiceAlreadyStarted if the watcher is running.
	Start(ctx context.Context) error

	// Close stops frame handling and waits for in-flight notifications to finish.
	// It is safe to call Close on a watcher that was never started.
	Close()
}

type closeFunc func()

type service struct {
	mu        sync.Mutex
	isStarted bool
	closeFunc closeFunc

	cfg       Config
	feed      Feed
	tracker   *tracker
	converter PriceConverter
	notifier  TransactionNotifier
	journal   NotificationJournal

	logger  *zap.SugaredLogger
	tracer  trace.Tracer
	metrics *metrics
	now     func() time.Time

	// inflight counts conversion/dispatch chains still running.
	inflight sync.WaitGroup
}

var _ Service = (*service)(nil)

func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return ErrServiceAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)

	frames, err := s.feed.Subscribe(ctx)
	if err != nil {
		cancel()
		return err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.consumeFrames(ctx, frames)
	}()

	s.closeFunc = func() {
		cancel()
		<-done
		s.inflight.Wait()
	}

	s.isStarted = true
	s.logger.Infow("watcher started", "address", s.cfg.Address, "symbol", s.cfg.Symbol)
	return nil
}

func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeFunc != nil {
		s.closeFunc()
		s.logger.Infow("watcher stopped")
	}
	s.closeFunc = nil
	s.isStarted = false
}

// consumeFrames handles frames one at a time, in arrival order, until the
// feed channel closes or ctx is canceled.
func (s *service) consumeFrames(ctx context.Context, frames <-chan []byte) {
	for {
		raw, ok := chflow.Receive(ctx, frames)
		if !ok {
			return
		}
		s.handleFrame(ctx, raw)
	}
}

// handleFrame routes one raw frame by its declared type.
func (s *service) handleFrame(ctx context.Context, raw []byte) {
	f, err := decodeFrame(raw)
	if err != nil {
		s.logger.Errorw("dropping feed frame", "frame", string(raw), "error", err)
		return
	}

	if f.Type == frameTypeAddress {
		s.handleAddressFrame(ctx, f)
		return
	}

	if status, ok := f.statusReport(); ok {
		s.logger.Infow("received status report", "frame.type", f.Type, "status", status)
	}
}

// handleAddressFrame advances the tracker synchronously and, for a New
// sighting, starts the conversion/dispatch chain in the background. The chain
// is detached from ctx: once started it always completes and logs.
func (s *service) handleAddressFrame(ctx context.Context, f frame) {
	activity, err := f.addressActivity()
	if err != nil {
		s.logger.Errorw("dropping address frame", "error", err)
		return
	}

	stage := s.tracker.observe(activity.TxID)
	s.metrics.recordSighting(ctx, stage)

	switch stage {
	case StageNew:
		s.logger.Infow("transaction initiated", "tx.id", activity.TxID)

		observedAt := s.now().UTC()
		chainCtx := context.WithoutCancel(ctx)

		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			s.notifyTransaction(chainCtx, activity, observedAt)
		}()
	case StageValidating:
		s.logger.Infow("transaction is validating", "tx.id", activity.TxID)
	case StageSettled:
		s.logger.Infow("transaction is confirmed", "tx.id", activity.TxID)
	}
}

// notifyTransaction converts the balance change, builds the Notification,
// dispatches it once and journals the outcome. Nothing here is retried.
func (s *service) notifyTransaction(ctx context.Context, activity AddressActivity, observedAt time.Time) {
	ctx, span := s.tracer.Start(ctx, "addresswatch.notify_transaction", trace.WithAttributes(
		attribute.String("network", s.cfg.Network),
		attribute.String("tx.id", activity.TxID),
	))
	defer span.End()

	n := Notification{
		ID:            uuid.Must(uuid.NewV7()).String(),
		Network:       s.cfg.Network,
		Address:       s.cfg.Address,
		Symbol:        s.cfg.Symbol,
		TxID:          activity.TxID,
		BalanceChange: activity.BalanceChangeText(),
		Fiat:          s.convert(ctx, activity),
		ExplorerURL:   s.cfg.BlockExplorerURL + activity.TxID,
		IconURL:       s.cfg.IconURL,
		ObservedAt:    observedAt,
	}

	s.logger.Infow("dispatching notification", "tx.id", n.TxID, "notification.id", n.ID)

	dispatchErr := s.notifier.NotifyTransaction(ctx, n)
	if dispatchErr != nil {
		span.RecordError(dispatchErr)
		span.SetStatus(codes.Error, "notification dispatch failed")
		s.logger.Errorw("notification dispatch failed",
			"tx.id", n.TxID,
			"notification.id", n.ID,
			"error", dispatchErr,
		)
	} else {
		s.logger.Infow("notification dispatched", "tx.id", n.TxID, "notification.id", n.ID)
	}
	s.metrics.recordNotification(ctx, dispatchErr == nil)

	if err := s.journal.RecordNotification(ctx, n, dispatchErr); err != nil {
		s.logger.Warnw("error journaling notification",
			"tx.id", n.TxID,
			"notification.id", n.ID,
			"error", err,
		)
	}
}

type config struct {
	logger            *zap.SugaredLogger
	journal           NotificationJournal
	sightingsToSettle int
	now               func() time.Time
}

// Option configures optional watcher dependencies.
type Option func(*config)

// New builds a watcher for one network. The SightingStore, PriceConverter and
// TransactionNotifier are required; everything else has a default:
//
//   - logger: no-op
//   - journal: no-op
//   - sightingsToSettle: DefaultSightingsToSettle
func New(cfg Config, feed Feed, sightings SightingStore, converter PriceConverter, notifier TransactionNotifier, opts ...Option) *service {
	c := config{
		logger:            logger.Nop(),
		journal:           nopJournal{},
		sightingsToSettle: DefaultSightingsToSettle,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(&c)
	}

	return &service{
		cfg:       cfg,
		feed:      feed,
		tracker:   newTracker(sightings, c.sightingsToSettle),
		converter: converter,
		notifier:  notifier,
		journal:   c.journal,
		logger:    c.logger.With("network", cfg.Network),
		tracer:    otel.Tracer(telemetry.ServiceName),
		metrics:   newMetrics(otel.Meter(telemetry.ServiceName), cfg.Network),
		now:       c.now,
	}
}

// WithLogger sets the parent logger; the watcher derives a child tagged with its network.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(c *config) {
		c.logger = l
	}
}

// WithJournal records every dispatch attempt in j.
func WithJournal(j NotificationJournal) Option {
	return func(c *config) {
		c.journal = j
	}
}

// WithSightingsToSettle sets how many sightings (the first one included) settle a
// transaction. Values below 2 are raised to 2.
func WithSightingsToSettle(n int) Option {
	return func(c *config) {
		c.sightingsToSettle = n
	}
}

// WithClock overrides the time source used to stamp notifications.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}
