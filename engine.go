package streampay

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/streampay/action"
	"github.com/xraph/streampay/id"
	"github.com/xraph/streampay/plugin"
	"github.com/xraph/streampay/store"
	"github.com/xraph/streampay/stream"
	"github.com/xraph/streampay/token"
	"github.com/xraph/streampay/transfer"
	"github.com/xraph/streampay/types"
)

// Engine is the main payment-streaming engine. It owns every stream
// transition and balance movement: callers mutate streams only through
// its methods, each of which checks all guards before touching state
// and records exactly one action per accepted operation.
type Engine struct {
	store    store.Store
	plugins  *plugin.Registry
	logger   *slog.Logger
	registry *token.Registry
	resolver *transfer.Resolver
	clock    func() time.Time

	// Background workers
	stopChan chan struct{}
	wg       sync.WaitGroup

	// Configuration
	tick             time.Duration
	minCreateDeposit types.Balance
	cronInterval     time.Duration
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:            s,
		plugins:          plugin.NewRegistry(),
		logger:           slog.Default(),
		registry:         token.Default(),
		clock:            func() time.Time { return time.Now().UTC() },
		stopChan:         make(chan struct{}),
		tick:             time.Second,
		minCreateDeposit: types.CreateDeposit,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.resolver = transfer.NewResolver(e.registry)

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithRegistry replaces the default token table.
func WithRegistry(reg *token.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithTick sets the accrual tick duration.
func WithTick(tick time.Duration) Option {
	return func(e *Engine) {
		e.tick = tick
	}
}

// WithMinCreateDeposit sets the minimum deposit required to create a stream.
func WithMinCreateDeposit(amount types.Balance) Option {
	return func(e *Engine) {
		e.minCreateDeposit = amount
	}
}

// WithCron enables the periodic auto-deposit pass at the given interval.
func WithCron(interval time.Duration) Option {
	return func(e *Engine) {
		e.cronInterval = interval
	}
}

// WithClock overrides the engine's time source. Tests use this to drive
// accrual deterministically.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// Start migrates the store and begins background workers.
func (e *Engine) Start(ctx context.Context) error {
	// Migrate database
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	// Initialize plugins
	e.plugins.EmitInit(ctx, e)

	// Start cron worker when enabled
	if e.cronInterval > 0 {
		e.wg.Add(1)
		go e.cronWorker(ctx)
	}

	e.logger.Info("streampay engine started",
		"tick", e.tick,
		"cron_interval", e.cronInterval,
		"tokens", e.registry.Len(),
	)

	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	close(e.stopChan)
	e.wg.Wait()

	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// Registry returns the engine's token table.
func (e *Engine) Registry() *token.Registry { return e.registry }

// Tick returns the accrual tick duration.
func (e *Engine) Tick() time.Duration { return e.tick }

// ──────────────────────────────────────────────────
// Read access
// ──────────────────────────────────────────────────

// GetStream retrieves a stream by ID, terminated or not.
func (e *Engine) GetStream(ctx context.Context, streamID id.StreamID) (*stream.Stream, error) {
	return e.store.GetStream(ctx, streamID)
}

// ListStreams lists streams where account is owner or receiver. An
// empty account matches all streams.
func (e *Engine) ListStreams(ctx context.Context, account string, opts stream.ListOpts) ([]*stream.Stream, error) {
	return e.store.ListStreams(ctx, account, opts)
}

// StreamView projects a stream for external consumption. Accrual is
// previewed up to the current time without persisting, so the view
// reflects what a withdraw right now could take.
func (e *Engine) StreamView(ctx context.Context, streamID id.StreamID) (stream.View, error) {
	s, err := e.store.GetStream(ctx, streamID)
	if err != nil {
		return stream.View{}, err
	}

	preview := *s
	preview.Accrue(e.clock(), e.tick)
	return stream.ViewOf(&preview, e.registry), nil
}

// ListActions returns a stream's action log in insertion order.
func (e *Engine) ListActions(ctx context.Context, streamID id.StreamID, opts action.ListOpts) ([]*action.Action, error) {
	return e.store.ListActions(ctx, streamID, opts)
}

// ActionViews returns a stream's action log projected for external
// consumption.
func (e *Engine) ActionViews(ctx context.Context, streamID id.StreamID, opts action.ListOpts) ([]action.View, error) {
	actions, err := e.store.ListActions(ctx, streamID, opts)
	if err != nil {
		return nil, err
	}
	return action.Views(actions), nil
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// getLive loads a stream that still accepts operations. Missing and
// terminated streams are indistinguishable to callers.
func (e *Engine) getLive(ctx context.Context, streamID id.StreamID) (*stream.Stream, error) {
	s, err := e.store.GetStream(ctx, streamID)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrStreamNotAvailable
		}
		return nil, err
	}
	if s.Status.IsTerminated() {
		return nil, ErrStreamNotAvailable
	}
	return s, nil
}

// appendAction records one log entry for an accepted operation.
func (e *Engine) appendAction(ctx context.Context, streamID id.StreamID, actor string, kind action.Kind, at time.Time) error {
	return e.store.AppendAction(ctx, &action.Action{
		ID:        id.NewActionID(),
		StreamID:  streamID,
		Actor:     actor,
		Kind:      kind,
		Timestamp: at,
	})
}

// newPending debits are already booked by the caller; this persists the
// in-flight payout record in its token-appropriate initial state.
func (e *Engine) newPending(ctx context.Context, s *stream.Stream, purpose transfer.Purpose, recipient string, amount types.Balance, now time.Time) (*transfer.Pending, error) {
	p := &transfer.Pending{
		Entity:    types.EntityAt(now),
		ID:        id.NewTransferID(),
		StreamID:  s.ID,
		Purpose:   purpose,
		TokenID:   s.TokenID,
		Recipient: recipient,
		Amount:    amount,
		State:     transfer.InitialState(e.registry, s.TokenID),
	}
	if err := e.store.CreateTransfer(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// restoreCredit puts a persisted debit back onto its stream after the
// matching payout record could not be inserted. A second store failure
// here is logged, not returned.
func (e *Engine) restoreCredit(ctx context.Context, s *stream.Stream, purpose transfer.Purpose, amount types.Balance) {
	switch purpose {
	case transfer.PurposeRefund:
		s.Balance = s.Balance.Add(amount)
	default:
		s.Available = s.Available.Add(amount)
	}
	s.UpdatedAt = e.clock()
	if err := e.store.UpdateStream(ctx, s); err != nil {
		e.logger.Error("restore credit after payout insert failure",
			"stream_id", s.ID.String(),
			"purpose", string(purpose),
			"amount", amount.String(),
			"error", err,
		)
	}
}
