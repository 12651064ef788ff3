// Package streampay provides an embeddable token payment streaming engine
// for Go applications.
//
// Streampay is designed as a library, not a service. Import it directly into
// your Go application for maximum performance and flexibility. It provides:
//
//   - Continuous per-tick payment streams between an owner and a receiver
//   - A strict stream lifecycle (initialized, active, paused, terminated)
//   - An append-only action log for every state transition and fund movement
//   - Native and fungible token support via a token registry
//   - Two-phase pending transfers with compensating credit on failure
//   - Periodic auto-deposit top-ups via a cron worker
//   - Comprehensive audit trail via Chronicle
//   - Production metrics via go-utils MetricFactory
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/streampay"
//	    "github.com/xraph/streampay/store/memory"
//	)
//
//	// Initialize store (use postgres/sqlite/mongo in production)
//	store := memory.New()
//
//	// Create engine
//	e := streampay.New(store)
//
//	// Start the engine (runs migrations, begins background workers)
//	if err := e.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Stop()
//
// # Core Concepts
//
// Streams move tokens from an owner to a receiver at a fixed rate per tick:
//
//	s, err := e.Create(ctx, "alice", stream.CreateParams{
//	    OwnerID:       "alice",
//	    ReceiverID:    "bob",
//	    TokenName:     "NEAR",
//	    TokensPerTick: streampay.Native(1),
//	    AutoDeposit:   false,
//	}, streampay.Native(10*streampay.NativeScale))
//
// Funds accrue to the receiver only while the stream is active:
//
//	if err := e.StartStream(ctx, "alice", s.ID); err != nil { ... }
//
//	// Later, the receiver collects what has accrued so far.
//	pending, err := e.Withdraw(ctx, "bob", s.ID)
//
// Withdrawals, refunds, and stop-time flushes do not move tokens directly.
// They produce pending transfers that an external executor drives through
// the resolver-defined steps, confirming or failing each one:
//
//	op, err := e.TransferOperation(pending)
//	// ... execute op.Steps against the token contracts ...
//	if err := e.CompleteTransfer(ctx, pending.ID); err != nil { ... }
//
// Fungible tokens enter the system through the inbound transfer hook, which
// enforces the sender whitelist and routes the attached amount into a new
// or existing stream:
//
//	msg := streampay.NewDepositMsg(s.ID)
//	_, err := e.OnTokenTransfer(ctx, "dacha", "alice", amount, msg)
//
// # Amounts
//
// All amounts use the Balance type, an unsigned integer count of minimal
// token units (1e9 units per whole native token). Integer arithmetic avoids
// floating-point precision issues; overflow on addition panics rather than
// wrapping silently.
//
// # Integration
//
// Streampay integrates seamlessly with the Forgery ecosystem:
//
//   - Forge: application lifecycle and DI via the extension package
//   - Grove: postgres, sqlite, and mongo store backends
//   - Chronicle: audit trail for all streaming events
//   - go-utils: production metrics and observability
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	strm_01h2xcejqtf2nbrexx3vqjhp41  // Stream ID
//	act_01h2xcejqtf2nbrexx3vqjhp41   // Action ID
//	xfer_01h455vb4pex5vsknk084sn02q  // Transfer ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package streampay
