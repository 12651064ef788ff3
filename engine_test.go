package streampay_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/streampay"
	"github.com/xraph/streampay/action"
	"github.com/xraph/streampay/id"
	"github.com/xraph/streampay/store"
	"github.com/xraph/streampay/store/memory"
	"github.com/xraph/streampay/stream"
	"github.com/xraph/streampay/transfer"
	"github.com/xraph/streampay/types"
)

// testEngine wires an engine over a memory store with a manually driven
// clock so accrual is deterministic.
type testEngine struct {
	*streampay.Engine
	now time.Time
}

func newTestEngine(t *testing.T, opts ...streampay.Option) *testEngine {
	t.Helper()

	te := &testEngine{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
	opts = append(opts,
		streampay.WithTick(time.Second),
		streampay.WithClock(func() time.Time { return te.now }),
	)
	te.Engine = streampay.New(memory.New(), opts...)
	return te
}

func (te *testEngine) advance(d time.Duration) {
	te.now = te.now.Add(d)
}

func nativeParams(receiver string, balance types.Balance) stream.CreateParams {
	return stream.CreateParams{
		ReceiverID:    receiver,
		TokenName:     "NEAR",
		Balance:       balance,
		TokensPerTick: types.Native(1),
	}
}

// attached returns a deposit that covers the creation fee plus balance.
func attached(balance types.Balance) types.Balance {
	return streampay.CreateDeposit.Add(balance)
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		e := newTestEngine(t)
		params := nativeParams("bob", types.Native(10))

		s, err := e.Create(ctx, "alice", params, attached(params.Balance))
		if err != nil {
			t.Fatal(err)
		}
		if s.Status != stream.StatusInitialized {
			t.Errorf("status: got %q, want initialized", s.Status)
		}
		if s.OwnerID != "alice" || s.ReceiverID != "bob" {
			t.Errorf("parties: %q -> %q", s.OwnerID, s.ReceiverID)
		}
		if s.Balance != types.Native(10) || s.Available != 0 {
			t.Errorf("balance %d available %d", s.Balance, s.Available)
		}

		log, err := e.ListActions(ctx, s.ID, action.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		if len(log) != 1 || log[0].Kind.Code() != "init" {
			t.Errorf("expected single init action, got %d entries", len(log))
		}
	})

	t.Run("Guards", func(t *testing.T) {
		e := newTestEngine(t)
		long := make([]byte, stream.MaxDescription+1)
		for i := range long {
			long[i] = 'x'
		}

		tests := []struct {
			name     string
			actor    string
			params   stream.CreateParams
			attached types.Balance
			want     error
		}{
			{"DescriptionTooLong", "alice",
				stream.CreateParams{Description: string(long), ReceiverID: "bob", TokenName: "NEAR"},
				attached(0), streampay.ErrTextFieldTooLong},
			{"EmptyReceiver", "alice",
				stream.CreateParams{TokenName: "NEAR"},
				attached(0), streampay.ValidationError{}},
			{"OwnerMismatch", "alice",
				stream.CreateParams{OwnerID: "mallory", ReceiverID: "bob", TokenName: "NEAR"},
				attached(0), streampay.ErrAccessDenied},
			{"UnknownToken", "alice",
				stream.CreateParams{ReceiverID: "bob", TokenName: "DOGE"},
				attached(0), streampay.ErrInvalidToken},
			{"DepositTooSmall", "alice",
				nativeParams("bob", types.Native(10)),
				types.Native(10), streampay.ErrInsufficientDeposit},
			{"FungibleWithBalance", "alice",
				stream.CreateParams{ReceiverID: "bob", TokenName: "DACHA", Balance: 100},
				attached(0), streampay.ErrNotNativeToken},
			{"FungibleDepositTooSmall", "alice",
				stream.CreateParams{ReceiverID: "bob", TokenName: "DACHA"},
				streampay.CreateDeposit - 1, streampay.ErrInsufficientDeposit},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := e.Create(ctx, tt.actor, tt.params, tt.attached)
				if err == nil {
					t.Fatal("expected error")
				}
				if _, isValidation := tt.want.(streampay.ValidationError); isValidation {
					if !streampay.IsValidation(err) {
						t.Errorf("got %v, want validation error", err)
					}
					return
				}
				if !errors.Is(err, tt.want) {
					t.Errorf("got %v, want %v", err, tt.want)
				}
			})
		}
	})
}

func TestStartPauseGuards(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	s, err := e.Create(ctx, "alice", nativeParams("bob", types.Native(5)), attached(types.Native(5)))
	if err != nil {
		t.Fatal(err)
	}

	if err := e.StartStream(ctx, "mallory", s.ID); !errors.Is(err, streampay.ErrAccessDenied) {
		t.Errorf("stranger start: got %v", err)
	}
	if err := e.StartStream(ctx, "bob", s.ID); !errors.Is(err, streampay.ErrAccessDenied) {
		t.Errorf("receiver start: got %v, want access denied (owner only)", err)
	}
	if err := e.PauseStream(ctx, "alice", s.ID); !errors.Is(err, streampay.ErrCannotPause) {
		t.Errorf("pause initialized: got %v", err)
	}

	if err := e.StartStream(ctx, "alice", s.ID); err != nil {
		t.Fatal(err)
	}
	if err := e.StartStream(ctx, "alice", s.ID); !errors.Is(err, streampay.ErrCannotStart) {
		t.Errorf("start active: got %v", err)
	}

	// Receiver may pause; pausing a paused stream has its own error.
	if err := e.PauseStream(ctx, "bob", s.ID); err != nil {
		t.Fatal(err)
	}
	if err := e.PauseStream(ctx, "alice", s.ID); !errors.Is(err, streampay.ErrPausePaused) {
		t.Errorf("pause paused: got %v", err)
	}
	if err := e.PauseStream(ctx, "mallory", s.ID); !errors.Is(err, streampay.ErrAccessDenied) {
		t.Errorf("stranger pause: got %v", err)
	}

	// Paused streams restart.
	if err := e.StartStream(ctx, "alice", s.ID); err != nil {
		t.Fatal(err)
	}
}

func TestAccrualOnlyWhileActive(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	s, err := e.Create(ctx, "alice", nativeParams("bob", types.Native(100)), attached(types.Native(100)))
	if err != nil {
		t.Fatal(err)
	}

	// Time before the first start never accrues.
	e.advance(5 * time.Second)
	if err := e.StartStream(ctx, "alice", s.ID); err != nil {
		t.Fatal(err)
	}

	e.advance(2 * time.Second)
	v, err := e.StreamView(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if v.Available != types.Native(2) {
		t.Errorf("available after 2s active: got %s, want %s", v.Available, types.Native(2))
	}

	// Paused time never accrues either.
	if err := e.PauseStream(ctx, "alice", s.ID); err != nil {
		t.Fatal(err)
	}
	e.advance(30 * time.Second)
	v, err = e.StreamView(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if v.Available != types.Native(2) {
		t.Errorf("available while paused: got %s, want %s", v.Available, types.Native(2))
	}

	// Resuming restarts the accrual anchor at now.
	if err := e.StartStream(ctx, "alice", s.ID); err != nil {
		t.Fatal(err)
	}
	e.advance(time.Second)
	v, err = e.StreamView(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if v.Available != types.Native(3) {
		t.Errorf("available after resume: got %s, want %s", v.Available, types.Native(3))
	}
}

func TestWithdraw(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	s, err := e.Create(ctx, "alice", nativeParams("bob", types.Native(10)), attached(types.Native(10)))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.StartStream(ctx, "alice", s.ID); err != nil {
		t.Fatal(err)
	}
	e.advance(3 * time.Second)

	if _, err := e.Withdraw(ctx, "alice", s.ID, types.Native(1)); !errors.Is(err, streampay.ErrAccessDenied) {
		t.Errorf("owner withdraw: got %v", err)
	}
	if _, err := e.Withdraw(ctx, "bob", s.ID, 0); !errors.Is(err, streampay.ErrInvalidAmount) {
		t.Errorf("zero withdraw: got %v", err)
	}
	if _, err := e.Withdraw(ctx, "bob", s.ID, types.Native(4)); !errors.Is(err, streampay.ErrInsufficientFunds) {
		t.Errorf("over-withdraw: got %v", err)
	}

	p, err := e.Withdraw(ctx, "bob", s.ID, types.Native(3))
	if err != nil {
		t.Fatal(err)
	}
	if p.Purpose != transfer.PurposeWithdraw || p.Recipient != "bob" || p.Amount != types.Native(3) {
		t.Errorf("pending: %+v", p)
	}
	// Native payouts skip the registration stage.
	if p.State != transfer.StateAwaitingTransfer {
		t.Errorf("state: got %q, want awaiting_transfer", p.State)
	}

	// The amount left the stream's accounting immediately.
	v, err := e.StreamView(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if v.Available != 0 || v.Balance != types.Native(7) {
		t.Errorf("after withdraw: available %s balance %s", v.Available, v.Balance)
	}

	if _, err := e.CompleteTransfer(ctx, p.ID); err != nil {
		t.Fatal(err)
	}
	got, err := e.GetTransfer(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.State != transfer.StateCompleted {
		t.Errorf("state after complete: got %q", got.State)
	}
}

func TestRefund(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	s, err := e.Create(ctx, "alice", nativeParams("bob", types.Native(10)), attached(types.Native(10)))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := e.Refund(ctx, "bob", s.ID, types.Native(1)); !errors.Is(err, streampay.ErrAccessDenied) {
		t.Errorf("receiver refund: got %v", err)
	}
	if _, err := e.Refund(ctx, "alice", s.ID, types.Native(11)); !errors.Is(err, streampay.ErrInsufficientFunds) {
		t.Errorf("over-refund: got %v", err)
	}

	p, err := e.Refund(ctx, "alice", s.ID, types.Native(4))
	if err != nil {
		t.Fatal(err)
	}
	if p.Purpose != transfer.PurposeRefund || p.Recipient != "alice" {
		t.Errorf("pending: %+v", p)
	}

	v, err := e.StreamView(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if v.Balance != types.Native(6) {
		t.Errorf("balance after refund: got %s, want %s", v.Balance, types.Native(6))
	}
}

func TestStopStream(t *testing.T) {
	ctx := context.Background()

	t.Run("InterruptedWithFlushAndRefund", func(t *testing.T) {
		e := newTestEngine(t)
		s, err := e.Create(ctx, "alice", nativeParams("bob", types.Native(10)), attached(types.Native(10)))
		if err != nil {
			t.Fatal(err)
		}
		if err := e.StartStream(ctx, "alice", s.ID); err != nil {
			t.Fatal(err)
		}
		e.advance(3 * time.Second)

		payouts, err := e.StopStream(ctx, "bob", s.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(payouts) != 2 {
			t.Fatalf("payouts: got %d, want 2", len(payouts))
		}

		flush, refund := payouts[0], payouts[1]
		if flush.Purpose != transfer.PurposeStopFlush || flush.Recipient != "bob" || flush.Amount != types.Native(3) {
			t.Errorf("flush payout: %+v", flush)
		}
		if refund.Purpose != transfer.PurposeRefund || refund.Recipient != "alice" || refund.Amount != types.Native(7) {
			t.Errorf("refund payout: %+v", refund)
		}

		got, err := e.GetStream(ctx, s.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != stream.StatusInterrupted {
			t.Errorf("status: got %q, want interrupted", got.Status)
		}
		if got.Balance != 0 || got.Available != 0 {
			t.Errorf("stream retained funds: balance %d available %d", got.Balance, got.Available)
		}

		// Terminated streams accept no further operations and are
		// indistinguishable from missing ones.
		if err := e.StartStream(ctx, "alice", s.ID); !errors.Is(err, streampay.ErrStreamNotAvailable) {
			t.Errorf("start after stop: got %v", err)
		}
		if err := e.Deposit(ctx, "alice", s.ID, types.Native(1)); !errors.Is(err, streampay.ErrStreamNotAvailable) {
			t.Errorf("deposit after stop: got %v", err)
		}
	})

	t.Run("FinishedWhenFullyDisbursed", func(t *testing.T) {
		e := newTestEngine(t)
		s, err := e.Create(ctx, "alice", nativeParams("bob", types.Native(2)), attached(types.Native(2)))
		if err != nil {
			t.Fatal(err)
		}
		if err := e.StartStream(ctx, "alice", s.ID); err != nil {
			t.Fatal(err)
		}
		e.advance(10 * time.Second) // accrual caps at the committed balance

		payouts, err := e.StopStream(ctx, "alice", s.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(payouts) != 1 {
			t.Fatalf("payouts: got %d, want 1 (no owner remainder)", len(payouts))
		}
		if payouts[0].Purpose != transfer.PurposeStopFlush || payouts[0].Amount != types.Native(2) {
			t.Errorf("flush payout: %+v", payouts[0])
		}

		got, err := e.GetStream(ctx, s.ID)
		if err != nil {
			t.Fatal(err)
		}
		if got.Status != stream.StatusFinished {
			t.Errorf("status: got %q, want finished", got.Status)
		}
	})

	t.Run("StrangerDenied", func(t *testing.T) {
		e := newTestEngine(t)
		s, err := e.Create(ctx, "alice", nativeParams("bob", 0), attached(0))
		if err != nil {
			t.Fatal(err)
		}
		if _, err := e.StopStream(ctx, "mallory", s.ID); !errors.Is(err, streampay.ErrAccessDenied) {
			t.Errorf("got %v", err)
		}
	})
}

func TestFailTransferCreditsBack(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	s, err := e.Create(ctx, "alice", nativeParams("bob", types.Native(10)), attached(types.Native(10)))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.StartStream(ctx, "alice", s.ID); err != nil {
		t.Fatal(err)
	}
	e.advance(3 * time.Second)

	p, err := e.Withdraw(ctx, "bob", s.ID, types.Native(3))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.FailTransfer(ctx, p.ID); err != nil {
		t.Fatal(err)
	}

	// A failed receiver payout lands back in available.
	got, err := e.GetStream(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Available != types.Native(3) {
		t.Errorf("available after fail: got %s, want %s", got.Available, types.Native(3))
	}

	// Final transfers cannot fail again.
	if _, err := e.FailTransfer(ctx, p.ID); !errors.Is(err, streampay.ErrInvalidTransferState) {
		t.Errorf("double fail: got %v", err)
	}

	// A failed owner refund lands back in the committed balance.
	r, err := e.Refund(ctx, "alice", s.ID, types.Native(2))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.FailTransfer(ctx, r.ID); err != nil {
		t.Fatal(err)
	}
	got, err = e.GetStream(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Balance != types.Native(7) {
		t.Errorf("balance after refund fail: got %s, want %s", got.Balance, types.Native(7))
	}
}

func TestFailedStopFlushRecovery(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	s, err := e.Create(ctx, "alice", nativeParams("bob", types.Native(2)), attached(types.Native(2)))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.StartStream(ctx, "alice", s.ID); err != nil {
		t.Fatal(err)
	}
	e.advance(5 * time.Second)

	payouts, err := e.StopStream(ctx, "alice", s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(payouts) != 1 {
		t.Fatalf("payouts: got %d, want 1", len(payouts))
	}

	// The flush fails after the stream terminated. The credit still
	// lands on the stream so the funds are never lost.
	if _, err := e.FailTransfer(ctx, payouts[0].ID); err != nil {
		t.Fatal(err)
	}
	got, err := e.GetStream(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Available != types.Native(2) {
		t.Errorf("available after flush fail: got %s", got.Available)
	}

	// Reissue re-debits and opens a fresh payout even though the
	// stream is terminated.
	fresh, err := e.ReissueTransfer(ctx, payouts[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.Purpose != transfer.PurposeStopFlush || fresh.Amount != types.Native(2) || fresh.Recipient != "bob" {
		t.Errorf("reissued payout: %+v", fresh)
	}
	got, err = e.GetStream(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Available != 0 {
		t.Errorf("available after reissue: got %s, want 0", got.Available)
	}

	// Only failed transfers can be reissued.
	if _, err := e.ReissueTransfer(ctx, fresh.ID); !errors.Is(err, streampay.ErrInvalidTransferState) {
		t.Errorf("reissue in-flight: got %v", err)
	}
}

func TestTransferStateMachine(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	// Fungible stream, funded through the deposit notification path.
	streamID, err := e.OnTokenTransfer(ctx, "dacha.tkn.near", "alice", 1000,
		streampay.NewCreateMsg(stream.CreateParams{
			ReceiverID:    "bob",
			TokenName:     "DACHA",
			TokensPerTick: 10,
		}))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.StartStream(ctx, "alice", streamID); err != nil {
		t.Fatal(err)
	}
	e.advance(5 * time.Second)

	p, err := e.Withdraw(ctx, "bob", streamID, 50)
	if err != nil {
		t.Fatal(err)
	}
	if p.State != transfer.StateAwaitingRegistration {
		t.Fatalf("fungible payout state: got %q, want awaiting_registration", p.State)
	}

	// The external chain has two steps: register, then transfer.
	op, err := e.TransferOperation(p)
	if err != nil {
		t.Fatal(err)
	}
	if len(op.Steps) != 2 {
		t.Fatalf("op steps: got %d, want 2", len(op.Steps))
	}

	// Completing before registration is out of order.
	if _, err := e.CompleteTransfer(ctx, p.ID); !errors.Is(err, streampay.ErrInvalidTransferState) {
		t.Errorf("complete before advance: got %v", err)
	}

	advanced, err := e.AdvanceTransfer(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if advanced.State != transfer.StateAwaitingTransfer {
		t.Errorf("state after advance: got %q", advanced.State)
	}
	if _, err := e.AdvanceTransfer(ctx, p.ID); !errors.Is(err, streampay.ErrInvalidTransferState) {
		t.Errorf("double advance: got %v", err)
	}

	completed, err := e.CompleteTransfer(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if completed.State != transfer.StateCompleted {
		t.Errorf("state after complete: got %q", completed.State)
	}

	if _, err := e.GetTransfer(ctx, id.NewTransferID()); !errors.Is(err, streampay.ErrTransferNotFound) {
		t.Errorf("missing transfer: got %v, want ErrTransferNotFound", err)
	}
}

func TestOnTokenTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("UntrustedSenderRejectedFirst", func(t *testing.T) {
		e := newTestEngine(t)
		_, err := e.OnTokenTransfer(ctx, "mallory.near", "alice", 1000,
			streampay.NewCreateMsg(stream.CreateParams{ReceiverID: "bob", TokenName: "DACHA"}))
		if !errors.Is(err, streampay.ErrUntrustedSender) {
			t.Errorf("got %v, want ErrUntrustedSender", err)
		}
	})

	t.Run("ZeroAmount", func(t *testing.T) {
		e := newTestEngine(t)
		_, err := e.OnTokenTransfer(ctx, "dacha.tkn.near", "alice", 0,
			streampay.NewCreateMsg(stream.CreateParams{ReceiverID: "bob", TokenName: "DACHA"}))
		if !errors.Is(err, streampay.ErrInvalidAmount) {
			t.Errorf("got %v, want ErrInvalidAmount", err)
		}
	})

	t.Run("CreateSuccess", func(t *testing.T) {
		e := newTestEngine(t)
		streamID, err := e.OnTokenTransfer(ctx, "dacha.tkn.near", "alice", 5000,
			streampay.NewCreateMsg(stream.CreateParams{
				ReceiverID:    "bob",
				TokenName:     "DACHA",
				TokensPerTick: 10,
			}))
		if err != nil {
			t.Fatal(err)
		}

		s, err := e.GetStream(ctx, streamID)
		if err != nil {
			t.Fatal(err)
		}
		// The transferred amount becomes the initial balance.
		if s.Balance != 5000 {
			t.Errorf("balance: got %d, want 5000", s.Balance)
		}
		if s.OwnerID != "alice" {
			t.Errorf("owner: got %q, want the transfer sender", s.OwnerID)
		}

		v, err := e.StreamView(ctx, streamID)
		if err != nil {
			t.Fatal(err)
		}
		if v.TokenName != "DACHA" {
			t.Errorf("token: got %q, want DACHA", v.TokenName)
		}
	})

	t.Run("DeclaredTokenMustMatchSender", func(t *testing.T) {
		e := newTestEngine(t)
		_, err := e.OnTokenTransfer(ctx, "dacha.tkn.near", "alice", 1000,
			streampay.NewCreateMsg(stream.CreateParams{ReceiverID: "bob", TokenName: "TARAS"}))
		if !errors.Is(err, streampay.ErrTokensMismatch) {
			t.Errorf("got %v, want ErrTokensMismatch", err)
		}
	})

	t.Run("DeclaredBalanceMustMatchAmount", func(t *testing.T) {
		e := newTestEngine(t)
		_, err := e.OnTokenTransfer(ctx, "dacha.tkn.near", "alice", 1000,
			streampay.NewCreateMsg(stream.CreateParams{
				ReceiverID: "bob",
				TokenName:  "DACHA",
				Balance:    999,
			}))
		if !errors.Is(err, streampay.ErrInsufficientDeposit) {
			t.Errorf("got %v, want ErrInsufficientDeposit", err)
		}
	})

	t.Run("OwnerMismatch", func(t *testing.T) {
		e := newTestEngine(t)
		_, err := e.OnTokenTransfer(ctx, "dacha.tkn.near", "alice", 1000,
			streampay.NewCreateMsg(stream.CreateParams{
				OwnerID:    "mallory",
				ReceiverID: "bob",
				TokenName:  "DACHA",
			}))
		if !errors.Is(err, streampay.ErrAccessDenied) {
			t.Errorf("got %v, want ErrAccessDenied", err)
		}
	})

	t.Run("DepositSuccess", func(t *testing.T) {
		e := newTestEngine(t)
		streamID, err := e.OnTokenTransfer(ctx, "dacha.tkn.near", "alice", 1000,
			streampay.NewCreateMsg(stream.CreateParams{ReceiverID: "bob", TokenName: "DACHA"}))
		if err != nil {
			t.Fatal(err)
		}

		if _, err := e.OnTokenTransfer(ctx, "dacha.tkn.near", "alice", 500,
			streampay.NewDepositMsg(streamID)); err != nil {
			t.Fatal(err)
		}

		s, err := e.GetStream(ctx, streamID)
		if err != nil {
			t.Fatal(err)
		}
		if s.Balance != 1500 {
			t.Errorf("balance: got %d, want 1500", s.Balance)
		}
	})

	t.Run("DepositTokenMismatch", func(t *testing.T) {
		e := newTestEngine(t)
		s, err := e.Create(ctx, "alice", nativeParams("bob", 0), attached(0))
		if err != nil {
			t.Fatal(err)
		}

		// DACHA tokens arriving for a NEAR stream must be rejected.
		_, err = e.OnTokenTransfer(ctx, "dacha.tkn.near", "alice", 500,
			streampay.NewDepositMsg(s.ID))
		if !errors.Is(err, streampay.ErrTokensMismatch) {
			t.Errorf("got %v, want ErrTokensMismatch", err)
		}
	})
}

func TestDepositNativeOnly(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	native, err := e.Create(ctx, "alice", nativeParams("bob", types.Native(1)), attached(types.Native(1)))
	if err != nil {
		t.Fatal(err)
	}

	if err := e.Deposit(ctx, "carol", native.ID, types.Native(2)); err != nil {
		t.Fatal(err) // anyone may fund a native stream
	}
	got, err := e.GetStream(ctx, native.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Balance != types.Native(3) {
		t.Errorf("balance: got %s, want %s", got.Balance, types.Native(3))
	}

	if err := e.Deposit(ctx, "alice", native.ID, 0); !errors.Is(err, streampay.ErrInvalidAmount) {
		t.Errorf("zero deposit: got %v", err)
	}

	fungibleID, err := e.OnTokenTransfer(ctx, "dacha.tkn.near", "alice", 1000,
		streampay.NewCreateMsg(stream.CreateParams{ReceiverID: "bob", TokenName: "DACHA"}))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Deposit(ctx, "alice", fungibleID, 500); !errors.Is(err, streampay.ErrNotNativeToken) {
		t.Errorf("native deposit to fungible stream: got %v", err)
	}
}

func TestSetAutoDeposit(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	s, err := e.Create(ctx, "alice", nativeParams("bob", 0), attached(0))
	if err != nil {
		t.Fatal(err)
	}

	if err := e.SetAutoDeposit(ctx, "bob", s.ID, true); !errors.Is(err, streampay.ErrAccessDenied) {
		t.Errorf("receiver toggle: got %v", err)
	}

	if err := e.SetAutoDeposit(ctx, "alice", s.ID, true); err != nil {
		t.Fatal(err)
	}
	got, err := e.GetStream(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !got.AutoDeposit {
		t.Error("flag not set")
	}

	if err := e.SetAutoDeposit(ctx, "alice", s.ID, false); err != nil {
		t.Fatal(err)
	}

	log, err := e.ListActions(ctx, s.ID, action.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	// init, enable, disable — every toggle is logged.
	if len(log) != 3 {
		t.Fatalf("log entries: got %d, want 3", len(log))
	}
	if log[1].Kind.Code() != "enable_auto_deposit" || log[2].Kind.Code() != "disable_auto_deposit" {
		t.Errorf("toggle codes: %q, %q", log[1].Kind.Code(), log[2].Kind.Code())
	}
}

func TestRunCron(t *testing.T) {
	ctx := context.Background()

	t.Run("DisabledByDefault", func(t *testing.T) {
		e := newTestEngine(t)
		if _, err := e.RunCron(ctx); !errors.Is(err, streampay.ErrCronDisabled) {
			t.Errorf("got %v, want ErrCronDisabled", err)
		}
	})

	t.Run("TopsUpActiveAutoDepositStreams", func(t *testing.T) {
		e := newTestEngine(t, streampay.WithCron(10*time.Second))

		eligible, err := e.Create(ctx, "alice", stream.CreateParams{
			ReceiverID:    "bob",
			TokenName:     "NEAR",
			Balance:       types.Native(1),
			TokensPerTick: 5,
			AutoDeposit:   true,
		}, attached(types.Native(1)))
		if err != nil {
			t.Fatal(err)
		}
		if err := e.StartStream(ctx, "alice", eligible.ID); err != nil {
			t.Fatal(err)
		}

		// Active but without the flag: skipped.
		manual, err := e.Create(ctx, "alice", nativeParams("carol", types.Native(1)), attached(types.Native(1)))
		if err != nil {
			t.Fatal(err)
		}
		if err := e.StartStream(ctx, "alice", manual.ID); err != nil {
			t.Fatal(err)
		}

		// Flagged but not active: skipped.
		idle, err := e.Create(ctx, "alice", stream.CreateParams{
			ReceiverID:  "dave",
			TokenName:   "NEAR",
			AutoDeposit: true,
		}, attached(0))
		if err != nil {
			t.Fatal(err)
		}

		toppedUp, err := e.RunCron(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if toppedUp != 1 {
			t.Fatalf("topped up: got %d, want 1", toppedUp)
		}

		// One pass adds rate × (interval / tick) = 5 × 10.
		got, err := e.GetStream(ctx, eligible.ID)
		if err != nil {
			t.Fatal(err)
		}
		if want := types.Native(1).Add(50); got.Balance != want {
			t.Errorf("balance: got %s, want %s", got.Balance, want)
		}

		// The top-up is booked as an owner deposit in the log.
		log, err := e.ListActions(ctx, eligible.ID, action.ListOpts{})
		if err != nil {
			t.Fatal(err)
		}
		last := log[len(log)-1]
		if last.Kind.Code() != "deposit" || last.Actor != "alice" {
			t.Errorf("last action: %q by %q", last.Kind.Code(), last.Actor)
		}
		if amount, _ := last.Kind.Amount(); amount != 50 {
			t.Errorf("top-up amount: got %d, want 50", amount)
		}

		untouched, err := e.GetStream(ctx, manual.ID)
		if err != nil {
			t.Fatal(err)
		}
		if untouched.Balance != types.Native(1) {
			t.Error("manual stream was topped up")
		}
		idleGot, err := e.GetStream(ctx, idle.ID)
		if err != nil {
			t.Fatal(err)
		}
		if idleGot.Balance != 0 {
			t.Error("idle stream was topped up")
		}
	})
}

func TestListStreamsAndTransfers(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	s, err := e.Create(ctx, "alice", nativeParams("bob", types.Native(10)), attached(types.Native(10)))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.StartStream(ctx, "alice", s.ID); err != nil {
		t.Fatal(err)
	}
	e.advance(5 * time.Second)

	if _, err := e.Withdraw(ctx, "bob", s.ID, types.Native(2)); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Withdraw(ctx, "bob", s.ID, types.Native(1)); err != nil {
		t.Fatal(err)
	}

	streams, err := e.ListStreams(ctx, "bob", stream.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(streams) != 1 {
		t.Errorf("streams for bob: got %d, want 1", len(streams))
	}

	transfers, err := e.ListTransfers(ctx, s.ID, transfer.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(transfers) != 2 {
		t.Errorf("transfers: got %d, want 2", len(transfers))
	}
}

// rejectingStore wraps a store and fails payout inserts on demand.
type rejectingStore struct {
	store.Store
	rejectInserts bool
}

func (s *rejectingStore) CreateTransfer(ctx context.Context, p *transfer.Pending) error {
	if s.rejectInserts {
		return errors.New("insert rejected")
	}
	return s.Store.CreateTransfer(ctx, p)
}

func TestPayoutInsertFailureNeverDoublePays(t *testing.T) {
	ctx := context.Background()

	rs := &rejectingStore{Store: memory.New()}
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	e := streampay.New(rs,
		streampay.WithTick(time.Second),
		streampay.WithClock(func() time.Time { return now }),
	)

	s, err := e.Create(ctx, "alice", nativeParams("bob", types.Native(10)), attached(types.Native(10)))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.StartStream(ctx, "alice", s.ID); err != nil {
		t.Fatal(err)
	}
	now = now.Add(3 * time.Second)

	rs.rejectInserts = true
	if _, err := e.Withdraw(ctx, "bob", s.ID, types.Native(2)); err == nil {
		t.Fatal("expected payout insert failure to surface")
	}

	// No payout record exists and the debit was restored, so nothing
	// can be paid out twice.
	pending, err := e.ListTransfers(ctx, s.ID, transfer.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Fatalf("transfers after failed insert: got %d, want 0", len(pending))
	}
	got, err := e.GetStream(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Available != types.Native(3) {
		t.Errorf("available after failed insert: got %s, want %s", got.Available, types.Native(3))
	}
	log, err := e.ListActions(ctx, s.ID, action.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 2 {
		t.Errorf("log after failed insert: got %d entries, want init and start only", len(log))
	}

	// The same withdrawal succeeds once the store recovers.
	rs.rejectInserts = false
	p, err := e.Withdraw(ctx, "bob", s.ID, types.Native(2))
	if err != nil {
		t.Fatal(err)
	}
	if p.Amount != types.Native(2) {
		t.Errorf("payout amount: got %s, want %s", p.Amount, types.Native(2))
	}
	got, err = e.GetStream(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Available != types.Native(1) {
		t.Errorf("available after retry: got %s, want %s", got.Available, types.Native(1))
	}
}

func TestFundsConservedAcrossLifecycle(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	s, err := e.Create(ctx, "alice", nativeParams("bob", types.Native(100)), attached(types.Native(100)))
	if err != nil {
		t.Fatal(err)
	}
	if err := e.StartStream(ctx, "alice", s.ID); err != nil {
		t.Fatal(err)
	}
	e.advance(3 * time.Second)

	var payouts []*transfer.Pending
	w, err := e.Withdraw(ctx, "bob", s.ID, types.Native(2))
	if err != nil {
		t.Fatal(err)
	}
	payouts = append(payouts, w)

	if err := e.Deposit(ctx, "carol", s.ID, types.Native(5)); err != nil {
		t.Fatal(err)
	}

	r, err := e.Refund(ctx, "alice", s.ID, types.Native(10))
	if err != nil {
		t.Fatal(err)
	}
	payouts = append(payouts, r)

	e.advance(2 * time.Second)
	final, err := e.StopStream(ctx, "bob", s.ID)
	if err != nil {
		t.Fatal(err)
	}
	payouts = append(payouts, final...)

	for _, p := range payouts {
		if _, err := e.CompleteTransfer(ctx, p.ID); err != nil {
			t.Fatal(err)
		}
	}

	// Everything committed came back out: initial funding plus the later
	// deposit equals the sum of delivered payouts, with nothing left on
	// the stream.
	var delivered types.Balance
	for _, p := range payouts {
		delivered = delivered.Add(p.Amount)
	}
	committed := types.Native(100).Add(types.Native(5))
	if delivered != committed {
		t.Errorf("delivered %s of %s committed", delivered, committed)
	}
	got, err := e.GetStream(ctx, s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Balance != 0 || got.Available != 0 {
		t.Errorf("residual funds: balance %s available %s", got.Balance, got.Available)
	}

	// The log records the full history in order with non-decreasing
	// timestamps.
	log, err := e.ListActions(ctx, s.ID, action.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	wantCodes := []string{"init", "start", "withdraw", "deposit", "refund", "stop"}
	if len(log) != len(wantCodes) {
		t.Fatalf("log: got %d entries, want %d", len(log), len(wantCodes))
	}
	for i, a := range log {
		if a.Kind.Code() != wantCodes[i] {
			t.Errorf("log[%d]: got %q, want %q", i, a.Kind.Code(), wantCodes[i])
		}
		if i > 0 && a.Timestamp.Before(log[i-1].Timestamp) {
			t.Errorf("log[%d]: timestamp %v before log[%d]", i, a.Timestamp, i-1)
		}
	}
}
