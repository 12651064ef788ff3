package stream_test

import (
	"testing"
	"time"

	"github.com/xraph/streampay/stream"
	"github.com/xraph/streampay/types"
)

func TestStatusPredicates(t *testing.T) {
	tests := []struct {
		status     stream.Status
		terminated bool
		canStart   bool
	}{
		{stream.StatusInitialized, false, true},
		{stream.StatusActive, false, false},
		{stream.StatusPaused, false, true},
		{stream.StatusInterrupted, true, false},
		{stream.StatusFinished, true, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminated(); got != tt.terminated {
				t.Errorf("IsTerminated: got %v, want %v", got, tt.terminated)
			}
			if got := tt.status.CanStart(); got != tt.canStart {
				t.Errorf("CanStart: got %v, want %v", got, tt.canStart)
			}
		})
	}
}

func TestAccrue(t *testing.T) {
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	tick := time.Second

	newStream := func(status stream.Status, balance, perTick types.Balance) *stream.Stream {
		return &stream.Stream{
			Status:        status,
			Balance:       balance,
			TokensPerTick: perTick,
			AccruedAt:     base,
		}
	}

	t.Run("NoOpUnlessActive", func(t *testing.T) {
		for _, status := range []stream.Status{
			stream.StatusInitialized,
			stream.StatusPaused,
			stream.StatusInterrupted,
			stream.StatusFinished,
		} {
			s := newStream(status, 1000, 10)
			if moved := s.Accrue(base.Add(5*time.Second), tick); moved != 0 {
				t.Errorf("%s: moved %d, want 0", status, moved)
			}
			if s.Balance != 1000 || s.Available != 0 {
				t.Errorf("%s: state changed", status)
			}
		}
	})

	t.Run("WholeTicksOnly", func(t *testing.T) {
		s := newStream(stream.StatusActive, 1000, 10)

		// Less than one tick releases nothing.
		if moved := s.Accrue(base.Add(900*time.Millisecond), tick); moved != 0 {
			t.Fatalf("moved %d, want 0", moved)
		}
		if !s.AccruedAt.Equal(base) {
			t.Error("anchor moved without a whole tick")
		}

		// 2.5 ticks release exactly 2, and the half tick stays banked.
		if moved := s.Accrue(base.Add(2500*time.Millisecond), tick); moved != 20 {
			t.Fatalf("moved %d, want 20", moved)
		}
		if s.Balance != 980 || s.Available != 20 {
			t.Errorf("balance %d available %d, want 980/20", s.Balance, s.Available)
		}
		if !s.AccruedAt.Equal(base.Add(2 * time.Second)) {
			t.Errorf("anchor %v, want base+2s", s.AccruedAt)
		}

		// Another 500ms completes the banked half tick.
		if moved := s.Accrue(base.Add(3*time.Second), tick); moved != 10 {
			t.Fatalf("moved %d, want 10", moved)
		}
	})

	t.Run("CappedAtBalance", func(t *testing.T) {
		s := newStream(stream.StatusActive, 25, 10)
		now := base.Add(10 * time.Second)

		if moved := s.Accrue(now, tick); moved != 25 {
			t.Fatalf("moved %d, want 25", moved)
		}
		if s.Balance != 0 || s.Available != 25 {
			t.Errorf("balance %d available %d, want 0/25", s.Balance, s.Available)
		}
		// Fully disbursed: the anchor jumps to now so the exhausted
		// period is not replayed after a top-up.
		if !s.AccruedAt.Equal(now) {
			t.Errorf("anchor %v, want now", s.AccruedAt)
		}
	})

	t.Run("ZeroRate", func(t *testing.T) {
		s := newStream(stream.StatusActive, 1000, 0)
		if moved := s.Accrue(base.Add(time.Hour), tick); moved != 0 {
			t.Errorf("moved %d, want 0", moved)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		s := newStream(stream.StatusActive, 1000, 10)
		now := base.Add(5 * time.Second)

		first := s.Accrue(now, tick)
		second := s.Accrue(now, tick)
		if first != 50 || second != 0 {
			t.Errorf("moved %d then %d, want 50 then 0", first, second)
		}
	})
}

func TestOwnershipPredicates(t *testing.T) {
	s := &stream.Stream{OwnerID: "alice", ReceiverID: "bob"}

	if !s.IsOwner("alice") || s.IsOwner("bob") || s.IsOwner("") {
		t.Error("IsOwner misidentified account")
	}
	if !s.IsReceiver("bob") || s.IsReceiver("alice") || s.IsReceiver("") {
		t.Error("IsReceiver misidentified account")
	}
}
