// Package memory provides an in-memory Store for tests and embedded use.
package memory

import (
	"context"
	"sync"

	"github.com/xraph/streampay"
	"github.com/xraph/streampay/action"
	"github.com/xraph/streampay/id"
	"github.com/xraph/streampay/stream"
	"github.com/xraph/streampay/transfer"
)

// Store keeps everything in process memory. Reads and writes exchange
// copies, so a caller mutating a loaded stream never changes stored
// state until it calls Update.
type Store struct {
	mu     sync.RWMutex
	closed bool

	// Stream storage, with insertion order preserved for listing
	streams     map[string]*stream.Stream
	streamOrder []string

	// Append-only action log, keyed by stream
	actions map[string][]*action.Action

	// Pending transfer storage, with insertion order preserved
	transfers     map[string]*transfer.Pending
	transferOrder []string
}

func New() *Store {
	return &Store{
		streams:   make(map[string]*stream.Stream),
		actions:   make(map[string][]*action.Action),
		transfers: make(map[string]*transfer.Pending),
	}
}

// Stream Store implementation

func (s *Store) CreateStream(_ context.Context, st *stream.Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return streampay.ErrStoreClosed
	}
	key := st.ID.String()
	if _, exists := s.streams[key]; exists {
		return streampay.ErrAlreadyExists
	}

	clone := *st
	s.streams[key] = &clone
	s.streamOrder = append(s.streamOrder, key)
	return nil
}

func (s *Store) GetStream(_ context.Context, streamID id.StreamID) (*stream.Stream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, streampay.ErrStoreClosed
	}
	if st, ok := s.streams[streamID.String()]; ok {
		clone := *st
		return &clone, nil
	}
	return nil, streampay.ErrNotFound
}

func (s *Store) ListStreams(_ context.Context, account string, opts stream.ListOpts) ([]*stream.Stream, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, streampay.ErrStoreClosed
	}

	result := make([]*stream.Stream, 0)
	for _, key := range s.streamOrder {
		st := s.streams[key]
		if account != "" && !st.IsOwner(account) && !st.IsReceiver(account) {
			continue
		}
		if opts.Status != "" && st.Status != opts.Status {
			continue
		}
		if opts.AutoDeposit != nil && st.AutoDeposit != *opts.AutoDeposit {
			continue
		}
		clone := *st
		result = append(result, &clone)
	}

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateStream(_ context.Context, st *stream.Stream) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return streampay.ErrStoreClosed
	}
	key := st.ID.String()
	if _, exists := s.streams[key]; !exists {
		return streampay.ErrNotFound
	}

	clone := *st
	s.streams[key] = &clone
	return nil
}

// Action Store implementation

func (s *Store) AppendAction(_ context.Context, a *action.Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return streampay.ErrStoreClosed
	}

	clone := *a
	key := a.StreamID.String()
	s.actions[key] = append(s.actions[key], &clone)
	return nil
}

func (s *Store) ListActions(_ context.Context, streamID id.StreamID, opts action.ListOpts) ([]*action.Action, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, streampay.ErrStoreClosed
	}

	log := s.actions[streamID.String()]
	result := make([]*action.Action, 0, len(log))
	for _, a := range log {
		clone := *a
		result = append(result, &clone)
	}

	return paginate(result, opts.Offset, opts.Limit), nil
}

// Transfer Store implementation

func (s *Store) CreateTransfer(_ context.Context, p *transfer.Pending) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return streampay.ErrStoreClosed
	}
	key := p.ID.String()
	if _, exists := s.transfers[key]; exists {
		return streampay.ErrAlreadyExists
	}

	clone := *p
	s.transfers[key] = &clone
	s.transferOrder = append(s.transferOrder, key)
	return nil
}

func (s *Store) GetTransfer(_ context.Context, transferID id.TransferID) (*transfer.Pending, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, streampay.ErrStoreClosed
	}
	if p, ok := s.transfers[transferID.String()]; ok {
		clone := *p
		return &clone, nil
	}
	return nil, streampay.ErrNotFound
}

func (s *Store) ListTransfers(_ context.Context, streamID id.StreamID, opts transfer.ListOpts) ([]*transfer.Pending, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, streampay.ErrStoreClosed
	}

	result := make([]*transfer.Pending, 0)
	for _, key := range s.transferOrder {
		p := s.transfers[key]
		if !streamID.IsNil() && p.StreamID != streamID {
			continue
		}
		if opts.State != "" && p.State != opts.State {
			continue
		}
		clone := *p
		result = append(result, &clone)
	}

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateTransfer(_ context.Context, p *transfer.Pending) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return streampay.ErrStoreClosed
	}
	key := p.ID.String()
	if _, exists := s.transfers[key]; !exists {
		return streampay.ErrNotFound
	}

	clone := *p
	s.transfers[key] = &clone
	return nil
}

// Core methods

func (s *Store) Migrate(_ context.Context) error {
	return nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return streampay.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// paginate applies offset and limit to an already-filtered slice.
func paginate[T any](items []T, offset, limit int) []T {
	start := offset
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit == 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
