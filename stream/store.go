package stream

import (
	"context"

	"github.com/xraph/streampay/id"
)

// Store is the persistence contract for streams. Streams are never
// deleted: terminated streams persist as permanent records.
type Store interface {
	Create(ctx context.Context, s *Stream) error
	Get(ctx context.Context, streamID id.StreamID) (*Stream, error)
	List(ctx context.Context, account string, opts ListOpts) ([]*Stream, error)
	Update(ctx context.Context, s *Stream) error
}

// ListOpts filters List. Account (on the Store method) matches either
// owner or receiver; empty matches all streams.
type ListOpts struct {
	Status      Status
	AutoDeposit *bool
	Limit       int
	Offset      int
}
