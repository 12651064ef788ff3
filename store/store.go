package store

import (
	"context"

	"github.com/xraph/streampay/action"
	"github.com/xraph/streampay/id"
	"github.com/xraph/streampay/stream"
	"github.com/xraph/streampay/transfer"
)

// Store is the unified storage interface for all Streampay entities.
// Instead of embedding the sub-interfaces, we explicitly declare all
// methods to avoid naming conflicts.
type Store interface {
	// Stream methods. Streams are never deleted; terminated streams
	// persist as permanent records.
	CreateStream(ctx context.Context, s *stream.Stream) error
	GetStream(ctx context.Context, streamID id.StreamID) (*stream.Stream, error)
	ListStreams(ctx context.Context, account string, opts stream.ListOpts) ([]*stream.Stream, error)
	UpdateStream(ctx context.Context, s *stream.Stream) error

	// Action log methods. Append-only: entries are never updated or
	// removed, and List returns them in insertion order.
	AppendAction(ctx context.Context, a *action.Action) error
	ListActions(ctx context.Context, streamID id.StreamID, opts action.ListOpts) ([]*action.Action, error)

	// Pending transfer methods
	CreateTransfer(ctx context.Context, p *transfer.Pending) error
	GetTransfer(ctx context.Context, transferID id.TransferID) (*transfer.Pending, error)
	ListTransfers(ctx context.Context, streamID id.StreamID, opts transfer.ListOpts) ([]*transfer.Pending, error)
	UpdateTransfer(ctx context.Context, p *transfer.Pending) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
