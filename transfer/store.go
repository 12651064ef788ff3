package transfer

import (
	"context"

	"github.com/xraph/streampay/id"
)

// Store is the persistence contract for pending payouts.
type Store interface {
	Create(ctx context.Context, p *Pending) error
	Get(ctx context.Context, transferID id.TransferID) (*Pending, error)
	List(ctx context.Context, streamID id.StreamID, opts ListOpts) ([]*Pending, error)
	Update(ctx context.Context, p *Pending) error
}

type ListOpts struct {
	State  State
	Limit  int
	Offset int
}
