package action

import (
	"context"

	"github.com/xraph/streampay/id"
)

// Store is the persistence contract for the action log. Append is the
// only write: entries are never updated or deleted.
type Store interface {
	Append(ctx context.Context, a *Action) error
	List(ctx context.Context, streamID id.StreamID, opts ListOpts) ([]*Action, error)
}

type ListOpts struct {
	Limit  int
	Offset int
}
