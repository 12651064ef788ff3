// Package mongo implements store.Store on MongoDB via the Grove ORM.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/streampay"
	"github.com/xraph/streampay/action"
	"github.com/xraph/streampay/id"
	streampaystore "github.com/xraph/streampay/store"
	"github.com/xraph/streampay/stream"
	"github.com/xraph/streampay/transfer"
)

// Collection name constants.
const (
	colStreams   = "streampay_streams"
	colActions   = "streampay_actions"
	colTransfers = "streampay_transfers"
)

// compile-time interface check
var _ streampaystore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all streampay collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("streampay/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Stream Store ====================

func (s *Store) CreateStream(ctx context.Context, st *stream.Stream) error {
	m := toStreamModel(st)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("streampay/mongo: create stream: %w", err)
	}
	return nil
}

func (s *Store) GetStream(ctx context.Context, streamID id.StreamID) (*stream.Stream, error) {
	var m streamModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": streamID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, streampay.ErrNotFound
		}
		return nil, fmt.Errorf("streampay/mongo: get stream: %w", err)
	}
	return fromStreamModel(&m)
}

func (s *Store) ListStreams(ctx context.Context, account string, opts stream.ListOpts) ([]*stream.Stream, error) {
	var models []streamModel

	filter := bson.M{}
	if account != "" {
		filter["$or"] = []bson.M{
			{"owner_id": account},
			{"receiver_id": account},
		}
	}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	if opts.AutoDeposit != nil {
		filter["auto_deposit"] = *opts.AutoDeposit
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("streampay/mongo: list streams: %w", err)
	}

	result := make([]*stream.Stream, len(models))
	for i := range models {
		st, err := fromStreamModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = st
	}
	return result, nil
}

func (s *Store) UpdateStream(ctx context.Context, st *stream.Stream) error {
	m := toStreamModel(st)

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("streampay/mongo: update stream: %w", err)
	}
	if res.MatchedCount() == 0 {
		return streampay.ErrNotFound
	}
	return nil
}

// ==================== Action Store ====================

func (s *Store) AppendAction(ctx context.Context, a *action.Action) error {
	m := toActionModel(a)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("streampay/mongo: append action: %w", err)
	}
	return nil
}

func (s *Store) ListActions(ctx context.Context, streamID id.StreamID, opts action.ListOpts) ([]*action.Action, error) {
	var models []actionModel

	// Action IDs are K-sortable, so this reproduces insertion order.
	q := s.mdb.NewFind(&models).
		Filter(bson.M{"stream_id": streamID.String()}).
		Sort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("streampay/mongo: list actions: %w", err)
	}

	result := make([]*action.Action, len(models))
	for i := range models {
		a, err := fromActionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = a
	}
	return result, nil
}

// ==================== Transfer Store ====================

func (s *Store) CreateTransfer(ctx context.Context, p *transfer.Pending) error {
	m := toTransferModel(p)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("streampay/mongo: create transfer: %w", err)
	}
	return nil
}

func (s *Store) GetTransfer(ctx context.Context, transferID id.TransferID) (*transfer.Pending, error) {
	var m transferModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": transferID.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, streampay.ErrNotFound
		}
		return nil, fmt.Errorf("streampay/mongo: get transfer: %w", err)
	}
	return fromTransferModel(&m)
}

func (s *Store) ListTransfers(ctx context.Context, streamID id.StreamID, opts transfer.ListOpts) ([]*transfer.Pending, error) {
	var models []transferModel

	filter := bson.M{}
	if !streamID.IsNil() {
		filter["stream_id"] = streamID.String()
	}
	if opts.State != "" {
		filter["state"] = string(opts.State)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("streampay/mongo: list transfers: %w", err)
	}

	result := make([]*transfer.Pending, len(models))
	for i := range models {
		p, err := fromTransferModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) UpdateTransfer(ctx context.Context, p *transfer.Pending) error {
	m := toTransferModel(p)

	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("streampay/mongo: update transfer: %w", err)
	}
	if res.MatchedCount() == 0 {
		return streampay.ErrNotFound
	}
	return nil
}

// ==================== Helpers ====================

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all streampay collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colStreams: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "auto_deposit", Value: 1}}},
		},
		colActions: {
			{Keys: bson.D{{Key: "stream_id", Value: 1}, {Key: "timestamp", Value: 1}}},
		},
		colTransfers: {
			{Keys: bson.D{{Key: "stream_id", Value: 1}, {Key: "state", Value: 1}}},
			{Keys: bson.D{{Key: "state", Value: 1}, {Key: "created_at", Value: 1}}},
		},
	}
}
