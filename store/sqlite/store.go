// Package sqlite implements store.Store on SQLite via the Grove ORM.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/sqlitedriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/streampay"
	"github.com/xraph/streampay/action"
	"github.com/xraph/streampay/id"
	streampaystore "github.com/xraph/streampay/store"
	"github.com/xraph/streampay/stream"
	"github.com/xraph/streampay/transfer"
)

// compile-time interface check
var _ streampaystore.Store = (*Store)(nil)

// Store implements store.Store using SQLite via Grove ORM.
type Store struct {
	db  *grove.DB
	sdb *sqlitedriver.SqliteDB
}

// New creates a new SQLite store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		sdb: sqlitedriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.sdb)
	if err != nil {
		return fmt.Errorf("streampay/sqlite: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("streampay/sqlite: migration failed: %w", err)
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
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetStream(ctx context.Context, streamID id.StreamID) (*stream.Stream, error) {
	m := new(streamModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", streamID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, streampay.ErrNotFound
		}
		return nil, err
	}
	return fromStreamModel(m)
}

func (s *Store) ListStreams(ctx context.Context, account string, opts stream.ListOpts) ([]*stream.Stream, error) {
	var models []streamModel
	q := s.sdb.NewSelect(&models)

	if account != "" {
		q = q.Where("(owner_id = ? OR receiver_id = ?)", account, account)
	}
	if opts.Status != "" {
		q = q.Where("status = ?", string(opts.Status))
	}
	if opts.AutoDeposit != nil {
		q = q.Where("auto_deposit = ?", *opts.AutoDeposit)
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC, id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return streampay.ErrNotFound
	}
	return nil
}

// ==================== Action Store ====================

func (s *Store) AppendAction(ctx context.Context, a *action.Action) error {
	m := toActionModel(a)
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) ListActions(ctx context.Context, streamID id.StreamID, opts action.ListOpts) ([]*action.Action, error) {
	var models []actionModel
	q := s.sdb.NewSelect(&models).
		Where("stream_id = ?", streamID.String())

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	// Action IDs are K-sortable, so this reproduces insertion order.
	q = q.OrderExpr("timestamp ASC, id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	_, err := s.sdb.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetTransfer(ctx context.Context, transferID id.TransferID) (*transfer.Pending, error) {
	m := new(transferModel)
	err := s.sdb.NewSelect(m).
		Where("id = ?", transferID.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, streampay.ErrNotFound
		}
		return nil, err
	}
	return fromTransferModel(m)
}

func (s *Store) ListTransfers(ctx context.Context, streamID id.StreamID, opts transfer.ListOpts) ([]*transfer.Pending, error) {
	var models []transferModel
	q := s.sdb.NewSelect(&models)

	if !streamID.IsNil() {
		q = q.Where("stream_id = ?", streamID.String())
	}
	if opts.State != "" {
		q = q.Where("state = ?", string(opts.State))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC, id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	res, err := s.sdb.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return streampay.ErrNotFound
	}
	return nil
}

// ==================== Helpers ====================

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
