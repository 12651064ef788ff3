package postgres

import (
	"context"

	"github.com/xraph/grove/migrate"
)

// Migrations is the grove migration group for the Streampay store.
var Migrations = migrate.NewGroup("streampay")

func init() {
	Migrations.MustRegister(
		&migrate.Migration{
			Name:    "create_streampay_streams",
			Version: "20240101000001",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS streampay_streams (
    id              TEXT PRIMARY KEY,
    description     TEXT NOT NULL DEFAULT '',
    owner_id        TEXT NOT NULL DEFAULT '',
    receiver_id     TEXT NOT NULL DEFAULT '',
    token_id        BIGINT NOT NULL DEFAULT 0,
    status          TEXT NOT NULL DEFAULT 'INITIALIZED',
    balance         TEXT NOT NULL DEFAULT '0',
    available       TEXT NOT NULL DEFAULT '0',
    tokens_per_tick TEXT NOT NULL DEFAULT '0',
    auto_deposit    BOOLEAN NOT NULL DEFAULT FALSE,
    accrued_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_streampay_streams_owner ON streampay_streams (owner_id);
CREATE INDEX IF NOT EXISTS idx_streampay_streams_receiver ON streampay_streams (receiver_id);
CREATE INDEX IF NOT EXISTS idx_streampay_streams_status ON streampay_streams (status, auto_deposit);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS streampay_streams`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_streampay_actions",
			Version: "20240101000002",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS streampay_actions (
    id        TEXT PRIMARY KEY,
    stream_id TEXT NOT NULL DEFAULT '',
    actor     TEXT NOT NULL DEFAULT '',
    kind      TEXT NOT NULL DEFAULT '',
    amount    TEXT NOT NULL DEFAULT '0',
    timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_streampay_actions_stream ON streampay_actions (stream_id, timestamp, id);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS streampay_actions`)
				return err
			},
		},
		&migrate.Migration{
			Name:    "create_streampay_transfers",
			Version: "20240101000003",
			Up: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `
CREATE TABLE IF NOT EXISTS streampay_transfers (
    id         TEXT PRIMARY KEY,
    stream_id  TEXT NOT NULL DEFAULT '',
    purpose    TEXT NOT NULL DEFAULT '',
    token_id   BIGINT NOT NULL DEFAULT 0,
    recipient  TEXT NOT NULL DEFAULT '',
    amount     TEXT NOT NULL DEFAULT '0',
    state      TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_streampay_transfers_stream ON streampay_transfers (stream_id, state);
CREATE INDEX IF NOT EXISTS idx_streampay_transfers_state ON streampay_transfers (state);
`)
				return err
			},
			Down: func(ctx context.Context, exec migrate.Executor) error {
				_, err := exec.Exec(ctx, `DROP TABLE IF EXISTS streampay_transfers`)
				return err
			},
		},
	)
}
