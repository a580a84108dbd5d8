package board

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
)

const (
	postgresArchiveTableName = "boardsync_revisions"
	postgresOperationTimeout = 5 * time.Second
)

type sqlOpenFunc func(driverName, dsn string) (*sql.DB, error)

// PostgresArchive appends one row per save. The connection and table are
// initialized lazily on first use so construction never touches the
// network.
type PostgresArchive struct {
	dsn       string
	tableName string
	openDB    sqlOpenFunc

	initOnce sync.Once
	initErr  error
	db       *sql.DB
}

func NewPostgresArchive(dsn string) (*PostgresArchive, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, ErrInvalidInput
	}
	return &PostgresArchive{
		dsn:       dsn,
		tableName: postgresArchiveTableName,
		openDB:    sql.Open,
	}, nil
}

func (a *PostgresArchive) Append(ctx context.Context, b Board, origin SaveOrigin) error {
	if err := a.ensureReady(); err != nil {
		return err
	}
	payload, err := encodeRevisionBoard(b)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		INSERT INTO %s (origin, board, saved_at)
		VALUES ($1, $2, NOW())`, postgresQuoteIdentifier(a.tableName))
	_, err = a.db.ExecContext(ctx, query, string(origin), payload)
	return err
}

func (a *PostgresArchive) List(ctx context.Context, limit int) ([]Revision, error) {
	if err := a.ensureReady(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	ctx, cancel := context.WithTimeout(ctx, postgresOperationTimeout)
	defer cancel()

	query := fmt.Sprintf(`
		SELECT id, origin, board, saved_at FROM %s
		ORDER BY id DESC LIMIT $1`, postgresQuoteIdentifier(a.tableName))
	rows, err := a.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	revisions := make([]Revision, 0, limit)
	for rows.Next() {
		var (
			rev     Revision
			origin  string
			payload string
		)
		if err := rows.Scan(&rev.Seq, &origin, &payload, &rev.SavedAt); err != nil {
			return nil, err
		}
		rev.Origin = SaveOrigin(origin)
		if err := json.Unmarshal([]byte(payload), &rev.Board); err != nil {
			return nil, err
		}
		revisions = append(revisions, rev)
	}
	return revisions, rows.Err()
}

func (a *PostgresArchive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}

func (a *PostgresArchive) ensureReady() error {
	if a == nil {
		return ErrInvalidInput
	}
	a.initOnce.Do(func() {
		db, err := a.openDB("postgres", a.dsn)
		if err != nil {
			a.initErr = err
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), postgresOperationTimeout)
		defer cancel()

		query := fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				id BIGSERIAL PRIMARY KEY,
				origin TEXT NOT NULL,
				board TEXT NOT NULL,
				saved_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`, postgresQuoteIdentifier(a.tableName))
		if _, err := db.ExecContext(ctx, query); err != nil {
			_ = db.Close()
			a.initErr = err
			return
		}
		a.db = db
	})
	return a.initErr
}

func postgresQuoteIdentifier(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "\"\""
	}
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
