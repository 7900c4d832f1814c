// Package postgres provides a PostgreSQL implementation of storage.Store.
// It uses pgx/v5 for connection pooling and JSONB columns for the request
// and raw response documents.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/soiree/pkg/invitation"
	"github.com/rhuss/soiree/pkg/storage"
)

// Store is a PostgreSQL-backed record store.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	cfg, err := cfg.resolve()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool, logger: logger}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// Save inserts a record.
func (s *Store) Save(ctx context.Context, rec *storage.Record) error {
	if rec.Request == nil {
		return fmt.Errorf("record %s has no request", rec.ID)
	}

	requestJSON, err := json.Marshal(rec.Request)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}
	responseJSON, err := json.Marshal(rec.Response)
	if err != nil {
		return fmt.Errorf("marshaling response: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO invitations (
			id, event_type, host_names, guest_count, request, response, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		rec.ID, string(rec.Request.EventType), rec.Request.HostNames, len(rec.Request.GuestList),
		requestJSON, responseJSON, rec.CreatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting invitation: %w", err)
	}

	return nil
}

// Get retrieves a record by ID.
func (s *Store) Get(ctx context.Context, id string) (*storage.Record, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, request, response, created_at
		FROM invitations
		WHERE id = $1
	`, id)

	rec, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying invitation: %w", err)
	}
	return rec, nil
}

// List returns records newest first using keyset pagination on
// (created_at, id).
func (s *Store) List(ctx context.Context, opts storage.ListOptions) (*storage.RecordList, error) {
	query := `SELECT id, request, response, created_at FROM invitations WHERE true`
	var args []any

	if opts.EventType != "" {
		args = append(args, string(opts.EventType))
		query += fmt.Sprintf(" AND event_type = $%d", len(args))
	}

	if opts.After != "" {
		args = append(args, opts.After)
		n := len(args)
		query += fmt.Sprintf(
			" AND (created_at, id) < (SELECT created_at, id FROM invitations WHERE id = $%d)", n)
	}

	limit := storage.PageLimit(opts.Limit)
	args = append(args, limit+1)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing invitations: %w", err)
	}
	defer rows.Close()

	records := []*storage.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning invitation: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing invitations: %w", err)
	}

	hasMore := len(records) > limit
	if hasMore {
		records = records[:limit]
	}
	return &storage.RecordList{Data: records, HasMore: hasMore}, nil
}

// Delete removes a record by ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	result, err := s.pool.Exec(ctx, "DELETE FROM invitations WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting invitation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func scanRecord(row pgx.Row) (*storage.Record, error) {
	var rec storage.Record
	var requestJSON, responseJSON []byte

	if err := row.Scan(&rec.ID, &requestJSON, &responseJSON, &rec.CreatedAt); err != nil {
		return nil, err
	}

	var req invitation.Request
	if err := json.Unmarshal(requestJSON, &req); err != nil {
		return nil, fmt.Errorf("unmarshaling request: %w", err)
	}
	rec.Request = &req

	if err := json.Unmarshal(responseJSON, &rec.Response); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	return &rec, nil
}

// isDuplicateKey reports a PostgreSQL unique violation (23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
