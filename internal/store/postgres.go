package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/meridian-legal/extract-cli/internal/db"
	"github.com/meridian-legal/extract-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_record": `INSERT INTO records (id, source, mode, fields, confidences, created_at) VALUES ($1, $2, $3, $4, $5, $6)
	 ON CONFLICT (id) DO UPDATE SET source = EXCLUDED.source, mode = EXCLUDED.mode, fields = EXCLUDED.fields, confidences = EXCLUDED.confidences`,
	"get_record": `SELECT id, source, mode, fields, confidences, created_at FROM records WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for use by subsystems
// that need direct query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS records (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source      TEXT NOT NULL,
	mode        TEXT NOT NULL,
	fields      JSONB NOT NULL,
	confidences JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_records_source ON records(source);
CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at);
CREATE INDEX IF NOT EXISTS idx_records_expediente ON records((fields->>'expediente'));
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveRecord(ctx context.Context, rec *model.Record) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	fieldsJSON, confJSON, err := marshalRecordJSONB(rec)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal record")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO records (id, source, mode, fields, confidences, created_at) VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (id) DO UPDATE SET source = EXCLUDED.source, mode = EXCLUDED.mode, fields = EXCLUDED.fields, confidences = EXCLUDED.confidences`,
		rec.ID, rec.Source, string(rec.Mode), fieldsJSON, confJSON, rec.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert record")
}

var recordColumns = []string{"id", "source", "mode", "fields", "confidences", "created_at"}

// SaveRecords bulk-loads records, one row per document. Records that arrive
// without ids are freshly extracted and cannot conflict, so they go straight
// through COPY; any pre-set id forces the temp-table upsert path instead.
func (s *PostgresStore) SaveRecords(ctx context.Context, recs []model.Record) (int64, error) {
	if len(recs) == 0 {
		return 0, nil
	}

	allNew := true
	rows := make([][]any, 0, len(recs))
	for i := range recs {
		rec := &recs[i]
		if rec.ID != "" {
			allNew = false
		} else {
			rec.ID = uuid.New().String()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now().UTC()
		}

		fieldsJSON, confJSON, err := marshalRecordJSONB(rec)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal record")
		}
		rows = append(rows, []any{rec.ID, rec.Source, string(rec.Mode), fieldsJSON, confJSON, rec.CreatedAt})
	}

	if allNew {
		n, err := db.CopyFrom(ctx, s.pool, "records", recordColumns, rows)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: save records")
		}
		return n, nil
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "records",
		Columns:      recordColumns,
		ConflictKeys: []string{"id"},
		UpdateCols:   []string{"source", "mode", "fields", "confidences"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: save records")
	}
	return n, nil
}

func (s *PostgresStore) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	var r model.Record
	var mode string
	var fieldsJSON []byte
	var confNull *[]byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, source, mode, fields, confidences, created_at FROM records WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.Source, &mode, &fieldsJSON, &confNull, &r.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get record %s", id)
	}

	r.Mode = model.ExtractionMode(mode)
	if err := json.Unmarshal(fieldsJSON, &r.Fields); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal fields")
	}
	if confNull != nil {
		if err := json.Unmarshal(*confNull, &r.Confidences); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal confidences")
		}
	}
	return &r, nil
}

func (s *PostgresStore) ListRecords(ctx context.Context, filter RecordFilter) ([]model.Record, error) {
	query := `SELECT id, source, mode, fields, confidences, created_at FROM records WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Source != "" {
		query += fmt.Sprintf(` AND source = $%d`, argIdx)
		args = append(args, filter.Source)
		argIdx++
	}
	if filter.Expediente != "" {
		query += fmt.Sprintf(` AND fields->>'expediente' = $%d`, argIdx)
		args = append(args, filter.Expediente)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list records")
	}
	defer rows.Close()

	var recs []model.Record
	for rows.Next() {
		var r model.Record
		var mode string
		var fieldsJSON []byte
		var confNull *[]byte

		if err := rows.Scan(&r.ID, &r.Source, &mode, &fieldsJSON, &confNull, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan record")
		}
		r.Mode = model.ExtractionMode(mode)
		if err := json.Unmarshal(fieldsJSON, &r.Fields); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal fields")
		}
		if confNull != nil {
			if err := json.Unmarshal(*confNull, &r.Confidences); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal confidences")
			}
		}
		recs = append(recs, r)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: list records iterate")
}

func marshalRecordJSONB(rec *model.Record) (fieldsJSON, confJSON []byte, err error) {
	fieldsJSON, err = json.Marshal(rec.Fields)
	if err != nil {
		return nil, nil, eris.Wrap(err, "marshal fields")
	}
	confJSON, err = json.Marshal(rec.Confidences)
	if err != nil {
		return nil, nil, eris.Wrap(err, "marshal confidences")
	}
	return fieldsJSON, confJSON, nil
}
