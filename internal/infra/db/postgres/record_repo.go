package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	domain "github.com/bryanwahyu/traffic-sign-indicator/internal/domain/signs"
)

const DefaultTable = "traffic_sign_recommendations"

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]{0,62}$`)

type RecordRepository struct {
	db    *sql.DB
	table string
}

func NewRecordRepository(db *sql.DB, table string) (*RecordRepository, error) {
	if table == "" {
		table = DefaultTable
	}
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &RecordRepository{db: db, table: table}, nil
}

// Put inserts an analysis record
func (r *RecordRepository) Put(ctx context.Context, rec domain.AnalysisRecord) error {
	q := fmt.Sprintf(`INSERT INTO %q (id, image_key, sign_description, context, precaution_warning, "timestamp") VALUES ($1,$2,$3,$4,$5,$6)`, r.table)
	_, err := r.db.ExecContext(ctx, q,
		rec.ID, rec.ImageKey, rec.SignDescription, rec.Context, rec.PrecautionWarning, rec.TimestampString())
	if err != nil {
		return fmt.Errorf("insert analysis record: %w", err)
	}
	return nil
}

// Latest returns a page of analysis records ordered by timestamp desc
func (r *RecordRepository) Latest(ctx context.Context, page, pageSize int) ([]domain.AnalysisRecord, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize

	q := fmt.Sprintf(`SELECT id, image_key, sign_description, context, precaution_warning, "timestamp" FROM %q ORDER BY "timestamp" DESC, id DESC LIMIT $1 OFFSET $2`, r.table)
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.AnalysisRecord{}
	for rows.Next() {
		var rec domain.AnalysisRecord
		var ts string
		if err := rows.Scan(&rec.ID, &rec.ImageKey, &rec.SignDescription, &rec.Context, &rec.PrecautionWarning, &ts); err != nil {
			return nil, err
		}
		if t, err := domain.ParseTimestamp(ts); err == nil {
			rec.Timestamp = t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *RecordRepository) Check(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Migrate creates the records table when missing.
func Migrate(ctx context.Context, db *sql.DB, table string) error {
	if table == "" {
		table = DefaultTable
	}
	if !tableNameRe.MatchString(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %q (
  id UUID PRIMARY KEY,
  image_key TEXT NOT NULL,
  sign_description TEXT NOT NULL,
  context TEXT NOT NULL,
  precaution_warning TEXT NOT NULL,
  "timestamp" VARCHAR(32) NOT NULL
)`, table)
	if _, err := db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %q ON %q ("timestamp" DESC)`, table+"_ts_idx", table)
	if _, err := db.ExecContext(ctx, idx); err != nil {
		return fmt.Errorf("create index on %s: %w", table, err)
	}
	return nil
}
