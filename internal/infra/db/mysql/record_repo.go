package mysql

import (
	"context"
	"database/sql"
	"fmt"

	domain "github.com/bryanwahyu/traffic-sign-indicator/internal/domain/signs"
)

// RecordRepository appends analysis records to a MySQL table.
type RecordRepository struct {
	db    *sql.DB
	table string
}

func NewRecordRepository(db *sql.DB, table string) (*RecordRepository, error) {
	if table == "" {
		table = DefaultTable
	}
	if !validTableName(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &RecordRepository{db: db, table: table}, nil
}

// Put inserts one record. No upsert: repeated analyses produce new rows.
func (r *RecordRepository) Put(ctx context.Context, rec domain.AnalysisRecord) error {
	q := fmt.Sprintf("INSERT INTO `%s` (id, image_key, sign_description, context, precaution_warning, `timestamp`) VALUES (?,?,?,?,?,?)", r.table)
	_, err := r.db.ExecContext(ctx, q,
		rec.ID,
		rec.ImageKey,
		rec.SignDescription,
		rec.Context,
		rec.PrecautionWarning,
		rec.TimestampString(),
	)
	if err != nil {
		return fmt.Errorf("insert analysis record: %w", err)
	}
	return nil
}

// Latest returns a page of records ordered by timestamp desc
func (r *RecordRepository) Latest(ctx context.Context, page, pageSize int) ([]domain.AnalysisRecord, error) {
	page, pageSize = normalizePage(page, pageSize)
	offset := (page - 1) * pageSize

	q := fmt.Sprintf("SELECT id, image_key, sign_description, context, precaution_warning, `timestamp` FROM `%s` ORDER BY `timestamp` DESC, id DESC LIMIT ? OFFSET ?", r.table)
	rows, err := r.db.QueryContext(ctx, q, pageSize, offset)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	out := []domain.AnalysisRecord{}
	for rows.Next() {
		var rec domain.AnalysisRecord
		var ts string
		if err := rows.Scan(&rec.ID, &rec.ImageKey, &rec.SignDescription, &rec.Context, &rec.PrecautionWarning, &ts); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		if t, err := domain.ParseTimestamp(ts); err == nil {
			rec.Timestamp = t
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Check pings the database for the health endpoint.
func (r *RecordRepository) Check(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
