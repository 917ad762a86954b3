package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the records table when it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB, table string) error {
	if table == "" {
		table = DefaultTable
	}
	if !validTableName(table) {
		return fmt.Errorf("invalid table name %q", table)
	}
	q := fmt.Sprintf("CREATE TABLE IF NOT EXISTS `%s` ("+
		"id CHAR(36) NOT NULL PRIMARY KEY,"+
		" image_key VARCHAR(1024) NOT NULL,"+
		" sign_description TEXT NOT NULL,"+
		" context VARCHAR(1024) NOT NULL,"+
		" precaution_warning TEXT NOT NULL,"+
		" `timestamp` VARCHAR(32) NOT NULL,"+
		" INDEX idx_timestamp (`timestamp`),"+
		" INDEX idx_image_key (image_key(255))"+
		") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4", table)
	if _, err := db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create table %s: %w", table, err)
	}
	return nil
}
