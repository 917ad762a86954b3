package mysql

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/traffic-sign-indicator/internal/domain/signs"
)

func testRecord() domain.AnalysisRecord {
	return domain.AnalysisRecord{
		ID:                "5f0c6d1e-0000-4000-8000-000000000001",
		ImageKey:          "inputs/image-1.jpg",
		SignDescription:   "Stop",
		Context:           "rainy, 60 km/h",
		PrecautionWarning: "",
		Timestamp:         time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestRecordRepository_Put(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo, err := NewRecordRepository(db, "")
	require.NoError(t, err)

	rec := testRecord()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `traffic_sign_recommendations` (id, image_key, sign_description, context, precaution_warning, `timestamp`) VALUES (?,?,?,?,?,?)")).
		WithArgs(rec.ID, rec.ImageKey, rec.SignDescription, rec.Context, "", "2024-05-01T10:00:00.000000Z").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Put(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_PutWritesFieldsVerbatim(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo, err := NewRecordRepository(db, "")
	require.NoError(t, err)

	rec := testRecord()
	rec.ImageKey = "  "
	mock.ExpectExec("INSERT INTO `traffic_sign_recommendations`").
		WithArgs(rec.ID, "  ", rec.SignDescription, rec.Context, "", "2024-05-01T10:00:00.000000Z").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Put(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_PutError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo, err := NewRecordRepository(db, "signs")
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO `signs`").WillReturnError(errors.New("deadlock"))
	err = repo.Put(context.Background(), testRecord())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock")
}

func TestRecordRepository_Latest(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo, err := NewRecordRepository(db, "")
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "image_key", "sign_description", "context", "precaution_warning", "timestamp"}).
		AddRow("b", "inputs/image-2.png", "Yield", "dry", "Give way.", "2024-05-02T10:00:00.000000Z").
		AddRow("a", "inputs/image-1.jpg", "Stop", "rainy", "", "2024-05-01T10:00:00.000000Z")
	mock.ExpectQuery("SELECT id, image_key").WithArgs(20, 0).WillReturnRows(rows)

	got, err := repo.Latest(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, 2024, got[0].Timestamp.Year())
	assert.Equal(t, "", got[1].PrecautionWarning)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordRepository_LatestPaging(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo, _ := NewRecordRepository(db, "")
	mock.ExpectQuery("SELECT id, image_key").WithArgs(100, 200).
		WillReturnRows(sqlmock.NewRows([]string{"id", "image_key", "sign_description", "context", "precaution_warning", "timestamp"}))

	got, err := repo.Latest(context.Background(), 3, 500)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewRecordRepository_RejectsBadTable(t *testing.T) {
	_, err := NewRecordRepository(nil, "x; DROP TABLE y")
	assert.Error(t, err)
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS `traffic_sign_recommendations`").WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, Migrate(context.Background(), db, ""))
	assert.NoError(t, mock.ExpectationsWereMet())
}
