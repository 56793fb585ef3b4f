package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stuuu223/myquanttool/internal/store"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func auctionRows() []store.AuctionRow {
	return []store.AuctionRow{
		{
			Date:          "20240311",
			AuctionTime:   "09:20:00",
			Code:          "603607.SH",
			AuctionPrice:  12.48,
			AuctionVolume: 18400,
			AuctionChange: 0.021,
			VolumeRatio:   3.2,
		},
		{
			Date:          "20240311",
			AuctionTime:   "09:20:00",
			Code:          "600519.SH",
			AuctionPrice:  1688.00,
			AuctionVolume: 920,
			AuctionChange: -0.004,
			VolumeRatio:   0.8,
		},
	}
}

func TestInsertBatch_WritesAllRows(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuctionRepo(db, time.Second)
	rows := auctionRows()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO auction_snapshots")
	for _, row := range rows {
		prep.ExpectExec().
			WithArgs(row.Date, row.AuctionTime, row.Code, row.AuctionPrice, row.AuctionVolume, row.AuctionChange, row.VolumeRatio).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	require.NoError(t, repo.InsertBatch(context.Background(), rows))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBatch_RejectsPercentLookingChange(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuctionRepo(db, time.Second)

	rows := auctionRows()
	rows[1].AuctionChange = 2.1 // percent leaked in where a fraction belongs

	err := repo.InsertBatch(context.Background(), rows)
	assert.True(t, store.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet(), "validation must fail before any SQL runs")
}

func TestInsertBatch_RejectsNegativeVolume(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuctionRepo(db, time.Second)

	rows := auctionRows()
	rows[0].AuctionVolume = -1

	err := repo.InsertBatch(context.Background(), rows)
	assert.True(t, store.IsValidation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBatch_DuplicateKeyIsConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuctionRepo(db, time.Second)
	rows := auctionRows()[:1]

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO auction_snapshots")
	prep.ExpectExec().
		WithArgs(rows[0].Date, rows[0].AuctionTime, rows[0].Code, rows[0].AuctionPrice, rows[0].AuctionVolume, rows[0].AuctionChange, rows[0].VolumeRatio).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.InsertBatch(context.Background(), rows)
	assert.True(t, store.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBatch_EmptyIsNoop(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuctionRepo(db, time.Second)

	require.NoError(t, repo.InsertBatch(context.Background(), nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_FiltersByCode(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuctionRepo(db, time.Second)

	cols := []string{"date", "auction_time", "code", "auction_price", "auction_volume", "auction_change", "volume_ratio"}
	mock.ExpectQuery("SELECT (.+) FROM auction_snapshots").
		WithArgs("20240311", "603607.SH").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("20240311", "09:20:00", "603607.SH", 12.48, int64(18400), 0.021, 3.2))

	rows, err := repo.Query(context.Background(), "20240311", "603607.SH")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "603607.SH", rows[0].Code)
	assert.InDelta(t, 0.021, rows[0].AuctionChange, 1e-12)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestQuery_WholeDate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAuctionRepo(db, time.Second)

	cols := []string{"date", "auction_time", "code", "auction_price", "auction_volume", "auction_change", "volume_ratio"}
	mock.ExpectQuery("SELECT (.+) FROM auction_snapshots").
		WithArgs("20240311").
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("20240311", "09:15:00", "600519.SH", 1688.00, int64(920), -0.004, 0.8).
			AddRow("20240311", "09:20:00", "603607.SH", 12.48, int64(18400), 0.021, 3.2))

	rows, err := repo.Query(context.Background(), "20240311", "")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "09:15:00", rows[0].AuctionTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}
