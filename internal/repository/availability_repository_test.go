package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campreserve/enrollment-scheduler/internal/model"
)

var availabilityCols = []string{
	"id", "kind", "facility_enrollment_id", "week_id", "quarters_id",
	"class_offering_id", "capacity", "reserved", "on_hold", "updated_at",
}

func newMockTx(t *testing.T) (*AvailabilityRepo, sqlmock.Sqlmock, *sql.Tx) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)
	return NewAvailabilityRepo(db), mock, tx
}

func TestGetOrCreateForUpdateTxCreatesLazily(t *testing.T) {
	repo, mock, tx := newMockTx(t)
	key := model.ClassSeatKey(42)

	// absent key components bind as zero so the unique index can reject
	// a concurrent duplicate insert
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("CLASS_SEAT", int64(0), int64(0), int64(0), int64(42)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO availability")).
		WithArgs("CLASS_SEAT", int64(0), int64(0), int64(0), int64(42), uint32(12)).
		WillReturnResult(sqlmock.NewResult(7, 1))

	entry, err := repo.GetOrCreateForUpdateTx(context.Background(), tx, key, 12)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), entry.ID)
	assert.Equal(t, key, entry.Key)
	assert.Equal(t, uint32(12), entry.Capacity)
	assert.Equal(t, uint32(0), entry.Reserved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCreateForUpdateTxLosesInsertRace(t *testing.T) {
	repo, mock, tx := newMockTx(t)
	key := model.WeekQuartersKey(1, 2, 3)

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("WEEK_QUARTERS", int64(1), int64(2), int64(3), int64(0)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO availability")).
		WithArgs("WEEK_QUARTERS", int64(1), int64(2), int64(3), int64(0), uint32(8)).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "duplicate"})
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("WEEK_QUARTERS", int64(1), int64(2), int64(3), int64(0)).
		WillReturnRows(sqlmock.NewRows(availabilityCols).
			AddRow(9, "WEEK_QUARTERS", 1, 2, 3, 0, 8, 8, 0, time.Now()))

	entry, err := repo.GetOrCreateForUpdateTx(context.Background(), tx, key, 8)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), entry.ID)
	assert.True(t, entry.IsReserved())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveTxFailsPastCapacity(t *testing.T) {
	repo, mock, tx := newMockTx(t)
	entry := &model.Availability{ID: 1, Capacity: 10, Reserved: 10}

	err := repo.ReserveTx(context.Background(), tx, entry, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCapacityExceeded))
	assert.EqualError(t, err, "Capacity exceeded for this resource.")
	assert.Equal(t, uint32(10), entry.Reserved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveTxWritesCounters(t *testing.T) {
	repo, mock, tx := newMockTx(t)
	entry := &model.Availability{ID: 3, Capacity: 10, Reserved: 4}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE availability SET")).
		WithArgs(uint32(10), uint32(5), uint32(0), uint64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ReserveTx(context.Background(), tx, entry, 1))
	assert.Equal(t, uint32(5), entry.Reserved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseTxFloorsAtZero(t *testing.T) {
	repo, mock, tx := newMockTx(t)
	entry := &model.Availability{ID: 4, Capacity: 10, Reserved: 0}

	// no UPDATE expected: releasing an empty entry is a no-op
	require.NoError(t, repo.ReleaseTx(context.Background(), tx, entry, 3))
	assert.Equal(t, uint32(0), entry.Reserved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseTxDoesNotUnderflow(t *testing.T) {
	repo, mock, tx := newMockTx(t)
	entry := &model.Availability{ID: 4, Capacity: 10, Reserved: 2}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE availability SET")).
		WithArgs(uint32(10), uint32(0), uint32(0), uint64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ReleaseTx(context.Background(), tx, entry, 5))
	assert.Equal(t, uint32(0), entry.Reserved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveFullTxMutualExclusion(t *testing.T) {
	repo, mock, tx := newMockTx(t)
	free := &model.Availability{ID: 5, Capacity: 6, Reserved: 0}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE availability SET")).
		WithArgs(uint32(6), uint32(6), uint32(0), uint64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ReserveFullTx(context.Background(), tx, free))
	assert.True(t, free.IsReserved())

	err := repo.ReserveFullTx(context.Background(), tx, free)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyReserved))
	assert.EqualError(t, err, "Selected quarters are already reserved for this week.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserveFullTxZeroCapacityIsAlwaysReserved(t *testing.T) {
	repo, mock, tx := newMockTx(t)
	entry := &model.Availability{ID: 6, Capacity: 0, Reserved: 0}

	err := repo.ReserveFullTx(context.Background(), tx, entry)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAlreadyReserved))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseFullTxIdempotent(t *testing.T) {
	repo, mock, tx := newMockTx(t)
	entry := &model.Availability{ID: 7, Capacity: 6, Reserved: 6}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE availability SET")).
		WithArgs(uint32(6), uint32(0), uint32(0), uint64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ReleaseFullTx(context.Background(), tx, entry))
	// second release is a no-op, no further UPDATE
	require.NoError(t, repo.ReleaseFullTx(context.Background(), tx, entry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureCapacityTxRejectsZero(t *testing.T) {
	repo, mock, tx := newMockTx(t)
	entry := &model.Availability{ID: 8, Capacity: 4, Reserved: 1}

	err := repo.EnsureCapacityTx(context.Background(), tx, entry, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidCapacity))
	assert.EqualError(t, err, "Capacity must be greater than zero.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureCapacityTxClampsReservedOnShrink(t *testing.T) {
	repo, mock, tx := newMockTx(t)
	entry := &model.Availability{ID: 9, Capacity: 10, Reserved: 8}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE availability SET")).
		WithArgs(uint32(5), uint32(5), uint32(0), uint64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.EnsureCapacityTx(context.Background(), tx, entry, 5))
	assert.Equal(t, uint32(5), entry.Capacity)
	assert.Equal(t, uint32(5), entry.Reserved)

	// unchanged capacity writes nothing
	require.NoError(t, repo.EnsureCapacityTx(context.Background(), tx, entry, 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByKeyNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewAvailabilityRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM availability")).
		WithArgs("CLASS_SEAT", int64(0), int64(0), int64(0), int64(1)).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByKey(context.Background(), model.ClassSeatKey(1))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemainingNeverNegative(t *testing.T) {
	a := &model.Availability{Capacity: 4, Reserved: 3, OnHold: 3}
	assert.Equal(t, uint32(0), a.Remaining())
	a.OnHold = 0
	assert.Equal(t, uint32(1), a.Remaining())
}
