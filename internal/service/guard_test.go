package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campreserve/enrollment-scheduler/internal/cache"
	"github.com/campreserve/enrollment-scheduler/internal/model"
	"github.com/campreserve/enrollment-scheduler/internal/repository"
)

var availabilityCols = []string{
	"id", "kind", "facility_enrollment_id", "week_id", "quarters_id",
	"class_offering_id", "capacity", "reserved", "on_hold", "updated_at",
}

func newGuard(t *testing.T) (*CapacityGuard, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	usage := NewUsageCalculator(
		repository.NewAttendeeEnrollmentRepo(db),
		repository.NewLeaderEnrollmentRepo(db),
		cache.NewMemory(),
		time.Minute,
	)
	guard := NewCapacityGuard(
		repository.NewAvailabilityRepo(db),
		repository.NewFacultyEnrollmentRepo(db),
		usage,
	)
	return guard, mock, db
}

func beginTx(t *testing.T, mock sqlmock.Sqlmock, db *sql.DB) *sql.Tx {
	t.Helper()
	mock.ExpectBegin()
	tx, err := db.Begin()
	require.NoError(t, err)
	return tx
}

func TestEnsureFactionQuartersCapacityUnlimitedWhenZero(t *testing.T) {
	guard, mock, _ := newGuard(t)
	q := &model.Quarters{ID: 3, Capacity: 0}

	// no occupancy query: zero capacity means unbounded lodging
	err := guard.EnsureFactionQuartersCapacity(context.Background(), 7, q, 0, 0)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureFactionQuartersCapacityFull(t *testing.T) {
	guard, mock, _ := newGuard(t)
	q := &model.Quarters{ID: 3, Capacity: 2}

	mock.ExpectQuery(regexp.QuoteMeta("FROM attendee_enrollments")).
		WithArgs(int64(7), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM leader_enrollments")).
		WithArgs(int64(7), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := guard.EnsureFactionQuartersCapacity(context.Background(), 7, q, 0, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrCapacityExceeded))
	assert.EqualError(t, err, "Selected quarters are already full.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureFactionQuartersCapacitySelfExclusion(t *testing.T) {
	guard, mock, _ := newGuard(t)
	q := &model.Quarters{ID: 3, Capacity: 2}

	mock.ExpectQuery(regexp.QuoteMeta("FROM attendee_enrollments")).
		WithArgs(int64(7), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("FROM leader_enrollments")).
		WithArgs(int64(7), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	// the record being updated does not count against its own move
	err := guard.EnsureFactionQuartersCapacity(context.Background(), 7, q, 55, 0)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureStaffQuartersCapacityDefaultsToOneBed(t *testing.T) {
	guard, mock, db := newGuard(t)
	tx := beginTx(t, mock, db)
	q := &model.Quarters{ID: 4, Capacity: 0}

	mock.ExpectQuery(regexp.QuoteMeta("FROM faculty_enrollments")).
		WithArgs(int64(1), int64(4), int64(0)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := guard.EnsureStaffQuartersCapacityTx(context.Background(), tx, 1, q, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrCapacityExceeded))
	assert.EqualError(t, err, "Faculty quarters are already full.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureStaffQuartersCapacityExcludesSelf(t *testing.T) {
	guard, mock, db := newGuard(t)
	tx := beginTx(t, mock, db)
	q := &model.Quarters{ID: 4, Capacity: 1}

	mock.ExpectQuery(regexp.QuoteMeta("FROM faculty_enrollments")).
		WithArgs(int64(1), int64(4), int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	err := guard.EnsureStaffQuartersCapacityTx(context.Background(), tx, 1, q, 9)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureWeekQuartersAvailableRejectsHeldWeek(t *testing.T) {
	guard, mock, db := newGuard(t)
	tx := beginTx(t, mock, db)
	q := &model.Quarters{ID: 3, Capacity: 8}

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("WEEK_QUARTERS", int64(1), int64(2), int64(3), int64(0)).
		WillReturnRows(sqlmock.NewRows(availabilityCols).
			AddRow(5, "WEEK_QUARTERS", 1, 2, 3, 0, 8, 8, 0, time.Now()))

	_, err := guard.EnsureWeekQuartersAvailableTx(context.Background(), tx, 1, 2, q)
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrAlreadyReserved))
	assert.EqualError(t, err, "Selected quarters are already reserved for this week.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureClassCapacityFull(t *testing.T) {
	guard, mock, db := newGuard(t)
	tx := beginTx(t, mock, db)
	off := &model.ClassOffering{ID: 12, MaxEnrollment: 3}

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("CLASS_SEAT", int64(0), int64(0), int64(0), int64(12)).
		WillReturnRows(sqlmock.NewRows(availabilityCols).
			AddRow(6, "CLASS_SEAT", 0, 0, 0, 12, 3, 3, 0, time.Now()))

	_, err := guard.EnsureClassCapacityTx(context.Background(), tx, off, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrCapacityExceeded))
	assert.EqualError(t, err, "This class is already at capacity.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureClassCapacityExcludeHandsBackSeat(t *testing.T) {
	guard, mock, db := newGuard(t)
	tx := beginTx(t, mock, db)
	off := &model.ClassOffering{ID: 12, MaxEnrollment: 3}

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("CLASS_SEAT", int64(0), int64(0), int64(0), int64(12)).
		WillReturnRows(sqlmock.NewRows(availabilityCols).
			AddRow(6, "CLASS_SEAT", 0, 0, 0, 12, 3, 3, 0, time.Now()))

	entry, err := guard.EnsureClassCapacityTx(context.Background(), tx, off, true)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), entry.Reserved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEnsureClassCapacityResyncsShrunkOffering(t *testing.T) {
	guard, mock, db := newGuard(t)
	tx := beginTx(t, mock, db)
	off := &model.ClassOffering{ID: 12, MaxEnrollment: 2}

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("CLASS_SEAT", int64(0), int64(0), int64(0), int64(12)).
		WillReturnRows(sqlmock.NewRows(availabilityCols).
			AddRow(6, "CLASS_SEAT", 0, 0, 0, 12, 5, 4, 0, time.Now()))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE availability SET")).
		WithArgs(uint32(2), uint32(2), uint32(0), uint64(6)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := guard.EnsureClassCapacityTx(context.Background(), tx, off, false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, repository.ErrCapacityExceeded))
	assert.NoError(t, mock.ExpectationsWereMet())
}
