package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campreserve/enrollment-scheduler/internal/cache"
	"github.com/campreserve/enrollment-scheduler/internal/repository"
)

func newUsageCalc(t *testing.T) (*UsageCalculator, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	calc := NewUsageCalculator(
		repository.NewAttendeeEnrollmentRepo(db),
		repository.NewLeaderEnrollmentRepo(db),
		cache.NewMemory(),
		time.Minute,
	)
	return calc, mock
}

func expectCounts(mock sqlmock.Sqlmock, attendees, leaders int) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendee_enrollments")).
		WithArgs(int64(7), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(attendees))
	mock.ExpectQuery(regexp.QuoteMeta("FROM leader_enrollments")).
		WithArgs(int64(7), int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(leaders))
}

func TestUsageSumsAttendeesAndLeaders(t *testing.T) {
	calc, mock := newUsageCalc(t)
	expectCounts(mock, 4, 2)

	n, err := calc.Usage(context.Background(), 7, 3, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageServesSecondReadFromCache(t *testing.T) {
	calc, mock := newUsageCalc(t)
	expectCounts(mock, 4, 2)

	_, err := calc.Usage(context.Background(), 7, 3, 0, 0)
	require.NoError(t, err)

	// no further queries expected; the cached raw count answers this
	n, err := calc.Usage(context.Background(), 7, 3, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsageExclusionsApplyAfterCachedRead(t *testing.T) {
	calc, mock := newUsageCalc(t)
	expectCounts(mock, 1, 0)

	// prime the cache with raw count 1
	_, err := calc.Usage(context.Background(), 7, 3, 0, 0)
	require.NoError(t, err)

	// excluding one attendee and one leader floors at zero
	n, err := calc.Usage(context.Background(), 7, 3, 11, 12)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvalidateForcesRecount(t *testing.T) {
	calc, mock := newUsageCalc(t)
	expectCounts(mock, 1, 1)

	_, err := calc.Usage(context.Background(), 7, 3, 0, 0)
	require.NoError(t, err)

	require.NoError(t, calc.Invalidate(context.Background(), 7, 3))

	expectCounts(mock, 2, 1)
	n, err := calc.Usage(context.Background(), 7, 3, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
