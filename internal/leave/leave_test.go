package leave

import (
	"database/sql"
	"testing"
	"time"

	"pms-service/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", value)
	require.NoError(t, err)
	return parsed
}

func TestTotalDays(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		want    int
		wantErr bool
	}{
		{name: "five day span", start: "2025-01-01", end: "2025-01-05", want: 5},
		{name: "single day", start: "2025-02-10", end: "2025-02-10", want: 1},
		{name: "three day span", start: "2025-03-10", end: "2025-03-12", want: 3},
		{name: "across month boundary", start: "2025-01-30", end: "2025-02-02", want: 4},
		{name: "end before start", start: "2025-01-05", end: "2025-01-01", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := TotalDays(date(t, tt.start), date(t, tt.end))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRange)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func newMockService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	return NewService(gdb), mock
}

func TestApproveTransitionsPendingRequest(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectExec(`UPDATE "leave_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM "leave_requests"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "status", "total_days"}).
			AddRow(7, 3, "approved", 3))

	req, err := svc.Approve(7, 12)
	require.NoError(t, err)
	assert.Equal(t, model.LeaveApproved, req.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveAlreadyDecidedFailsNotPending(t *testing.T) {
	svc, mock := newMockService(t)

	// Conditional update matches nothing because status is no longer pending.
	mock.ExpectExec(`UPDATE "leave_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT (.+) FROM "leave_requests"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "status"}).
			AddRow(7, 3, "rejected"))

	_, err := svc.Approve(7, 12)
	assert.ErrorIs(t, err, ErrNotPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApproveUnknownRequestFailsNotFound(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectExec(`UPDATE "leave_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT (.+) FROM "leave_requests"`).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Approve(404, 12)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRejectStoresReason(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectExec(`UPDATE "leave_requests" SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(`SELECT (.+) FROM "leave_requests"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "status", "rejection_reason"}).
			AddRow(9, 3, "rejected", "insufficient notice"))

	req, err := svc.Reject(9, 12, "insufficient notice")
	require.NoError(t, err)
	assert.Equal(t, model.LeaveRejected, req.Status)
	assert.Equal(t, "insufficient notice", req.RejectionReason)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubmitRejectsInvalidRange(t *testing.T) {
	svc, _ := newMockService(t)

	_, err := svc.Submit(1, model.LeaveTypeSick, date(t, "2025-03-12"), date(t, "2025-03-10"), "flu")
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestSubmitComputesTotalDays(t *testing.T) {
	svc, mock := newMockService(t)

	mock.ExpectQuery(`INSERT INTO "leave_requests"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

	req, err := svc.Submit(1, model.LeaveTypeSick, date(t, "2025-03-10"), date(t, "2025-03-12"), "flu")
	require.NoError(t, err)
	assert.Equal(t, 3, req.TotalDays)
	assert.Equal(t, model.LeavePending, req.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
