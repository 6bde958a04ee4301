package repository

import (
	"context"
	"testing"
	"time"

	"github.com/Beveren-Software-Inc/klikpos-core/internal/domain/entity"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIdempotencyRepository_ReserveReturnsHolder(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIdempotencyRepository(db)
	terminalID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "idempotency_keys" WHERE \(terminal_id = \$1 AND key = \$2\) AND expires_at < \$3`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO "idempotency_keys" .* ON CONFLICT \("terminal_id","key"\) DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT \* FROM "idempotency_keys" WHERE terminal_id = \$1 AND key = \$2`).
		WillReturnRows(sqlmock.NewRows([]string{"key", "terminal_id", "response_code", "response_body"}).
			AddRow("ret-1", terminalID, 201, `{"success":true}`))
	mock.ExpectCommit()

	held, err := repo.Reserve(context.Background(), &entity.IdempotencyKey{
		Key:        "ret-1",
		TerminalID: terminalID,
		Endpoint:   "POST /api/v1/returns/invoices/:id/submit",
		ExpiresAt:  time.Now().Add(time.Minute),
	})
	require.NoError(t, err)
	require.NotNil(t, held)
	assert.False(t, held.IsPending())
	assert.Equal(t, 201, held.ResponseCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepository_ReleaseOnlyDropsPending(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIdempotencyRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "idempotency_keys" WHERE \(terminal_id = \$1 AND key = \$2\) AND response_code = \$3`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Release(context.Background(), &entity.IdempotencyKey{Key: "ret-1", TerminalID: uuid.New()})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyRepository_DeleteExpiredReportsCount(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewIdempotencyRepository(db)
	cutoff := time.Date(2026, 1, 2, 3, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "idempotency_keys" WHERE expires_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))
	mock.ExpectCommit()

	n, err := repo.DeleteExpired(context.Background(), cutoff)
	require.NoError(t, err)
	assert.EqualValues(t, 7, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
