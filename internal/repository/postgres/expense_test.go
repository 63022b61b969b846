package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestExpenseRepositoryGet(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExpenseRepository(db)

	id := uuid.New()
	clinicID := uuid.New()
	due := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{
		"id", "clinic_id", "description", "amount", "category", "status",
		"due_date", "payment_date", "payment_method", "created_at", "updated_at",
	}).AddRow(id, clinicID, "office rent", int64(250000), "rent", model.ExpenseStatusPending,
		due, nil, nil, time.Now(), time.Now())

	mock.ExpectQuery("SELECT (.+) FROM expenses").WithArgs(id).WillReturnRows(rows)

	expense, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "office rent", expense.Description)
	assert.Equal(t, int64(250000), expense.Amount)
	assert.Equal(t, model.ExpenseStatusPending, expense.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepositoryGetNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExpenseRepository(db)

	id := uuid.New()
	mock.ExpectQuery("SELECT (.+) FROM expenses").
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.Get(context.Background(), id)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepositoryUpdateMissingRow(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExpenseRepository(db)

	expense := &model.Expense{
		Base:        model.Base{ID: uuid.New()},
		Description: "gone",
		Status:      model.ExpenseStatusPending,
		DueDate:     time.Now(),
	}

	mock.ExpectExec("UPDATE expenses").WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), expense)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExpenseRepositorySumPendingInRange(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewExpenseRepository(db)

	clinicID := uuid.New()
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT COALESCE").
		WithArgs(clinicID, model.ExpenseStatusPending, start, end).
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(int64(42500)))

	sum, err := repo.SumPendingInRange(context.Background(), clinicID, start, end)
	require.NoError(t, err)
	assert.Equal(t, int64(42500), sum)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManagerCommitsOnSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	txm := NewTxManager(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE expenses").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	expense := &model.Expense{
		Base:    model.Base{ID: uuid.New()},
		Status:  model.ExpenseStatusPaid,
		DueDate: time.Now(),
	}
	repo := NewExpenseRepository(db)

	err := txm.RunInTx(context.Background(), func(tx *sqlx.Tx) error {
		return repo.UpdateTx(context.Background(), tx, expense)
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManagerRollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	txm := NewTxManager(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := txm.RunInTx(context.Background(), func(tx *sqlx.Tx) error {
		return boom
	})
	assert.True(t, errors.Is(err, boom))
	assert.NoError(t, mock.ExpectationsWereMet())
}
