package account

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
)

type fakeAccountRepo struct {
	repository.AccountRepository
	account  *model.Account
	deleted  []uuid.UUID
	defaults []uuid.UUID
}

func (f *fakeAccountRepo) Get(_ context.Context, _ uuid.UUID) (*model.Account, error) {
	if f.account == nil {
		return nil, repository.ErrNotFound
	}
	return f.account, nil
}

func (f *fakeAccountRepo) Update(_ context.Context, _ *model.Account) error {
	return nil
}

func (f *fakeAccountRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeAccountRepo) SetDefault(_ context.Context, _ *sqlx.Tx, _, accountID uuid.UUID) error {
	f.defaults = append(f.defaults, accountID)
	return nil
}

type stubTxManager struct{}

func (stubTxManager) RunInTx(_ context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

func clinicAccount(clinicID uuid.UUID) *model.Account {
	return &model.Account{
		Base:     model.Base{ID: uuid.New()},
		ClinicID: clinicID,
		Name:     "Checking",
		Balance:  10_000,
	}
}

func TestGet(t *testing.T) {
	clinicID := uuid.New()

	t.Run("returns the clinic's account", func(t *testing.T) {
		accounts := &fakeAccountRepo{account: clinicAccount(clinicID)}
		svc := NewService(accounts, stubTxManager{}, zerolog.Nop())

		got, err := svc.Get(context.Background(), clinicID, accounts.account.ID)
		require.NoError(t, err)
		assert.Equal(t, accounts.account.ID, got.ID)
	})

	t.Run("account of another clinic is not found", func(t *testing.T) {
		accounts := &fakeAccountRepo{account: clinicAccount(uuid.New())}
		svc := NewService(accounts, stubTxManager{}, zerolog.Nop())

		_, err := svc.Get(context.Background(), clinicID, accounts.account.ID)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 404, appErr.StatusCode())
	})
}

func TestDelete(t *testing.T) {
	clinicID := uuid.New()

	t.Run("deletes the clinic's account", func(t *testing.T) {
		accounts := &fakeAccountRepo{account: clinicAccount(clinicID)}
		svc := NewService(accounts, stubTxManager{}, zerolog.Nop())

		err := svc.Delete(context.Background(), clinicID, accounts.account.ID)
		require.NoError(t, err)
		assert.Len(t, accounts.deleted, 1)
	})

	t.Run("account of another clinic is not deletable through this one", func(t *testing.T) {
		accounts := &fakeAccountRepo{account: clinicAccount(uuid.New())}
		svc := NewService(accounts, stubTxManager{}, zerolog.Nop())

		err := svc.Delete(context.Background(), clinicID, accounts.account.ID)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 404, appErr.StatusCode())
		assert.Empty(t, accounts.deleted)
	})
}

func TestUpdate(t *testing.T) {
	clinicID := uuid.New()

	t.Run("making an account default clears the previous one", func(t *testing.T) {
		accounts := &fakeAccountRepo{account: clinicAccount(clinicID)}
		svc := NewService(accounts, stubTxManager{}, zerolog.Nop())

		makeDefault := true
		got, err := svc.Update(context.Background(), clinicID, accounts.account.ID, &model.UpdateAccountRequest{
			IsDefault: &makeDefault,
		})
		require.NoError(t, err)
		assert.True(t, got.IsDefault)
		assert.Equal(t, []uuid.UUID{accounts.account.ID}, accounts.defaults)
	})

	t.Run("account of another clinic is not updatable through this one", func(t *testing.T) {
		accounts := &fakeAccountRepo{account: clinicAccount(uuid.New())}
		svc := NewService(accounts, stubTxManager{}, zerolog.Nop())

		name := "Renamed"
		_, err := svc.Update(context.Background(), clinicID, accounts.account.ID, &model.UpdateAccountRequest{
			Name: &name,
		})

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 404, appErr.StatusCode())
		assert.Empty(t, accounts.defaults)
	})
}
