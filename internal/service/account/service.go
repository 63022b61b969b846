package account

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/pkg/errors"
)

type Service struct {
	accounts repository.AccountRepository
	txm      repository.TxManager
	logger   zerolog.Logger
}

func NewService(accounts repository.AccountRepository, txm repository.TxManager, logger zerolog.Logger) *Service {
	return &Service{accounts: accounts, txm: txm, logger: logger}
}

func (s *Service) Create(ctx context.Context, clinicID uuid.UUID, req *model.CreateAccountRequest) (*model.Account, error) {
	account := &model.Account{
		ClinicID:  clinicID,
		Name:      req.Name,
		Balance:   req.Balance,
		IsDefault: req.IsDefault,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	if req.IsDefault {
		if err := s.makeDefault(ctx, clinicID, account.ID); err != nil {
			return nil, err
		}
	}
	return account, nil
}

// Get loads an account and verifies it belongs to clinicID; accounts of
// other clinics are reported as not found.
func (s *Service) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Account, error) {
	account, err := s.accounts.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("account", err)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	if account.ClinicID != clinicID {
		return nil, errors.NotFound("account", nil)
	}
	return account, nil
}

func (s *Service) List(ctx context.Context, clinicID uuid.UUID) ([]*model.Account, error) {
	accounts, err := s.accounts.ListByClinic(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

func (s *Service) Update(ctx context.Context, clinicID, id uuid.UUID, req *model.UpdateAccountRequest) (*model.Account, error) {
	account, err := s.Get(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		account.Name = *req.Name
		if err := s.accounts.Update(ctx, account); err != nil {
			return nil, fmt.Errorf("failed to update account: %w", err)
		}
	}

	if req.IsDefault != nil && *req.IsDefault && !account.IsDefault {
		if err := s.makeDefault(ctx, account.ClinicID, account.ID); err != nil {
			return nil, err
		}
		account.IsDefault = true
	}

	return account, nil
}

func (s *Service) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	if _, err := s.Get(ctx, clinicID, id); err != nil {
		return err
	}
	if err := s.accounts.Delete(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("account", err)
		}
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

// makeDefault clears the previous default and sets the new one in a single
// transaction so the clinic never observes two defaults.
func (s *Service) makeDefault(ctx context.Context, clinicID, accountID uuid.UUID) error {
	err := s.txm.RunInTx(ctx, func(tx *sqlx.Tx) error {
		return s.accounts.SetDefault(ctx, tx, clinicID, accountID)
	})
	if err != nil {
		return fmt.Errorf("failed to set default account: %w", err)
	}
	return nil
}
