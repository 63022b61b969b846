package budget

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/pkg/errors"
)

// Service covers budgets and financial goals, both plain period-scoped
// targets with no derived state.
type Service struct {
	budgets repository.BudgetRepository
	goals   repository.FinancialGoalRepository
	logger  zerolog.Logger
}

func NewService(budgets repository.BudgetRepository, goals repository.FinancialGoalRepository, logger zerolog.Logger) *Service {
	return &Service{budgets: budgets, goals: goals, logger: logger}
}

func (s *Service) CreateBudget(ctx context.Context, clinicID uuid.UUID, req *model.CreateBudgetRequest) (*model.Budget, error) {
	exists, err := s.budgets.ExistsForMonth(ctx, clinicID, req.Year, req.Month)
	if err != nil {
		return nil, fmt.Errorf("failed to check budget: %w", err)
	}
	if exists {
		return nil, errors.BadRequest("budget already exists for this month", nil)
	}

	budget := &model.Budget{
		ClinicID: clinicID,
		Year:     req.Year,
		Month:    req.Month,
		Amount:   req.Amount,
		Category: req.Category,
	}
	if err := s.budgets.Create(ctx, budget); err != nil {
		return nil, fmt.Errorf("failed to create budget: %w", err)
	}
	return budget, nil
}

// GetBudget loads a budget and verifies it belongs to clinicID; budgets
// of other clinics are reported as not found.
func (s *Service) GetBudget(ctx context.Context, clinicID, id uuid.UUID) (*model.Budget, error) {
	budget, err := s.budgets.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("budget", err)
		}
		return nil, fmt.Errorf("failed to get budget: %w", err)
	}
	if budget.ClinicID != clinicID {
		return nil, errors.NotFound("budget", nil)
	}
	return budget, nil
}

func (s *Service) ListBudgets(ctx context.Context, clinicID uuid.UUID, year int) ([]*model.Budget, error) {
	budgets, err := s.budgets.ListByClinic(ctx, clinicID, year)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	return budgets, nil
}

func (s *Service) DeleteBudget(ctx context.Context, clinicID, id uuid.UUID) error {
	if _, err := s.GetBudget(ctx, clinicID, id); err != nil {
		return err
	}
	if err := s.budgets.Delete(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("budget", err)
		}
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	return nil
}

func (s *Service) CreateGoal(ctx context.Context, clinicID uuid.UUID, req *model.CreateFinancialGoalRequest) (*model.FinancialGoal, error) {
	goal := &model.FinancialGoal{
		ClinicID:    clinicID,
		Name:        req.Name,
		TargetValue: req.TargetValue,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if err := s.goals.Create(ctx, goal); err != nil {
		return nil, fmt.Errorf("failed to create goal: %w", err)
	}
	return goal, nil
}

func (s *Service) ListGoals(ctx context.Context, clinicID uuid.UUID) ([]*model.FinancialGoal, error) {
	goals, err := s.goals.ListByClinic(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list goals: %w", err)
	}
	return goals, nil
}

func (s *Service) DeleteGoal(ctx context.Context, clinicID, id uuid.UUID) error {
	goal, err := s.goals.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("goal", err)
		}
		return fmt.Errorf("failed to get goal: %w", err)
	}
	if goal.ClinicID != clinicID {
		return errors.NotFound("goal", nil)
	}
	if err := s.goals.Delete(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("goal", err)
		}
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	return nil
}
