package client

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

type Service struct {
	clients repository.ClientRepository
	logger  zerolog.Logger
}

func NewService(clients repository.ClientRepository, logger zerolog.Logger) *Service {
	return &Service{clients: clients, logger: logger}
}

func (s *Service) Create(ctx context.Context, clinicID uuid.UUID, req *model.CreateClientRequest) (*model.Client, error) {
	client := &model.Client{
		ClinicID:  clinicID,
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		BirthDate: req.BirthDate,
		Notes:     req.Notes,
	}
	if err := s.clients.Create(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return client, nil
}

// Get loads a client record and verifies it belongs to clinicID; records
// of other clinics are reported as not found.
func (s *Service) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Client, error) {
	client, err := s.clients.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("client", err)
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	if client.ClinicID != clinicID {
		return nil, errors.NotFound("client", nil)
	}
	return client, nil
}

func (s *Service) List(ctx context.Context, clinicID uuid.UUID, search string) ([]*model.Client, error) {
	clients, err := s.clients.ListByClinic(ctx, clinicID, search)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}

func (s *Service) Update(ctx context.Context, clinicID, id uuid.UUID, req *model.UpdateClientRequest) (*model.Client, error) {
	client, err := s.Get(ctx, clinicID, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		client.Name = *req.Name
	}
	if req.Email != nil {
		client.Email = *req.Email
	}
	if req.Phone != nil {
		client.Phone = *req.Phone
	}
	if req.BirthDate != nil {
		client.BirthDate = req.BirthDate
	}
	if req.Notes != nil {
		client.Notes = *req.Notes
	}

	if err := s.clients.Update(ctx, client); err != nil {
		return nil, fmt.Errorf("failed to update client: %w", err)
	}
	return client, nil
}

func (s *Service) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	if _, err := s.Get(ctx, clinicID, id); err != nil {
		return err
	}
	if err := s.clients.Delete(ctx, id); err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("client", err)
		}
		return fmt.Errorf("failed to delete client: %w", err)
	}
	return nil
}
