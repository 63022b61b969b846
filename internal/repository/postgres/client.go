package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
)

func (r *clientRepository) Create(ctx context.Context, client *model.Client) error {
	query := `
		INSERT INTO clients (id, clinic_id, name, email, phone, birth_date, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	client.ID = uuid.New()
	client.CreatedAt = time.Now()
	client.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		client.ID,
		client.ClinicID,
		client.Name,
		client.Email,
		client.Phone,
		client.BirthDate,
		client.Notes,
		client.CreatedAt,
		client.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create client: %w", err)
	}
	return nil
}

func (r *clientRepository) Get(ctx context.Context, id uuid.UUID) (*model.Client, error) {
	query := `
		SELECT id, clinic_id, name, email, phone, birth_date, notes, created_at, updated_at
		FROM clients
		WHERE id = $1 AND deleted_at IS NULL
	`
	var client model.Client
	err := r.db.GetContext(ctx, &client, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &client, nil
}

func (r *clientRepository) Update(ctx context.Context, client *model.Client) error {
	query := `
		UPDATE clients
		SET name = $1, email = $2, phone = $3, birth_date = $4, notes = $5, updated_at = $6
		WHERE id = $7
	`
	client.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		client.Name,
		client.Email,
		client.Phone,
		client.BirthDate,
		client.Notes,
		client.UpdatedAt,
		client.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update client: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *clientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE clients
		SET deleted_at = $1
		WHERE id = $2 AND deleted_at IS NULL
	`
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *clientRepository) ListByClinic(ctx context.Context, clinicID uuid.UUID, search string) ([]*model.Client, error) {
	query := `
		SELECT id, clinic_id, name, email, phone, birth_date, notes, created_at, updated_at
		FROM clients
		WHERE clinic_id = $1 AND deleted_at IS NULL
	`
	args := []interface{}{clinicID}
	if search != "" {
		query += ` AND (name ILIKE $2 OR email ILIKE $2)`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY name ASC`

	var clients []*model.Client
	err := r.db.SelectContext(ctx, &clients, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	return clients, nil
}
