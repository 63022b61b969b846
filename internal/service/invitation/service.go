package invitation

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinic-api/internal/email"
	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/internal/service/event"
	"github.com/clinicore/clinic-api/pkg/errors"
	"github.com/clinicore/clinic-api/pkg/validator"
)

const invitationTTL = 7 * 24 * time.Hour

// validate covers permission grants decoded from stored invitation rows,
// which never pass through gin's request binding.
var validate = validator.New()

type Service struct {
	invitations repository.InvitationRepository
	memberships repository.MembershipRepository
	permissions repository.PermissionRepository
	clinics     repository.ClinicRepository
	outbox      repository.OutboxRepository
	txm         repository.TxManager
	sender      email.Sender
	logger      zerolog.Logger
}

func NewService(
	invitations repository.InvitationRepository,
	memberships repository.MembershipRepository,
	permissions repository.PermissionRepository,
	clinics repository.ClinicRepository,
	outbox repository.OutboxRepository,
	txm repository.TxManager,
	sender email.Sender,
	logger zerolog.Logger,
) *Service {
	return &Service{
		invitations: invitations,
		memberships: memberships,
		permissions: permissions,
		clinics:     clinics,
		outbox:      outbox,
		txm:         txm,
		sender:      sender,
		logger:      logger,
	}
}

// Create stores a pending invitation with an opaque token and emails it.
// A mail delivery failure does not roll the invitation back; the token can
// be re-sent later.
func (s *Service) Create(ctx context.Context, clinicID uuid.UUID, req *model.CreateInvitationRequest) (*model.Invitation, error) {
	if !req.Role.Valid() {
		return nil, errors.BadRequest("invalid role", nil)
	}
	if req.Role == model.ClinicRoleOwner {
		return nil, errors.BadRequest("ownership cannot be granted by invitation", nil)
	}

	clinic, err := s.clinics.Get(ctx, clinicID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("clinic", err)
		}
		return nil, fmt.Errorf("failed to get clinic: %w", err)
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	permissions, err := json.Marshal(req.Permissions)
	if err != nil {
		return nil, fmt.Errorf("failed to encode permissions: %w", err)
	}

	inv := &model.Invitation{
		ClinicID:       clinicID,
		Email:          req.Email,
		Role:           req.Role,
		Token:          token,
		Permissions:    permissions,
		Status:         model.InvitationStatusPending,
		ExpiresAt:      time.Now().Add(invitationTTL),
		CommissionRate: req.CommissionRate,
	}
	if err := s.invitations.Create(ctx, inv); err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	evt, err := event.New(model.EventInvitationSent, inv)
	if err != nil {
		return nil, err
	}
	if err := s.outbox.Create(ctx, evt); err != nil {
		s.logger.Error().Err(err).Str("invitation_id", inv.ID.String()).Msg("failed to enqueue invitation event")
	}

	if err := s.sender.SendInvitation(inv, clinic.Name); err != nil {
		s.logger.Error().Err(err).Str("invitation_id", inv.ID.String()).Msg("invitation mail delivery failed")
	}

	return inv, nil
}

func (s *Service) ListByClinic(ctx context.Context, clinicID uuid.UUID) ([]*model.Invitation, error) {
	invitations, err := s.invitations.ListByClinic(ctx, clinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invitations, nil
}

// Accept redeems a pending invitation for userID. The membership, its
// permission rows copied from the invitation, and the status flip to
// ACCEPTED are one transaction.
func (s *Service) Accept(ctx context.Context, token string, userID uuid.UUID) (*model.ClinicMembership, error) {
	inv, err := s.invitations.GetByToken(ctx, token)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, errors.NotFound("invitation", err)
		}
		return nil, fmt.Errorf("failed to get invitation: %w", err)
	}

	if inv.Status != model.InvitationStatusPending {
		return nil, errors.BadRequest("invitation is no longer pending", nil)
	}
	if time.Now().After(inv.ExpiresAt) {
		return nil, errors.BadRequest("invitation has expired", nil)
	}

	if _, err := s.memberships.GetByClinicAndUser(ctx, inv.ClinicID, userID); err == nil {
		return nil, errors.Conflict("user is already a member of this clinic")
	} else if !stderrors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}

	set, err := inv.PermissionSet()
	if err != nil {
		return nil, errors.BadRequest("invitation carries malformed permissions", err)
	}
	for _, grant := range set {
		if err := validate.Validate(grant); err != nil {
			return nil, errors.BadRequest("invitation carries malformed permissions", err)
		}
	}

	m := &model.ClinicMembership{
		ClinicID:       inv.ClinicID,
		UserID:         userID,
		Role:           inv.Role,
		CommissionRate: inv.CommissionRate,
	}

	err = s.txm.RunInTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.memberships.Create(ctx, tx, m); err != nil {
			return fmt.Errorf("failed to create membership: %w", err)
		}
		for _, grant := range set {
			p := &model.Permission{
				MembershipID: m.ID,
				Module:       grant.Module,
				Action:       grant.Action,
			}
			if err := s.permissions.GrantTx(ctx, tx, p); err != nil {
				return fmt.Errorf("failed to copy permission: %w", err)
			}
		}
		return s.invitations.UpdateStatusTx(ctx, tx, inv.ID, model.InvitationStatusAccepted)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("invitation_id", inv.ID.String()).
		Str("membership_id", m.ID.String()).
		Msg("invitation accepted")

	return m, nil
}

// Revoke marks a pending invitation REVOKED so its token stops working.
// Invitations of other clinics are reported as not found.
func (s *Service) Revoke(ctx context.Context, clinicID, id uuid.UUID) error {
	inv, err := s.invitations.Get(ctx, id)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("invitation", err)
		}
		return fmt.Errorf("failed to get invitation: %w", err)
	}
	if inv.ClinicID != clinicID {
		return errors.NotFound("invitation", nil)
	}

	err = s.txm.RunInTx(ctx, func(tx *sqlx.Tx) error {
		return s.invitations.UpdateStatusTx(ctx, tx, id, model.InvitationStatusRevoked)
	})
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return errors.NotFound("invitation", err)
		}
		return fmt.Errorf("failed to revoke invitation: %w", err)
	}
	return nil
}

func newToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
