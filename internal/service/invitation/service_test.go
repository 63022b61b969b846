package invitation

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	apperrors "github.com/clinicore/clinic-api/pkg/errors"
)

type fakeInvitationRepo struct {
	repository.InvitationRepository
	byID     *model.Invitation
	byToken  *model.Invitation
	created  *model.Invitation
	statuses []model.InvitationStatus
}

func (f *fakeInvitationRepo) Get(_ context.Context, _ uuid.UUID) (*model.Invitation, error) {
	if f.byID == nil {
		return nil, repository.ErrNotFound
	}
	return f.byID, nil
}

func (f *fakeInvitationRepo) Create(_ context.Context, inv *model.Invitation) error {
	inv.ID = uuid.New()
	f.created = inv
	return nil
}

func (f *fakeInvitationRepo) GetByToken(_ context.Context, _ string) (*model.Invitation, error) {
	if f.byToken == nil {
		return nil, repository.ErrNotFound
	}
	return f.byToken, nil
}

func (f *fakeInvitationRepo) UpdateStatusTx(_ context.Context, _ *sqlx.Tx, _ uuid.UUID, status model.InvitationStatus) error {
	f.statuses = append(f.statuses, status)
	return nil
}

type fakeMembershipRepo struct {
	repository.MembershipRepository
	existing *model.ClinicMembership
	created  *model.ClinicMembership
}

func (f *fakeMembershipRepo) Create(_ context.Context, _ *sqlx.Tx, m *model.ClinicMembership) error {
	m.ID = uuid.New()
	f.created = m
	return nil
}

func (f *fakeMembershipRepo) GetByClinicAndUser(_ context.Context, _, _ uuid.UUID) (*model.ClinicMembership, error) {
	if f.existing == nil {
		return nil, repository.ErrNotFound
	}
	return f.existing, nil
}

type fakePermissionRepo struct {
	repository.PermissionRepository
	granted []*model.Permission
}

func (f *fakePermissionRepo) GrantTx(_ context.Context, _ *sqlx.Tx, p *model.Permission) error {
	f.granted = append(f.granted, p)
	return nil
}

type fakeClinicRepo struct {
	repository.ClinicRepository
	clinic *model.Clinic
}

func (f *fakeClinicRepo) Get(_ context.Context, _ uuid.UUID) (*model.Clinic, error) {
	if f.clinic == nil {
		return nil, repository.ErrNotFound
	}
	return f.clinic, nil
}

type fakeOutboxRepo struct {
	repository.OutboxRepository
	events []*model.OutboxEvent
}

func (f *fakeOutboxRepo) Create(_ context.Context, evt *model.OutboxEvent) error {
	f.events = append(f.events, evt)
	return nil
}

type fakeSender struct {
	sent []*model.Invitation
}

func (f *fakeSender) SendInvitation(inv *model.Invitation, _ string) error {
	f.sent = append(f.sent, inv)
	return nil
}

type stubTxManager struct{}

func (stubTxManager) RunInTx(_ context.Context, fn func(tx *sqlx.Tx) error) error {
	return fn(nil)
}

type fixture struct {
	invitations *fakeInvitationRepo
	memberships *fakeMembershipRepo
	permissions *fakePermissionRepo
	clinics     *fakeClinicRepo
	outbox      *fakeOutboxRepo
	sender      *fakeSender
	svc         *Service
}

func newFixture() *fixture {
	f := &fixture{
		invitations: &fakeInvitationRepo{},
		memberships: &fakeMembershipRepo{},
		permissions: &fakePermissionRepo{},
		clinics:     &fakeClinicRepo{clinic: &model.Clinic{Base: model.Base{ID: uuid.New()}, Name: "Downtown Clinic"}},
		outbox:      &fakeOutboxRepo{},
		sender:      &fakeSender{},
	}
	f.svc = NewService(
		f.invitations, f.memberships, f.permissions, f.clinics,
		f.outbox, stubTxManager{}, f.sender, zerolog.Nop(),
	)
	return f
}

func pendingInvitation(t *testing.T, role model.ClinicRole, set model.PermissionSet) *model.Invitation {
	t.Helper()
	payload, err := json.Marshal(set)
	require.NoError(t, err)
	return &model.Invitation{
		Base:        model.Base{ID: uuid.New()},
		ClinicID:    uuid.New(),
		Email:       "new@clinic.test",
		Role:        role,
		Token:       "tok",
		Permissions: payload,
		Status:      model.InvitationStatusPending,
		ExpiresAt:   time.Now().Add(time.Hour),
	}
}

func TestCreate(t *testing.T) {
	t.Run("stores pending invitation and sends mail", func(t *testing.T) {
		f := newFixture()

		inv, err := f.svc.Create(context.Background(), f.clinics.clinic.ID, &model.CreateInvitationRequest{
			Email: "new@clinic.test",
			Role:  model.ClinicRoleReceptionist,
			Permissions: model.PermissionSet{
				{Module: "appointments", Action: "read"},
			},
		})
		require.NoError(t, err)

		assert.Equal(t, model.InvitationStatusPending, inv.Status)
		assert.NotEmpty(t, inv.Token)
		assert.True(t, inv.ExpiresAt.After(time.Now()))
		require.Len(t, f.sender.sent, 1)
		require.Len(t, f.outbox.events, 1)
		assert.Equal(t, model.EventInvitationSent, f.outbox.events[0].EventType)
	})

	t.Run("owner role cannot be invited", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.Create(context.Background(), f.clinics.clinic.ID, &model.CreateInvitationRequest{
			Email: "new@clinic.test",
			Role:  model.ClinicRoleOwner,
		})
		assert.Error(t, err)
	})
}

func TestAccept(t *testing.T) {
	userID := uuid.New()

	t.Run("creates membership and copies permissions", func(t *testing.T) {
		f := newFixture()
		rate := 0.15
		inv := pendingInvitation(t, model.ClinicRoleProfessional, model.PermissionSet{
			{Module: "appointments", Action: "read"},
			{Module: "appointments", Action: "write"},
		})
		inv.CommissionRate = &rate
		f.invitations.byToken = inv

		m, err := f.svc.Accept(context.Background(), inv.Token, userID)
		require.NoError(t, err)

		assert.Equal(t, inv.ClinicID, m.ClinicID)
		assert.Equal(t, userID, m.UserID)
		assert.Equal(t, model.ClinicRoleProfessional, m.Role)
		require.NotNil(t, m.CommissionRate)
		assert.Equal(t, 0.15, *m.CommissionRate)

		require.Len(t, f.permissions.granted, 2)
		assert.Equal(t, m.ID, f.permissions.granted[0].MembershipID)
		assert.Equal(t, []model.InvitationStatus{model.InvitationStatusAccepted}, f.invitations.statuses)
	})

	t.Run("expired invitation is rejected", func(t *testing.T) {
		f := newFixture()
		inv := pendingInvitation(t, model.ClinicRoleStaff, nil)
		inv.ExpiresAt = time.Now().Add(-time.Minute)
		f.invitations.byToken = inv

		_, err := f.svc.Accept(context.Background(), inv.Token, userID)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 400, appErr.StatusCode())
	})

	t.Run("revoked invitation is rejected", func(t *testing.T) {
		f := newFixture()
		inv := pendingInvitation(t, model.ClinicRoleStaff, nil)
		inv.Status = model.InvitationStatusRevoked
		f.invitations.byToken = inv

		_, err := f.svc.Accept(context.Background(), inv.Token, userID)
		assert.Error(t, err)
	})

	t.Run("existing member cannot accept", func(t *testing.T) {
		f := newFixture()
		inv := pendingInvitation(t, model.ClinicRoleStaff, nil)
		f.invitations.byToken = inv
		f.memberships.existing = &model.ClinicMembership{Base: model.Base{ID: uuid.New()}}

		_, err := f.svc.Accept(context.Background(), inv.Token, userID)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 409, appErr.StatusCode())
	})

	t.Run("unknown token is not found", func(t *testing.T) {
		f := newFixture()

		_, err := f.svc.Accept(context.Background(), "missing", userID)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 404, appErr.StatusCode())
	})
}

func TestRevoke(t *testing.T) {
	t.Run("revokes a pending invitation", func(t *testing.T) {
		f := newFixture()
		inv := pendingInvitation(t, model.ClinicRoleStaff, nil)
		f.invitations.byID = inv

		err := f.svc.Revoke(context.Background(), inv.ClinicID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, []model.InvitationStatus{model.InvitationStatusRevoked}, f.invitations.statuses)
	})

	t.Run("invitation of another clinic is not revocable through this one", func(t *testing.T) {
		f := newFixture()
		inv := pendingInvitation(t, model.ClinicRoleStaff, nil)
		f.invitations.byID = inv

		err := f.svc.Revoke(context.Background(), uuid.New(), inv.ID)

		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, 404, appErr.StatusCode())
		assert.Empty(t, f.invitations.statuses)
	})
}
