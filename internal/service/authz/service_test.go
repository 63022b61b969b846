package authz

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
)

type fakeMembershipRepo struct {
	repository.MembershipRepository
	byClinicUser map[string]*model.ClinicMembership
	calls        int
}

func membershipKey(clinicID, userID uuid.UUID) string {
	return clinicID.String() + "/" + userID.String()
}

func (f *fakeMembershipRepo) GetByClinicAndUser(_ context.Context, clinicID, userID uuid.UUID) (*model.ClinicMembership, error) {
	f.calls++
	if m, ok := f.byClinicUser[membershipKey(clinicID, userID)]; ok {
		return m, nil
	}
	return nil, repository.ErrNotFound
}

type fakePermissionRepo struct {
	repository.PermissionRepository
	granted map[string]bool
	calls   int
}

func permissionKey(membershipID uuid.UUID, module, action string) string {
	return membershipID.String() + "/" + module + "/" + action
}

func (f *fakePermissionRepo) Has(_ context.Context, membershipID uuid.UUID, module, action string) (bool, error) {
	f.calls++
	return f.granted[permissionKey(membershipID, module, action)], nil
}

func member(clinicID, userID uuid.UUID, role model.ClinicRole) *model.ClinicMembership {
	return &model.ClinicMembership{
		Base:     model.Base{ID: uuid.New()},
		ClinicID: clinicID,
		UserID:   userID,
		Role:     role,
	}
}

func user(role model.GlobalRole) *model.User {
	return &model.User{Base: model.Base{ID: uuid.New()}, GlobalRole: role}
}

func newTestService(memberships *fakeMembershipRepo, permissions *fakePermissionRepo) *Service {
	if memberships == nil {
		memberships = &fakeMembershipRepo{}
	}
	if permissions == nil {
		permissions = &fakePermissionRepo{}
	}
	return NewService(memberships, permissions, zerolog.Nop())
}

func TestAuthorize(t *testing.T) {
	clinicID := uuid.New()

	t.Run("nil user is unauthenticated", func(t *testing.T) {
		svc := newTestService(nil, nil)

		d, err := svc.Authorize(context.Background(), nil, clinicID, "finance", "read")
		require.NoError(t, err)

		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonUnauthenticated, d.Reason)
	})

	t.Run("super admin with any membership bypasses the permission table", func(t *testing.T) {
		u := user(model.GlobalRoleSuperAdmin)
		memberships := &fakeMembershipRepo{byClinicUser: map[string]*model.ClinicMembership{
			membershipKey(clinicID, u.ID): member(clinicID, u.ID, model.ClinicRoleStaff),
		}}
		permissions := &fakePermissionRepo{}
		svc := newTestService(memberships, permissions)

		d, err := svc.Authorize(context.Background(), u, clinicID, "finance", "delete")
		require.NoError(t, err)

		assert.True(t, d.Allowed)
		assert.Zero(t, permissions.calls)
	})

	t.Run("super admin still needs a membership", func(t *testing.T) {
		svc := newTestService(&fakeMembershipRepo{}, nil)

		d, err := svc.Authorize(context.Background(), user(model.GlobalRoleSuperAdmin), clinicID, "finance", "read")
		require.NoError(t, err)

		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonNoClinicAccess, d.Reason)
	})

	t.Run("no membership denies access", func(t *testing.T) {
		svc := newTestService(&fakeMembershipRepo{}, nil)

		d, err := svc.Authorize(context.Background(), user(model.GlobalRoleUser), clinicID, "finance", "read")
		require.NoError(t, err)

		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonNoClinicAccess, d.Reason)
	})

	t.Run("owner and manager short-circuit the permission table", func(t *testing.T) {
		for _, role := range []model.ClinicRole{model.ClinicRoleOwner, model.ClinicRoleManager} {
			u := user(model.GlobalRoleUser)
			m := member(clinicID, u.ID, role)
			memberships := &fakeMembershipRepo{byClinicUser: map[string]*model.ClinicMembership{
				membershipKey(clinicID, u.ID): m,
			}}
			permissions := &fakePermissionRepo{}
			svc := newTestService(memberships, permissions)

			d, err := svc.Authorize(context.Background(), u, clinicID, "finance", "delete")
			require.NoError(t, err)

			assert.True(t, d.Allowed, string(role))
			assert.Zero(t, permissions.calls, string(role))
			require.NotNil(t, d.Membership)
			assert.Equal(t, m.ID, d.Membership.ID)
		}
	})

	t.Run("other roles consult the permission table", func(t *testing.T) {
		u := user(model.GlobalRoleUser)
		m := member(clinicID, u.ID, model.ClinicRoleReceptionist)
		memberships := &fakeMembershipRepo{byClinicUser: map[string]*model.ClinicMembership{
			membershipKey(clinicID, u.ID): m,
		}}
		permissions := &fakePermissionRepo{granted: map[string]bool{
			permissionKey(m.ID, "appointments", "read"): true,
		}}
		svc := newTestService(memberships, permissions)

		granted, err := svc.Authorize(context.Background(), u, clinicID, "appointments", "read")
		require.NoError(t, err)
		assert.True(t, granted.Allowed)

		denied, err := svc.Authorize(context.Background(), u, clinicID, "appointments", "delete")
		require.NoError(t, err)
		assert.False(t, denied.Allowed)
		assert.Equal(t, ReasonMissingPermission, denied.Reason)
	})

	t.Run("membership in another clinic does not grant access", func(t *testing.T) {
		u := user(model.GlobalRoleUser)
		otherClinic := uuid.New()
		memberships := &fakeMembershipRepo{byClinicUser: map[string]*model.ClinicMembership{
			membershipKey(otherClinic, u.ID): member(otherClinic, u.ID, model.ClinicRoleOwner),
		}}
		svc := newTestService(memberships, nil)

		d, err := svc.Authorize(context.Background(), u, clinicID, "finance", "read")
		require.NoError(t, err)

		assert.False(t, d.Allowed)
		assert.Equal(t, ReasonNoClinicAccess, d.Reason)
	})

	t.Run("lookups are cached within the TTL", func(t *testing.T) {
		u := user(model.GlobalRoleUser)
		m := member(clinicID, u.ID, model.ClinicRoleFinancial)
		memberships := &fakeMembershipRepo{byClinicUser: map[string]*model.ClinicMembership{
			membershipKey(clinicID, u.ID): m,
		}}
		permissions := &fakePermissionRepo{granted: map[string]bool{
			permissionKey(m.ID, "finance", "read"): true,
		}}
		svc := newTestService(memberships, permissions)

		for i := 0; i < 3; i++ {
			d, err := svc.Authorize(context.Background(), u, clinicID, "finance", "read")
			require.NoError(t, err)
			assert.True(t, d.Allowed)
		}

		assert.Equal(t, 1, memberships.calls)
		assert.Equal(t, 1, permissions.calls)
	})

	t.Run("invalidation drops cached permissions", func(t *testing.T) {
		u := user(model.GlobalRoleUser)
		m := member(clinicID, u.ID, model.ClinicRoleFinancial)
		memberships := &fakeMembershipRepo{byClinicUser: map[string]*model.ClinicMembership{
			membershipKey(clinicID, u.ID): m,
		}}
		permissions := &fakePermissionRepo{granted: map[string]bool{
			permissionKey(m.ID, "finance", "read"): true,
		}}
		svc := newTestService(memberships, permissions)

		_, err := svc.Authorize(context.Background(), u, clinicID, "finance", "read")
		require.NoError(t, err)

		delete(permissions.granted, permissionKey(m.ID, "finance", "read"))
		svc.InvalidatePermissions(m.ID)

		d, err := svc.Authorize(context.Background(), u, clinicID, "finance", "read")
		require.NoError(t, err)
		assert.False(t, d.Allowed)
		assert.Equal(t, 2, permissions.calls)
	})
}

func TestIsClinicManager(t *testing.T) {
	clinicID := uuid.New()

	cases := []struct {
		name string
		role model.ClinicRole
		want bool
	}{
		{"owner", model.ClinicRoleOwner, true},
		{"manager", model.ClinicRoleManager, true},
		{"professional", model.ClinicRoleProfessional, false},
		{"receptionist", model.ClinicRoleReceptionist, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := user(model.GlobalRoleUser)
			memberships := &fakeMembershipRepo{byClinicUser: map[string]*model.ClinicMembership{
				membershipKey(clinicID, u.ID): member(clinicID, u.ID, tc.role),
			}}
			svc := newTestService(memberships, nil)

			got, err := svc.IsClinicManager(context.Background(), u, clinicID)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("super admin counts as manager everywhere", func(t *testing.T) {
		svc := newTestService(nil, nil)

		got, err := svc.IsClinicManager(context.Background(), user(model.GlobalRoleSuperAdmin), clinicID)
		require.NoError(t, err)
		assert.True(t, got)
	})

	t.Run("non-member is not a manager", func(t *testing.T) {
		svc := newTestService(&fakeMembershipRepo{}, nil)

		got, err := svc.IsClinicManager(context.Background(), user(model.GlobalRoleUser), clinicID)
		require.NoError(t, err)
		assert.False(t, got)
	})
}
