package authz

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
)

// Deny reasons surfaced to clients.
const (
	ReasonUnauthenticated   = "unauthenticated"
	ReasonNoClinicAccess    = "no clinic access"
	ReasonMissingPermission = "missing permission"
)

const (
	cacheTTL     = 30 * time.Second
	cacheCleanup = 5 * time.Minute
)

// Decision is the outcome of an authorization check.
type Decision struct {
	Allowed    bool
	Reason     string
	Membership *model.ClinicMembership
}

func allow(m *model.ClinicMembership) Decision {
	return Decision{Allowed: true, Membership: m}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Service answers permission questions for clinic-scoped resources. The
// decision is pure over its inputs: identity normalization happens in the
// authentication middleware before this service is consulted.
type Service struct {
	memberships repository.MembershipRepository
	permissions repository.PermissionRepository
	cache       *gocache.Cache
	logger      zerolog.Logger
}

func NewService(memberships repository.MembershipRepository, permissions repository.PermissionRepository, logger zerolog.Logger) *Service {
	return &Service{
		memberships: memberships,
		permissions: permissions,
		cache:       gocache.New(cacheTTL, cacheCleanup),
		logger:      logger,
	}
}

// Authorize decides whether user may perform (module, action) inside clinic
// clinicID. SUPER_ADMIN users and OWNER/MANAGER memberships short-circuit
// the permission table; everyone else needs an explicit permission row.
// There is no ownership-based override at this layer.
func (s *Service) Authorize(ctx context.Context, user *model.User, clinicID uuid.UUID, module, action string) (Decision, error) {
	if user == nil {
		return deny(ReasonUnauthenticated), nil
	}

	membership, err := s.membership(ctx, clinicID, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return deny(ReasonNoClinicAccess), nil
		}
		return Decision{}, fmt.Errorf("failed to resolve membership: %w", err)
	}
	if membership == nil {
		return deny(ReasonNoClinicAccess), nil
	}

	if user.GlobalRole == model.GlobalRoleSuperAdmin ||
		membership.Role == model.ClinicRoleOwner ||
		membership.Role == model.ClinicRoleManager {
		return allow(membership), nil
	}

	has, err := s.hasPermission(ctx, membership.ID, module, action)
	if err != nil {
		return Decision{}, fmt.Errorf("failed to check permission: %w", err)
	}
	if !has {
		s.logger.Debug().
			Str("user_id", user.ID.String()).
			Str("clinic_id", clinicID.String()).
			Str("module", module).
			Str("action", action).
			Msg("permission denied")
		return deny(ReasonMissingPermission), nil
	}

	return allow(membership), nil
}

// IsClinicManager reports whether user can perform clinic-wide management
// actions, independent of the module/action permission table.
func (s *Service) IsClinicManager(ctx context.Context, user *model.User, clinicID uuid.UUID) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.GlobalRole == model.GlobalRoleSuperAdmin {
		return true, nil
	}

	membership, err := s.membership(ctx, clinicID, user.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to resolve membership: %w", err)
	}
	if membership == nil {
		return false, nil
	}

	return membership.Role == model.ClinicRoleOwner || membership.Role == model.ClinicRoleManager, nil
}

// Membership resolves the caller's membership for a clinic, or nil when the
// user has none.
func (s *Service) Membership(ctx context.Context, user *model.User, clinicID uuid.UUID) (*model.ClinicMembership, error) {
	if user == nil {
		return nil, nil
	}
	m, err := s.membership(ctx, clinicID, user.ID)
	if err != nil && errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return m, err
}

// InvalidatePermissions drops cached permission lookups for a membership.
// Called after grants and revocations so stale allows never outlive the
// write by more than the cache TTL.
func (s *Service) InvalidatePermissions(membershipID uuid.UUID) {
	prefix := "perm:" + membershipID.String() + ":"
	for key := range s.cache.Items() {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			s.cache.Delete(key)
		}
	}
}

func (s *Service) membership(ctx context.Context, clinicID, userID uuid.UUID) (*model.ClinicMembership, error) {
	key := "member:" + clinicID.String() + ":" + userID.String()
	if cached, found := s.cache.Get(key); found {
		if m, ok := cached.(*model.ClinicMembership); ok {
			return m, nil
		}
	}

	m, err := s.memberships.GetByClinicAndUser(ctx, clinicID, userID)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, m, cacheTTL)
	return m, nil
}

func (s *Service) hasPermission(ctx context.Context, membershipID uuid.UUID, module, action string) (bool, error) {
	key := "perm:" + membershipID.String() + ":" + module + ":" + action
	if cached, found := s.cache.Get(key); found {
		if has, ok := cached.(bool); ok {
			return has, nil
		}
	}

	has, err := s.permissions.Has(ctx, membershipID, module, action)
	if err != nil {
		return false, err
	}

	s.cache.Set(key, has, cacheTTL)
	return has, nil
}
