package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/internal/repository"
	"github.com/clinicore/clinic-api/internal/service/authz"
)

const (
	// ContextUser holds the authenticated *model.User.
	ContextUser = "user"
	// ParamClinicID is the URL segment carrying the clinic scope.
	ParamClinicID = "clinicId"
)

// TokenValidator checks an access token and returns its identity claims.
type TokenValidator interface {
	Validate(token string) (*model.TokenClaims, error)
}

// Authorizer is the slice of the authorization service the guards need.
type Authorizer interface {
	Authorize(ctx context.Context, user *model.User, clinicID uuid.UUID, module, action string) (authz.Decision, error)
	IsClinicManager(ctx context.Context, user *model.User, clinicID uuid.UUID) (bool, error)
}

// Authenticate validates the bearer token and loads the full user row into
// the context, so downstream authorization always works from the stored
// identity rather than raw token claims. Requests without a token are
// rejected; routes that tolerate anonymous callers use
// AuthenticateOptional.
func Authenticate(tokens TokenValidator, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := resolveUser(c, tokens, users)
		if !ok {
			return
		}
		if user == nil {
			unauthorized(c, "missing or invalid token")
			return
		}
		c.Set(ContextUser, user)
		c.Next()
	}
}

// AuthenticateOptional loads the user when a valid token is present and
// continues anonymously otherwise.
func AuthenticateOptional(tokens TokenValidator, users repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := resolveUser(c, tokens, users)
		if !ok {
			return
		}
		if user != nil {
			c.Set(ContextUser, user)
		}
		c.Next()
	}
}

// resolveUser returns (user, true) on success, (nil, true) for anonymous
// callers, and (nil, false) after aborting on an internal failure.
func resolveUser(c *gin.Context, tokens TokenValidator, users repository.UserRepository) (*model.User, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return nil, true
	}
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found {
		return nil, true
	}

	claims, err := tokens.Validate(token)
	if err != nil {
		return nil, true
	}

	user, err := users.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		if stderrors.Is(err, repository.ErrNotFound) {
			return nil, true
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
			Code:    http.StatusInternalServerError,
			Message: "internal server error",
		})
		return nil, false
	}
	if user.Status == model.UserStatusLocked {
		return nil, true
	}

	return user, true
}

// RequirePermission guards a clinic-scoped route with a (module, action)
// pair fixed at registration time. The clinic comes from the URL path.
func RequirePermission(az Authorizer, module, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		clinicID, ok := clinicFromPath(c)
		if !ok {
			return
		}

		user := UserFromContext(c)
		decision, err := az.Authorize(c.Request.Context(), user, clinicID, module, action)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
				Code:    http.StatusInternalServerError,
				Message: "internal server error",
			})
			return
		}

		if !decision.Allowed {
			if decision.Reason == authz.ReasonUnauthenticated {
				unauthorized(c, "authentication required")
			} else {
				forbidden(c, decision.Reason)
			}
			return
		}

		c.Next()
	}
}

// RequireClinicManager gates clinic-wide management actions on the OWNER
// and MANAGER roles, independent of the permission table.
func RequireClinicManager(az Authorizer) gin.HandlerFunc {
	return func(c *gin.Context) {
		clinicID, ok := clinicFromPath(c)
		if !ok {
			return
		}

		user := UserFromContext(c)
		if user == nil {
			unauthorized(c, "authentication required")
			return
		}

		manager, err := az.IsClinicManager(c.Request.Context(), user, clinicID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
				Code:    http.StatusInternalServerError,
				Message: "internal server error",
			})
			return
		}
		if !manager {
			forbidden(c, "clinic management role required")
			return
		}

		c.Next()
	}
}

// UserFromContext returns the authenticated user or nil.
func UserFromContext(c *gin.Context) *model.User {
	if v, ok := c.Get(ContextUser); ok {
		if user, ok := v.(*model.User); ok {
			return user
		}
	}
	return nil
}

func clinicFromPath(c *gin.Context) (uuid.UUID, bool) {
	clinicID, err := uuid.Parse(c.Param(ParamClinicID))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, ErrorResponse{
			Code:    http.StatusBadRequest,
			Message: "invalid clinic id",
		})
		return uuid.Nil, false
	}
	return clinicID, true
}

func unauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Code:    http.StatusUnauthorized,
		Message: message,
	})
}

func forbidden(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
		Code:    http.StatusForbidden,
		Message: message,
	})
}
