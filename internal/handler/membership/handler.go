package membership

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/handler"
	"github.com/clinicore/clinic-api/internal/middleware"
	"github.com/clinicore/clinic-api/internal/model"
	membershipService "github.com/clinicore/clinic-api/internal/service/membership"
)

// MembershipResolver finds the caller's membership in a clinic, nil when
// there is none.
type MembershipResolver interface {
	Membership(ctx context.Context, user *model.User, clinicID uuid.UUID) (*model.ClinicMembership, error)
}

type Handler struct {
	service  *membershipService.Service
	resolver MembershipResolver
}

func NewHandler(service *membershipService.Service, resolver MembershipResolver) *Handler {
	return &Handler{service: service, resolver: resolver}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, az middleware.Authorizer) {
	members := r.Group("/clinics/:clinicId/members", middleware.RequireClinicManager(az))
	{
		members.POST("", h.Add)
		members.GET("", h.List)
		members.PUT("/:id", h.Update)
		members.DELETE("/:id", h.Remove)
		members.GET("/:id/permissions", h.ListPermissions)
		members.POST("/:id/permissions", h.GrantPermission)
		members.DELETE("/:id/permissions", h.RevokePermission)
	}
}

// RegisterPublicRoutes mounts the caller-facing permission listing. It is
// deliberately not guarded: an unauthenticated caller gets an empty list
// instead of an error, so a UI can render before login completes.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("/clinics/:clinicId/permissions/me", h.MyPermissions)
}

func (h *Handler) Add(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	var req model.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	m, err := h.service.Add(c.Request.Context(), clinicID, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(m))
}

func (h *Handler) List(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	members, err := h.service.List(c.Request.Context(), clinicID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(members))
}

// pathIDs parses the clinic scope and the membership id from the URL.
func pathIDs(c *gin.Context) (clinicID, id uuid.UUID, ok bool) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return uuid.Nil, uuid.Nil, false
	}
	id, err = uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid membership id"))
		return uuid.Nil, uuid.Nil, false
	}
	return clinicID, id, true
}

func (h *Handler) Update(c *gin.Context) {
	clinicID, id, ok := pathIDs(c)
	if !ok {
		return
	}

	var req model.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	m, err := h.service.Update(c.Request.Context(), clinicID, id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(m))
}

func (h *Handler) Remove(c *gin.Context) {
	clinicID, id, ok := pathIDs(c)
	if !ok {
		return
	}

	if err := h.service.Remove(c.Request.Context(), clinicID, id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) ListPermissions(c *gin.Context) {
	clinicID, id, ok := pathIDs(c)
	if !ok {
		return
	}

	perms, err := h.service.ListPermissions(c.Request.Context(), clinicID, id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(perms))
}

func (h *Handler) GrantPermission(c *gin.Context) {
	clinicID, id, ok := pathIDs(c)
	if !ok {
		return
	}

	var req model.GrantPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	p, err := h.service.GrantPermission(c.Request.Context(), clinicID, id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(p))
}

func (h *Handler) RevokePermission(c *gin.Context) {
	clinicID, id, ok := pathIDs(c)
	if !ok {
		return
	}

	module := c.Query("module")
	action := c.Query("action")
	if module == "" || action == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("module and action are required"))
		return
	}

	if err := h.service.RevokePermission(c.Request.Context(), clinicID, id, module, action); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MyPermissions lists the caller's permission rows for the clinic. An
// anonymous caller, or one without a membership, gets an empty list.
func (h *Handler) MyPermissions(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	user := middleware.UserFromContext(c)
	if user == nil {
		c.JSON(http.StatusOK, handler.NewSuccessResponse([]*model.Permission{}))
		return
	}

	m, err := h.resolver.Membership(c.Request.Context(), user, clinicID)
	if err != nil {
		c.Error(err)
		return
	}
	if m == nil {
		c.JSON(http.StatusOK, handler.NewSuccessResponse([]*model.Permission{}))
		return
	}

	perms, err := h.service.ListPermissions(c.Request.Context(), clinicID, m.ID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(perms))
}
