package invitation

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/handler"
	"github.com/clinicore/clinic-api/internal/middleware"
	"github.com/clinicore/clinic-api/internal/model"
	invitationService "github.com/clinicore/clinic-api/internal/service/invitation"
)

type Handler struct {
	service *invitationService.Service
}

func NewHandler(service *invitationService.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts clinic-scoped invitation management. Viewing all
// of a clinic's invitations is a management action, gated on role rather
// than the permission table.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup, az middleware.Authorizer) {
	invitations := r.Group("/clinics/:clinicId/invitations", middleware.RequireClinicManager(az))
	{
		invitations.POST("", h.Create)
		invitations.GET("", h.List)
		invitations.DELETE("/:id", h.Revoke)
	}
}

// RegisterAcceptRoute mounts the token redemption endpoint. It only needs
// an authenticated caller; clinic scoping comes from the token itself.
func (h *Handler) RegisterAcceptRoute(r *gin.RouterGroup) {
	r.POST("/invitations/accept", h.Accept)
}

func (h *Handler) Create(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	var req model.CreateInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	inv, err := h.service.Create(c.Request.Context(), clinicID, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(inv))
}

func (h *Handler) List(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	invitations, err := h.service.ListByClinic(c.Request.Context(), clinicID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(invitations))
}

func (h *Handler) Revoke(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid invitation id"))
		return
	}

	if err := h.service.Revoke(c.Request.Context(), clinicID, id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Accept(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	user := middleware.UserFromContext(c)
	m, err := h.service.Accept(c.Request.Context(), req.Token, user.ID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(m))
}
