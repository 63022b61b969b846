package account

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/handler"
	"github.com/clinicore/clinic-api/internal/middleware"
	"github.com/clinicore/clinic-api/internal/model"
	accountService "github.com/clinicore/clinic-api/internal/service/account"
)

type Handler struct {
	service *accountService.Service
}

func NewHandler(service *accountService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, az middleware.Authorizer) {
	accounts := r.Group("/clinics/:clinicId/accounts")
	{
		accounts.POST("", middleware.RequirePermission(az, "accounts", "create"), h.Create)
		accounts.GET("", middleware.RequirePermission(az, "accounts", "read"), h.List)
		accounts.GET("/:id", middleware.RequirePermission(az, "accounts", "read"), h.Get)
		accounts.PUT("/:id", middleware.RequirePermission(az, "accounts", "update"), h.Update)
		accounts.DELETE("/:id", middleware.RequirePermission(az, "accounts", "delete"), h.Delete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	var req model.CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	account, err := h.service.Create(c.Request.Context(), clinicID, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(account))
}

func (h *Handler) List(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	accounts, err := h.service.List(c.Request.Context(), clinicID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(accounts))
}

// pathIDs parses the clinic scope and the account id from the URL.
func pathIDs(c *gin.Context) (clinicID, id uuid.UUID, ok bool) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return uuid.Nil, uuid.Nil, false
	}
	id, err = uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid account id"))
		return uuid.Nil, uuid.Nil, false
	}
	return clinicID, id, true
}

func (h *Handler) Get(c *gin.Context) {
	clinicID, id, ok := pathIDs(c)
	if !ok {
		return
	}

	account, err := h.service.Get(c.Request.Context(), clinicID, id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(account))
}

func (h *Handler) Update(c *gin.Context) {
	clinicID, id, ok := pathIDs(c)
	if !ok {
		return
	}

	var req model.UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	account, err := h.service.Update(c.Request.Context(), clinicID, id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(account))
}

func (h *Handler) Delete(c *gin.Context) {
	clinicID, id, ok := pathIDs(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), clinicID, id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
