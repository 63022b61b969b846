package client

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/handler"
	"github.com/clinicore/clinic-api/internal/middleware"
	"github.com/clinicore/clinic-api/internal/model"
	clientService "github.com/clinicore/clinic-api/internal/service/client"
)

type Handler struct {
	service *clientService.Service
}

func NewHandler(service *clientService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, az middleware.Authorizer) {
	clients := r.Group("/clinics/:clinicId/clients")
	{
		clients.POST("", middleware.RequirePermission(az, "clients", "create"), h.Create)
		clients.GET("", middleware.RequirePermission(az, "clients", "read"), h.List)
		clients.GET("/:id", middleware.RequirePermission(az, "clients", "read"), h.Get)
		clients.PUT("/:id", middleware.RequirePermission(az, "clients", "update"), h.Update)
		clients.DELETE("/:id", middleware.RequirePermission(az, "clients", "delete"), h.Delete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	var req model.CreateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	client, err := h.service.Create(c.Request.Context(), clinicID, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(client))
}

func (h *Handler) List(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	clients, err := h.service.List(c.Request.Context(), clinicID, c.Query("search"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(clients))
}

// pathIDs parses the clinic scope and the client id from the URL.
func pathIDs(c *gin.Context) (clinicID, id uuid.UUID, ok bool) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return uuid.Nil, uuid.Nil, false
	}
	id, err = uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid client id"))
		return uuid.Nil, uuid.Nil, false
	}
	return clinicID, id, true
}

func (h *Handler) Get(c *gin.Context) {
	clinicID, id, ok := pathIDs(c)
	if !ok {
		return
	}

	client, err := h.service.Get(c.Request.Context(), clinicID, id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(client))
}

func (h *Handler) Update(c *gin.Context) {
	clinicID, id, ok := pathIDs(c)
	if !ok {
		return
	}

	var req model.UpdateClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	client, err := h.service.Update(c.Request.Context(), clinicID, id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(client))
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
