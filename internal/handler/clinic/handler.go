package clinic

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/handler"
	"github.com/clinicore/clinic-api/internal/middleware"
	"github.com/clinicore/clinic-api/internal/model"
	clinicService "github.com/clinicore/clinic-api/internal/service/clinic"
)

type Handler struct {
	service *clinicService.Service
}

func NewHandler(service *clinicService.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the clinic endpoints. All of them require an
// authenticated caller; clinic-scoped authorization happens per clinic id.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	clinics := r.Group("/clinics")
	{
		clinics.POST("", h.Create)
		clinics.GET("", h.List)
		clinics.GET("/:clinicId", h.Get)
		clinics.PUT("/:clinicId", h.Update)
		clinics.DELETE("/:clinicId", h.Delete)
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateClinicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	user := middleware.UserFromContext(c)
	clinic, err := h.service.Create(c.Request.Context(), user.ID, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(clinic))
}

func (h *Handler) List(c *gin.Context) {
	user := middleware.UserFromContext(c)
	clinics, err := h.service.ListForUser(c.Request.Context(), user.ID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(clinics))
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	clinic, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(clinic))
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	var req model.UpdateClinicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	clinic, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(clinic))
}

func (h *Handler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
