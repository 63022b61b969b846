package appointment

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/handler"
	"github.com/clinicore/clinic-api/internal/middleware"
	"github.com/clinicore/clinic-api/internal/model"
	appointmentService "github.com/clinicore/clinic-api/internal/service/appointment"
)

type Handler struct {
	service *appointmentService.Service
}

func NewHandler(service *appointmentService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, az middleware.Authorizer) {
	appointments := r.Group("/clinics/:clinicId/appointments")
	{
		appointments.POST("", middleware.RequirePermission(az, "appointments", "create"), h.Create)
		appointments.GET("", middleware.RequirePermission(az, "appointments", "read"), h.List)
		appointments.GET("/:id", middleware.RequirePermission(az, "appointments", "read"), h.Get)
		appointments.PUT("/:id", middleware.RequirePermission(az, "appointments", "update"), h.Update)
	}
}

func (h *Handler) Create(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	var req model.CreateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	apt, err := h.service.Create(c.Request.Context(), clinicID, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(apt))
}

func (h *Handler) List(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	from, err := time.Parse(time.RFC3339, c.DefaultQuery("from", time.Now().AddDate(0, 0, -7).Format(time.RFC3339)))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid from timestamp"))
		return
	}
	to, err := time.Parse(time.RFC3339, c.DefaultQuery("to", time.Now().AddDate(0, 1, 0).Format(time.RFC3339)))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid to timestamp"))
		return
	}

	appointments, err := h.service.List(c.Request.Context(), clinicID, from, to)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

// pathIDs parses the clinic scope and the appointment id from the URL.
func pathIDs(c *gin.Context) (clinicID, id uuid.UUID, ok bool) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return uuid.Nil, uuid.Nil, false
	}
	id, err = uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid appointment id"))
		return uuid.Nil, uuid.Nil, false
	}
	return clinicID, id, true
}

func (h *Handler) Get(c *gin.Context) {
	clinicID, id, ok := pathIDs(c)
	if !ok {
		return
	}

	apt, err := h.service.Get(c.Request.Context(), clinicID, id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}

func (h *Handler) Update(c *gin.Context) {
	clinicID, id, ok := pathIDs(c)
	if !ok {
		return
	}

	var req model.UpdateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	apt, err := h.service.Update(c.Request.Context(), clinicID, id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(apt))
}
