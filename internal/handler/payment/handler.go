package payment

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/handler"
	"github.com/clinicore/clinic-api/internal/middleware"
	"github.com/clinicore/clinic-api/internal/model"
	paymentService "github.com/clinicore/clinic-api/internal/service/payment"
)

type Handler struct {
	service *paymentService.Service
}

func NewHandler(service *paymentService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, az middleware.Authorizer) {
	payments := r.Group("/clinics/:clinicId/payments")
	{
		payments.POST("", middleware.RequirePermission(az, "payments", "create"), h.Create)
		payments.GET("", middleware.RequirePermission(az, "payments", "read"), h.List)
		payments.GET("/:id", middleware.RequirePermission(az, "payments", "read"), h.Get)
		payments.POST("/:id/confirm", middleware.RequirePermission(az, "payments", "confirm"), h.Confirm)
		payments.POST("/:id/refund", middleware.RequirePermission(az, "payments", "refund"), h.Refund)
	}

	commissions := r.Group("/clinics/:clinicId/commissions")
	{
		commissions.GET("", middleware.RequirePermission(az, "commissions", "read"), h.ListCommissions)
	}
}

// pathIDs parses the clinic scope and the payment id from the URL.
func pathIDs(c *gin.Context) (clinicID, id uuid.UUID, ok bool) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return uuid.Nil, uuid.Nil, false
	}
	id, err = uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid payment id"))
		return uuid.Nil, uuid.Nil, false
	}
	return clinicID, id, true
}

func (h *Handler) Create(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	var req model.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	payment, err := h.service.Create(c.Request.Context(), clinicID, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(payment))
}

func (h *Handler) List(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	status := model.PaymentStatus(c.Query("status"))
	payments, err := h.service.List(c.Request.Context(), clinicID, status)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(payments))
}

func (h *Handler) Get(c *gin.Context) {
	clinicID, id, ok := pathIDs(c)
	if !ok {
		return
	}

	payment, err := h.service.Get(c.Request.Context(), clinicID, id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(payment))
}

func (h *Handler) Confirm(c *gin.Context) {
	clinicID, id, ok := pathIDs(c)
	if !ok {
		return
	}

	payment, err := h.service.Confirm(c.Request.Context(), clinicID, id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(payment))
}

func (h *Handler) Refund(c *gin.Context) {
	clinicID, id, ok := pathIDs(c)
	if !ok {
		return
	}

	var req model.RefundPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	payment, err := h.service.Refund(c.Request.Context(), clinicID, id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(payment))
}

// ListCommissions returns the clinic's commissions, optionally narrowed to a
// single professional through ?professional_id=.
func (h *Handler) ListCommissions(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	var professionalID *uuid.UUID
	if raw := c.Query("professional_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid professional id"))
			return
		}
		professionalID = &id
	}

	commissions, err := h.service.ListCommissions(c.Request.Context(), clinicID, professionalID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(commissions))
}
