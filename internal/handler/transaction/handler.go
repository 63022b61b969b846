package transaction

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/handler"
	"github.com/clinicore/clinic-api/internal/middleware"
	"github.com/clinicore/clinic-api/internal/model"
	transactionService "github.com/clinicore/clinic-api/internal/service/transaction"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service *transactionService.Service
}

func NewHandler(service *transactionService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, az middleware.Authorizer) {
	transactions := r.Group("/clinics/:clinicId/transactions")
	{
		transactions.POST("", middleware.RequirePermission(az, "finance", "create"), h.Record)
		transactions.GET("", middleware.RequirePermission(az, "finance", "read"), h.List)
	}
}

func (h *Handler) Record(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	var req model.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	txn, err := h.service.Record(c.Request.Context(), clinicID, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(txn))
}

func (h *Handler) List(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	start, err := time.Parse(dateLayout, c.DefaultQuery("start_date", time.Now().AddDate(0, -1, 0).Format(dateLayout)))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid start_date, expected YYYY-MM-DD"))
		return
	}
	end, err := time.Parse(dateLayout, c.DefaultQuery("end_date", time.Now().Format(dateLayout)))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid end_date, expected YYYY-MM-DD"))
		return
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("end_date precedes start_date"))
		return
	}

	txns, err := h.service.List(c.Request.Context(), clinicID, start, end.Add(24*time.Hour-time.Nanosecond))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(txns))
}
