package finance

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/handler"
	"github.com/clinicore/clinic-api/internal/middleware"
	"github.com/clinicore/clinic-api/internal/model"
	financeService "github.com/clinicore/clinic-api/internal/service/finance"
)

const dateLayout = "2006-01-02"

type Handler struct {
	service *financeService.Service
}

func NewHandler(service *financeService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, az middleware.Authorizer) {
	reports := r.Group("/clinics/:clinicId/reports",
		middleware.RequirePermission(az, "finance", "read"))
	{
		reports.GET("/cash-flow", h.CashFlow)
		reports.GET("/summary", h.Summary)
		reports.GET("/expense-breakdown", h.ExpenseBreakdown)
		reports.GET("/revenue-vs-expense", h.RevenueVsExpense)
	}
}

func (h *Handler) CashFlow(c *gin.Context) {
	clinicID, start, end, ok := h.rangeParams(c)
	if !ok {
		return
	}

	chart, err := h.service.CashFlowByPeriod(c.Request.Context(), clinicID, start, end)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, chart)
}

func (h *Handler) Summary(c *gin.Context) {
	clinicID, start, end, ok := h.rangeParams(c)
	if !ok {
		return
	}

	summary, err := h.service.FinancialSummaryByPeriod(c.Request.Context(), clinicID, start, end)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) ExpenseBreakdown(c *gin.Context) {
	clinicID, period, ok := h.periodParams(c)
	if !ok {
		return
	}

	chart, err := h.service.ExpenseBreakdownByCategory(c.Request.Context(), clinicID, period)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, chart)
}

func (h *Handler) RevenueVsExpense(c *gin.Context) {
	clinicID, period, ok := h.periodParams(c)
	if !ok {
		return
	}

	chart, err := h.service.RevenueVsExpenseByPeriod(c.Request.Context(), clinicID, period)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, chart)
}

func (h *Handler) rangeParams(c *gin.Context) (uuid.UUID, time.Time, time.Time, bool) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return uuid.Nil, time.Time{}, time.Time{}, false
	}

	start, err := time.Parse(dateLayout, c.Query("start_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid start_date, expected YYYY-MM-DD"))
		return uuid.Nil, time.Time{}, time.Time{}, false
	}
	end, err := time.Parse(dateLayout, c.Query("end_date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid end_date, expected YYYY-MM-DD"))
		return uuid.Nil, time.Time{}, time.Time{}, false
	}
	if end.Before(start) {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("end_date precedes start_date"))
		return uuid.Nil, time.Time{}, time.Time{}, false
	}

	return clinicID, start, end, true
}

func (h *Handler) periodParams(c *gin.Context) (uuid.UUID, model.ReportPeriod, bool) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return uuid.Nil, "", false
	}

	period := model.ReportPeriod(c.DefaultQuery("period", string(model.ReportPeriodMonth)))
	if !period.Valid() {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid period, expected week, month, quarter or year"))
		return uuid.Nil, "", false
	}

	return clinicID, period, true
}
