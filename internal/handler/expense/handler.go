package expense

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/handler"
	"github.com/clinicore/clinic-api/internal/middleware"
	"github.com/clinicore/clinic-api/internal/model"
	expenseService "github.com/clinicore/clinic-api/internal/service/expense"
)

type Handler struct {
	service *expenseService.Service
}

func NewHandler(service *expenseService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, az middleware.Authorizer) {
	expenses := r.Group("/clinics/:clinicId/expenses")
	{
		expenses.POST("", middleware.RequirePermission(az, "expenses", "create"), h.Create)
		expenses.GET("", middleware.RequirePermission(az, "expenses", "read"), h.List)
		expenses.GET("/:id", middleware.RequirePermission(az, "expenses", "read"), h.Get)
		expenses.PUT("/:id", middleware.RequirePermission(az, "expenses", "update"), h.Update)
		expenses.DELETE("/:id", middleware.RequirePermission(az, "expenses", "delete"), h.Delete)
		expenses.POST("/:id/pay", middleware.RequirePermission(az, "expenses", "pay"), h.Pay)
		expenses.POST("/:id/cancel", middleware.RequirePermission(az, "expenses", "update"), h.Cancel)
	}
}

func (h *Handler) Create(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	var req model.CreateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	expense, err := h.service.Create(c.Request.Context(), clinicID, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(expense))
}

func (h *Handler) List(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	status := model.ExpenseStatus(c.Query("status"))
	expenses, err := h.service.List(c.Request.Context(), clinicID, status)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(expenses))
}


// pathIDs parses the clinic scope and the expense id from the URL.
func pathIDs(c *gin.Context) (clinicID, id uuid.UUID, ok bool) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return uuid.Nil, uuid.Nil, false
	}
	id, err = uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid expense id"))
		return uuid.Nil, uuid.Nil, false
	}
	return clinicID, id, true
}

func (h *Handler) Get(c *gin.Context) {
	clinicID, id, ok := pathIDs(c)
	if !ok {
		return
	}

	expense, err := h.service.Get(c.Request.Context(), clinicID, id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(expense))
}

func (h *Handler) Update(c *gin.Context) {
	clinicID, id, ok := pathIDs(c)
	if !ok {
		return
	}

	var req model.UpdateExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	expense, err := h.service.Update(c.Request.Context(), clinicID, id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(expense))
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

func (h *Handler) Pay(c *gin.Context) {
	clinicID, id, ok := pathIDs(c)
	if !ok {
		return
	}

	var req model.PayExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	expense, err := h.service.Pay(c.Request.Context(), clinicID, id, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(expense))
}

func (h *Handler) Cancel(c *gin.Context) {
	clinicID, id, ok := pathIDs(c)
	if !ok {
		return
	}

	expense, err := h.service.Cancel(c.Request.Context(), clinicID, id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(expense))
}
