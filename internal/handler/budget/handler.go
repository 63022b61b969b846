package budget

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinicore/clinic-api/internal/handler"
	"github.com/clinicore/clinic-api/internal/middleware"
	"github.com/clinicore/clinic-api/internal/model"
	budgetService "github.com/clinicore/clinic-api/internal/service/budget"
)

type Handler struct {
	service *budgetService.Service
}

func NewHandler(service *budgetService.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, az middleware.Authorizer) {
	clinic := r.Group("/clinics/:clinicId")

	budgets := clinic.Group("/budgets")
	{
		budgets.POST("", middleware.RequirePermission(az, "budgets", "create"), h.CreateBudget)
		budgets.GET("", middleware.RequirePermission(az, "budgets", "read"), h.ListBudgets)
		budgets.DELETE("/:id", middleware.RequirePermission(az, "budgets", "delete"), h.DeleteBudget)
	}

	goals := clinic.Group("/goals")
	{
		goals.POST("", middleware.RequirePermission(az, "goals", "create"), h.CreateGoal)
		goals.GET("", middleware.RequirePermission(az, "goals", "read"), h.ListGoals)
		goals.DELETE("/:id", middleware.RequirePermission(az, "goals", "delete"), h.DeleteGoal)
	}
}

func (h *Handler) CreateBudget(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	var req model.CreateBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	budget, err := h.service.CreateBudget(c.Request.Context(), clinicID, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(budget))
}

func (h *Handler) ListBudgets(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(time.Now().Year())))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid year"))
		return
	}

	budgets, err := h.service.ListBudgets(c.Request.Context(), clinicID, year)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(budgets))
}

// pathIDs parses the clinic scope and the record id from the URL.
func pathIDs(c *gin.Context, what string) (clinicID, id uuid.UUID, ok bool) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return uuid.Nil, uuid.Nil, false
	}
	id, err = uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid "+what+" id"))
		return uuid.Nil, uuid.Nil, false
	}
	return clinicID, id, true
}

func (h *Handler) DeleteBudget(c *gin.Context) {
	clinicID, id, ok := pathIDs(c, "budget")
	if !ok {
		return
	}

	if err := h.service.DeleteBudget(c.Request.Context(), clinicID, id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) CreateGoal(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	var req model.CreateFinancialGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	goal, err := h.service.CreateGoal(c.Request.Context(), clinicID, &req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(goal))
}

func (h *Handler) ListGoals(c *gin.Context) {
	clinicID, err := uuid.Parse(c.Param(middleware.ParamClinicID))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid clinic id"))
		return
	}

	goals, err := h.service.ListGoals(c.Request.Context(), clinicID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(goals))
}

func (h *Handler) DeleteGoal(c *gin.Context) {
	clinicID, id, ok := pathIDs(c, "goal")
	if !ok {
		return
	}

	if err := h.service.DeleteGoal(c.Request.Context(), clinicID, id); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
