package handler

import (
	"net/http"
	"strconv"

	"parkgate/internal/apierror"
	"parkgate/internal/dto"
	"parkgate/internal/middleware"
	"parkgate/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ShiftsHandler struct{ svc service.ShiftService }

func NewShiftsHandler(svc service.ShiftService) *ShiftsHandler { return &ShiftsHandler{svc: svc} }

// Open godoc
// @Summary      Open a shift
// @Description  Declares the opening drawer float. One open shift per cashier per day.
// @Tags         shifts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.OpenShiftRequest true "Opening amount"
// @Success      201  {object} dto.ShiftResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/shifts/open [post]
func (h *ShiftsHandler) Open(c *gin.Context) {
	var req dto.OpenShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	cashierID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Open(c.Request.Context(), cashierID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Close godoc
// @Summary      Close the open shift
// @Description  Blind count reconciliation: variance = declared closing amount minus system-computed collections. Critical variance requires notes.
// @Tags         shifts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CloseShiftRequest true "Closing amount"
// @Success      200  {object} dto.ShiftResponse
// @Failure      409  {object} apierror.APIError
// @Failure      422  {object} apierror.APIError
// @Router       /v1/shifts/close [post]
func (h *ShiftsHandler) Close(c *gin.Context) {
	var req dto.CloseShiftRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	cashierID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Close(c.Request.Context(), cashierID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ShiftsHandler) Current(c *gin.Context) {
	claims := middleware.GetClaims(c)
	cashierID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Current(c.Request.Context(), cashierID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Summary godoc
// @Summary      Daily activity summary
// @Description  Ticket counts and total collected for the calling cashier.
// @Tags         shifts
// @Produce      json
// @Security     BearerAuth
// @Param        date query string false "Date YYYY-MM-DD (default: today)"
// @Success      200  {object} dto.ShiftSummaryResponse
// @Router       /v1/shifts/summary [get]
func (h *ShiftsHandler) Summary(c *gin.Context) {
	claims := middleware.GetClaims(c)
	cashierID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.Summary(c.Request.Context(), cashierID, c.Query("date"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to build summary"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History godoc
// @Summary      Shift history
// @Description  Paginated list of all shifts, newest first. Supervisor only.
// @Tags         shifts
// @Produce      json
// @Security     BearerAuth
// @Param        page  query int false "Page (default 1)"
// @Param        limit query int false "Rows per page (default 50)"
// @Success      200   {object} dto.ShiftListResponse
// @Router       /v1/shifts [get]
func (h *ShiftsHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	resp, err := h.svc.History(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list shifts"))
		return
	}
	c.JSON(http.StatusOK, resp)
}
