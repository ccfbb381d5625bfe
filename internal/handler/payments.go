package handler

import (
	"net/http"

	"parkgate/internal/apierror"
	"parkgate/internal/middleware"
	"parkgate/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PaymentsHandler struct{ svc service.PaymentService }

func NewPaymentsHandler(svc service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{svc: svc}
}

// GetByTicket godoc
// @Summary      Payment for a ticket
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Ticket UUID"
// @Success      200 {object} dto.PaymentResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/tickets/{id}/payment [get]
func (h *PaymentsHandler) GetByTicket(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	resp, err := h.svc.GetByTicket(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Recover godoc
// @Summary      Repair a missing payment record
// @Description  Inserts the ledger row for a settled ticket whose payment is absent. Supervisor only. Idempotent.
// @Tags         payments
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "Ticket UUID"
// @Success      201 {object} dto.PaymentResponse
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Failure      422 {object} apierror.APIError
// @Router       /v1/tickets/{id}/payment/recover [post]
func (h *PaymentsHandler) Recover(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	claims := middleware.GetClaims(c)
	actorID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.RecoverMissingPayment(c.Request.Context(), actorID, id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
