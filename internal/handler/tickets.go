package handler

import (
	"net/http"

	"parkgate/internal/apierror"
	"parkgate/internal/dto"
	"parkgate/internal/middleware"
	"parkgate/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type TicketsHandler struct{ svc service.TicketService }

func NewTicketsHandler(svc service.TicketService) *TicketsHandler { return &TicketsHandler{svc: svc} }

// CheckIn godoc
// @Summary      Check a vehicle in
// @Description  Reserves the slot atomically, upserts vehicle and driver, and opens a ticket.
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CheckInRequest true "Slot, vehicle and driver"
// @Success      201  {object} dto.TicketResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/tickets/checkin [post]
func (h *TicketsHandler) CheckIn(c *gin.Context) {
	var req dto.CheckInRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	cashierID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.CheckIn(c.Request.Context(), cashierID, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CheckOut godoc
// @Summary      Check a vehicle out and settle the ticket
// @Description  Computes the bill, records the payment and releases the slot in one transaction.
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string              true "Ticket UUID"
// @Param        body body dto.CheckOutRequest true "Payment method"
// @Success      200  {object} dto.ReceiptResponse
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/tickets/{id}/checkout [post]
func (h *TicketsHandler) CheckOut(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	var req dto.CheckOutRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	cashierID, _ := uuid.Parse(claims.UserID)

	resp, err := h.svc.CheckOut(c.Request.Context(), cashierID, id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Void godoc
// @Summary      Void an open ticket
// @Description  Cancels an open ticket without billing and frees its slot. Supervisor only.
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                 true "Ticket UUID"
// @Param        body body dto.VoidTicketRequest  true "Void reason"
// @Success      204
// @Failure      404  {object} apierror.APIError
// @Failure      409  {object} apierror.APIError
// @Router       /v1/tickets/{id} [delete]
func (h *TicketsHandler) Void(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	var req dto.VoidTicketRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	actorID, _ := uuid.Parse(claims.UserID)

	if err := h.svc.Void(c.Request.Context(), actorID, id, req.Reason); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TicketsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Search godoc
// @Summary      Search tickets
// @Description  Matches ticket number or license plate, case-insensitive.
// @Tags         tickets
// @Produce      json
// @Security     BearerAuth
// @Param        q query string true "Ticket number or plate fragment"
// @Success      200 {array} dto.TicketResponse
// @Router       /v1/tickets/search [get]
func (h *TicketsHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, apierror.New("Query parameter q is required"))
		return
	}
	resp, err := h.svc.Search(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Search failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// List godoc
// @Summary      List tickets
// @Description  Paginated ticket list filtered by date and status.
// @Tags         tickets
// @Produce      json
// @Security     BearerAuth
// @Param        date   query string false "Date YYYY-MM-DD (default: today)"
// @Param        status query string false "pending | paid | cancelled | all"
// @Param        page   query int    false "Page (default 1)"
// @Param        limit  query int    false "Rows per page (default 50)"
// @Success      200    {object} dto.TicketListResponse
// @Router       /v1/tickets [get]
func (h *TicketsHandler) List(c *gin.Context) {
	var filter dto.TicketFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list tickets"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Receipt godoc
// @Summary      Download receipt PDF
// @Tags         tickets
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id path string true "Ticket UUID"
// @Success      200 {file} file
// @Failure      404 {object} apierror.APIError
// @Router       /v1/tickets/{id}/receipt [get]
func (h *TicketsHandler) Receipt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	path, err := h.svc.ReceiptPDF(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.FileAttachment(path, "receipt.pdf")
}

// EmailReceipt godoc
// @Summary      Email the receipt PDF
// @Description  Renders the receipt for a settled ticket and queues it for delivery.
// @Tags         tickets
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                  true "Ticket UUID"
// @Param        body body dto.EmailReceiptRequest true "Recipient address"
// @Success      202
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError
// @Router       /v1/tickets/{id}/receipt/email [post]
func (h *TicketsHandler) EmailReceipt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	var req dto.EmailReceiptRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.EmailReceipt(c.Request.Context(), id, req.ToEmail); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusAccepted)
}
