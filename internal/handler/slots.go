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

type SlotsHandler struct{ svc service.SlotService }

func NewSlotsHandler(svc service.SlotService) *SlotsHandler { return &SlotsHandler{svc: svc} }

// Create godoc
// @Summary      Create a slot
// @Tags         slots
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateSlotRequest true "New slot"
// @Success      201  {object} dto.SlotResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/slots [post]
func (h *SlotsHandler) Create(c *gin.Context) {
	var req dto.CreateSlotRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// List godoc
// @Summary      List slots
// @Tags         slots
// @Produce      json
// @Security     BearerAuth
// @Param        status query string false "vacant | occupied | reserved | out_of_service"
// @Success      200    {array} dto.SlotResponse
// @Router       /v1/slots [get]
func (h *SlotsHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to list slots"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Occupancy godoc
// @Summary      Facility occupancy snapshot
// @Tags         slots
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.OccupancyResponse
// @Router       /v1/slots/occupancy [get]
func (h *SlotsHandler) Occupancy(c *gin.Context) {
	resp, err := h.svc.Occupancy(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, apierror.New("Failed to compute occupancy"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SlotsHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	var req dto.UpdateSlotRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// SetStatus godoc
// @Summary      Administrative status override
// @Description  Forces a slot status out of band. Refused while an open ticket holds the slot. Supervisor only.
// @Tags         slots
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                   true "Slot UUID"
// @Param        body body dto.SetSlotStatusRequest true "Target status"
// @Success      204
// @Failure      409  {object} apierror.APIError
// @Router       /v1/slots/{id}/status [put]
func (h *SlotsHandler) SetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	var req dto.SetSlotStatusRequest
	if !bindAndValidate(c, &req) {
		return
	}
	claims := middleware.GetClaims(c)
	actorID, _ := uuid.Parse(claims.UserID)

	if err := h.svc.SetStatus(c.Request.Context(), actorID, id, req.Status); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SlotsHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), id); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
