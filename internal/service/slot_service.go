package service

import (
	"context"
	"errors"
	"time"

	"parkgate/internal/audit"
	"parkgate/internal/dto"
	"parkgate/internal/model"
	"parkgate/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SlotService owns slot occupancy state. Reserve and Release are the only
// transitions the ticket lifecycle uses; everything else is administration.
type SlotService interface {
	// Reserve atomically takes a vacant slot for a check-in.
	Reserve(ctx context.Context, slotID uuid.UUID) (*model.Slot, error)
	// Release returns a slot to vacant; idempotent.
	Release(ctx context.Context, slotID uuid.UUID) error
	// SetStatus is the out-of-band administrative override.
	SetStatus(ctx context.Context, actorID, slotID uuid.UUID, status string) error

	Create(ctx context.Context, req dto.CreateSlotRequest) (*dto.SlotResponse, error)
	Update(ctx context.Context, slotID uuid.UUID, req dto.UpdateSlotRequest) (*dto.SlotResponse, error)
	Deactivate(ctx context.Context, slotID uuid.UUID) error
	List(ctx context.Context, status string) ([]dto.SlotResponse, error)
	Occupancy(ctx context.Context) (*dto.OccupancyResponse, error)
}

type slotService struct {
	repo    repository.SlotRepository
	tickets repository.TicketRepository
	sink    audit.Sink
}

func NewSlotService(repo repository.SlotRepository, tickets repository.TicketRepository, sink audit.Sink) SlotService {
	return &slotService{repo: repo, tickets: tickets, sink: sink}
}

// ── Reserve / Release ─────────────────────────────────────────────────────────

func (s *slotService) Reserve(ctx context.Context, slotID uuid.UUID) (*model.Slot, error) {
	slot, err := s.repo.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	if !slot.Active {
		return nil, ErrSlotInactive
	}

	// Single conditional UPDATE; losing a concurrent race reads as not-vacant.
	won, err := s.repo.Reserve(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, ErrSlotUnavailable
	}
	slot.Status = "occupied"
	return slot, nil
}

func (s *slotService) Release(ctx context.Context, slotID uuid.UUID) error {
	return s.repo.Release(ctx, slotID)
}

// ── SetStatus ─────────────────────────────────────────────────────────────────
// Refuses to clobber a slot that still has an open ticket; the lifecycle owns
// that transition.

func (s *slotService) SetStatus(ctx context.Context, actorID, slotID uuid.UUID, status string) error {
	slot, err := s.repo.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSlotNotFound
		}
		return err
	}

	if slot.Status == "occupied" && status != "occupied" {
		if _, err := s.tickets.FindOpenBySlot(ctx, slotID); err == nil {
			return ErrSlotOccupied
		}
	}

	if err := s.repo.SetStatus(ctx, slotID, status); err != nil {
		return err
	}

	s.sink.Emit(ctx, audit.Event{
		ActorID:    actorID,
		Action:     audit.ActionSlotStatus,
		EntityType: "slot",
		EntityID:   slotID.String(),
		Before:     []audit.Field{{Key: "status", Value: slot.Status}},
		After:      []audit.Field{{Key: "status", Value: status}},
		Timestamp:  time.Now().UTC(),
	})
	return nil
}

// ── Administration ────────────────────────────────────────────────────────────

func (s *slotService) Create(ctx context.Context, req dto.CreateSlotRequest) (*dto.SlotResponse, error) {
	slot := &model.Slot{
		Number:     req.Number,
		Status:     "vacant",
		Type:       req.Type,
		HourlyRate: req.HourlyRate,
		DailyRate:  req.DailyRate,
		Active:     true,
	}
	if err := s.repo.Create(ctx, slot); err != nil {
		return nil, err
	}
	return slotToResponse(slot), nil
}

func (s *slotService) Update(ctx context.Context, slotID uuid.UUID, req dto.UpdateSlotRequest) (*dto.SlotResponse, error) {
	slot, err := s.repo.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSlotNotFound
		}
		return nil, err
	}
	if req.Type != "" {
		slot.Type = req.Type
	}
	if req.HourlyRate != nil {
		slot.HourlyRate = *req.HourlyRate
	}
	if req.DailyRate != nil {
		slot.DailyRate = *req.DailyRate
	}
	if err := s.repo.Update(ctx, slot); err != nil {
		return nil, err
	}
	return slotToResponse(slot), nil
}

func (s *slotService) Deactivate(ctx context.Context, slotID uuid.UUID) error {
	slot, err := s.repo.FindByID(ctx, slotID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSlotNotFound
		}
		return err
	}
	if slot.Status == "occupied" {
		return ErrSlotOccupied
	}
	slot.Active = false
	slot.Status = "out_of_service"
	return s.repo.Update(ctx, slot)
}

func (s *slotService) List(ctx context.Context, status string) ([]dto.SlotResponse, error) {
	slots, err := s.repo.List(ctx, status)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SlotResponse, 0, len(slots))
	for i := range slots {
		out = append(out, *slotToResponse(&slots[i]))
	}
	return out, nil
}

func (s *slotService) Occupancy(ctx context.Context) (*dto.OccupancyResponse, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	resp := &dto.OccupancyResponse{
		Vacant:       int(counts["vacant"]),
		Occupied:     int(counts["occupied"]),
		Reserved:     int(counts["reserved"]),
		OutOfService: int(counts["out_of_service"]),
	}
	resp.Total = resp.Vacant + resp.Occupied + resp.Reserved + resp.OutOfService
	return resp, nil
}

func slotToResponse(s *model.Slot) *dto.SlotResponse {
	return &dto.SlotResponse{
		ID:         s.ID.String(),
		Number:     s.Number,
		Status:     s.Status,
		Type:       s.Type,
		HourlyRate: s.HourlyRate,
		DailyRate:  s.DailyRate,
		Active:     s.Active,
	}
}
