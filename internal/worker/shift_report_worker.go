package worker

// shift_report_worker.go
// Builds the end-of-shift reconciliation summary for a closed shift and
// emails it to the cashier.

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"parkgate/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ShiftReportWorker struct {
	shifts       repository.ShiftRepository
	mailer       Mailer
	facilityName string
}

// Mailer is the sending surface the worker needs; satisfied by infra.Mailer.
type Mailer interface {
	Send(to, subject, body, pdfPath string) error
}

func NewShiftReportWorker(shifts repository.ShiftRepository, mailer Mailer, facilityName string) *ShiftReportWorker {
	return &ShiftReportWorker{shifts: shifts, mailer: mailer, facilityName: facilityName}
}

func (w *ShiftReportWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ShiftReportPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("shift report: invalid payload: %w", err)
	}
	shiftID, err := uuid.Parse(payload.ShiftID)
	if err != nil {
		return fmt.Errorf("shift report: invalid shift id %q", payload.ShiftID)
	}

	shift, err := w.shifts.FindByID(ctx, shiftID)
	if err != nil {
		return fmt.Errorf("shift report: load shift: %w", err)
	}
	if shift.Cashier == nil || shift.Cashier.Email == nil || *shift.Cashier.Email == "" {
		log.Warn().Str("shift_id", payload.ShiftID).Msg("shift report: cashier has no email — skipping")
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s — shift report %s\n\n", w.facilityName, shift.ShiftDate.Format("2006-01-02"))
	fmt.Fprintf(&b, "Cashier:         %s\n", shift.Cashier.Name)
	fmt.Fprintf(&b, "Opened:          %s\n", shift.OpenTime.Format("15:04"))
	if shift.CloseTime != nil {
		fmt.Fprintf(&b, "Closed:          %s\n", shift.CloseTime.Format("15:04"))
	}
	fmt.Fprintf(&b, "Opening amount:  %s\n", shift.OpeningAmount.StringFixed(2))
	if shift.TotalCollected != nil {
		fmt.Fprintf(&b, "Total collected: %s\n", shift.TotalCollected.StringFixed(2))
	}
	if shift.ClosingAmount != nil {
		fmt.Fprintf(&b, "Closing amount:  %s\n", shift.ClosingAmount.StringFixed(2))
	}
	if shift.Variance != nil && shift.VarianceClass != nil {
		fmt.Fprintf(&b, "Variance:        %s (%s)\n", shift.Variance.StringFixed(2), *shift.VarianceClass)
	}
	if shift.Notes != nil && *shift.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", *shift.Notes)
	}

	subject := fmt.Sprintf("Shift report %s — %s", shift.ShiftDate.Format("2006-01-02"), shift.Cashier.Name)
	if err := w.mailer.Send(*shift.Cashier.Email, subject, b.String(), ""); err != nil {
		return fmt.Errorf("shift report: send email: %w", err)
	}
	log.Info().Str("shift_id", payload.ShiftID).Str("to", *shift.Cashier.Email).
		Msg("shift report sent")
	return nil
}
