package infra

// pdf.go — receipt PDF generation using go-pdf/fpdf.
// Renders A7-size thermal-style parking receipts with:
//   - Facility name header
//   - Ticket and receipt numbers
//   - Slot, plate, check-in/check-out times
//   - Billed hours line
//   - Bold total and payment method
//
// The output file is saved to storagePath/receipt_{ticketNumber}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"parkgate/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateReceiptPDF renders the receipt for a settled ticket. The ticket must
// have Slot, Vehicle and Payment preloaded. Returns the absolute path of the
// generated file.
func GenerateReceiptPDF(t *model.Ticket, facilityName, storagePath string) (string, error) {
	if t.Payment == nil || t.Slot == nil || t.Vehicle == nil {
		return "", fmt.Errorf("pdf: ticket %s is missing receipt associations", t.TicketNumber)
	}
	if err := os.MkdirAll(storagePath, 0755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	fileName := fmt.Sprintf("receipt_%s.pdf", strings.ToLower(t.TicketNumber))
	filePath := filepath.Join(storagePath, fileName)

	// A7 ≈ 74mm × 105mm — close to thermal receipt paper (custom size, "A7" is not in fpdf's named list)
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.AddPage()

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8 // total margins = 8mm

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, facilityName, "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, "Parking Receipt", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	// ── Ticket info ───────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Ticket %s", t.TicketNumber), "", 1, "L", false, 0, "")
	pdf.CellFormat(contentW, 5, fmt.Sprintf("Receipt %s", t.Payment.ReceiptNumber), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, t.Payment.PaymentDate.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	// ── Separator ────────────────────────────────────────────────────────────
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	colLabel := contentW * 0.45
	colValue := contentW * 0.55

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "", 7)
		pdf.CellFormat(colLabel, 5, label, "", 0, "L", false, 0, "")
		pdf.CellFormat(colValue, 5, value, "", 1, "R", false, 0, "")
	}

	row("Slot:", t.Slot.Number)
	row("Plate:", t.Vehicle.LicensePlate)
	row("Check-in:", t.CheckInTime.Format("02/01 15:04"))
	if t.CheckOutTime != nil {
		row("Check-out:", t.CheckOutTime.Format("02/01 15:04"))
	}
	if t.DurationHours != nil {
		row("Duration:", t.DurationHours.StringFixed(2)+" h")
	}
	row("Hourly rate:", "$"+t.Slot.HourlyRate.StringFixed(2))

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Total ─────────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(colLabel, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(colValue, 6, "$"+t.Payment.Amount.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(colLabel, 4, "Paid ("+t.Payment.Method+")", "", 0, "L", false, 0, "")
	ref := ""
	if t.Payment.ReferenceNumber != nil {
		ref = *t.Payment.ReferenceNumber
	}
	pdf.CellFormat(colValue, 4, ref, "", 1, "R", false, 0, "")

	// ── Footer ────────────────────────────────────────────────────────────────
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, "Thank you for your visit!", "", 1, "C", false, 0, "")

	if err := pdf.OutputFileAndClose(filePath); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}

	return filePath, nil
}
