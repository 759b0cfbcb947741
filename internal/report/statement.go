// Package report renders an early exit's settlement as a spreadsheet both
// parties can keep.
package report

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const SheetName = "Settlement"

var ErrNoSettlement = errors.New("early exit has no settlement yet")

type row struct {
	label string
	value any
}

// WriteStatement writes an xlsx statement for exit to w. The exit must carry
// its booking and settlement; the inspection is optional.
func WriteStatement(w io.Writer, exit *models.EarlyExitRequest) error {
	if exit.Settlement == nil {
		return ErrNoSettlement
	}
	if exit.Booking == nil {
		return fmt.Errorf("early exit %d has no booking loaded", exit.ID)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	b, s := exit.Booking, exit.Settlement
	rows := []row{
		{"Early exit", exit.ID},
		{"Booking", b.ID},
		{"Property", b.PropertyID},
		{"Tenant", b.TenantID},
		{"Lease", fmt.Sprintf("%s to %s", date(b.StartDate), date(b.EndDate))},
		{"Requested on", date(exit.RequestDate)},
		{"Desired move-out", date(exit.DesiredMoveOut)},
		{"Notice given (days)", exit.NoticeGivenDays},
		{"", nil},
		{"Monthly rent", amount(b.MonthlyRent)},
		{"Security deposit", amount(b.SecurityDeposit)},
		{"Penalty", amount(exit.PenaltyAmount)},
		{"Deductions", amount(exit.Deductions)},
		{"", nil},
		{"Total due", amount(s.TotalDue)},
		{"Total credit", amount(s.TotalCredit)},
		{"Net refund to tenant", amount(s.NetRefundToTenant)},
		{"Net payable to owner", amount(s.NetPayableToOwner)},
		{"Status", string(s.Status)},
	}
	if s.AcceptedAt != nil {
		rows = append(rows, row{"Accepted at", s.AcceptedAt.UTC().Format(time.RFC3339)})
	}
	if exit.Inspection != nil && exit.Inspection.Notes != "" {
		rows = append(rows, row{"Inspection notes", exit.Inspection.Notes})
	}
	if s.DisputeComments != "" {
		rows = append(rows, row{"Comments", s.DisputeComments})
	}

	for i, r := range rows {
		if r.label == "" {
			continue
		}
		if err := f.SetCellValue(SheetName, fmt.Sprintf("A%d", i+1), r.label); err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, fmt.Sprintf("B%d", i+1), r.value); err != nil {
			return err
		}
	}
	if err := f.SetColWidth(SheetName, "A", "A", 24); err != nil {
		return err
	}
	if err := f.SetColWidth(SheetName, "B", "B", 40); err != nil {
		return err
	}

	return f.Write(w)
}

func date(t time.Time) string {
	return t.Format(time.DateOnly)
}

func amount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}
