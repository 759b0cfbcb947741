// Package penalty computes the early-exit penalty owed for leaving a lease
// before its end date.
package penalty

import (
	"time"

	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/interval"
	"github.com/shopspring/decimal"
)

const daysPerMonth = 30

var (
	StandardRate = decimal.NewFromInt(1)
	LockInRate   = decimal.NewFromFloat(1.5)
)

type Terms struct {
	MonthlyRent    decimal.Decimal
	LeaseEnd       time.Time
	DesiredMoveOut time.Time
	LockInMonths   int
}

type Result struct {
	RemainingDays   int
	RemainingMonths decimal.Decimal
	Rate            decimal.Decimal
	Amount          decimal.Decimal
}

// Calculate prices the unserved part of the lease. Inside the lock-in window
// the rate rises to 1.5x. The move-out date is assumed already validated.
func Calculate(t Terms) Result {
	days := interval.DaysBetween(t.DesiredMoveOut, t.LeaseEnd)
	dayCount := decimal.NewFromInt(int64(days))
	months := dayCount.Div(decimal.NewFromInt(daysPerMonth))

	rate := StandardRate
	if t.LockInMonths > 0 && months.LessThan(decimal.NewFromInt(int64(t.LockInMonths))) {
		rate = LockInRate
	}

	// multiply before dividing so whole-month cases stay exact
	amount := t.MonthlyRent.Mul(dayCount).Mul(rate).Div(decimal.NewFromInt(daysPerMonth)).Round(2)
	if amount.IsNegative() {
		amount = decimal.Zero
	}

	return Result{
		RemainingDays:   days,
		RemainingMonths: months.Round(4),
		Rate:            rate,
		Amount:          amount,
	}
}

// NoticeDays is the notice a tenant gives by asking on today to leave on moveOut.
func NoticeDays(today, moveOut time.Time) int {
	return interval.DaysBetween(today, moveOut)
}
