// Package interval implements half-open date ranges and the per-property
// conflict check that keeps blocking bookings from overlapping.
package interval

import (
	"context"
	"fmt"
	"time"

	"github.com/Eursukkul/booking-microservice/tenancy-service/internal/models"
	"gorm.io/gorm"
)

const day = 24 * time.Hour

// Range is the half-open interval [Start, End) of calendar days.
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange normalises both ends to calendar days.
func NewRange(start, end time.Time) Range {
	return Range{Start: Day(start), End: Day(end)}
}

// Days is the number of nights covered by the range. Negative for inverted ranges.
func (r Range) Days() int {
	return DaysBetween(r.Start, r.End)
}

// Overlaps reports whether a and b share at least one day. Ranges that only
// touch at a boundary do not overlap.
func Overlaps(a, b Range) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Day returns midnight UTC of t's calendar date in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns to - from in whole calendar days.
func DaysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)) / day)
}

// AddDays shifts a calendar day by n days.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// FindBlockingFunc returns the blocking bookings of a property that intersect r,
// leaving out excludeID when it is non-zero.
type FindBlockingFunc func(ctx context.Context, tx *gorm.DB, propertyID uint, r Range, excludeID uint) ([]models.Booking, error)

// Conflict describes one existing booking that collides with a candidate range.
type Conflict struct {
	BookingID    uint                 `json:"booking_id"`
	Status       models.BookingStatus `json:"status"`
	OverlapStart time.Time            `json:"overlap_start"`
	OverlapEnd   time.Time            `json:"overlap_end"`
}

// Index answers overlap queries for a property. It has no state of its own;
// callers pass the transaction that will carry the dependent write.
type Index struct {
	findBlocking FindBlockingFunc
}

func NewIndex(find FindBlockingFunc) *Index {
	return &Index{findBlocking: find}
}

// Conflicts lists every blocking booking overlapping r.
func (ix *Index) Conflicts(ctx context.Context, tx *gorm.DB, propertyID uint, r Range, excludeID uint) ([]Conflict, error) {
	candidates, err := ix.findBlocking(ctx, tx, propertyID, r, excludeID)
	if err != nil {
		return nil, fmt.Errorf("checking conflicts: %w", err)
	}

	var conflicts []Conflict
	for _, b := range candidates {
		// finder results are re-filtered in memory
		if b.ID == excludeID || !b.Status.Blocking() {
			continue
		}
		other := NewRange(b.StartDate, b.EndDate)
		if !Overlaps(r, other) {
			continue
		}

		overlapStart := r.Start
		if other.Start.After(overlapStart) {
			overlapStart = other.Start
		}
		overlapEnd := r.End
		if other.End.Before(overlapEnd) {
			overlapEnd = other.End
		}

		conflicts = append(conflicts, Conflict{
			BookingID:    b.ID,
			Status:       b.Status,
			OverlapStart: overlapStart,
			OverlapEnd:   overlapEnd,
		})
	}

	return conflicts, nil
}

// HasConflict reports whether r collides with any blocking booking.
func (ix *Index) HasConflict(ctx context.Context, tx *gorm.DB, propertyID uint, r Range, excludeID uint) (bool, error) {
	conflicts, err := ix.Conflicts(ctx, tx, propertyID, r, excludeID)
	if err != nil {
		return false, err
	}
	return len(conflicts) > 0, nil
}
