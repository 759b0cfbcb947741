package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// Notification is a message for one user, delivered by an external channel.
type Notification struct {
	Recipient string `json:"recipient"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	Link      string `json:"link,omitempty"`
}

type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// AppointmentCanceller cancels the viewing appointments tied to a booking.
type AppointmentCanceller interface {
	CancelAppointments(ctx context.Context, bookingID uint) error
}

// Clock returns the current instant. Services derive "today" from it.
type Clock func() time.Time

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Notification) error { return nil }

type nopAppointments struct{}

func (nopAppointments) CancelAppointments(context.Context, uint) error { return nil }

// Decision is an owner's verdict on a pending booking or an exit request.
type Decision int

const (
	DecisionApprove Decision = iota + 1
	DecisionReject
)

func ParseDecision(s string) (Decision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "approve":
		return DecisionApprove, nil
	case "reject":
		return DecisionReject, nil
	default:
		return 0, fmt.Errorf("%w: decision must be approve or reject", ErrValidation)
	}
}

func (d Decision) String() string {
	switch d {
	case DecisionApprove:
		return "approve"
	case DecisionReject:
		return "reject"
	default:
		return "unknown"
	}
}

// notifyAll delivers notifications after a commit. Delivery failures are
// logged and never undo the committed change.
func notifyAll(ctx context.Context, n Notifier, component string, notes ...Notification) {
	for _, note := range notes {
		if note.Recipient == "" {
			continue
		}
		if err := n.Notify(ctx, note); err != nil {
			log.Printf("[%s] failed to notify %s: %v", component, note.Recipient, err)
		}
	}
}

type options struct {
	now          Clock
	notifier     Notifier
	appointments AppointmentCanceller
}

type Option func(*options)

func WithClock(c Clock) Option {
	return func(o *options) { o.now = c }
}

func WithNotifier(n Notifier) Option {
	return func(o *options) { o.notifier = n }
}

func WithAppointmentCanceller(a AppointmentCanceller) Option {
	return func(o *options) { o.appointments = a }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, notifier: nopNotifier{}, appointments: nopAppointments{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
