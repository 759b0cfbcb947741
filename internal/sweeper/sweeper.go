package sweeper

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// LeaseCompleter closes bookings whose lease has ended.
type LeaseCompleter interface {
	CompleteEndedLeases(ctx context.Context) (int, error)
}

// Sweeper runs the lease-completion pass on a cron schedule.
type Sweeper struct {
	cron    *cron.Cron
	leases  LeaseCompleter
	timeout time.Duration
	wg      sync.WaitGroup
}

func New(leases LeaseCompleter) *Sweeper {
	return &Sweeper{
		cron:    cron.New(),
		leases:  leases,
		timeout: time.Minute,
	}
}

// Start schedules the sweep with a standard cron spec or descriptor
// such as "@daily" and runs one pass immediately.
func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.RunOnce(context.Background())
	}()

	s.cron.Start()
	log.Printf("[Sweeper] started with schedule %s", schedule)
	return nil
}

// Stop waits for any running pass, including the one started by Start.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.wg.Wait()
	log.Println("[Sweeper] stopped")
}

// RunOnce performs a single sweep and returns how many leases were completed.
func (s *Sweeper) RunOnce(ctx context.Context) int {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.leases.CompleteEndedLeases(ctx)
	if err != nil {
		log.Printf("[Sweeper] lease completion failed: %v", err)
		return 0
	}
	if n > 0 {
		log.Printf("[Sweeper] completed %d ended lease(s)", n)
	}
	return n
}
