package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/clubhouse/internal/invites/store"
)

// HousekeepingService periodically marks overdue pending invites as expired
// so listings reflect reality. Redemption checks expiry on its own and never
// depends on a sweep having run.
type HousekeepingService struct {
	Store        store.Store
	Logger       *slog.Logger
	Interval     time.Duration
	StoreTimeout time.Duration
	Now          func() time.Time

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService creates a new housekeeping service with the given interval.
// If interval is 0 or negative, defaults to 1 hour.
func NewHousekeepingService(store store.Store, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = 1 * time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &HousekeepingService{
		Store:    store,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start launches the background worker. Call Stop to shut it down.
func (s *HousekeepingService) Start() {
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until an in-progress sweep has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
	s.Logger.Info("housekeeping service stopped")
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.sweep()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) sweep() {
	if _, err := s.ExpireOverdue(context.Background()); err != nil {
		s.Logger.Error("failed to expire overdue invites", "error", err)
	}
}

// ExpireOverdue runs a single pass and reports how many invites moved from
// pending to expired.
func (s *HousekeepingService) ExpireOverdue(ctx context.Context) (int64, error) {
	timeout := s.StoreTimeout
	if timeout <= 0 {
		timeout = DefaultStoreTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	clock := s.Now
	if clock == nil {
		clock = time.Now
	}

	n, err := s.Store.Invites().ExpireOverdueInvites(ctx, clock().UTC().Truncate(time.Millisecond))
	if err != nil {
		return 0, storageErr(err)
	}
	if n > 0 {
		s.Logger.Info("expired overdue invites", "count", n)
	} else {
		s.Logger.Debug("no overdue invites")
	}
	return n, nil
}
