// Package network tracks whether the backend node caught up with the
// network. Wallet polling is paused while it has not.
package network

import (
	"context"
	"log/slog"
	"time"

	"github.com/congo-pay/walletsync/internal/request"
	"github.com/congo-pay/walletsync/internal/wallet"
)

// ProgressSource reports the backend's sync progress.
type ProgressSource interface {
	GetSyncProgress(ctx context.Context) (wallet.SyncProgress, error)
}

// Status polls the backend sync progress.
type Status struct {
	source   ProgressSource
	request  *request.Request[wallet.SyncProgress]
	interval time.Duration
	logger   *slog.Logger
}

// NewStatus builds a sync status poller.
func NewStatus(source ProgressSource, interval time.Duration, logger *slog.Logger) *Status {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &Status{
		source:   source,
		request:  request.New(source.GetSyncProgress),
		interval: interval,
		logger:   logger,
	}
}

// Check queries the backend once.
func (s *Status) Check(ctx context.Context) error {
	wasSynced := s.Synced()
	progress, err := s.request.Execute(ctx)
	if err != nil {
		return err
	}
	if synced := progress.Synced(); synced != wasSynced {
		s.logger.Info("network sync state changed",
			slog.Bool("synced", synced),
			slog.Float64("percentage", progress.Percentage()),
		)
	}
	return nil
}

// Synced reports whether the last check succeeded and found the node synced.
func (s *Status) Synced() bool {
	st := s.request.Status()
	return st.HasResult && st.Result.Synced()
}

// Progress returns the last known progress and the error of the last check.
func (s *Status) Progress() (wallet.SyncProgress, bool, error) {
	st := s.request.Status()
	return st.Result, st.HasResult, st.Err
}

// Run checks the backend immediately and then once per interval until ctx
// ends.
func (s *Status) Run(ctx context.Context) error {
	s.tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Status) tick(ctx context.Context) {
	if s.request.IsExecuting() {
		return
	}
	if err := s.Check(ctx); err != nil && ctx.Err() == nil {
		s.logger.Warn("sync progress check failed", slog.Any("error", err))
	}
}
