package diagram

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// sinkTimeout bounds a single sink write during background flushes
const sinkTimeout = 10 * time.Second

// maxWaitFactor caps how long a continuous stream of changes can postpone a
// write, in multiples of the debounce interval
const maxWaitFactor = 4

// Syncer debounces workspace snapshots and writes the latest one to every sink
// once no change has arrived for the configured interval, or at the latest
// maxWaitFactor intervals after the first unsaved change. Only mutations are
// synced; loading a workspace does not schedule a write.
type Syncer struct {
	sinks    []Sink
	interval time.Duration
	maxWait  time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	pending *Workspace
	lastErr error
	saves   int

	kick      chan struct{}
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// NewSyncer starts the background debounce loop
func NewSyncer(interval time.Duration, logger *zap.Logger, sinks ...Sink) *Syncer {
	if interval <= 0 {
		interval = DefaultSyncInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Syncer{
		sinks:    sinks,
		interval: interval,
		maxWait:  maxWaitFactor * interval,
		logger:   logger.Named("sync"),
		kick:     make(chan struct{}, 1),
		quit:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	go s.run()
	return s
}

// Notify records ws as the latest snapshot. It matches the Listener signature
// so it can be passed to Engine.Subscribe directly.
func (s *Syncer) Notify(ws Workspace) {
	s.mu.Lock()
	s.pending = &ws
	s.mu.Unlock()

	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Pending reports whether a snapshot is waiting to be written
func (s *Syncer) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Saves returns how many snapshots have been flushed
func (s *Syncer) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// LastError returns the error of the most recent flush, if any
func (s *Syncer) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Flush writes the pending snapshot immediately
func (s *Syncer) Flush(ctx context.Context) error {
	s.mu.Lock()
	ws := s.pending
	s.pending = nil
	s.mu.Unlock()

	if ws == nil {
		return nil
	}

	var errs []error
	for _, sink := range s.sinks {
		if err := sink.Save(ctx, *ws); err != nil {
			s.logger.Warn("sink write failed", zap.String("sink", sink.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		s.logger.Debug("workspace synced", zap.String("sink", sink.Name()), zap.Uint64("version", ws.Version))
	}
	err := errors.Join(errs...)

	s.mu.Lock()
	s.saves++
	s.lastErr = err
	s.mu.Unlock()
	return err
}

// Close stops the debounce loop and flushes any pending snapshot
func (s *Syncer) Close(ctx context.Context) error {
	s.closeOnce.Do(func() { close(s.quit) })
	select {
	case <-s.stopped:
	case <-ctx.Done():
		return ctx.Err()
	}
	return s.Flush(ctx)
}

func (s *Syncer) run() {
	defer close(s.stopped)

	var timer *time.Timer
	var fire <-chan time.Time
	var deadline time.Time
	for {
		select {
		case <-s.kick:
			now := time.Now()
			if fire == nil {
				deadline = now.Add(s.maxWait)
			}
			wait := max(min(s.interval, deadline.Sub(now)), 0)
			if timer == nil {
				timer = time.NewTimer(wait)
			} else {
				timer.Reset(wait)
			}
			fire = timer.C
		case <-fire:
			fire = nil
			ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
			_ = s.Flush(ctx)
			cancel()
		case <-s.quit:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}
