package service

import (
	"context"
	"log"
	"sync"
	"time"
)

// SweeperConfig holds configuration for the expired-code sweeper.
type SweeperConfig struct {
	// Interval is how often the sweep runs. Default: 5 minutes.
	Interval time.Duration
}

// CodeSweeper periodically clears expired access-code references from buyer
// rows so reissue is possible without waiting for a read to notice expiry.
type CodeSweeper struct {
	access    *AccessService
	config    SweeperConfig
	ticker    *time.Ticker
	stopCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewCodeSweeper creates a new sweeper.
func NewCodeSweeper(access *AccessService, config SweeperConfig) *CodeSweeper {
	if config.Interval == 0 {
		config.Interval = 5 * time.Minute
	}
	return &CodeSweeper{
		access: access,
		config: config,
		stopCh: make(chan struct{}),
	}
}

// Start begins the sweep loop.
func (s *CodeSweeper) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.mu.Unlock()

	log.Printf("[CodeSweeper] Started - Interval: %v", s.config.Interval)
	go s.run()
}

func (s *CodeSweeper) run() {
	for {
		select {
		case <-s.ticker.C:
			s.runSweep()
		case <-s.stopCh:
			log.Printf("[CodeSweeper] Stopped")
			return
		}
	}
}

func (s *CodeSweeper) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	swept, err := s.access.SweepExpired(ctx)
	if err != nil {
		log.Printf("[CodeSweeper] Error during sweep: %v", err)
		return
	}
	if swept > 0 {
		log.Printf("[CodeSweeper] Cleared %d expired access codes", swept)
	}
}

// Stop stops the sweeper.
func (s *CodeSweeper) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		s.isRunning = false
	})
}

// RunNow triggers an immediate sweep.
func (s *CodeSweeper) RunNow() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	return s.access.SweepExpired(ctx)
}
