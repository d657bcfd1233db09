package quota

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Sweeper defines a public type used by the token engine APIs.
//
// Sweeper drives [Store.Sweep] on a fixed interval from an owned goroutine.
// It must be stopped at process shutdown; Stop is idempotent and waits for the
// goroutine to exit.
type Sweeper struct {
	store    Store
	clock    clockwork.Clock
	interval time.Duration
	onSweep  func(removed int)

	done     chan struct{}
	wg       sync.WaitGroup
	startMu  sync.Mutex
	started  bool
	stopOnce sync.Once
}

// NewSweeper describes the newsweeper operation and its observable behavior.
//
// onSweep may be nil; when set it is invoked after every sweep that removed at
// least one record.
func NewSweeper(store Store, clock clockwork.Clock, interval time.Duration, onSweep func(removed int)) *Sweeper {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		store:    store,
		clock:    clock,
		interval: interval,
		onSweep:  onSweep,
		done:     make(chan struct{}),
	}
}

// Start describes the start operation and its observable behavior.
//
// Start is a no-op when the sweeper is already running.
func (s *Sweeper) Start() {
	s.startMu.Lock()
	defer s.startMu.Unlock()
	if s.started {
		return
	}
	s.started = true

	s.wg.Add(1)
	go s.run()
}

// Stop describes the stop operation and its observable behavior.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)
	})
	s.wg.Wait()
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.Chan():
			removed, err := s.store.Sweep(context.Background(), s.clock.Now().Unix())
			if err != nil {
				continue
			}
			if removed > 0 && s.onSweep != nil {
				s.onSweep(removed)
			}
		case <-s.done:
			return
		}
	}
}
