package sampler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/lfsj/RealNerdStats/pkg/counters"
	"github.com/lfsj/RealNerdStats/pkg/types"
)

// State is the scheduler's position in the sampling cycle.
type State int

const (
	Idle State = iota
	Sampling
	Publishing
	Sleeping
	Shutdown
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Sampling:
		return "sampling"
	case Publishing:
		return "publishing"
	case Sleeping:
		return "sleeping"
	case Shutdown:
		return "shutdown"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SystemCollector gathers host-wide metrics for one tick.
type SystemCollector interface {
	Collect(ctx context.Context, store *counters.Store[string, types.Counters], seconds float64) (types.SystemMetrics, error)
}

// ProcessCollector gathers the ranked process list for one tick. totalMem is
// the memory total the system collector read for the same tick.
type ProcessCollector interface {
	Collect(ctx context.Context, store *counters.Store[int32, types.ProcessCounters], seconds float64, totalMem uint64) ([]types.ProcessRecord, error)
}

// Consumer receives every snapshot, in tick order. Consumers that implement
// io.Closer are closed when the sampler shuts down.
type Consumer interface {
	Consume(snap types.Snapshot) error
}

// Config controls the cadence of the loop.
type Config struct {
	Interval time.Duration
	MaxTicks uint64 // 0 runs until the context is cancelled
}

// Sampler drives fixed-interval ticks. It owns both counter stores and runs
// every collector and consumer on the calling goroutine.
type Sampler struct {
	cfg       Config
	sys       SystemCollector
	proc      ProcessCollector
	consumers []Consumer
	logger    *log.Logger

	sysStore  *counters.Store[string, types.Counters]
	procStore *counters.Store[int32, types.ProcessCounters]

	state     State
	seq       uint64
	lastSleep time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) bool
}

// New builds a sampler in the Idle state. A nil logger uses log.Default().
func New(cfg Config, sys SystemCollector, proc ProcessCollector, logger *log.Logger, consumers ...Consumer) (*Sampler, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("sampling interval must be positive, got %v", cfg.Interval)
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Sampler{
		cfg:       cfg,
		sys:       sys,
		proc:      proc,
		consumers: consumers,
		logger:    logger,
		sysStore:  counters.NewStore[string, types.Counters](),
		procStore: counters.NewStore[int32, types.ProcessCounters](),
		now:       time.Now,
		sleep:     sleepContext,
	}, nil
}

// State reports where the loop currently is.
func (s *Sampler) State() State {
	return s.state
}

// LastSleep reports how long the most recent cycle slept; 0 after an overrun.
func (s *Sampler) LastSleep() time.Duration {
	return s.lastSleep
}

// Run samples until ctx is cancelled, MaxTicks is reached or a collector fails.
// Cancellation is a clean exit and returns nil. Consumers are closed before
// Run returns, whatever the reason.
func (s *Sampler) Run(ctx context.Context) (err error) {
	defer func() {
		s.state = Shutdown
		err = errors.Join(err, s.closeConsumers())
	}()

	var prevStart time.Time
	for ticks := uint64(0); s.cfg.MaxTicks == 0 || ticks < s.cfg.MaxTicks; ticks++ {
		if ctx.Err() != nil {
			return nil
		}

		start := s.now()
		elapsed := s.cfg.Interval
		if !prevStart.IsZero() {
			elapsed = start.Sub(prevStart)
		}
		prevStart = start

		snap, err := s.Tick(ctx, elapsed)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("sampling tick %d: %w", s.seq+1, err)
		}

		s.state = Publishing
		s.publish(snap)

		if s.cfg.MaxTicks != 0 && ticks+1 == s.cfg.MaxTicks {
			break
		}

		s.lastSleep = max(0, s.cfg.Interval-s.now().Sub(start))
		s.state = Sleeping
		if !s.sleep(ctx, s.lastSleep) {
			return nil
		}
	}
	return nil
}

// Tick runs both collectors once over elapsed and returns the resulting snapshot.
func (s *Sampler) Tick(ctx context.Context, elapsed time.Duration) (types.Snapshot, error) {
	s.state = Sampling
	at := s.now()
	seconds := elapsed.Seconds()

	sys, err := s.sys.Collect(ctx, s.sysStore, seconds)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("collecting system metrics: %w", err)
	}
	procs, err := s.proc.Collect(ctx, s.procStore, seconds, sys.MemoryTotal)
	if err != nil {
		return types.Snapshot{}, fmt.Errorf("collecting processes: %w", err)
	}

	s.seq++
	return types.Snapshot{
		Seq:       s.seq,
		Timestamp: at,
		Elapsed:   elapsed,
		System:    sys,
		Processes: procs,
	}, nil
}

func (s *Sampler) publish(snap types.Snapshot) {
	for _, c := range s.consumers {
		if err := c.Consume(snap); err != nil {
			s.logger.Printf("snapshot %d: consumer failed: %v", snap.Seq, err)
		}
	}
}

func (s *Sampler) closeConsumers() error {
	var err error
	for _, c := range s.consumers {
		if closer, ok := c.(io.Closer); ok {
			err = errors.Join(err, closer.Close())
		}
	}
	s.consumers = nil
	return err
}

// sleepContext waits for d or until ctx is cancelled. It reports whether the
// loop should continue.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
