// Package source drives the record writer from a fixed-interval timer.
//
// A Source runs on a single goroutine. Each firing samples one record,
// persists it, and only then arms the next timer, so two persists are never
// in flight at the same time.
package source

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/0xRadioAc7iv/procstore/internal/record"
)

// DefaultInterval is used when a Source is created with a non-positive
// interval.
const DefaultInterval = 100 * time.Millisecond

type State int32

const (
	StateIdle   State = iota // waiting for the timer
	StateFiring              // sampling and persisting a record
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFiring:
		return "firing"
	default:
		return "unknown"
	}
}

// Tick outcomes reported to an Observer.
const (
	OutcomePersisted    = "persisted"
	OutcomePersistError = "persist_error"
	OutcomeSampleError  = "sample_error"
)

// Sampler produces the record for one firing.
type Sampler interface {
	Sample(ctx context.Context) (record.Record, error)
}

// Persister stores one record. *ringwriter.Writer satisfies it.
type Persister interface {
	Persist(rec record.Record) (int, error)
}

type Observer interface {
	ObserveTick(outcome string)
}

type Source struct {
	interval  time.Duration
	sampler   Sampler
	persister Persister
	logger    *slog.Logger
	observer  Observer

	state   atomic.Int32
	ticks   atomic.Uint64
	lastErr atomic.Pointer[error]
}

type Option func(*Source)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Source) {
		s.logger = logger
	}
}

func WithObserver(o Observer) Option {
	return func(s *Source) {
		s.observer = o
	}
}

func New(interval time.Duration, sampler Sampler, persister Persister, opts ...Option) *Source {
	if interval <= 0 {
		interval = DefaultInterval
	}

	s := &Source{
		interval:  interval,
		sampler:   sampler,
		persister: persister,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Run fires every interval until ctx is cancelled. Failed samples and
// persists are logged and never stop the loop.
func (s *Source) Run(ctx context.Context) {
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	for {
		select {
		case <-timer.C:
			s.fire(ctx)
			timer.Reset(s.interval)

		case <-ctx.Done():
			return
		}
	}
}

func (s *Source) fire(ctx context.Context) {
	s.state.Store(int32(StateFiring))
	defer s.state.Store(int32(StateIdle))

	s.ticks.Add(1)

	rec, err := s.sampler.Sample(ctx)
	if err != nil {
		s.logger.Error("sample error", "error", err)
		s.finish(OutcomeSampleError, err)
		return
	}

	n, err := s.persister.Persist(rec)
	if err != nil {
		s.logger.Error("persist error", "bytes", n, "error", err)
		s.finish(OutcomePersistError, err)
		return
	}

	s.logger.Debug("record persisted", "bytes", n)
	s.finish(OutcomePersisted, nil)
}

func (s *Source) finish(outcome string, err error) {
	if err != nil {
		s.lastErr.Store(&err)
	} else {
		s.lastErr.Store(nil)
	}
	if s.observer != nil {
		s.observer.ObserveTick(outcome)
	}
}

func (s *Source) State() State {
	return State(s.state.Load())
}

// Ticks returns how many times the source has fired.
func (s *Source) Ticks() uint64 {
	return s.ticks.Load()
}

// LastError returns the error of the most recent firing, or nil if it
// succeeded.
func (s *Source) LastError() error {
	if p := s.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}

func (s *Source) Interval() time.Duration {
	return s.interval
}
