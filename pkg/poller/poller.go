package poller

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/iamusmankhan101/visioncare/pkg/logger"
)

const DefaultInterval = 10 * time.Second

type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseChecking
	PhaseStopped
)

func (p Phase) String() string {
	switch p {
	case PhaseChecking:
		return "checking"
	case PhaseStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// PollState is a snapshot of the poller's bookkeeping.
type PollState struct {
	LastKnownCount int64
	LastCheckedAt  time.Time
	Phase          Phase
}

// Poller periodically compares the record count against the last one it saw
// and emits a notification per new record. At most one check runs at a time;
// checks requested while one is running are dropped.
type Poller struct {
	source   RecordSource
	emitter  Emitter
	format   Formatter
	interval time.Duration
	log      *slog.Logger
	now      func() time.Time
	initial  *int64
	trigger  chan struct{}
	stop     chan struct{}
	stopOnce sync.Once
	checking atomic.Bool
	started  atomic.Bool
	loopDone chan struct{}

	mu          sync.Mutex
	stopped     bool
	looping     bool
	inflight    sync.WaitGroup
	lastCount   int64
	lastChecked time.Time
}

type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

// WithInitialCount skips priming the count from the source on Start.
func WithInitialCount(n int64) Option {
	return func(p *Poller) {
		p.initial = &n
	}
}

func WithFormatter(f Formatter) Option {
	return func(p *Poller) {
		if f != nil {
			p.format = f
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(p *Poller) {
		if l != nil {
			p.log = l
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) {
		if now != nil {
			p.now = now
		}
	}
}

func New(source RecordSource, emitter Emitter, opts ...Option) *Poller {
	p := &Poller{
		source:   source,
		emitter:  emitter,
		format:   OrderFormatter,
		interval: DefaultInterval,
		log:      slog.Default(),
		now:      time.Now,
		trigger:  make(chan struct{}),
		stop:     make(chan struct{}),
		loopDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.initial != nil {
		p.lastCount = *p.initial
	}
	return p
}

// Start primes the last known count and runs the loop until ctx is done or
// Stop is called.
func (p *Poller) Start(ctx context.Context) error {
	if !p.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	if p.isStopped() {
		return ErrStopped
	}

	if p.initial == nil {
		n, err := p.source.Count(ctx)
		if err != nil {
			p.started.Store(false)
			return errors.Join(ErrCountFailed, err)
		}
		p.mu.Lock()
		p.lastCount = n
		p.mu.Unlock()
	}

	// Stop may have run while the count was primed.
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return ErrStopped
	}
	p.looping = true
	last := p.lastCount
	p.mu.Unlock()

	p.log.LogAttrs(ctx, slog.LevelInfo, "poller started",
		logger.Component("poller"),
		slog.Int64("last_known_count", last),
		logger.Duration(p.interval),
	)

	go p.loop(ctx)
	return nil
}

// Trigger requests an immediate check. It is dropped when a check is already
// running or the loop is not waiting.
func (p *Poller) Trigger() {
	if p.checking.Load() {
		return
	}
	select {
	case p.trigger <- struct{}{}:
	default:
	}
}

// Visible is the foreground edge: the page or app became visible again.
func (p *Poller) Visible() {
	p.Trigger()
}

// Stop prevents further checks and waits for an in-flight one to finish.
// Safe to call more than once.
func (p *Poller) Stop() {
	p.mu.Lock()
	p.stopped = true
	looping := p.looping
	p.mu.Unlock()

	p.stopOnce.Do(func() { close(p.stop) })
	p.inflight.Wait()
	if looping {
		<-p.loopDone
	}
}

func (p *Poller) State() PollState {
	p.mu.Lock()
	defer p.mu.Unlock()

	phase := PhaseIdle
	switch {
	case p.stopped:
		phase = PhaseStopped
	case p.checking.Load():
		phase = PhaseChecking
	}
	return PollState{
		LastKnownCount: p.lastCount,
		LastCheckedAt:  p.lastChecked,
		Phase:          phase,
	}
}

// Check runs one cycle and returns the number of notifications emitted.
func (p *Poller) Check(ctx context.Context) (int, error) {
	if !p.checking.CompareAndSwap(false, true) {
		return 0, ErrCycleInFlight
	}
	defer p.checking.Store(false)

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return 0, ErrStopped
	}
	p.inflight.Add(1)
	last := p.lastCount
	p.mu.Unlock()
	defer p.inflight.Done()

	emitted, current, err := p.cycle(ctx, last)

	p.mu.Lock()
	p.lastChecked = p.now()
	if err == nil && current > last {
		p.lastCount = current
	}
	p.mu.Unlock()

	return emitted, err
}

func (p *Poller) cycle(ctx context.Context, last int64) (int, int64, error) {
	current, err := p.source.Count(ctx)
	if err != nil {
		return 0, last, errors.Join(ErrCountFailed, err)
	}
	if current <= last {
		return 0, current, nil
	}

	delta := int(current - last)
	records, err := p.source.Latest(ctx, delta)
	if err != nil {
		return 0, last, errors.Join(ErrFetchFailed, err)
	}
	if len(records) > delta {
		records = records[:delta]
	}

	p.log.LogAttrs(ctx, slog.LevelInfo, "new records detected",
		logger.Component("poller"),
		logger.Count("new", delta),
	)

	for i, r := range records {
		if err := p.emitter.Emit(ctx, p.format(r)); err != nil {
			return i, last, errors.Join(ErrEmitFailed, err)
		}
	}
	return len(records), current, nil
}

func (p *Poller) loop(ctx context.Context) {
	defer close(p.loopDone)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stop:
			return
		case <-ticker.C:
		case <-p.trigger:
		}

		if _, err := p.Check(ctx); err != nil {
			if errors.Is(err, ErrStopped) {
				return
			}
			p.log.LogAttrs(ctx, slog.LevelWarn, "poll cycle failed",
				logger.Component("poller"),
				logger.Error(err),
			)
		}
		// Ticks that fired during the cycle are discarded.
		ticker.Reset(p.interval)
	}
}

func (p *Poller) isStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}
