package scheduler

import (
	"errors"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultInterval bounds how long a missed change notification can go unseen.
const DefaultInterval = time.Second

// ErrAlreadyRunning is returned when Start is called on a running poller.
var ErrAlreadyRunning = errors.New("poller already running")

// Poller runs the cart reconciliation job on a fixed cron interval.
type Poller struct {
	interval time.Duration
	logger   *zap.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// NewPoller creates a stopped poller. Cron schedules have one second
// granularity, so shorter intervals are rounded up to one second and
// fractions of a second are dropped.
func NewPoller(interval time.Duration, logger *zap.Logger) *Poller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval < time.Second {
		interval = DefaultInterval
	}
	interval = interval.Truncate(time.Second)
	return &Poller{interval: interval, logger: logger}
}

// Interval returns the effective polling interval.
func (p *Poller) Interval() time.Duration {
	return p.interval
}

// Running reports whether the poller is scheduled.
func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cron != nil
}

// Start schedules job every interval. Overlapping runs are skipped and panics
// are recovered and logged.
func (p *Poller) Start(job func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cron != nil {
		return ErrAlreadyRunning
	}

	cronLog := cronLogger{p.logger.Sugar()}
	// Recover must sit inside SkipIfStillRunning, which only releases its
	// guard when the wrapped job returns normally.
	c := cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cronLog),
		cron.Recover(cronLog),
	))
	c.Schedule(cron.Every(p.interval), cron.FuncJob(job))
	c.Start()

	p.cron = c
	p.logger.Info("starting cart poller", zap.Duration("interval", p.interval))
	return nil
}

// Stop unschedules the job and waits for a running invocation to return.
func (p *Poller) Stop() {
	p.mu.Lock()
	c := p.cron
	p.cron = nil
	p.mu.Unlock()

	if c == nil {
		return
	}

	p.logger.Info("stopping cart poller")
	<-c.Stop().Done()
}

// cronLogger adapts zap to cron's logger interface.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
