// Package uploader relays case events to a Sink in timed, bounded batches
// without blocking the test run. Passed and failed events travel in two
// independent lanes with their own flush interval.
package uploader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"

	"tso/internal/config"
	"tso/internal/domain"
	"tso/internal/logging"
)

// Lane names a batcher queue
type Lane string

const (
	SuccessLane Lane = "success"
	FailureLane Lane = "failure"
)

// Options configure a Batcher. Zero values fall back to the config defaults.
type Options struct {
	SuccessInterval time.Duration
	FailureInterval time.Duration
	MaxBatchSize    int
	Clock           clock.Clock
	Log             *logging.Logger

	// OnFlush, if set, is called after every upload attempt from the lane's goroutine
	OnFlush func(lane Lane, n int, err error)
}

// OptionsFromConfig builds Options from the reporting settings
func OptionsFromConfig(cfg *config.Config, log *logging.Logger) Options {
	return Options{
		SuccessInterval: cfg.SuccessInterval,
		FailureInterval: cfg.FailureInterval,
		MaxBatchSize:    cfg.MaxBatchSize,
		Log:             log,
	}
}

// Batcher buffers events in two lanes and flushes each lane on its own timer
type Batcher struct {
	sink Sink
	opts Options

	success *lane
	failure *lane

	mu       sync.Mutex
	started  bool
	stopped  bool
	stopping chan struct{}
	wg       sync.WaitGroup
}

type lane struct {
	name     Lane
	interval time.Duration
	q        queue
}

// New creates a Batcher uploading to sink. Call Start before expecting flushes.
func New(sink Sink, opts Options) *Batcher {
	if opts.SuccessInterval <= 0 {
		opts.SuccessInterval = config.DefaultSuccessInterval
	}
	if opts.FailureInterval <= 0 {
		opts.FailureInterval = config.DefaultFailureInterval
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = config.DefaultMaxBatchSize
	}
	if opts.Clock == nil {
		opts.Clock = clock.NewClock()
	}
	return &Batcher{
		sink:     sink,
		opts:     opts,
		success:  &lane{name: SuccessLane, interval: opts.SuccessInterval},
		failure:  &lane{name: FailureLane, interval: opts.FailureInterval},
		stopping: make(chan struct{}),
	}
}

// Start launches both flush loops. Calls after the first are ignored.
func (b *Batcher) Start() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.started || b.stopped {
		return
	}
	b.started = true

	for _, l := range []*lane{b.success, b.failure} {
		b.wg.Add(1)
		go func(l *lane) {
			defer b.wg.Done()
			b.loop(l)
		}(l)
	}
}

// EnqueueSuccess queues a passed event. It never blocks on the upload.
func (b *Batcher) EnqueueSuccess(ev *domain.CaseEvent) {
	b.enqueue(b.success, ev)
}

// EnqueueFailure queues a failed event
func (b *Batcher) EnqueueFailure(ev *domain.CaseEvent) {
	b.enqueue(b.failure, ev)
}

// Enqueue routes ev to the lane matching its status
func (b *Batcher) Enqueue(ev *domain.CaseEvent) {
	if ev == nil {
		return
	}
	if ev.Passed() {
		b.EnqueueSuccess(ev)
		return
	}
	b.EnqueueFailure(ev)
}

func (b *Batcher) enqueue(l *lane, ev *domain.CaseEvent) {
	if ev == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		b.opts.Log.Warnf("dropping %s event after shutdown: %s", l.name, ev)
		return
	}
	l.q.push(message{event: ev})
}

// Shutdown pushes the stop marker into both lanes and waits for both
// loops to upload what was queued before it and exit. It hangs if the
// sink hangs.
func (b *Batcher) Shutdown() {
	b.mu.Lock()
	if b.stopped {
		b.mu.Unlock()
		return
	}
	b.stopped = true
	started := b.started
	if started {
		b.success.q.push(message{stop: true})
		b.failure.q.push(message{stop: true})
		close(b.stopping)
	}
	b.mu.Unlock()

	if !started {
		if n := b.success.q.len() + b.failure.q.len(); n > 0 {
			b.opts.Log.Warnf("batcher shut down before start, %d events not uploaded", n)
		}
		return
	}
	b.wg.Wait()
}

// loop waits one interval, drains up to MaxBatchSize messages and uploads
// the events among them, until it reaches the stop marker. Once shutdown has
// begun the loop stops waiting between drains.
func (b *Batcher) loop(l *lane) {
	for {
		b.wait(l.interval)

		events, stop := l.q.take(b.opts.MaxBatchSize)
		if len(events) > 0 {
			b.flush(l, events)
		}
		if stop {
			return
		}
	}
}

func (b *Batcher) wait(d time.Duration) {
	select {
	case <-b.stopping:
		return
	default:
	}

	t := b.opts.Clock.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C():
	case <-b.stopping:
	}
}

// flush uploads one batch. A failed upload is logged and the lane carries on.
func (b *Batcher) flush(l *lane, events []*domain.CaseEvent) {
	err := b.upload(events)
	if err != nil {
		b.opts.Log.Warnf("upload of %s batch (%d events) failed: %v", l.name, len(events), err)
	} else {
		b.opts.Log.Debugf("uploaded %s batch of %d events", l.name, len(events))
	}
	if b.opts.OnFlush != nil {
		b.opts.OnFlush(l.name, len(events), err)
	}
}

func (b *Batcher) upload(events []*domain.CaseEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panic: %v", r)
		}
	}()
	return b.sink.Upload(context.Background(), events)
}
