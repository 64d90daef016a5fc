package audit

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// Config controls dispatcher buffering behavior.
//
// With DropIfFull a full queue drops the event at once. Otherwise Emit waits
// up to EmitTimeout for room; a zero EmitTimeout waits for as long as the
// caller's context allows.
type Config struct {
	Enabled     bool
	BufferSize  int
	DropIfFull  bool
	EmitTimeout time.Duration
}

// Dispatcher forwards task audit events to a sink from a single goroutine,
// so sinks see events in completion order.
type Dispatcher struct {
	cfg     Config
	sink    Sink
	queue   chan Event
	stop    chan struct{}
	stopped chan struct{}
	closing atomic.Bool
	once    sync.Once
	dropped atomic.Uint64
}

// NewDispatcher returns nil when audit is disabled. A nil *Dispatcher accepts
// and discards everything.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if cfg.EmitTimeout < 0 {
		cfg.EmitTimeout = 0
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:     cfg,
		sink:    sink,
		queue:   make(chan Event, cfg.BufferSize),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *Dispatcher) loop() {
	defer close(d.stopped)

	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		case <-d.stop:
			d.drain()
			return
		}
	}
}

// drain delivers whatever was queued before Close.
func (d *Dispatcher) drain() {
	for {
		select {
		case event := <-d.queue:
			d.deliver(event)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(event Event) {
	d.sink.Emit(context.Background(), event)
}

// Emit queues event and reports whether it was accepted. An event that finds
// no room before the deadline, or arrives after Close, counts as dropped.
func (d *Dispatcher) Emit(ctx context.Context, event Event) bool {
	if d == nil {
		return false
	}
	if d.closing.Load() {
		d.dropped.Add(1)
		return false
	}

	select {
	case d.queue <- event:
		return true
	default:
	}
	if d.cfg.DropIfFull {
		d.dropped.Add(1)
		return false
	}

	if ctx == nil {
		ctx = context.Background()
	}
	var expired <-chan time.Time
	if d.cfg.EmitTimeout > 0 {
		timer := time.NewTimer(d.cfg.EmitTimeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case d.queue <- event:
		return true
	case <-ctx.Done():
	case <-expired:
	case <-d.stop:
	}
	d.dropped.Add(1)
	return false
}

// Close stops accepting events, delivers the queued ones and waits for the
// sink to finish. It is safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.closing.Store(true)
		close(d.stop)
	})
	<-d.stopped
}

// Dropped returns the number of events that never reached the queue.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
