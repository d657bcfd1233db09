package tokengate

import (
	"context"
	"sync/atomic"
)

// auditDispatcher moves events from the engine's hot paths to the configured
// sink on a single worker goroutine. Sinks therefore never run on a request
// path and need no internal synchronization of their own.
type auditDispatcher struct {
	sink    AuditSink
	events  chan AuditEvent
	stop    chan struct{}
	stopped chan struct{}
	block   bool
	closing atomic.Bool
	dropped atomic.Uint64
}

func newAuditDispatcher(cfg AuditConfig, sink AuditSink) *auditDispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &auditDispatcher{
		sink:    sink,
		events:  make(chan AuditEvent, cfg.BufferSize),
		stop:    make(chan struct{}),
		stopped: make(chan struct{}),
		block:   !cfg.DropIfFull,
	}
	go d.run()

	return d
}

func (d *auditDispatcher) run() {
	defer close(d.stopped)

	for {
		select {
		case event := <-d.events:
			d.sink.Emit(context.Background(), event)
		case <-d.stop:
			d.drain()
			return
		}
	}
}

// drain flushes whatever is buffered at shutdown without waiting for more.
func (d *auditDispatcher) drain() {
	for {
		select {
		case event := <-d.events:
			d.sink.Emit(context.Background(), event)
		default:
			return
		}
	}
}

// Emit hands the event to the worker. In drop mode a full buffer loses the
// event and bumps the dropped counter; in blocking mode the caller waits
// until there is room, the context ends, or the dispatcher shuts down.
func (d *auditDispatcher) Emit(ctx context.Context, event AuditEvent) {
	if d == nil || d.closing.Load() {
		return
	}

	if !d.block {
		select {
		case d.events <- event:
		default:
			d.dropped.Add(1)
		}
		return
	}

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case d.events <- event:
	case <-ctx.Done():
	case <-d.stop:
	}
}

// Close stops the worker after it drained the buffer. Safe to call more than
// once; every caller returns only after the worker has exited.
func (d *auditDispatcher) Close() {
	if d == nil {
		return
	}
	if d.closing.CompareAndSwap(false, true) {
		close(d.stop)
	}
	<-d.stopped
}

// Dropped reports how many events were lost to a full buffer.
func (d *auditDispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
