package audit

import (
	"context"
	"sync"
	"sync/atomic"
)

// Config controls dispatcher buffering behavior. A zero BufferSize means one.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool

	// Stamp fills request-scoped fields (request id, client IP) from the
	// emitting context before the event is queued. Fields already set are
	// left to the caller.
	Stamp func(ctx context.Context, event *Event)
	// OnDrop is called for every event discarded on a full queue.
	OnDrop func(event Event)
}

// delivery pairs an event with the request context it was emitted under,
// detached from that request's cancellation.
type delivery struct {
	ctx   context.Context
	event Event
}

// Dispatcher forwards audit events to a sink from a single goroutine, so the
// login and refresh paths never wait on sink I/O unless configured to.
type Dispatcher struct {
	cfg   Config
	sink  Sink
	queue chan delivery

	// mu guards closed so no Emit sends on a closed queue.
	mu     sync.RWMutex
	closed bool

	stop     chan struct{}
	stopOnce sync.Once
	drained  chan struct{}
	dropped  atomic.Uint64
}

// NewDispatcher starts the delivery goroutine. It returns nil when auditing is
// disabled; a nil Dispatcher accepts and drops every call.
func NewDispatcher(cfg Config, sink Sink) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:     cfg,
		sink:    sink,
		queue:   make(chan delivery, cfg.BufferSize),
		stop:    make(chan struct{}),
		drained: make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.drained)
	for item := range d.queue {
		d.sink.Emit(item.ctx, item.event)
	}
}

// Emit stamps event from ctx and queues it. With DropIfFull a full queue drops
// the event and counts it; otherwise Emit waits for space, ctx cancellation or
// Close.
func (d *Dispatcher) Emit(ctx context.Context, event Event) {
	if d == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if d.cfg.Stamp != nil {
		d.cfg.Stamp(ctx, &event)
	}
	item := delivery{ctx: context.WithoutCancel(ctx), event: event}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}

	if d.cfg.DropIfFull {
		select {
		case d.queue <- item:
		default:
			d.dropped.Add(1)
			if d.cfg.OnDrop != nil {
				d.cfg.OnDrop(event)
			}
		}
		return
	}

	select {
	case d.queue <- item:
	case <-ctx.Done():
	case <-d.stop:
	}
}

// Close stops accepting events, delivers everything already queued and waits
// for the sink to finish. Emit calls blocked on a full queue return.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.stopOnce.Do(func() {
		close(d.stop)
		d.mu.Lock()
		d.closed = true
		close(d.queue)
		d.mu.Unlock()
	})
	<-d.drained
}

// Dropped returns the number of events discarded because the queue was full.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
