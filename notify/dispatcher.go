package notify

import (
	"context"
	"sync"
	"sync/atomic"
)

// DispatcherConfig controls the async queue in front of a sink.
type DispatcherConfig struct {
	BufferSize int
	// DropIfFull drops notifications instead of blocking the caller when
	// the queue is full.
	DropIfFull bool
}

// Dispatcher delivers notifications to a sink from one background
// goroutine, so slow sinks never block the caller.
type Dispatcher struct {
	cfg       DispatcherConfig
	sink      Sink
	ch        chan Notification
	done      chan struct{}
	wg        sync.WaitGroup
	dropped   atomic.Uint64
	closed    atomic.Bool
	closeOnce sync.Once
}

func NewDispatcher(sink Sink, cfg DispatcherConfig) *Dispatcher {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}

	d := &Dispatcher{
		cfg:  cfg,
		sink: sink,
		ch:   make(chan Notification, cfg.BufferSize),
		done: make(chan struct{}),
	}

	d.wg.Add(1)
	go d.run()

	return d
}

func (d *Dispatcher) run() {
	defer d.wg.Done()

	for {
		select {
		case n := <-d.ch:
			d.sink.Notify(context.Background(), n)
		case <-d.done:
			for {
				select {
				case n := <-d.ch:
					d.sink.Notify(context.Background(), n)
				default:
					return
				}
			}
		}
	}
}

// Notify queues n. After Close it is a no-op.
func (d *Dispatcher) Notify(ctx context.Context, n Notification) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.cfg.DropIfFull {
		select {
		case d.ch <- n:
		case <-d.done:
		default:
			d.dropped.Add(1)
		}
		return
	}

	select {
	case d.ch <- n:
	case <-ctx.Done():
		d.dropped.Add(1)
	case <-d.done:
	}
}

// Close stops accepting notifications, delivers the queued ones and waits
// for the worker to exit.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.closeOnce.Do(func() {
		d.closed.Store(true)
		close(d.done)
		d.wg.Wait()
	})
}

// Dropped returns how many notifications were discarded.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
