package content

import (
	"context"
	"sync"
)

// Dispatcher runs completion callbacks in a chosen context.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(fn func())

// Dispatch implements Dispatcher.
func (f DispatcherFunc) Dispatch(fn func()) { f(fn) }

// InlineDispatcher runs callbacks on the goroutine that completed the call.
type InlineDispatcher struct{}

// Dispatch implements Dispatcher.
func (InlineDispatcher) Dispatch(fn func()) { fn() }

// SerialDispatcher runs callbacks one at a time, in submission order, on a
// single goroutine.
type SerialDispatcher struct {
	queue chan func()
	done  chan struct{}
	once  sync.Once
}

// NewSerialDispatcher starts a dispatcher with the given queue capacity.
func NewSerialDispatcher(capacity int) *SerialDispatcher {
	d := &SerialDispatcher{
		queue: make(chan func(), capacity),
		done:  make(chan struct{}),
	}

	go d.loop()

	return d
}

func (d *SerialDispatcher) loop() {
	defer close(d.done)

	for fn := range d.queue {
		fn()
	}
}

// Dispatch implements Dispatcher. It must not be called after Close.
func (d *SerialDispatcher) Dispatch(fn func()) { d.queue <- fn }

// Close drains queued callbacks and stops the dispatcher.
func (d *SerialDispatcher) Close() {
	d.once.Do(func() { close(d.queue) })
	<-d.done
}

// Operation is a handle to an in-flight callback-style call.
type Operation struct {
	cancel    context.CancelFunc
	done      chan struct{}
	closeDone sync.Once

	mu        sync.Mutex
	cancelled bool
	finished  bool
}

func newOperation(cancel context.CancelFunc) *Operation {
	return &Operation{cancel: cancel, done: make(chan struct{})}
}

// Cancel stops the call. A cancelled operation never delivers its callback.
// Cancelling after completion is a no-op.
func (o *Operation) Cancel() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.finished || o.cancelled {
		return
	}

	o.cancelled = true
	o.cancel()
	o.markDone()
}

func (o *Operation) markDone() {
	o.closeDone.Do(func() { close(o.done) })
}

// Cancelled reports whether Cancel took effect.
func (o *Operation) Cancelled() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.cancelled
}

// Done is closed once the work has finished or been cancelled.
func (o *Operation) Done() <-chan struct{} { return o.done }

// Wait blocks until Done is closed.
func (o *Operation) Wait() { <-o.done }

// finish marks the work complete and reports whether the result may be delivered.
func (o *Operation) finish() bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.cancelled {
		return false
	}

	o.finished = true

	return true
}

// Go runs work on a new goroutine and delivers its result to cb through d.
func Go[T any](ctx context.Context, d Dispatcher, work func(context.Context) (T, error), cb func(T, error)) *Operation {
	ctx, cancel := context.WithCancel(ctx)
	op := newOperation(cancel)

	go func() {
		defer cancel()

		result, err := work(ctx)

		if !op.finish() {
			return
		}

		d.Dispatch(func() {
			defer op.markDone()

			if cb == nil {
				return
			}

			if err != nil {
				err = AsError(err)
			}

			cb(result, err)
		})
	}()

	return op
}

// Future is a cold asynchronous result: nothing runs until Await or Then.
type Future[T any] struct {
	ctx        context.Context
	dispatcher Dispatcher
	work       func(context.Context) (T, error)
	ready      chan struct{}

	mu        sync.Mutex
	op        *Operation
	cancelled bool
	result    T
	err       error
	listeners []func(T, error)
}

// NewFuture wraps work without starting it.
func NewFuture[T any](ctx context.Context, d Dispatcher, work func(context.Context) (T, error)) *Future[T] {
	if d == nil {
		d = InlineDispatcher{}
	}

	return &Future[T]{ctx: ctx, dispatcher: d, work: work, ready: make(chan struct{})}
}

func (f *Future[T]) launch() *Operation {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.op != nil {
		return f.op
	}

	if f.cancelled {
		f.op = newOperation(func() {})
		f.op.cancelled = true
		f.op.markDone()

		return f.op
	}

	f.op = Go(f.ctx, InlineDispatcher{}, f.work, f.complete)

	return f.op
}

func (f *Future[T]) complete(result T, err error) {
	f.mu.Lock()
	f.result, f.err = result, err
	listeners := f.listeners
	f.listeners = nil
	close(f.ready)
	f.mu.Unlock()

	for _, l := range listeners {
		f.dispatcher.Dispatch(func() { l(result, err) })
	}
}

// Await starts the work if needed and blocks for its result.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	op := f.launch()

	var zero T

	select {
	case <-f.ready:
		return f.result, f.err
	case <-op.Done():
		select {
		case <-f.ready:
			return f.result, f.err
		default:
			return zero, AsError(context.Canceled)
		}
	case <-ctx.Done():
		return zero, AsError(ctx.Err())
	}
}

// Then starts the work if needed and delivers the result to cb through the
// future's dispatcher. Callbacks registered after completion fire immediately.
func (f *Future[T]) Then(cb func(T, error)) {
	f.launch()

	f.mu.Lock()
	select {
	case <-f.ready:
		result, err := f.result, f.err
		f.mu.Unlock()
		f.dispatcher.Dispatch(func() { cb(result, err) })
	default:
		f.listeners = append(f.listeners, cb)
		f.mu.Unlock()
	}
}

// Cancel stops the work, or prevents it from ever starting. Pending callbacks
// are dropped.
func (f *Future[T]) Cancel() {
	f.mu.Lock()
	op := f.op
	if op == nil {
		f.cancelled = true
	}
	f.mu.Unlock()

	if op != nil {
		op.Cancel()
	}
}

// Started reports whether the work has been launched.
func (f *Future[T]) Started() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.op != nil && !f.cancelled
}
