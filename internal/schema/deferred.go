package schema

import (
	"context"
	"sync"
)

// Deferred is a field value that becomes available later. It settles exactly
// once, either with a value or with an error, and may be settled from any
// goroutine. Handlers registered with Then run once, after settlement.
type Deferred struct {
	mu       sync.Mutex
	done     chan struct{}
	settled  bool
	value    any
	err      error
	handlers []func(any, error)
}

func NewDeferred() *Deferred {
	return &Deferred{done: make(chan struct{})}
}

// Resolved returns a Deferred already settled with v.
func Resolved(v any) *Deferred {
	d := NewDeferred()
	d.Resolve(v)
	return d
}

// Rejected returns a Deferred already settled with err.
func Rejected(err error) *Deferred {
	d := NewDeferred()
	d.Reject(err)
	return d
}

// Resolve settles d with v. It reports false if d was already settled.
func (d *Deferred) Resolve(v any) bool { return d.settle(v, nil) }

// Reject settles d with err. It reports false if d was already settled.
func (d *Deferred) Reject(err error) bool { return d.settle(nil, err) }

func (d *Deferred) settle(v any, err error) bool {
	d.mu.Lock()
	if d.settled {
		d.mu.Unlock()
		return false
	}
	d.settled = true
	d.value, d.err = v, err
	handlers := d.handlers
	d.handlers = nil
	close(d.done)
	d.mu.Unlock()

	for _, h := range handlers {
		h(v, err)
	}
	return true
}

// Then registers fn to run with the outcome. If d is already settled fn runs
// immediately on the calling goroutine, otherwise on the settling one.
func (d *Deferred) Then(fn func(any, error)) {
	d.mu.Lock()
	if !d.settled {
		d.handlers = append(d.handlers, fn)
		d.mu.Unlock()
		return
	}
	v, err := d.value, d.err
	d.mu.Unlock()
	fn(v, err)
}

// Done is closed once d settles.
func (d *Deferred) Done() <-chan struct{} { return d.done }

// Settled reports whether d has settled.
func (d *Deferred) Settled() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settled
}

// Result returns the outcome. Both are nil while d is pending.
func (d *Deferred) Result() (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.value, d.err
}

// Await blocks until d settles or ctx is done.
func (d *Deferred) Await(ctx context.Context) (any, error) {
	select {
	case <-d.done:
		return d.Result()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
