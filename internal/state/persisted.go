// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package state

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/toeirei/keepsake/internal/kv"
	"github.com/toeirei/keepsake/internal/logging"
)

// Option configures a Persisted.
type Option func(*options)

type options struct {
	onError ErrorHandler
	strict  bool
}

// WithErrorHandler replaces the default LogErrors handler.
func WithErrorHandler(h ErrorHandler) Option {
	return func(o *options) {
		if h != nil {
			o.onError = h
		}
	}
}

// WithStrictDecoding treats stored objects with unknown fields as
// undecodable instead of ignoring the extra fields.
func WithStrictDecoding() Option {
	return func(o *options) { o.strict = true }
}

// Persisted is a value of type T kept in memory and mirrored to a durable
// store under a fixed key. It is safe for concurrent use.
type Persisted[T any] struct {
	key     string
	store   kv.Store // nil when running in memory only
	onError ErrorHandler

	mu    sync.Mutex
	value T

	// write-through state, guarded by wmu
	wmu        sync.Mutex
	pending    []byte
	hasPending bool
	scheduled  uint64
	written    uint64
	progress   chan struct{} // closed and replaced after every write attempt
	closed     bool

	wake      chan struct{}
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// New creates a Persisted for key, seeded from store when it holds a
// decodable value and from initial otherwise. A nil or unavailable store
// yields an in-memory only value for the lifetime of the process.
func New[T any](store kv.Store, key string, initial T, opts ...Option) *Persisted[T] {
	o := options{onError: LogErrors}
	for _, opt := range opts {
		opt(&o)
	}

	p := &Persisted[T]{
		key:      key,
		onError:  o.onError,
		value:    initial,
		progress: make(chan struct{}),
	}

	if !kv.IsAvailable(store) {
		logging.Debugf("no durable store for %q, keeping state in memory only", key)
		return p
	}
	p.store = store

	if v, ok := p.load(initial, o.strict); ok {
		p.value = v
	}

	p.wake = make(chan struct{}, 1)
	p.quit = make(chan struct{})
	p.stopped = make(chan struct{})
	go p.writer()
	return p
}

// load reads and decodes the stored value once.
func (p *Persisted[T]) load(initial T, strict bool) (T, bool) {
	raw, ok, err := p.store.Get(p.key)
	if err != nil {
		p.onError(&Error{Op: OpRead, Key: p.key, Err: err})
		return initial, false
	}
	if !ok {
		return initial, false
	}
	v, err := decode[T](raw, strict)
	if err != nil {
		p.onError(&Error{Op: OpDecode, Key: p.key, Err: err})
		return initial, false
	}
	return v, true
}

// Key returns the store key the value is mirrored under.
func (p *Persisted[T]) Key() string { return p.key }

// Persistent reports whether updates are written to a durable store.
func (p *Persisted[T]) Persistent() bool { return p.store != nil }

// Get returns the current in-memory value. Reference types (maps, slices,
// pointers) are shared with the container and must not be mutated in place.
func (p *Persisted[T]) Get() T {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// Set replaces the value. The new value is visible to Get immediately; the
// durable write happens in the background.
func (p *Persisted[T]) Set(v T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = v
	p.schedule(v)
}

// Update replaces the value with fn(previous) atomically with respect to
// other Set and Update calls. fn must not call methods on p.
func (p *Persisted[T]) Update(fn func(prev T) T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.value = fn(p.value)
	p.schedule(p.value)
}

// schedule encodes v and hands it to the writer. Callers hold p.mu, so
// schedule order always matches update order.
func (p *Persisted[T]) schedule(v T) {
	if p.store == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		p.onError(&Error{Op: OpEncode, Key: p.key, Err: err})
		return
	}

	p.wmu.Lock()
	if p.closed {
		p.wmu.Unlock()
		logging.Debugf("%v: update for %q kept in memory", ErrClosed, p.key)
		return
	}
	p.pending = data
	p.hasPending = true
	p.scheduled++
	p.wmu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// writer persists the newest pending value each time it is woken.
func (p *Persisted[T]) writer() {
	defer close(p.stopped)
	for {
		select {
		case <-p.wake:
			p.drain()
		case <-p.quit:
			p.drain()
			return
		}
	}
}

func (p *Persisted[T]) drain() {
	for {
		p.wmu.Lock()
		if !p.hasPending {
			p.wmu.Unlock()
			return
		}
		data, seq := p.pending, p.scheduled
		p.pending, p.hasPending = nil, false
		p.wmu.Unlock()

		if err := p.store.Set(p.key, string(data)); err != nil {
			p.onError(&Error{Op: OpWrite, Key: p.key, Err: err})
		}

		p.wmu.Lock()
		p.written = seq
		close(p.progress)
		p.progress = make(chan struct{})
		p.wmu.Unlock()
	}
}

// Flush blocks until every update scheduled before the call has been
// attempted against the store, or ctx is done. Failed attempts count as
// attempted; they have already been reported to the error handler.
func (p *Persisted[T]) Flush(ctx context.Context) error {
	if p.store == nil {
		return nil
	}
	p.wmu.Lock()
	target := p.scheduled
	p.wmu.Unlock()

	for {
		p.wmu.Lock()
		if p.written >= target {
			p.wmu.Unlock()
			return nil
		}
		ch := p.progress
		p.wmu.Unlock()

		select {
		case <-ch:
		case <-p.stopped:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Close writes any pending value and stops the background writer. Updates
// after Close still change the in-memory value but are not persisted.
// Close does not close the underlying store.
func (p *Persisted[T]) Close() error {
	if p.store == nil {
		return nil
	}
	p.closeOnce.Do(func() {
		p.wmu.Lock()
		p.closed = true
		p.wmu.Unlock()
		close(p.quit)
		<-p.stopped
	})
	return nil
}

var errTrailingData = errors.New("unexpected data after stored value")

// decode parses a stored value. Strict decoding rejects unknown object
// fields and trailing values.
func decode[T any](raw string, strict bool) (T, error) {
	var v T
	if !strict {
		err := json.Unmarshal([]byte(raw), &v)
		return v, err
	}
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, err
	}
	if dec.More() {
		var zero T
		return zero, errTrailingData
	}
	return v, nil
}
