// Copyright (c) 2026 Keepsake Team
// Keepsake - local state and password strength toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

package state

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/toeirei/keepsake/internal/kv"
	"go.uber.org/goleak"
)

// errorRecorder collects reported failures for assertions.
type errorRecorder struct {
	mu   sync.Mutex
	errs []*Error
}

func (r *errorRecorder) handle(e *Error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, e)
}

func (r *errorRecorder) ops() []Op {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Op
	for _, e := range r.errs {
		out = append(out, e.Op)
	}
	return out
}

// failingStore reads fine but rejects every write, like a full quota.
type failingStore struct {
	*kv.Memory
}

var errQuota = errors.New("quota exceeded")

func (f failingStore) Set(key, value string) error { return errQuota }

// gatedStore blocks every Set until release is closed.
type gatedStore struct {
	*kv.Memory
	release chan struct{}
}

func (g gatedStore) Set(key, value string) error {
	<-g.release
	return g.Memory.Set(key, value)
}

func flush(t *testing.T, f interface{ Flush(context.Context) error }) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
}

func newPersisted[T any](t *testing.T, s kv.Store, key string, initial T, opts ...Option) *Persisted[T] {
	t.Helper()
	p := New(s, key, initial, opts...)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

type prefs struct {
	Theme   string            `json:"theme"`
	Count   int               `json:"count"`
	Reveal  bool              `json:"reveal"`
	Tags    []string          `json:"tags"`
	Extra   map[string]string `json:"extra"`
	Comment *string           `json:"comment"`
}

func TestNew_DefaultWhenNothingStored(t *testing.T) {
	store := kv.NewMemory()
	p := newPersisted(t, store, "counter", 7)
	if got := p.Get(); got != 7 {
		t.Fatalf("expected initial value 7, got %d", got)
	}
	if !p.Persistent() || p.Key() != "counter" {
		t.Fatalf("unexpected Persistent=%v Key=%q", p.Persistent(), p.Key())
	}
	if _, ok, _ := store.Get("counter"); ok {
		t.Fatalf("creating a value must not write to the store")
	}
}

func TestSet_RoundTripThroughFreshInstance(t *testing.T) {
	store := kv.NewMemory()
	p := newPersisted(t, store, "prefs", prefs{Theme: "light"})

	v1 := prefs{
		Theme: "dark",
		Count: 3,
		Tags:  []string{"a", "b"},
		Extra: map[string]string{"lang": "de"},
	}
	p.Set(v1)
	if got := p.Get(); !reflect.DeepEqual(got, v1) {
		t.Fatalf("Set must be visible immediately, got %+v", got)
	}
	flush(t, p)

	again := newPersisted(t, store, "prefs", prefs{Theme: "light"})
	if got := again.Get(); !reflect.DeepEqual(got, v1) {
		t.Fatalf("expected %+v from fresh instance, got %+v", v1, got)
	}
}

func TestRoundTrip_GenericValues(t *testing.T) {
	store := kv.NewMemory()
	v := map[string]any{
		"n":    1.5,
		"s":    "x",
		"b":    true,
		"null": nil,
		"list": []any{"a", 2.0, false},
		"obj":  map[string]any{"k": "v"},
	}
	p := newPersisted[map[string]any](t, store, "generic", nil)
	p.Set(v)
	flush(t, p)

	again := newPersisted[map[string]any](t, store, "generic", nil)
	if got := again.Get(); !reflect.DeepEqual(got, v) {
		t.Fatalf("round trip mismatch:\n got %#v\nwant %#v", got, v)
	}
}

func TestUpdate_AppliesToPrevious(t *testing.T) {
	store := kv.NewMemory()
	p := newPersisted(t, store, "n", 0)
	for i := 0; i < 3; i++ {
		p.Update(func(prev int) int { return prev + 1 })
	}
	if got := p.Get(); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	flush(t, p)
	if v, _, _ := store.Get("n"); v != "3" {
		t.Fatalf("expected stored 3, got %q", v)
	}
}

func TestSet_TwiceWithSameValueIsIdempotent(t *testing.T) {
	once := kv.NewMemory()
	p1 := newPersisted(t, once, "k", "")
	p1.Set("same")
	flush(t, p1)

	twice := kv.NewMemory()
	p2 := newPersisted(t, twice, "k", "")
	p2.Set("same")
	p2.Set("same")
	flush(t, p2)

	a, _, _ := once.Get("k")
	b, _, _ := twice.Get("k")
	if a != b || a != `"same"` {
		t.Fatalf("expected identical stored values, got %q and %q", a, b)
	}
}

func TestNew_CorruptStoredValueFallsBack(t *testing.T) {
	cases := map[string]string{
		"not json":      "{not json",
		"wrong shape":   `"a string"`,
		"trailing data": `1 2`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			store := kv.NewMemory()
			_ = store.Set("n", raw)
			rec := &errorRecorder{}
			p := newPersisted(t, store, "n", 42, WithErrorHandler(rec.handle))
			if got := p.Get(); got != 42 {
				t.Fatalf("expected default 42, got %d", got)
			}
			if ops := rec.ops(); !reflect.DeepEqual(ops, []Op{OpDecode}) {
				t.Fatalf("expected one decode failure, got %v", ops)
			}
			// Still usable after the failure.
			p.Set(43)
			flush(t, p)
			if v, _, _ := store.Get("n"); v != "43" {
				t.Fatalf("expected store to be repaired with 43, got %q", v)
			}
		})
	}
}

func TestNew_StrictDecodingRejectsUnknownFields(t *testing.T) {
	store := kv.NewMemory()
	_ = store.Set("prefs", `{"theme":"dark","legacy":true}`)

	lenient := newPersisted(t, store, "prefs", prefs{Theme: "light"})
	if lenient.Get().Theme != "dark" {
		t.Fatalf("lenient decoding should ignore unknown fields")
	}

	rec := &errorRecorder{}
	strict := newPersisted(t, store, "prefs", prefs{Theme: "light"}, WithStrictDecoding(), WithErrorHandler(rec.handle))
	if strict.Get().Theme != "light" {
		t.Fatalf("strict decoding should fall back to the default")
	}
	if ops := rec.ops(); len(ops) != 1 || ops[0] != OpDecode {
		t.Fatalf("expected a decode failure, got %v", ops)
	}
}

func TestSet_WriteFailureKeepsMemory(t *testing.T) {
	store := failingStore{kv.NewMemory()}
	rec := &errorRecorder{}
	p := newPersisted(t, store, "draft", "", WithErrorHandler(rec.handle))

	p.Set("hello")
	flush(t, p)
	if got := p.Get(); got != "hello" {
		t.Fatalf("in-memory value must survive a failed write, got %q", got)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.errs) != 1 || rec.errs[0].Op != OpWrite || !errors.Is(rec.errs[0], errQuota) {
		t.Fatalf("expected one write failure wrapping errQuota, got %v", rec.errs)
	}
}

func TestSet_EncodeFailureIsReported(t *testing.T) {
	store := kv.NewMemory()
	rec := &errorRecorder{}
	p := newPersisted[any](t, store, "bad", nil, WithErrorHandler(rec.handle))

	p.Set(make(chan int))
	flush(t, p)
	if _, ok := p.Get().(chan int); !ok {
		t.Fatalf("expected in-memory value to be updated even when not encodable")
	}
	if ops := rec.ops(); !reflect.DeepEqual(ops, []Op{OpEncode}) {
		t.Fatalf("expected encode failure, got %v", ops)
	}
	if _, ok, _ := store.Get("bad"); ok {
		t.Fatalf("nothing should be written for an unencodable value")
	}
}

func TestNew_WithoutStoreIsMemoryOnly(t *testing.T) {
	p := New[int](nil, "n", 1)
	if p.Persistent() {
		t.Fatalf("nil store should give a memory-only value")
	}
	p.Update(func(prev int) int { return prev * 10 })
	if p.Get() != 10 {
		t.Fatalf("expected 10, got %d", p.Get())
	}
	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush on memory-only value: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close on memory-only value: %v", err)
	}

	closed := kv.NewMemory()
	_ = closed.Close()
	if New(closed, "n", 1).Persistent() {
		t.Fatalf("unavailable store should give a memory-only value")
	}
}

func TestNew_ReadFailureFallsBack(t *testing.T) {
	store := readErrStore{kv.NewMemory()}
	rec := &errorRecorder{}
	p := newPersisted(t, store, "n", 5, WithErrorHandler(rec.handle))
	if p.Get() != 5 {
		t.Fatalf("expected default after read failure")
	}
	if ops := rec.ops(); !reflect.DeepEqual(ops, []Op{OpRead}) {
		t.Fatalf("expected read failure, got %v", ops)
	}
}

type readErrStore struct {
	*kv.Memory
}

func (readErrStore) Get(string) (string, bool, error) { return "", false, errors.New("io error") }

func TestUpdate_ConcurrentLastWriteWins(t *testing.T) {
	store := kv.NewMemory()
	p := newPersisted(t, store, "n", 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				p.Update(func(prev int) int { return prev + 1 })
			}
		}()
	}
	wg.Wait()
	flush(t, p)

	if got := p.Get(); got != 5000 {
		t.Fatalf("expected 5000 after concurrent updates, got %d", got)
	}
	if v, _, _ := store.Get("n"); v != "5000" {
		t.Fatalf("durable store should converge on the last value, got %q", v)
	}
}

func TestFlush_HonoursContext(t *testing.T) {
	store := gatedStore{Memory: kv.NewMemory(), release: make(chan struct{})}
	p := New(store, "n", 0)

	p.Set(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := p.Flush(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded while the store is blocked, got %v", err)
	}

	p.Set(2)
	p.Set(3)
	close(store.release)
	flush(t, p)
	if v, _, _ := store.Get("n"); v != "3" {
		t.Fatalf("expected the newest value to be written, got %q", v)
	}
	_ = p.Close()
}

func TestClose_StopsPersistingAndWriter(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := kv.NewMemory()
	p := New(store, "n", 0)
	p.Set(1)
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if v, _, _ := store.Get("n"); v != "1" {
		t.Fatalf("Close should write the pending value, got %q", v)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	p.Set(2)
	if p.Get() != 2 {
		t.Fatalf("updates after Close still change memory")
	}
	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush after Close: %v", err)
	}
	if v, _, _ := store.Get("n"); v != "1" {
		t.Fatalf("updates after Close must not be persisted, got %q", v)
	}
}

func TestSharedKey_LastWriterWins(t *testing.T) {
	store := kv.NewMemory()
	a := newPersisted(t, store, "shared", "")
	b := newPersisted(t, store, "shared", "")

	a.Set("from-a")
	flush(t, a)
	b.Set("from-b")
	flush(t, b)

	if v, _, _ := store.Get("shared"); v != `"from-b"` {
		t.Fatalf("expected last writer to win, got %q", v)
	}
	if a.Get() != "from-a" {
		t.Fatalf("instances do not coordinate; a keeps its own value")
	}
}

func TestError_Format(t *testing.T) {
	e := &Error{Op: OpWrite, Key: "k", Err: errQuota}
	if e.Error() != `state: write "k": quota exceeded` {
		t.Fatalf("unexpected message: %s", e.Error())
	}
}
