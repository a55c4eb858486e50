// Package eventbus implements an around-interceptor bus: a pre-hook that
// decides {continue, retry, abort} and a post-hook that observes {outcome,
// elapsed}, with sequential hook delivery per interceptable. It is
// grounded on the teacher's middleware hook contract
// (sdk/cliproxy/pipeline.Hook / HookFunc): an interface plus a
// function-aggregating adapter, generalized from the teacher's fixed
// before/after/stream trio to the narrower pre-decision/post-event pair
// this runtime needs.
package eventbus

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Interceptable identifies what bindAndPerform/perform call is being
// wrapped. RequestID correlates a Before/After pair across hooks and log
// lines for one perform attempt; NewInterceptable fills it in.
type Interceptable struct {
	Profile   string
	UseCase   string
	Provider  string
	RequestID string
}

// NewInterceptable builds an Interceptable with a fresh RequestID.
func NewInterceptable(profile, useCase, provider string) Interceptable {
	return Interceptable{Profile: profile, UseCase: useCase, Provider: provider, RequestID: uuid.NewString()}
}

// Key returns the string used to serialize hook delivery for this
// interceptable.
func (i Interceptable) Key() string {
	return i.Profile + "\x00" + i.UseCase + "\x00" + i.Provider
}

// PreDecisionKind discriminates what a pre-hook asks the caller to do.
type PreDecisionKind int

const (
	PreContinue PreDecisionKind = iota
	PreRetry
	PreAbort
)

// PreDecision is returned by Hook.Before.
type PreDecision struct {
	Kind PreDecisionKind
	Err  error
}

// Outcome is the result bindAndPerform/perform produced, opaque to the bus.
type Outcome struct {
	Success bool
	Err     error
}

// PostEvent is delivered to Hook.After.
type PostEvent struct {
	Outcome Outcome
	Elapsed time.Duration
}

// Hook is the pre/post interceptor contract.
type Hook interface {
	Before(ctx context.Context, target Interceptable) PreDecision
	After(ctx context.Context, target Interceptable, event PostEvent)
}

// HookFunc aggregates optional hook callbacks, mirroring the teacher's
// HookFunc: implement only the sides you need.
type HookFunc struct {
	BeforeFn func(context.Context, Interceptable) PreDecision
	AfterFn  func(context.Context, Interceptable, PostEvent)
}

var _ Hook = HookFunc{}

func (h HookFunc) Before(ctx context.Context, target Interceptable) PreDecision {
	if h.BeforeFn != nil {
		return h.BeforeFn(ctx, target)
	}
	return PreDecision{Kind: PreContinue}
}

func (h HookFunc) After(ctx context.Context, target Interceptable, event PostEvent) {
	if h.AfterFn != nil {
		h.AfterFn(ctx, target, event)
	}
}

type registeredHook struct {
	id   uint64
	hook Hook
}

// Bus dispatches registered hooks around an interceptable call, keeping
// hook delivery sequential per interceptable: no two hooks run
// concurrently for the same interceptable.
type Bus struct {
	mu     sync.RWMutex
	hooks  []registeredHook
	nextID uint64

	keyMu sync.Map // string -> *sync.Mutex
}

// NewBus constructs an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Register adds h to the bus and returns a function that removes it. h may
// be a HookFunc (whose function fields are not comparable), so removal is
// tracked by registration id rather than value equality.
func (b *Bus) Register(h Hook) (unregister func()) {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.hooks = append(b.hooks, registeredHook{id: id, hook: h})
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, r := range b.hooks {
			if r.id == id {
				b.hooks = append(b.hooks[:i], b.hooks[i+1:]...)
				return
			}
		}
	}
}

func (b *Bus) snapshot() []Hook {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Hook, len(b.hooks))
	for i, r := range b.hooks {
		out[i] = r.hook
	}
	return out
}

func (b *Bus) lockFor(key string) *sync.Mutex {
	v, _ := b.keyMu.LoadOrStore(key, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// Before runs the registered hooks' Before in sequence for target,
// returning the strongest decision observed (abort beats retry beats
// continue); it stops at the first abort, so later hooks do not run.
func (b *Bus) Before(ctx context.Context, target Interceptable) PreDecision {
	mu := b.lockFor(target.Key())
	mu.Lock()
	defer mu.Unlock()

	decision := PreDecision{Kind: PreContinue}
	for _, h := range b.snapshot() {
		d := h.Before(ctx, target)
		if d.Kind > decision.Kind {
			decision = d
		}
		if decision.Kind == PreAbort {
			break
		}
	}
	return decision
}

// After runs every registered hook's After in sequence for target.
func (b *Bus) After(ctx context.Context, target Interceptable, event PostEvent) {
	mu := b.lockFor(target.Key())
	mu.Lock()
	defer mu.Unlock()

	for _, h := range b.snapshot() {
		h.After(ctx, target, event)
	}
}
