package eventbus

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewInterceptableAssignsDistinctRequestIDs(t *testing.T) {
	a := NewInterceptable("p", "u", "prov")
	b := NewInterceptable("p", "u", "prov")

	assert.NotEmpty(t, a.RequestID)
	assert.NotEqual(t, a.RequestID, b.RequestID)
}

func TestBeforeReturnsStrongestDecision(t *testing.T) {
	bus := NewBus()
	bus.Register(HookFunc{BeforeFn: func(ctx context.Context, target Interceptable) PreDecision {
		return PreDecision{Kind: PreRetry}
	}})
	bus.Register(HookFunc{BeforeFn: func(ctx context.Context, target Interceptable) PreDecision {
		return PreDecision{Kind: PreAbort, Err: errors.New("nope")}
	}})

	d := bus.Before(context.Background(), Interceptable{Profile: "p", UseCase: "u"})
	assert.Equal(t, PreAbort, d.Kind)
}

func TestAfterDeliversOutcomeAndElapsedToAllHooks(t *testing.T) {
	bus := NewBus()
	var seen []bool
	var mu sync.Mutex
	bus.Register(HookFunc{AfterFn: func(ctx context.Context, target Interceptable, event PostEvent) {
		mu.Lock()
		seen = append(seen, event.Outcome.Success)
		mu.Unlock()
	}})
	bus.Register(HookFunc{AfterFn: func(ctx context.Context, target Interceptable, event PostEvent) {
		mu.Lock()
		seen = append(seen, event.Outcome.Success)
		mu.Unlock()
	}})

	bus.After(context.Background(), Interceptable{Profile: "p", UseCase: "u"}, PostEvent{
		Outcome: Outcome{Success: true},
		Elapsed: 5 * time.Millisecond,
	})

	assert.Equal(t, []bool{true, true}, seen)
}

func TestUnregisterStopsDelivery(t *testing.T) {
	bus := NewBus()
	calls := 0
	unregister := bus.Register(HookFunc{BeforeFn: func(ctx context.Context, target Interceptable) PreDecision {
		calls++
		return PreDecision{Kind: PreContinue}
	}})

	bus.Before(context.Background(), Interceptable{})
	unregister()
	bus.Before(context.Background(), Interceptable{})

	assert.Equal(t, 1, calls)
}

func TestHooksSerializePerInterceptable(t *testing.T) {
	bus := NewBus()
	var active int32
	var maxActive int32
	var mu sync.Mutex
	bus.Register(HookFunc{BeforeFn: func(ctx context.Context, target Interceptable) PreDecision {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		mu.Lock()
		active--
		mu.Unlock()
		return PreDecision{Kind: PreContinue}
	}})

	target := Interceptable{Profile: "p", UseCase: "u", Provider: "prov"}
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Before(context.Background(), target)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxActive)
}
