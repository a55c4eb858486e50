package failure

import (
	"math"
	"sync"
	"time"
)

// ExponentialBackoff returns start * factor^k, k being the number of
// previous retries in the current window; it resets on any success or
// transition to closed (spec.md section 4.5).
type ExponentialBackoff struct {
	Start  time.Duration
	Factor float64

	mu sync.Mutex
	k  int
}

var _ Backoff = (*ExponentialBackoff)(nil)

// NewExponentialBackoff constructs an ExponentialBackoff with spec.md
// defaults (start=1s, factor=2).
func NewExponentialBackoff() *ExponentialBackoff {
	return &ExponentialBackoff{Start: time.Second, Factor: 2}
}

func (b *ExponentialBackoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	start := b.Start
	if start == 0 {
		start = time.Second
	}
	factor := b.Factor
	if factor == 0 {
		factor = 2
	}
	d := time.Duration(float64(start) * math.Pow(factor, float64(b.k)))
	b.k++
	return d
}

func (b *ExponentialBackoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.k = 0
}
