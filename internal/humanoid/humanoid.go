// -- internal/humanoid/humanoid.go --
package humanoid

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/xkilldash9x/estate-scout/internal/config"
)

// Policy decides how long simulated input takes. Page drivers consult it
// for keystroke cadence, click hold time and pointer offsets; callers use
// Pause for settle delays so every wait honors cancellation.
type Policy interface {
	// KeyDelay is the pause before typing text[i].
	KeyDelay(text []rune, i int) time.Duration
	ClickHold() time.Duration
	// Jitter is the pointer offset applied to a click target's center.
	Jitter() (dx, dy float64)
	Pause(ctx context.Context, d time.Duration) error
}

// Humanoid draws input timings from a seeded normal model.
type Humanoid struct {
	cfg config.HumanoidConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Humanoid. A zero seed picks one from the clock.
func New(cfg config.HumanoidConfig) *Humanoid {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Humanoid{
		cfg: cfg,
		rng: rand.New(rand.NewSource(seed)),
	}
}

// FromConfig returns the policy selected by configuration: the humanoid
// model when enabled, Instant otherwise.
func FromConfig(cfg config.HumanoidConfig) Policy {
	if !cfg.Enabled {
		return Instant{}
	}
	return New(cfg)
}

// ClickHold returns a uniformly distributed hold time in the configured range.
func (h *Humanoid) ClickHold() time.Duration {
	lo, hi := h.cfg.ClickHoldMinMs, h.cfg.ClickHoldMaxMs
	if hi <= lo {
		return time.Duration(lo) * time.Millisecond
	}
	h.mu.Lock()
	n := h.rng.Intn(hi - lo + 1)
	h.mu.Unlock()
	return time.Duration(lo+n) * time.Millisecond
}

// Jitter returns an offset in [-JitterPx, JitterPx] on each axis.
func (h *Humanoid) Jitter() (dx, dy float64) {
	if h.cfg.JitterPx == 0 {
		return 0, 0
	}
	h.mu.Lock()
	dx = (h.rng.Float64()*2 - 1) * h.cfg.JitterPx
	dy = (h.rng.Float64()*2 - 1) * h.cfg.JitterPx
	h.mu.Unlock()
	return dx, dy
}

// Pause sleeps for d or until ctx is done.
func (h *Humanoid) Pause(ctx context.Context, d time.Duration) error {
	return Sleep(ctx, d)
}

// Instant performs no pacing at all. Pause still waits so that explicit
// settle delays keep their meaning.
type Instant struct{}

func (Instant) KeyDelay([]rune, int) time.Duration { return 0 }
func (Instant) ClickHold() time.Duration            { return 0 }
func (Instant) Jitter() (float64, float64)          { return 0, 0 }

func (Instant) Pause(ctx context.Context, d time.Duration) error {
	return Sleep(ctx, d)
}

// Sleep blocks for d, returning early with the context error on cancellation.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
