package scrape

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/estate-scout/internal/browser/dom"
)

// TargetID names a logical UI element independent of how it is found.
type TargetID string

// Strategy is one way of locating a target.
type Strategy struct {
	Locator   dom.Locator
	Condition dom.Condition
	// Timeout bounds this strategy alone. Zero uses the resolver default.
	Timeout time.Duration
}

// Target is a logical element with its ordered fallback strategies.
type Target struct {
	ID         TargetID
	Strategies []Strategy
}

// Resolver maps logical targets to live elements by trying each strategy
// in order until one succeeds.
type Resolver struct {
	logger         *zap.Logger
	defaultTimeout time.Duration

	mu      sync.RWMutex
	targets map[TargetID]Target
}

// NewResolver creates a Resolver preloaded with targets.
func NewResolver(logger *zap.Logger, defaultTimeout time.Duration, targets ...Target) *Resolver {
	r := &Resolver{
		logger:         logger.Named("resolver"),
		defaultTimeout: defaultTimeout,
		targets:        make(map[TargetID]Target, len(targets)),
	}
	for _, t := range targets {
		r.Register(t)
	}
	return r
}

// Register adds or replaces a target.
func (r *Resolver) Register(t Target) {
	r.mu.Lock()
	r.targets[t.ID] = t
	r.mu.Unlock()
}

// Target returns the registered definition of id.
func (r *Resolver) Target(id TargetID) (Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.targets[id]
	return t, ok
}

// Resolve returns the element of the first strategy that succeeds. Each
// failed strategy is logged at warn level. When all fail the result is a
// *ResolutionError listing every attempt. Cancellation of ctx stops the
// search and is returned as is.
func (r *Resolver) Resolve(ctx context.Context, page dom.Page, id TargetID) (dom.Element, error) {
	return r.resolve(ctx, page, id, zapcore.WarnLevel)
}

// probe is Resolve for optional targets whose absence is expected. Failed
// strategies are only logged at debug level.
func (r *Resolver) probe(ctx context.Context, page dom.Page, id TargetID) (dom.Element, error) {
	return r.resolve(ctx, page, id, zapcore.DebugLevel)
}

func (r *Resolver) resolve(ctx context.Context, page dom.Page, id TargetID, failLevel zapcore.Level) (dom.Element, error) {
	target, ok := r.Target(id)
	if !ok {
		return nil, &ResolutionError{Target: id, Err: errUnknownTarget}
	}

	failures := make([]StrategyFailure, 0, len(target.Strategies))
	for i, s := range target.Strategies {
		timeout := s.Timeout
		if timeout <= 0 {
			timeout = r.defaultTimeout
		}

		attemptCtx, cancel := context.WithTimeout(ctx, timeout)
		el, err := page.WaitFor(attemptCtx, s.Locator, s.Condition)
		cancel()

		if err == nil {
			r.logger.Debug("Target resolved.",
				zap.String("target", string(id)),
				zap.Int("strategy", i+1),
				zap.String("locator", s.Locator.Description),
			)
			return el, nil
		}
		if ctx.Err() != nil {
			return nil, fmt.Errorf("resolve %q: %w", id, ctx.Err())
		}

		r.logger.Log(failLevel, "Target strategy failed.",
			zap.String("target", string(id)),
			zap.Int("strategy", i+1),
			zap.Int("of", len(target.Strategies)),
			zap.Stringer("locator", s.Locator),
			zap.Error(err),
		)
		failures = append(failures, StrategyFailure{Strategy: s.Locator.String(), Err: err})
	}

	return nil, &ResolutionError{Target: id, Attempts: failures}
}
