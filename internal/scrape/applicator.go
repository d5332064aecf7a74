package scrape

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/xkilldash9x/estate-scout/internal/browser/dom"
	"github.com/xkilldash9x/estate-scout/internal/config"
)

// FilterReport records what happened to each requested filter.
type FilterReport struct {
	Applied []FilterKey
	Skipped map[FilterKey]error
	// Submitted is false when the panel's submit control could not be used.
	Submitted bool
}

// FilterApplicator fills the advanced filter panel of a session.
type FilterApplicator struct {
	cfg    config.ScrapeConfig
	logger *zap.Logger
}

func NewFilterApplicator(cfg config.ScrapeConfig, logger *zap.Logger) *FilterApplicator {
	return &FilterApplicator{cfg: cfg, logger: logger.Named("filters")}
}

// Apply opens the filter panel, sets every non-empty filter in spec and
// submits the panel. Only failing to open the panel aborts the run. A
// control that cannot be set is logged and skipped so the remaining
// filters still apply.
func (a *FilterApplicator) Apply(ctx context.Context, s *Session, spec FilterSpec) (FilterReport, error) {
	report := FilterReport{Skipped: make(map[FilterKey]error)}
	if err := s.usable(); err != nil {
		return report, err
	}
	if unknown := spec.Unknown(); len(unknown) > 0 {
		a.logger.Warn("Ignoring unknown filter keys.", zap.Strings("keys", unknown))
	}

	toggle, err := s.Resolve(ctx, TargetFiltersToggle)
	if err != nil {
		if ctx.Err() != nil {
			return report, s.fail(ctx.Err())
		}
		return report, s.fail(&FilterApplicationError{Err: err})
	}
	if err := toggle.Click(ctx); err != nil {
		if ctx.Err() != nil {
			return report, s.fail(ctx.Err())
		}
		return report, s.fail(&FilterApplicationError{Err: fmt.Errorf("open filter panel: %w", err)})
	}
	a.logger.Debug("Filter panel opened.")

	for _, f := range filterTable {
		value, ok := spec.Get(f.key)
		if !ok {
			continue
		}
		if err := a.applyField(ctx, s, f, value); err != nil {
			if ctx.Err() != nil {
				return report, s.fail(ctx.Err())
			}
			a.logger.Warn("Filter could not be applied; skipping.",
				zap.String("filter", string(f.key)),
				zap.String("value", value),
				zap.Error(err),
			)
			report.Skipped[f.key] = err
			continue
		}
		a.logger.Debug("Filter applied.", zap.String("filter", string(f.key)), zap.String("value", value))
		report.Applied = append(report.Applied, f.key)
	}

	if err := a.submit(ctx, s); err != nil {
		if ctx.Err() != nil {
			return report, s.fail(ctx.Err())
		}
		a.logger.Error("Filter panel could not be submitted; results may be unfiltered.", zap.Error(err))
	} else {
		report.Submitted = true
	}

	if err := s.SettleNetwork(ctx); err != nil {
		return report, s.fail(err)
	}
	if err := s.Pause(ctx, a.cfg.PostFilterWait); err != nil {
		return report, s.fail(err)
	}

	a.logger.Info("Filters applied.",
		zap.Int("applied", len(report.Applied)),
		zap.Int("skipped", len(report.Skipped)),
	)
	return report, s.advance(StateFiltersApplied)
}

func (a *FilterApplicator) applyField(ctx context.Context, s *Session, f filterField, value string) error {
	el, err := s.Resolve(ctx, f.target())
	if err != nil {
		return err
	}

	switch f.mode {
	case typeAhead:
		if err := el.Click(ctx); err != nil {
			return fmt.Errorf("open %s: %w", f.key, err)
		}
		if err := s.Type(ctx, value); err != nil {
			return fmt.Errorf("type %s: %w", f.key, err)
		}
		if err := s.page.PressKey(ctx, dom.KeyEnter); err != nil {
			return fmt.Errorf("confirm %s: %w", f.key, err)
		}
		return s.Pause(ctx, a.cfg.TypeSettle)
	case directFill:
		if err := el.Fill(ctx, value); err != nil {
			return fmt.Errorf("fill %s: %w", f.key, err)
		}
		return s.Pause(ctx, a.cfg.FillSettle)
	default:
		return fmt.Errorf("filter %s has unknown apply mode %d", f.key, f.mode)
	}
}

func (a *FilterApplicator) submit(ctx context.Context, s *Session) error {
	button, err := s.Resolve(ctx, TargetFilterSubmit)
	if err != nil {
		return err
	}
	return button.Click(ctx)
}
