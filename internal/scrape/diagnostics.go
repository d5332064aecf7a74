package scrape

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"go.uber.org/zap"

	"github.com/xkilldash9x/estate-scout/internal/browser/dom"
)

// DiagnosticSink receives the page of a failed attempt. Implementations
// are best effort and must not fail the caller.
type DiagnosticSink interface {
	Capture(ctx context.Context, attempt int, page dom.Page, cause error) []string
}

// NopSink discards everything.
type NopSink struct{}

func (NopSink) Capture(context.Context, int, dom.Page, error) []string { return nil }

// FileSink writes a screenshot and an HTML snapshot per failed attempt.
type FileSink struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

// NewFileSink writes under dir. A leading ~ is expanded to the home
// directory.
func NewFileSink(dir string, logger *zap.Logger) *FileSink {
	logger = logger.Named("diagnostics")
	if expanded, err := homedir.Expand(dir); err == nil {
		dir = expanded
	} else {
		logger.Warn("Could not expand diagnostics directory.", zap.String("dir", dir), zap.Error(err))
	}
	return &FileSink{dir: dir, logger: logger, now: time.Now}
}

// Capture writes attempt-<n>-<timestamp>-<id>.png and .html and returns the
// paths that were written.
func (f *FileSink) Capture(ctx context.Context, attempt int, page dom.Page, cause error) []string {
	if page == nil {
		return nil
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		f.logger.Warn("Could not create diagnostics directory.", zap.String("dir", f.dir), zap.Error(err))
		return nil
	}

	stem := filepath.Join(f.dir, fmt.Sprintf("attempt-%d-%s-%s",
		attempt, f.now().UTC().Format("20060102T150405Z"), uuid.NewString()[:8]))

	var written []string
	if shot, err := page.Screenshot(ctx); err != nil {
		f.logger.Warn("Screenshot capture failed.", zap.Int("attempt", attempt), zap.Error(err))
	} else if path, ok := f.write(stem+".png", shot); ok {
		written = append(written, path)
	}

	if html, err := page.Content(ctx); err != nil {
		f.logger.Warn("HTML capture failed.", zap.Int("attempt", attempt), zap.Error(err))
	} else if path, ok := f.write(stem+".html", []byte(html)); ok {
		written = append(written, path)
	}

	if len(written) > 0 {
		f.logger.Info("Saved diagnostics for failed attempt.",
			zap.Int("attempt", attempt),
			zap.Strings("files", written),
			zap.NamedError("cause", cause),
		)
	}
	return written
}

func (f *FileSink) write(path string, data []byte) (string, bool) {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		f.logger.Warn("Could not write diagnostics file.", zap.String("path", path), zap.Error(err))
		return "", false
	}
	return path, true
}
