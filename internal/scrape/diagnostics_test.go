package scrape_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/estate-scout/internal/mocks"
	"github.com/xkilldash9x/estate-scout/internal/scrape"
)

var artifactName = regexp.MustCompile(`^attempt-2-\d{8}T\d{6}Z-[0-9a-f]{8}\.(png|html)$`)

func TestFileSinkWritesBothArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "diagnostics")
	page := new(mocks.MockPage)
	page.On("Screenshot", mock.Anything).Return([]byte("\x89PNG"), nil)
	page.On("Content", mock.Anything).Return("<html></html>", nil)

	paths := scrape.NewFileSink(dir, zap.NewNop()).Capture(context.Background(), 2, page, errors.New("grid missing"))
	require.Len(t, paths, 2)

	for _, p := range paths {
		assert.Regexp(t, artifactName, filepath.Base(p))
		_, err := os.Stat(p)
		assert.NoError(t, err)
	}
	html, err := os.ReadFile(paths[1])
	require.NoError(t, err)
	assert.Equal(t, "<html></html>", string(html))
}

func TestFileSinkIsBestEffort(t *testing.T) {
	logger, logs := observedLogger(zapcore.WarnLevel)

	t.Run("screenshot unsupported", func(t *testing.T) {
		page := fixturePage(t)
		paths := scrape.NewFileSink(t.TempDir(), logger).Capture(context.Background(), 2, page, nil)
		require.Len(t, paths, 1)
		assert.Equal(t, ".html", filepath.Ext(paths[0]))
	})

	t.Run("directory cannot be created", func(t *testing.T) {
		blocker := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(blocker, nil, 0o644))

		page := new(mocks.MockPage)
		paths := scrape.NewFileSink(filepath.Join(blocker, "sub"), logger).Capture(context.Background(), 1, page, nil)
		assert.Empty(t, paths)
		page.AssertNotCalled(t, "Screenshot", mock.Anything)
	})

	assert.GreaterOrEqual(t, logs.Len(), 2)
}

func TestNopSink(t *testing.T) {
	assert.Nil(t, scrape.NopSink{}.Capture(context.Background(), 1, nil, nil))
}
