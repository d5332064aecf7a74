// File: cmd/cmd_test.go
package cmd

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/estate-scout/internal/api"
	"github.com/xkilldash9x/estate-scout/internal/config"
	"github.com/xkilldash9x/estate-scout/internal/mocks"
	"github.com/xkilldash9x/estate-scout/internal/observability"
	"github.com/xkilldash9x/estate-scout/internal/scrape"
)

const fixture = "../internal/scrape/testdata/results.html"

// run executes the root command with args and returns stdout.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Cleanup(observability.ResetForTest)

	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// withScraper swaps the scraper factory for the duration of a test.
func withScraper(t *testing.T, s scrape.Scraper) {
	t.Helper()
	original := newScraper
	newScraper = func(*config.Config, *zap.Logger) scrape.Scraper { return s }
	t.Cleanup(func() { newScraper = original })
}

func sampleRecords() []scrape.PropertyRecord {
	return []scrape.PropertyRecord{
		scrape.NewRecord(map[scrape.Field]string{
			scrape.FieldLocation: "Chicó Navarra, Bogotá",
			scrape.FieldPrice:    "COP 2.350.000.000",
			scrape.FieldBedrooms: "3",
		}),
	}
}

func TestScrapeCommandJSON(t *testing.T) {
	scraper := new(mocks.MockScraper)
	want := scrape.FilterSpec{scrape.PriceMin: "500000000", scrape.RoomsMin: "3"}
	scraper.On("Run", mock.Anything, "Bogota, Colombia", want).Return(sampleRecords(), nil)
	withScraper(t, scraper)

	out, err := run(t, "scrape", "-l", "Bogota, Colombia", "--price-min", "500000000", "--rooms-min", "3")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"location":"Chicó Navarra, Bogotá","price":"COP 2.350.000.000","bedrooms":"3"}]`, out)
	scraper.AssertExpectations(t)
}

func TestScrapeCommandTableToFile(t *testing.T) {
	scraper := new(mocks.MockScraper)
	scraper.On("Run", mock.Anything, "Cali", scrape.FilterSpec{}).Return(sampleRecords(), nil)
	withScraper(t, scraper)

	path := filepath.Join(t.TempDir(), "out.txt")
	out, err := run(t, "scrape", "-l", "Cali", "-f", "table", "-o", path)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "LOCATION")
	assert.Contains(t, string(data), "COP 2.350.000.000")
}

func TestScrapeCommandErrors(t *testing.T) {
	t.Run("missing location", func(t *testing.T) {
		withScraper(t, new(mocks.MockScraper))
		_, err := run(t, "scrape")
		assert.ErrorContains(t, err, `required flag(s) "location" not set`)
	})

	t.Run("bad format", func(t *testing.T) {
		withScraper(t, new(mocks.MockScraper))
		_, err := run(t, "scrape", "-l", "Cali", "-f", "xml")
		assert.ErrorContains(t, err, "unsupported output format")
	})

	t.Run("scrape failure", func(t *testing.T) {
		scraper := new(mocks.MockScraper)
		scraper.On("Run", mock.Anything, "Cali", mock.Anything).
			Return(nil, &scrape.ScrapeExhaustedError{Attempts: 3, Last: errors.New("grid missing")})
		withScraper(t, scraper)

		_, err := run(t, "scrape", "-l", "Cali")
		var exhausted *scrape.ScrapeExhaustedError
		require.ErrorAs(t, err, &exhausted)
		assert.Equal(t, "scrape failed after 3 attempts: grid missing", err.Error())
	})
}

func TestExtractCommand(t *testing.T) {
	out, err := run(t, "extract", "--html", fixture, "--url", "https://www.engelvoelkers.com/co/es/resultados")
	require.NoError(t, err)

	var rows []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.NotEmpty(t, row["price"])
		assert.Contains(t, row["url"], "https://")
	}
}

func TestExtractCommandKeepsRelativeLinksWithoutURL(t *testing.T) {
	out, err := run(t, "extract", "--html", fixture)
	require.NoError(t, err)

	var rows []map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	urls := make([]string, 0, len(rows))
	for _, row := range rows {
		urls = append(urls, row["url"])
	}
	assert.Contains(t, urls, "/co/es/propiedad/W-02ABCD")
	for _, u := range urls {
		assert.NotContains(t, u, "file://")
	}
}

func TestExtractCommandMissingFile(t *testing.T) {
	_, err := run(t, "extract", "--html", filepath.Join(t.TempDir(), "nope.html"))
	assert.ErrorContains(t, err, "failed to load page")
}

func TestRemoteCommand(t *testing.T) {
	scraper := new(mocks.MockScraper)
	scraper.On("Run", mock.Anything, "Medellin", scrape.FilterSpec{scrape.BedroomsMin: "2"}).Return(sampleRecords(), nil)
	srv := httptest.NewServer(api.NewServer(scraper, config.ServerConfig{}, zap.NewNop()).Handler())
	defer srv.Close()

	out, err := run(t, "remote", "--server", srv.URL, "-l", "Medellin", "--bedrooms-min", "2")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"location":"Chicó Navarra, Bogotá","price":"COP 2.350.000.000","bedrooms":"3"}]`, out)
	scraper.AssertExpectations(t)
}

func TestRemoteCommandServerError(t *testing.T) {
	scraper := new(mocks.MockScraper)
	scraper.On("Run", mock.Anything, "Medellin", mock.Anything).Return(nil, errors.New("browser unavailable"))
	srv := httptest.NewServer(api.NewServer(scraper, config.ServerConfig{}, zap.NewNop()).Handler())
	defer srv.Close()

	_, err := run(t, "remote", "--server", srv.URL, "-l", "Medellin")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "browser unavailable")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "estate-scout "+Version+"\n", out)
}

func TestConfigFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scrape:\n  max_attempts: 7\n"), 0o644))

	var got *config.Config
	original := newScraper
	newScraper = func(cfg *config.Config, _ *zap.Logger) scrape.Scraper {
		got = cfg
		s := new(mocks.MockScraper)
		s.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
		return s
	}
	t.Cleanup(func() { newScraper = original })

	_, err := run(t, "--config", path, "scrape", "-l", "Cali")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 7, got.Scrape.MaxAttempts)
}

func TestInvalidConfigFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scrape:\n  max_attempts: 0\n"), 0o644))

	_, err := run(t, "--config", path, "version")
	assert.ErrorContains(t, err, "failed to load or validate config")
}

func TestConfigFromWithoutConfig(t *testing.T) {
	_, err := configFrom(context.Background())
	assert.Error(t, err)
}
