package api_test

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/xkilldash9x/estate-scout/internal/api"
	"github.com/xkilldash9x/estate-scout/internal/config"
	"github.com/xkilldash9x/estate-scout/internal/mocks"
	"github.com/xkilldash9x/estate-scout/internal/scrape"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func serverConfig() config.ServerConfig {
	return config.ServerConfig{Addr: "127.0.0.1:0", ReadTimeout: time.Second, WriteTimeout: time.Second}
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/scrape", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestScrapeSuccess(t *testing.T) {
	scraper := new(mocks.MockScraper)
	records := []scrape.PropertyRecord{
		scrape.NewRecord(map[scrape.Field]string{scrape.FieldPrice: "COP 1", scrape.FieldLocation: "Chicó"}),
	}
	wantSpec := scrape.FilterSpec{scrape.PriceMin: "500000000", scrape.RoomsMin: "3"}
	scraper.On("Run", mock.Anything, "Bogota, Colombia", wantSpec).Return(records, nil)

	srv := api.NewServer(scraper, serverConfig(), zap.NewNop())
	rec := post(t, srv.Handler(), `{"location":"Bogota, Colombia","price_min":"500000000","rooms_min":"3","price_max":""}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"success","data":[{"price":"COP 1","location":"Chicó"}]}`, rec.Body.String())
	scraper.AssertExpectations(t)
}

func TestScrapeEmptyResultIsEmptyList(t *testing.T) {
	scraper := new(mocks.MockScraper)
	scraper.On("Run", mock.Anything, "Cali", scrape.FilterSpec{}).Return(nil, nil)

	srv := api.NewServer(scraper, serverConfig(), zap.NewNop())
	rec := post(t, srv.Handler(), `{"location":"Cali"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"success","data":[]}`, rec.Body.String())
}

func TestScrapeFailure(t *testing.T) {
	scraper := new(mocks.MockScraper)
	exhausted := &scrape.ScrapeExhaustedError{Attempts: 3, Last: errors.New("grid missing")}
	scraper.On("Run", mock.Anything, "Cali", mock.Anything).Return(nil, exhausted)

	srv := api.NewServer(scraper, serverConfig(), zap.NewNop())
	rec := post(t, srv.Handler(), `{"location":"Cali"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"detail":"scrape failed after 3 attempts: grid missing"}`, rec.Body.String())
}

func TestScrapeBadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"location":`},
		{"missing location", `{"price_min":"1"}`},
		{"wrong type", `{"location":"Cali","rooms_min":3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scraper := new(mocks.MockScraper)
			srv := api.NewServer(scraper, serverConfig(), zap.NewNop())

			rec := post(t, srv.Handler(), tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"detail"`)
			scraper.AssertNotCalled(t, "Run", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestScrapeRateLimited(t *testing.T) {
	scraper := new(mocks.MockScraper)
	scraper.On("Run", mock.Anything, mock.Anything, mock.Anything).Return([]scrape.PropertyRecord{}, nil)

	cfg := serverConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 1
	srv := api.NewServer(scraper, cfg, zap.NewNop())

	assert.Equal(t, http.StatusOK, post(t, srv.Handler(), `{"location":"Cali"}`).Code)
	rec := post(t, srv.Handler(), `{"location":"Cali"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	scraper.AssertNumberOfCalls(t, "Run", 1)
}

func TestRouting(t *testing.T) {
	srv := api.NewServer(new(mocks.MockScraper), serverConfig(), zap.NewNop())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/scrape", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServeShutsDownWithContext(t *testing.T) {
	srv := api.NewServer(new(mocks.MockScraper), serverConfig(), zap.NewNop())
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	client.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestRequestFilters(t *testing.T) {
	v, empty := "2", ""
	req := api.ScrapeRequest{Location: "Cali", BedroomsMax: &v, PropertyType: &empty}
	assert.Equal(t, scrape.FilterSpec{scrape.BedroomsMax: "2"}, req.Filters())
}
