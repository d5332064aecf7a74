// File: internal/mocks/mocks.go
package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/estate-scout/internal/browser/dom"
	"github.com/xkilldash9x/estate-scout/internal/scrape"
)

// -- Page Mock --

// MockPage implements dom.Page for failure injection.
type MockPage struct {
	mock.Mock
}

func (m *MockPage) Navigate(ctx context.Context, url string) (int, error) {
	args := m.Called(ctx, url)
	return args.Int(0), args.Error(1)
}

func (m *MockPage) WaitFor(ctx context.Context, loc dom.Locator, cond dom.Condition) (dom.Element, error) {
	args := m.Called(ctx, loc, cond)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(dom.Element), args.Error(1)
}

func (m *MockPage) QueryAll(ctx context.Context, loc dom.Locator) ([]dom.Element, error) {
	args := m.Called(ctx, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dom.Element), args.Error(1)
}

func (m *MockPage) TypeText(ctx context.Context, text string) error {
	return m.Called(ctx, text).Error(0)
}
func (m *MockPage) PressKey(ctx context.Context, key dom.Key) error {
	return m.Called(ctx, key).Error(0)
}
func (m *MockPage) WaitNetworkIdle(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *MockPage) Content(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockPage) Screenshot(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockPage) URL() string                     { return m.Called().String(0) }
func (m *MockPage) Close(ctx context.Context) error { return m.Called(ctx).Error(0) }

// -- Element Mock --

// MockElement implements dom.Element.
type MockElement struct {
	mock.Mock
}

func (m *MockElement) Click(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *MockElement) Fill(ctx context.Context, value string) error {
	return m.Called(ctx, value).Error(0)
}
func (m *MockElement) Focus(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *MockElement) Visible(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}
func (m *MockElement) Text(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}
func (m *MockElement) Attribute(ctx context.Context, name string) (string, bool, error) {
	args := m.Called(ctx, name)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockElement) QueryAll(ctx context.Context, loc dom.Locator) ([]dom.Element, error) {
	args := m.Called(ctx, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]dom.Element), args.Error(1)
}

// -- Opener Mock --

// MockOpener hands out pages and counts how many were opened.
type MockOpener struct {
	mock.Mock

	mu     sync.Mutex
	opened int
}

func (m *MockOpener) Open(ctx context.Context) (dom.Page, error) {
	m.mu.Lock()
	m.opened++
	m.mu.Unlock()

	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(dom.Page), args.Error(1)
}

// Opened returns the number of Open calls so far.
func (m *MockOpener) Opened() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opened
}

// -- Scraper Mock --

// MockScraper implements scrape.Scraper for the HTTP and CLI layers.
type MockScraper struct {
	mock.Mock
}

func (m *MockScraper) Run(ctx context.Context, location string, spec scrape.FilterSpec) ([]scrape.PropertyRecord, error) {
	args := m.Called(ctx, location, spec)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]scrape.PropertyRecord), args.Error(1)
}

var (
	_ dom.Page       = (*MockPage)(nil)
	_ dom.Element    = (*MockElement)(nil)
	_ dom.Opener     = (*MockOpener)(nil)
	_ scrape.Scraper = (*MockScraper)(nil)
)
