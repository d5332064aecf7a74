// browser/dom/page.go
package dom

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned when a locator matches nothing.
var ErrNotFound = errors.New("dom: no element matches locator")

// By selects the selector language of a Locator.
type By int

const (
	ByCSS By = iota
	ByXPath
)

func (b By) String() string {
	switch b {
	case ByCSS:
		return "css"
	case ByXPath:
		return "xpath"
	default:
		return fmt.Sprintf("By(%d)", int(b))
	}
}

// Locator is one way of finding an element.
type Locator struct {
	// Description names the strategy in logs.
	Description string
	Query       string
	By          By
}

// CSS builds a CSS locator.
func CSS(description, query string) Locator {
	return Locator{Description: description, Query: query, By: ByCSS}
}

// XPath builds an XPath locator.
func XPath(description, query string) Locator {
	return Locator{Description: description, Query: query, By: ByXPath}
}

func (l Locator) String() string {
	return fmt.Sprintf("%s %s=%q", l.Description, l.By, l.Query)
}

// Condition is what WaitFor blocks on. Click targets need Visible; inputs
// that will be filled need VisibleEnabled.
type Condition int

const (
	Visible Condition = iota
	VisibleEnabled
)

func (c Condition) String() string {
	if c == VisibleEnabled {
		return "visible+enabled"
	}
	return "visible"
}

// Key is a named non-printable key.
type Key string

const (
	KeyEnter  Key = "Enter"
	KeyTab    Key = "Tab"
	KeyEscape Key = "Escape"
)

// Page is one open page of a browser session. Implementations must make
// Close idempotent.
type Page interface {
	// Navigate loads url and returns the HTTP status of the main document,
	// or 0 when no response was received.
	Navigate(ctx context.Context, url string) (int, error)
	// WaitFor blocks until the first element matching loc satisfies cond
	// or ctx is done.
	WaitFor(ctx context.Context, loc Locator, cond Condition) (Element, error)
	// QueryAll returns every current match without waiting. Zero matches
	// is not an error.
	QueryAll(ctx context.Context, loc Locator) ([]Element, error)
	// TypeText sends literal keystrokes to the focused element.
	TypeText(ctx context.Context, text string) error
	PressKey(ctx context.Context, key Key) error
	// WaitNetworkIdle blocks until no requests are in flight for the
	// implementation's quiet period, or ctx is done.
	WaitNetworkIdle(ctx context.Context) error
	Content(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	URL() string
	Close(ctx context.Context) error
}

// Element is a handle to a node of a Page.
type Element interface {
	Click(ctx context.Context) error
	// Fill replaces the element's value.
	Fill(ctx context.Context, value string) error
	Focus(ctx context.Context) error
	Visible(ctx context.Context) (bool, error)
	// Text is the rendered text with whitespace collapsed.
	Text(ctx context.Context) (string, error)
	Attribute(ctx context.Context, name string) (string, bool, error)
	// QueryAll searches the element's subtree.
	QueryAll(ctx context.Context, loc Locator) ([]Element, error)
}

// Opener acquires a fresh, isolated Page. Each call owns its own browser
// resources, released by Page.Close.
type Opener interface {
	Open(ctx context.Context) (Page, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context) (Page, error)

func (f OpenerFunc) Open(ctx context.Context) (Page, error) { return f(ctx) }
