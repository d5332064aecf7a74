package htmlpage

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/xkilldash9x/estate-scout/internal/browser/dom"
)

type element struct {
	page *Page
	sel  *goquery.Selection
}

var _ dom.Element = (*element)(nil)

// name identifies the element in recorded actions.
func (e *element) name() string {
	for _, attr := range []string{"data-test-id", "id", "name"} {
		if v, ok := e.sel.Attr(attr); ok && v != "" {
			return v
		}
	}
	return goquery.NodeName(e.sel)
}

// visible treats an element as hidden when it or an ancestor carries the
// hidden attribute or an inline display:none / visibility:hidden style.
func (e *element) visible() bool {
	if t, _ := e.sel.Attr("type"); strings.EqualFold(t, "hidden") {
		return false
	}
	for s := e.sel; s.Length() > 0; s = s.Parent() {
		if _, hidden := s.Attr("hidden"); hidden {
			return false
		}
		style, _ := s.Attr("style")
		style = strings.ReplaceAll(strings.ToLower(style), " ", "")
		if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
			return false
		}
	}
	return true
}

func (e *element) disabled() bool {
	_, ok := e.sel.Attr("disabled")
	return ok
}

func (e *element) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.focus()
	e.page.record(Action{Kind: "click", Target: e.name()})
	return nil
}

func (e *element) Fill(ctx context.Context, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.focus()
	e.sel.SetAttr("value", value)
	e.page.record(Action{Kind: "fill", Target: e.name(), Value: value})
	return nil
}

func (e *element) Focus(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.focus()
	e.page.record(Action{Kind: "focus", Target: e.name()})
	return nil
}

func (e *element) focus() {
	e.page.mu.Lock()
	e.page.focused = e
	e.page.mu.Unlock()
}

func (e *element) Visible(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	return e.visible(), nil
}

func (e *element) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(e.sel.Text()), " "), nil
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

func (e *element) QueryAll(ctx context.Context, loc dom.Locator) ([]dom.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if loc.By == dom.ByXPath {
		return nil, ErrXPathUnsupported
	}
	return e.page.wrap(e.sel.Find(loc.Query)), nil
}
