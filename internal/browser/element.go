// internal/browser/element.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/chromedp/cdproto/cdp"
	cdpdom "github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/input"
	cdpruntime "github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/xkilldash9x/estate-scout/internal/browser/dom"
	"github.com/xkilldash9x/estate-scout/internal/humanoid"
)

// visibleJS mirrors what a user can see: laid out and not hidden by style.
const visibleJS = `function() {
	const s = window.getComputedStyle(this);
	if (s.visibility === 'hidden' || s.display === 'none') { return false; }
	return Boolean(this.offsetWidth || this.offsetHeight || this.getClientRects().length);
}`

var errScopedXPath = errors.New("xpath locators cannot be scoped to an element")

type element struct {
	page *Page
	node *cdp.Node
}

var _ dom.Element = (*element)(nil)

func (e *element) ids() []cdp.NodeID { return []cdp.NodeID{e.node.NodeID} }

// Click presses the left button near the element's center, offset by the
// pacing policy's jitter and held for its click hold time. Elements without
// a box model fall back to chromedp's synthetic click.
func (e *element) Click(ctx context.Context) error {
	policy := e.page.policy
	return e.page.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		// Best effort; an element already in view may reject the scroll.
		_ = cdpdom.ScrollIntoViewIfNeeded().WithNodeID(e.node.NodeID).Do(ctx)

		box, err := cdpdom.GetBoxModel().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil || box == nil || len(box.Content) < 8 {
			return chromedp.Click(e.ids(), chromedp.ByNodeID).Do(ctx)
		}

		x, y, w, h := quadBounds(box.Content)
		dx, dy := policy.Jitter()
		x += clamp(dx, w/2-1)
		y += clamp(dy, h/2-1)

		if err := input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx); err != nil {
			return fmt.Errorf("mouse move: %w", err)
		}
		if err := input.DispatchMouseEvent(input.MousePressed, x, y).
			WithButton(input.Left).WithClickCount(1).Do(ctx); err != nil {
			return fmt.Errorf("mouse press: %w", err)
		}
		if err := humanoid.Sleep(ctx, policy.ClickHold()); err != nil {
			return err
		}
		return input.DispatchMouseEvent(input.MouseReleased, x, y).
			WithButton(input.Left).WithClickCount(1).Do(ctx)
	}))
}

func (e *element) Fill(ctx context.Context, value string) error {
	tasks := chromedp.Tasks{chromedp.Clear(e.ids(), chromedp.ByNodeID)}
	if value != "" {
		tasks = append(tasks, chromedp.SendKeys(e.ids(), value, chromedp.ByNodeID))
	}
	return e.page.run(ctx, tasks)
}

func (e *element) Focus(ctx context.Context) error {
	return e.page.run(ctx, chromedp.Focus(e.ids(), chromedp.ByNodeID))
}

// Visible reports false, without error, for detached or unrendered nodes.
func (e *element) Visible(ctx context.Context) (bool, error) {
	var visible bool
	err := e.page.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		obj, err := cdpdom.ResolveNode().WithNodeID(e.node.NodeID).Do(ctx)
		if err != nil || obj == nil {
			return nil
		}
		defer func() { _ = cdpruntime.ReleaseObject(obj.ObjectID).Do(ctx) }()

		res, exc, err := cdpruntime.CallFunctionOn(visibleJS).
			WithObjectID(obj.ObjectID).
			WithReturnByValue(true).
			Do(ctx)
		if err != nil || exc != nil || res == nil {
			return nil
		}
		visible = string(res.Value) == "true"
		return nil
	}))
	return visible, err
}

func (e *element) Text(ctx context.Context) (string, error) {
	var text string
	if err := e.page.run(ctx, chromedp.Text(e.ids(), &text, chromedp.ByNodeID)); err != nil {
		return "", err
	}
	return collapseSpace(text), nil
}

func (e *element) Attribute(ctx context.Context, name string) (string, bool, error) {
	var (
		value string
		ok    bool
	)
	if err := e.page.run(ctx, chromedp.AttributeValue(e.ids(), name, &value, &ok, chromedp.ByNodeID)); err != nil {
		return "", false, err
	}
	return value, ok, nil
}

func (e *element) QueryAll(ctx context.Context, loc dom.Locator) ([]dom.Element, error) {
	if loc.By == dom.ByXPath {
		return nil, errScopedXPath
	}
	var nodes []*cdp.Node
	err := e.page.run(ctx, chromedp.Nodes(loc.Query, &nodes,
		chromedp.ByQueryAll,
		chromedp.FromNode(e.node),
		chromedp.AtLeast(0),
	))
	if err != nil {
		return nil, fmt.Errorf("query %s within element: %w", loc, err)
	}
	return e.page.wrap(nodes), nil
}

// quadBounds returns the center and size of a content quad.
func quadBounds(q cdpdom.Quad) (cx, cy, w, h float64) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for i := 0; i+1 < len(q); i += 2 {
		minX, maxX = math.Min(minX, q[i]), math.Max(maxX, q[i])
		minY, maxY = math.Min(minY, q[i+1]), math.Max(maxY, q[i+1])
	}
	return (minX + maxX) / 2, (minY + maxY) / 2, maxX - minX, maxY - minY
}

func clamp(v, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return math.Max(-limit, math.Min(limit, v))
}
