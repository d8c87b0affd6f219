package chrome

import (
	"context"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"

	"github.com/jmylchreest/xscrape/pkg/browser"
)

// Element is a DOM node in the driver's tab.
type Element struct {
	d    *Driver
	node *cdp.Node
}

func (e *Element) ids() []cdp.NodeID {
	return []cdp.NodeID{e.node.NodeID}
}

// FindFirst implements browser.Scope.
func (e *Element) FindFirst(ctx context.Context, loc browser.Locator) (browser.Element, error) {
	return first(e.d.query(ctx, e.node, loc))
}

// FindAll implements browser.Scope.
func (e *Element) FindAll(ctx context.Context, loc browser.Locator) ([]browser.Element, error) {
	return e.d.query(ctx, e.node, loc)
}

func (e *Element) Clear(ctx context.Context) error {
	return e.d.run(ctx, chromedp.Clear(e.ids(), chromedp.ByNodeID))
}

func (e *Element) SendKeys(ctx context.Context, text string) error {
	return e.d.run(ctx, chromedp.SendKeys(e.ids(), text, chromedp.ByNodeID))
}

func (e *Element) Click(ctx context.Context) error {
	return e.d.run(ctx, chromedp.Click(e.ids(), chromedp.ByNodeID))
}

// Text returns the text content of the node. Hidden nodes are read too.
func (e *Element) Text(ctx context.Context) (string, error) {
	var s string
	err := e.d.run(ctx, chromedp.TextContent(e.ids(), &s, chromedp.ByNodeID))
	return s, err
}

// Attribute reads the live attribute value.
func (e *Element) Attribute(ctx context.Context, name string) (string, bool, error) {
	var (
		v  string
		ok bool
	)
	err := e.d.run(ctx, chromedp.AttributeValue(e.ids(), name, &v, &ok, chromedp.ByNodeID))
	return v, ok, err
}
