package static

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jmylchreest/xscrape/pkg/browser"
)

// Element wraps a single goquery node.
type Element struct {
	sel *goquery.Selection
}

var _ browser.Element = (*Element)(nil)

// FindFirst implements browser.Scope.
func (e *Element) FindFirst(_ context.Context, loc browser.Locator) (browser.Element, error) {
	return findFirst(e.sel, loc)
}

// FindAll implements browser.Scope.
func (e *Element) FindAll(_ context.Context, loc browser.Locator) ([]browser.Element, error) {
	return findAll(e.sel, loc)
}

// Text returns the combined text of the node and its descendants.
func (e *Element) Text(context.Context) (string, error) {
	return e.sel.Text(), nil
}

// Attribute returns the named attribute.
func (e *Element) Attribute(_ context.Context, name string) (string, bool, error) {
	v, ok := e.sel.Attr(name)
	return v, ok, nil
}

// Clear empties the node's value attribute.
func (e *Element) Clear(context.Context) error {
	e.sel.SetAttr("value", "")
	return nil
}

// SendKeys appends text to the node's value attribute. A trailing
// browser.KeyEnter is accepted and dropped.
func (e *Element) SendKeys(_ context.Context, text string) error {
	text = strings.TrimSuffix(text, browser.KeyEnter)
	v, _ := e.sel.Attr("value")
	e.sel.SetAttr("value", v+text)
	return nil
}

// Click is not available without a renderer.
func (e *Element) Click(context.Context) error {
	return fmt.Errorf("click: %w", browser.ErrUnsupported)
}

func findFirst(sel *goquery.Selection, loc browser.Locator) (browser.Element, error) {
	all, err := findAll(sel, loc)
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, browser.ErrNoSuchElement
	}
	return all[0], nil
}

func findAll(sel *goquery.Selection, loc browser.Locator) ([]browser.Element, error) {
	if loc.Strategy != browser.StrategyCSS {
		return nil, fmt.Errorf("%s locator: %w", loc.Strategy, browser.ErrUnsupported)
	}
	found := sel.Find(loc.Value)
	out := make([]browser.Element, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		out = append(out, &Element{sel: s})
	})
	return out, nil
}
