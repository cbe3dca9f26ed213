// Package browser abstracts the handful of page operations the portal
// fetcher needs, so the navigation sequence can run against a real Chrome
// (see chrome.go) or a fake in tests.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a locator matches no element in time.
var ErrNotFound = errors.New("element not found")

// By selects how a Locator's value is interpreted.
type By int

const (
	// ByLinkText matches anchors whose whitespace-normalized text equals the value.
	ByLinkText By = iota
	// ByName matches elements by their name attribute.
	ByName
	// ByXPath uses the value as a raw XPath expression.
	ByXPath
)

func (b By) String() string {
	switch b {
	case ByLinkText:
		return "link text"
	case ByName:
		return "name"
	case ByXPath:
		return "xpath"
	default:
		return fmt.Sprintf("By(%d)", int(b))
	}
}

// Locator identifies one or more elements on the current page.
type Locator struct {
	By    By
	Value string
}

func (l Locator) String() string {
	return fmt.Sprintf("%s %q", l.By, l.Value)
}

// LinkText, Name and XPath are Locator shorthands.
func LinkText(text string) Locator { return Locator{By: ByLinkText, Value: text} }
func Name(name string) Locator     { return Locator{By: ByName, Value: name} }
func XPath(expr string) Locator    { return Locator{By: ByXPath, Value: expr} }

// TextContaining matches tag elements whose own text contains phrase,
// ignoring case. Wrappers whose text only comes from descendants do not
// match, so a nested label is found once.
func TextContaining(tag, phrase string) Locator {
	if tag == "" {
		tag = "*"
	}
	return XPath(fmt.Sprintf(
		"//%s[text()[contains(translate(normalize-space(.),'ABCDEFGHIJKLMNOPQRSTUVWXYZ','abcdefghijklmnopqrstuvwxyz'),%s)]]",
		tag, Literal(strings.ToLower(phrase)),
	))
}

// Nth narrows a locator to its n-th match (zero based), in document order.
func Nth(l Locator, n int) Locator {
	return XPath(fmt.Sprintf("(%s)[%d]", l.XPath(), n+1))
}

// XPath renders the locator as an XPath expression.
func (l Locator) XPath() string {
	switch l.By {
	case ByLinkText:
		return fmt.Sprintf("//a[normalize-space(.)=%s]", Literal(strings.TrimSpace(l.Value)))
	case ByName:
		return fmt.Sprintf("//*[@name=%s]", Literal(l.Value))
	default:
		return l.Value
	}
}

// Literal quotes s as an XPath 1.0 string literal. XPath has no escape
// sequences, so strings holding both quote kinds are built with concat().
func Literal(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	quoted := make([]string, 0, len(parts)*2)
	for i, p := range parts {
		if i > 0 {
			quoted = append(quoted, `"'"`)
		}
		if p != "" {
			quoted = append(quoted, "'"+p+"'")
		}
	}
	return "concat(" + strings.Join(quoted, ",") + ")"
}

// Session is a live browser tab. Calls block until they finish or ctx is done.
type Session interface {
	// Navigate loads url in the tab.
	Navigate(ctx context.Context, url string) error
	// WaitClickable blocks until the first match is visible and enabled.
	WaitClickable(ctx context.Context, loc Locator) error
	// Click scrolls the first match into view and clicks it.
	Click(ctx context.Context, loc Locator) error
	// FindAll returns one locator per current match, without waiting.
	FindAll(ctx context.Context, loc Locator) ([]Locator, error)
	// Options returns the option labels of a <select>.
	Options(ctx context.Context, loc Locator) ([]string, error)
	// SelectOption selects the option of a <select> whose label equals label.
	SelectOption(ctx context.Context, loc Locator, label string) error
	// Close releases the tab and the browser process behind it.
	Close() error
}

// Launcher starts sessions that save downloads into downloadDir without prompting.
type Launcher interface {
	Launch(ctx context.Context, downloadDir string) (Session, error)
}
