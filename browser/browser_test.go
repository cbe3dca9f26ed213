package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Browse", want: "'Browse'"},
		{in: "Men's", want: `"Men's"`},
		{in: `say "hi"`, want: `'say "hi"'`},
		{in: `it's "x"`, want: `concat('it',"'",'s "x"')`},
		{in: `'"`, want: `concat("'",'"')`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Literal(tt.in))
		})
	}
}

func TestLocatorXPath(t *testing.T) {
	assert.Equal(t,
		"//a[normalize-space(.)='Imports - Summary Data - IMP']",
		LinkText(" Imports - Summary Data - IMP ").XPath(),
	)
	assert.Equal(t,
		"//*[@name='ctl00$MainContent$btnGo']",
		Name("ctl00$MainContent$btnGo").XPath(),
	)
	raw := "//input[@type='submit']"
	assert.Equal(t, raw, XPath(raw).XPath())
}

func TestTextContainingLowercasesPhrase(t *testing.T) {
	loc := TextContaining("span", "Select All")
	assert.Equal(t, ByXPath, loc.By)
	assert.True(t, strings.HasPrefix(loc.Value, "//span[text()[contains(translate("))
	assert.Contains(t, loc.Value, ",'select all')]]")

	assert.True(t, strings.HasPrefix(TextContaining("", "x").Value, "//*["))
}

func TestNth(t *testing.T) {
	loc := Nth(Name("go"), 2)
	assert.Equal(t, "(//*[@name='go'])[3]", loc.Value)
}

func TestLocatorString(t *testing.T) {
	assert.Equal(t, `link text "Browse"`, LinkText("Browse").String())
	assert.Equal(t, "By(9)", By(9).String())
}

func TestScriptsQuoteArguments(t *testing.T) {
	xp := `//select[@name="a'b"]`
	script := selectScript(xp, `CSV "comma"`)
	assert.Contains(t, script, `"//select[@name=\"a'b\"]"`)
	assert.Contains(t, script, `"CSV \"comma\""`)
	assert.Contains(t, countScript("//a"), `"//a"`)
}

func TestNotFoundWrapsDeadline(t *testing.T) {
	err := notFound(LinkText("Browse"), fmt.Errorf("wait: %w", context.DeadlineExceeded))
	assert.True(t, errors.Is(err, ErrNotFound))

	other := notFound(LinkText("Browse"), errors.New("websocket closed"))
	assert.False(t, errors.Is(other, ErrNotFound))
	assert.Contains(t, other.Error(), "websocket closed")
}
