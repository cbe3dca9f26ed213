package browser

import (
	"strings"
	"testing"

	"github.com/antchfx/htmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

const variablesPage = `<html><body>
<div id="vars">
  <span class="group"><span class="toggle">Select all</span></span>
  <span class="toggle">  SELECT ALL
     variables </span>
  <span>Clear selection</span>
  <span>Country of origin</span>
</div>
<a href="/browse">  Browse </a>
<select name="ctl00$MainContent$dlOutputOptions"><option>Excel</option><option>Comma delimited (.csv)</option></select>
</body></html>`

func query(t *testing.T, expr string) []*html.Node {
	t.Helper()
	doc, err := htmlquery.Parse(strings.NewReader(variablesPage))
	require.NoError(t, err)
	nodes, err := htmlquery.QueryAll(doc, expr)
	require.NoError(t, err)
	return nodes
}

func TestTextContainingMatchesInnermostLabelOnly(t *testing.T) {
	loc := TextContaining("span", "Select all")

	nodes := query(t, loc.XPath())
	require.Len(t, nodes, 2)
	for _, n := range nodes {
		assert.Equal(t, "toggle", htmlquery.SelectAttr(n, "class"))
	}
	assert.Equal(t, "Select all", htmlquery.InnerText(nodes[0]))

	second := query(t, Nth(loc, 1).XPath())
	require.Len(t, second, 1)
	assert.Contains(t, htmlquery.InnerText(second[0]), "variables")
}

func TestLocatorsResolveOnPage(t *testing.T) {
	assert.Len(t, query(t, LinkText("Browse").XPath()), 1)
	assert.Len(t, query(t, Name("ctl00$MainContent$dlOutputOptions").XPath()), 1)
	assert.Empty(t, query(t, TextContaining("span", "no such label").XPath()))
}
