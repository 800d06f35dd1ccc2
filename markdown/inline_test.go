package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shodgson/mdengine/model"
)

func parseAll(t *testing.T, line string) []*model.Node {
	t.Helper()
	nodes, pos, err := ParseInline(line, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, len(line), pos)
	return nodes
}

func TestParseInlinePlainText(t *testing.T) {
	nodes := parseAll(t, "hello world")
	require.Len(t, nodes, 1)
	assert.Equal(t, model.Text, nodes[0].Name)
	assert.Equal(t, "hello world", nodes[0].Text)
}

func TestParseInlineStrongAndEm(t *testing.T) {
	nodes := parseAll(t, "a **bold** and *emph*")
	require.Len(t, nodes, 4)
	assert.Equal(t, model.Text, nodes[0].Name)
	assert.Equal(t, model.Strong, nodes[1].Name)
	assert.Equal(t, "bold", nodes[1].Children[0].Text)
	assert.Equal(t, model.Text, nodes[2].Name)
	assert.Equal(t, model.Em, nodes[3].Name)
	assert.Equal(t, "emph", nodes[3].Children[0].Text)
}

func TestParseInlineCodeDoesNotNestEmphasis(t *testing.T) {
	nodes := parseAll(t, "`*not em*`")
	require.Len(t, nodes, 1)
	require.Equal(t, model.Code, nodes[0].Name)
	require.Len(t, nodes[0].Children, 1)
	assert.Equal(t, "*not em*", nodes[0].Children[0].Text)
	v, ok := nodes[0].Attr.Get("translate")
	require.True(t, ok)
	assert.Equal(t, "no", *v)
}

func TestParseInlineCodeNestsInsideStrongAndEm(t *testing.T) {
	nodes := parseAll(t, "**a `code` b**")
	require.Len(t, nodes, 1)
	strong := nodes[0]
	require.Equal(t, model.Strong, strong.Name)
	require.Len(t, strong.Children, 3)
	assert.Equal(t, model.Code, strong.Children[1].Name)
}

func TestParseInlineStrongCannotNestEm(t *testing.T) {
	nodes, _, err := ParseInline("**a *b* c**", 0, 1)
	// the inner `*` is scanned with em disallowed inside strong, so it is
	// just literal text, not an error; assert it does not produce an em node
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, model.Strong, nodes[0].Name)
	require.Len(t, nodes[0].Children, 1)
	assert.Equal(t, model.Text, nodes[0].Children[0].Name)
	assert.Equal(t, "a *b* c", nodes[0].Children[0].Text)
}

func TestParseInlineLink(t *testing.T) {
	nodes := parseAll(t, "[text](http://example.com)")
	require.Len(t, nodes, 1)
	a := nodes[0]
	assert.Equal(t, model.A, a.Name)
	href, ok := a.Attr.Get("href")
	require.True(t, ok)
	assert.Equal(t, "http://example.com", *href)
	require.Len(t, a.Children, 1)
	assert.Equal(t, "text", a.Children[0].Text)
}

func TestParseInlineLinkWithBalancedParensInURL(t *testing.T) {
	nodes := parseAll(t, "[wiki](http://x/y_\\(z\\))")
	require.Len(t, nodes, 1)
	href, _ := nodes[0].Attr.Get("href")
	require.NotNil(t, href)
	// href stays escaped at parse time; the encoder unescapes it at emission
	assert.Equal(t, `http://x/y_\(z\)`, *href)
}

func TestParseInlineUnterminatedLinkFallsBackToLiteralBracket(t *testing.T) {
	nodes, pos, err := ParseInline("[oops", 0, 1)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "[oops", nodes[0].Text)
	assert.Equal(t, 5, pos)
}

func TestParseInlineAutolink(t *testing.T) {
	nodes := parseAll(t, "<http://example.com>")
	require.Len(t, nodes, 1)
	a := nodes[0]
	assert.Equal(t, model.A, a.Name)
	href, _ := a.Attr.Get("href")
	assert.Equal(t, "http://example.com", *href)
	assert.Equal(t, "http://example.com", a.Children[0].Text)
}

func TestParseInlineBareURL(t *testing.T) {
	nodes := parseAll(t, "see http://example.com for more")
	require.Len(t, nodes, 3)
	assert.Equal(t, model.A, nodes[1].Name)
	href, _ := nodes[1].Attr.Get("href")
	assert.Equal(t, "http://example.com", *href)
}

func TestParseInlineImage(t *testing.T) {
	nodes := parseAll(t, `![alt text](img.png "a title")`)
	require.Len(t, nodes, 1)
	img := nodes[0]
	assert.Equal(t, model.Img, img.Name)
	assert.Equal(t, model.Inline, img.Kind)
	src, _ := img.Attr.Get("src")
	alt, _ := img.Attr.Get("alt")
	title, _ := img.Attr.Get("title")
	loading, _ := img.Attr.Get("loading")
	assert.Equal(t, "img.png", *src)
	assert.Equal(t, "alt text", *alt)
	assert.Equal(t, "a title", *title)
	assert.Equal(t, "lazy", *loading)
}

func TestParseInlineImageBadTitleDelimiterIsFatal(t *testing.T) {
	_, _, err := ParseInline(`![a](img.png bad)`, 0, 1)
	require.Error(t, err)
	var syn *SyntaxError
	require.ErrorAs(t, err, &syn)
	assert.Equal(t, 1, syn.Line)
}

func TestParseInlineWhitespaceViolationBeforeStrong(t *testing.T) {
	_, _, err := ParseInline("a  **bold**", 0, 1)
	require.Error(t, err)
	var syn *SyntaxError
	require.ErrorAs(t, err, &syn)
}

func TestParseInlineWhitespaceViolationInsideDelimiter(t *testing.T) {
	_, _, err := ParseInline("** bold**", 0, 1)
	require.Error(t, err)
}

func TestParseInlineWhitespaceViolationInsideLinkText(t *testing.T) {
	_, _, err := ParseInline("[ text](http://x)", 0, 1)
	require.Error(t, err)
	var syn *SyntaxError
	require.ErrorAs(t, err, &syn)
}

func TestParseInlineWhitespaceViolationInsideImageAlt(t *testing.T) {
	_, _, err := ParseInline("![ alt](img.png)", 0, 1)
	require.Error(t, err)
	var syn *SyntaxError
	require.ErrorAs(t, err, &syn)
}

func TestParseInlineWhitespaceViolationInsideAutolink(t *testing.T) {
	_, _, err := ParseInline("< http://x>", 0, 1)
	require.Error(t, err)
	var syn *SyntaxError
	require.ErrorAs(t, err, &syn)
}

func TestParseInlineWhitespaceViolationBeforeBareURL(t *testing.T) {
	_, _, err := ParseInline("text  http://x more", 0, 1)
	require.Error(t, err)
	var syn *SyntaxError
	require.ErrorAs(t, err, &syn)
}

func TestParseInlineEscapedDelimiterIsLiteral(t *testing.T) {
	nodes := parseAll(t, `\*not em\*`)
	require.Len(t, nodes, 1)
	assert.Equal(t, "*not em*", nodes[0].Text)
}

func TestParseInlineBlockquoteMidLine(t *testing.T) {
	nodes, pos, err := ParseInline("aside > quoted rest", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, len("aside > quoted rest"), pos)
	require.Len(t, nodes, 2)
	assert.Equal(t, model.Text, nodes[0].Name)
	bq := nodes[1]
	assert.Equal(t, model.Blockquote, bq.Name)
	require.Len(t, bq.Children, 1)
	assert.Equal(t, model.P, bq.Children[0].Name)
}

func TestCoalesceTextMergesConsecutiveTextNodes(t *testing.T) {
	a := model.New(model.Text, model.Inline).WithText("foo")
	b := model.New(model.Text, model.Inline).WithText("bar")
	strong := model.New(model.Strong, model.Inline)

	out := CoalesceText([]*model.Node{a, b, strong})
	require.Len(t, out, 2)
	assert.Equal(t, "foobar", out[0].Text)
	assert.Same(t, strong, out[1])
}
