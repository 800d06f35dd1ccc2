package mdengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shodgson/mdengine"
)

func TestFormatHeading(t *testing.T) {
	got, err := mdengine.Format("# Title")
	require.NoError(t, err)
	assert.Equal(t, "<article>\n  <h1>Title</h1>\n</article>\n", got)
}

func TestFormatFlatList(t *testing.T) {
	got, err := mdengine.Format("- a\n- b")
	require.NoError(t, err)
	assert.Equal(t, "<ul>\n  <li>a\n  <li>b\n</ul>\n", got)
}

func TestFormatNestedList(t *testing.T) {
	got, err := mdengine.Format("- a\n  - b")
	require.NoError(t, err)
	assert.Equal(t, "<ul>\n  <li>a\n    <ul>\n      <li>b\n    </ul>\n</ul>\n", got)
}

func TestFormatCodeFenceWithPath(t *testing.T) {
	got, err := mdengine.Format("```js:main.js\nx=1\n```")
	require.NoError(t, err)
	assert.Contains(t, got, "data-path=main.js")
	assert.Contains(t, got, "class=language-js")
}

func TestFormatTableWithCaptionAndAlignment(t *testing.T) {
	got, err := mdengine.Format("Caption: T\n|a|b|\n|:-|-:|\n|1|2|")
	require.NoError(t, err)
	assert.Contains(t, got, "<figcaption>T</figcaption>")
	assert.Contains(t, got, "<th class=align-left>")
	assert.Contains(t, got, "<td class=align-right>")
}

func TestFormatBlockquoteCitation(t *testing.T) {
	got, err := mdengine.Format("> quoted\n> --- [src](http://x)")
	require.NoError(t, err)
	assert.Contains(t, got, `<blockquote cite="http://x">`)
	assert.Contains(t, got, "--- <cite>")
}

func TestFormatHeadingLevelSkipFails(t *testing.T) {
	_, err := mdengine.Format("# H1\n### H3")
	require.Error(t, err)
	var syn *mdengine.SyntaxError
	require.ErrorAs(t, err, &syn)
	assert.Equal(t, 2, syn.Line)
}

func TestFormatListDoubleSpaceFails(t *testing.T) {
	_, err := mdengine.Format("-  double space")
	require.Error(t, err)
}

func TestFormatTableWithoutCaptionFails(t *testing.T) {
	_, err := mdengine.Format("| a | b |")
	require.Error(t, err)
}

func TestTraverseAndToTOCIntegration(t *testing.T) {
	root, err := mdengine.Decode("# One\n\n## One.a\n\n# Two")
	require.NoError(t, err)

	var headings []*mdengine.Node
	mdengine.Traverse(root, mdengine.TraversePlugin{
		Enter: func(n *mdengine.Node) *mdengine.Node {
			if n.Name == "heading" {
				headings = append(headings, n)
			}
			return n
		},
	})
	require.Len(t, headings, 3)

	toc := mdengine.ToTOC(headings, "ul")
	require.Len(t, toc.Children, 2)
	nested := toc.Children[0].Children[1]
	assert.Equal(t, "ul", nested.Name)
	require.Len(t, nested.Children, 1)
}
