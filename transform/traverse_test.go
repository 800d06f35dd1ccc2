package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shodgson/mdengine/model"
)

func buildSimpleTree() *model.Node {
	root := model.New(model.Root, model.Block)
	section := model.New(model.Section, model.Block).WithLevel(1)
	heading := model.New(model.Heading, model.Block)
	heading.AddText("Title")
	section.AppendChild(heading)
	root.AppendChild(section)
	return root
}

func TestTraverseIdentityPluginLeavesTreeUnchanged(t *testing.T) {
	root := buildSimpleTree()
	out := Traverse(root, Plugin{})

	require.Len(t, out.Children, 1)
	section := out.Children[0]
	assert.Equal(t, model.Section, section.Name)
	require.Len(t, section.Children, 1)
	assert.Equal(t, model.Heading, section.Children[0].Name)
}

func TestTraverseVisitsPreOrderThenPostOrder(t *testing.T) {
	root := buildSimpleTree()

	var entered, left []string
	Traverse(root, Plugin{
		Enter: func(n *model.Node) *model.Node {
			entered = append(entered, n.Name)
			return n
		},
		Leave: func(n *model.Node) *model.Node {
			left = append(left, n.Name)
			return n
		},
	})

	// enter: root, section, heading, text (pre-order)
	assert.Equal(t, []string{model.Root, model.Section, model.Heading, model.Text}, entered)
	// leave: text, heading, section, root (post-order)
	assert.Equal(t, []string{model.Text, model.Heading, model.Section, model.Root}, left)
}

func TestTraverseEnterCanSubstituteANode(t *testing.T) {
	root := buildSimpleTree()
	replacement := model.New(model.Empty, model.Inline)

	out := Traverse(root, Plugin{
		Enter: func(n *model.Node) *model.Node {
			if n.Name == model.Heading {
				return replacement
			}
			return n
		},
	})

	section := out.Children[0]
	assert.Same(t, replacement, section.Children[0])
	assert.Same(t, section, section.Children[0].Parent)
}
