package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shodgson/mdengine/model"
)

func heading(level int, text string) *model.Node {
	section := model.New(model.Section, model.Block).WithLevel(level)
	h := model.New(model.Heading, model.Block)
	h.AddText(text)
	section.AppendChild(h)
	return h
}

func TestToTOCFlatSiblingsAtSameLevel(t *testing.T) {
	headings := []*model.Node{heading(1, "One"), heading(1, "Two")}
	toc := ToTOC(headings, model.UL)

	assert.Equal(t, model.UL, toc.Name)
	require.Len(t, toc.Children, 2)
	assert.Equal(t, model.LI, toc.Children[0].Name)
	assert.Equal(t, "One", toc.Children[0].Children[0].Text)
	assert.Equal(t, "Two", toc.Children[1].Children[0].Text)
}

func TestToTOCDescendsOnLevelIncrease(t *testing.T) {
	headings := []*model.Node{heading(1, "One"), heading(2, "One.a")}
	toc := ToTOC(headings, model.OL)

	require.Len(t, toc.Children, 1)
	li := toc.Children[0]
	require.Len(t, li.Children, 2) // text "One" + nested list
	nested := li.Children[1]
	assert.Equal(t, model.OL, nested.Name)
	require.Len(t, nested.Children, 1)
	assert.Equal(t, "One.a", nested.Children[0].Children[0].Text)
}

func TestToTOCRisesOnLevelDecrease(t *testing.T) {
	headings := []*model.Node{
		heading(1, "One"),
		heading(2, "One.a"),
		heading(1, "Two"),
	}
	toc := ToTOC(headings, model.UL)

	require.Len(t, toc.Children, 2)
	assert.Equal(t, "Two", toc.Children[1].Children[0].Text)
}

func TestToTOCLevelJumpOfMoreThanOnePanics(t *testing.T) {
	headings := []*model.Node{heading(1, "One"), heading(3, "Deep")}
	assert.Panics(t, func() { ToTOC(headings, model.UL) })
}
