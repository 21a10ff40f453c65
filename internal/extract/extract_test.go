package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/slide-translator/internal/deck"
)

func textShape(texts ...string) *deck.Shape {
	var runs []*deck.Run
	for _, t := range texts {
		runs = append(runs, &deck.Run{Text: t})
	}
	return &deck.Shape{
		Kind:  deck.KindText,
		Frame: &deck.TextFrame{Paragraphs: []*deck.Paragraph{{Runs: runs}}},
	}
}

func TestSlide_PathsFollowDocumentOrder(t *testing.T) {
	slide := &deck.Slide{
		Number: 1,
		Shapes: []*deck.Shape{
			{Kind: deck.KindOther},
			textShape("first"),
			textShape("second"),
		},
	}

	doc := Slide(slide)

	require.Len(t, doc.Elements, 2)
	assert.Equal(t, "1", doc.Elements[0].Path)
	assert.Equal(t, "2", doc.Elements[1].Path)
	assert.Equal(t, ElementText, doc.Elements[0].Kind)
}

func TestSlide_NestedGroupPaths(t *testing.T) {
	inner := &deck.Shape{
		Kind:     deck.KindGroup,
		Children: []*deck.Shape{{Kind: deck.KindOther}, textShape("deep")},
	}
	slide := &deck.Slide{
		Number: 1,
		Shapes: []*deck.Shape{
			{Kind: deck.KindOther},
			{Kind: deck.KindOther},
			{Kind: deck.KindGroup, Children: []*deck.Shape{inner}},
		},
	}

	doc := Slide(slide)

	require.Len(t, doc.Elements, 1)
	assert.Equal(t, "2:0:1", doc.Elements[0].Path)
	assert.Equal(t, "deep", doc.Elements[0].Shape.TextContent.Paragraphs[0].Runs[0].Text)
}

func TestSlide_DeterministicAcrossWalks(t *testing.T) {
	slide := &deck.Slide{
		Number: 3,
		Shapes: []*deck.Shape{
			textShape("a"),
			{Kind: deck.KindGroup, Children: []*deck.Shape{textShape("b"), textShape("c")}},
		},
	}

	first := Slide(slide)
	second := Slide(slide)

	require.Equal(t, len(first.Elements), len(second.Elements))
	for i := range first.Elements {
		assert.Equal(t, first.Elements[i].Path, second.Elements[i].Path)
	}
}

func TestSlide_Table(t *testing.T) {
	anchor := "ctr"
	margin := int64(91440)
	slide := &deck.Slide{
		Number: 1,
		Shapes: []*deck.Shape{{
			Kind: deck.KindTable,
			Table: &deck.Table{Rows: [][]*deck.Cell{
				{
					{Frame: &deck.TextFrame{Paragraphs: []*deck.Paragraph{{Runs: []*deck.Run{{Text: "h1"}}}}}},
					{Frame: &deck.TextFrame{Paragraphs: []*deck.Paragraph{{Runs: []*deck.Run{{Text: "h2"}}}}},
						MarginLeft: &margin, VerticalAnchor: &anchor},
				},
			}},
		}},
	}

	doc := Slide(slide)

	require.Len(t, doc.Elements, 1)
	element := doc.Elements[0]
	assert.Equal(t, ElementTable, element.Kind)
	require.NotNil(t, element.Table)
	assert.Equal(t, 1, element.Table.Rows)
	assert.Equal(t, 2, element.Table.Cols)

	cell := element.Table.Cells[0][1]
	assert.Equal(t, "h2", cell.TextContent.Paragraphs[0].Runs[0].Text)
	assert.Equal(t, &margin, cell.MarginLeft)
	assert.Equal(t, &anchor, cell.VerticalAnchor)
	assert.Nil(t, cell.MarginRight)
}

func TestSlide_AbsentStyleStaysAbsent(t *testing.T) {
	slide := &deck.Slide{Number: 1, Shapes: []*deck.Shape{textShape("plain")}}

	doc := Slide(slide)

	run := doc.Elements[0].Shape.TextContent.Paragraphs[0].Runs[0]
	assert.Nil(t, run.FontSize)
	assert.Nil(t, run.FontName)
	assert.Nil(t, run.Bold)
	assert.Nil(t, run.Italic)
	assert.Nil(t, run.FontColor)
}

func TestSlide_MissingPayloadDegradesToWarning(t *testing.T) {
	slide := &deck.Slide{
		Number: 1,
		Shapes: []*deck.Shape{
			{Kind: deck.KindTable}, // no table payload
			textShape("ok"),
		},
	}

	doc := Slide(slide)

	require.Len(t, doc.Elements, 1)
	assert.Equal(t, "1", doc.Elements[0].Path)
	require.Len(t, doc.Warnings, 1)
	assert.Contains(t, doc.Warnings[0], "shape 0")
}

func TestElement_ContainersGridOrder(t *testing.T) {
	element := &Element{
		Kind: ElementTable,
		Table: &TableRecord{
			Cells: [][]*CellRecord{
				{{}, {}},
				{{}, {}},
			},
		},
	}

	assert.Len(t, element.Containers(), 4)
}
