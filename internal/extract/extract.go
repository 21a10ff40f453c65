package extract

import (
	"fmt"
	"strconv"

	"github.com/MimeLyc/slide-translator/internal/deck"
)

// PathSeparator joins the positional indices of a ShapePath.
const PathSeparator = ":"

// ChildPath extends a ShapePath with a nested child index.
func ChildPath(parent string, index int) string {
	return parent + PathSeparator + strconv.Itoa(index)
}

// Slide walks one slide's shape tree depth-first and produces its document.
// Traversal follows document shape order, so the resulting ShapePaths are
// stable across independent walks of the same unmodified presentation.
// A failure on one shape degrades to a warning, never aborts the slide.
func Slide(slide *deck.Slide) *SlideDocument {
	doc := &SlideDocument{Number: slide.Number}
	for i, shape := range slide.Shapes {
		walkShape(shape, strconv.Itoa(i), doc)
	}
	return doc
}

func walkShape(shape *deck.Shape, path string, doc *SlideDocument) {
	if shape == nil {
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("shape %s: missing, skipped", path))
		return
	}

	switch shape.Kind {
	case deck.KindGroup:
		// groups contribute no record of their own
		for i, child := range shape.Children {
			walkShape(child, ChildPath(path, i), doc)
		}
	case deck.KindTable:
		if shape.Table == nil {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("shape %s: table payload absent, skipped", path))
			return
		}
		doc.Elements = append(doc.Elements, &Element{
			Path:  path,
			Kind:  ElementTable,
			Table: tableRecord(shape.Table),
		})
	case deck.KindText:
		if shape.Frame == nil {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("shape %s: text frame absent, skipped", path))
			return
		}
		doc.Elements = append(doc.Elements, &Element{
			Path:  path,
			Kind:  ElementText,
			Shape: shapeRecord(shape),
		})
	}
	// KindOther contributes nothing
}

func shapeRecord(shape *deck.Shape) *ShapeRecord {
	return &ShapeRecord{
		Width:       shape.Width,
		Height:      shape.Height,
		Left:        shape.Left,
		Top:         shape.Top,
		TextContent: containerRecord(shape.Frame),
	}
}

func tableRecord(table *deck.Table) *TableRecord {
	rec := &TableRecord{Rows: len(table.Rows)}
	for _, row := range table.Rows {
		if len(row) > rec.Cols {
			rec.Cols = len(row)
		}
		cells := make([]*CellRecord, 0, len(row))
		for _, cell := range row {
			cells = append(cells, &CellRecord{
				MarginLeft:     cell.MarginLeft,
				MarginRight:    cell.MarginRight,
				MarginTop:      cell.MarginTop,
				MarginBottom:   cell.MarginBottom,
				VerticalAnchor: cell.VerticalAnchor,
				TextContent:    containerRecord(cell.Frame),
			})
		}
		rec.Cells = append(rec.Cells, cells)
	}
	return rec
}

func containerRecord(frame *deck.TextFrame) TextContainerRecord {
	var rec TextContainerRecord
	if frame == nil {
		return rec
	}
	for _, para := range frame.Paragraphs {
		p := &ParagraphRecord{
			Alignment:   para.Alignment,
			LineSpacing: para.LineSpacing,
			SpaceBefore: para.SpaceBefore,
			SpaceAfter:  para.SpaceAfter,
			Level:       para.Level,
		}
		for _, run := range para.Runs {
			p.Runs = append(p.Runs, &RunRecord{
				Text:      run.Text,
				FontSize:  run.FontSize,
				FontName:  run.FontName,
				Bold:      run.Bold,
				Italic:    run.Italic,
				FontColor: run.Color,
			})
		}
		rec.Paragraphs = append(rec.Paragraphs, p)
	}
	return rec
}
