package pipeline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MimeLyc/slide-translator/internal/deck"
	"github.com/MimeLyc/slide-translator/internal/extract"
)

// Apply writes translated content from doc back into pres. Run texts are
// written in place so run properties and run counts survive untouched; cell
// margins and vertical anchors are reapplied; fonts, alignment and geometry
// are left to the original file. Mismatches between the document and the
// presentation (a reordered deck, a hand-edited checkpoint) degrade to
// warnings on the affected shape, never abort the whole apply.
func Apply(pres *deck.Presentation, doc *extract.PresentationDocument) []string {
	var warnings []string

	for _, slideDoc := range doc.Slides {
		slide := slideByNumber(pres, slideDoc.Number)
		if slide == nil {
			warnings = append(warnings, fmt.Sprintf("slide %d: not present in target presentation, skipped", slideDoc.Number))
			continue
		}

		for _, element := range slideDoc.Elements {
			if warning := applyElement(slide, element); warning != "" {
				warnings = append(warnings, fmt.Sprintf("slide %d: %s", slideDoc.Number, warning))
			}
		}
	}

	return warnings
}

func slideByNumber(pres *deck.Presentation, number int) *deck.Slide {
	for _, s := range pres.Slides {
		if s.Number == number {
			return s
		}
	}
	return nil
}

// shapeAt resolves a colon-joined positional path against the slide's shape
// tree, descending through groups.
func shapeAt(slide *deck.Slide, path string) (*deck.Shape, error) {
	indices := strings.Split(path, extract.PathSeparator)

	var shape *deck.Shape
	shapes := slide.Shapes
	for _, raw := range indices {
		idx, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid path %q", path)
		}
		if idx < 0 || idx >= len(shapes) {
			return nil, fmt.Errorf("path %q points outside the shape tree", path)
		}
		shape = shapes[idx]
		shapes = shape.Children
	}
	return shape, nil
}

func applyElement(slide *deck.Slide, element *extract.Element) string {
	shape, err := shapeAt(slide, element.Path)
	if err != nil {
		return err.Error() + ", skipped"
	}

	switch element.Kind {
	case extract.ElementText:
		if shape.Kind != deck.KindText || shape.Frame == nil {
			return fmt.Sprintf("shape %s: expected text shape, found %s, skipped", element.Path, shape.Kind)
		}
		if element.Shape == nil {
			return fmt.Sprintf("shape %s: text payload absent, skipped", element.Path)
		}
		return applyContainer(shape.Frame, &element.Shape.TextContent, element.Path)

	case extract.ElementTable:
		if shape.Kind != deck.KindTable || shape.Table == nil {
			return fmt.Sprintf("shape %s: expected table shape, found %s, skipped", element.Path, shape.Kind)
		}
		if element.Table == nil {
			return fmt.Sprintf("shape %s: table payload absent, skipped", element.Path)
		}
		return applyTable(shape.Table, element.Table, element.Path)
	}

	return fmt.Sprintf("shape %s: unknown element kind %q, skipped", element.Path, element.Kind)
}

func applyTable(table *deck.Table, rec *extract.TableRecord, path string) string {
	if len(table.Rows) != len(rec.Cells) {
		return fmt.Sprintf("shape %s: table has %d rows, document has %d, skipped", path, len(table.Rows), len(rec.Cells))
	}

	for r, row := range rec.Cells {
		if len(table.Rows[r]) != len(row) {
			return fmt.Sprintf("shape %s: row %d has %d cells, document has %d, skipped", path, r, len(table.Rows[r]), len(row))
		}
		for c, cellRec := range row {
			cell := table.Rows[r][c]
			cell.MarginLeft = cellRec.MarginLeft
			cell.MarginRight = cellRec.MarginRight
			cell.MarginTop = cellRec.MarginTop
			cell.MarginBottom = cellRec.MarginBottom
			cell.VerticalAnchor = cellRec.VerticalAnchor
			if cell.Frame != nil {
				cellPath := fmt.Sprintf("%s[%d][%d]", path, r, c)
				if warning := applyContainer(cell.Frame, &cellRec.TextContent, cellPath); warning != "" {
					return warning
				}
			}
		}
	}
	return ""
}

// applyContainer writes run texts in place, paragraph by paragraph. Runs are
// never added or removed, which keeps formatting and backend alignment
// intact.
func applyContainer(frame *deck.TextFrame, rec *extract.TextContainerRecord, path string) string {
	if len(frame.Paragraphs) != len(rec.Paragraphs) {
		return fmt.Sprintf("shape %s: paragraph count changed from %d to %d, skipped", path, len(frame.Paragraphs), len(rec.Paragraphs))
	}

	for i, paraRec := range rec.Paragraphs {
		para := frame.Paragraphs[i]
		if len(para.Runs) != len(paraRec.Runs) {
			return fmt.Sprintf("shape %s: paragraph %d run count changed from %d to %d, skipped", path, i, len(para.Runs), len(paraRec.Runs))
		}
		for j, runRec := range paraRec.Runs {
			para.Runs[j].Text = sanitizeText(runRec.Text)
		}
	}
	return ""
}

// sanitizeText strips control characters that are invalid in the output
// file format. Tab, newline and carriage return survive.
func sanitizeText(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}
