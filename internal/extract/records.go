// Package extract walks a slide's shape tree into plain records that survive
// translation and the XML checkpoint. Style fields are captured only when
// present on the source; absence round-trips as absence.
package extract

// RunRecord captures one run's text and optional style.
type RunRecord struct {
	Text      string   `json:"text"`
	FontSize  *float64 `json:"font_size,omitempty"`
	FontName  *string  `json:"font_name,omitempty"`
	Bold      *bool    `json:"bold,omitempty"`
	Italic    *bool    `json:"italic,omitempty"`
	FontColor *string  `json:"font_color,omitempty"`
}

// ParagraphRecord keeps runs separate to preserve intra-paragraph formatting
// boundaries across translation.
type ParagraphRecord struct {
	Runs        []*RunRecord `json:"runs"`
	Alignment   *string      `json:"alignment,omitempty"`
	LineSpacing *float64     `json:"line_spacing,omitempty"`
	SpaceBefore *float64     `json:"space_before,omitempty"`
	SpaceAfter  *float64     `json:"space_after,omitempty"`
	Level       int          `json:"level"`
}

// TextContainerRecord is a shape's text frame or a table cell's text frame.
type TextContainerRecord struct {
	Paragraphs []*ParagraphRecord `json:"paragraphs"`
}

type ShapeRecord struct {
	Width       *int64              `json:"width,omitempty"`
	Height      *int64              `json:"height,omitempty"`
	Left        *int64              `json:"left,omitempty"`
	Top         *int64              `json:"top,omitempty"`
	TextContent TextContainerRecord `json:"text_content"`
}

type CellRecord struct {
	MarginLeft     *int64              `json:"margin_left,omitempty"`
	MarginRight    *int64              `json:"margin_right,omitempty"`
	MarginTop      *int64              `json:"margin_top,omitempty"`
	MarginBottom   *int64              `json:"margin_bottom,omitempty"`
	VerticalAnchor *string             `json:"vertical_anchor,omitempty"`
	TextContent    TextContainerRecord `json:"text_content"`
}

type TableRecord struct {
	Rows  int             `json:"rows"`
	Cols  int             `json:"cols"`
	Cells [][]*CellRecord `json:"cells"`
}

// ElementKind tags a checkpointed element so reconstruction knows which
// apply function to use without re-walking type information.
type ElementKind string

const (
	ElementText  ElementKind = "text_element"
	ElementTable ElementKind = "table_element"
)

// Element is one extracted shape or table, addressed by its ShapePath.
type Element struct {
	Path  string
	Kind  ElementKind
	Shape *ShapeRecord
	Table *TableRecord
}

// SlideDocument holds everything extracted from one slide, in traversal
// order, plus per-shape warnings collected along the way.
type SlideDocument struct {
	Number   int
	Elements []*Element
	Warnings []string
}

// PresentationDocument assembles slide documents in slide order.
type PresentationDocument struct {
	FilePath string
	Slides   []*SlideDocument
}

// Slide returns the slide document with the given number, or nil.
func (p *PresentationDocument) Slide(number int) *SlideDocument {
	for _, s := range p.Slides {
		if s.Number == number {
			return s
		}
	}
	return nil
}

// Element returns the element at path, or nil.
func (s *SlideDocument) Element(path string) *Element {
	for _, e := range s.Elements {
		if e.Path == path {
			return e
		}
	}
	return nil
}

// Containers lists the element's text containers: the shape frame for text
// elements, every cell frame in grid order for tables.
func (e *Element) Containers() []*TextContainerRecord {
	switch e.Kind {
	case ElementText:
		if e.Shape == nil {
			return nil
		}
		return []*TextContainerRecord{&e.Shape.TextContent}
	case ElementTable:
		if e.Table == nil {
			return nil
		}
		var ret []*TextContainerRecord
		for _, row := range e.Table.Cells {
			for _, cell := range row {
				ret = append(ret, &cell.TextContent)
			}
		}
		return ret
	}
	return nil
}
