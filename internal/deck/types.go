// Package deck defines the in-memory presentation model the pipeline works
// against. Concrete backends (see opc) load a presentation file into this
// model and write the mutated model back out.
package deck

// Kind discriminates the closed set of shape variants the pipeline handles.
type Kind int

const (
	// KindOther covers pictures, connectors without text and anything else
	// the pipeline ignores.
	KindOther Kind = iota
	KindGroup
	KindText
	KindTable
)

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindText:
		return "text"
	case KindTable:
		return "table"
	default:
		return "other"
	}
}

type Presentation struct {
	Slides []*Slide
}

type Slide struct {
	Number int // 1-indexed
	Shapes []*Shape
}

// Shape is a tagged variant: exactly one of Children, Table or Frame is
// populated for kinds Group, Table and Text respectively.
type Shape struct {
	Kind Kind

	// Geometry in EMU. Nil when the backend does not expose it.
	Width  *int64
	Height *int64
	Left   *int64
	Top    *int64

	Children []*Shape
	Table    *Table
	Frame    *TextFrame
}

type Table struct {
	// Rows[r][c]; every row has the same length.
	Rows [][]*Cell
}

type Cell struct {
	// Margins in EMU, nil when inherited.
	MarginLeft   *int64
	MarginRight  *int64
	MarginTop    *int64
	MarginBottom *int64

	VerticalAnchor *string // "t", "ctr" or "b"

	Frame *TextFrame
}

type TextFrame struct {
	Paragraphs []*Paragraph
}

type Paragraph struct {
	Alignment   *string  // "l", "ctr", "r", "just"
	LineSpacing *float64 // points or line multiple, backend dependent
	SpaceBefore *float64 // points
	SpaceAfter  *float64 // points
	Level       int

	Runs []*Run
}

// Run is the smallest span of text sharing one formatting set. Style fields
// are nil when the run inherits them, and an absent field must stay absent
// so inherited theme formatting is never overwritten.
type Run struct {
	Text string

	FontSize *float64 // points
	FontName *string
	Bold     *bool
	Italic   *bool
	Color    *string // RRGGBB
}

// Document is the opaque handle a backend returns for an opened presentation.
type Document interface {
	Presentation() *Presentation
	Save(path string) error
}

// Opener opens a presentation file into a Document.
type Opener func(path string) (Document, error)

// FlattenRuns returns every run of the slide in deterministic traversal
// order: shapes in document order, groups descended depth-first, table rows
// then cells left to right. Backends rely on this order matching the order
// text appears in the underlying file.
func (s *Slide) FlattenRuns() []*Run {
	var runs []*Run
	for _, shape := range s.Shapes {
		runs = appendShapeRuns(runs, shape)
	}
	return runs
}

func appendShapeRuns(runs []*Run, shape *Shape) []*Run {
	switch shape.Kind {
	case KindGroup:
		for _, child := range shape.Children {
			runs = appendShapeRuns(runs, child)
		}
	case KindTable:
		if shape.Table == nil {
			return runs
		}
		for _, row := range shape.Table.Rows {
			for _, cell := range row {
				runs = appendFrameRuns(runs, cell.Frame)
			}
		}
	case KindText:
		runs = appendFrameRuns(runs, shape.Frame)
	}
	return runs
}

func appendFrameRuns(runs []*Run, frame *TextFrame) []*Run {
	if frame == nil {
		return runs
	}
	for _, para := range frame.Paragraphs {
		runs = append(runs, para.Runs...)
	}
	return runs
}
