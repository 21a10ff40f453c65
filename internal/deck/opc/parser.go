package opc

import (
	"bytes"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/MimeLyc/slide-translator/internal/deck"
)

const nsDrawingML = "http://schemas.openxmlformats.org/drawingml/2006/main"

// slideParser walks one slide part's token stream. Every DrawingML <a:t>
// element gets an ordinal as it streams past, including those inside skipped
// subtrees (mc:AlternateContent, pic, cxnSp), and each model run records the
// ordinal of the text element that backs it. Save substitutes exactly those
// ordinals, so text in skipped content can never receive a run's translation.
type slideParser struct {
	dec *xml.Decoder

	// nextText is the ordinal of the next <a:t> in the part.
	nextText int
	// ordinals[i] backs the i-th run in traversal order; -1 for a run
	// without a text element.
	ordinals []int
}

// next wraps Decoder.Token, counting every DrawingML text element.
func (p *slideParser) next() (xml.Token, error) {
	tok, err := p.dec.Token()
	if err != nil {
		return nil, err
	}
	if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "t" && se.Name.Space == nsDrawingML {
		p.nextText++
	}
	return tok, nil
}

// skip consumes tokens through the end of the current element. Decoder.Skip
// would lose the text-element count.
func (p *slideParser) skip() error {
	depth := 1
	for depth > 0 {
		tok, err := p.next()
		if err != nil {
			return err
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return nil
}

// parseSlide extracts the shape tree of one slide part and the text-element
// ordinals backing its runs. Element names are matched on their local part
// only; DrawingML and PresentationML prefixes never collide on the names
// handled here.
func parseSlide(data []byte, number int) (*deck.Slide, []int, error) {
	p := &slideParser{dec: xml.NewDecoder(bytes.NewReader(data))}
	slide := &deck.Slide{Number: number}

	for {
		tok, err := p.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local == "spTree" {
			shapes, err := p.parseShapeList()
			if err != nil {
				return nil, nil, err
			}
			slide.Shapes = shapes
			break
		}
	}

	return slide, p.ordinals, nil
}

// parseShapeList consumes the children of a shape container (spTree or
// grpSp) up to and including the container's end element.
func (p *slideParser) parseShapeList() ([]*deck.Shape, error) {
	var shapes []*deck.Shape
	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "sp":
				shape, err := p.parseShape()
				if err != nil {
					return nil, err
				}
				shapes = append(shapes, shape)
			case "grpSp":
				children, err := p.parseShapeList()
				if err != nil {
					return nil, err
				}
				shapes = append(shapes, &deck.Shape{Kind: deck.KindGroup, Children: children})
			case "graphicFrame":
				shape, err := p.parseGraphicFrame()
				if err != nil {
					return nil, err
				}
				shapes = append(shapes, shape)
			case "pic", "cxnSp":
				if err := p.skip(); err != nil {
					return nil, err
				}
				shapes = append(shapes, &deck.Shape{Kind: deck.KindOther})
			default:
				// nvGrpSpPr, grpSpPr, AlternateContent and friends
				if err := p.skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			return shapes, nil
		}
	}
}

func (p *slideParser) parseShape() (*deck.Shape, error) {
	shape := &deck.Shape{Kind: deck.KindOther}
	depth := 1
	for depth > 0 {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "txBody":
				frame, err := p.parseTextFrame()
				if err != nil {
					return nil, err
				}
				shape.Frame = frame
				shape.Kind = deck.KindText
			case "off":
				if v := emuAttr(t, "x"); v != nil {
					shape.Left = v
				}
				if v := emuAttr(t, "y"); v != nil {
					shape.Top = v
				}
				if err := p.skip(); err != nil {
					return nil, err
				}
			case "ext":
				// a:ext under a:xfrm; p:ext (extLst) carries no cx/cy
				if v := emuAttr(t, "cx"); v != nil {
					shape.Width = v
				}
				if v := emuAttr(t, "cy"); v != nil {
					shape.Height = v
				}
				if err := p.skip(); err != nil {
					return nil, err
				}
			default:
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}
	return shape, nil
}

func (p *slideParser) parseGraphicFrame() (*deck.Shape, error) {
	shape := &deck.Shape{Kind: deck.KindOther}
	depth := 1
	for depth > 0 {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "tbl":
				table, err := p.parseTable()
				if err != nil {
					return nil, err
				}
				shape.Table = table
				shape.Kind = deck.KindTable
			case "off":
				if v := emuAttr(t, "x"); v != nil {
					shape.Left = v
				}
				if v := emuAttr(t, "y"); v != nil {
					shape.Top = v
				}
				if err := p.skip(); err != nil {
					return nil, err
				}
			case "ext":
				if v := emuAttr(t, "cx"); v != nil {
					shape.Width = v
				}
				if v := emuAttr(t, "cy"); v != nil {
					shape.Height = v
				}
				if err := p.skip(); err != nil {
					return nil, err
				}
			default:
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}
	return shape, nil
}

func (p *slideParser) parseTable() (*deck.Table, error) {
	table := &deck.Table{}
	depth := 1
	for depth > 0 {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "tr" {
				row, err := p.parseTableRow()
				if err != nil {
					return nil, err
				}
				table.Rows = append(table.Rows, row)
			} else {
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}
	return table, nil
}

func (p *slideParser) parseTableRow() ([]*deck.Cell, error) {
	var row []*deck.Cell
	depth := 1
	for depth > 0 {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "tc" {
				cell, err := p.parseCell()
				if err != nil {
					return nil, err
				}
				row = append(row, cell)
			} else {
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}
	return row, nil
}

func (p *slideParser) parseCell() (*deck.Cell, error) {
	cell := &deck.Cell{}
	depth := 1
	for depth > 0 {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "txBody":
				frame, err := p.parseTextFrame()
				if err != nil {
					return nil, err
				}
				cell.Frame = frame
			case "tcPr":
				cell.MarginLeft = emuAttr(t, "marL")
				cell.MarginRight = emuAttr(t, "marR")
				cell.MarginTop = emuAttr(t, "marT")
				cell.MarginBottom = emuAttr(t, "marB")
				cell.VerticalAnchor = strAttr(t, "anchor")
				depth++
			default:
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}
	return cell, nil
}

func (p *slideParser) parseTextFrame() (*deck.TextFrame, error) {
	frame := &deck.TextFrame{}
	depth := 1
	for depth > 0 {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "p" {
				para, err := p.parseParagraph()
				if err != nil {
					return nil, err
				}
				frame.Paragraphs = append(frame.Paragraphs, para)
			} else {
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}
	return frame, nil
}

func (p *slideParser) parseParagraph() (*deck.Paragraph, error) {
	para := &deck.Paragraph{}
	depth := 1
	spacingTarget := ""
	for depth > 0 {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				para.Alignment = strAttr(t, "algn")
				if lvl := attrValue(t, "lvl"); lvl != "" {
					if n, err := strconv.Atoi(lvl); err == nil {
						para.Level = n
					}
				}
				depth++
			case "r", "fld":
				run, ordinal, err := p.parseRun()
				if err != nil {
					return nil, err
				}
				para.Runs = append(para.Runs, run)
				p.ordinals = append(p.ordinals, ordinal)
			case "lnSpc", "spcBef", "spcAft":
				spacingTarget = t.Name.Local
				depth++
			case "spcPts":
				if v, err := strconv.ParseFloat(attrValue(t, "val"), 64); err == nil {
					assignSpacing(para, spacingTarget, v/100)
				}
				if err := p.skip(); err != nil {
					return nil, err
				}
			case "spcPct":
				// percentage line spacing, stored as a line multiple
				if v, err := strconv.ParseFloat(attrValue(t, "val"), 64); err == nil && spacingTarget == "lnSpc" {
					mult := v / 100000
					para.LineSpacing = &mult
				}
				if err := p.skip(); err != nil {
					return nil, err
				}
			default:
				depth++
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "lnSpc", "spcBef", "spcAft":
				spacingTarget = ""
			}
			depth--
		}
	}
	return para, nil
}

func assignSpacing(para *deck.Paragraph, target string, points float64) {
	switch target {
	case "lnSpc":
		para.LineSpacing = &points
	case "spcBef":
		para.SpaceBefore = &points
	case "spcAft":
		para.SpaceAfter = &points
	}
}

// parseRun handles both a:r and a:fld; each contributes exactly one run and
// returns the ordinal of its text element (-1 when the run carries none).
// A run's font color is the srgbClr of a solidFill that is a direct child of
// rPr; fills nested deeper (a:ln outlines, a:highlight) are not the font
// color.
func (p *slideParser) parseRun() (*deck.Run, int, error) {
	run := &deck.Run{}
	ordinal := -1
	depth := 1
	rPrDepth := -1
	fillDepth := -1
	for depth > 0 {
		tok, err := p.next()
		if err != nil {
			return nil, 0, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				if v, err := strconv.ParseFloat(attrValue(t, "sz"), 64); err == nil {
					pts := v / 100
					run.FontSize = &pts
				}
				run.Bold = boolAttr(t, "b")
				run.Italic = boolAttr(t, "i")
				rPrDepth = depth
				depth++
			case "latin":
				if tf := strAttr(t, "typeface"); tf != nil {
					run.FontName = tf
				}
				if err := p.skip(); err != nil {
					return nil, 0, err
				}
			case "solidFill":
				if rPrDepth >= 0 && depth == rPrDepth+1 {
					fillDepth = depth
				}
				depth++
			case "srgbClr":
				if fillDepth >= 0 && run.Color == nil {
					run.Color = strAttr(t, "val")
				}
				depth++
			case "t":
				if t.Name.Space != nsDrawingML {
					depth++
					break
				}
				if ordinal < 0 {
					ordinal = p.nextText - 1
				}
				text, err := p.readText()
				if err != nil {
					return nil, 0, err
				}
				run.Text = text
			default:
				depth++
			}
		case xml.EndElement:
			depth--
			if depth == fillDepth {
				fillDepth = -1
			}
			if depth == rPrDepth {
				rPrDepth = -1
			}
		}
	}
	return run, ordinal, nil
}

// readText collects character data up to the closing tag.
func (p *slideParser) readText() (string, error) {
	var sb strings.Builder
	for {
		tok, err := p.next()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			return sb.String(), nil
		}
	}
}

func attrValue(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func strAttr(se xml.StartElement, name string) *string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			v := a.Value
			return &v
		}
	}
	return nil
}

func emuAttr(se xml.StartElement, name string) *int64 {
	v := attrValue(se, name)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

func boolAttr(se xml.StartElement, name string) *bool {
	switch attrValue(se, name) {
	case "1", "true":
		v := true
		return &v
	case "0", "false":
		v := false
		return &v
	}
	return nil
}

func escapeText(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
