// Package xmlstore checkpoints extracted presentation content as an XML
// document. The artifact is written before and after translation so a run
// can be inspected, edited by hand, or resumed without re-reading the deck.
package xmlstore

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"os"

	"github.com/MimeLyc/slide-translator/internal/extract"
	"github.com/MimeLyc/slide-translator/pkg/log"
)

type presentationXML struct {
	XMLName  xml.Name   `xml:"presentation"`
	FilePath string     `xml:"file_path,attr"`
	Slides   []slideXML `xml:"slide"`
}

type slideXML struct {
	Number   int          `xml:"number,attr"`
	Elements []elementXML `xml:",any"`
}

// elementXML wraps one element: the tag name carries the kind, the
// shape_index attribute carries the path, and the body is the record as
// indented JSON. JSON inside XML keeps the payload schema in one place
// (the extract package's struct tags) instead of duplicating it.
type elementXML struct {
	XMLName    xml.Name
	ShapeIndex string `xml:"shape_index,attr"`
	Properties string `xml:",chardata"`
}

// Encode serializes a presentation document to XML bytes.
func Encode(doc *extract.PresentationDocument) ([]byte, error) {
	out := presentationXML{FilePath: doc.FilePath}

	for _, slide := range doc.Slides {
		sx := slideXML{Number: slide.Number}
		for _, element := range slide.Elements {
			var payload interface{}
			switch element.Kind {
			case extract.ElementText:
				payload = element.Shape
			case extract.ElementTable:
				payload = element.Table
			default:
				log.Warn("skipping element %s with unknown kind %q", element.Path, element.Kind)
				continue
			}

			properties, err := json.MarshalIndent(payload, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("marshal element %s on slide %d: %w", element.Path, slide.Number, err)
			}

			sx.Elements = append(sx.Elements, elementXML{
				XMLName:    xml.Name{Local: string(element.Kind)},
				ShapeIndex: element.Path,
				Properties: "\n" + string(properties) + "\n",
			})
		}
		out.Slides = append(out.Slides, sx)
	}

	data, err := xml.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal presentation document: %w", err)
	}
	return append([]byte(xml.Header), data...), nil
}

// Decode parses XML bytes back into a presentation document. Elements with
// unrecognized tag names are skipped with a warning, so hand edits or
// future additions do not break older readers.
func Decode(data []byte) (*extract.PresentationDocument, error) {
	var in presentationXML
	if err := xml.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parse presentation document: %w", err)
	}

	doc := &extract.PresentationDocument{FilePath: in.FilePath}
	for _, sx := range in.Slides {
		slide := &extract.SlideDocument{Number: sx.Number}
		for _, ex := range sx.Elements {
			element := &extract.Element{
				Path: ex.ShapeIndex,
				Kind: extract.ElementKind(ex.XMLName.Local),
			}

			switch element.Kind {
			case extract.ElementText:
				element.Shape = &extract.ShapeRecord{}
				if err := json.Unmarshal([]byte(ex.Properties), element.Shape); err != nil {
					return nil, fmt.Errorf("parse text element %s on slide %d: %w", ex.ShapeIndex, sx.Number, err)
				}
			case extract.ElementTable:
				element.Table = &extract.TableRecord{}
				if err := json.Unmarshal([]byte(ex.Properties), element.Table); err != nil {
					return nil, fmt.Errorf("parse table element %s on slide %d: %w", ex.ShapeIndex, sx.Number, err)
				}
			default:
				log.Warn("skipping unknown element <%s> on slide %d", ex.XMLName.Local, sx.Number)
				continue
			}

			slide.Elements = append(slide.Elements, element)
		}
		doc.Slides = append(doc.Slides, slide)
	}
	return doc, nil
}

// Write encodes doc and writes it to path.
func Write(path string, doc *extract.PresentationDocument) error {
	data, err := Encode(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write document %s: %w", path, err)
	}
	return nil
}

// Read loads and decodes the document at path.
func Read(path string) (*extract.PresentationDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	return Decode(data)
}
