// Package opc is a minimal .pptx backend for the deck model. Opening parses
// the slide parts of the package; saving writes the original package back
// byte for byte, substituting only the text of each run. Everything outside
// run text (styles, geometry, themes, media) is never touched, which keeps
// the output immune to re-serialization damage.
package opc

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strconv"

	"github.com/MimeLyc/slide-translator/internal/deck"
	"github.com/MimeLyc/slide-translator/pkg/log"
)

var slideNamePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

type entry struct {
	name string
	data []byte
}

type document struct {
	pres    *deck.Presentation
	entries []entry
	// zip entry name -> parsed slide, for write-back on Save
	slides map[string]*deck.Slide
	// zip entry name -> text-element ordinal of each model run, aligned
	// with FlattenRuns order
	ordinals map[string][]int
}

// Open loads a .pptx package into the deck model. Slide parts are parsed in
// slide-number order; all other parts are carried through Save untouched.
func Open(path string) (deck.Document, error) {
	reader, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open pptx package: %w", err)
	}
	defer reader.Close()

	doc := &document{
		pres:     &deck.Presentation{},
		slides:   make(map[string]*deck.Slide),
		ordinals: make(map[string][]int),
	}

	type slideRef struct {
		name   string
		number int
		data   []byte
	}
	var refs []slideRef

	for _, f := range reader.File {
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open package part %s: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read package part %s: %w", f.Name, err)
		}
		doc.entries = append(doc.entries, entry{name: f.Name, data: data})

		if m := slideNamePattern.FindStringSubmatch(f.Name); m != nil {
			n, _ := strconv.Atoi(m[1])
			refs = append(refs, slideRef{name: f.Name, number: n, data: data})
		}
	}

	if len(refs) == 0 {
		return nil, fmt.Errorf("no slides found in %s", path)
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].number < refs[j].number })

	for i, ref := range refs {
		slide, ordinals, err := parseSlide(ref.data, i+1)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", ref.name, err)
		}
		doc.slides[ref.name] = slide
		doc.ordinals[ref.name] = ordinals
		doc.pres.Slides = append(doc.pres.Slides, slide)
	}

	return doc, nil
}

func (d *document) Presentation() *deck.Presentation {
	return d.pres
}

// Save writes the package to path, replacing run text in slide parts with
// the current model state.
func (d *document) Save(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, e := range d.entries {
		data := e.data
		if slide, ok := d.slides[e.name]; ok {
			data = replaceRunTexts(e.name, data, slide.FlattenRuns(), d.ordinals[e.name])
		}
		fw, err := zw.Create(e.name)
		if err != nil {
			return fmt.Errorf("write package part %s: %w", e.name, err)
		}
		if _, err := fw.Write(data); err != nil {
			return fmt.Errorf("write package part %s: %w", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize package: %w", err)
	}
	return nil
}

var textElementPattern = regexp.MustCompile(`(?s)<a:t\b[^>]*?(?:/>|>.*?</a:t>)`)

// replaceRunTexts substitutes each model run's text at the ordinal the parser
// recorded for it. Text elements without a backing run, such as those inside
// skipped content (mc:AlternateContent, pic), are left byte for byte as they
// were. Runs whose ordinal cannot be resolved are skipped with a warning, so
// a miscount can never move text into the wrong element.
func replaceRunTexts(name string, data []byte, runs []*deck.Run, ordinals []int) []byte {
	if len(runs) != len(ordinals) {
		log.Warn("%s: %d model runs but %d recorded text elements, part left untouched", name, len(runs), len(ordinals))
		return data
	}

	matches := textElementPattern.FindAllIndex(data, -1)
	replacements := make(map[int]string, len(runs))
	for i, run := range runs {
		ord := ordinals[i]
		if ord < 0 {
			continue
		}
		if ord >= len(matches) {
			log.Warn("%s: text element %d not found for run %d, run left untranslated", name, ord, i)
			continue
		}
		replacements[ord] = run.Text
	}

	var buf bytes.Buffer
	buf.Grow(len(data))
	last := 0
	for i, m := range matches {
		text, ok := replacements[i]
		if !ok {
			continue
		}
		buf.Write(data[last:m[0]])
		buf.WriteString("<a:t>" + escapeText(text) + "</a:t>")
		last = m[1]
	}
	buf.Write(data[last:])
	return buf.Bytes()
}
