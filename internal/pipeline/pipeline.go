// Package pipeline drives a presentation through extraction, translation and
// reconstruction, checkpointing the extracted content as XML before and
// after translation.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"

	"github.com/MimeLyc/slide-translator/internal/deck"
	"github.com/MimeLyc/slide-translator/internal/extract"
	"github.com/MimeLyc/slide-translator/internal/tagtext"
	"github.com/MimeLyc/slide-translator/internal/translation"
	"github.com/MimeLyc/slide-translator/internal/xmlstore"
	"github.com/MimeLyc/slide-translator/pkg/file"
	"github.com/MimeLyc/slide-translator/pkg/log"
)

// Config holds per-run pipeline settings.
type Config struct {
	// SourceLanguage is a language name or tag, or "auto" to detect from
	// the document content.
	SourceLanguage string
	TargetLanguage string
	// MaxWorkers bounds concurrent slide translation.
	MaxWorkers int
	// CleanupIntermediates removes the XML checkpoints after a successful
	// run.
	CleanupIntermediates bool
}

// Result summarizes one processed presentation.
type Result struct {
	OutputPath string
	SourceLang string
	CharCount  int
}

// Pipeline processes presentation files with one opener and one translation
// service. Safe for sequential reuse across files.
type Pipeline struct {
	open       deck.Opener
	translator *translation.Service
	cfg        Config
}

func New(open deck.Opener, translator *translation.Service, cfg Config) *Pipeline {
	if cfg.MaxWorkers < 1 {
		cfg.MaxWorkers = 1
	}
	return &Pipeline{open: open, translator: translator, cfg: cfg}
}

// ProcessFile translates one presentation end to end and returns the output
// path. The original file is never modified; the translated copy gets a
// "_translated" suffix next to it.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*Result, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pptx", ".ppt":
	default:
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}

	log.Info("processing %s", path)

	doc, err := p.extractDocument(path)
	if err != nil {
		return nil, err
	}

	originalXML := file.ReplaceExt(file.WithSuffix(path, "_original"), "xml")
	if err := xmlstore.Write(originalXML, doc); err != nil {
		return nil, fmt.Errorf("checkpoint original content: %w", err)
	}

	sourceLang := p.resolveSourceLanguage(doc)
	log.Info("translating %s from %s to %s", filepath.Base(path), sourceLang, p.cfg.TargetLanguage)

	charCount, err := p.translateDocument(ctx, doc, sourceLang)
	if err != nil {
		return nil, err
	}

	translatedXML := file.ReplaceExt(file.WithSuffix(path, "_translated"), "xml")
	if err := xmlstore.Write(translatedXML, doc); err != nil {
		return nil, fmt.Errorf("checkpoint translated content: %w", err)
	}

	outputPath, err := p.reconstruct(path, translatedXML)
	if err != nil {
		return nil, err
	}

	if p.cfg.CleanupIntermediates {
		for _, intermediate := range []string{originalXML, translatedXML} {
			if err := os.Remove(intermediate); err != nil {
				log.Warn("failed to remove intermediate %s: %v", intermediate, err)
			}
		}
	}

	log.Info("wrote %s (%d characters translated)", outputPath, charCount)
	return &Result{OutputPath: outputPath, SourceLang: sourceLang, CharCount: charCount}, nil
}

// extractDocument opens the presentation and walks every slide into records.
func (p *Pipeline) extractDocument(path string) (*extract.PresentationDocument, error) {
	document, err := p.open(path)
	if err != nil {
		return nil, fmt.Errorf("open presentation: %w", err)
	}

	doc := &extract.PresentationDocument{FilePath: path}
	for _, slide := range document.Presentation().Slides {
		slideDoc := extract.Slide(slide)
		for _, warning := range slideDoc.Warnings {
			log.Warn("slide %d: %s", slide.Number, warning)
		}
		doc.Slides = append(doc.Slides, slideDoc)
	}
	return doc, nil
}

func (p *Pipeline) resolveSourceLanguage(doc *extract.PresentationDocument) string {
	if p.cfg.SourceLanguage != "" && p.cfg.SourceLanguage != "auto" {
		return p.cfg.SourceLanguage
	}

	tag := DetectSourceLanguage(doc)
	if tag == language.Und {
		log.Warn("could not detect source language, assuming English")
		return "en"
	}
	log.Info("detected source language: %s", tag)
	return tag.String()
}

// translateDocument translates all slides, at most MaxWorkers at a time.
// Each worker owns its slide exclusively, so mutation is in place. Slide
// failures do not exist at this level: the translation service degrades to
// original text instead of erroring.
func (p *Pipeline) translateDocument(ctx context.Context, doc *extract.PresentationDocument, sourceLang string) (int, error) {
	var charCount atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxWorkers)
	for _, slideDoc := range doc.Slides {
		slideDoc := slideDoc
		g.Go(func() error {
			charCount.Add(int64(p.translateSlide(ctx, slideDoc, sourceLang)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return int(charCount.Load()), nil
}

// translateSlide serializes every paragraph into tagged text, translates the
// whole slide as one batch, and parses the results back into the runs.
// Returns the number of source characters submitted.
func (p *Pipeline) translateSlide(ctx context.Context, slideDoc *extract.SlideDocument, sourceLang string) int {
	var paragraphs []*extract.ParagraphRecord
	var texts []string
	for _, element := range slideDoc.Elements {
		for _, container := range element.Containers() {
			for _, para := range container.Paragraphs {
				paragraphs = append(paragraphs, para)
				texts = append(texts, tagtext.Serialize(para.Runs))
			}
		}
	}
	if len(texts) == 0 {
		return 0
	}

	results := p.translator.TranslateBatchJSON(ctx, texts, sourceLang, p.cfg.TargetLanguage)

	charCount := 0
	for i, para := range paragraphs {
		if strings.TrimSpace(texts[i]) == "" {
			continue
		}
		tagtext.Parse(results[i], para.Runs)
		charCount += len([]rune(texts[i]))
	}

	log.Info("slide %d: translated %d paragraphs", slideDoc.Number, len(texts))
	return charCount
}

// reconstruct reopens the pristine original, applies the translated
// checkpoint to it and saves the result. Reading the checkpoint back from
// disk rather than reusing the in-memory document means a hand-edited
// checkpoint can be applied by rerunning the pipeline.
func (p *Pipeline) reconstruct(path, translatedXML string) (string, error) {
	document, err := p.open(path)
	if err != nil {
		return "", fmt.Errorf("reopen presentation: %w", err)
	}

	store, err := xmlstore.Read(translatedXML)
	if err != nil {
		return "", fmt.Errorf("read translated checkpoint: %w", err)
	}

	for _, warning := range Apply(document.Presentation(), store) {
		log.Warn("%s: %s", filepath.Base(path), warning)
	}

	outputPath := file.WithSuffix(path, "_translated")
	if err := document.Save(outputPath); err != nil {
		return "", fmt.Errorf("save translated presentation: %w", err)
	}
	return outputPath, nil
}
