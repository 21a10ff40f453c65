package pipeline

import (
	"github.com/abadojack/whatlanggo"
	"golang.org/x/text/language"

	"github.com/MimeLyc/slide-translator/internal/extract"
)

// DetectSourceLanguage guesses the dominant language of an extracted
// presentation by majority vote over its runs. Short runs (numbers, single
// symbols) vote too but are drowned out by real sentences in practice.
func DetectSourceLanguage(doc *extract.PresentationDocument) language.Tag {
	langMap := make(map[string]int)

	for _, slide := range doc.Slides {
		for _, element := range slide.Elements {
			for _, container := range element.Containers() {
				for _, para := range container.Paragraphs {
					for _, run := range para.Runs {
						if run.Text == "" {
							continue
						}
						lang := whatlanggo.DetectLang(run.Text).Iso6391()
						langMap[lang]++
					}
				}
			}
		}
	}

	if len(langMap) == 0 {
		return language.Und
	}

	// Get top language
	var topLang string
	var topCount int
	for lang, count := range langMap {
		if count > topCount {
			topLang = lang
			topCount = count
		}
	}

	return language.All.Make(topLang)
}
