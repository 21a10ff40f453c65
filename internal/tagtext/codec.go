// Package tagtext serializes a paragraph's runs into indexed tag markers for
// translation and parses translated tagged text back into the runs, keeping
// the translation aligned to formatting boundaries.
package tagtext

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/MimeLyc/slide-translator/internal/extract"
)

var (
	// Go's regexp has no backreferences, so open/close id equality is
	// checked in code after matching.
	tagPattern   = regexp.MustCompile(`(?s)<r(\d+)>(.*?)</r(\d+)>`)
	strayPattern = regexp.MustCompile(`</?r\d+>`)

	escaper   = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	unescaper = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&")
)

// Serialize emits <r{i}>{text}</r{i}> for every run with non-empty text, in
// run order. Runs with empty text are omitted entirely.
func Serialize(runs []*extract.RunRecord) string {
	var sb strings.Builder
	for i, run := range runs {
		if run.Text == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("<r%d>%s</r%d>", i, escaper.Replace(run.Text), i))
	}
	return sb.String()
}

// Parse writes the translated tagged text back into runs in place.
//
// When at least one well-formed tag is found, all runs are cleared first so
// no stale text survives a partially tagged response, then each matched id's
// content is written into the run at that index; out-of-range ids are
// dropped. When no tags are found at all the whole input is treated as the
// translation of run 0; per-run formatting boundaries are lost in that
// case, which is a documented limitation of the fallback.
func Parse(tagged string, runs []*extract.RunRecord) {
	if len(runs) == 0 {
		return
	}

	type match struct {
		id      int
		content string
	}
	var matches []match
	for _, m := range tagPattern.FindAllStringSubmatch(tagged, -1) {
		if m[1] != m[3] {
			continue
		}
		id, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		matches = append(matches, match{id: id, content: m[2]})
	}

	if len(matches) == 0 {
		clean := strings.TrimSpace(strayPattern.ReplaceAllString(tagged, ""))
		if clean == "" {
			return
		}
		for _, run := range runs {
			run.Text = ""
		}
		runs[0].Text = clean
		return
	}

	for _, run := range runs {
		run.Text = ""
	}
	for _, m := range matches {
		if m.id >= 0 && m.id < len(runs) {
			runs[m.id].Text = unescaper.Replace(m.content)
		}
	}
}
