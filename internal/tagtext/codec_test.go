package tagtext

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/MimeLyc/slide-translator/internal/extract"
)

func runsOf(texts ...string) []*extract.RunRecord {
	runs := make([]*extract.RunRecord, len(texts))
	for i, t := range texts {
		runs[i] = &extract.RunRecord{Text: t}
	}
	return runs
}

func texts(runs []*extract.RunRecord) []string {
	out := make([]string, len(runs))
	for i, r := range runs {
		out[i] = r.Text
	}
	return out
}

func TestSerialize(t *testing.T) {
	runs := runsOf("Hello ", "World")
	assert.Equal(t, "<r0>Hello </r0><r1>World</r1>", Serialize(runs))
}

func TestSerialize_SkipsEmptyRuns(t *testing.T) {
	runs := runsOf("Hello", "", "World")
	// run 1 is omitted but indices stay stable
	assert.Equal(t, "<r0>Hello</r0><r2>World</r2>", Serialize(runs))
}

func TestSerialize_EscapesMarkup(t *testing.T) {
	runs := runsOf("a < b & c > d")
	assert.Equal(t, "<r0>a &lt; b &amp; c &gt; d</r0>", Serialize(runs))
}

func TestRoundTrip(t *testing.T) {
	runs := runsOf("Hello ", "World", "a < b")
	tagged := Serialize(runs)

	parsed := runsOf("", "", "")
	Parse(tagged, parsed)
	assert.Equal(t, []string{"Hello ", "World", "a < b"}, texts(parsed))
}

func TestParse_TranslatedContent(t *testing.T) {
	runs := runsOf("Hello ", "World")
	Parse("<r0>Bonjour </r0><r1>Monde</r1>", runs)
	assert.Equal(t, []string{"Bonjour ", "Monde"}, texts(runs))
}

func TestParse_ClearsRunsMissingFromResponse(t *testing.T) {
	runs := runsOf("Hello ", "World")
	Parse("<r0>Bonjour Monde</r0>", runs)
	// run 1 must not keep its stale source text
	assert.Equal(t, []string{"Bonjour Monde", ""}, texts(runs))
}

func TestParse_NoTagsFallsBackToFirstRun(t *testing.T) {
	runs := runsOf("Hello ", "World")
	Parse("Bonjour Monde", runs)
	assert.Equal(t, []string{"Bonjour Monde", ""}, texts(runs))
}

func TestParse_NoTagsStripsStrayTags(t *testing.T) {
	runs := runsOf("Hello ", "World")
	// unbalanced tags do not match but must not leak into the output
	Parse("<r0>Bonjour Monde", runs)
	assert.Equal(t, []string{"Bonjour Monde", ""}, texts(runs))
}

func TestParse_OutOfRangeIDDropped(t *testing.T) {
	runs := runsOf("Hello")
	Parse("<r0>Bonjour</r0><r5>surprise</r5>", runs)
	assert.Equal(t, []string{"Bonjour"}, texts(runs))
}

func TestParse_MismatchedIDsIgnored(t *testing.T) {
	runs := runsOf("Hello ", "World")
	Parse("<r0>Bonjour </r1><r1>Monde</r1>", runs)
	assert.Equal(t, []string{"", "Monde"}, texts(runs))
}

func TestParse_EmptyRunsNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		Parse("<r0>text</r0>", nil)
	})
}

func TestParse_BlankResponseKeepsOriginal(t *testing.T) {
	runs := runsOf("Hello")
	Parse("   ", runs)
	assert.Equal(t, []string{"Hello"}, texts(runs))
}

func TestParse_MultilineContent(t *testing.T) {
	runs := runsOf("line one\nline two")
	tagged := Serialize(runs)
	Parse(tagged, runs)
	assert.Equal(t, "line one\nline two", runs[0].Text)
}
