package translation

import (
	"strings"
	"unicode"
)

// sentence terminators, Latin and CJK/full-width
var sentenceTerminators = map[rune]bool{
	'.': true, '!': true, '?': true,
	'。': true, '！': true, '？': true,
}

// splitSentences splits text after a sentence terminator followed by
// whitespace, trimming each segment. Equivalent to a lookbehind split,
// which Go's regexp cannot express.
func splitSentences(text string) []string {
	var sentences []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		if !sentenceTerminators[runes[i]] {
			continue
		}
		if i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			segment := strings.TrimSpace(string(runes[start : i+1]))
			if segment != "" {
				sentences = append(sentences, segment)
			}
			start = i + 1
		}
	}
	if start < len(runes) {
		segment := strings.TrimSpace(string(runes[start:]))
		if segment != "" {
			sentences = append(sentences, segment)
		}
	}
	return sentences
}

// ChunkText splits long text into chunks no larger than maxChunkSize
// characters, breaking at sentence boundaries. A single sentence longer than
// the limit is hard-split at the character boundary. Chunk granularity keeps
// provider requests bounded and increases cache reuse across documents with
// repeated boilerplate sentences.
func ChunkText(text string, maxChunkSize int) []string {
	if maxChunkSize <= 0 || runeLen(text) <= maxChunkSize {
		return []string{text}
	}

	sentences := splitSentences(text)
	if len(sentences) == 0 {
		sentences = []string{text}
	}

	var chunks []string
	var current []string
	currentLen := 0

	for _, sentence := range sentences {
		sentenceLen := runeLen(sentence)
		if len(current) > 0 && currentLen+sentenceLen+1 > maxChunkSize {
			chunks = append(chunks, strings.Join(current, " "))
			current = nil
			currentLen = 0
		}
		if sentenceLen > maxChunkSize {
			if len(current) > 0 {
				chunks = append(chunks, strings.Join(current, " "))
				current = nil
				currentLen = 0
			}
			chunks = append(chunks, hardSplit(sentence, maxChunkSize)...)
			continue
		}
		current = append(current, sentence)
		currentLen += sentenceLen + 1
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	if len(chunks) == 0 {
		return []string{text}
	}
	return chunks
}

func hardSplit(s string, size int) []string {
	runes := []rune(s)
	var parts []string
	for i := 0; i < len(runes); i += size {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[i:end]))
	}
	return parts
}

func runeLen(s string) int {
	return len([]rune(s))
}
