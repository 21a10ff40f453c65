// Package translation orchestrates caching, chunking, tagged-run and
// JSON-batch translation, and retry/backoff around the provider. It is the
// only component that calls the provider.
package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MimeLyc/slide-translator/internal/provider"
	"github.com/MimeLyc/slide-translator/pkg/log"
)

const (
	defaultMaxChunkSize = 1000
	defaultRetries      = 3
	defaultBackoffUnit  = time.Second
)

// Service translates text through a configured provider with caching
// support. Safe for concurrent use by slide workers.
type Service struct {
	provider     provider.Provider
	cache        *Cache
	maxChunkSize int
	retries      int
	backoffUnit  time.Duration
}

// Option customizes a Service.
type Option func(*Service)

// WithRetries sets the retry count for provider calls.
func WithRetries(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.retries = n
		}
	}
}

// WithBackoffUnit sets the linear backoff unit (attempt N waits N units).
func WithBackoffUnit(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.backoffUnit = d
		}
	}
}

// NewService creates a translation service around a provider and an injected
// cache. The cache must already be loaded by the caller.
func NewService(p provider.Provider, cache *Cache, maxChunkSize int, opts ...Option) *Service {
	if maxChunkSize <= 0 {
		maxChunkSize = defaultMaxChunkSize
	}
	s := &Service{
		provider:     p,
		cache:        cache,
		maxChunkSize: maxChunkSize,
		retries:      defaultRetries,
		backoffUnit:  defaultBackoffUnit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Translate translates text, caching repeated requests. Tagged text (run
// markers like <r0>...</r0>) is never chunked, because splitting could
// separate a tag's open and close markers across requests; it is sent whole
// with instructions to preserve the markers. On unrecoverable provider
// failure the original text is returned unchanged, so one bad shape cannot
// abort a document.
func (s *Service) Translate(ctx context.Context, text, sourceLang, targetLang string, tagged bool) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	key := Key(sourceLang, targetLang, text)
	if cached, ok := s.cache.Get(key); ok {
		return cached
	}

	var translated string
	if tagged {
		translated = s.translateWithRetry(ctx, taggedInstructions(text, sourceLang, targetLang), text, sourceLang, targetLang)
	} else {
		translated = s.translateChunked(ctx, text, sourceLang, targetLang)
	}

	if err := s.cache.Put(key, translated); err != nil {
		log.Warn("failed to persist translation cache: %v", err)
	}
	return translated
}

// translateChunked splits plain text at sentence boundaries, translates and
// caches each chunk independently, and rejoins with single spaces.
func (s *Service) translateChunked(ctx context.Context, text, sourceLang, targetLang string) string {
	chunks := ChunkText(text, s.maxChunkSize)

	var parts []string
	for _, chunk := range chunks {
		if strings.TrimSpace(chunk) == "" {
			continue
		}

		chunkKey := Key(sourceLang, targetLang, chunk)
		if cached, ok := s.cache.Get(chunkKey); ok {
			parts = append(parts, cached)
			continue
		}

		prompt := fmt.Sprintf("Translate the following text from %s to %s. Return only the translation.\n\n%s",
			sourceLang, targetLang, chunk)
		translated := strings.TrimSpace(s.translateWithRetry(ctx, prompt, chunk, sourceLang, targetLang))
		if translated != "" {
			parts = append(parts, translated)
		}
		if err := s.cache.Put(chunkKey, translated); err != nil {
			log.Warn("failed to persist translation cache: %v", err)
		}
	}

	joined := strings.Join(parts, " ")
	if joined == "" {
		return text
	}
	return joined
}

// translateWithRetry calls the provider with linear backoff. On exhaustion
// it returns fallback (the original text) rather than an error.
func (s *Service) translateWithRetry(ctx context.Context, input, fallback, sourceLang, targetLang string) string {
	for attempt := 1; attempt <= s.retries; attempt++ {
		translated, err := s.provider.Translate(ctx, input, sourceLang, targetLang)
		if err == nil {
			return translated
		}

		log.Warn("translation failed (attempt %d/%d): %v", attempt, s.retries, err)
		if attempt < s.retries {
			sleepCtx(ctx, time.Duration(attempt)*s.backoffUnit)
		}
	}
	log.Error("giving up on text: %.50s", fallback)
	return fallback
}

func taggedInstructions(text, sourceLang, targetLang string) string {
	return fmt.Sprintf(
		"Translate the following text from %s to %s. "+
			"The text contains XML-like tags (e.g., <r0>...</r0>) marking formatting.\n"+
			"**RULES:**\n"+
			"1. Translate ONLY the content inside the tags.\n"+
			"2. PRESERVE all tags exactly as they are.\n"+
			"3. DO NOT change the order of the tags.\n"+
			"4. DO NOT translate the tag names.\n\n"+
			"Text to translate:\n%s",
		sourceLang, targetLang, text)
}

type batchItem struct {
	ID   int    `json:"id"`
	Text string `json:"text"`
}

// TranslateBatchJSON translates texts in one request using id-tagged JSON
// objects for robust mapping. The result always has the same length and
// order as the input: blank entries pass through, ids missing from the
// response fall back to their original text, and a batch that fails outright
// returns the input unchanged.
func (s *Service) TranslateBatchJSON(ctx context.Context, texts []string, sourceLang, targetLang string) []string {
	if len(texts) == 0 {
		return nil
	}

	var items []batchItem
	for i, t := range texts {
		if strings.TrimSpace(t) != "" {
			items = append(items, batchItem{ID: i, Text: t})
		}
	}
	if len(items) == 0 {
		return texts
	}

	log.Debug("batch translation: sending %d of %d items", len(items), len(texts))

	translated, err := s.translateBatchWithRetry(ctx, items, sourceLang, targetLang)
	if err != nil {
		log.Error("batch translation failed completely, keeping original texts: %v", err)
		return texts
	}

	responseMap := make(map[int]string, len(translated))
	for _, item := range translated {
		responseMap[item.ID] = item.Text
	}

	result := make([]string, len(texts))
	copy(result, texts)

	missing := 0
	for _, item := range items {
		if text, ok := responseMap[item.ID]; ok {
			result[item.ID] = text
		} else {
			missing++
		}
	}
	if missing > 0 {
		log.Warn("batch translation: %d of %d items missing from response, kept original", missing, len(items))
	}

	return result
}

// translateBatchWithRetry retries the batch request with linear backoff and
// re-raises on exhaustion so the caller can apply its all-or-nothing
// fallback.
func (s *Service) translateBatchWithRetry(ctx context.Context, items []batchItem, sourceLang, targetLang string) ([]batchItem, error) {
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("marshal batch items: %w", err)
	}

	prompt := batchPrompt(sourceLang, targetLang, string(payload))

	var lastErr error
	for attempt := 1; attempt <= s.retries; attempt++ {
		response, err := s.provider.Translate(ctx, prompt, sourceLang, targetLang)
		if err == nil {
			parsed, perr := parseBatchResponse(response)
			if perr == nil {
				return parsed, nil
			}
			err = perr
		}

		lastErr = err
		log.Warn("batch translation attempt %d/%d failed: %v", attempt, s.retries, err)
		if attempt < s.retries {
			sleepCtx(ctx, time.Duration(attempt)*s.backoffUnit)
		}
	}
	return nil, lastErr
}

// parseBatchResponse tolerates markdown code fences and ids echoed back as
// strings or numbers.
func parseBatchResponse(response string) ([]batchItem, error) {
	cleaned := strings.TrimSpace(response)
	cleaned = strings.ReplaceAll(cleaned, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)

	var raw []struct {
		ID   interface{} `json:"id"`
		Text string      `json:"text"`
	}
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return nil, fmt.Errorf("response is not a JSON array of objects: %w", err)
	}

	items := make([]batchItem, 0, len(raw))
	for _, r := range raw {
		// models sometimes echo ids back as strings
		var id int
		switch v := r.ID.(type) {
		case float64:
			id = int(v)
		case string:
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				log.Warn("batch translation: invalid id %q in response", v)
				continue
			}
			id = n
		default:
			log.Warn("batch translation: invalid id %v in response", r.ID)
			continue
		}
		items = append(items, batchItem{ID: id, Text: r.Text})
	}
	return items, nil
}

func batchPrompt(sourceLang, targetLang, payload string) string {
	return fmt.Sprintf(
		"You are a professional translator translating a slide presentation from %[1]s to %[2]s.\n"+
			"INPUT: A JSON array of objects, each with 'id' and 'text'.\n"+
			"TASK: Translate the 'text' field of each object.\n"+
			"CRITICAL RULES:\n"+
			"1. Output ONLY a valid JSON array of objects.\n"+
			"2. Each object MUST have 'id' (integer, matching input) and 'text' (translated string).\n"+
			"3. PRESERVE all <rN>...</rN> tags exactly. The tags mark formatting boundaries.\n"+
			"4. TRANSLATE the content inside the tags. DO NOT leave it in %[1]s unless it is a proper noun.\n"+
			"5. Do not output markdown code blocks, just raw JSON.\n\n"+
			"EXAMPLE:\n"+
			"Input: [{\"id\": 1, \"text\": \"<r0>Hello</r0> <r1>World</r1>\"}]\n"+
			"Output: [{\"id\": 1, \"text\": \"<r0>Bonjour</r0> <r1>Monde</r1>\"}]\n"+
			"(The tags <r0>, <r1> are kept, but the content is translated.)\n\n"+
			"Input JSON to translate:\n%[3]s",
		sourceLang, targetLang, payload)
}

// sleepCtx waits for d or until ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
