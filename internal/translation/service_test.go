package translation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	args := m.Called(ctx, text, sourceLang, targetLang)
	return args.String(0), args.Error(1)
}

func newTestService(p *mockProvider, opts ...Option) *Service {
	opts = append(opts, WithRetries(2), WithBackoffUnit(time.Millisecond))
	return NewService(p, NewCache(""), 1000, opts...)
}

func TestTranslate_WhitespacePassesThrough(t *testing.T) {
	p := new(mockProvider)
	svc := newTestService(p)

	assert.Equal(t, "   ", svc.Translate(context.Background(), "   ", "en", "fr", false))
	p.AssertNotCalled(t, "Translate")
}

func TestTranslate_CacheHitSkipsProvider(t *testing.T) {
	p := new(mockProvider)
	p.On("Translate", mock.Anything, mock.Anything, "en", "fr").Return("Bonjour", nil).Once()
	svc := newTestService(p)

	first := svc.Translate(context.Background(), "Hello", "en", "fr", false)
	second := svc.Translate(context.Background(), "Hello", "en", "fr", false)

	assert.Equal(t, "Bonjour", first)
	assert.Equal(t, "Bonjour", second)
	p.AssertExpectations(t)
}

func TestTranslate_ExhaustedRetriesReturnOriginal(t *testing.T) {
	p := new(mockProvider)
	p.On("Translate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("boom")).Times(2)
	svc := newTestService(p)

	got := svc.Translate(context.Background(), "Hello", "en", "fr", true)

	assert.Equal(t, "Hello", got)
	p.AssertExpectations(t)
}

func TestTranslate_RecoversAfterTransientFailure(t *testing.T) {
	p := new(mockProvider)
	p.On("Translate", mock.Anything, mock.Anything, "en", "fr").
		Return("", errors.New("rate limited")).Once()
	p.On("Translate", mock.Anything, mock.Anything, "en", "fr").
		Return("Bonjour", nil).Once()
	svc := newTestService(p)

	got := svc.Translate(context.Background(), "Hello", "en", "fr", false)

	assert.Equal(t, "Bonjour", got)
	p.AssertExpectations(t)
}

func TestTranslate_TaggedTextSentWhole(t *testing.T) {
	p := new(mockProvider)
	var sent string
	p.On("Translate", mock.Anything, mock.Anything, "en", "fr").
		Run(func(args mock.Arguments) { sent = args.String(1) }).
		Return("<r0>Bonjour</r0>", nil).Once()
	// a chunk size far below the text length must not split tagged text
	svc := NewService(p, NewCache(""), 5, WithRetries(1))

	got := svc.Translate(context.Background(), "<r0>Hello</r0>", "en", "fr", true)

	assert.Equal(t, "<r0>Bonjour</r0>", got)
	assert.Contains(t, sent, "<r0>Hello</r0>")
	assert.Contains(t, sent, "PRESERVE all tags")
	p.AssertExpectations(t)
}

func TestTranslateBatchJSON_AlignsByID(t *testing.T) {
	p := new(mockProvider)
	p.On("Translate", mock.Anything, mock.Anything, "en", "fr").
		Return(`[{"id": 0, "text": "<r0>Bonjour</r0>"}, {"id": 2, "text": "Monde"}]`, nil).Once()
	svc := newTestService(p)

	got := svc.TranslateBatchJSON(context.Background(), []string{"<r0>Hello</r0>", "  ", "World"}, "en", "fr")

	assert.Equal(t, []string{"<r0>Bonjour</r0>", "  ", "Monde"}, got)
	p.AssertExpectations(t)
}

func TestTranslateBatchJSON_MissingIDKeepsOriginal(t *testing.T) {
	p := new(mockProvider)
	p.On("Translate", mock.Anything, mock.Anything, "en", "fr").
		Return(`[{"id": 0, "text": "Bonjour"}]`, nil).Once()
	svc := newTestService(p)

	got := svc.TranslateBatchJSON(context.Background(), []string{"Hello", "World"}, "en", "fr")

	assert.Equal(t, []string{"Bonjour", "World"}, got)
}

func TestTranslateBatchJSON_NonJSONResponseKeepsAllOriginals(t *testing.T) {
	p := new(mockProvider)
	p.On("Translate", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("Sorry, I cannot help with that.", nil).Times(2)
	svc := newTestService(p)

	got := svc.TranslateBatchJSON(context.Background(), []string{"Hello", "World"}, "en", "fr")

	assert.Equal(t, []string{"Hello", "World"}, got)
	p.AssertExpectations(t)
}

func TestTranslateBatchJSON_ToleratesCodeFencesAndStringIDs(t *testing.T) {
	p := new(mockProvider)
	p.On("Translate", mock.Anything, mock.Anything, "en", "fr").
		Return("```json\n[{\"id\": \"0\", \"text\": \"Bonjour\"}]\n```", nil).Once()
	svc := newTestService(p)

	got := svc.TranslateBatchJSON(context.Background(), []string{"Hello"}, "en", "fr")

	assert.Equal(t, []string{"Bonjour"}, got)
}

func TestTranslateBatchJSON_AllBlankSkipsProvider(t *testing.T) {
	p := new(mockProvider)
	svc := newTestService(p)

	got := svc.TranslateBatchJSON(context.Background(), []string{"", "  "}, "en", "fr")

	assert.Equal(t, []string{"", "  "}, got)
	p.AssertNotCalled(t, "Translate")
}

func TestTranslateBatchJSON_EmptyInput(t *testing.T) {
	svc := newTestService(new(mockProvider))
	assert.Nil(t, svc.TranslateBatchJSON(context.Background(), nil, "en", "fr"))
}
