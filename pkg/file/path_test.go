package file

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReplaceExt(t *testing.T) {
	tests := []struct {
		name string
		path string
		ext  string
		want string
	}{
		{name: "simple", path: "dir/deck.pptx", ext: ".xml", want: filepath.Join("dir", "deck.xml")},
		{name: "no dot in ext", path: "deck.pptx", ext: "xml", want: "deck.xml"},
		{name: "no ext on path", path: "deck", ext: ".xml", want: "deck.xml"},
		{name: "multi dot", path: "deck.v2.pptx", ext: ".xml", want: "deck.v2.xml"},
		{name: "empty path", path: "", ext: ".xml", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReplaceExt(tt.path, tt.ext))
		})
	}
}

func TestWithSuffix(t *testing.T) {
	assert.Equal(t, filepath.Join("dir", "deck_translated.pptx"), WithSuffix("dir/deck.pptx", "_translated"))
	assert.Equal(t, "deck_original.pptx", WithSuffix("deck.pptx", "_original"))
	assert.Equal(t, "deck_x", WithSuffix("deck", "_x"))
}

func TestStem(t *testing.T) {
	assert.Equal(t, "deck", Stem("some/dir/deck.pptx"))
	assert.Equal(t, "deck.v2", Stem("deck.v2.pptx"))
	assert.Equal(t, "deck", Stem("deck"))
}
