package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErr "github.com/MohitNilvarn/TAP/internal/pkg/errors"
)

func TestNewExtractor_UnsupportedType(t *testing.T) {
	_, err := NewExtractor("exe")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErr.ErrUnsupportedFileType)
}

func TestNewExtractor_CaseInsensitive(t *testing.T) {
	e, err := NewExtractor("TXT")
	require.NoError(t, err)
	assert.NotNil(t, e)
}

func TestTextExtractor_ReadsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello lecture"), 0o644))

	e, err := NewExtractor("txt")
	require.NoError(t, err)
	text, err := e.ExtractText(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "hello lecture", text)
}

func TestMarkdownToPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "headings and paragraphs",
			in:   "# Title\n\nFirst paragraph.\n\nSecond paragraph.",
			want: "Title\n\nFirst paragraph.\n\nSecond paragraph.",
		},
		{
			name: "inline formatting stripped",
			in:   "Some **bold** and *italic* and `code`.",
			want: "Some bold and italic and code.",
		},
		{
			name: "fenced code kept as text",
			in:   "Intro.\n\n```go\nfmt.Println(1)\n```",
			want: "Intro.\n\nfmt.Println(1)",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MarkdownToPlainText(tt.in))
		})
	}
}
