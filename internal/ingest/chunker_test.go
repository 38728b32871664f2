package ingest

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_EmptyInput(t *testing.T) {
	assert.Empty(t, Chunk("", DefaultChunkSize, DefaultChunkOverlap))
}

func TestChunk_WhitespaceOnlyInput(t *testing.T) {
	assert.Empty(t, Chunk("   \n\n  \t ", DefaultChunkSize, DefaultChunkOverlap))
}

func TestChunk_ShortTextSingleChunk(t *testing.T) {
	text := "A single short paragraph about binary trees."
	chunks := Chunk(text, DefaultChunkSize, DefaultChunkOverlap)
	require.Len(t, chunks, 1)
	assert.Equal(t, text, chunks[0])
}

func TestChunk_NoEmptyChunksAndAllSubstrings(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 120; i++ {
		b.WriteString("Sentence number one about data structures. Sentence number two about algorithms.\n\n")
	}
	text := b.String()

	chunks := Chunk(text, 500, 100)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		assert.NotEmpty(t, strings.TrimSpace(chunk))
		assert.Contains(t, text, chunk)
	}
}

func TestChunk_CoversWholeDocument(t *testing.T) {
	var parts []string
	for i := 0; i < 60; i++ {
		parts = append(parts, "This lecture covers graph traversal and shortest path algorithms in detail.")
	}
	parts = append(parts, "The unique closing sentence mentions Dijkstra relaxation.")
	text := strings.Join(parts, " ")

	chunks := Chunk(text, 400, 80)
	require.NotEmpty(t, chunks)
	assert.True(t, strings.HasPrefix(text, chunks[0][:20]))
	assert.Contains(t, chunks[len(chunks)-1], "Dijkstra relaxation")
}

func TestChunk_ConsecutiveChunksOverlap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString("Stacks and queues are fundamental collection types used everywhere. ")
	}
	chunks := Chunk(b.String(), 400, 100)
	require.Greater(t, len(chunks), 1)
	for i := 1; i < len(chunks); i++ {
		prevTail := chunks[i-1][len(chunks[i-1])-40:]
		// the next chunk restarts before the previous boundary, so some
		// suffix of the previous chunk reappears
		assert.Contains(t, chunks[i], strings.TrimSpace(prevTail)[:10])
	}
}

func TestChunk_PrefersParagraphBreak(t *testing.T) {
	first := strings.Repeat("a", 300) + "."
	second := strings.Repeat("b", 300) + "."
	third := strings.Repeat("c", 300) + "."
	text := first + "\n\n" + second + "\n\n" + third

	chunks := Chunk(text, 700, 50)
	require.Greater(t, len(chunks), 1)
	// the paragraph break past the half-point wins over the raw cut at 700
	assert.Equal(t, first+"\n\n"+second, chunks[0])
}

func TestChunk_FallsBackToSentenceBreak(t *testing.T) {
	text := strings.Repeat("x", 400) + ". " + strings.Repeat("y", 500) + " end marker " + strings.Repeat("z", 400)
	chunks := Chunk(text, 600, 50)
	require.Greater(t, len(chunks), 1)
	// no paragraph break exists, so the cut lands just after the period
	assert.True(t, strings.HasSuffix(chunks[0], "."), "chunk should end at sentence boundary, got %q", chunks[0][len(chunks[0])-10:])
}

func TestChunk_DeterministicForSameInput(t *testing.T) {
	text := strings.Repeat("Consistent hashing distributes keys across nodes. ", 80)
	first := Chunk(text, 500, 100)
	second := Chunk(text, 500, 100)
	assert.Equal(t, first, second)
}

func TestChunk_HandlesMultibyteRunes(t *testing.T) {
	text := strings.Repeat("数据结构与算法是计算机科学的基础课程内容之一。", 100)
	chunks := Chunk(text, 300, 50)
	require.NotEmpty(t, chunks)
	for _, chunk := range chunks {
		// raw cuts must never split a rune
		assert.True(t, utf8.ValidString(chunk))
		assert.Contains(t, text, chunk)
	}
}
