package ingest

import "strings"

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

var sentenceEnders = []rune{'.', '!', '?'}

// Chunk splits text into overlapping segments of roughly targetSize
// characters. The provisional boundary is pulled back to the last paragraph
// break past the window's half-point, or failing that the last sentence
// ender past the half-point, so chunks stay coherent at the edges. Each
// window restarts overlap characters before the previous boundary; the final
// chunk runs to end of text. Whitespace-only chunks are dropped.
func Chunk(text string, targetSize, overlap int) []string {
	if text == "" {
		return nil
	}
	if targetSize <= 0 {
		targetSize = DefaultChunkSize
	}
	if overlap < 0 || overlap >= targetSize {
		overlap = DefaultChunkOverlap
	}

	runes := []rune(text)
	total := len(runes)
	var chunks []string
	start := 0
	for start < total {
		end := start + targetSize
		if end < total {
			half := start + targetSize/2
			if para := lastParagraphBreak(runes, start, end); para > half {
				end = para
			} else if sent := lastSentenceEnd(runes, half, end); sent > 0 {
				end = sent + 1
			}
		} else {
			end = total
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= total {
			break
		}
		next := end - overlap
		if next <= start {
			// boundary seeking pulled end too close to start; step past it
			next = end
		}
		start = next
	}
	return chunks
}

// lastParagraphBreak returns the index of the last "\n\n" in [from, to), or
// -1 when absent.
func lastParagraphBreak(runes []rune, from, to int) int {
	for i := to - 2; i >= from; i-- {
		if runes[i] == '\n' && runes[i+1] == '\n' {
			return i
		}
	}
	return -1
}

// lastSentenceEnd returns the index of the last sentence-ending rune in
// [from, to), or -1 when absent.
func lastSentenceEnd(runes []rune, from, to int) int {
	if from < 0 {
		from = 0
	}
	for i := to - 1; i >= from; i-- {
		for _, p := range sentenceEnders {
			if runes[i] == p {
				return i
			}
		}
	}
	return -1
}
