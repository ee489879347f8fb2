package chunker

import (
	"strings"
)

// LineChunker splits free text into windows of whole lines so that a single
// price row is never cut in half. Windows do not overlap: an overlapping row
// would be extracted, and inserted, twice.
type LineChunker struct {
	linesPerChunk int
	maxRunes      int
}

// NewLineChunker returns a chunker emitting at most linesPerChunk non-empty
// lines per chunk. maxRunes, when positive, closes a window early once it
// grows past that many runes.
func NewLineChunker(linesPerChunk, maxRunes int) *LineChunker {
	if linesPerChunk <= 0 {
		linesPerChunk = 40
	}
	if maxRunes < 0 {
		maxRunes = 0
	}
	return &LineChunker{linesPerChunk: linesPerChunk, maxRunes: maxRunes}
}

func (c *LineChunker) Chunk(text string) []string {
	var lines []string
	for _, l := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return nil
	}

	var chunks []string
	start, runes := 0, 0
	for i, l := range lines {
		n := len([]rune(l))
		full := i-start >= c.linesPerChunk
		tooLong := c.maxRunes > 0 && i > start && runes+n > c.maxRunes
		if full || tooLong {
			chunks = append(chunks, strings.Join(lines[start:i], "\n"))
			start, runes = i, 0
		}
		runes += n
	}
	chunks = append(chunks, strings.Join(lines[start:], "\n"))
	return chunks
}
