package services

import (
	"strings"
	"unicode/utf8"
)

type TextChunker interface {
	Chunk(text string) []string
}

type textChunker struct {
	maxChars int
	overlap  int
}

// NewTextChunker splits resume text into pieces of at most maxChars runes.
// A chunk after the first starts with the last overlap runes of the previous
// one when that still fits.
func NewTextChunker(maxChars, overlap int) TextChunker {
	if maxChars <= 0 {
		maxChars = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChars {
		overlap = maxChars / 4
	}
	return &textChunker{maxChars: maxChars, overlap: overlap}
}

// Chunk implements TextChunker.
func (c *textChunker) Chunk(text string) []string {
	var chunks []string
	current := ""

	for _, piece := range c.pieces(text) {
		if current == "" {
			current = piece
			continue
		}

		if candidate := current + "\n" + piece; runeLen(candidate) <= c.maxChars {
			current = candidate
			continue
		}

		chunks = append(chunks, current)
		tail := lastRunes(current, c.overlap)
		if tail != "" && runeLen(tail)+1+runeLen(piece) <= c.maxChars {
			current = tail + "\n" + piece
		} else {
			current = piece
		}
	}

	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// pieces breaks text into paragraphs, falling back to lines and then fixed
// rune windows for anything longer than maxChars.
func (c *textChunker) pieces(text string) []string {
	var out []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if runeLen(para) <= c.maxChars {
			out = append(out, para)
			continue
		}

		for _, line := range strings.Split(para, "\n") {
			line = strings.TrimSpace(line)
			if line != "" {
				out = append(out, splitRunes(line, c.maxChars)...)
			}
		}
	}
	return out
}

func splitRunes(s string, size int) []string {
	runes := []rune(s)
	if len(runes) <= size {
		return []string{s}
	}

	var parts []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}

func lastRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[len(runes)-n:])
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
