// Package chunk splits extracted document text into fixed-budget chunks.
//
// Chunking is a pure function of (normalized text, budget): the same input
// always yields the same chunks in the same order, so a chunk index recorded
// at ingestion can be dereferenced later by re-chunking the source with the
// same budget.
package chunk

import (
	"strings"
	"unicode/utf8"
)

// Normalize collapses every run of whitespace into a single space and trims both ends.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// Split greedily packs the words of text into chunks of at most maxChars
// characters (words plus single-space separators), counted in runes. A word
// is never split: a word longer than maxChars becomes a chunk of its own.
// Empty text yields nil.
func Split(text string, maxChars int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	current := make([]string, 0, 16)
	currentLen := 0

	for _, word := range words {
		wordLen := utf8.RuneCountInString(word)
		extra := wordLen
		if len(current) > 0 {
			extra++
		}
		if len(current) > 0 && currentLen+extra > maxChars {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			current = append(current, word)
			currentLen = wordLen
			continue
		}
		current = append(current, word)
		currentLen += extra
	}

	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// Chunks normalizes raw extracted text and splits it with the given budget.
func Chunks(raw string, maxChars int) []string {
	return Split(Normalize(raw), maxChars)
}

// At returns the chunk with the given index of raw text chunked with maxChars.
// ok is false when index is outside the chunk sequence.
func At(raw string, maxChars, index int) (string, bool) {
	chunks := Chunks(raw, maxChars)
	if index < 0 || index >= len(chunks) {
		return "", false
	}
	return chunks[index], true
}
