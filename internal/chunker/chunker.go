// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

// Package chunker splits raw document text into overlapping retrievable
// units along sentence boundaries. Splitting is a pure transform with no
// side effects.
package chunker

import (
	"regexp"
	"strings"
)

const (
	// DefaultSize is the soft ceiling on chunk length in characters.
	DefaultSize = 500
	// DefaultOverlap is the approximate character overlap carried from
	// the tail of one chunk into the next.
	DefaultOverlap = 100
	// DefaultMinLen drops chunks at or below this length.
	DefaultMinLen = 10
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	// Allow-list: letters and digits in any script, whitespace, common
	// punctuation, and symbols that matter in prose (emails, phone
	// numbers, paths, math). Go's \w is ASCII-only, so the Unicode
	// classes are spelled out to keep non-English text intact.
	disallowedRe = regexp.MustCompile(`[^\p{L}\p{N}_\s.,!?;:\-()\[\]'"@+/\\=&%$#]`)
	repeatTermRe = regexp.MustCompile(`([.!?]){2,}`)
)

// Chunker splits text into sentence-aligned chunks of bounded size.
type Chunker struct {
	size    int
	overlap int
	minLen  int
}

// Option customizes a Chunker.
type Option func(*Chunker)

// WithSize sets the soft chunk size ceiling in characters.
func WithSize(n int) Option {
	return func(c *Chunker) { c.size = n }
}

// WithOverlap sets the approximate character overlap between chunks.
func WithOverlap(n int) Option {
	return func(c *Chunker) { c.overlap = n }
}

// WithMinLen sets the minimum chunk length; shorter outputs are dropped.
func WithMinLen(n int) Option {
	return func(c *Chunker) { c.minLen = n }
}

// New creates a Chunker. Non-positive size or negative overlap fall back
// to the defaults.
func New(opts ...Option) *Chunker {
	c := &Chunker{size: DefaultSize, overlap: DefaultOverlap, minLen: DefaultMinLen}
	for _, opt := range opts {
		opt(c)
	}
	if c.size <= 0 {
		c.size = DefaultSize
	}
	if c.overlap < 0 {
		c.overlap = DefaultOverlap
	}
	if c.minLen < 0 {
		c.minLen = DefaultMinLen
	}
	return c
}

// Size returns the configured soft chunk size ceiling.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured approximate overlap.
func (c *Chunker) Overlap() int { return c.overlap }

// Split cleans text and splits it into ordered chunks. Each chunk stays
// below the configured size unless a single sentence alone exceeds it,
// in which case the sentence is emitted whole rather than cut
// mid-sentence. Consecutive chunks share a short word-based overlap.
// Empty input yields nil.
func (c *Chunker) Split(text string) []string {
	text = Clean(text)
	if text == "" {
		return nil
	}

	sentences := splitSentences(text)

	var chunks []string
	var current string

	for _, sentence := range sentences {
		if len(current)+len(sentence) > c.size && current != "" {
			chunks = append(chunks, strings.TrimSpace(current))
			current = c.seedOverlap(current) + sentence
			continue
		}
		if current == "" {
			current = sentence
		} else {
			current += " " + sentence
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	// Drop fragments too short to be useful retrieval units.
	kept := chunks[:0]
	for _, chunk := range chunks {
		if len(chunk) > c.minLen {
			kept = append(kept, chunk)
		}
	}
	if len(kept) == 0 {
		return nil
	}
	return kept
}

// seedOverlap returns the trailing words of the previous buffer, used to
// seed the next chunk. The word count is a heuristic approximation of
// the configured character overlap, not an exact character match.
func (c *Chunker) seedOverlap(previous string) string {
	if c.overlap == 0 {
		return ""
	}
	words := strings.Fields(previous)
	n := c.overlap / 10
	if n <= 0 {
		n = 1
	}
	if n > len(words) {
		n = len(words)
	}
	return strings.Join(words[len(words)-n:], " ") + " "
}

// Clean normalizes whitespace and strips characters outside the
// allow-list while keeping sentence terminators usable as boundaries.
func Clean(text string) string {
	text = whitespaceRe.ReplaceAllString(text, " ")
	text = disallowedRe.ReplaceAllString(text, "")
	text = repeatTermRe.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}

// splitSentences splits cleaned text after each run of sentence
// terminators followed by whitespace. Go's regexp has no lookbehind, so
// this scans directly.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	runes := []rune(text)

	for i := 0; i < len(runes); i++ {
		if runes[i] != '.' && runes[i] != '!' && runes[i] != '?' {
			continue
		}
		// Consume the full terminator run.
		j := i
		for j+1 < len(runes) && (runes[j+1] == '.' || runes[j+1] == '!' || runes[j+1] == '?') {
			j++
		}
		if j+1 < len(runes) && runes[j+1] == ' ' {
			sentence := strings.TrimSpace(string(runes[start : j+1]))
			if sentence != "" {
				sentences = append(sentences, sentence)
			}
			start = j + 2
			i = j + 1
		} else {
			i = j
		}
	}

	if start < len(runes) {
		tail := strings.TrimSpace(string(runes[start:]))
		if tail != "" {
			sentences = append(sentences, tail)
		}
	}

	return sentences
}
