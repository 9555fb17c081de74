// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

package chunker_test

import (
	"strings"
	"testing"

	"github.com/docquery-dev/docquery/internal/chunker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyInput(t *testing.T) {
	c := chunker.New()
	assert.Nil(t, c.Split(""))
	assert.Nil(t, c.Split("   \n\t  "))
}

func TestSplitShortTextSingleChunk(t *testing.T) {
	c := chunker.New()
	chunks := c.Split("This is a short paragraph. It fits in one chunk.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "This is a short paragraph. It fits in one chunk.", chunks[0])
}

func TestSplitIsIdempotent(t *testing.T) {
	c := chunker.New(chunker.WithSize(120), chunker.WithOverlap(40))
	text := strings.Repeat("Semantic search retrieves passages by meaning rather than keywords. ", 8)

	first := c.Split(text)
	second := c.Split(text)
	assert.Equal(t, first, second)
}

func TestSplitRespectsSizeCeiling(t *testing.T) {
	c := chunker.New(chunker.WithSize(200), chunker.WithOverlap(50))
	text := strings.Repeat("The archive holds decades of reports on coastal erosion patterns. ", 20)

	chunks := c.Split(text)
	require.NotEmpty(t, chunks)

	// Every chunk stays within the ceiling plus the word-based overlap
	// slack carried from the previous buffer.
	slack := 80
	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk), 200+slack, "chunk %d too long", i)
		assert.Greater(t, len(chunk), 10, "chunk %d below minimum", i)
	}
}

func TestSplitOverlongSentenceEmittedWhole(t *testing.T) {
	c := chunker.New(chunker.WithSize(50), chunker.WithOverlap(0))
	long := "This single sentence runs well past the fifty character ceiling without any terminator until the very end."
	text := "Short lead. " + long + " Short tail follows here."

	chunks := c.Split(text)
	require.NotEmpty(t, chunks)

	var found bool
	for _, chunk := range chunks {
		if strings.Contains(chunk, long) {
			found = true
		}
	}
	assert.True(t, found, "over-long sentence must never be split mid-sentence")
}

func TestSplitScenario1200Chars(t *testing.T) {
	sentence := "The quick brown fox jumps over the lazy dog near the river bank today."
	text := strings.TrimSpace(strings.Repeat(sentence+" ", 17))
	require.GreaterOrEqual(t, len(text), 1200)

	c := chunker.New(chunker.WithSize(500), chunker.WithOverlap(100))
	chunks := c.Split(text)

	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		assert.Greater(t, len(chunk), 10, "chunk %d", i)
	}

	// Chunks 2 and 3 start with words carried over from their predecessor.
	for i := 1; i < len(chunks); i++ {
		prefix := strings.Join(strings.Fields(chunks[i])[:4], " ")
		assert.Contains(t, chunks[i-1], prefix, "chunk %d should share a prefix with chunk %d", i, i-1)
	}
}

func TestCleanStripsDisallowedCharacters(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"control noise", "Report\x00 on Q3* results†", "Report on Q3 results"},
		{"preserves email and symbols", "Contact ops@example.com for 50% off = savings.", "Contact ops@example.com for 50% off = savings."},
		{"collapses whitespace", "spread \n\t across   lines", "spread across lines"},
		{"collapses repeated terminators", "Wait!!! Really??? Yes.", "Wait! Really? Yes."},
		{"keeps accented letters", "Café résumé naïve", "Café résumé naïve"},
		{"keeps non-latin scripts", "東京 is Tokyo. Москва is Moscow.", "東京 is Tokyo. Москва is Moscow."},
		{"strips symbols not letters", "prix: 30€ environ, hors taxes", "prix: 30 environ, hors taxes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, chunker.Clean(tt.in))
		})
	}
}

func TestSplitDropsTinyFragments(t *testing.T) {
	c := chunker.New(chunker.WithSize(500), chunker.WithOverlap(0))
	chunks := c.Split("Ok. No.")
	assert.Empty(t, chunks)
}
