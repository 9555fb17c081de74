// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

// Package index provides an exact nearest-neighbor vector index over
// fixed-dimension embeddings. Vectors are L2-normalized on insert so
// cosine similarity reduces to an inner product.
package index

import (
	"log/slog"
	"math"
	"os"
	"sort"
	"sync"

	dqerr "github.com/docquery-dev/docquery/pkg/errors"
)

// Backend identifies the in-memory flat inner-product structure in
// stats and status reports.
const Backend = "flat-ip"

// Result is a single search hit.
type Result struct {
	ChunkID string
	Score   float64
}

// Stats describes the current state of the index.
type Stats struct {
	Vectors   int    `json:"total_vectors"`
	Dimension int    `json:"dimension"`
	Trained   bool   `json:"is_trained"`
	Backend   string `json:"index_type"`
}

// Flat is an exact inner-product index over unit-normalized vectors.
//
// Vectors and ids are parallel slices: position i of vectors always
// corresponds to position i of ids, after every add, remove, and
// rebuild. The whole index is persisted as a single blob after each
// mutation and reloaded at construction.
//
// Mutations take the write lock; searches take the read lock and may
// overlap freely. Callers must never invoke slow work (embedding,
// generation) from within index methods.
type Flat struct {
	mu         sync.RWMutex
	dim        int
	path       string
	vectors    [][]float32
	ids        []string
	generation uint64
	logger     *slog.Logger
}

// New creates a Flat index of the given dimension, loading prior state
// from the blob at path when present. A missing or corrupt blob yields
// a fresh empty index; a blob recorded with a different dimension is a
// configuration error and fails construction.
func New(dim int, path string, logger *slog.Logger) (*Flat, error) {
	if dim <= 0 {
		return nil, dqerr.Errorf(dqerr.CodeConfigInvalid, "index dimension must be positive, got %d", dim)
	}
	if logger == nil {
		logger = slog.Default()
	}

	f := &Flat{dim: dim, path: path, logger: logger}

	if path == "" {
		return f, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info("no index blob found, starting empty", "path", path, "dimension", dim)
			return f, nil
		}
		return nil, dqerr.Wrapf(err, dqerr.CodeIndexLoadFailure, "reading index blob %s", path)
	}

	vectors, ids, blobDim, err := decodeBlob(raw)
	if err != nil {
		logger.Warn("index blob corrupt, starting empty", "path", path, "error", err)
		return f, nil
	}
	if blobDim != dim {
		return nil, dqerr.Errorf(dqerr.CodeIndexDimensionMismatch,
			"index blob %s has dimension %d, configured dimension is %d", path, blobDim, dim)
	}

	f.vectors = vectors
	f.ids = ids
	logger.Info("loaded index blob", "path", path, "vectors", len(ids), "dimension", dim)
	return f, nil
}

// Add normalizes and appends vectors under the given chunk ids, then
// persists the full index. The in-memory append is kept even when
// persisting fails; the caller sees the save failure as a typed error.
func (f *Flat) Add(vectors [][]float32, ids []string) error {
	if len(vectors) != len(ids) {
		return dqerr.Errorf(dqerr.CodeIndexInvalidInput,
			"vector count %d does not match id count %d", len(vectors), len(ids))
	}
	if len(vectors) == 0 {
		return nil
	}
	for i, vec := range vectors {
		if len(vec) != f.dim {
			return dqerr.Errorf(dqerr.CodeIndexDimensionMismatch,
				"vector %d has dimension %d, index dimension is %d", i, len(vec), f.dim)
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for i, vec := range vectors {
		f.vectors = append(f.vectors, normalize(vec))
		f.ids = append(f.ids, ids[i])
	}

	f.logger.Info("added vectors to index", "count", len(ids), "total", len(f.ids))
	return f.saveLocked()
}

// Search returns up to topK (chunk id, score) pairs ordered by
// descending cosine similarity. An empty index returns no results;
// only a query of the wrong dimension is an error.
func (f *Flat) Search(query []float32, topK int) ([]Result, error) {
	if len(query) != f.dim {
		return nil, dqerr.Errorf(dqerr.CodeIndexDimensionMismatch,
			"query has dimension %d, index dimension is %d", len(query), f.dim)
	}
	if topK <= 0 {
		return nil, nil
	}

	q := normalize(query)

	f.mu.RLock()
	defer f.mu.RUnlock()

	if len(f.ids) == 0 {
		return nil, nil
	}

	results := make([]Result, len(f.ids))
	for i, vec := range f.vectors {
		results[i] = Result{ChunkID: f.ids[i], Score: dot(q, vec)}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if topK < len(results) {
		results = results[:topK]
	}
	return results, nil
}

// Remove rebuilds the index from all stored vectors excluding the
// given chunk ids. The backing structure offers no direct delete, so
// removal is linear in current size; rebuilds are rare next to
// searches and adds. Unknown ids are ignored. Stored vectors are
// already unit length, so re-normalizing during the rebuild is
// idempotent.
func (f *Flat) Remove(ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	kept := 0
	newVectors := make([][]float32, 0, len(f.ids))
	newIDs := make([]string, 0, len(f.ids))
	for i, id := range f.ids {
		if _, ok := drop[id]; ok {
			continue
		}
		newVectors = append(newVectors, normalize(f.vectors[i]))
		newIDs = append(newIDs, id)
		kept++
	}

	removed := len(f.ids) - kept
	f.vectors = newVectors
	f.ids = newIDs
	f.generation++

	if removed == 0 {
		f.logger.Warn("no matching chunk ids found to remove")
	} else {
		f.logger.Info("removed vectors from index", "removed", removed, "remaining", kept)
	}
	return f.saveLocked()
}

// Clear resets the index to empty at the configured dimension.
func (f *Flat) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.vectors = nil
	f.ids = nil
	f.generation++

	f.logger.Info("cleared index")
	return f.saveLocked()
}

// Stats reports the vector count, dimension, trained flag, and backing
// structure identifier.
func (f *Flat) Stats() Stats {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return Stats{
		Vectors:   len(f.ids),
		Dimension: f.dim,
		Trained:   true,
		Backend:   Backend,
	}
}

// Count returns the number of indexed vectors.
func (f *Flat) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.ids)
}

// Dimension returns the fixed vector dimension.
func (f *Flat) Dimension() int { return f.dim }

// Generation returns the rebuild counter. It is bumped on every remove
// and clear so long-lived readers can detect a rebuild mid-flight.
func (f *Flat) Generation() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.generation
}

// saveLocked persists the index blob. Callers must hold the write lock.
// There are no transactional semantics spanning a mutation and its
// persistence: a failed save surfaces as an error while the in-memory
// mutation stands.
func (f *Flat) saveLocked() error {
	if f.path == "" {
		return nil
	}

	raw := encodeBlob(f.vectors, f.ids, f.dim)

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return dqerr.Wrapf(err, dqerr.CodeIndexSaveFailure, "writing index blob %s", tmp)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return dqerr.Wrapf(err, dqerr.CodeIndexSaveFailure, "replacing index blob %s", f.path)
	}
	return nil
}

// normalize returns a unit-length copy of v. The zero vector is
// returned as a zero copy rather than dividing by zero.
func normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		copy(out, v)
		return out
	}
	norm := float32(math.Sqrt(sum))
	for i, x := range v {
		out[i] = x / norm
	}
	return out
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
