// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Docquery Contributors

package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Blob layout, little-endian throughout:
//
//	magic     [4]byte  "DQIX"
//	version   uint32   format version
//	dimension uint32
//	count     uint64
//	per entry:
//	  idLen   uint32
//	  id      [idLen]byte
//	  vector  [dimension]float32
//
// The explicit header makes dimension drift and format mismatch fail
// fast at load instead of corrupting state silently.

var blobMagic = [4]byte{'D', 'Q', 'I', 'X'}

const (
	blobVersion = 1
	// maxIDLen bounds a single id read so a corrupt length prefix
	// cannot trigger a huge allocation.
	maxIDLen = 1 << 12
)

func encodeBlob(vectors [][]float32, ids []string, dim int) []byte {
	var buf bytes.Buffer
	buf.Write(blobMagic[:])

	var scratch [8]byte
	binary.LittleEndian.PutUint32(scratch[:4], blobVersion)
	buf.Write(scratch[:4])
	binary.LittleEndian.PutUint32(scratch[:4], uint32(dim))
	buf.Write(scratch[:4])
	binary.LittleEndian.PutUint64(scratch[:8], uint64(len(ids)))
	buf.Write(scratch[:8])

	for i, id := range ids {
		binary.LittleEndian.PutUint32(scratch[:4], uint32(len(id)))
		buf.Write(scratch[:4])
		buf.WriteString(id)
		for _, x := range vectors[i] {
			binary.LittleEndian.PutUint32(scratch[:4], math.Float32bits(x))
			buf.Write(scratch[:4])
		}
	}

	return buf.Bytes()
}

func decodeBlob(raw []byte) (vectors [][]float32, ids []string, dim int, err error) {
	r := bytes.NewReader(raw)

	var magic [4]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil || magic != blobMagic {
		return nil, nil, 0, fmt.Errorf("bad magic")
	}

	var version, dim32 uint32
	var count uint64
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, nil, 0, fmt.Errorf("reading version: %w", err)
	}
	if version != blobVersion {
		return nil, nil, 0, fmt.Errorf("unsupported blob version %d", version)
	}
	if err := binary.Read(r, binary.LittleEndian, &dim32); err != nil {
		return nil, nil, 0, fmt.Errorf("reading dimension: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, nil, 0, fmt.Errorf("reading count: %w", err)
	}

	dim = int(dim32)
	if dim <= 0 {
		return nil, nil, 0, fmt.Errorf("non-positive dimension %d", dim)
	}
	// Sanity bound: every entry needs at least its vector bytes.
	if count > uint64(len(raw))/uint64(4*dim) {
		return nil, nil, 0, fmt.Errorf("entry count %d exceeds blob size", count)
	}

	vectors = make([][]float32, 0, count)
	ids = make([]string, 0, count)
	for i := uint64(0); i < count; i++ {
		var idLen uint32
		if err := binary.Read(r, binary.LittleEndian, &idLen); err != nil {
			return nil, nil, 0, fmt.Errorf("reading id length %d: %w", i, err)
		}
		if idLen > maxIDLen {
			return nil, nil, 0, fmt.Errorf("id length %d out of range", idLen)
		}
		idBytes := make([]byte, idLen)
		if _, err := io.ReadFull(r, idBytes); err != nil {
			return nil, nil, 0, fmt.Errorf("reading id %d: %w", i, err)
		}

		vec := make([]float32, dim)
		if err := binary.Read(r, binary.LittleEndian, vec); err != nil {
			return nil, nil, 0, fmt.Errorf("reading vector %d: %w", i, err)
		}

		ids = append(ids, string(idBytes))
		vectors = append(vectors, vec)
	}

	return vectors, ids, dim, nil
}
