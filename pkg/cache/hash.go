package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"hash"
	"math"

	"github.com/Traubert/nlp-tools/pkg/graph"
)

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...)
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	hash := sha256.Sum256(data)
	// Use full SHA-256 hash (64 hex chars / 256 bits) to prevent collisions
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(hash[:]))
}

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

// GraphHash fingerprints everything in l that influences a layout: node ids
// in order, positions, sizes, the fixed flag, and edges with weights.
// Labels, colors and other metadata are ignored.
func GraphHash(l graph.Layoutable) string {
	h := sha256.New()
	for _, n := range l.Nodes() {
		writeString(h, n.ID)
		writeFloat(h, n.X)
		writeFloat(h, n.Y)
		writeFloat(h, n.Size)
		if n.Fixed() {
			h.Write([]byte{1})
		} else {
			h.Write([]byte{0})
		}
	}
	h.Write([]byte{0xff})
	for _, e := range l.Edges() {
		writeString(h, e.From)
		writeString(h, e.To)
		writeFloat(h, e.Weight)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeString(h hash.Hash, s string) {
	var n [8]byte
	binary.LittleEndian.PutUint64(n[:], uint64(len(s)))
	h.Write(n[:])
	h.Write([]byte(s))
}

func writeFloat(h hash.Hash, f float64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], math.Float64bits(f))
	h.Write(b[:])
}
