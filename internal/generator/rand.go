package generator

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand"
	"time"
)

// DeriveSeed maps an arbitrary seed string to a stable int64, so test runs
// can be reproduced from a human-readable label.
func DeriveSeed(parts ...string) int64 {
	h := sha256.New()
	for i, p := range parts {
		if i > 0 {
			h.Write([]byte{'|'})
		}
		h.Write([]byte(p))
	}
	v := int64(binary.LittleEndian.Uint64(h.Sum(nil)[:8]))
	if v < 0 {
		v = -v
	}
	return v
}

// newRand returns the generator's private randomness source. A zero seed
// means "not reproducible": fall back to wall-clock entropy.
func newRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}
