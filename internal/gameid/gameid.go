// Package gameid generates sortable game identifiers: UUIDv7 encoded as a
// 26-character Crockford base32 string. IDs created later sort later, which
// keeps game listings in creation order without a separate timestamp.
package gameid

import (
	"crypto/rand"
	"time"
)

const alphabet = "0123456789abcdefghjkmnpqrstvwxyz"

// RandSource supplies randomness, injectable for deterministic tests.
type RandSource interface {
	Intn(n int) int
}

// Generator produces game IDs with configurable randomness.
type Generator struct {
	randSource RandSource
}

// NewGenerator creates a generator. A nil RandSource uses crypto/rand.
func NewGenerator(randSource RandSource) *Generator {
	return &Generator{randSource: randSource}
}

// Generate creates a new game ID with the default generator.
func Generate() string {
	return NewGenerator(nil).Generate()
}

// Generate creates a new game ID.
func (g *Generator) Generate() string {
	var uuid [16]byte

	ms := uint64(time.Now().UnixMilli())
	uuid[0] = byte(ms >> 40)
	uuid[1] = byte(ms >> 32)
	uuid[2] = byte(ms >> 24)
	uuid[3] = byte(ms >> 16)
	uuid[4] = byte(ms >> 8)
	uuid[5] = byte(ms)

	if g.randSource != nil {
		for i := 6; i < 16; i++ {
			uuid[i] = byte(g.randSource.Intn(256))
		}
	} else {
		_, _ = rand.Read(uuid[6:])
	}

	// Version 7, RFC 4122 variant.
	uuid[6] = (uuid[6] & 0x0f) | 0x70
	uuid[8] = (uuid[8] & 0x3f) | 0x80

	return encodeBase32(uuid)
}

// encodeBase32 packs 128 bits into 26 base32 characters (130 bits with two
// zero bits of padding at the front).
func encodeBase32(uuid [16]byte) string {
	var out [26]byte
	var acc uint64
	bits := 0
	idx := 25
	for i := 15; i >= 0; i-- {
		acc |= uint64(uuid[i]) << bits
		bits += 8
		for bits >= 5 && idx >= 0 {
			out[idx] = alphabet[acc&0x1f]
			acc >>= 5
			bits -= 5
			idx--
		}
	}
	for idx >= 0 {
		out[idx] = alphabet[acc&0x1f]
		acc >>= 5
		idx--
	}
	return string(out[:])
}
