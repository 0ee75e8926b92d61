package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"
)

// Hash represents a cryptographic hash
type Hash string

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// Short returns the first 12 hex characters, enough for log lines
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Hasher accumulates typed fields into a sha256 digest. Strings are length-prefixed
// so that ("ab","c") and ("a","bc") never collide.
type Hasher struct {
	h   hash.Hash
	buf [8]byte
}

// NewHasher creates an empty Hasher
func NewHasher() *Hasher {
	return &Hasher{h: sha256.New()}
}

// Text writes a length-prefixed string
func (hs *Hasher) Text(s string) *Hasher {
	hs.Uint64(uint64(len(s)))
	hs.h.Write([]byte(s))
	return hs
}

// Float writes the IEEE-754 bits of f
func (hs *Hasher) Float(f float64) *Hasher {
	return hs.Uint64(math.Float64bits(f))
}

// Int writes a signed integer
func (hs *Hasher) Int(i int64) *Hasher {
	return hs.Uint64(uint64(i))
}

// Uint64 writes an unsigned integer in little-endian order
func (hs *Hasher) Uint64(u uint64) *Hasher {
	binary.LittleEndian.PutUint64(hs.buf[:], u)
	hs.h.Write(hs.buf[:])
	return hs
}

// Sum returns the hex digest
func (hs *Hasher) Sum() Hash {
	return Hash(hex.EncodeToString(hs.h.Sum(nil)))
}
