package cache

import (
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint is a 64-bit content identity used as a cache key component.
type Fingerprint uint64

// String returns the fingerprint as 16 lowercase hex digits.
func (f Fingerprint) String() string {
	s := strconv.FormatUint(uint64(f), 16)
	for len(s) < 16 {
		s = "0" + s
	}
	return s
}

// Hash returns the fingerprint of a single string.
func Hash(s string) Fingerprint {
	return Fingerprint(xxhash.Sum64String(s))
}

// Key builds a composite fingerprint from ordered components. Each component
// is length- or type-framed so that ("ab","c") and ("a","bc") differ.
type Key struct {
	d *xxhash.Digest
}

// NewKey starts an empty composite key.
func NewKey() *Key {
	return &Key{d: xxhash.New()}
}

// String appends a string component.
func (k *Key) String(s string) *Key {
	k.frame('s', uint64(len(s)))
	_, _ = k.d.WriteString(s)
	return k
}

// Strings appends a list component, preserving order.
func (k *Key) Strings(ss []string) *Key {
	k.frame('l', uint64(len(ss)))
	for _, s := range ss {
		k.String(s)
	}
	return k
}

// Int appends an integer component.
func (k *Key) Int(n int) *Key {
	k.frame('i', uint64(n))
	return k
}

// Float appends a float component by its IEEE-754 bits.
func (k *Key) Float(f float64) *Key {
	k.frame('f', math.Float64bits(f))
	return k
}

// Bool appends a boolean component.
func (k *Key) Bool(b bool) *Key {
	var v uint64
	if b {
		v = 1
	}
	k.frame('b', v)
	return k
}

// Fingerprint appends a nested fingerprint.
func (k *Key) Fingerprint(f Fingerprint) *Key {
	k.frame('h', uint64(f))
	return k
}

// Sum returns the composite fingerprint.
func (k *Key) Sum() Fingerprint {
	return Fingerprint(k.d.Sum64())
}

func (k *Key) frame(tag byte, v uint64) {
	var buf [9]byte
	buf[0] = tag
	for i := 0; i < 8; i++ {
		buf[1+i] = byte(v >> (8 * i))
	}
	_, _ = k.d.Write(buf[:])
}
