// Package random provides random number generation that can be mocked for
// testing. Short-code allocation and the daily spin draw both consume
// randomness through this interface.
package random

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
)

// Random is a source of randomness.
type Random interface {
	// Intn returns a random int in [0, n).
	Intn(n int) int

	// Float64 returns a random float64 in [0, 1).
	Float64() float64

	// String generates a random string of the given length from the given alphabet.
	String(length int, alphabet string) string
}

// CryptoRandom implements Random using crypto/rand.
type CryptoRandom struct{}

// New creates a new CryptoRandom.
func New() *CryptoRandom {
	return &CryptoRandom{}
}

// Intn returns a cryptographically random int in [0, n).
func (r *CryptoRandom) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	max := big.NewInt(int64(n))
	result, err := rand.Int(rand.Reader, max)
	if err != nil {
		// Should never happen with crypto/rand.
		return 0
	}
	return int(result.Int64())
}

// Float64 returns a cryptographically random float64 in [0, 1).
func (r *CryptoRandom) Float64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	// 53 bits of mantissa, same construction as math/rand.Float64.
	return float64(binary.BigEndian.Uint64(buf[:])>>11) / (1 << 53)
}

// String generates a random string of the given length from the given alphabet.
func (r *CryptoRandom) String(length int, alphabet string) string {
	if length <= 0 || len(alphabet) == 0 {
		return ""
	}
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		result[i] = alphabet[r.Intn(len(alphabet))]
	}
	return string(result)
}

// Mock is a Random that replays queued results, for tests.
type Mock struct {
	IntnResults    []int
	intnIndex      int
	Float64Results []float64
	floatIndex     int
	StringResults  []string
	stringIndex    int
}

var _ Random = (*Mock)(nil)

// NewMock creates a new Mock.
func NewMock() *Mock {
	return &Mock{}
}

// Intn returns the next queued result, or 0 if none remaining.
func (r *Mock) Intn(n int) int {
	if r.intnIndex >= len(r.IntnResults) {
		return 0
	}
	result := r.IntnResults[r.intnIndex]
	r.intnIndex++
	return result
}

// Float64 returns the next queued result, or 0 if none remaining.
func (r *Mock) Float64() float64 {
	if r.floatIndex >= len(r.Float64Results) {
		return 0
	}
	result := r.Float64Results[r.floatIndex]
	r.floatIndex++
	return result
}

// String returns the next queued result, or empty string if none remaining.
func (r *Mock) String(length int, alphabet string) string {
	if r.stringIndex >= len(r.StringResults) {
		return ""
	}
	result := r.StringResults[r.stringIndex]
	r.stringIndex++
	return result
}

// QueueIntn adds values to the Intn result queue.
func (r *Mock) QueueIntn(values ...int) {
	r.IntnResults = append(r.IntnResults, values...)
}

// QueueFloat64 adds values to the Float64 result queue.
func (r *Mock) QueueFloat64(values ...float64) {
	r.Float64Results = append(r.Float64Results, values...)
}

// QueueString adds values to the String result queue.
func (r *Mock) QueueString(values ...string) {
	r.StringResults = append(r.StringResults, values...)
}
