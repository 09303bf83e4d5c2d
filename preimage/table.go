// Package preimage builds a lookup table from hashed trie key prefixes back
// to their keccak preimages. Host tooling uses it to reverse hashed storage
// slots when assembling range queries: given the leading nibbles of a hashed
// key, Find returns a 32-byte value that hashes to that prefix.
package preimage

import (
	"encoding/binary"
	"errors"
	"math"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/steleth/steleth/core/types"
	"github.com/steleth/steleth/crypto"
	"github.com/steleth/steleth/log"
)

var (
	// ErrPrefixTooLong is returned by New for prefixes beyond 8 nibbles,
	// where the table would not fit in memory.
	ErrPrefixTooLong = errors.New("preimage: prefix too long")

	// ErrExhausted is returned if the nonce space runs out before every
	// prefix has a preimage. With 64-bit nonces this cannot happen for any
	// buildable table size.
	ErrExhausted = errors.New("preimage: nonce space exhausted")
)

// Table maps every nibble prefix of a fixed length to a nonce whose padded
// keccak hash starts with that prefix.
type Table struct {
	nibbles int
	table   []uint64
}

// New builds a table covering all prefixes of prefixLen nibbles. The nonce
// space is scanned in parallel: one worker per GOMAXPROCS, each walking its
// own stride, claiming empty cells with a compare-and-swap.
func New(prefixLen int) (*Table, error) {
	if prefixLen == 0 {
		return &Table{}, nil
	}
	if prefixLen > 8 {
		return nil, ErrPrefixTooLong
	}
	size := 1 << (4 * prefixLen)

	logger := log.Default().Module("preimage")
	logger.Info("building preimage table", "nibbles", prefixLen, "entries", size)

	slots := make([]int64, size)
	for i := range slots {
		slots[i] = -1
	}
	var found atomic.Int64

	workers := runtime.GOMAXPROCS(0)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for nonce := uint64(w); ; nonce += uint64(workers) {
				if found.Load() == int64(size) {
					return nil
				}
				hash := crypto.Keccak256(pad32(nonce))
				idx := indexOf(hash, prefixLen)
				if atomic.CompareAndSwapInt64(&slots[idx], -1, int64(nonce)) {
					if found.Add(1) == int64(size) {
						return nil
					}
				}
				if nonce > math.MaxUint64-uint64(workers) {
					return ErrExhausted
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	logger.Info("preimage table complete")

	table := make([]uint64, size)
	for i, n := range slots {
		table[i] = uint64(n)
	}
	return &Table{nibbles: prefixLen, table: table}, nil
}

// Find returns a 32-byte preimage whose keccak hash starts with the given
// nibbles. Prefixes shorter than the table's width reuse the same cells:
// the index packs nibbles little-endian-first, so the low positions always
// hold the leading hash nibbles. The second return is false when the prefix
// is longer than the table covers or contains an invalid nibble.
func (t *Table) Find(prefix []byte) (types.Hash, bool) {
	if len(prefix) > t.nibbles || len(t.table) == 0 {
		return types.Hash{}, false
	}
	idx := 0
	for i := len(prefix) - 1; i >= 0; i-- {
		if prefix[i] > 0x0f {
			return types.Hash{}, false
		}
		idx = idx<<4 | int(prefix[i])
	}
	return types.BytesToHash(pad32(t.table[idx])), true
}

// Nibbles returns the prefix length the table covers.
func (t *Table) Nibbles() int { return t.nibbles }

// pad32 renders a nonce as a 32-byte big-endian word, the shape trie keys
// take before hashing.
func pad32(nonce uint64) []byte {
	var b [32]byte
	binary.BigEndian.PutUint64(b[24:], nonce)
	return b[:]
}

// indexOf packs the leading prefixLen nibbles of a hash into a table index,
// least-significant nibble first: hash nibbles [a, b, c] index as 0xcba.
func indexOf(hash []byte, prefixLen int) int {
	idx := 0
	for i := prefixLen - 1; i >= 0; i-- {
		nb := hash[i/2] >> 4
		if i%2 == 1 {
			nb = hash[i/2] & 0x0f
		}
		idx = idx<<4 | int(nb)
	}
	return idx
}
