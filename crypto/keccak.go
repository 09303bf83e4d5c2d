package crypto

import (
	"github.com/steleth/steleth/core/types"
	"golang.org/x/crypto/sha3"
)

// Keccak256 returns the legacy Keccak-256 digest of the concatenated
// inputs. Trie commitments and address hashing both go through here.
func Keccak256(data ...[]byte) []byte {
	d := sha3.NewLegacyKeccak256()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash is Keccak256 with the result as a types.Hash.
func Keccak256Hash(data ...[]byte) types.Hash {
	return types.BytesToHash(Keccak256(data...))
}
