// Package types defines the small value types shared across the steleth
// packages: 32-byte hashes, 20-byte account addresses and the state-trie
// account record.
package types

import (
	"encoding/hex"
	"fmt"

	"github.com/holiman/uint256"
)

const (
	HashLength    = 32
	AddressLength = 20

	// VersionedHashVersionKZG is the version byte prefixing an EIP-4844
	// blob versioned hash (sha256 of the KZG commitment).
	VersionedHashVersionKZG byte = 0x01
)

// Hash represents the 32-byte Keccak256 hash of data.
type Hash [HashLength]byte

// Address represents the 20-byte address of an Ethereum account.
type Address [AddressLength]byte

// BytesToHash converts bytes to Hash, left-padding if shorter than 32 bytes.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash converts a hex string (with or without 0x prefix) to Hash.
func HexToHash(s string) Hash {
	return BytesToHash(fromHex(s))
}

// RightPadToHash places b in the high-order bytes of a Hash, zero-filling
// the remainder. Nibble-prefix keys are padded this way when used as the
// low end of a range query.
func RightPadToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[:HashLength]
	}
	copy(h[:], b)
	return h
}

// Bytes returns the byte representation of the hash.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the hex string representation of the hash.
func (h Hash) Hex() string { return fmt.Sprintf("0x%x", h[:]) }

// SetBytes sets the hash from a byte slice, left-padding if necessary.
// If b is longer than 32 bytes, only the trailing 32 are kept.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// IsZero returns whether the hash is all zeros.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// BytesToAddress converts bytes to Address, left-padding if shorter than 20 bytes.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// HexToAddress converts a hex string (with or without 0x prefix) to Address.
func HexToAddress(s string) Address {
	return BytesToAddress(fromHex(s))
}

// Bytes returns the byte representation of the address.
func (a Address) Bytes() []byte { return a[:] }

// Hex returns the hex string representation of the address.
func (a Address) Hex() string { return fmt.Sprintf("0x%x", a[:]) }

// SetBytes sets the address from a byte slice, left-padding if necessary.
// If b is longer than 20 bytes, only the trailing 20 are kept.
func (a *Address) SetBytes(b []byte) {
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// IsZero returns whether the address is all zeros.
func (a Address) IsZero() bool {
	return a == Address{}
}

// String implements fmt.Stringer.
func (a Address) String() string { return a.Hex() }

// StateAccount is the account record stored at a hashed address in the
// state trie, in its consensus RLP field order.
type StateAccount struct {
	Nonce    uint64
	Balance  *uint256.Int
	Root     Hash   // storage trie root (EmptyRootHash for no storage)
	CodeHash []byte // keccak256 of code (EmptyCodeHash for EOAs)
}

// NewStateAccount creates an account with zero balance and empty storage.
func NewStateAccount() StateAccount {
	return StateAccount{
		Balance:  new(uint256.Int),
		Root:     EmptyRootHash,
		CodeHash: EmptyCodeHash.Bytes(),
	}
}

var (
	// EmptyRootHash is the hash of an empty state trie.
	EmptyRootHash = HexToHash("56e81f171bcc55a6ff8345e692c0f86e5b48e01b996cadc001622fb5e363b421")

	// EmptyCodeHash is the hash of empty EVM bytecode (keccak256 of empty string).
	EmptyCodeHash = HexToHash("c5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470")
)

// fromHex decodes a hex string, tolerating a 0x prefix and odd length.
func fromHex(s string) []byte {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil
	}
	return b
}
