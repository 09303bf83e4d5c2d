// Package bigmod implements fixed-width modular arithmetic over little-endian
// 32-bit limb arrays, the numeric substrate for the modexp and elliptic-curve
// precompiles.
//
// Values are Nat slices of a fixed limb count per use: 8 limbs (256 bits),
// 12 limbs (384 bits) or 128 limbs (4096 bits). A Nat holding a field or
// group element is kept canonically reduced (strictly below its modulus)
// except across explicitly unchecked operations, whose results may only feed
// further unchecked operations or one final checked operation.
//
// Two interchangeable arithmetic backends exist, selected by the zkvm build
// tag: the default host backend computes with math/big (plus uint256 fast
// paths at 256 bits), and the zkvm backend routes every operation through the
// guest big-integer co-processor. Both produce bit-identical results.
package bigmod

import (
	"math/big"
	"math/bits"
)

// Limb widths for the supported operand sizes.
const (
	Words256  = 8   // 256-bit operands (32 bytes)
	Words384  = 12  // 384-bit operands (48 bytes)
	Words4096 = 128 // 4096-bit operands (512 bytes)
)

const limbBytes = 4

// Nat is an unsigned integer stored as little-endian 32-bit limbs. The limb
// count fixes the operand width; all operands of one operation must share it.
type Nat []uint32

// NewNat returns a zero Nat of the given limb count.
func NewNat(width int) Nat {
	return make(Nat, width)
}

// NatFromBytes interprets a big-endian byte slice as an unsigned integer and
// stores it in a Nat of the given limb count, zero-padding the high limbs.
// It panics if the input does not fit, which indicates a dispatch bug in the
// caller rather than bad external data.
func NatFromBytes(width int, b []byte) Nat {
	if len(b) > width*limbBytes {
		panic("bigmod: input exceeds limb width")
	}
	x := make(Nat, width)
	limb := 0
	for i := len(b); i > 0; i -= limbBytes {
		lo := i - limbBytes
		if lo < 0 {
			lo = 0
		}
		var w uint32
		for _, c := range b[lo:i] {
			w = w<<8 | uint32(c)
		}
		x[limb] = w
		limb++
	}
	return x
}

// Bytes returns the big-endian representation of x, truncated or zero-padded
// on the left to exactly outLen bytes. Truncation below the minimal byte
// length silently drops high-order bytes; callers use outLen no smaller than
// the value's minimal length.
func (x Nat) Bytes(outLen int) []byte {
	if outLen == 0 {
		return []byte{}
	}
	full := len(x) * limbBytes
	if outLen > full {
		out := make([]byte, outLen)
		copy(out[outLen-full:], x.Bytes(full))
		return out
	}
	out := make([]byte, 0, outLen)
	idx := (outLen - 1) / limbBytes
	skip := (idx+1)*limbBytes - outLen
	var w [limbBytes]byte
	beBytes(&w, x[idx])
	out = append(out, w[skip:]...)
	for i := idx - 1; i >= 0; i-- {
		beBytes(&w, x[i])
		out = append(out, w[:]...)
	}
	return out
}

func beBytes(dst *[limbBytes]byte, w uint32) {
	dst[0] = byte(w >> 24)
	dst[1] = byte(w >> 16)
	dst[2] = byte(w >> 8)
	dst[3] = byte(w)
}

// Less reports whether x < y as unsigned integers. Limbs are little-endian,
// so the scan runs from the most-significant limb down.
func (x Nat) Less(y Nat) bool {
	if len(x) != len(y) {
		panic("bigmod: width mismatch")
	}
	for i := len(x) - 1; i >= 0; i-- {
		if x[i] != y[i] {
			return x[i] < y[i]
		}
	}
	return false
}

// IsZero reports whether x == 0.
func (x Nat) IsZero() bool {
	for _, w := range x {
		if w != 0 {
			return false
		}
	}
	return true
}

// Equal reports whether x == y. Both must be canonical representatives for
// the comparison to be meaningful.
func (x Nat) Equal(y Nat) bool {
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

// BitLen returns the minimal number of bits needed to represent x; 0 for the
// zero value.
func (x Nat) BitLen() int {
	for i := len(x) - 1; i >= 0; i-- {
		if x[i] != 0 {
			return i*32 + bits.Len32(x[i])
		}
	}
	return 0
}

// Bit returns bit i of x (0 = least significant). Out-of-range bits are zero.
func (x Nat) Bit(i int) bool {
	limb := i / 32
	if limb >= len(x) {
		return false
	}
	return x[limb]>>(i%32)&1 != 0
}

// Clone returns an independent copy of x.
func (x Nat) Clone() Nat {
	y := make(Nat, len(x))
	copy(y, x)
	return y
}

// BytesBitLen is BitLen for a big-endian byte slice, letting raw exponent
// or scalar bytes drive square-and-multiply loops without a limb conversion.
func BytesBitLen(b []byte) int {
	for i, c := range b {
		if c != 0 {
			return (len(b)-i)*8 - bits.LeadingZeros8(c)
		}
	}
	return 0
}

// BytesBit returns bit i (0 = least significant) of a big-endian byte slice.
// Bits past the end of the slice read as zero.
func BytesBit(b []byte, i int) bool {
	off := i / 8
	if off >= len(b) {
		return false
	}
	return b[len(b)-1-off]&(1<<(i%8)) != 0
}

// big converts x to a math/big integer.
func (x Nat) big() *big.Int {
	return new(big.Int).SetBytes(x.Bytes(len(x) * limbBytes))
}

// setBig stores v into x, which must be wide enough. v is assumed
// non-negative.
func (x Nat) setBig(v *big.Int) {
	b := v.Bytes()
	if len(b) > len(x)*limbBytes {
		panic("bigmod: value exceeds limb width")
	}
	for i := range x {
		x[i] = 0
	}
	limb := 0
	for i := len(b); i > 0; i -= limbBytes {
		lo := i - limbBytes
		if lo < 0 {
			lo = 0
		}
		var w uint32
		for _, c := range b[lo:i] {
			w = w<<8 | uint32(c)
		}
		x[limb] = w
		limb++
	}
}
