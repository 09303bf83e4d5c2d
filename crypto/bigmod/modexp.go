package bigmod

import "math/big"

// ModExp computes base^exp mod m over fixed-width limbs. The exponent is a
// big-endian byte string of any length (use Nat.Bytes for a limb-array
// exponent); the modulus must be non-zero. The result is canonical.
//
// It panics if the final result is not strictly below the modulus. That
// cannot happen through this package's host backend; with an accelerated
// backend it means the co-processor broke its contract, and continuing would
// fold a wrong value into a proof, so the failure is deliberately fatal.
func ModExp(base Nat, exp []byte, m Nat) Nat {
	return modexpGeneric(base, exp, m, modmulUnchecked)
}

// modexpGeneric is the double-buffered left-to-right square-and-multiply
// loop, parameterized by the modular multiplication routine so that tests
// can substitute a misbehaving backend.
func modexpGeneric(base Nat, exp []byte, m Nat, mul func(z, x, y, m Nat)) Nat {
	if len(base) != len(m) {
		panic("bigmod: width mismatch")
	}
	if m.IsZero() {
		panic("bigmod: zero modulus")
	}
	width := len(m)

	// Two scratch buffers; the loop ping-pongs between them so no
	// multiplication ever aliases its output with an input.
	bufA := make(Nat, width)
	bufB := make(Nat, width)
	curr, next := bufA, bufB

	// Start from the multiplicative identity, reduced: 1 mod m is zero when
	// the modulus is one, and a zero-bit exponent must still yield a
	// canonical result.
	curr[0] = 1
	if !curr.Less(m) {
		curr[0] = 0
	}

	for i := BytesBitLen(exp) - 1; i >= 0; i-- {
		mul(next, curr, curr, m) // next = curr²
		if BytesBit(exp, i) {
			mul(curr, next, base, m) // curr = next·base
		} else {
			curr, next = next, curr
		}
	}

	// Honest-prover check: a non-canonical result means the arithmetic
	// backend violated its reduction contract.
	if !curr.Less(m) {
		panic("bigmod: modexp result exceeds modulus")
	}
	return curr
}

// ModExpBytes computes base^exp mod modulus over big-endian byte strings
// with EIP-198 semantics: a zero modulus yields an empty result, and
// otherwise the result is padded to exactly the modulus's byte length.
// Moduli of at most 32, 48 and 512 bytes run on the 256-, 384- and 4096-bit
// limb paths; anything larger falls back to math/big.
func ModExpBytes(base, exp, modulus []byte) []byte {
	var width int
	switch {
	case len(modulus) <= 32:
		width = Words256
	case len(modulus) <= 48:
		width = Words384
	case len(modulus) <= 512:
		width = Words4096
	default:
		return expBig(base, exp, modulus)
	}

	m := NatFromBytes(width, modulus)
	if m.IsZero() {
		return []byte{}
	}

	// A base wider than the limb array needs one arbitrary-precision
	// reduction before the fixed-width loop. A base that fits is used as-is
	// even when it is not reduced; every use inside the loop goes through a
	// modular multiplication.
	var b Nat
	if len(base) <= width*limbBytes {
		b = NatFromBytes(width, base)
	} else {
		t := new(big.Int).SetBytes(base)
		t.Mod(t, m.big())
		b = NewNat(width)
		b.setBig(t)
	}

	return ModExp(b, exp, m).Bytes(len(modulus))
}

// expBig is the arbitrary-precision fallback for moduli beyond the widest
// limb path.
func expBig(base, exp, modulus []byte) []byte {
	m := new(big.Int).SetBytes(modulus)
	if m.Sign() == 0 {
		return []byte{}
	}
	r := new(big.Int).Exp(new(big.Int).SetBytes(base), new(big.Int).SetBytes(exp), m)
	return leftPad(r.Bytes(), len(modulus))
}

// leftPad zero-extends b on the left to length n. b is returned unchanged if
// already long enough.
func leftPad(b []byte, n int) []byte {
	if len(b) >= n {
		return b
	}
	out := make([]byte, n)
	copy(out[n-len(b):], b)
	return out
}
