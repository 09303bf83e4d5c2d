package bigmod

// The modular operations below come in checked and unchecked flavors. A
// checked operation guarantees a canonically reduced result (z < m) given
// canonical inputs. An unchecked operation may return any representative of
// the residue class that still fits the limb width; its output must only be
// consumed by further unchecked operations or by one final checked operation.
// The host backend reduces everywhere, so both flavors coincide there; the
// split matters only to the co-processor backend, where skipping the final
// reduction saves cycles in multi-step formulas.
//
// All operands of one call must share a limb width, the modulus must be
// non-zero, and z may alias x or y.

// ModAdd computes z = (x + y) mod m with a canonical result.
func ModAdd(z, x, y, m Nat) {
	checkWidths(z, x, y, m)
	modadd(z, x, y, m)
}

// ModSub computes z = (x - y) mod m with a canonical result. Inputs must be
// canonical.
func ModSub(z, x, y, m Nat) {
	checkWidths(z, x, y, m)
	modsub(z, x, y, m)
}

// ModMul computes z = (x * y) mod m with a canonical result.
func ModMul(z, x, y, m Nat) {
	checkWidths(z, x, y, m)
	modmul(z, x, y, m)
}

// ModAddUnchecked computes z ≡ x + y (mod m), possibly leaving z
// non-canonical.
func ModAddUnchecked(z, x, y, m Nat) {
	checkWidths(z, x, y, m)
	modaddUnchecked(z, x, y, m)
}

// ModMulUnchecked computes z ≡ x * y (mod m), possibly leaving z
// non-canonical.
func ModMulUnchecked(z, x, y, m Nat) {
	checkWidths(z, x, y, m)
	modmulUnchecked(z, x, y, m)
}

// ModInv computes z = x⁻¹ mod m. It panics if x has no inverse modulo m;
// callers operating on validated field or group elements never hit that
// case.
func ModInv(z, x, m Nat) {
	if len(z) != len(x) || len(x) != len(m) {
		panic("bigmod: width mismatch")
	}
	modinv(z, x, m)
}

func checkWidths(z, x, y, m Nat) {
	if len(z) != len(x) || len(x) != len(y) || len(y) != len(m) {
		panic("bigmod: width mismatch")
	}
}
