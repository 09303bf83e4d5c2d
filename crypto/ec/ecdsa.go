package ec

import "github.com/steleth/steleth/crypto/bigmod"

// VerifySignature reports whether sig is a valid ECDSA signature over hash
// by the secp256r1 public key pubkey. hash is the 32-byte message digest,
// sig is r‖s (64 bytes, big-endian), pubkey is x‖y (64 bytes, big-endian).
//
// Every input is attacker-controlled at the precompile boundary, so every
// failure mode is a false return, never a panic: bad lengths, out-of-range
// or zero r and s, and public keys that are malformed, off-curve, or the
// identity are all rejected up front.
func VerifySignature(hash, sig, pubkey []byte) bool {
	if len(hash) != 32 || len(sig) != 2*coordBytes || len(pubkey) != pointBytes {
		return false
	}

	q, err := Decode(P256, pubkey)
	if err != nil || q.Inf {
		return false
	}

	n := P256.N
	r := bigmod.NatFromBytes(coordWords, sig[:coordBytes])
	s := bigmod.NatFromBytes(coordWords, sig[coordBytes:])
	if r.IsZero() || !r.Less(n) || s.IsZero() || !s.Less(n) {
		return false
	}

	// w = s⁻¹ mod n. s is nonzero and below the prime order, so the
	// inverse always exists.
	w := bigmod.NewNat(coordWords)
	bigmod.ModInv(w, s, n)

	// u1 = z·w, u2 = r·w. The digest z may exceed n, so its product runs
	// unchecked, which reduces it on the way in.
	z := bigmod.NatFromBytes(coordWords, hash)
	u1 := bigmod.NewNat(coordWords)
	bigmod.ModMulUnchecked(u1, z, w, n)
	u2 := bigmod.NewNat(coordWords)
	bigmod.ModMul(u2, r, w, n)

	rp := P256.Add(P256.ScalarBaseMult(u1.Bytes(coordBytes)), P256.ScalarMult(q, u2.Bytes(coordBytes)))
	if rp.Inf {
		return false
	}

	// v = R'.x mod n. The x coordinate is canonical mod p but p > n, so
	// reduce by adding zero under n. The add is checked because the result
	// is compared for equality.
	v := bigmod.NewNat(coordWords)
	bigmod.ModAdd(v, bigmod.Nat(rp.X[:]), bigmod.NewNat(coordWords), n)
	return v.Equal(r)
}
