//go:build !zkvm

package bigmod

import (
	"math/big"

	"github.com/holiman/uint256"
)

// The host backend computes with math/big and keeps every result canonical,
// so the unchecked entry points alias the checked ones. 256-bit operands take
// a uint256 fast path, since precompile traffic is dominated by that width.

func modadd(z, x, y, m Nat) {
	if len(z) == Words256 {
		var xw, yw, mw, zw uint256.Int
		toUint256(&xw, x)
		toUint256(&yw, y)
		toUint256(&mw, m)
		zw.AddMod(&xw, &yw, &mw)
		fromUint256(z, &zw)
		return
	}
	t := new(big.Int).Add(x.big(), y.big())
	t.Mod(t, m.big())
	z.setBig(t)
}

func modsub(z, x, y, m Nat) {
	if len(z) == Words256 {
		var xw, yw, mw, zw uint256.Int
		toUint256(&xw, x)
		toUint256(&yw, y)
		toUint256(&mw, m)
		if xw.Lt(&yw) {
			zw.Sub(&yw, &xw)
			zw.Sub(&mw, &zw)
		} else {
			zw.Sub(&xw, &yw)
		}
		fromUint256(z, &zw)
		return
	}
	t := new(big.Int).Sub(x.big(), y.big())
	t.Mod(t, m.big()) // Euclidean: non-negative for m > 0
	z.setBig(t)
}

func modmul(z, x, y, m Nat) {
	if len(z) == Words256 {
		var xw, yw, mw, zw uint256.Int
		toUint256(&xw, x)
		toUint256(&yw, y)
		toUint256(&mw, m)
		zw.MulMod(&xw, &yw, &mw)
		fromUint256(z, &zw)
		return
	}
	t := new(big.Int).Mul(x.big(), y.big())
	t.Mod(t, m.big())
	z.setBig(t)
}

func modaddUnchecked(z, x, y, m Nat) { modadd(z, x, y, m) }

func modmulUnchecked(z, x, y, m Nat) { modmul(z, x, y, m) }

func modinv(z, x, m Nat) {
	t := new(big.Int).ModInverse(x.big(), m.big())
	if t == nil {
		panic("bigmod: no modular inverse")
	}
	z.setBig(t)
}

func toUint256(dst *uint256.Int, x Nat) {
	for i := 0; i < 4; i++ {
		dst[i] = uint64(x[2*i]) | uint64(x[2*i+1])<<32
	}
}

func fromUint256(dst Nat, w *uint256.Int) {
	for i := 0; i < 4; i++ {
		dst[2*i] = uint32(w[i])
		dst[2*i+1] = uint32(w[i] >> 32)
	}
}
