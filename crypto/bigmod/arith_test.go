package bigmod

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/prop"
)

var secp256k1P = mustHexNat(Words256, "fffffffffffffffffffffffffffffffffffffffffffffffffffffffefffffc2f")

func mustHexBytes(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

func mustHexNat(width int, s string) Nat {
	return NatFromBytes(width, mustHexBytes(s))
}

func TestModAddWraps(t *testing.T) {
	p := secp256k1P
	x := p.Clone()
	x[0] -= 1 // p-1
	y := NatFromBytes(Words256, []byte{2})
	z := NewNat(Words256)
	ModAdd(z, x, y, p)
	if !z.Equal(NatFromBytes(Words256, []byte{1})) {
		t.Fatalf("(p-1)+2 mod p = %x, want 1", z.Bytes(32))
	}
}

func TestModSub(t *testing.T) {
	m := NatFromBytes(Words256, []byte{7})
	z := NewNat(Words256)

	ModSub(z, NatFromBytes(Words256, []byte{5}), NatFromBytes(Words256, []byte{3}), m)
	if !z.Equal(NatFromBytes(Words256, []byte{2})) {
		t.Fatalf("5-3 mod 7 = %x, want 2", z.Bytes(1))
	}
	// Wrap below zero.
	ModSub(z, NatFromBytes(Words256, []byte{1}), NatFromBytes(Words256, []byte{2}), m)
	if !z.Equal(NatFromBytes(Words256, []byte{6})) {
		t.Fatalf("1-2 mod 7 = %x, want 6", z.Bytes(1))
	}
}

func TestModMul384(t *testing.T) {
	// 2^383 * 2 mod (2^384 - 1) = 2^384 mod (2^384 - 1) = 1.
	x := NewNat(Words384)
	x[Words384-1] = 0x80000000
	y := NatFromBytes(Words384, []byte{2})
	m := NewNat(Words384)
	for i := range m {
		m[i] = 0xffffffff
	}
	z := NewNat(Words384)
	ModMul(z, x, y, m)
	if !z.Equal(NatFromBytes(Words384, []byte{1})) {
		t.Fatalf("2^384 mod (2^384-1) = %x, want 1", z.Bytes(48))
	}
}

func TestModInv(t *testing.T) {
	m := NatFromBytes(Words256, []byte{7})
	z := NewNat(Words256)
	ModInv(z, NatFromBytes(Words256, []byte{3}), m)
	if !z.Equal(NatFromBytes(Words256, []byte{5})) {
		t.Fatalf("3^-1 mod 7 = %x, want 5", z.Bytes(1))
	}
}

func TestModInvNotInvertiblePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for gcd(x,m) != 1")
		}
	}()
	z := NewNat(Words256)
	ModInv(z, NatFromBytes(Words256, []byte{2}), NatFromBytes(Words256, []byte{4}))
}

func TestModInvZeroPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for zero input")
		}
	}()
	z := NewNat(Words256)
	ModInv(z, NewNat(Words256), secp256k1P)
}

func TestWidthMismatchPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for mismatched widths")
		}
	}()
	ModAdd(NewNat(Words256), NewNat(Words384), NewNat(Words256), NewNat(Words256))
}

// genNat generates a uniformly random Nat of the given width.
func genNat(width int) gopter.Gen {
	return func(genParams *gopter.GenParameters) *gopter.GenResult {
		x := make(Nat, width)
		for i := range x {
			x[i] = uint32(genParams.NextUint64())
		}
		return gopter.NewGenResult(x, gopter.NoShrinker)
	}
}

func TestArithProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	for _, width := range []int{Words256, Words384} {
		width := width

		properties.Property("modadd matches arbitrary-precision reference", prop.ForAll(
			func(x, y, m Nat) bool {
				if m.IsZero() {
					m[0] = 1
				}
				z := NewNat(width)
				ModAdd(z, x, y, m)
				want := new(big.Int).Add(x.big(), y.big())
				want.Mod(want, m.big())
				return z.big().Cmp(want) == 0 && z.Less(m)
			},
			genNat(width), genNat(width), genNat(width),
		))

		properties.Property("modmul matches arbitrary-precision reference", prop.ForAll(
			func(x, y, m Nat) bool {
				if m.IsZero() {
					m[0] = 1
				}
				z := NewNat(width)
				ModMul(z, x, y, m)
				want := new(big.Int).Mul(x.big(), y.big())
				want.Mod(want, m.big())
				return z.big().Cmp(want) == 0
			},
			genNat(width), genNat(width), genNat(width),
		))

		properties.Property("checked and unchecked agree on the host backend", prop.ForAll(
			func(x, y, m Nat) bool {
				if m.IsZero() {
					m[0] = 1
				}
				a, b := NewNat(width), NewNat(width)
				ModMul(a, x, y, m)
				ModMulUnchecked(b, x, y, m)
				if !a.Equal(b) {
					return false
				}
				ModAdd(a, x, y, m)
				ModAddUnchecked(b, x, y, m)
				return a.Equal(b)
			},
			genNat(width), genNat(width), genNat(width),
		))

		properties.Property("modsub inverts modadd", prop.ForAll(
			func(x, y, m Nat) bool {
				if m.IsZero() {
					m[0] = 1
				}
				// Canonicalize the operands: ModSub requires reduced inputs.
				xr, yr := NewNat(width), NewNat(width)
				xr.setBig(new(big.Int).Mod(x.big(), m.big()))
				yr.setBig(new(big.Int).Mod(y.big(), m.big()))
				z, back := NewNat(width), NewNat(width)
				ModSub(z, xr, yr, m)
				ModAdd(back, z, yr, m)
				return back.Equal(xr) && z.Less(m)
			},
			genNat(width), genNat(width), genNat(width),
		))
	}

	properties.Property("modinv yields a multiplicative inverse mod a prime", prop.ForAll(
		func(x Nat) bool {
			xr := NewNat(Words256)
			xr.setBig(new(big.Int).Mod(x.big(), secp256k1P.big()))
			if xr.IsZero() {
				xr[0] = 1
			}
			inv, one := NewNat(Words256), NewNat(Words256)
			ModInv(inv, xr, secp256k1P)
			ModMul(one, inv, xr, secp256k1P)
			return one.Equal(NatFromBytes(Words256, []byte{1}))
		},
		genNat(Words256),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
