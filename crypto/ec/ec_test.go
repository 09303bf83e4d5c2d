package ec

import (
	"bytes"
	"crypto/elliptic"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/prop"

	"github.com/steleth/steleth/crypto/bigmod"
)

const (
	bn254PHex     = "30644e72e131a029b85045b68181585d97816a916871ca8d3c208c16d87cfd47"
	bn254OrderHex = "30644e72e131a029b85045b68181585d2833e84879b9709143e1f593f0000001"

	// 2G on BN254, from the Ethereum precompile test suite.
	bn254TwoGHex = "030644e72e131a029b85045b68181585d97816a916871ca8d3c208c16d87cfd3" +
		"15ed738c0e0a7c92e7845f96b2ae9c0a68a6a449e3538fc7ff3ebf7a5a18a2c4"

	p256OrderHex = "ffffffff00000000ffffffffffffffffbce6faada7179e84f3b9cac2fc632551"
)

func mustHexBytes(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex constant: %v", err)
	}
	return b
}

// bn254Gen decodes the BN254 G1 generator (1, 2).
func bn254Gen(t *testing.T) Point {
	t.Helper()
	enc := make([]byte, 64)
	enc[31] = 1
	enc[63] = 2
	p, err := Decode(BN254, enc)
	if err != nil {
		t.Fatalf("decode generator: %v", err)
	}
	return p
}

func scalarBytes(v *big.Int) []byte {
	b := make([]byte, 32)
	v.FillBytes(b)
	return b
}

func TestDecodeGates(t *testing.T) {
	gen := make([]byte, 64)
	gen[31] = 1
	gen[63] = 2

	if _, err := Decode(BN254, gen[:63]); !errors.Is(err, ErrPointLength) {
		t.Fatalf("63-byte input: err = %v, want ErrPointLength", err)
	}
	if _, err := Decode(BN254, append(append([]byte{}, gen...), 0)); !errors.Is(err, ErrPointLength) {
		t.Fatalf("65-byte input: err = %v, want ErrPointLength", err)
	}
	if _, err := Decode(BN254, nil); !errors.Is(err, ErrPointLength) {
		t.Fatalf("nil input: err = %v, want ErrPointLength", err)
	}

	// x = p is out of range regardless of y.
	badX := make([]byte, 64)
	copy(badX[:32], mustHexBytes(t, bn254PHex))
	if _, err := Decode(BN254, badX); !errors.Is(err, ErrCoordinateRange) {
		t.Fatalf("x = p: err = %v, want ErrCoordinateRange", err)
	}

	// y = p with a small valid x.
	badY := make([]byte, 64)
	badY[31] = 1
	copy(badY[32:], mustHexBytes(t, bn254PHex))
	if _, err := Decode(BN254, badY); !errors.Is(err, ErrCoordinateRange) {
		t.Fatalf("y = p: err = %v, want ErrCoordinateRange", err)
	}

	// (1, 3) does not satisfy y² = x³ + 3.
	offCurve := make([]byte, 64)
	offCurve[31] = 1
	offCurve[63] = 3
	if _, err := Decode(BN254, offCurve); !errors.Is(err, ErrPointNotOnCurve) {
		t.Fatalf("(1,3): err = %v, want ErrPointNotOnCurve", err)
	}

	// All zeros is the identity, and it round-trips.
	id, err := Decode(BN254, make([]byte, 64))
	if err != nil {
		t.Fatalf("decode identity: %v", err)
	}
	if !id.Inf {
		t.Fatal("all-zero encoding should decode to the identity")
	}
	if !bytes.Equal(Encode(id), make([]byte, 64)) {
		t.Fatal("identity should encode to 64 zero bytes")
	}

	// The generator round-trips.
	g, err := Decode(BN254, gen)
	if err != nil {
		t.Fatalf("decode generator: %v", err)
	}
	if !bytes.Equal(Encode(g), gen) {
		t.Fatalf("generator round-trip = %x", Encode(g))
	}
}

func TestIsOnCurve(t *testing.T) {
	one := bigmod.NatFromBytes(bigmod.Words256, []byte{1})
	two := bigmod.NatFromBytes(bigmod.Words256, []byte{2})
	three := bigmod.NatFromBytes(bigmod.Words256, []byte{3})

	if !BN254.IsOnCurve(one, two) {
		t.Fatal("(1,2) should be on BN254")
	}
	if BN254.IsOnCurve(one, three) {
		t.Fatal("(1,3) should not be on BN254")
	}
	if !P256.IsOnCurve(P256.Gx, P256.Gy) {
		t.Fatal("base point should be on secp256r1")
	}
	if P256.IsOnCurve(one, one) {
		t.Fatal("(1,1) should not be on secp256r1")
	}
}

// TestIsOnCurveBitFlips checks that flipping any single bit of the base
// point's y coordinate leaves the curve. Flips that push y past the field
// prime are instead rejected by the Decode range gate.
func TestIsOnCurveBitFlips(t *testing.T) {
	cases := []struct {
		name  string
		curve *CurveParams
		x, y  bigmod.Nat
	}{
		{"bn254", BN254, bigmod.NatFromBytes(bigmod.Words256, []byte{1}), bigmod.NatFromBytes(bigmod.Words256, []byte{2})},
		{"p256", P256, P256.Gx, P256.Gy},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			xBytes := tc.x.Bytes(32)
			yBytes := tc.y.Bytes(32)
			for i := 0; i < 256; i++ {
				flipped := make([]byte, 32)
				copy(flipped, yBytes)
				flipped[31-i/8] ^= 1 << (i % 8)

				y := bigmod.NatFromBytes(bigmod.Words256, flipped)
				if y.Less(tc.curve.P) && tc.curve.IsOnCurve(tc.x, y) {
					t.Fatalf("flipping y bit %d still satisfies the curve equation", i)
				}
				if _, err := Decode(tc.curve, append(append([]byte{}, xBytes...), flipped...)); err == nil {
					t.Fatalf("flipping y bit %d still decodes", i)
				}
			}
		})
	}
}

func TestBN254GroupLaw(t *testing.T) {
	g := bn254Gen(t)
	id := Identity()

	if !BN254.Add(g, id).Equal(g) {
		t.Fatal("G + 0 != G")
	}
	if !BN254.Add(id, g).Equal(g) {
		t.Fatal("0 + G != G")
	}

	neg := BN254.Neg(g)
	if !BN254.Add(g, neg).Inf {
		t.Fatal("G + (-G) should be the identity")
	}

	d := BN254.Double(g)
	if got := Encode(d); !bytes.Equal(got, mustHexBytes(t, bn254TwoGHex)) {
		t.Fatalf("2G = %x, want %s", got, bn254TwoGHex)
	}

	// 2G - G = G exercises the distinct-x addition path.
	if !BN254.Add(d, neg).Equal(g) {
		t.Fatal("2G + (-G) != G")
	}

	// Add(P, P) routes through doubling.
	if !BN254.Add(g, g).Equal(d) {
		t.Fatal("G + G != 2G")
	}

	three := BN254.Add(d, g)
	if !three.Equal(BN254.ScalarMult(g, []byte{3})) {
		t.Fatal("2G + G != 3G")
	}
}

func TestBN254ScalarMultEdges(t *testing.T) {
	g := bn254Gen(t)

	if !BN254.ScalarMult(g, nil).Inf {
		t.Fatal("nil scalar should give the identity")
	}
	if !BN254.ScalarMult(g, []byte{0, 0, 0}).Inf {
		t.Fatal("zero scalar should give the identity")
	}
	if !BN254.ScalarMult(g, []byte{1}).Equal(g) {
		t.Fatal("1*G != G")
	}
	if !BN254.ScalarMult(Identity(), []byte{0xff, 0x17}).Inf {
		t.Fatal("k*0 should stay the identity")
	}
}

func TestBN254OrderAnnihilates(t *testing.T) {
	g := bn254Gen(t)
	order := new(big.Int).SetBytes(mustHexBytes(t, bn254OrderHex))

	if !BN254.ScalarMult(g, scalarBytes(order)).Inf {
		t.Fatal("n*G should be the identity")
	}
	nm1 := BN254.ScalarMult(g, scalarBytes(new(big.Int).Sub(order, big.NewInt(1))))
	if !nm1.Equal(BN254.Neg(g)) {
		t.Fatal("(n-1)*G != -G")
	}
	np1 := BN254.ScalarMult(g, scalarBytes(new(big.Int).Add(order, big.NewInt(1))))
	if !np1.Equal(g) {
		t.Fatal("(n+1)*G != G")
	}
}

func TestBN254OrderMatchesGnark(t *testing.T) {
	if got := fr.Modulus().Text(16); got != bn254OrderHex {
		t.Fatalf("group order = %s, want %s", got, bn254OrderHex)
	}
}

func gnarkG1Bytes(p *bn254.G1Affine) []byte {
	out := make([]byte, 64)
	x := p.X.Bytes()
	y := p.Y.Bytes()
	copy(out[:32], x[:])
	copy(out[32:], y[:])
	return out
}

func genScalar() gopter.Gen {
	return func(genParams *gopter.GenParameters) *gopter.GenResult {
		b := make([]byte, 32)
		for i := 0; i < len(b); i += 8 {
			binary.BigEndian.PutUint64(b[i:], genParams.NextUint64())
		}
		return gopter.NewGenResult(b, gopter.NoShrinker)
	}
}

// TestBN254MatchesGnark checks the affine group law against gnark-crypto on
// random scalars.
func TestBN254MatchesGnark(t *testing.T) {
	_, _, g1Aff, _ := bn254.Generators()
	g := bn254Gen(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("scalar mul matches gnark-crypto", prop.ForAll(
		func(k []byte) bool {
			var want bn254.G1Affine
			want.ScalarMultiplication(&g1Aff, new(big.Int).SetBytes(k))
			return bytes.Equal(Encode(BN254.ScalarMult(g, k)), gnarkG1Bytes(&want))
		},
		genScalar(),
	))

	properties.Property("addition matches gnark-crypto", prop.ForAll(
		func(ka, kb []byte) bool {
			a := new(big.Int).SetBytes(ka)
			b := new(big.Int).SetBytes(kb)
			var wa, wb bn254.G1Affine
			wa.ScalarMultiplication(&g1Aff, a)
			wb.ScalarMultiplication(&g1Aff, b)
			pa, err := Decode(BN254, gnarkG1Bytes(&wa))
			if err != nil {
				return false
			}
			pb, err := Decode(BN254, gnarkG1Bytes(&wb))
			if err != nil {
				return false
			}
			var want bn254.G1Affine
			want.ScalarMultiplication(&g1Aff, new(big.Int).Add(a, b))
			return bytes.Equal(Encode(BN254.Add(pa, pb)), gnarkG1Bytes(&want))
		},
		genScalar(), genScalar(),
	))

	properties.Property("doubling matches gnark-crypto", prop.ForAll(
		func(k []byte) bool {
			var base bn254.G1Affine
			base.ScalarMultiplication(&g1Aff, new(big.Int).SetBytes(k))
			p, err := Decode(BN254, gnarkG1Bytes(&base))
			if err != nil {
				return false
			}
			var want bn254.G1Affine
			want.ScalarMultiplication(&base, big.NewInt(2))
			return bytes.Equal(Encode(BN254.Double(p)), gnarkG1Bytes(&want))
		},
		genScalar(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestP256GroupLaw(t *testing.T) {
	g := P256.Generator()

	d := P256.Double(g)
	if d.Inf {
		t.Fatal("2G should not be the identity")
	}
	if !P256.IsOnCurve(bigmod.Nat(d.X[:]), bigmod.Nat(d.Y[:])) {
		t.Fatal("2G should be on the curve")
	}

	three := P256.Add(d, g)
	if !three.Equal(P256.ScalarMult(g, []byte{3})) {
		t.Fatal("2G + G != 3G")
	}

	if !P256.Add(g, P256.Neg(g)).Inf {
		t.Fatal("G + (-G) should be the identity")
	}
}

func TestP256OrderAnnihilates(t *testing.T) {
	g := P256.Generator()
	order := new(big.Int).SetBytes(mustHexBytes(t, p256OrderHex))

	if !P256.ScalarMult(g, scalarBytes(order)).Inf {
		t.Fatal("n*G should be the identity")
	}
	nm1 := P256.ScalarMult(g, scalarBytes(new(big.Int).Sub(order, big.NewInt(1))))
	if !nm1.Equal(P256.Neg(g)) {
		t.Fatal("(n-1)*G != -G")
	}
}

// TestP256MatchesStdlib checks scalar multiplication against crypto/elliptic
// on random scalars kept below the group order.
func TestP256MatchesStdlib(t *testing.T) {
	curve := elliptic.P256()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	properties := gopter.NewProperties(parameters)

	properties.Property("base mult matches crypto/elliptic", prop.ForAll(
		func(k []byte) bool {
			k[0] = 0
			x, y := curve.ScalarBaseMult(k)
			want := make([]byte, 64)
			x.FillBytes(want[:32])
			y.FillBytes(want[32:])
			return bytes.Equal(Encode(P256.ScalarBaseMult(k)), want)
		},
		genScalar(),
	))

	properties.Property("point mult matches crypto/elliptic", prop.ForAll(
		func(d, k []byte) bool {
			d[0], k[0] = 0, 0
			qx, qy := curve.ScalarBaseMult(d)
			enc := make([]byte, 64)
			qx.FillBytes(enc[:32])
			qy.FillBytes(enc[32:])
			q, err := Decode(P256, enc)
			if err != nil {
				return false
			}
			x, y := curve.ScalarMult(qx, qy, k)
			want := make([]byte, 64)
			x.FillBytes(want[:32])
			y.FillBytes(want[32:])
			return bytes.Equal(Encode(P256.ScalarMult(q, k)), want)
		},
		genScalar(), genScalar(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestGeneratorPanicsWithoutBasePoint(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for a curve without a base point")
		}
	}()
	BN254.Generator()
}
