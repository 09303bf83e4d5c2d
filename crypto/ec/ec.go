// Package ec implements short-Weierstrass elliptic curve arithmetic in
// affine coordinates over the bigmod arithmetic backend, covering the two
// curves the precompile surface needs: BN254 G1 and secp256r1 (P-256).
//
// Points travel as 64-byte big-endian x‖y encodings with (0,0) reserved for
// the identity. Decoding is a hard gate: coordinates must lie below the
// field prime and non-identity points must satisfy the curve equation.
// All arithmetic runs through bigmod, so the zkvm build accelerates these
// operations with no change here.
package ec

import (
	"encoding/hex"
	"errors"

	"github.com/steleth/steleth/crypto/bigmod"
)

// Decode failures. These are expected, attacker-controllable conditions at
// precompile entry points and are never panics.
var (
	ErrPointLength     = errors.New("ec: invalid point encoding length")
	ErrCoordinateRange = errors.New("ec: coordinate not below field prime")
	ErrPointNotOnCurve = errors.New("ec: point not on curve")
)

const (
	coordWords = bigmod.Words256
	coordBytes = 4 * coordWords
	pointBytes = 2 * coordBytes
)

// CurveParams holds the constants of one short-Weierstrass curve
// y² = x³ + ax + b over a 256-bit prime field. Order and base point are set
// only for curves used for signature verification.
type CurveParams struct {
	Name string

	P bigmod.Nat // field prime
	A bigmod.Nat // curve coefficient a
	B bigmod.Nat // curve coefficient b

	// AIsZero records a = 0, which lets the curve-equation check and the
	// doubling formula skip the a term.
	AIsZero bool

	N      bigmod.Nat // group order, nil if unused
	Gx, Gy bigmod.Nat // base point, nil if unused
}

// Point is an affine curve point. The zero value is NOT valid; identity
// points carry Inf = true and zero coordinates.
type Point struct {
	X, Y [coordWords]uint32
	Inf  bool
}

// Identity returns the group identity (point at infinity).
func Identity() Point {
	return Point{Inf: true}
}

// Generator returns the curve base point. It panics if the curve carries no
// base point.
func (c *CurveParams) Generator() Point {
	if c.Gx == nil {
		panic("ec: curve has no base point")
	}
	return pointFromNats(c.Gx, c.Gy)
}

// Decode parses a 64-byte big-endian x‖y encoding. The all-zero encoding is
// the identity. Everything else must have both coordinates below the field
// prime and satisfy the curve equation.
func Decode(c *CurveParams, b []byte) (Point, error) {
	if len(b) != pointBytes {
		return Point{}, ErrPointLength
	}
	if allZero(b) {
		return Identity(), nil
	}
	x := bigmod.NatFromBytes(coordWords, b[:coordBytes])
	y := bigmod.NatFromBytes(coordWords, b[coordBytes:])
	if !x.Less(c.P) || !y.Less(c.P) {
		return Point{}, ErrCoordinateRange
	}
	if !c.IsOnCurve(x, y) {
		return Point{}, ErrPointNotOnCurve
	}
	return pointFromNats(x, y), nil
}

// Encode returns the 64-byte big-endian x‖y encoding of p; the identity
// encodes as 64 zero bytes.
func Encode(p Point) []byte {
	out := make([]byte, pointBytes)
	if p.Inf {
		return out
	}
	copy(out[:coordBytes], bigmod.Nat(p.X[:]).Bytes(coordBytes))
	copy(out[coordBytes:], bigmod.Nat(p.Y[:]).Bytes(coordBytes))
	return out
}

// IsOnCurve reports whether (x, y) satisfies y² = x³ + ax + b. Coordinates
// must already be canonical. Intermediates run unchecked; only the two
// values compared for equality go through a final checked operation, since
// equality needs canonical representatives.
func (c *CurveParams) IsOnCurve(x, y bigmod.Nat) bool {
	t := bigmod.NewNat(coordWords)
	bigmod.ModMulUnchecked(t, x, x, c.P) // x²
	if c.AIsZero {
		bigmod.ModMulUnchecked(t, t, x, c.P) // x³
	} else {
		bigmod.ModAddUnchecked(t, t, c.A, c.P) // x² + a
		bigmod.ModMulUnchecked(t, t, x, c.P)   // (x² + a)·x
	}
	rhs := bigmod.NewNat(coordWords)
	bigmod.ModAdd(rhs, t, c.B, c.P) // + b, checked

	lhs := bigmod.NewNat(coordWords)
	bigmod.ModMul(lhs, y, y, c.P) // y², checked

	return lhs.Equal(rhs)
}

// Add returns p + q under the group law. Either operand may be the
// identity; additive inverses return the identity; p == q doubles.
func (c *CurveParams) Add(p, q Point) Point {
	if p.Inf {
		return q
	}
	if q.Inf {
		return p
	}
	x1, y1 := bigmod.Nat(p.X[:]), bigmod.Nat(p.Y[:])
	x2, y2 := bigmod.Nat(q.X[:]), bigmod.Nat(q.Y[:])

	if x1.Equal(x2) {
		if y1.Equal(y2) {
			return c.Double(p)
		}
		// Same x, different y: the points are negations of each other.
		return Identity()
	}

	// λ = (y2 − y1) / (x2 − x1)
	num := bigmod.NewNat(coordWords)
	bigmod.ModSub(num, y2, y1, c.P)
	den := bigmod.NewNat(coordWords)
	bigmod.ModSub(den, x2, x1, c.P)
	bigmod.ModInv(den, den, c.P)
	lambda := bigmod.NewNat(coordWords)
	bigmod.ModMul(lambda, num, den, c.P)

	return c.chord(lambda, x1, y1, x2)
}

// Double returns 2p. The identity and points with y = 0 double to the
// identity.
func (c *CurveParams) Double(p Point) Point {
	if p.Inf {
		return p
	}
	x, y := bigmod.Nat(p.X[:]), bigmod.Nat(p.Y[:])
	if y.IsZero() {
		return Identity()
	}

	// λ = (3x² + a) / 2y
	t := bigmod.NewNat(coordWords)
	bigmod.ModMul(t, x, x, c.P) // x²
	num := bigmod.NewNat(coordWords)
	bigmod.ModAdd(num, t, t, c.P)   // 2x²
	bigmod.ModAdd(num, num, t, c.P) // 3x²
	if !c.AIsZero {
		bigmod.ModAdd(num, num, c.A, c.P)
	}
	den := bigmod.NewNat(coordWords)
	bigmod.ModAdd(den, y, y, c.P) // 2y
	bigmod.ModInv(den, den, c.P)
	lambda := bigmod.NewNat(coordWords)
	bigmod.ModMul(lambda, num, den, c.P)

	return c.chord(lambda, x, y, x)
}

// chord completes an addition or doubling given the slope λ:
// x3 = λ² − x1 − x2, y3 = λ(x1 − x3) − y1.
func (c *CurveParams) chord(lambda, x1, y1, x2 bigmod.Nat) Point {
	x3 := bigmod.NewNat(coordWords)
	bigmod.ModMul(x3, lambda, lambda, c.P)
	bigmod.ModSub(x3, x3, x1, c.P)
	bigmod.ModSub(x3, x3, x2, c.P)

	y3 := bigmod.NewNat(coordWords)
	bigmod.ModSub(y3, x1, x3, c.P)
	bigmod.ModMul(y3, lambda, y3, c.P)
	bigmod.ModSub(y3, y3, y1, c.P)

	return pointFromNats(x3, y3)
}

// ScalarMult returns k·p for a big-endian scalar of any length. A zero
// scalar or identity p yields the identity. The scalar is public data on
// every call path, so the early exit on leading zero bits leaks nothing
// that matters.
func (c *CurveParams) ScalarMult(p Point, k []byte) Point {
	r := Identity()
	for i := bigmod.BytesBitLen(k) - 1; i >= 0; i-- {
		r = c.Double(r)
		if bigmod.BytesBit(k, i) {
			r = c.Add(r, p)
		}
	}
	return r
}

// ScalarBaseMult returns k·G. It panics if the curve carries no base point.
func (c *CurveParams) ScalarBaseMult(k []byte) Point {
	return c.ScalarMult(c.Generator(), k)
}

// Neg returns −p, the point with the same x and negated y.
func (c *CurveParams) Neg(p Point) Point {
	if p.Inf {
		return p
	}
	y := bigmod.NewNat(coordWords)
	bigmod.ModSub(y, bigmod.NewNat(coordWords), bigmod.Nat(p.Y[:]), c.P)
	return pointFromNats(bigmod.Nat(p.X[:]), y)
}

// Equal reports whether p and q are the same group element.
func (p Point) Equal(q Point) bool {
	if p.Inf || q.Inf {
		return p.Inf == q.Inf
	}
	return p.X == q.X && p.Y == q.Y
}

func pointFromNats(x, y bigmod.Nat) Point {
	var p Point
	copy(p.X[:], x)
	copy(p.Y[:], y)
	return p
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

// mustNat256 parses a 64-digit hex constant at package initialization. It
// exists so curve constants are built by ordinary, checked decoding.
func mustNat256(s string) bigmod.Nat {
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		panic("ec: bad curve constant")
	}
	return bigmod.NatFromBytes(coordWords, b)
}
