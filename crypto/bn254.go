package crypto

// BN254 precompile interface functions.
//
// These functions provide the EVM precompile interface for BN254 (alt_bn128)
// elliptic curve operations as defined in EIP-196 and EIP-197. G1 add and
// scalar mul run on the repository's own affine engine; the pairing check
// delegates to gnark-crypto, which carries the tower field arithmetic.

import (
	"errors"
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254"

	"github.com/steleth/steleth/crypto/ec"
)

var (
	errBN254InvalidPoint  = errors.New("bn254: invalid point")
	errBN254InvalidG2     = errors.New("bn254: invalid G2 point")
	errBN254InvalidLength = errors.New("bn254: invalid input length")
)

// bn254P is the BN254 base field prime, used for G2 coordinate range checks.
// The G1 range checks happen inside the ec decode gates.
var bn254P, _ = new(big.Int).SetString(
	"30644e72e131a029b85045b68181585d97816a916871ca8d3c208c16d87cfd47", 16)

// BN254Add performs G1 point addition (precompile 0x06, EIP-196).
// Each input is a 64-byte big-endian x‖y point with (0,0) the identity.
// Output: the 64-byte sum.
func BN254Add(p1, p2 []byte) ([]byte, error) {
	a, err := ec.Decode(ec.BN254, p1)
	if err != nil {
		return nil, errBN254InvalidPoint
	}
	b, err := ec.Decode(ec.BN254, p2)
	if err != nil {
		return nil, errBN254InvalidPoint
	}
	return ec.Encode(ec.BN254.Add(a, b)), nil
}

// BN254ScalarMul performs G1 scalar multiplication (precompile 0x07,
// EIP-196). The scalar is big-endian and may exceed the group order, in
// which case the result wraps around as the precompile allows.
// Output: the 64-byte product.
func BN254ScalarMul(point, scalar []byte) ([]byte, error) {
	p, err := ec.Decode(ec.BN254, point)
	if err != nil {
		return nil, errBN254InvalidPoint
	}
	return ec.Encode(ec.BN254.ScalarMult(p, scalar)), nil
}

// BN254PairingCheck evaluates whether the product of pairings over k
// (G1, G2) pairs is the identity (precompile 0x08, EIP-197).
// Input: k * 192 bytes, each chunk a 64-byte G1 point followed by a
// 128-byte G2 point with coordinates ordered x_imag‖x_real‖y_imag‖y_real.
// The empty product is the identity, so zero pairs check out as true.
func BN254PairingCheck(pairs []byte) (bool, error) {
	if len(pairs)%192 != 0 {
		return false, errBN254InvalidLength
	}
	k := len(pairs) / 192

	g1s := make([]bn254.G1Affine, 0, k)
	g2s := make([]bn254.G2Affine, 0, k)

	for i := 0; i < k; i++ {
		chunk := pairs[i*192 : (i+1)*192]

		// The G1 half goes through the same decode gates as the add
		// and mul precompiles.
		p, err := ec.Decode(ec.BN254, chunk[:64])
		if err != nil {
			return false, errBN254InvalidPoint
		}

		q, qInf, err := decodeBN254G2(chunk[64:])
		if err != nil {
			return false, err
		}

		// A pair with either side at infinity contributes the identity
		// to the product and drops out of the Miller loop.
		if p.Inf || qInf {
			continue
		}

		var g1 bn254.G1Affine
		g1.X.SetBigInt(new(big.Int).SetBytes(chunk[0:32]))
		g1.Y.SetBigInt(new(big.Int).SetBytes(chunk[32:64]))
		g1s = append(g1s, g1)
		g2s = append(g2s, q)
	}

	if len(g1s) == 0 {
		return true, nil
	}
	return bn254.PairingCheck(g1s, g2s)
}

// decodeBN254G2 parses a 128-byte G2 point in the precompile coordinate
// order x_imag(32) | x_real(32) | y_imag(32) | y_real(32). All four zero
// decodes as the identity (second return true).
func decodeBN254G2(b []byte) (bn254.G2Affine, bool, error) {
	var q bn254.G2Affine

	xImag := new(big.Int).SetBytes(b[0:32])
	xReal := new(big.Int).SetBytes(b[32:64])
	yImag := new(big.Int).SetBytes(b[64:96])
	yReal := new(big.Int).SetBytes(b[96:128])

	// Validate field elements.
	if xImag.Cmp(bn254P) >= 0 || xReal.Cmp(bn254P) >= 0 ||
		yImag.Cmp(bn254P) >= 0 || yReal.Cmp(bn254P) >= 0 {
		return q, false, errBN254InvalidG2
	}

	if xImag.Sign() == 0 && xReal.Sign() == 0 &&
		yImag.Sign() == 0 && yReal.Sign() == 0 {
		return q, true, nil
	}

	q.X.A1.SetBigInt(xImag)
	q.X.A0.SetBigInt(xReal)
	q.Y.A1.SetBigInt(yImag)
	q.Y.A0.SetBigInt(yReal)

	// EIP-197 requires G2 inputs on the twist and in the order-n subgroup;
	// the G2 cofactor is nontrivial so on-curve alone is not enough.
	if !q.IsOnCurve() || !q.IsInSubGroup() {
		return q, false, errBN254InvalidG2
	}
	return q, false, nil
}
