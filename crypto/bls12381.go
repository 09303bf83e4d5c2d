package crypto

// BLS12-381 precompile interface functions.
//
// These functions provide the EVM precompile interface for BLS12-381
// curve operations as defined in EIP-2537, backed by gnark-crypto. Points
// use the padded affine encoding: every base field element is 64 bytes,
// 16 zero bytes followed by the 48-byte big-endian value, and the all-zero
// encoding is the point at infinity.

import (
	"errors"

	"github.com/consensys/gnark-crypto/ecc"
	bls12381 "github.com/consensys/gnark-crypto/ecc/bls12-381"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fp"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

var (
	errBLS12InvalidLength = errors.New("bls12-381: invalid input length")
	errBLS12InvalidField  = errors.New("bls12-381: invalid field element")
	errBLS12NotOnCurve    = errors.New("bls12-381: point not on curve")
	errBLS12NotInSubgroup = errors.New("bls12-381: point not in subgroup")
)

// BLS12-381 precompile encoding sizes.
const (
	blsFpEncSize  = 64  // field element padded to 64 bytes
	blsG1EncSize  = 128 // G1 point: 2 * 64 bytes
	blsG2EncSize  = 256 // G2 point: 2 * 128-byte Fp2 elements
	blsScalarSize = 32  // Fr scalar
)

// decodeBLSFp reads a 64-byte padded field element. The top 16 bytes must
// be zero and the value must be below the field prime.
func decodeBLSFp(data []byte) (fp.Element, error) {
	if len(data) != blsFpEncSize {
		return fp.Element{}, errBLS12InvalidField
	}
	for i := 0; i < 16; i++ {
		if data[i] != 0 {
			return fp.Element{}, errBLS12InvalidField
		}
	}
	var raw [48]byte
	copy(raw[:], data[16:])
	fe, err := fp.BigEndian.Element(&raw)
	if err != nil {
		return fp.Element{}, errBLS12InvalidField
	}
	return fe, nil
}

// decodeBLSG1 reads a 128-byte G1 point. All zeros decodes as the point at
// infinity; anything else must satisfy the curve equation. Subgroup
// membership is the caller's concern: addition skips it per EIP-2537.
func decodeBLSG1(data []byte) (bls12381.G1Affine, error) {
	var p bls12381.G1Affine
	if len(data) != blsG1EncSize {
		return p, errBLS12InvalidLength
	}
	x, err := decodeBLSFp(data[:blsFpEncSize])
	if err != nil {
		return p, err
	}
	y, err := decodeBLSFp(data[blsFpEncSize:])
	if err != nil {
		return p, err
	}
	p.X, p.Y = x, y
	if !p.IsInfinity() && !p.IsOnCurve() {
		return p, errBLS12NotOnCurve
	}
	return p, nil
}

// encodeBLSG1 writes a G1 point as 128 bytes; infinity encodes as zeros.
func encodeBLSG1(p *bls12381.G1Affine) []byte {
	out := make([]byte, blsG1EncSize)
	if p.IsInfinity() {
		return out
	}
	x := p.X.Bytes()
	copy(out[16:blsFpEncSize], x[:])
	y := p.Y.Bytes()
	copy(out[blsFpEncSize+16:], y[:])
	return out
}

// decodeBLSG2 reads a 256-byte G2 point. Each Fp2 coordinate encodes its
// real part (c0) first, then the imaginary part (c1).
func decodeBLSG2(data []byte) (bls12381.G2Affine, error) {
	var p bls12381.G2Affine
	if len(data) != blsG2EncSize {
		return p, errBLS12InvalidLength
	}
	var err error
	if p.X.A0, err = decodeBLSFp(data[0:64]); err != nil {
		return p, err
	}
	if p.X.A1, err = decodeBLSFp(data[64:128]); err != nil {
		return p, err
	}
	if p.Y.A0, err = decodeBLSFp(data[128:192]); err != nil {
		return p, err
	}
	if p.Y.A1, err = decodeBLSFp(data[192:256]); err != nil {
		return p, err
	}
	if !p.IsInfinity() && !p.IsOnCurve() {
		return p, errBLS12NotOnCurve
	}
	return p, nil
}

// encodeBLSG2 writes a G2 point as 256 bytes; infinity encodes as zeros.
func encodeBLSG2(p *bls12381.G2Affine) []byte {
	out := make([]byte, blsG2EncSize)
	if p.IsInfinity() {
		return out
	}
	xa := p.X.A0.Bytes()
	copy(out[16:64], xa[:])
	xb := p.X.A1.Bytes()
	copy(out[80:128], xb[:])
	ya := p.Y.A0.Bytes()
	copy(out[144:192], ya[:])
	yb := p.Y.A1.Bytes()
	copy(out[208:256], yb[:])
	return out
}

// BLS12G1Add adds two G1 points (precompile 0x0b).
// Input: 256 bytes, two encoded G1 points. EIP-2537 waives the subgroup
// check for addition; on-curve is sufficient.
func BLS12G1Add(input []byte) ([]byte, error) {
	if len(input) != 2*blsG1EncSize {
		return nil, errBLS12InvalidLength
	}
	p0, err := decodeBLSG1(input[:blsG1EncSize])
	if err != nil {
		return nil, err
	}
	p1, err := decodeBLSG1(input[blsG1EncSize:])
	if err != nil {
		return nil, err
	}
	var r bls12381.G1Affine
	r.Add(&p0, &p1)
	return encodeBLSG1(&r), nil
}

// BLS12G1MSM computes a G1 multi-scalar multiplication (precompile 0x0c).
// Input: k * 160 bytes, each pair an encoded G1 point and a 32-byte
// big-endian scalar (reduced modulo the group order). Every point must be
// in the order-r subgroup.
func BLS12G1MSM(input []byte) ([]byte, error) {
	const pairSize = blsG1EncSize + blsScalarSize
	if len(input) == 0 || len(input)%pairSize != 0 {
		return nil, errBLS12InvalidLength
	}
	k := len(input) / pairSize

	points := make([]bls12381.G1Affine, k)
	scalars := make([]fr.Element, k)
	for i := 0; i < k; i++ {
		off := i * pairSize
		p, err := decodeBLSG1(input[off : off+blsG1EncSize])
		if err != nil {
			return nil, err
		}
		if !p.IsInSubGroup() {
			return nil, errBLS12NotInSubgroup
		}
		points[i] = p
		scalars[i].SetBytes(input[off+blsG1EncSize : off+pairSize])
	}

	var r bls12381.G1Affine
	if _, err := r.MultiExp(points, scalars, ecc.MultiExpConfig{}); err != nil {
		return nil, err
	}
	return encodeBLSG1(&r), nil
}

// BLS12G2Add adds two G2 points (precompile 0x0d).
// Input: 512 bytes, two encoded G2 points. No subgroup check, as for G1.
func BLS12G2Add(input []byte) ([]byte, error) {
	if len(input) != 2*blsG2EncSize {
		return nil, errBLS12InvalidLength
	}
	p0, err := decodeBLSG2(input[:blsG2EncSize])
	if err != nil {
		return nil, err
	}
	p1, err := decodeBLSG2(input[blsG2EncSize:])
	if err != nil {
		return nil, err
	}
	var r bls12381.G2Affine
	r.Add(&p0, &p1)
	return encodeBLSG2(&r), nil
}

// BLS12G2MSM computes a G2 multi-scalar multiplication (precompile 0x0e).
// Input: k * 288 bytes of (point, scalar) pairs, every point in the
// order-r subgroup.
func BLS12G2MSM(input []byte) ([]byte, error) {
	const pairSize = blsG2EncSize + blsScalarSize
	if len(input) == 0 || len(input)%pairSize != 0 {
		return nil, errBLS12InvalidLength
	}
	k := len(input) / pairSize

	points := make([]bls12381.G2Affine, k)
	scalars := make([]fr.Element, k)
	for i := 0; i < k; i++ {
		off := i * pairSize
		p, err := decodeBLSG2(input[off : off+blsG2EncSize])
		if err != nil {
			return nil, err
		}
		if !p.IsInSubGroup() {
			return nil, errBLS12NotInSubgroup
		}
		points[i] = p
		scalars[i].SetBytes(input[off+blsG2EncSize : off+pairSize])
	}

	var r bls12381.G2Affine
	if _, err := r.MultiExp(points, scalars, ecc.MultiExpConfig{}); err != nil {
		return nil, err
	}
	return encodeBLSG2(&r), nil
}

// BLS12PairingCheck evaluates whether the product of pairings over k
// (G1, G2) pairs is the identity (precompile 0x0f). Input: k * 384 bytes.
// Both points of every pair must pass the subgroup check; pairs with
// either side at infinity drop out of the product.
func BLS12PairingCheck(input []byte) (bool, error) {
	const pairSize = blsG1EncSize + blsG2EncSize
	if len(input) == 0 || len(input)%pairSize != 0 {
		return false, errBLS12InvalidLength
	}
	k := len(input) / pairSize

	g1s := make([]bls12381.G1Affine, 0, k)
	g2s := make([]bls12381.G2Affine, 0, k)
	for i := 0; i < k; i++ {
		off := i * pairSize
		p, err := decodeBLSG1(input[off : off+blsG1EncSize])
		if err != nil {
			return false, err
		}
		q, err := decodeBLSG2(input[off+blsG1EncSize : off+pairSize])
		if err != nil {
			return false, err
		}
		if !p.IsInSubGroup() {
			return false, errBLS12NotInSubgroup
		}
		if !q.IsInSubGroup() {
			return false, errBLS12NotInSubgroup
		}
		if p.IsInfinity() || q.IsInfinity() {
			continue
		}
		g1s = append(g1s, p)
		g2s = append(g2s, q)
	}

	if len(g1s) == 0 {
		return true, nil
	}
	return bls12381.PairingCheck(g1s, g2s)
}

// BLS12MapFpToG1 maps a field element to a G1 point (precompile 0x10)
// using the SSWU map with cofactor clearing, so the result is always in
// the subgroup. Input: one 64-byte padded field element.
func BLS12MapFpToG1(input []byte) ([]byte, error) {
	fe, err := decodeBLSFp(input)
	if err != nil {
		return nil, err
	}
	p := bls12381.MapToG1(fe)
	return encodeBLSG1(&p), nil
}

// BLS12MapFp2ToG2 maps an Fp2 element to a G2 point (precompile 0x11).
// Input: one 128-byte Fp2 element, real part first.
func BLS12MapFp2ToG2(input []byte) ([]byte, error) {
	if len(input) != 2*blsFpEncSize {
		return nil, errBLS12InvalidLength
	}
	c0, err := decodeBLSFp(input[:blsFpEncSize])
	if err != nil {
		return nil, err
	}
	c1, err := decodeBLSFp(input[blsFpEncSize:])
	if err != nil {
		return nil, err
	}
	p := bls12381.MapToG2(bls12381.E2{A0: c0, A1: c1})
	return encodeBLSG2(&p), nil
}
