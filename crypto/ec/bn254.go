package ec

import "github.com/steleth/steleth/crypto/bigmod"

// BN254 is the G1 group of the alt_bn128 pairing curve: y² = x³ + 3 over
// the 254-bit base field. The a = 0 shape lets the equation check and
// doubling skip the a term. Order and base point live in the pairing
// library; this side only needs the base field arithmetic.
var BN254 = &CurveParams{
	Name:    "bn254",
	P:       mustNat256("30644e72e131a029b85045b68181585d97816a916871ca8d3c208c16d87cfd47"),
	A:       bigmod.NewNat(coordWords),
	B:       mustNat256("0000000000000000000000000000000000000000000000000000000000000003"),
	AIsZero: true,
}
