package ec

// P256 is secp256r1 (NIST P-256) with a = p − 3, carrying the group order
// and base point for ECDSA verification.
var P256 = &CurveParams{
	Name: "secp256r1",
	P:    mustNat256("ffffffff00000001000000000000000000000000ffffffffffffffffffffffff"),
	A:    mustNat256("ffffffff00000001000000000000000000000000fffffffffffffffffffffffc"),
	B:    mustNat256("5ac635d8aa3a93e7b3ebbd55769886bc651d06b0cc53b0f63bce3c3e27d2604b"),
	N:    mustNat256("ffffffff00000000ffffffffffffffffbce6faada7179e84f3b9cac2fc632551"),
	Gx:   mustNat256("6b17d1f2e12c4247f8bce6e563a440f277037d812deb33a0f4a13945d898c296"),
	Gy:   mustNat256("4fe342e2fe1a7f9b8ee7eb4a7c0f9e162bce33576b315ececbb6406837bf51f5"),
}
