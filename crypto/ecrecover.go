package crypto

// secp256k1 signing, verification and public key recovery, backing the
// ecrecover precompile and address derivation. The curve arithmetic comes
// from the decred secp256k1 package; signatures use the Ethereum 65-byte
// r‖s‖v compact layout with the recovery id v at the end.

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	secpecdsa "github.com/decred/dcrd/dcrec/secp256k1/v4/ecdsa"

	"github.com/steleth/steleth/core/types"
)

const (
	// DigestLength is the length of the message digest being signed.
	DigestLength = 32
	// SignatureLength is r(32) ‖ s(32) ‖ v(1).
	SignatureLength = 65
	// RecoveryIDOffset is the byte position of v within a signature.
	RecoveryIDOffset = 64
)

// secp256k1N is the order of the secp256k1 curve group.
var secp256k1N, _ = new(big.Int).SetString(
	"fffffffffffffffffffffffffffffffebaaedce6af48a03bbfd25e8cd0364141", 16)

// secp256k1halfN is N/2, the boundary of the low-s rule.
var secp256k1halfN = new(big.Int).Rsh(secp256k1N, 1)

var errInvalidSignatureLength = errors.New("secp256k1: invalid signature length")

// S256 returns an instance of the secp256k1 curve.
func S256() elliptic.Curve {
	return secp256k1.S256()
}

// GenerateKey generates a new secp256k1 private key.
func GenerateKey() (*ecdsa.PrivateKey, error) {
	return ecdsa.GenerateKey(S256(), rand.Reader)
}

// Sign signs the given 32-byte digest and returns a 65-byte r‖s‖v
// signature with the recovery id v in {0, 1}.
//
// The digest must be the output of a cryptographic hash; signing
// attacker-chosen non-hash data opens the key to chosen-plaintext attacks.
func Sign(digestHash []byte, prv *ecdsa.PrivateKey) ([]byte, error) {
	if len(digestHash) != DigestLength {
		return nil, fmt.Errorf("secp256k1: digest must be %d bytes, got %d", DigestLength, len(digestHash))
	}
	if prv.Curve != S256() {
		return nil, errors.New("secp256k1: private key curve is not secp256k1")
	}
	var priv secp256k1.PrivateKey
	if overflow := priv.Key.SetByteSlice(prv.D.Bytes()); overflow || priv.Key.IsZero() {
		return nil, errors.New("secp256k1: invalid private key")
	}
	defer priv.Zero()

	// SignCompact places the recovery id first; the Ethereum layout wants
	// it last, zero-based.
	sig := secpecdsa.SignCompact(&priv, digestHash, false)
	v := sig[0] - 27
	copy(sig, sig[1:])
	sig[RecoveryIDOffset] = v
	return sig, nil
}

// Ecrecover recovers the uncompressed 65-byte public key that produced the
// given signature over hash. sig is the 65-byte r‖s‖v layout.
func Ecrecover(hash, sig []byte) ([]byte, error) {
	pub, err := sigToPub(hash, sig)
	if err != nil {
		return nil, err
	}
	return pub.SerializeUncompressed(), nil
}

// SigToPub recovers the signing public key as an ecdsa.PublicKey.
func SigToPub(hash, sig []byte) (*ecdsa.PublicKey, error) {
	pub, err := sigToPub(hash, sig)
	if err != nil {
		return nil, err
	}
	return pub.ToECDSA(), nil
}

func sigToPub(hash, sig []byte) (*secp256k1.PublicKey, error) {
	if len(sig) != SignatureLength {
		return nil, errInvalidSignatureLength
	}
	// RecoverCompact wants the recovery id first, offset by 27.
	compact := make([]byte, SignatureLength)
	compact[0] = sig[RecoveryIDOffset] + 27
	copy(compact[1:], sig)

	pub, _, err := secpecdsa.RecoverCompact(compact, hash)
	return pub, err
}

// ValidateSignature reports whether the 64-byte r‖s signature over hash
// verifies against the given 33- or 65-byte public key. Signatures with
// s in the upper half of the group order are rejected as malleable.
func ValidateSignature(pubkey, hash, sig []byte) bool {
	if len(sig) != 64 {
		return false
	}
	var r, s secp256k1.ModNScalar
	if r.SetByteSlice(sig[:32]) {
		return false
	}
	if s.SetByteSlice(sig[32:]) {
		return false
	}
	if s.IsOverHalfOrder() {
		return false
	}
	key, err := secp256k1.ParsePubKey(pubkey)
	if err != nil {
		return false
	}
	return secpecdsa.NewSignature(&r, &s).Verify(hash, key)
}

// ValidateSignatureValues checks r, s, v for validity per Homestead rules.
// If homestead is true, s must be in the lower half of the curve order.
func ValidateSignatureValues(v byte, r, s *big.Int, homestead bool) bool {
	if r == nil || s == nil {
		return false
	}
	if v > 1 {
		return false
	}
	if r.Sign() <= 0 || s.Sign() <= 0 {
		return false
	}
	if r.Cmp(secp256k1N) >= 0 || s.Cmp(secp256k1N) >= 0 {
		return false
	}
	if homestead && s.Cmp(secp256k1halfN) > 0 {
		return false
	}
	return true
}

// PubkeyToAddress derives the Ethereum address from a public key.
// Address = Keccak256(pubkey[1:])[12:]
func PubkeyToAddress(p ecdsa.PublicKey) types.Address {
	pubBytes := FromECDSAPub(&p)
	if pubBytes == nil {
		return types.Address{}
	}
	hash := Keccak256(pubBytes[1:])
	return types.BytesToAddress(hash[12:])
}

// CompressPubkey compresses a public key to the 33-byte SEC format.
func CompressPubkey(pubkey *ecdsa.PublicKey) []byte {
	if pubkey == nil || pubkey.X == nil || pubkey.Y == nil {
		return nil
	}
	var x, y secp256k1.FieldVal
	x.SetByteSlice(pubkey.X.Bytes())
	y.SetByteSlice(pubkey.Y.Bytes())
	return secp256k1.NewPublicKey(&x, &y).SerializeCompressed()
}

// DecompressPubkey decompresses a 33-byte compressed public key.
func DecompressPubkey(pubkey []byte) (*ecdsa.PublicKey, error) {
	if len(pubkey) != 33 {
		return nil, errors.New("secp256k1: invalid compressed public key length")
	}
	key, err := secp256k1.ParsePubKey(pubkey)
	if err != nil {
		return nil, err
	}
	return key.ToECDSA(), nil
}

// FromECDSAPub marshals a public key to the 65-byte uncompressed format
// with the 0x04 prefix byte.
func FromECDSAPub(pub *ecdsa.PublicKey) []byte {
	if pub == nil || pub.X == nil || pub.Y == nil {
		return nil
	}
	out := make([]byte, 65)
	out[0] = 4
	pub.X.FillBytes(out[1:33])
	pub.Y.FillBytes(out[33:65])
	return out
}
