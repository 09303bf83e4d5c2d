package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	goethkzg "github.com/crate-crypto/go-eth-kzg"

	"github.com/steleth/steleth/core/types"
)

// EIP-4844 point evaluation, backed by go-eth-kzg with the embedded Ethereum
// ceremony trusted setup.

const (
	kzgPointEvaluationInputLength = 192

	// blobPrecompileReturnValue is FIELD_ELEMENTS_PER_BLOB and BLS_MODULUS
	// as 32-byte big-endian values, the fixed success output of the
	// precompile.
	blobPrecompileReturnValue = "000000000000000000000000000000000000000000000000000000000000100073eda753299d7d483339d80809a1d80553bda402fffe5bfeffffffff00000001"
)

var (
	ErrKZGInputLength     = errors.New("kzg: invalid input length")
	ErrKZGVersionedHash   = errors.New("kzg: mismatched versioned hash")
	ErrKZGProofInvalid    = errors.New("kzg: proof verification failed")
	ErrKZGContextUnloaded = errors.New("kzg: trusted setup unavailable")
)

var kzgContext = sync.OnceValues(func() (*goethkzg.Context, error) {
	return goethkzg.NewContext4096Secure()
})

// KZGToVersionedHash implements kzg_to_versioned_hash from EIP-4844: the
// sha256 of the commitment with the first byte replaced by the version.
func KZGToVersionedHash(commitment [48]byte) types.Hash {
	h := sha256.Sum256(commitment[:])
	h[0] = types.VersionedHashVersionKZG
	return types.Hash(h)
}

// VerifyKZGProof checks that the committed polynomial evaluates to y at z.
func VerifyKZGProof(commitment [48]byte, z, y [32]byte, proof [48]byte) error {
	ctx, err := kzgContext()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKZGContextUnloaded, err)
	}
	err = ctx.VerifyKZGProof(
		goethkzg.KZGCommitment(commitment),
		goethkzg.Scalar(z), goethkzg.Scalar(y),
		goethkzg.KZGProof(proof))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrKZGProofInvalid, err)
	}
	return nil
}

// KZGPointEvaluation implements the full EIP-4844 precompile semantics. The
// input is versioned hash (32) || z (32) || y (32) || commitment (48) ||
// proof (48); on success the output is the fixed FIELD_ELEMENTS_PER_BLOB and
// BLS_MODULUS encoding.
func KZGPointEvaluation(input []byte) ([]byte, error) {
	if len(input) != kzgPointEvaluationInputLength {
		return nil, ErrKZGInputLength
	}
	var (
		versionedHash types.Hash
		z, y          [32]byte
		commitment    [48]byte
		proof         [48]byte
	)
	copy(versionedHash[:], input[:32])
	copy(z[:], input[32:64])
	copy(y[:], input[64:96])
	copy(commitment[:], input[96:144])
	copy(proof[:], input[144:192])

	if KZGToVersionedHash(commitment) != versionedHash {
		return nil, ErrKZGVersionedHash
	}
	if err := VerifyKZGProof(commitment, z, y, proof); err != nil {
		return nil, err
	}
	out, _ := hex.DecodeString(blobPrecompileReturnValue)
	return out, nil
}
