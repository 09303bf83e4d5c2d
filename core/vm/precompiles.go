package vm

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"math"
	"math/big"

	"golang.org/x/crypto/ripemd160"

	"github.com/steleth/steleth/core/types"
	"github.com/steleth/steleth/crypto"
)

// PrecompiledContract is the interface for native precompiled contracts.
type PrecompiledContract interface {
	RequiredGas(input []byte) uint64
	Run(input []byte) ([]byte, error)
}

var (
	ErrOutOfGas       = errors.New("vm: out of gas")
	ErrNotPrecompile  = errors.New("vm: not a precompiled contract")
	errModexpOverflow = errors.New("vm: modexp length overflow")
)

// PrecompiledContractsCancun returns the Cancun precompile set bound to the
// given crypto provider.
func PrecompiledContractsCancun(p *crypto.Provider) map[types.Address]PrecompiledContract {
	return map[types.Address]PrecompiledContract{
		types.BytesToAddress([]byte{1}):    &ecrecover{p: p},
		types.BytesToAddress([]byte{2}):    &sha256hash{},
		types.BytesToAddress([]byte{3}):    &ripemd160hash{},
		types.BytesToAddress([]byte{4}):    &dataCopy{},
		types.BytesToAddress([]byte{5}):    &bigModExp{p: p},
		types.BytesToAddress([]byte{6}):    &bn256Add{p: p},
		types.BytesToAddress([]byte{7}):    &bn256ScalarMul{p: p},
		types.BytesToAddress([]byte{8}):    &bn256Pairing{p: p},
		types.BytesToAddress([]byte{9}):    &blake2F{},
		types.BytesToAddress([]byte{0x0a}): &kzgPointEvaluation{p: p},
	}
}

// PrecompiledContractsPrague adds the EIP-2537 BLS12-381 suite at
// 0x0b through 0x11.
func PrecompiledContractsPrague(p *crypto.Provider) map[types.Address]PrecompiledContract {
	contracts := PrecompiledContractsCancun(p)
	contracts[types.BytesToAddress([]byte{0x0b})] = &bls12G1Add{p: p}
	contracts[types.BytesToAddress([]byte{0x0c})] = &bls12G1MSM{p: p}
	contracts[types.BytesToAddress([]byte{0x0d})] = &bls12G2Add{p: p}
	contracts[types.BytesToAddress([]byte{0x0e})] = &bls12G2MSM{p: p}
	contracts[types.BytesToAddress([]byte{0x0f})] = &bls12Pairing{p: p}
	contracts[types.BytesToAddress([]byte{0x10})] = &bls12MapFpToG1{p: p}
	contracts[types.BytesToAddress([]byte{0x11})] = &bls12MapFp2ToG2{p: p}
	return contracts
}

// PrecompiledContractsOsaka adds the EIP-7951 secp256r1 signature
// verification at 0x100.
func PrecompiledContractsOsaka(p *crypto.Provider) map[types.Address]PrecompiledContract {
	contracts := PrecompiledContractsPrague(p)
	contracts[types.BytesToAddress([]byte{1, 0})] = &p256Verify{p: p}
	return contracts
}

// activePrecompiles is the default dispatch set, bound to the installed
// provider. Callers that need a different provider or fork build their own
// map with the constructors above.
var activePrecompiles = PrecompiledContractsOsaka(crypto.Installed())

// IsPrecompiledContract checks if the given address is a precompiled contract
// in the default set.
func IsPrecompiledContract(addr types.Address) bool {
	_, ok := activePrecompiles[addr]
	return ok
}

// RunPrecompiledContract executes a precompiled contract from the default set
// and returns the output, remaining gas, and any error.
func RunPrecompiledContract(addr types.Address, input []byte, gas uint64) ([]byte, uint64, error) {
	p, ok := activePrecompiles[addr]
	if !ok {
		return nil, gas, ErrNotPrecompile
	}
	gasCost := p.RequiredGas(input)
	if gas < gasCost {
		return nil, 0, ErrOutOfGas
	}
	output, err := p.Run(input)
	return output, gas - gasCost, err
}

// --- ecrecover (address 0x01) ---

type ecrecover struct {
	p *crypto.Provider
}

func (c *ecrecover) RequiredGas(input []byte) uint64 {
	return 3000
}

func (c *ecrecover) Run(input []byte) ([]byte, error) {
	input = padRight(input, 128)

	hash := input[0:32]
	v := new(big.Int).SetBytes(input[32:64])
	r := new(big.Int).SetBytes(input[64:96])
	s := new(big.Int).SetBytes(input[96:128])

	// v must be 27 or 28. Any malformed signature recovers to empty output,
	// never an error.
	if v.BitLen() > 8 {
		return nil, nil
	}
	vByte := byte(v.Uint64())
	if vByte != 27 && vByte != 28 {
		return nil, nil
	}
	if !crypto.ValidateSignatureValues(vByte-27, r, s, true) {
		return nil, nil
	}

	sig := make([]byte, 65)
	rBytes := r.Bytes()
	sBytes := s.Bytes()
	copy(sig[32-len(rBytes):32], rBytes)
	copy(sig[64-len(sBytes):64], sBytes)
	sig[64] = vByte - 27

	pub, err := c.p.Ecrecover(hash, sig)
	if err != nil {
		return nil, nil
	}

	// Address is the last 20 bytes of Keccak256(pubkey[1:]).
	addr := c.p.Keccak256(pub[1:])
	result := make([]byte, 32)
	copy(result[12:], addr[12:])
	return result, nil
}

// --- sha256hash (address 0x02) ---

type sha256hash struct{}

func (c *sha256hash) RequiredGas(input []byte) uint64 {
	return 60 + 12*wordCount(len(input))
}

func (c *sha256hash) Run(input []byte) ([]byte, error) {
	h := sha256.Sum256(input)
	return h[:], nil
}

// --- ripemd160hash (address 0x03) ---

type ripemd160hash struct{}

func (c *ripemd160hash) RequiredGas(input []byte) uint64 {
	return 600 + 120*wordCount(len(input))
}

func (c *ripemd160hash) Run(input []byte) ([]byte, error) {
	h := ripemd160.New()
	h.Write(input)
	digest := h.Sum(nil) // 20 bytes

	result := make([]byte, 32)
	copy(result[12:], digest)
	return result, nil
}

// --- dataCopy (address 0x04) ---

type dataCopy struct{}

func (c *dataCopy) RequiredGas(input []byte) uint64 {
	return 15 + 3*wordCount(len(input))
}

func (c *dataCopy) Run(input []byte) ([]byte, error) {
	out := make([]byte, len(input))
	copy(out, input)
	return out, nil
}

// --- bigModExp (address 0x05) ---

type bigModExp struct {
	p *crypto.Provider
}

// RequiredGas implements the EIP-2565 cost function:
// max(200, ceil(max(baseLen, modLen)/8)^2 * iterations / 3).
//
// The header length fields are unbounded 256-bit integers, so the cost is
// computed in big.Int and saturates at MaxUint64 rather than wrapping; Run
// separately rejects lengths above 32 bits.
func (c *bigModExp) RequiredGas(input []byte) uint64 {
	input = padRight(input, 96)

	baseLen := new(big.Int).SetBytes(input[0:32])
	expLen := new(big.Int).SetBytes(input[32:64])
	modLen := new(big.Int).SetBytes(input[64:96])

	adjExpLen := adjustedExpLen(expLen, baseLen, input[96:])

	maxLen := new(big.Int).Set(baseLen)
	if modLen.Cmp(maxLen) > 0 {
		maxLen.Set(modLen)
	}
	words := new(big.Int).Add(maxLen, big.NewInt(7))
	words.Rsh(words, 3)

	gas := new(big.Int).Mul(words, words)
	if adjExpLen.Cmp(big.NewInt(1)) > 0 {
		gas.Mul(gas, adjExpLen)
	}
	gas.Div(gas, big.NewInt(3))

	if gas.BitLen() > 64 {
		return math.MaxUint64
	}
	if gas.Uint64() < 200 {
		return 200
	}
	return gas.Uint64()
}

func (c *bigModExp) Run(input []byte) ([]byte, error) {
	input = padRight(input, 96)

	baseLen := new(big.Int).SetBytes(input[0:32])
	expLen := new(big.Int).SetBytes(input[32:64])
	modLen := new(big.Int).SetBytes(input[64:96])

	if baseLen.BitLen() > 32 || expLen.BitLen() > 32 || modLen.BitLen() > 32 {
		return nil, errModexpOverflow
	}
	bLen := baseLen.Uint64()
	eLen := expLen.Uint64()
	mLen := modLen.Uint64()

	data := input[96:]
	base := getDataSlice(data, 0, bLen)
	exp := getDataSlice(data, bLen, eLen)
	mod := getDataSlice(data, bLen+eLen, mLen)

	// The provider returns an empty result for a zero modulus; the
	// precompile output is still modLen bytes.
	out := c.p.Modexp(base, exp, mod)
	if uint64(len(out)) < mLen {
		padded := make([]byte, mLen)
		copy(padded[mLen-uint64(len(out)):], out)
		return padded, nil
	}
	return out[:mLen], nil
}

// --- bn256Add (address 0x06) - EIP-196 ---

type bn256Add struct {
	p *crypto.Provider
}

func (c *bn256Add) RequiredGas(input []byte) uint64 {
	return 150 // EIP-1108
}

func (c *bn256Add) Run(input []byte) ([]byte, error) {
	input = padRight(input, 128)
	return c.p.Bn254G1Add(input[:64], input[64:128])
}

// --- bn256ScalarMul (address 0x07) - EIP-196 ---

type bn256ScalarMul struct {
	p *crypto.Provider
}

func (c *bn256ScalarMul) RequiredGas(input []byte) uint64 {
	return 6000 // EIP-1108
}

func (c *bn256ScalarMul) Run(input []byte) ([]byte, error) {
	input = padRight(input, 96)
	return c.p.Bn254G1Mul(input[:64], input[64:96])
}

// --- bn256Pairing (address 0x08) - EIP-197 ---

type bn256Pairing struct {
	p *crypto.Provider
}

func (c *bn256Pairing) RequiredGas(input []byte) uint64 {
	// EIP-1108: 45000 + 34000 per 192-byte pair.
	k := uint64(len(input)) / 192
	return 45000 + 34000*k
}

func (c *bn256Pairing) Run(input []byte) ([]byte, error) {
	ok, err := c.p.Bn254PairingCheck(input)
	if err != nil {
		return nil, err
	}
	result := make([]byte, 32)
	if ok {
		result[31] = 1
	}
	return result, nil
}

// --- blake2F (address 0x09) - EIP-152 ---

type blake2F struct{}

func (c *blake2F) RequiredGas(input []byte) uint64 {
	// Gas cost = rounds (first 4 bytes of input, big-endian uint32).
	if len(input) < 4 {
		return 0
	}
	return uint64(binary.BigEndian.Uint32(input[:4]))
}

func (c *blake2F) Run(input []byte) ([]byte, error) {
	// Input: [4 bytes rounds][64 bytes h][128 bytes m][8 bytes t0][8 bytes t1][1 byte f]
	if len(input) != 213 {
		return nil, errors.New("blake2f: invalid input length (expected 213 bytes)")
	}

	rounds := binary.BigEndian.Uint32(input[:4])

	finalByte := input[212]
	if finalByte != 0 && finalByte != 1 {
		return nil, errors.New("blake2f: invalid final block indicator")
	}
	final := finalByte == 1

	var h [8]uint64
	for i := 0; i < 8; i++ {
		h[i] = binary.LittleEndian.Uint64(input[4+i*8 : 4+(i+1)*8])
	}
	var m [16]uint64
	for i := 0; i < 16; i++ {
		m[i] = binary.LittleEndian.Uint64(input[68+i*8 : 68+(i+1)*8])
	}
	t0 := binary.LittleEndian.Uint64(input[196:204])
	t1 := binary.LittleEndian.Uint64(input[204:212])

	blake2bF(&h, m, [2]uint64{t0, t1}, final, rounds)

	result := make([]byte, 64)
	for i := 0; i < 8; i++ {
		binary.LittleEndian.PutUint64(result[i*8:(i+1)*8], h[i])
	}
	return result, nil
}

// blake2bF is the BLAKE2b compression function F.
// It modifies h in-place after `rounds` rounds of mixing.
func blake2bF(h *[8]uint64, m [16]uint64, t [2]uint64, final bool, rounds uint32) {
	// BLAKE2b IV.
	var iv = [8]uint64{
		0x6a09e667f3bcc908, 0xbb67ae8584caa73b,
		0x3c6ef372fe94f82b, 0xa54ff53a5f1d36f1,
		0x510e527fade682d1, 0x9b05688c2b3e6c1f,
		0x1f83d9abfb41bd6b, 0x5be0cd19137e2179,
	}

	// Sigma permutation table for BLAKE2b.
	var sigma = [12][16]byte{
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
		{14, 10, 4, 8, 9, 15, 13, 6, 1, 12, 0, 2, 11, 7, 5, 3},
		{11, 8, 12, 0, 5, 2, 15, 13, 10, 14, 3, 6, 7, 1, 9, 4},
		{7, 9, 3, 1, 13, 12, 11, 14, 2, 6, 5, 10, 4, 0, 15, 8},
		{9, 0, 5, 7, 2, 4, 10, 15, 14, 1, 11, 12, 6, 8, 3, 13},
		{2, 12, 6, 10, 0, 11, 8, 3, 4, 13, 7, 5, 15, 14, 1, 9},
		{12, 5, 1, 15, 14, 13, 4, 10, 0, 7, 6, 3, 9, 2, 8, 11},
		{13, 11, 7, 14, 12, 1, 3, 9, 5, 0, 15, 4, 8, 6, 2, 10},
		{6, 15, 14, 9, 11, 3, 0, 8, 12, 2, 13, 7, 1, 4, 10, 5},
		{10, 2, 8, 4, 7, 6, 1, 5, 15, 11, 9, 14, 3, 12, 13, 0},
		{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
		{14, 10, 4, 8, 9, 15, 13, 6, 1, 12, 0, 2, 11, 7, 5, 3},
	}

	var v [16]uint64
	copy(v[:8], h[:])
	copy(v[8:], iv[:])
	v[12] ^= t[0]
	v[13] ^= t[1]
	if final {
		v[14] = ^v[14]
	}

	g := func(a, b, c, d int, x, y uint64) {
		v[a] = v[a] + v[b] + x
		v[d] = bits64RotateRight(v[d]^v[a], 32)
		v[c] = v[c] + v[d]
		v[b] = bits64RotateRight(v[b]^v[c], 24)
		v[a] = v[a] + v[b] + y
		v[d] = bits64RotateRight(v[d]^v[a], 16)
		v[c] = v[c] + v[d]
		v[b] = bits64RotateRight(v[b]^v[c], 63)
	}

	for i := uint32(0); i < rounds; i++ {
		s := sigma[i%10]
		g(0, 4, 8, 12, m[s[0]], m[s[1]])
		g(1, 5, 9, 13, m[s[2]], m[s[3]])
		g(2, 6, 10, 14, m[s[4]], m[s[5]])
		g(3, 7, 11, 15, m[s[6]], m[s[7]])
		g(0, 5, 10, 15, m[s[8]], m[s[9]])
		g(1, 6, 11, 12, m[s[10]], m[s[11]])
		g(2, 7, 8, 13, m[s[12]], m[s[13]])
		g(3, 4, 9, 14, m[s[14]], m[s[15]])
	}

	for i := 0; i < 8; i++ {
		h[i] ^= v[i] ^ v[i+8]
	}
}

// bits64RotateRight rotates x right by k bits.
func bits64RotateRight(x uint64, k uint) uint64 {
	return (x >> k) | (x << (64 - k))
}

// --- kzgPointEvaluation (address 0x0a) - EIP-4844 ---

const pointEvaluationGas = 50000

type kzgPointEvaluation struct {
	p *crypto.Provider
}

func (c *kzgPointEvaluation) RequiredGas(input []byte) uint64 {
	return pointEvaluationGas
}

func (c *kzgPointEvaluation) Run(input []byte) ([]byte, error) {
	return c.p.KZGPointEvaluation(input)
}

// --- p256Verify (address 0x100) - EIP-7951 ---

const (
	p256VerifyGas         = 3450
	p256VerifyInputLength = 160
)

type p256Verify struct {
	p *crypto.Provider
}

func (c *p256Verify) RequiredGas(input []byte) uint64 {
	return p256VerifyGas
}

// Run verifies a secp256r1 signature over input
// hash (32) || r (32) || s (32) || qx (32) || qy (32). Success returns a
// 32-byte big-endian 1; any failure returns empty output with no error.
func (c *p256Verify) Run(input []byte) ([]byte, error) {
	if len(input) != p256VerifyInputLength {
		return nil, nil
	}
	if !c.p.P256VerifySignature(input[:32], input[32:96], input[96:160]) {
		return nil, nil
	}
	result := make([]byte, 32)
	result[31] = 1
	return result, nil
}

// --- helpers ---

// wordCount returns ceil(size / 32), i.e., the number of 32-byte words.
func wordCount(size int) uint64 {
	if size == 0 {
		return 0
	}
	return uint64((size + 31) / 32)
}

// padRight pads data with zeros on the right to reach at least minLen.
func padRight(data []byte, minLen int) []byte {
	if len(data) >= minLen {
		return data
	}
	padded := make([]byte, minLen)
	copy(padded, data)
	return padded
}

// getDataSlice extracts a slice from data starting at offset with given length,
// zero-padding if data is too short.
func getDataSlice(data []byte, offset, length uint64) []byte {
	if length == 0 {
		return nil
	}
	result := make([]byte, length)
	if offset >= uint64(len(data)) {
		return result
	}
	end := offset + length
	if end > uint64(len(data)) {
		end = uint64(len(data))
	}
	copy(result, data[offset:end])
	return result
}

// adjustedExpLen calculates the adjusted exponent length for modexp gas.
// Only the first 32 exponent bytes contribute bit-level precision; beyond
// that each byte counts as 8 bits. A base length past uint64 range puts the
// exponent entirely outside the input, so it reads as zero.
func adjustedExpLen(expLen, baseLen *big.Int, data []byte) *big.Int {
	var expData []byte
	if baseLen.IsUint64() && expLen.IsUint64() {
		head := expLen.Uint64()
		if head > 32 {
			head = 32
		}
		expData = getDataSlice(data, baseLen.Uint64(), head)
	}
	exp := new(big.Int).SetBytes(expData)

	adj := new(big.Int)
	if exp.Sign() > 0 {
		adj.SetUint64(uint64(exp.BitLen() - 1))
	}
	if expLen.Cmp(big.NewInt(32)) > 0 {
		over := new(big.Int).Sub(expLen, big.NewInt(32))
		adj.Add(adj, over.Mul(over, big.NewInt(8)))
	}
	return adj
}
