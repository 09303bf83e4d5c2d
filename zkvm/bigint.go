// Package zkvm defines the guest-side ABI of the proving environment and an
// RV32IM emulator used to exercise it on the host. The centerpiece is the
// big-integer co-processor: a set of fixed-width modular-arithmetic
// operations exposed to guest programs through a dedicated ecall, which the
// zkvm build of crypto/bigmod routes every field operation through.
package zkvm

import (
	"fmt"
	"math/big"
)

// Ecall function codes, placed in a7 before the ecall instruction.
const (
	EcallHalt   uint32 = 0 // halt; exit code in a0
	EcallOutput uint32 = 1 // write the low byte of a0 to the output stream
	EcallInput  uint32 = 2 // read one input byte into a0
	EcallBigInt uint32 = 3 // big-integer co-processor; request frame pointer in a0
)

// Big-integer co-processor op codes. The unchecked variants may leave any
// in-width representative of the residue class in the result buffer; the
// checked variants guarantee a canonical (reduced) result.
const (
	BigIntModAdd uint32 = iota
	BigIntModSub
	BigIntModMul
	BigIntModInv
	BigIntModAddUnchecked
	BigIntModMulUnchecked
)

// Operand widths the co-processor accepts, in 32-bit limbs.
var bigIntWidths = map[uint32]bool{8: true, 12: true, 128: true}

// A BigInt request frame is six little-endian words in guest memory:
//
//	+0  op code
//	+4  width in limbs (8, 12 or 128)
//	+8  result pointer (z)
//	+12 first operand pointer (x)
//	+16 second operand pointer (y); ignored by ModInv
//	+20 modulus pointer (m)
//
// Operands are width consecutive little-endian limbs. The result buffer may
// alias an operand; the co-processor reads all inputs before writing.
const (
	bigIntFrameWords = 6
	bigIntFrameSize  = 4 * bigIntFrameWords
)

// Coprocessor executes one big-integer operation over little-endian limb
// slices, all of the same width. z may alias x or y.
type Coprocessor interface {
	Execute(op uint32, z, x, y, m []uint32) error
}

// EmulatedCoprocessor implements the co-processor contract with math/big.
// It reduces everywhere, so checked and unchecked op codes behave
// identically; that is within the unchecked contract and makes the emulation
// a bit-exact stand-in for the host arithmetic backend.
type EmulatedCoprocessor struct{}

func (EmulatedCoprocessor) Execute(op uint32, z, x, y, m []uint32) error {
	mv := limbsToBig(m)
	if mv.Sign() == 0 {
		return fmt.Errorf("zkvm: bigint op %d with zero modulus", op)
	}
	xv := limbsToBig(x)
	t := new(big.Int)
	switch op {
	case BigIntModAdd, BigIntModAddUnchecked:
		t.Add(xv, limbsToBig(y))
	case BigIntModSub:
		t.Sub(xv, limbsToBig(y))
	case BigIntModMul, BigIntModMulUnchecked:
		t.Mul(xv, limbsToBig(y))
	case BigIntModInv:
		if t.ModInverse(xv, mv) == nil {
			return fmt.Errorf("zkvm: bigint operand has no inverse")
		}
		bigToLimbs(z, t)
		return nil
	default:
		return fmt.Errorf("zkvm: unknown bigint op %d", op)
	}
	t.Mod(t, mv) // Euclidean: non-negative
	bigToLimbs(z, t)
	return nil
}

// coproc is the co-processor behind SysBigInt. The emulated implementation
// stands in unless a platform runtime installs the real one at startup.
var coproc Coprocessor = EmulatedCoprocessor{}

// SetCoprocessor installs the co-processor used by SysBigInt.
func SetCoprocessor(c Coprocessor) {
	if c != nil {
		coproc = c
	}
}

// SysBigInt issues one big-integer co-processor operation. A failure means
// the arithmetic substrate broke its contract, which would silently corrupt
// any proof built on top, so it is fatal.
func SysBigInt(op uint32, z, x, y, m []uint32) {
	if err := coproc.Execute(op, z, x, y, m); err != nil {
		panic("zkvm: " + err.Error())
	}
}

func limbsToBig(limbs []uint32) *big.Int {
	v := new(big.Int)
	for i := len(limbs) - 1; i >= 0; i-- {
		v.Lsh(v, 32)
		v.Or(v, big.NewInt(int64(limbs[i])))
	}
	return v
}

func bigToLimbs(dst []uint32, v *big.Int) {
	t := new(big.Int).Set(v)
	mask := big.NewInt(0xFFFFFFFF)
	word := new(big.Int)
	for i := range dst {
		dst[i] = uint32(word.And(t, mask).Uint64())
		t.Rsh(t, 32)
	}
}
