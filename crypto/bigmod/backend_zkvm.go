//go:build zkvm

package bigmod

import "github.com/steleth/steleth/zkvm"

// The zkvm backend hands every operation to the guest big-integer
// co-processor. The co-processor guarantees canonical results for the checked
// op codes only; the unchecked codes may return any in-width representative
// of the residue class.

func modadd(z, x, y, m Nat) {
	zkvm.SysBigInt(zkvm.BigIntModAdd, z, x, y, m)
}

func modsub(z, x, y, m Nat) {
	zkvm.SysBigInt(zkvm.BigIntModSub, z, x, y, m)
}

func modmul(z, x, y, m Nat) {
	zkvm.SysBigInt(zkvm.BigIntModMul, z, x, y, m)
}

func modaddUnchecked(z, x, y, m Nat) {
	zkvm.SysBigInt(zkvm.BigIntModAddUnchecked, z, x, y, m)
}

func modmulUnchecked(z, x, y, m Nat) {
	zkvm.SysBigInt(zkvm.BigIntModMulUnchecked, z, x, y, m)
}

func modinv(z, x, m Nat) {
	zkvm.SysBigInt(zkvm.BigIntModInv, z, x, nil, m)
}
