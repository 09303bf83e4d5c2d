package zkvm

import (
	"errors"
	"fmt"
)

// Emulator errors.
var (
	ErrRVInvalidInstruction = errors.New("riscv: invalid instruction")
	ErrRVGasExhausted       = errors.New("riscv: gas exhausted")
	ErrRVHalted             = errors.New("riscv: cpu halted")
	ErrRVMemoryFault        = errors.New("riscv: memory access fault")
	ErrRVEmptyProgram       = errors.New("riscv: empty program")
	ErrRVBigIntFault        = errors.New("riscv: bigint ecall fault")
)

// RVRegCount is the number of general-purpose registers.
const RVRegCount = 32

// RVCPU emulates an RV32IM hart extended with the big-integer co-processor
// ecall. It executes a single deterministic instruction stream with flat
// per-instruction gas, mirroring how the proving environment meters guest
// cycles.
type RVCPU struct {
	Regs     [RVRegCount]uint32
	PC       uint32
	Memory   *RVMemory
	Halted   bool
	ExitCode uint32

	// Gas metering: one gas per instruction; 0 disables the limit.
	GasLimit uint64
	GasUsed  uint64

	// Coproc serves EcallBigInt requests.
	Coproc Coprocessor

	// I/O streams for EcallOutput and EcallInput.
	InputBuf  []byte
	OutputBuf []byte
	inputPos  int
}

// NewRVCPU creates a CPU with empty memory and the emulated co-processor.
func NewRVCPU(gasLimit uint64) *RVCPU {
	return &RVCPU{
		Memory:   NewRVMemory(),
		GasLimit: gasLimit,
		Coproc:   EmulatedCoprocessor{},
	}
}

// LoadProgram copies machine code into memory at base and points PC at
// entryPoint.
func (cpu *RVCPU) LoadProgram(code []byte, base, entryPoint uint32) error {
	if len(code) == 0 {
		return ErrRVEmptyProgram
	}
	if err := cpu.Memory.LoadSegment(base, code); err != nil {
		return err
	}
	cpu.PC = entryPoint
	return nil
}

// Run executes instructions until the program halts or an error occurs.
func (cpu *RVCPU) Run() error {
	for !cpu.Halted {
		if err := cpu.Step(); err != nil {
			return err
		}
	}
	return nil
}

// Step executes one instruction.
func (cpu *RVCPU) Step() error {
	if cpu.Halted {
		return ErrRVHalted
	}
	if cpu.GasLimit > 0 && cpu.GasUsed >= cpu.GasLimit {
		return ErrRVGasExhausted
	}
	instr, err := cpu.Memory.ReadWord(cpu.PC)
	if err != nil {
		return fmt.Errorf("%w: fetch at 0x%08x: %v", ErrRVMemoryFault, cpu.PC, err)
	}
	if err := cpu.execute(instr); err != nil {
		return err
	}
	// x0 is hardwired to zero.
	cpu.Regs[0] = 0
	cpu.GasUsed++
	return nil
}

func (cpu *RVCPU) execute(instr uint32) error {
	switch opcode := instr & 0x7F; opcode {
	case 0x37: // LUI
		rd, imm := decodeU(instr)
		cpu.Regs[rd] = imm
		cpu.PC += 4

	case 0x17: // AUIPC
		rd, imm := decodeU(instr)
		cpu.Regs[rd] = cpu.PC + imm
		cpu.PC += 4

	case 0x6F: // JAL
		rd, imm := decodeJ(instr)
		cpu.Regs[rd] = cpu.PC + 4
		cpu.PC = uint32(int32(cpu.PC) + imm)

	case 0x67: // JALR
		rd, rs1, imm := decodeI(instr)
		target := uint32(int32(cpu.Regs[rs1])+imm) & ^uint32(1)
		cpu.Regs[rd] = cpu.PC + 4
		cpu.PC = target

	case 0x63:
		return cpu.executeBranch(instr)

	case 0x03:
		return cpu.executeLoad(instr)

	case 0x23:
		return cpu.executeStore(instr)

	case 0x13:
		return cpu.executeImmediate(instr)

	case 0x33:
		return cpu.executeRegister(instr)

	case 0x73: // SYSTEM
		funct3 := (instr >> 12) & 0x7
		if funct3 != 0 {
			return fmt.Errorf("%w: system funct3=0x%x", ErrRVInvalidInstruction, funct3)
		}
		switch instr >> 20 {
		case 0: // ECALL
			if err := cpu.handleEcall(); err != nil {
				return err
			}
		case 1: // EBREAK
			cpu.Halted = true
		}
		cpu.PC += 4

	default:
		return fmt.Errorf("%w: opcode=0x%02x at PC=0x%08x", ErrRVInvalidInstruction, opcode, cpu.PC)
	}
	return nil
}

func (cpu *RVCPU) executeBranch(instr uint32) error {
	rs1, rs2, imm := decodeB(instr)
	a, b := cpu.Regs[rs1], cpu.Regs[rs2]
	var taken bool
	switch funct3 := (instr >> 12) & 0x7; funct3 {
	case 0: // BEQ
		taken = a == b
	case 1: // BNE
		taken = a != b
	case 4: // BLT
		taken = int32(a) < int32(b)
	case 5: // BGE
		taken = int32(a) >= int32(b)
	case 6: // BLTU
		taken = a < b
	case 7: // BGEU
		taken = a >= b
	default:
		return fmt.Errorf("%w: branch funct3=0x%x", ErrRVInvalidInstruction, funct3)
	}
	if taken {
		cpu.PC = uint32(int32(cpu.PC) + imm)
	} else {
		cpu.PC += 4
	}
	return nil
}

func (cpu *RVCPU) executeLoad(instr uint32) error {
	rd, rs1, imm := decodeI(instr)
	addr := uint32(int32(cpu.Regs[rs1]) + imm)
	var val uint32
	switch funct3 := (instr >> 12) & 0x7; funct3 {
	case 0: // LB
		b, err := cpu.Memory.ReadByte(addr)
		if err != nil {
			return fmt.Errorf("%w: load at 0x%08x", ErrRVMemoryFault, addr)
		}
		val = uint32(int32(int8(b)))
	case 1: // LH
		h, err := cpu.Memory.ReadHalfword(addr)
		if err != nil {
			return fmt.Errorf("%w: load at 0x%08x", ErrRVMemoryFault, addr)
		}
		val = uint32(int32(int16(h)))
	case 2: // LW
		w, err := cpu.Memory.ReadWord(addr)
		if err != nil {
			return fmt.Errorf("%w: load at 0x%08x", ErrRVMemoryFault, addr)
		}
		val = w
	case 4: // LBU
		b, err := cpu.Memory.ReadByte(addr)
		if err != nil {
			return fmt.Errorf("%w: load at 0x%08x", ErrRVMemoryFault, addr)
		}
		val = uint32(b)
	case 5: // LHU
		h, err := cpu.Memory.ReadHalfword(addr)
		if err != nil {
			return fmt.Errorf("%w: load at 0x%08x", ErrRVMemoryFault, addr)
		}
		val = uint32(h)
	default:
		return fmt.Errorf("%w: load funct3=0x%x", ErrRVInvalidInstruction, funct3)
	}
	cpu.Regs[rd] = val
	cpu.PC += 4
	return nil
}

func (cpu *RVCPU) executeStore(instr uint32) error {
	rs1, rs2, imm := decodeS(instr)
	addr := uint32(int32(cpu.Regs[rs1]) + imm)
	val := cpu.Regs[rs2]
	var err error
	switch funct3 := (instr >> 12) & 0x7; funct3 {
	case 0: // SB
		err = cpu.Memory.WriteByte(addr, byte(val))
	case 1: // SH
		err = cpu.Memory.WriteHalfword(addr, uint16(val))
	case 2: // SW
		err = cpu.Memory.WriteWord(addr, val)
	default:
		return fmt.Errorf("%w: store funct3=0x%x", ErrRVInvalidInstruction, funct3)
	}
	if err != nil {
		return fmt.Errorf("%w: store at 0x%08x", ErrRVMemoryFault, addr)
	}
	cpu.PC += 4
	return nil
}

func (cpu *RVCPU) executeImmediate(instr uint32) error {
	rd, rs1, imm := decodeI(instr)
	src := cpu.Regs[rs1]
	immU := uint32(imm)
	switch funct3 := (instr >> 12) & 0x7; funct3 {
	case 0: // ADDI
		cpu.Regs[rd] = uint32(int32(src) + imm)
	case 2: // SLTI
		cpu.Regs[rd] = boolReg(int32(src) < imm)
	case 3: // SLTIU
		cpu.Regs[rd] = boolReg(src < immU)
	case 4: // XORI
		cpu.Regs[rd] = src ^ immU
	case 6: // ORI
		cpu.Regs[rd] = src | immU
	case 7: // ANDI
		cpu.Regs[rd] = src & immU
	case 1: // SLLI
		cpu.Regs[rd] = src << (immU & 0x1F)
	case 5: // SRLI / SRAI
		shamt := immU & 0x1F
		if (instr>>30)&1 == 1 {
			cpu.Regs[rd] = uint32(int32(src) >> shamt)
		} else {
			cpu.Regs[rd] = src >> shamt
		}
	default:
		return fmt.Errorf("%w: imm arith funct3=0x%x", ErrRVInvalidInstruction, funct3)
	}
	cpu.PC += 4
	return nil
}

func (cpu *RVCPU) executeRegister(instr uint32) error {
	rd := (instr >> 7) & 0x1F
	funct3 := (instr >> 12) & 0x7
	funct7 := (instr >> 25) & 0x7F
	a := cpu.Regs[(instr>>15)&0x1F]
	b := cpu.Regs[(instr>>20)&0x1F]

	if funct7 == 0x01 {
		return cpu.executeMExt(rd, a, b, funct3)
	}
	switch funct3 {
	case 0: // ADD / SUB
		if funct7 == 0x20 {
			cpu.Regs[rd] = a - b
		} else {
			cpu.Regs[rd] = a + b
		}
	case 1: // SLL
		cpu.Regs[rd] = a << (b & 0x1F)
	case 2: // SLT
		cpu.Regs[rd] = boolReg(int32(a) < int32(b))
	case 3: // SLTU
		cpu.Regs[rd] = boolReg(a < b)
	case 4: // XOR
		cpu.Regs[rd] = a ^ b
	case 5: // SRL / SRA
		if funct7 == 0x20 {
			cpu.Regs[rd] = uint32(int32(a) >> (b & 0x1F))
		} else {
			cpu.Regs[rd] = a >> (b & 0x1F)
		}
	case 6: // OR
		cpu.Regs[rd] = a | b
	case 7: // AND
		cpu.Regs[rd] = a & b
	default:
		return fmt.Errorf("%w: reg arith funct3=0x%x", ErrRVInvalidInstruction, funct3)
	}
	cpu.PC += 4
	return nil
}

// executeMExt handles the M extension. Division by zero and signed overflow
// follow the RISC-V spec: no traps, defined results.
func (cpu *RVCPU) executeMExt(rd, a, b, funct3 uint32) error {
	switch funct3 {
	case 0: // MUL
		cpu.Regs[rd] = a * b
	case 1: // MULH
		cpu.Regs[rd] = uint32((int64(int32(a)) * int64(int32(b))) >> 32)
	case 2: // MULHSU
		cpu.Regs[rd] = uint32((int64(int32(a)) * int64(b)) >> 32)
	case 3: // MULHU
		cpu.Regs[rd] = uint32((uint64(a) * uint64(b)) >> 32)
	case 4: // DIV
		switch {
		case b == 0:
			cpu.Regs[rd] = 0xFFFFFFFF
		case int32(a) == -0x80000000 && int32(b) == -1:
			cpu.Regs[rd] = a
		default:
			cpu.Regs[rd] = uint32(int32(a) / int32(b))
		}
	case 5: // DIVU
		if b == 0 {
			cpu.Regs[rd] = 0xFFFFFFFF
		} else {
			cpu.Regs[rd] = a / b
		}
	case 6: // REM
		switch {
		case b == 0:
			cpu.Regs[rd] = a
		case int32(a) == -0x80000000 && int32(b) == -1:
			cpu.Regs[rd] = 0
		default:
			cpu.Regs[rd] = uint32(int32(a) % int32(b))
		}
	case 7: // REMU
		if b == 0 {
			cpu.Regs[rd] = a
		} else {
			cpu.Regs[rd] = a % b
		}
	default:
		return fmt.Errorf("%w: M-ext funct3=0x%x", ErrRVInvalidInstruction, funct3)
	}
	cpu.PC += 4
	return nil
}

func boolReg(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// handleEcall dispatches on a7. Unknown codes halt with exit code 0xFF, the
// same convention the proving environment uses for bad syscalls.
func (cpu *RVCPU) handleEcall() error {
	switch cpu.Regs[17] {
	case EcallHalt:
		cpu.ExitCode = cpu.Regs[10]
		cpu.Halted = true
	case EcallOutput:
		cpu.OutputBuf = append(cpu.OutputBuf, byte(cpu.Regs[10]))
	case EcallInput:
		if cpu.inputPos < len(cpu.InputBuf) {
			cpu.Regs[10] = uint32(cpu.InputBuf[cpu.inputPos])
			cpu.inputPos++
		} else {
			cpu.Regs[10] = 0xFFFFFFFF // EOF
		}
	case EcallBigInt:
		return cpu.handleBigInt(cpu.Regs[10])
	default:
		cpu.ExitCode = 0xFF
		cpu.Halted = true
	}
	return nil
}

// handleBigInt serves one co-processor request. The frame and operand reads
// happen before the result write, so the result buffer may alias an operand
// exactly as the ABI promises.
func (cpu *RVCPU) handleBigInt(framePtr uint32) error {
	var frame [bigIntFrameWords]uint32
	for i := range frame {
		w, err := cpu.Memory.ReadWord(framePtr + uint32(4*i))
		if err != nil {
			return fmt.Errorf("%w: frame read at 0x%08x", ErrRVBigIntFault, framePtr)
		}
		frame[i] = w
	}
	op, width := frame[0], frame[1]
	if !bigIntWidths[width] {
		return fmt.Errorf("%w: unsupported width %d", ErrRVBigIntFault, width)
	}
	x, err := cpu.readLimbs(frame[3], width)
	if err != nil {
		return err
	}
	var y []uint32
	if op != BigIntModInv {
		if y, err = cpu.readLimbs(frame[4], width); err != nil {
			return err
		}
	}
	m, err := cpu.readLimbs(frame[5], width)
	if err != nil {
		return err
	}
	z := make([]uint32, width)
	if err := cpu.Coproc.Execute(op, z, x, y, m); err != nil {
		return fmt.Errorf("%w: %v", ErrRVBigIntFault, err)
	}
	return cpu.writeLimbs(frame[2], z)
}

func (cpu *RVCPU) readLimbs(ptr, width uint32) ([]uint32, error) {
	limbs := make([]uint32, width)
	for i := range limbs {
		w, err := cpu.Memory.ReadWord(ptr + uint32(4*i))
		if err != nil {
			return nil, fmt.Errorf("%w: operand read at 0x%08x", ErrRVBigIntFault, ptr)
		}
		limbs[i] = w
	}
	return limbs, nil
}

func (cpu *RVCPU) writeLimbs(ptr uint32, limbs []uint32) error {
	for i, w := range limbs {
		if err := cpu.Memory.WriteWord(ptr+uint32(4*i), w); err != nil {
			return fmt.Errorf("%w: result write at 0x%08x", ErrRVBigIntFault, ptr)
		}
	}
	return nil
}
