package zkvm

// RV32 instruction field extraction and construction. The decode helpers
// feed the emulator's dispatch; the encode helpers let tests assemble guest
// programs without an external toolchain.

// decodeU extracts U-type fields: rd, imm[31:12].
func decodeU(instr uint32) (rd uint32, imm uint32) {
	rd = (instr >> 7) & 0x1F
	imm = instr & 0xFFFFF000
	return
}

// decodeJ extracts J-type fields: rd, sign-extended 21-bit offset.
func decodeJ(instr uint32) (rd uint32, imm int32) {
	rd = (instr >> 7) & 0x1F
	// imm[20|10:1|11|19:12]
	raw := ((instr >> 31) << 20) |
		(((instr >> 12) & 0xFF) << 12) |
		(((instr >> 20) & 0x1) << 11) |
		(((instr >> 21) & 0x3FF) << 1)
	if raw&(1<<20) != 0 {
		raw |= 0xFFF00000
	}
	imm = int32(raw)
	return
}

// decodeI extracts I-type fields: rd, rs1, sign-extended 12-bit immediate.
func decodeI(instr uint32) (rd uint32, rs1 uint32, imm int32) {
	rd = (instr >> 7) & 0x1F
	rs1 = (instr >> 15) & 0x1F
	raw := instr >> 20
	if raw&(1<<11) != 0 {
		raw |= 0xFFFFF000
	}
	imm = int32(raw)
	return
}

// decodeS extracts S-type fields: rs1, rs2, sign-extended 12-bit immediate.
func decodeS(instr uint32) (rs1, rs2 uint32, imm int32) {
	rs1 = (instr >> 15) & 0x1F
	rs2 = (instr >> 20) & 0x1F
	raw := ((instr >> 7) & 0x1F) | (((instr >> 25) & 0x7F) << 5)
	if raw&(1<<11) != 0 {
		raw |= 0xFFFFF000
	}
	imm = int32(raw)
	return
}

// decodeB extracts B-type fields: rs1, rs2, sign-extended 13-bit offset.
func decodeB(instr uint32) (rs1, rs2 uint32, imm int32) {
	rs1 = (instr >> 15) & 0x1F
	rs2 = (instr >> 20) & 0x1F
	// imm[12|10:5|4:1|11]
	raw := (((instr >> 31) & 0x1) << 12) |
		(((instr >> 7) & 0x1) << 11) |
		(((instr >> 25) & 0x3F) << 5) |
		(((instr >> 8) & 0xF) << 1)
	if raw&(1<<12) != 0 {
		raw |= 0xFFFFE000
	}
	imm = int32(raw)
	return
}

// EncodeRType builds an R-type instruction word.
func EncodeRType(opcode, rd, funct3, rs1, rs2, funct7 uint32) uint32 {
	return (funct7 << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

// EncodeIType builds an I-type instruction word.
func EncodeIType(opcode, rd, funct3, rs1 uint32, imm int32) uint32 {
	return (uint32(imm&0xFFF) << 20) | (rs1 << 15) | (funct3 << 12) | (rd << 7) | opcode
}

// EncodeSType builds an S-type instruction word.
func EncodeSType(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	immU := uint32(imm & 0xFFF)
	return ((immU >> 5) << 25) | (rs2 << 20) | (rs1 << 15) | (funct3 << 12) |
		((immU & 0x1F) << 7) | opcode
}

// EncodeBType builds a B-type instruction word.
func EncodeBType(opcode, funct3, rs1, rs2 uint32, imm int32) uint32 {
	immU := uint32(imm)
	return (((immU >> 12) & 0x1) << 31) | (((immU >> 5) & 0x3F) << 25) |
		(rs2 << 20) | (rs1 << 15) | (funct3 << 12) |
		(((immU >> 1) & 0xF) << 8) | (((immU >> 11) & 0x1) << 7) | opcode
}

// EncodeUType builds a U-type instruction word.
func EncodeUType(opcode, rd uint32, imm uint32) uint32 {
	return (imm & 0xFFFFF000) | (rd << 7) | opcode
}

// EncodeJType builds a J-type instruction word.
func EncodeJType(opcode, rd uint32, imm int32) uint32 {
	immU := uint32(imm)
	return (((immU >> 20) & 0x1) << 31) | (((immU >> 1) & 0x3FF) << 21) |
		(((immU >> 11) & 0x1) << 20) | (((immU >> 12) & 0xFF) << 12) |
		(rd << 7) | opcode
}
