package vm

import "fmt"

// Op identifies a decoded operation. The set is closed: Decode never yields
// an Op outside [OpCls, opCount).
type Op uint8

const (
	opInvalid Op = iota

	OpCls        // 00E0
	OpRet        // 00EE
	OpJump       // 1nnn
	OpCall       // 2nnn
	OpSkipEqImm  // 3xkk
	OpSkipNeImm  // 4xkk
	OpSkipEqReg  // 5xy0
	OpLoadImm    // 6xkk
	OpAddImm     // 7xkk
	OpMove       // 8xy0
	OpOr         // 8xy1
	OpAnd        // 8xy2
	OpXor        // 8xy3
	OpAdd        // 8xy4
	OpSub        // 8xy5
	OpShr        // 8xy6
	OpSubn       // 8xy7
	OpShl        // 8xyE
	OpSkipNeReg  // 9xy0
	OpLoadIndex  // Annn
	OpJumpOffset // Bnnn
	OpRand       // Cxkk
	OpDraw       // Dxyn
	OpSkipKey    // Ex9E
	OpSkipNotKey // ExA1
	OpGetDelay   // Fx07
	OpWaitKey    // Fx0A
	OpSetDelay   // Fx15
	OpSetSound   // Fx18
	OpAddIndex   // Fx1E
	OpFont       // Fx29
	OpBCD        // Fx33
	OpStore      // Fx55
	OpLoad       // Fx65

	opCount
)

// Instruction is a decoded opcode word with all operand fields extracted.
// Which fields are meaningful depends on Op.
type Instruction struct {
	Op   Op
	Word uint16

	X   uint8  // second nibble, register index
	Y   uint8  // third nibble, register index
	N   uint8  // lowest nibble
	KK  uint8  // low byte immediate
	NNN uint16 // 12-bit address
}

// Decode splits word into its fields and resolves the operation. Unassigned
// bit patterns yield ErrUnknownOpcode.
func Decode(word uint16) (Instruction, error) {
	in := Instruction{
		Word: word,
		X:    uint8(word>>8) & 0x0F,
		Y:    uint8(word>>4) & 0x0F,
		N:    uint8(word) & 0x0F,
		KK:   uint8(word),
		NNN:  word & 0x0FFF,
	}

	in.Op = decodeOp(in)
	if in.Op == opInvalid {
		return in, fmt.Errorf("0x%04X: %w", word, ErrUnknownOpcode)
	}

	return in, nil
}

func decodeOp(in Instruction) Op {
	switch in.Word >> 12 {
	case 0x0:
		switch in.Word {
		case 0x00E0:
			return OpCls
		case 0x00EE:
			return OpRet
		}

	case 0x1:
		return OpJump

	case 0x2:
		return OpCall

	case 0x3:
		return OpSkipEqImm

	case 0x4:
		return OpSkipNeImm

	case 0x5:
		if in.N == 0 {
			return OpSkipEqReg
		}

	case 0x6:
		return OpLoadImm

	case 0x7:
		return OpAddImm

	case 0x8:
		switch in.N {
		case 0x0:
			return OpMove
		case 0x1:
			return OpOr
		case 0x2:
			return OpAnd
		case 0x3:
			return OpXor
		case 0x4:
			return OpAdd
		case 0x5:
			return OpSub
		case 0x6:
			return OpShr
		case 0x7:
			return OpSubn
		case 0xE:
			return OpShl
		}

	case 0x9:
		if in.N == 0 {
			return OpSkipNeReg
		}

	case 0xA:
		return OpLoadIndex

	case 0xB:
		return OpJumpOffset

	case 0xC:
		return OpRand

	case 0xD:
		return OpDraw

	case 0xE:
		switch in.KK {
		case 0x9E:
			return OpSkipKey
		case 0xA1:
			return OpSkipNotKey
		}

	case 0xF:
		switch in.KK {
		case 0x07:
			return OpGetDelay
		case 0x0A:
			return OpWaitKey
		case 0x15:
			return OpSetDelay
		case 0x18:
			return OpSetSound
		case 0x1E:
			return OpAddIndex
		case 0x29:
			return OpFont
		case 0x33:
			return OpBCD
		case 0x55:
			return OpStore
		case 0x65:
			return OpLoad
		}
	}

	return opInvalid
}

// String returns the assembler mnemonic of the instruction.
func (in Instruction) String() string {
	if in.Op == opInvalid || in.Op >= opCount {
		return fmt.Sprintf("unknown 0x%04X", in.Word)
	}
	return instructions[in.Op].Name(in)
}
