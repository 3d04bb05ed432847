// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package machine

import (
	"fmt"
)

type pattern struct {
	Mask  uint16
	Value uint16
	Kind  Kind
}

// Dispatch patterns grouped by the most significant nibble. Within a group
// the masks are mutually exclusive.
var patterns = [16][]pattern{
	0x0: {
		{0xFFFF, 0x00E0, OP_CLS},
		{0xFFFF, 0x00EE, OP_RET},
	},
	0x1: {{0xF000, 0x1000, OP_JP}},
	0x2: {{0xF000, 0x2000, OP_CALL}},
	0x3: {{0xF000, 0x3000, OP_SE_BYTE}},
	0x4: {{0xF000, 0x4000, OP_SNE_BYTE}},
	0x5: {{0xF000, 0x5000, OP_SE_REG}},
	0x6: {{0xF000, 0x6000, OP_LD_BYTE}},
	0x7: {{0xF000, 0x7000, OP_ADD_BYTE}},
	0x8: {
		{0xF00F, 0x8000, OP_LD_REG},
		{0xF00F, 0x8001, OP_OR},
		{0xF00F, 0x8002, OP_AND},
		{0xF00F, 0x8003, OP_XOR},
		{0xF00F, 0x8004, OP_ADD_REG},
		{0xF00F, 0x8005, OP_SUB},
		{0xF00F, 0x8006, OP_SHR},
		{0xF00F, 0x8007, OP_SUBN},
		{0xF00F, 0x800E, OP_SHL},
	},
	0x9: {{0xF000, 0x9000, OP_SNE_REG}},
	0xA: {{0xF000, 0xA000, OP_LD_I}},
	0xB: {{0xF000, 0xB000, OP_JP_V0}},
	0xC: {{0xF000, 0xC000, OP_RND}},
	0xD: {{0xF000, 0xD000, OP_DRW}},
	0xE: {
		{0xF0FF, 0xE09E, OP_SKP},
		{0xF0FF, 0xE0A1, OP_SKNP},
	},
	0xF: {
		{0xF0FF, 0xF007, OP_LD_VX_DT},
		{0xF0FF, 0xF00A, OP_LD_VX_K},
		{0xF0FF, 0xF015, OP_LD_DT_VX},
		{0xF0FF, 0xF01E, OP_ADD_I},
		{0xF0FF, 0xF029, OP_LD_F},
		{0xF0FF, 0xF033, OP_LD_B},
		{0xF0FF, 0xF055, OP_LD_MEM_VX},
		{0xF0FF, 0xF065, OP_LD_VX_MEM},
	},
}

// Decode splits an opcode into its instruction family and operands. Opcodes
// matching no family decode with Kind OP_INVALID.
func Decode(opcode uint16) Instruction {
	ins := Instruction{
		Kind:   OP_INVALID,
		Opcode: opcode,
		X:      uint8((opcode >> 8) & 0xF),
		Y:      uint8((opcode >> 4) & 0xF),
		N:      uint8(opcode & 0xF),
		KK:     uint8(opcode & 0xFF),
		NNN:    opcode & 0x0FFF,
	}

	for _, p := range patterns[opcode>>12] {
		if opcode&p.Mask == p.Value {
			ins.Kind = p.Kind
			break
		}
	}

	return ins
}

var mnemonics = map[Kind]string{
	OP_CLS:       "CLS",
	OP_RET:       "RET",
	OP_JP:        "JP",
	OP_CALL:      "CALL",
	OP_SE_BYTE:   "SE",
	OP_SNE_BYTE:  "SNE",
	OP_SE_REG:    "SE",
	OP_LD_BYTE:   "LD",
	OP_ADD_BYTE:  "ADD",
	OP_LD_REG:    "LD",
	OP_OR:        "OR",
	OP_AND:       "AND",
	OP_XOR:       "XOR",
	OP_ADD_REG:   "ADD",
	OP_SUB:       "SUB",
	OP_SHR:       "SHR",
	OP_SUBN:      "SUBN",
	OP_SHL:       "SHL",
	OP_SNE_REG:   "SNE",
	OP_LD_I:      "LD",
	OP_JP_V0:     "JP",
	OP_RND:       "RND",
	OP_DRW:       "DRW",
	OP_SKP:       "SKP",
	OP_SKNP:      "SKNP",
	OP_LD_VX_DT:  "LD",
	OP_LD_VX_K:   "LD",
	OP_LD_DT_VX:  "LD",
	OP_ADD_I:     "ADD",
	OP_LD_F:      "LD",
	OP_LD_B:      "LD",
	OP_LD_MEM_VX: "LD",
	OP_LD_VX_MEM: "LD",
}

// Mnemonic returns the assembler keyword for the instruction family.
func (k Kind) Mnemonic() string {
	if name, ok := mnemonics[k]; ok {
		return name
	}
	return ".WORD"
}

func (ins Instruction) String() string {
	name := ins.Kind.Mnemonic()

	switch ins.Kind {
	case OP_CLS, OP_RET:
		return name
	case OP_JP, OP_CALL:
		return fmt.Sprintf("%s $%03X", name, ins.NNN)
	case OP_SE_BYTE, OP_SNE_BYTE, OP_LD_BYTE, OP_ADD_BYTE, OP_RND:
		return fmt.Sprintf("%s V%X, $%02X", name, ins.X, ins.KK)
	case OP_SE_REG, OP_SNE_REG, OP_LD_REG, OP_OR, OP_AND, OP_XOR,
		OP_ADD_REG, OP_SUB, OP_SUBN:
		return fmt.Sprintf("%s V%X, V%X", name, ins.X, ins.Y)
	case OP_SHR, OP_SHL, OP_SKP, OP_SKNP:
		return fmt.Sprintf("%s V%X", name, ins.X)
	case OP_LD_I:
		return fmt.Sprintf("%s I, $%03X", name, ins.NNN)
	case OP_JP_V0:
		return fmt.Sprintf("%s V0, $%03X", name, ins.NNN)
	case OP_DRW:
		return fmt.Sprintf("%s V%X, V%X, $%X", name, ins.X, ins.Y, ins.N)
	case OP_LD_VX_DT:
		return fmt.Sprintf("%s V%X, DT", name, ins.X)
	case OP_LD_VX_K:
		return fmt.Sprintf("%s V%X, K", name, ins.X)
	case OP_LD_DT_VX:
		return fmt.Sprintf("%s DT, V%X", name, ins.X)
	case OP_ADD_I:
		return fmt.Sprintf("%s I, V%X", name, ins.X)
	case OP_LD_F:
		return fmt.Sprintf("%s F, V%X", name, ins.X)
	case OP_LD_B:
		return fmt.Sprintf("%s B, V%X", name, ins.X)
	case OP_LD_MEM_VX:
		return fmt.Sprintf("%s [I], V%X", name, ins.X)
	case OP_LD_VX_MEM:
		return fmt.Sprintf("%s V%X, [I]", name, ins.X)
	}

	return fmt.Sprintf("%s $%04X", name, ins.Opcode)
}
