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

package machine_test

import (
	"testing"

	"github.com/retroenv/retrogolib/assert"

	"github.com/lassandro/gochip8/pkg/machine"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		opcode uint16
		kind   machine.Kind
		text   string
	}{
		{0x00E0, machine.OP_CLS, "CLS"},
		{0x00EE, machine.OP_RET, "RET"},
		{0x1ABC, machine.OP_JP, "JP $ABC"},
		{0x2204, machine.OP_CALL, "CALL $204"},
		{0x3342, machine.OP_SE_BYTE, "SE V3, $42"},
		{0x4A01, machine.OP_SNE_BYTE, "SNE VA, $01"},
		{0x5120, machine.OP_SE_REG, "SE V1, V2"},
		{0x5127, machine.OP_SE_REG, "SE V1, V2"},
		{0x6003, machine.OP_LD_BYTE, "LD V0, $03"},
		{0x7005, machine.OP_ADD_BYTE, "ADD V0, $05"},
		{0x8120, machine.OP_LD_REG, "LD V1, V2"},
		{0x8121, machine.OP_OR, "OR V1, V2"},
		{0x8122, machine.OP_AND, "AND V1, V2"},
		{0x8123, machine.OP_XOR, "XOR V1, V2"},
		{0x8124, machine.OP_ADD_REG, "ADD V1, V2"},
		{0x8125, machine.OP_SUB, "SUB V1, V2"},
		{0x8126, machine.OP_SHR, "SHR V1"},
		{0x8127, machine.OP_SUBN, "SUBN V1, V2"},
		{0x812E, machine.OP_SHL, "SHL V1"},
		{0x9120, machine.OP_SNE_REG, "SNE V1, V2"},
		{0xA123, machine.OP_LD_I, "LD I, $123"},
		{0xB300, machine.OP_JP_V0, "JP V0, $300"},
		{0xC10F, machine.OP_RND, "RND V1, $0F"},
		{0xD015, machine.OP_DRW, "DRW V0, V1, $5"},
		{0xE29E, machine.OP_SKP, "SKP V2"},
		{0xE2A1, machine.OP_SKNP, "SKNP V2"},
		{0xF507, machine.OP_LD_VX_DT, "LD V5, DT"},
		{0xF30A, machine.OP_LD_VX_K, "LD V3, K"},
		{0xF515, machine.OP_LD_DT_VX, "LD DT, V5"},
		{0xF41E, machine.OP_ADD_I, "ADD I, V4"},
		{0xF229, machine.OP_LD_F, "LD F, V2"},
		{0xF633, machine.OP_LD_B, "LD B, V6"},
		{0xF255, machine.OP_LD_MEM_VX, "LD [I], V2"},
		{0xF265, machine.OP_LD_VX_MEM, "LD V2, [I]"},
		{0x0123, machine.OP_INVALID, ".WORD $0123"},
		{0x8008, machine.OP_INVALID, ".WORD $8008"},
		{0xE000, machine.OP_INVALID, ".WORD $E000"},
		{0xF018, machine.OP_INVALID, ".WORD $F018"},
		{0xFFFF, machine.OP_INVALID, ".WORD $FFFF"},
	}

	for _, test := range tests {
		ins := machine.Decode(test.opcode)
		assert.Equal(t, test.kind, ins.Kind)
		assert.Equal(t, test.opcode, ins.Opcode)
		assert.Equal(t, test.text, ins.String())
	}
}

func TestDecodeOperands(t *testing.T) {
	ins := machine.Decode(0xD5A7)
	assert.Equal(t, uint8(0x5), ins.X)
	assert.Equal(t, uint8(0xA), ins.Y)
	assert.Equal(t, uint8(0x7), ins.N)
	assert.Equal(t, uint8(0xA7), ins.KK)
	assert.Equal(t, uint16(0x5A7), ins.NNN)
}

func TestDecodeTotal(t *testing.T) {
	valid := 0

	for op := 0; op <= 0xFFFF; op++ {
		ins := machine.Decode(uint16(op))
		if ins.Kind != machine.OP_INVALID {
			valid++
		}
	}

	// 2 system + 12 full-nibble families + 9 ALU + 2 keypad + 8 misc
	want := 2 + 12*0x1000 + 9*0x100 + 2*0x10 + 8*0x10
	assert.Equal(t, want, valid)
}
