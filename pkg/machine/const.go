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

const (
	MEMORY_SIZE   = 0x1000
	MEMORY_MASK   = MEMORY_SIZE - 1
	MEMSPACE_FONT = 0x0000
	MEMSPACE_USER = 0x0200

	// Largest program image that fits between MEMSPACE_USER and the end of
	// memory
	PROGRAM_MAX_SIZE = MEMORY_SIZE - MEMSPACE_USER
)

const (
	DISPLAY_WIDTH  = 64
	DISPLAY_HEIGHT = 32
	DISPLAY_SIZE   = DISPLAY_WIDTH * DISPLAY_HEIGHT

	// Lit pixels are stored as full words so the display can be handed to a
	// host framebuffer without conversion
	PIXEL_ON  uint32 = 0xFFFFFFFF
	PIXEL_OFF uint32 = 0x00000000
)

const (
	REGISTER_COUNT = 16
	REGISTER_FLAG  = 0xF
	STACK_DEPTH    = 16
	KEYPAD_SIZE    = 16
	GLYPH_SIZE     = 5
)

// Instruction families, one per dispatch mask
const (
	OP_INVALID Kind = iota
	OP_CLS          // 00E0
	OP_RET          // 00EE
	OP_JP           // 1NNN
	OP_CALL         // 2NNN
	OP_SE_BYTE      // 3XKK
	OP_SNE_BYTE     // 4XKK
	OP_SE_REG       // 5XY0
	OP_LD_BYTE      // 6XKK
	OP_ADD_BYTE     // 7XKK
	OP_LD_REG       // 8XY0
	OP_OR           // 8XY1
	OP_AND          // 8XY2
	OP_XOR          // 8XY3
	OP_ADD_REG      // 8XY4
	OP_SUB          // 8XY5
	OP_SHR          // 8XY6
	OP_SUBN         // 8XY7
	OP_SHL          // 8XYE
	OP_SNE_REG      // 9XY0
	OP_LD_I         // ANNN
	OP_JP_V0        // BNNN
	OP_RND          // CXKK
	OP_DRW          // DXYN
	OP_SKP          // EX9E
	OP_SKNP         // EXA1
	OP_LD_VX_DT     // FX07
	OP_LD_VX_K      // FX0A
	OP_LD_DT_VX     // FX15
	OP_ADD_I        // FX1E
	OP_LD_F         // FX29
	OP_LD_B         // FX33
	OP_LD_MEM_VX    // FX55
	OP_LD_VX_MEM    // FX65
)

var FONT = [16 * GLYPH_SIZE]uint8{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}
