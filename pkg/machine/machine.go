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
	"io"
	"math/rand"

	"github.com/lassandro/gochip8/pkg/encoding"
)

func (mc *MachineState) Reset() {
	*mc = MachineState{}

	// Programs assume the hexadecimal glyphs begin at address 0
	copy(mc.Memory[MEMSPACE_FONT:], FONT[:])

	mc.Program = MEMSPACE_USER
}

// LoadProgram resets the machine and copies image into user memory.
func (mc *Machine) LoadProgram(image []byte) error {
	mc.State.Reset()

	if len(image) > PROGRAM_MAX_SIZE {
		return &LoadError{Size: len(image), Err: ErrProgramTooLarge}
	}

	copy(mc.State.Memory[MEMSPACE_USER:], image)

	return nil
}

func (mc *Machine) LoadBin(reader io.Reader) error {
	// One byte past the limit is enough to detect an oversized image
	image, err := io.ReadAll(io.LimitReader(reader, PROGRAM_MAX_SIZE+1))

	if err != nil {
		mc.State.Reset()
		return &LoadError{Size: len(image), Err: err}
	}

	return mc.LoadProgram(image)
}

func (mc *Machine) push(value uint16) bool {
	if mc.State.StackPtr >= STACK_DEPTH {
		return false
	}

	mc.State.Stack[mc.State.StackPtr] = value
	mc.State.StackPtr++
	return true
}

func (mc *Machine) pop() (uint16, bool) {
	if mc.State.StackPtr == 0 {
		return 0, false
	}

	mc.State.StackPtr--
	return mc.State.Stack[mc.State.StackPtr], true
}

func (mc *Machine) read(addr uint16) uint8 {
	addr &= MEMORY_MASK

	if mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return mc.State.Memory[addr]
}

func (mc *Machine) write(addr uint16, value uint8) {
	addr &= MEMORY_MASK

	mc.State.Memory[addr] = value

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}
}

// Random bytes are drawn from [0, 255); 0xFF itself is never produced.
func (mc *Machine) random() uint8 {
	if mc.Random == nil {
		return uint8(rand.Intn(0xFF))
	}
	return uint8(mc.Random.Intn(0xFF))
}

func (mc *Machine) skipIf(cond bool) {
	if cond {
		mc.State.Program += 2
	}
}

func (mc *Machine) keyDown(value uint8) bool {
	return mc.State.Keypad[value&0xF] != 0
}

// Sprites are XORed onto the display, wrapping at both edges. Returns
// whether any lit pixel was cleared.
func (mc *Machine) draw(x, y, height uint8) bool {
	collision := false

	for row := uint16(0); row < uint16(height); row++ {
		sprite := mc.read(mc.State.Index + row)

		for col := uint16(0); col < 8; col++ {
			if sprite&(0x80>>col) == 0 {
				continue
			}

			px := (uint16(x) + col) % DISPLAY_WIDTH
			py := (uint16(y) + row) % DISPLAY_HEIGHT
			pixel := &mc.State.Display[py*DISPLAY_WIDTH+px]

			if *pixel != PIXEL_OFF {
				collision = true
			}

			*pixel ^= PIXEL_ON
		}
	}

	return collision
}

// Step fetches, decodes and executes a single instruction, then ticks the
// delay timer. An unknown opcode is reported as a *DecodeError once the
// step has otherwise completed.
func (mc *Machine) Step() error {
	var err error

	address := mc.State.Program & MEMORY_MASK
	opcode := encoding.JoinOpcode(mc.read(address), mc.read(address+1))
	ins := Decode(opcode)

	mc.State.Program += 2

	x := ins.X
	y := ins.Y
	vx := mc.State.Registers[x]
	vy := mc.State.Registers[y]

	switch ins.Kind {
	// CLS  |0000|0000|1110|0000| Clear display
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_CLS:
		for i := range mc.State.Display {
			mc.State.Display[i] = PIXEL_OFF
		}

	// RET  |0000|0000|1110|1110| Return from subroutine
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_RET:
		if addr, ok := mc.pop(); ok {
			mc.State.Program = addr
		}

	// JP   |0001|addr          | Jump
	// JP   |1011|addr          | Jump to addr + V0
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_JP:
		mc.State.Program = ins.NNN
	case OP_JP_V0:
		mc.State.Program = ins.NNN + uint16(mc.State.Registers[0])

	// CALL |0010|addr          | Call subroutine
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_CALL:
		// A full stack drops the call rather than corrupting the return path
		if mc.push(mc.State.Program) {
			mc.State.Program = ins.NNN
		}

	// SE   |0011|Vx  |byte     | Skip if Vx == byte
	// SNE  |0100|Vx  |byte     | Skip if Vx != byte
	// SE   |0101|Vx  |Vy  |0000| Skip if Vx == Vy
	// SNE  |1001|Vx  |Vy  |0000| Skip if Vx != Vy
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SE_BYTE:
		mc.skipIf(vx == ins.KK)
	case OP_SNE_BYTE:
		mc.skipIf(vx != ins.KK)
	case OP_SE_REG:
		mc.skipIf(vx == vy)
	case OP_SNE_REG:
		mc.skipIf(vx != vy)

	// LD   |0110|Vx  |byte     | Load immediate
	// ADD  |0111|Vx  |byte     | Add immediate, no carry
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LD_BYTE:
		mc.State.Registers[x] = ins.KK
	case OP_ADD_BYTE:
		mc.State.Registers[x] = vx + ins.KK

	// LD   |1000|Vx  |Vy  |0000| Vx = Vy
	// OR   |1000|Vx  |Vy  |0001| Vx = Vx | Vy
	// AND  |1000|Vx  |Vy  |0010| Vx = Vx & Vy
	// XOR  |1000|Vx  |Vy  |0011| Vx = Vx ^ Vy
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LD_REG:
		mc.State.Registers[x] = vy
	case OP_OR:
		mc.State.Registers[x] = vx | vy
	case OP_AND:
		mc.State.Registers[x] = vx & vy
	case OP_XOR:
		mc.State.Registers[x] = vx ^ vy

	// ADD  |1000|Vx  |Vy  |0100| Vx = Vx + Vy, VF = carry
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	//
	// The flag is written before the result in this family, and the
	// result reads the registers as they stand after the flag write. With
	// VF as an operand that decides what VF ends up holding.
	case OP_ADD_REG:
		sum := uint16(vx) + uint16(vy)
		mc.setFlag(sum > 0xFF)
		mc.State.Registers[x] = uint8(sum)

	// SUB  |1000|Vx  |Vy  |0101| Vx = Vx - Vy, VF = Vx > Vy
	// SUBN |1000|Vx  |Vy  |0111| Vx = Vy - Vx, VF = Vy > Vx
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	//
	// Without a borrow Vx keeps its value instead of wrapping.
	case OP_SUB:
		mc.setFlag(vx > vy)
		if vx > vy {
			mc.State.Registers[x] -= mc.State.Registers[y]
		}
	case OP_SUBN:
		mc.setFlag(vy > vx)
		if vy > vx {
			mc.State.Registers[x] = mc.State.Registers[y] - mc.State.Registers[x]
		}

	// SHR  |1000|Vx  |Vy  |0110| Vx = Vx >> 1, VF = Vx & 1
	// SHL  |1000|Vx  |Vy  |1110| Vx = Vx << 1, VF = Vx & 1
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	//
	// Both shifts test the least significant bit.
	case OP_SHR:
		mc.setFlag(vx&0x1 == 1)
		mc.State.Registers[x] >>= 1
	case OP_SHL:
		mc.setFlag(vx&0x1 == 1)
		mc.State.Registers[x] <<= 1

	// LD   |1010|addr          | I = addr
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LD_I:
		mc.State.Index = ins.NNN

	// RND  |1100|Vx  |byte     | Vx = random & byte
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_RND:
		mc.State.Registers[x] = mc.random() & ins.KK

	// DRW  |1101|Vx  |Vy  |n   | Draw n-byte sprite at (Vx, Vy), VF = collision
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_DRW:
		mc.setFlag(mc.draw(vx, vy, ins.N))

	// SKP  |1110|Vx  |1001|1110| Skip if key Vx down
	// SKNP |1110|Vx  |1010|0001| Skip if key Vx up
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_SKP:
		mc.skipIf(mc.keyDown(vx))
	case OP_SKNP:
		mc.skipIf(!mc.keyDown(vx))

	// LD   |1111|Vx  |0000|0111| Vx = DT
	// LD   |1111|Vx  |0001|0101| DT = Vx
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LD_VX_DT:
		mc.State.Registers[x] = mc.State.Delay
	case OP_LD_DT_VX:
		mc.State.Delay = vx

	// LD   |1111|Vx  |0000|1010| Wait for key, Vx = key
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	//
	// No key held rewinds the program so the wait is retried next step.
	case OP_LD_VX_K:
		found := false

		for key, state := range mc.State.Keypad {
			if state != 0 {
				mc.State.Registers[x] = uint8(key)
				found = true
				break
			}
		}

		if !found {
			mc.State.Program -= 2
		}

	// ADD  |1111|Vx  |0001|1110| I = I + Vx
	// LD   |1111|Vx  |0010|1001| I = glyph address of Vx
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_ADD_I:
		mc.State.Index += uint16(vx)
	case OP_LD_F:
		mc.State.Index = MEMSPACE_FONT + uint16(vx&0xF)*GLYPH_SIZE

	// LD   |1111|Vx  |0011|0011| [I..I+2] = BCD(Vx)
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LD_B:
		for i, digit := range encoding.BCD(vx) {
			mc.write(mc.State.Index+uint16(i), digit)
		}

	// LD   |1111|Vx  |0101|0101| [I..I+x] = V0..Vx
	// LD   |1111|Vx  |0110|0101| V0..Vx = [I..I+x]
	// ---- [ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ _ ]
	case OP_LD_MEM_VX:
		for i := uint16(0); i <= uint16(x); i++ {
			mc.write(mc.State.Index+i, mc.State.Registers[i])
		}
	case OP_LD_VX_MEM:
		for i := uint16(0); i <= uint16(x); i++ {
			mc.State.Registers[i] = mc.read(mc.State.Index + i)
		}

	default:
		err = &DecodeError{Address: address, Opcode: opcode}
	}

	if mc.State.Delay > 0 {
		mc.State.Delay--
	}

	if mc.Tracer != nil {
		mc.Tracer.Trace(Event{
			Address:     address,
			Opcode:      opcode,
			Instruction: ins,
			Err:         err,
		})
	}

	if mc.Debugger != nil {
		mc.Debugger.Step(mc)
	}

	return err
}

// Cycle runs one Step and then holds the step cadence set by the Pacer.
func (mc *Machine) Cycle() error {
	if mc.Pacer == nil {
		return mc.Step()
	}

	start := mc.Pacer.now()
	err := mc.Step()
	mc.Pacer.Pace(start)

	return err
}

func (mc *Machine) setFlag(set bool) {
	if set {
		mc.State.Registers[REGISTER_FLAG] = 1
	} else {
		mc.State.Registers[REGISTER_FLAG] = 0
	}
}
