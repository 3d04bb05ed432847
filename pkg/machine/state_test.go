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
	"bytes"
	"errors"
	"testing"

	"github.com/retroenv/retrogolib/assert"

	"github.com/lassandro/gochip8/pkg/machine"
)

type failingReader struct{}

var errBrokenMedia = errors.New("broken media")

func (failingReader) Read([]byte) (int, error) {
	return 0, errBrokenMedia
}

func TestReset(t *testing.T) {
	var mc machine.Machine

	mc.State.Registers[3] = 9
	mc.State.Delay = 9
	mc.State.Display[10] = machine.PIXEL_ON
	mc.State.Reset()

	assert.Equal(t, uint16(0x200), mc.State.Program)
	assert.Equal(t, uint8(0), mc.State.Registers[3])
	assert.Equal(t, uint8(0), mc.State.Delay)
	assert.Equal(t, uint32(0), mc.State.Display[10])

	// Glyph 0 and glyph F bracket the font table
	assert.Equal(t, []uint8{0xF0, 0x90, 0x90, 0x90, 0xF0}, mc.State.Memory[0:5])
	assert.Equal(t, []uint8{0xF0, 0x80, 0xF0, 0x80, 0x80}, mc.State.Memory[75:80])
	assert.Equal(t, machine.FONT[:], mc.State.Memory[:80])
}

func TestLoadProgram(t *testing.T) {
	var mc machine.Machine

	assert.NoError(t, mc.LoadProgram([]byte{0x60, 0x03, 0x70, 0x05}))
	assert.Equal(t, []uint8{0x60, 0x03, 0x70, 0x05}, mc.State.Memory[0x200:0x204])

	assert.NoError(t, mc.Step())
	assert.NoError(t, mc.Step())

	assert.Equal(t, uint8(8), mc.State.Registers[0])
	assert.Equal(t, uint16(0x204), mc.State.Program)
	assert.Equal(t, uint8(0), mc.State.Registers[0xF])
	assert.Equal(t, uint8(0), mc.State.Delay)
}

func TestLoadProgramLimit(t *testing.T) {
	var mc machine.Machine

	image := bytes.Repeat([]byte{0xAB}, machine.PROGRAM_MAX_SIZE)
	assert.NoError(t, mc.LoadProgram(image))
	assert.Equal(t, uint8(0xAB), mc.State.Memory[0xFFF])

	err := mc.LoadProgram(append(image, 0xCD))

	var loadErr *machine.LoadError
	assert.Equal(t, true, errors.As(err, &loadErr))
	assert.Equal(t, true, errors.Is(err, machine.ErrProgramTooLarge))
	assert.Equal(t, machine.PROGRAM_MAX_SIZE+1, loadErr.Size)

	// Rejected images leave a freshly reset machine behind
	assert.Equal(t, uint8(0), mc.State.Memory[0xFFF])
	assert.Equal(t, uint16(0x200), mc.State.Program)
}

func TestLoadBin(t *testing.T) {
	var mc machine.Machine

	assert.NoError(t, mc.LoadBin(bytes.NewReader([]byte{0x12, 0x00})))
	assert.Equal(t, uint8(0x12), mc.State.Memory[0x200])

	oversized := bytes.NewReader(make([]byte, machine.PROGRAM_MAX_SIZE*2))
	assert.Equal(t, true, errors.Is(mc.LoadBin(oversized), machine.ErrProgramTooLarge))

	err := mc.LoadBin(failingReader{})
	var loadErr *machine.LoadError
	assert.Equal(t, true, errors.As(err, &loadErr))
	assert.Equal(t, true, errors.Is(err, errBrokenMedia))
}

func TestDecodeErrorRecoverable(t *testing.T) {
	var mc machine.Machine

	assert.NoError(t, mc.LoadProgram([]byte{0x01, 0x23}))
	mc.State.Delay = 5

	err := mc.Step()

	var decodeErr *machine.DecodeError
	assert.Equal(t, true, errors.As(err, &decodeErr))
	assert.Equal(t, true, errors.Is(err, machine.ErrUnknownOpcode))
	assert.Equal(t, uint16(0x200), decodeErr.Address)
	assert.Equal(t, uint16(0x0123), decodeErr.Opcode)
	assert.Equal(t, uint16(0x202), mc.State.Program)
	assert.Equal(t, uint8(4), mc.State.Delay)
}

func TestAddWraps(t *testing.T) {
	var mc machine.Machine

	for vx := 0; vx < 256; vx++ {
		for kk := 0; kk < 256; kk++ {
			mc.State.Program = 0x200
			mc.State.Memory[0x200] = 0x71
			mc.State.Memory[0x201] = uint8(kk)
			mc.State.Registers[1] = uint8(vx)
			mc.State.Registers[0xF] = 0x77

			assert.NoError(t, mc.Step())

			if mc.State.Registers[1] != uint8((vx+kk)%256) {
				t.Fatalf("ADD V1, %#02x from %#02x: have %#02x", kk, vx, mc.State.Registers[1])
			}
			if mc.State.Registers[0xF] != 0x77 {
				t.Fatalf("ADD V1, %#02x from %#02x changed VF", kk, vx)
			}
		}
	}
}

func TestSubKeepsOnBorrow(t *testing.T) {
	var mc machine.Machine

	for vx := 0; vx < 256; vx++ {
		for vy := 0; vy < 256; vy++ {
			mc.State.Program = 0x200
			mc.State.Memory[0x200] = 0x81
			mc.State.Memory[0x201] = 0x25
			mc.State.Registers[1] = uint8(vx)
			mc.State.Registers[2] = uint8(vy)

			assert.NoError(t, mc.Step())

			want, flag := uint8(vx), uint8(0)
			if vx > vy {
				want, flag = uint8(vx-vy), 1
			}

			if mc.State.Registers[1] != want || mc.State.Registers[0xF] != flag {
				t.Fatalf(
					"SUB %#02x, %#02x: have V1=%#02x VF=%d",
					vx, vy, mc.State.Registers[1], mc.State.Registers[0xF],
				)
			}
		}
	}
}

func TestDrawTwiceClears(t *testing.T) {
	var mc machine.Machine

	// Glyph 8 drawn at the bottom right corner wraps on both axes
	program := []byte{
		0x60, 0x3E, // LD V0, $3E
		0x61, 0x1E, // LD V1, $1E
		0x62, 0x08, // LD V2, $08
		0xF2, 0x29, // LD F, V2
		0xD0, 0x15, // DRW V0, V1, $5
		0xD0, 0x15, // DRW V0, V1, $5
	}
	assert.NoError(t, mc.LoadProgram(program))

	for i := 0; i < 5; i++ {
		assert.NoError(t, mc.Step())
	}
	assert.Equal(t, uint8(0), mc.State.Registers[0xF])

	lit := 0
	for _, pixel := range mc.State.Display {
		if pixel == machine.PIXEL_ON {
			lit++
		}
	}
	assert.Equal(t, 16, lit)

	assert.NoError(t, mc.Step())
	assert.Equal(t, uint8(1), mc.State.Registers[0xF])
	assert.Equal(t, [machine.DISPLAY_SIZE]uint32{}, mc.State.Display)
}

func TestCallDepth(t *testing.T) {
	var mc machine.Machine

	// Each subroutine calls the next word, so the stack fills up
	assert.NoError(t, mc.LoadProgram([]byte{0x22, 0x00}))

	for i := 0; i < machine.STACK_DEPTH; i++ {
		assert.NoError(t, mc.Step())
		assert.Equal(t, uint16(i+1), mc.State.StackPtr)
	}

	assert.NoError(t, mc.Step())
	assert.Equal(t, uint16(machine.STACK_DEPTH), mc.State.StackPtr)
	assert.Equal(t, uint16(0x202), mc.State.Program)
}

func TestTracer(t *testing.T) {
	var mc machine.Machine
	var events []machine.Event

	mc.Tracer = machine.TracerFunc(func(ev machine.Event) {
		events = append(events, ev)
	})

	assert.NoError(t, mc.LoadProgram([]byte{0x6A, 0x02, 0xFF, 0xFF}))
	assert.NoError(t, mc.Step())
	_ = mc.Step()

	assert.Equal(t, 2, len(events))
	assert.Equal(t, uint16(0x200), events[0].Address)
	assert.Equal(t, uint16(0x6A02), events[0].Opcode)
	assert.Equal(t, machine.OP_LD_BYTE, events[0].Instruction.Kind)
	assert.NoError(t, events[0].Err)
	assert.Equal(t, uint16(0x202), events[1].Address)
	assert.Equal(t, true, errors.Is(events[1].Err, machine.ErrUnknownOpcode))
}

type countingDebugger struct {
	steps  int
	reads  []uint16
	writes []uint16
}

func (dbg *countingDebugger) Step(mc *machine.Machine) {
	dbg.steps++
}

func (dbg *countingDebugger) Read(addr uint16, mc *machine.Machine) {
	dbg.reads = append(dbg.reads, addr)
}

func (dbg *countingDebugger) Write(addr uint16, mc *machine.Machine) {
	dbg.writes = append(dbg.writes, addr)
}

func TestDebuggerHooks(t *testing.T) {
	var mc machine.Machine
	var dbg countingDebugger

	mc.Debugger = &dbg

	program := []byte{
		0xA3, 0x00, // LD I, $300
		0xF0, 0x33, // LD B, V0
	}
	assert.NoError(t, mc.LoadProgram(program))
	assert.NoError(t, mc.Step())
	assert.NoError(t, mc.Step())

	assert.Equal(t, 2, dbg.steps)
	assert.Equal(t, []uint16{0x200, 0x201, 0x202, 0x203}, dbg.reads)
	assert.Equal(t, []uint16{0x300, 0x301, 0x302}, dbg.writes)
}
