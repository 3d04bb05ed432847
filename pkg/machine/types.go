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

type Kind uint8

// Instruction is a decoded opcode. Only the operand fields used by Kind are
// meaningful.
type Instruction struct {
	Kind   Kind
	Opcode uint16
	X      uint8
	Y      uint8
	N      uint8
	KK     uint8
	NNN    uint16
}

type MachineState struct {
	Registers [REGISTER_COUNT]uint8
	Index     uint16
	Program   uint16
	Stack     [STACK_DEPTH]uint16
	StackPtr  uint16
	Delay     uint8
	Memory    [MEMORY_SIZE]uint8
	Display   [DISPLAY_SIZE]uint32
	Keypad    [KEYPAD_SIZE]uint8
}

type MachineDebugger interface {
	Step(mc *Machine)
	Read(addr uint16, mc *Machine)
	Write(addr uint16, mc *Machine)
}

// Event describes one executed instruction.
type Event struct {
	Address     uint16
	Opcode      uint16
	Instruction Instruction
	Err         error
}

type Tracer interface {
	Trace(ev Event)
}

// TracerFunc adapts a function to the Tracer interface.
type TracerFunc func(ev Event)

func (fn TracerFunc) Trace(ev Event) {
	fn(ev)
}

type RandomSource interface {
	Intn(n int) int
}

type Machine struct {
	State    MachineState
	Debugger MachineDebugger
	Tracer   Tracer
	Random   RandomSource
	Pacer    *Pacer
}
