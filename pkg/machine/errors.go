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
	"errors"
	"fmt"
)

var (
	ErrProgramTooLarge = errors.New("program exceeds available memory")
	ErrUnknownOpcode   = errors.New("unknown opcode")
)

// LoadError is returned when a program image cannot be placed in memory.
type LoadError struct {
	Size int
	Err  error
}

func (err *LoadError) Error() string {
	if errors.Is(err.Err, ErrProgramTooLarge) {
		return fmt.Sprintf(
			"loading program: %d bytes, limit %d: %v",
			err.Size, PROGRAM_MAX_SIZE, err.Err,
		)
	}

	return fmt.Sprintf("loading program: %v", err.Err)
}

func (err *LoadError) Unwrap() error {
	return err.Err
}

// DecodeError reports an opcode that matches no instruction family. It is
// recoverable: the program counter has already moved past the opcode.
type DecodeError struct {
	Address uint16
	Opcode  uint16
}

func (err *DecodeError) Error() string {
	return fmt.Sprintf("%#04x: %v %#04x", err.Address, ErrUnknownOpcode, err.Opcode)
}

func (err *DecodeError) Unwrap() error {
	return ErrUnknownOpcode
}
