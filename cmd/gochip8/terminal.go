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

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/lassandro/gochip8/pkg/machine"
)

const keyEscape = 0x1B

// Host keys in keypad order. Y doubles as Z for QWERTZ layouts.
var terminalKeymap = map[byte]uint8{
	'1': 0x0, '2': 0x1, '3': 0x2, '4': 0x3,
	'q': 0x4, 'w': 0x5, 'e': 0x6, 'r': 0x7,
	'a': 0x8, 's': 0x9, 'd': 0xA, 'f': 0xB,
	'z': 0xC, 'x': 0xD, 'c': 0xE, 'v': 0xF,
	'y': 0xC,
}

// terminalFrontend reads keys from a raw terminal and draws the display with
// half-block characters, two display rows per text row.
//
// Terminals report presses but never releases, so a key stays held for a
// number of polls after its last byte arrives.
type terminalFrontend struct {
	in   io.Reader
	out  *bufio.Writer
	hold int

	held  [machine.KEYPAD_SIZE]int
	frame [machine.DISPLAY_SIZE]uint32
	drawn bool
	buf   [64]byte
}

func makeTerminal(in io.Reader, out io.Writer, hold int) *terminalFrontend {
	if hold < 1 {
		hold = 1
	}

	return &terminalFrontend{
		in:   in,
		out:  bufio.NewWriter(out),
		hold: hold,
	}
}

func newTerminalFrontend(in *os.File, out *os.File, rate int) (frontend, error) {
	if err := enterRawTerm(); err != nil {
		return nil, fmt.Errorf("terminal: %w", err)
	}

	if cols, rows, err := termSize(); err == nil {
		if cols < machine.DISPLAY_WIDTH || rows < machine.DISPLAY_HEIGHT/2 {
			log.Printf(
				"terminal is %dx%d, display needs %dx%d",
				cols, rows, machine.DISPLAY_WIDTH, machine.DISPLAY_HEIGHT/2,
			)
		}
	}

	// Roughly the autorepeat delay of most terminals
	fe := makeTerminal(in, out, rate/2)

	fmt.Fprint(fe.out, "\033[2J\033[?25l")

	return fe, nil
}

func (fe *terminalFrontend) Poll(keypad *[machine.KEYPAD_SIZE]uint8) (bool, error) {
	for i := range fe.held {
		if fe.held[i] > 0 {
			fe.held[i]--
		}
	}

	n, err := fe.in.Read(fe.buf[:])

	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}

	input := fe.buf[:n]

	for i := 0; i < len(input); i++ {
		b := input[i]

		if b == keyEscape {
			// A lone escape quits, escape sequences (arrow keys) are skipped
			if i+1 == len(input) || input[i+1] != '[' {
				return true, nil
			}

			i += 2
			continue
		}

		if b >= 'A' && b <= 'Z' {
			b += 'a' - 'A'
		}

		if key, ok := terminalKeymap[b]; ok {
			fe.held[key] = fe.hold
		}
	}

	for i, count := range fe.held {
		if count > 0 {
			keypad[i] = 1
		}
	}

	return false, nil
}

func (fe *terminalFrontend) Render(display *[machine.DISPLAY_SIZE]uint32) error {
	if fe.drawn && fe.frame == *display {
		return nil
	}

	fe.frame = *display
	fe.drawn = true

	fe.out.WriteString("\033[H")

	for y := 0; y < machine.DISPLAY_HEIGHT; y += 2 {
		for x := 0; x < machine.DISPLAY_WIDTH; x++ {
			top := display[y*machine.DISPLAY_WIDTH+x] != machine.PIXEL_OFF
			bottom := display[(y+1)*machine.DISPLAY_WIDTH+x] != machine.PIXEL_OFF

			switch {
			case top && bottom:
				fe.out.WriteRune('█')
			case top:
				fe.out.WriteRune('▀')
			case bottom:
				fe.out.WriteRune('▄')
			default:
				fe.out.WriteByte(' ')
			}
		}

		fe.out.WriteString("\r\n")
	}

	return fe.out.Flush()
}

func (fe *terminalFrontend) Close() error {
	fe.out.WriteString("\033[?25h")
	err := fe.out.Flush()
	exitRawTerm()
	return err
}
