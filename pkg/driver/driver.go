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

package driver

import (
	"context"
	"errors"
	"fmt"

	"github.com/retroenv/retrogolib/log"

	"github.com/lassandro/gochip8/pkg/machine"
)

// Frontend connects the machine to a host display and input device.
type Frontend interface {
	// Poll stores the held keys into keypad. A true quit ends the run.
	Poll(keypad *[machine.KEYPAD_SIZE]uint8) (quit bool, err error)

	Render(display *[machine.DISPLAY_SIZE]uint32) error
}

// Run drives mc until ctx is cancelled or the frontend asks to quit. Each
// iteration polls input, cycles the machine once, renders the display and
// releases every key again.
//
// Unknown opcodes do not stop the run. Each distinct one is logged a single
// time through logger at warning level. logger may be nil.
func Run(
	ctx context.Context,
	mc *machine.Machine,
	fe Frontend,
	logger *log.Logger,
) error {
	reported := make(map[machine.DecodeError]bool)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		quit, err := fe.Poll(&mc.State.Keypad)

		if err != nil {
			return fmt.Errorf("polling input: %w", err)
		}

		if quit {
			return nil
		}

		if err := mc.Cycle(); err != nil {
			var decodeErr *machine.DecodeError

			if !errors.As(err, &decodeErr) {
				return err
			}

			if !reported[*decodeErr] {
				reported[*decodeErr] = true

				if logger != nil {
					logger.Warn("unknown opcode",
						log.Uint16("address", decodeErr.Address),
						log.Uint16("opcode", decodeErr.Opcode))
				}
			}
		}

		if err := fe.Render(&mc.State.Display); err != nil {
			return fmt.Errorf("rendering display: %w", err)
		}

		mc.State.Keypad = [machine.KEYPAD_SIZE]uint8{}
	}
}
