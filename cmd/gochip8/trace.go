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
	"io"
	"os"

	"github.com/retroenv/retrogolib/log"
	"golang.org/x/exp/slog"

	"github.com/lassandro/gochip8/pkg/machine"
)

// newLogger returns the logger the driver reports runtime anomalies to.
func newLogger(output io.Writer) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = output
	return log.NewWithConfig(cfg)
}

// newTracer writes one JSON record per executed instruction to filename.
func newTracer(filename string) (machine.Tracer, func() error, error) {
	file, err := os.Create(filename)

	if err != nil {
		return nil, nil, err
	}

	logger := log.NewWithConfig(log.Config{
		Level:   log.DebugLevel,
		Handler: slog.HandlerOptions{Level: log.DebugLevel}.NewJSONHandler(file),
	})

	return traceTo(logger), file.Close, nil
}

func traceTo(logger *log.Logger) machine.Tracer {
	return machine.TracerFunc(func(ev machine.Event) {
		if ev.Err != nil {
			logger.Warn("step",
				log.Uint16("addr", ev.Address),
				log.Uint16("opcode", ev.Opcode),
				log.Err(ev.Err))
			return
		}

		logger.Debug("step",
			log.Uint16("addr", ev.Address),
			log.Uint16("opcode", ev.Opcode),
			log.String("instr", ev.Instruction.String()))
	})
}
