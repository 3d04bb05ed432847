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
	"context"
	"encoding/gob"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/retroenv/retrogolib/buildinfo"

	"github.com/lassandro/gochip8/pkg/assembler"
	"github.com/lassandro/gochip8/pkg/debugger"
	"github.com/lassandro/gochip8/pkg/driver"
	"github.com/lassandro/gochip8/pkg/machine"
	"github.com/lassandro/gochip8/pkg/statsview"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

var helpvar bool
var versionvar bool
var debugvar bool
var sdlvar bool
var statsvar bool
var ratevar int
var scalevar int
var seedvar int64
var tracevar string

var shouldexit bool

const usage = "gochip8 [-debug] [-rate N] [-seed N] [-trace file] [-sdl] filename"

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&versionvar, "version", false, "Displays the program version")
	flag.BoolVar(&debugvar, "debug", false, "Runs the machine in a debug CLI")
	flag.BoolVar(
		&sdlvar, "sdl", false,
		"Displays the machine in an SDL window instead of the terminal",
	)
	flag.BoolVar(
		&statsvar, "stats", false,
		fmt.Sprintf("Serves runtime statistics on %s", statsview.Address),
	)
	flag.IntVar(
		&ratevar, "rate", machine.DEFAULT_RATE,
		"Instructions executed per second, which is also the delay timer rate",
	)
	flag.IntVar(&scalevar, "scale", 10, "Window pixels per display pixel")
	flag.Int64Var(
		&seedvar, "seed", 0,
		"Seeds the random number generator for reproducible runs",
	)
	flag.StringVar(
		&tracevar, "trace", "",
		"Writes a JSON record of every executed instruction to a file",
	)
}

// flagPassed reports whether name was set on the command line, which
// tells an explicit zero apart from the default.
func flagPassed(fs *flag.FlagSet, name string) bool {
	passed := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			passed = true
		}
	})
	return passed
}

// frontend is a driver.Frontend holding host resources.
type frontend interface {
	driver.Frontend
	Close() error
}

func loadDebugger(romfile string, rom *os.File) *debugger.Debugger {
	var dbg debugger.Debugger
	dbg.HandleBreak = handleBreak
	dbg.HandleRead = handleRead
	dbg.HandleWrite = handleWrite
	dbg.Binary = rom

	filename := filepath.Dir(romfile) + "/" + strings.ReplaceAll(
		filepath.Base(romfile), filepath.Ext(romfile), ".c8db",
	)

	if file, err := os.Open(filename); err == nil {
		var symtable assembler.SymTable

		if err := gob.NewDecoder(file).Decode(&symtable); err == nil {
			dbg.SymTable = &symtable
		} else {
			log.Println("Error loading symbol file")
			log.Println(err)
		}

		file.Close()
	} else {
		log.Println("Error loading symbol file")
		log.Println(err)
	}

	if dbg.SymTable != nil && dbg.SymTable.Source != "" {
		if file, err := os.Open(dbg.SymTable.Source); err == nil {
			dbg.Source = file
		} else {
			log.Println("Error loading source file")
			log.Println(err)
		}
	}

	return &dbg
}

func gochip8() int {
	flag.Parse()

	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	if versionvar {
		fmt.Printf("version: %s\n", buildinfo.Version(version, commit, date))
		return 0
	}

	args := flag.Args()

	if len(args) != 1 {
		log.Println(usage)
		return 1
	}

	file, err := os.Open(args[0])

	if err != nil {
		log.Println(err)
		return 1
	}

	defer file.Close()

	var mc machine.Machine
	mc.Pacer = machine.NewPacer(ratevar)

	if flagPassed(flag.CommandLine, "seed") {
		mc.Random = rand.New(rand.NewSource(seedvar))
	}

	if err := mc.LoadBin(file); err != nil {
		log.Println(err)
		return 1
	}

	if tracevar != "" {
		tracer, closer, err := newTracer(tracevar)

		if err != nil {
			log.Println("Error creating trace file")
			log.Println(err)
			return 1
		}

		defer closer()
		mc.Tracer = tracer
	}

	if statsvar {
		if statsview.Available() {
			defer statsview.Launch(os.Stderr)()
		} else {
			log.Println("Statistics require a build with the statsview tag")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if debugvar {
		dbg := loadDebugger(args[0], file)
		mc.Debugger = dbg

		if src, ok := dbg.Source.(*os.File); ok {
			defer src.Close()
		}

		// SIGINT breaks into the debugger instead of ending the run
		stop()
		ctx = context.Background()

		c := make(chan os.Signal, 1)
		defer close(c)

		signal.Notify(c, os.Interrupt)
		defer signal.Stop(c)

		go func() {
			for range c {
				fmt.Println()
				dbg.Break = true
			}
		}()
	}

	var fe frontend

	if sdlvar {
		fe, err = newSDLFrontend(scalevar)
	} else {
		fe, err = newTerminalFrontend(os.Stdin, os.Stdout, ratevar)
	}

	if err != nil {
		log.Println(err)
		return 1
	}

	defer fe.Close()

	if debugvar {
		debugREPL(mc.Debugger.(*debugger.Debugger), &mc)
	}

	if shouldexit {
		return 0
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	quitter = cancel

	err = driver.Run(ctx, &mc, fe, newLogger(os.Stderr))

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Println(err)
		return 1
	}

	return 0
}

func main() {
	os.Exit(gochip8())
}
