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

//go:build sdl
// +build sdl

package main

import (
	"fmt"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/lassandro/gochip8/pkg/machine"
)

const windowTitle = "gochip8"

// Scancodes in keypad order, with Y doubling as Z
var sdlKeymap = [machine.KEYPAD_SIZE][]int{
	{sdl.SCANCODE_1}, {sdl.SCANCODE_2}, {sdl.SCANCODE_3}, {sdl.SCANCODE_4},
	{sdl.SCANCODE_Q}, {sdl.SCANCODE_W}, {sdl.SCANCODE_E}, {sdl.SCANCODE_R},
	{sdl.SCANCODE_A}, {sdl.SCANCODE_S}, {sdl.SCANCODE_D}, {sdl.SCANCODE_F},
	{sdl.SCANCODE_Z, sdl.SCANCODE_Y}, {sdl.SCANCODE_X}, {sdl.SCANCODE_C},
	{sdl.SCANCODE_V},
}

type sdlFrontend struct {
	window   *sdl.Window
	renderer *sdl.Renderer
	scale    int32
}

func newSDLFrontend(scale int) (frontend, error) {
	runtime.LockOSThread()

	if scale < 1 {
		scale = 1
	}

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("sdl: %w", err)
	}

	fe := &sdlFrontend{scale: int32(scale)}

	var err error

	fe.window, err = sdl.CreateWindow(windowTitle,
		int32(sdl.WINDOWPOS_UNDEFINED), int32(sdl.WINDOWPOS_UNDEFINED),
		machine.DISPLAY_WIDTH*fe.scale, machine.DISPLAY_HEIGHT*fe.scale,
		uint32(sdl.WINDOW_SHOWN))

	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("sdl: %w", err)
	}

	fe.renderer, err = sdl.CreateRenderer(fe.window, -1, uint32(sdl.RENDERER_ACCELERATED))

	if err != nil {
		fe.window.Destroy()
		sdl.Quit()
		return nil, fmt.Errorf("sdl: %w", err)
	}

	return fe, nil
}

func (fe *sdlFrontend) Poll(keypad *[machine.KEYPAD_SIZE]uint8) (bool, error) {
	for ev := sdl.PollEvent(); ev != nil; ev = sdl.PollEvent() {
		switch ev.(type) {
		case *sdl.QuitEvent:
			return true, nil
		}
	}

	state := sdl.GetKeyboardState()

	if state[sdl.SCANCODE_ESCAPE] != 0 {
		return true, nil
	}

	for key, scancodes := range sdlKeymap {
		for _, scancode := range scancodes {
			if state[scancode] != 0 {
				keypad[key] = 1
			}
		}
	}

	return false, nil
}

func (fe *sdlFrontend) Render(display *[machine.DISPLAY_SIZE]uint32) error {
	fe.renderer.SetDrawColor(0, 0, 0, 255)

	if err := fe.renderer.Clear(); err != nil {
		return err
	}

	fe.renderer.SetDrawColor(255, 255, 255, 255)

	for i, pixel := range display {
		if pixel == machine.PIXEL_OFF {
			continue
		}

		x := int32(i % machine.DISPLAY_WIDTH)
		y := int32(i / machine.DISPLAY_WIDTH)

		err := fe.renderer.FillRect(&sdl.Rect{
			X: x * fe.scale, Y: y * fe.scale, W: fe.scale, H: fe.scale,
		})

		if err != nil {
			return err
		}
	}

	fe.renderer.Present()

	return nil
}

func (fe *sdlFrontend) Close() error {
	if err := fe.renderer.Destroy(); err != nil {
		return err
	}

	if err := fe.window.Destroy(); err != nil {
		return err
	}

	sdl.Quit()

	return nil
}
