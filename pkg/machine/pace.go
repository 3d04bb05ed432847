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
	"time"
)

// DEFAULT_RATE steps per second also makes the delay timer, which decays
// once per step, run at 60Hz.
const DEFAULT_RATE = 60

// Pacer throttles the step rate by sleeping away whatever is left of a fixed
// per-step budget. It is advisory: a slow host simply runs slower.
type Pacer struct {
	Budget time.Duration

	Now   func() time.Time
	Sleep func(time.Duration)
}

func NewPacer(stepsPerSecond int) *Pacer {
	pc := &Pacer{}
	pc.SetRate(stepsPerSecond)
	return pc
}

// SetRate changes the budget to match stepsPerSecond. Rates below one step
// per second fall back to DEFAULT_RATE.
func (pc *Pacer) SetRate(stepsPerSecond int) {
	if stepsPerSecond < 1 {
		stepsPerSecond = DEFAULT_RATE
	}
	pc.Budget = time.Second / time.Duration(stepsPerSecond)
}

func (pc *Pacer) now() time.Time {
	if pc.Now != nil {
		return pc.Now()
	}
	return time.Now()
}

// Pace sleeps for the remainder of the budget of a step that began at
// start. A remainder outside (0, Budget] means the step overran or the
// clock jumped, and no sleep happens.
func (pc *Pacer) Pace(start time.Time) time.Duration {
	remain := pc.Budget - pc.now().Sub(start)

	if remain <= 0 || remain > pc.Budget {
		return 0
	}

	if pc.Sleep != nil {
		pc.Sleep(remain)
	} else {
		time.Sleep(remain)
	}

	return remain
}
