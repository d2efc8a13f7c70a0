/*
   Retrix - multi-platform emulator front-end
   Copyright (c) 2022, The Retrix Authors

   This file is part of Retrix.

   Retrix is free software: you can redistribute it and/or modify
   it under the terms of the GNU General Public License as published by
   the Free Software Foundation, either version 3 of the License, or
   (at your option) any later version.

   Retrix is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
   GNU General Public License for more details.

   You should have received a copy of the GNU General Public License
   along with Retrix. If not, see <http://www.gnu.org/licenses/>.
*/

package daemon

import (
	"context"
	"fmt"
)

//
type cmdType int

const (
	cmdStart cmdType = iota
	cmdStop
	cmdReset
	cmdPause
	cmdResume
	cmdToggle
	cmdSave
	cmdLoad
	cmdInput
	cmdPointer
	cmdTapped
)

var cmdNames = map[cmdType]string{
	cmdStart:   "START",
	cmdStop:    "STOP",
	cmdReset:   "RESET",
	cmdPause:   "PAUSE",
	cmdResume:  "RESUME",
	cmdToggle:  "TOGGLE",
	cmdSave:    "SAVE",
	cmdLoad:    "LOAD",
	cmdInput:   "INPUT",
	cmdPointer: "POINTER",
	cmdTapped:  "TAPPED",
}

//
func (t cmdType) String() string {
	if n, ok := cmdNames[t]; ok {
		return n
	}
	return fmt.Sprintf("CMD(%d)", int(t))
}

// gating is what needs to be given for a command to be accepted
type gating int

const (
	// accepted at any time, queued behind running commands
	gateNone gating = iota
	// rejected while another gated command is in flight
	gateFlight
	// additionally requires the player to be active, i.e. a game running
	gateCore
)

//
func (t cmdType) gating() gating {
	switch t {
	case cmdStart, cmdStop:
		return gateFlight
	case cmdReset, cmdPause, cmdResume, cmdToggle, cmdSave, cmdLoad:
		return gateCore
	}
	return gateNone
}

//
type command struct {
	cmd  cmdType
	ctx  context.Context
	args []interface{}
	done chan error
}

//
func newCommand(ctx context.Context, cmd cmdType, args ...interface{}) *command {
	return &command{cmd: cmd, ctx: ctx, args: args, done: make(chan error, 1)}
}

//
func (c *command) exec(d *Daemon) error {
	switch c.cmd {
	case cmdStart:
		return c.start(d)
	case cmdStop:
		return c.stop(d)
	case cmdReset:
		return c.reset(d)
	case cmdPause:
		return c.pause(d)
	case cmdResume:
		return c.resume(d)
	case cmdToggle:
		return c.toggle(d)
	case cmdSave:
		return c.save(d)
	case cmdLoad:
		return c.load(d)
	case cmdInput:
		return c.input(d)
	case cmdPointer:
		return c.pointer(d)
	case cmdTapped:
		return c.tapped(d)
	}
	return fmt.Errorf("unknown command: %v", c.cmd)
}

//
func (c *command) arg(ix int) interface{} {
	if ix < len(c.args) {
		return c.args[ix]
	}
	return nil
}

//
func (c *command) stringArg(ix int) string {
	if s, ok := c.arg(ix).(string); ok {
		return s
	}
	return ""
}

//
func (c *command) intArg(ix int) int {
	if i, ok := c.arg(ix).(int); ok {
		return i
	}
	return 0
}

//
func (c *command) boolArg(ix int) bool {
	if b, ok := c.arg(ix).(bool); ok {
		return b
	}
	return false
}
