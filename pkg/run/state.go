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

package run

import (
	"fmt"
)

//
func NewSave() *Save {
	s := &Save{}
	s.Runner = *NewRunner(
		"save [-a|--address {address}] -s|--slot {slot}",
		"save state of running game",
		`
Use the save command to save the state of the running game into one of the save
slots 1 through 6. A paused game is resumed after saving.`,
		"", runnerHelpEpilogue, s.Run)
	s.AddBaseSettings()
	s.AddSetting(&s.Slot, "slot", "s", "", nil, "save slot (1-6)", true)
	return s
}

//
type Save struct {
	Runner
	//
	Slot int
}

//
func (s *Save) Run() error {
	s.ParseSettings()
	return s.apiPrint("PUT", fmt.Sprintf("/state/%d", s.Slot), nil)
}

//
func NewLoad() *Load {
	l := &Load{}
	l.Runner = *NewRunner(
		"load [-a|--address {address}] -s|--slot {slot}",
		"load saved state into running game",
		`
Use the load command to restore the running game from the state saved in a slot.
A paused game is resumed after loading.`,
		"", runnerHelpEpilogue, l.Run)
	l.AddBaseSettings()
	l.AddSetting(&l.Slot, "slot", "s", "", nil, "save slot (1-6)", true)
	return l
}

//
type Load struct {
	Runner
	//
	Slot int
}

//
func (l *Load) Run() error {
	l.ParseSettings()
	return l.apiPrint("PUT", fmt.Sprintf("/state/%d/load", l.Slot), nil)
}

//
func NewStates() *States {
	s := &States{}
	s.Runner = *NewRunner(
		"states [-a|--address {address}]",
		"list saved states of running game",
		"\nUse the states command to list the occupied save slots of the running game.",
		"", runnerHelpEpilogue, s.Run)
	s.AddBaseSettings()
	return s
}

//
type States struct {
	Runner
}

//
func (s *States) Run() error {
	s.ParseSettings()
	return s.apiPrint("GET", "/state", nil)
}
