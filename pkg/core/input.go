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

package core

// InputType identifies a joypad control of a core's input port.
type InputType int

const (
	InputJoypadB InputType = iota
	InputJoypadY
	InputJoypadSelect
	InputJoypadStart
	InputJoypadUp
	InputJoypadDown
	InputJoypadLeft
	InputJoypadRight
	InputJoypadA
	InputJoypadX
	InputJoypadL
	InputJoypadR
)

//
var inputNames = map[InputType]string{
	InputJoypadB:      "b",
	InputJoypadY:      "y",
	InputJoypadSelect: "select",
	InputJoypadStart:  "start",
	InputJoypadUp:     "up",
	InputJoypadDown:   "down",
	InputJoypadLeft:   "left",
	InputJoypadRight:  "right",
	InputJoypadA:      "a",
	InputJoypadX:      "x",
	InputJoypadL:      "l",
	InputJoypadR:      "r",
}

//
func (i InputType) String() string {
	if n, ok := inputNames[i]; ok {
		return n
	}
	return "unknown"
}
