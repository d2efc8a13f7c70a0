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

package session

import (
	"fmt"
	"strings"

	"github.com/xelalexv/retrix/pkg/core"
)

// InjectedInput is an input that a front-end injects on behalf of the user,
// e.g. from an on-screen game pad.
type InjectedInput int

const (
	InjectedJoypadA InjectedInput = iota
	InjectedJoypadB
	InjectedJoypadDown
	InjectedJoypadLeft
	InjectedJoypadRight
	InjectedJoypadSelect
	InjectedJoypadStart
	InjectedJoypadUp
	InjectedJoypadX
	InjectedJoypadY
)

var injectedInputNames = map[InjectedInput]string{
	InjectedJoypadA:      "a",
	InjectedJoypadB:      "b",
	InjectedJoypadDown:   "down",
	InjectedJoypadLeft:   "left",
	InjectedJoypadRight:  "right",
	InjectedJoypadSelect: "select",
	InjectedJoypadStart:  "start",
	InjectedJoypadUp:     "up",
	InjectedJoypadX:      "x",
	InjectedJoypadY:      "y",
}

var injectedInputMapping = map[InjectedInput]core.InputType{
	InjectedJoypadA:      core.InputJoypadA,
	InjectedJoypadB:      core.InputJoypadB,
	InjectedJoypadDown:   core.InputJoypadDown,
	InjectedJoypadLeft:   core.InputJoypadLeft,
	InjectedJoypadRight:  core.InputJoypadRight,
	InjectedJoypadSelect: core.InputJoypadSelect,
	InjectedJoypadStart:  core.InputJoypadStart,
	InjectedJoypadUp:     core.InputJoypadUp,
	InjectedJoypadX:      core.InputJoypadX,
	InjectedJoypadY:      core.InputJoypadY,
}

//
func (i InjectedInput) String() string {
	if n, ok := injectedInputNames[i]; ok {
		return n
	}
	return fmt.Sprintf("InjectedInput(%d)", int(i))
}

// CoreInput returns the core input an injected input maps to.
func (i InjectedInput) CoreInput() (core.InputType, bool) {
	in, ok := injectedInputMapping[i]
	return in, ok
}

// ParseInjectedInput parses an input name such as "start", case-insensitive.
func ParseInjectedInput(name string) (InjectedInput, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	for i, in := range injectedInputNames {
		if in == n {
			return i, nil
		}
	}
	return -1, fmt.Errorf("unknown input: '%s'", name)
}

// InjectedInputNames lists the names of all injectable inputs.
func InjectedInputNames() []string {
	ret := make([]string, 0, len(injectedInputNames))
	for i := InjectedJoypadA; i <= InjectedJoypadY; i++ {
		ret = append(ret, injectedInputNames[i])
	}
	return ret
}
