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
	"net/url"
	"strings"

	"github.com/xelalexv/retrix/pkg/session"
)

//
func NewInput() *Input {
	i := &Input{}
	i.Runner = *NewRunner(
		"input [-a|--address {address}] -k|--key {input}",
		"inject input into running game",
		fmt.Sprintf(`
Use the input command to press a joypad button in the running game. Supported
inputs are: %s`, strings.Join(session.InjectedInputNames(), ", ")),
		"", runnerHelpEpilogue, i.Run)
	i.AddBaseSettings()
	i.AddSetting(&i.Key, "key", "k", "", nil, "input to inject", true)
	return i
}

//
type Input struct {
	Runner
	//
	Key string
}

//
func (i *Input) Run() error {
	i.ParseSettings()
	return i.apiPrint("PUT", "/input/"+url.PathEscape(i.Key), nil)
}
