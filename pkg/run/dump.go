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
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

//
func NewDump() *Dump {

	d := &Dump{}
	d.Runner = *NewRunner(
		"dump [-a|--address {address}] -s|--slot {slot} [-o|--output {file}]",
		"dump saved state",
		`
Use the dump command to output a hex dump of a state saved for the running game,
or to write the raw state into a file.`,
		"", runnerHelpEpilogue, d.Run)

	d.AddBaseSettings()
	d.AddSetting(&d.Slot, "slot", "s", "", nil, "save slot (1-6)", true)
	d.AddSetting(&d.Output, "output", "o", "", nil,
		"write raw state to this file instead of dumping", false)

	return d
}

//
type Dump struct {
	//
	Runner
	//
	Slot   int
	Output string
}

//
func (d *Dump) Run() error {

	d.ParseSettings()

	resp, err := d.apiCall("GET", fmt.Sprintf("/state/%d", d.Slot), false, nil)
	if err != nil {
		return err
	}
	defer resp.Close()

	if d.Output != "" {
		f, err := os.Create(d.Output)
		if err != nil {
			return err
		}
		if _, err := io.Copy(f, resp); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}

	dumper := hex.Dumper(os.Stdout)
	defer fmt.Println()
	defer dumper.Close()

	_, err = io.Copy(dumper, resp)
	return err
}
