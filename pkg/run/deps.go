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
	"os"
	"strings"

	"github.com/xelalexv/retrix/pkg/importer"
)

//
func NewDeps() *Deps {
	d := &Deps{}
	d.Runner = *NewRunner(
		"deps [-a|--address {address}]", "list system files required by cores",
		`
Use the deps command to list the system files, e.g. BIOS images, the cores need,
and whether they are present. Missing files can be installed with import.`,
		"", runnerHelpEpilogue, d.Run)
	d.AddBaseSettings()
	return d
}

//
type Deps struct {
	Runner
}

//
func (d *Deps) Run() error {
	d.ParseSettings()
	return d.apiPrint("GET", "/dependencies", nil)
}

//
func NewImport() *Import {

	i := &Import{}
	i.Runner = *NewRunner(
		`import [-a|--address {address}] -c|--core {core} -n|--name {system file}
      (-i|--input {file} | -r|--ref {URL or reference}) [-y|--yes]`,
		"import system file for a core",
		`
Use the import command to install a system file required by a core. The file is
either uploaded from a local file, or fetched by the daemon from a URL, or a
repository reference.`,
		"", `- The file's checksum is verified if the core specifies one.

`+runnerHelpEpilogue, i.Run)

	i.AddBaseSettings()
	i.AddSetting(&i.Core, "core", "c", "", nil, "core requiring the file", true)
	i.AddSetting(&i.Name, "name", "n", "", nil, "name of system file", true)
	i.AddSetting(&i.Input, "input", "i", "", nil, "local file to upload", false)
	i.AddSetting(&i.Ref, "ref", "r", "", nil,
		"URL or repository reference for the daemon to fetch", false)
	i.AddSetting(&i.Yes, "yes", "y", "", false,
		"replace existing file without confirmation", false)

	return i
}

//
type Import struct {
	Runner
	//
	Core  string
	Name  string
	Input string
	Ref   string
	Yes   bool
}

//
func (i *Import) Run() error {

	i.ParseSettings()

	if (i.Input == "") == (i.Ref == "") {
		return fmt.Errorf("either input file or reference required")
	}

	if present, err := i.present(); err != nil {
		return err
	} else if present && !i.Yes && !GetUserConfirmation(fmt.Sprintf(
		"\nsystem file %s for core %s is already present, replace?",
		i.Name, i.Core)) {
		return nil
	}

	path := fmt.Sprintf("/dependencies/%s/%s",
		url.PathEscape(i.Core), url.PathEscape(i.Name))

	if i.Ref != "" {
		return i.apiPrint("PUT", path+"?ref="+url.QueryEscape(i.Ref), nil)
	}

	f, err := os.Open(i.Input)
	if err != nil {
		return err
	}
	defer f.Close()

	return i.apiPrint("PUT", path, f)
}

// present determines whether the system file is already installed.
func (i *Import) present() (bool, error) {

	var deps []importer.Status
	if err := i.apiJSON("/dependencies", &deps); err != nil {
		return false, err
	}

	for _, d := range deps {
		if d.Core == i.Core && strings.EqualFold(d.Name, i.Name) {
			return d.Available, nil
		}
	}
	return false, fmt.Errorf("core '%s' does not require '%s'", i.Core, i.Name)
}
