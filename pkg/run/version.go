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
	"io"
	"os"
	"sort"
	"strings"

	"github.com/xelalexv/retrix/pkg/control"
	"github.com/xelalexv/retrix/pkg/core"
	"github.com/xelalexv/retrix/pkg/daemon"
	"github.com/xelalexv/retrix/pkg/util"
)

//
func NewVersion() *Version {
	v := &Version{}
	v.Runner = *NewRunner(
		"version [-a|--address {address}]",
		"get client & daemon version info, with available cores and systems",
		"", "", "", v.Run)
	v.AddBaseSettings()
	return v
}

//
type Version struct {
	Runner
}

//
func (v *Version) Run() error {
	v.ParseSettings()
	PrintVersion(os.Stdout, v.daemonInfo())
	return nil
}

/*
	daemonInfo asks the daemon for its version, the state of its cores and
	index, and the systems it can run. Missing parts are left out, an
	unreachable daemon is reported as such.
*/
func (v *Version) daemonInfo() string {

	var ver control.Version
	if err := v.apiJSON("/version", &ver); err != nil {
		return "daemon:     not reachable\n"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("daemon:     %s\n", ver.Daemon))

	var st daemon.Status
	if err := v.apiJSON("/status", &st); err == nil {
		sb.WriteString(fmt.Sprintf("cores:      %s (%s)\n",
			strings.Join(ver.Cores, ", "), readiness(st.CoresReady)))
		sb.WriteString(fmt.Sprintf("index:      %s\n", readiness(st.IndexReady)))
	} else {
		sb.WriteString(fmt.Sprintf("cores:      %s\n", strings.Join(ver.Cores, ", ")))
	}

	var systems []core.System
	if err := v.apiJSON("/systems", &systems); err == nil && len(systems) > 0 {
		byCore := map[string][]string{}
		for _, s := range systems {
			byCore[s.CoreName] = append(byCore[s.CoreName], s.ID)
		}
		names := make([]string, 0, len(byCore))
		for c := range byCore {
			names = append(names, c)
		}
		sort.Strings(names)
		for _, c := range names {
			sb.WriteString(fmt.Sprintf("systems:    %s: %s\n",
				c, strings.Join(byCore[c], " ")))
		}
	}

	return sb.String()
}

//
func readiness(ready bool) string {
	if ready {
		return "ready"
	}
	return "initializing"
}

//
func PrintVersion(out io.Writer, remote string) {
	fmt.Fprintf(out, `
  ____      _        _
 |  _ \ ___| |_ _ __(_)_  __
 | |_) / _ \ __| '__| \ \/ /
 |  _ <  __/ |_| |  | |>  <
 |_| \_\___|\__|_|  |_/_/\_\

 multi-platform emulator front-end

client:     %s
`, util.RetrixVersion)
	if remote != "" {
		fmt.Fprint(out, remote)
	}
	fmt.Fprintln(out)
}
