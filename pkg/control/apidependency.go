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

package control

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/xelalexv/retrix/pkg/importer"
)

//
func (a *api) dependencies(w http.ResponseWriter, req *http.Request) {

	deps := a.daemon.Dependencies()

	var sb strings.Builder
	for _, d := range deps {
		state := "missing"
		if d.Available {
			state = "available"
		}
		sb.WriteString(fmt.Sprintf("%-12s%-20s%-10s%s\n",
			d.Core, d.Name, state, d.Description))
	}
	if len(deps) == 0 {
		sb.WriteString("no system files required\n")
	}

	sendResult(req, deps, sb.String(), w)
}

/*
	importDependency installs a system file for a core. The file is taken from
	the request body, unless a ref is given, which can be a URL, a repository
	reference, or a file local to the daemon.
*/
func (a *api) importDependency(w http.ResponseWriter, req *http.Request) {

	coreName := getArg(req, "core")
	name := getArg(req, "name")
	ref := getArg(req, "ref")

	var body io.Reader
	if ref == "" {
		body = http.MaxBytesReader(w, req.Body, importer.MaxSize)
	}

	if handleDaemonError(a.daemon.ImportDependency(
		req.Context(), coreName, name, ref, body), w) {
		return
	}

	sendReply([]byte(fmt.Sprintf("imported %s for core %s\n", name, coreName)),
		http.StatusOK, w)
}
