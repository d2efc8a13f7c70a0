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
	"net/http"
	"strings"

	"github.com/xelalexv/retrix/pkg/core"
	"github.com/xelalexv/retrix/pkg/util"
)

//
type Version struct {
	Daemon string   `json:"daemon"`
	Cores  []string `json:"cores"`
}

//
func (v *Version) String() string {
	return fmt.Sprintf("daemon:     %s\ncores:      %s\n",
		v.Daemon, strings.Join(v.Cores, ", "))
}

//
func (a *api) version(w http.ResponseWriter, req *http.Request) {
	ver := &Version{Daemon: util.RetrixVersion, Cores: core.Factories()}
	sendResult(req, ver, ver.String(), w)
}
