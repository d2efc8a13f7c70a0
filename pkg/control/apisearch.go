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
)

//
func (a *api) search(w http.ResponseWriter, req *http.Request) {

	items, err := getIntArg(req, "items", 100)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	res, err := a.daemon.Search(getArg(req, "term"), items)
	if handleDaemonError(err, w) {
		return
	}

	var sb strings.Builder
	for _, h := range res.Hits {
		sb.WriteString(fmt.Sprintf("%-8s%s\n", h.System, h.Ref))
	}
	sb.WriteString(fmt.Sprintf("\ntotal hits: %d", res.Total))
	if !res.Complete {
		sb.WriteString(fmt.Sprintf(", showing first %d", len(res.Hits)))
	}
	sb.WriteString("\n")

	sendResult(req, res, sb.String(), w)
}
