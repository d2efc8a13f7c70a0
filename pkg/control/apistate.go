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
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"
)

//
func (a *api) save(w http.ResponseWriter, req *http.Request) {

	slot, err := getIntArg(req, "slot", 0)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	if handleDaemonError(a.daemon.SaveState(req.Context(), slot), w) {
		return
	}

	sendReply([]byte(fmt.Sprintf("saved state into slot %d\n", slot)),
		http.StatusOK, w)
}

//
func (a *api) load(w http.ResponseWriter, req *http.Request) {

	slot, err := getIntArg(req, "slot", 0)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	if handleDaemonError(a.daemon.LoadState(req.Context(), slot), w) {
		return
	}

	sendReply([]byte(fmt.Sprintf("loaded state from slot %d\n", slot)),
		http.StatusOK, w)
}

//
func (a *api) states(w http.ResponseWriter, req *http.Request) {

	slots, err := a.daemon.States(req.Context())
	if handleDaemonError(err, w) {
		return
	}

	var sb strings.Builder
	for _, s := range slots {
		sb.WriteString(fmt.Sprintf("slot %d  %6d bytes  %s\n",
			s.Number, s.Size, s.Modified.Format(time.RFC3339)))
	}
	if len(slots) == 0 {
		sb.WriteString("no saved states\n")
	}

	sendResult(req, slots, sb.String(), w)
}

// stateData sends the raw state saved in a slot.
func (a *api) stateData(w http.ResponseWriter, req *http.Request) {

	slot, err := getIntArg(req, "slot", 0)
	if handleError(err, http.StatusUnprocessableEntity, w) {
		return
	}

	data, err := a.daemon.StateData(req.Context(), slot)
	if handleDaemonError(err, w) {
		return
	}

	sendStreamReply(bytes.NewReader(data), http.StatusOK, w)
}
