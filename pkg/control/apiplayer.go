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
)

//
func (a *api) input(w http.ResponseWriter, req *http.Request) {
	in := getArg(req, "input")
	if handleDaemonError(a.daemon.InjectInput(req.Context(), in), w) {
		return
	}
	sendReply([]byte(fmt.Sprintf("injected %s\n", in)), http.StatusOK, w)
}

//
func (a *api) pointer(w http.ResponseWriter, req *http.Request) {
	if handleDaemonError(a.daemon.PointerMoved(req.Context()), w) {
		return
	}
	a.player(w, req)
}

//
func (a *api) tap(w http.ResponseWriter, req *http.Request) {
	if handleDaemonError(a.daemon.Tapped(req.Context()), w) {
		return
	}
	a.player(w, req)
}

//
func (a *api) fullScreen(w http.ResponseWriter, req *http.Request) {
	full := isFlagSet(req, "on")
	if !a.daemon.SetFullScreen(full) {
		handleError(fmt.Errorf("full screen mode could not be changed"),
			http.StatusConflict, w)
		return
	}
	a.player(w, req)
}

//
func (a *api) player(w http.ResponseWriter, req *http.Request) {
	p := a.daemon.Status().Player
	sendResult(req, p, fmt.Sprintf(
		"paused: %v, player UI: %v, pointer: %v, full screen: %v\n",
		p.Paused, p.DisplayPlayerUI, p.PointerVisible, p.FullScreen), w)
}
