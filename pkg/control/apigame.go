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
func (a *api) status(w http.ResponseWriter, req *http.Request) {
	st := a.daemon.Status()
	sendResult(req, st, st.String(), w)
}

//
func (a *api) systems(w http.ResponseWriter, req *http.Request) {

	systems := a.daemon.Systems()

	var sb strings.Builder
	for _, s := range systems {
		sb.WriteString(fmt.Sprintf("%-14s%-28s%-14s%s\n", s.ID, s.Name,
			s.CoreName, strings.Join(s.Extensions, " ")))
	}

	sendResult(req, systems, sb.String(), w)
}

//
func (a *api) suggest(w http.ResponseWriter, req *http.Request) {

	file := getArg(req, "file")
	if file == "" {
		handleError(fmt.Errorf("no file"), http.StatusUnprocessableEntity, w)
		return
	}

	sys, err := a.daemon.SuggestSystem(req.Context(), file)
	if handleDaemonError(err, w) {
		return
	}

	if sys == nil {
		handleError(fmt.Errorf("no system can play '%s'", file),
			http.StatusNotFound, w)
		return
	}

	sendResult(req, sys, sys.ID+"\n", w)
}

/*
	start starts a game. The game is either given as a file path local to the
	daemon, or as a repository reference. The system is optional, if missing
	the daemon suggests one.
*/
func (a *api) start(w http.ResponseWriter, req *http.Request) {

	file := getArg(req, "ref")
	if file == "" {
		file = getArg(req, "file")
	}
	if file == "" {
		handleError(fmt.Errorf("no game file"), http.StatusUnprocessableEntity, w)
		return
	}

	if handleDaemonError(a.daemon.StartGame(req.Context(),
		getArg(req, "system"), file, getArg(req, "root")), w) {
		return
	}

	info := a.daemon.Status().Session
	sendResult(req, info,
		fmt.Sprintf("started %s on %s\n", info.MainPath, info.System), w)
}

//
func (a *api) stop(w http.ResponseWriter, req *http.Request) {
	if handleDaemonError(a.daemon.StopGame(req.Context()), w) {
		return
	}
	sendReply([]byte("game stopped\n"), http.StatusOK, w)
}

// control runs one of the player operations on the running game.
func (a *api) control(w http.ResponseWriter, req *http.Request) {

	op := getArg(req, "op")
	ctx := req.Context()
	var err error

	switch op {
	case "reset":
		err = a.daemon.ResetGame(ctx)
	case "pause":
		err = a.daemon.PauseGame(ctx)
	case "resume":
		err = a.daemon.ResumeGame(ctx)
	case "toggle":
		err = a.daemon.TogglePause(ctx, isFlagSet(req, "dismiss"))
	default:
		err = fmt.Errorf("unknown operation: %s", op)
	}

	if handleDaemonError(err, w) {
		return
	}

	st := a.daemon.Status()
	sendResult(req, st.Player, fmt.Sprintf("%s: game %s\n", op, st.Session.State), w)
}
