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
	"path/filepath"
	"strings"
)

//
func NewStart() *Start {

	s := &Start{}
	s.Runner = *NewRunner(
		`start [-a|--address {address}] -f|--file {file or reference} [-s|--system {system}]
      [-r|--root {folder}]`,
		"start a game",
		`
Use the start command to start a game in the daemon. The game file can be a path
on the daemon's host, or a repository reference as returned by search, i.e.
repo://{path}. Archives are supported.`,
		"", `- If no system is given, the daemon picks one based on the file's extension.

- The root folder is only needed for multi-file images, if their files do not
  reside in the same folder as the game file.

`+runnerHelpEpilogue, s.Run)

	s.AddBaseSettings()
	s.AddSetting(&s.File, "file", "f", "", nil, "game file or reference", true)
	s.AddSetting(&s.System, "system", "s", "", nil, "system to start game on", false)
	s.AddSetting(&s.Root, "root", "r", "", nil, "root folder of multi-file image", false)

	return s
}

//
type Start struct {
	Runner
	//
	File   string
	System string
	Root   string
}

//
func (s *Start) Run() error {

	s.ParseSettings()

	file := s.File
	if !strings.Contains(file, "://") {
		if abs, err := filepath.Abs(file); err == nil {
			file = abs
		}
	}

	q := url.Values{}
	q.Set("file", file)
	if s.System != "" {
		q.Set("system", s.System)
	}
	if s.Root != "" {
		q.Set("root", s.Root)
	}

	return s.apiPrint("PUT", "/game?"+q.Encode(), nil)
}

//
func NewStop() *Stop {
	s := &Stop{}
	s.Runner = *NewRunner(
		"stop [-a|--address {address}]", "stop the running game",
		"\nUse the stop command to stop the running game.", "",
		runnerHelpEpilogue, s.Run)
	s.AddBaseSettings()
	return s
}

//
type Stop struct {
	Runner
}

//
func (s *Stop) Run() error {
	s.ParseSettings()
	return s.apiPrint("DELETE", "/game", nil)
}

//
var gameOps = map[string]string{
	"reset":  "reset the running game",
	"pause":  "pause the running game",
	"resume": "resume the paused game",
	"toggle": "toggle pause of the running game, as the pause key does",
}

// NewGameOp creates the command for one of the player operations reset,
// pause, resume, or toggle.
func NewGameOp(op string) *GameOp {

	short, ok := gameOps[op]
	if !ok {
		panic(fmt.Sprintf("unknown game operation: %s", op))
	}

	g := &GameOp{op: op}
	g.Runner = *NewRunner(
		fmt.Sprintf("%s [-a|--address {address}]", op), short,
		fmt.Sprintf("\nUse the %s command to %s.", op, short), "",
		runnerHelpEpilogue, g.Run)

	g.AddBaseSettings()
	if op == "toggle" {
		g.AddSetting(&g.Dismiss, "dismiss", "", "", false,
			"hide the player UI when resuming", false)
	}

	return g
}

//
type GameOp struct {
	Runner
	//
	Dismiss bool
	op      string
}

//
func (g *GameOp) Run() error {
	g.ParseSettings()
	path := "/game/" + g.op
	if g.Dismiss {
		path += "?dismiss"
	}
	return g.apiPrint("PUT", path, nil)
}
