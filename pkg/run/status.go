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
	"net/url"
)

//
func NewStatus() *Status {
	s := &Status{}
	s.Runner = *NewRunner(
		"status [-a|--address {address}]", "get daemon status",
		`
Use the status command to see whether cores and repository index are ready, which
game is running, and the last runtime fault, if any.`,
		"", runnerHelpEpilogue, s.Run)
	s.AddBaseSettings()
	return s
}

//
type Status struct {
	Runner
}

//
func (s *Status) Run() error {
	s.ParseSettings()
	return s.apiPrint("GET", "/status", nil)
}

//
func NewSystems() *Systems {
	s := &Systems{}
	s.Runner = *NewRunner(
		"systems [-a|--address {address}]", "list supported systems",
		`
Use the systems command to list the systems the daemon can run games for, with
their cores and supported file extensions.`,
		"", runnerHelpEpilogue, s.Run)
	s.AddBaseSettings()
	return s
}

//
type Systems struct {
	Runner
}

//
func (s *Systems) Run() error {
	s.ParseSettings()
	return s.apiPrint("GET", "/systems", nil)
}

//
func NewSuggest() *Suggest {
	s := &Suggest{}
	s.Runner = *NewRunner(
		"suggest [-a|--address {address}] -f|--file {file or reference}",
		"suggest system for a game file",
		"\nUse the suggest command to find out which system the daemon would pick for a file.",
		"", runnerHelpEpilogue, s.Run)
	s.AddBaseSettings()
	s.AddSetting(&s.File, "file", "f", "", nil, "game file or reference", true)
	return s
}

//
type Suggest struct {
	Runner
	//
	File string
}

//
func (s *Suggest) Run() error {
	s.ParseSettings()
	return s.apiPrint("GET", "/suggest?file="+url.QueryEscape(s.File), nil)
}
