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
)

//
func NewSearch() *Search {

	s := &Search{}
	s.Runner = *NewRunner(
		"search [-a|--address {address}] -t|--term {search term} [-i|--items {max results}]",
		"search for games in daemon's ROM repository",
		`
Use the search command to find games in the daemon's ROM repository, if enabled.
Hits are listed with their system and a reference that can be passed to start.`,
		"", runnerHelpEpilogue, s.Run)

	s.AddBaseSettings()
	s.AddSetting(&s.Term, "term", "t", "", nil,
		"search term; used to search through the game file names", true)
	s.AddSetting(&s.Items, "items", "i", "", 100,
		"max number of search results to return", false)

	return s
}

//
type Search struct {
	Runner
	//
	Term  string
	Items int
}

//
func (s *Search) Run() error {

	s.ParseSettings()
	return s.apiPrint("GET", fmt.Sprintf("/search?items=%d&term=%s",
		s.Items, url.QueryEscape(s.Term)), nil)
}
