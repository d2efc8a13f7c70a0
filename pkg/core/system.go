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

package core

import (
	"github.com/xelalexv/retrix/pkg/vfs"
)

// System is a game platform as presented to the user, bound to the core that
// emulates it. Several systems may share one core.
type System struct {
	ID                  string   `json:"id"`
	Name                string   `json:"name"`
	Manufacturer        string   `json:"manufacturer"`
	CoreName            string   `json:"core"`
	Extensions          []string `json:"extensions"`
	MultiFileExtensions []string `json:"multiFileExtensions,omitempty"`
	IgnoresDependencies bool     `json:"ignoresDependencies,omitempty"`
	//
	core Core
}

//
func (s *System) Core() Core {
	return s.core
}

//
func (s *System) SupportedExtensions() []string {
	return append([]string(nil), s.Extensions...)
}

// Supports determines by its extension whether file can be played on this
// system.
func (s *System) Supports(file string) bool {
	return contains(s.Extensions, vfs.Ext(file))
}

/*
	RequiresRootFolder determines whether file is part of a multi-file image,
	e.g. a cue sheet, so that the core needs access to the file's siblings.
*/
func (s *System) RequiresRootFolder(file string) bool {
	return contains(s.MultiFileExtensions, vfs.Ext(file))
}

// Dependencies returns the system files that need to be present for playing
// games on this system.
func (s *System) Dependencies() []FileDependency {
	if s.IgnoresDependencies || s.core == nil {
		return nil
	}
	return s.core.FileDependencies()
}

//
func contains(list []string, s string) bool {
	if s == "" {
		return false
	}
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}
