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

package session

import (
	"errors"
	"fmt"
	"time"
)

// State is the life cycle state of a session.
type State int

const (
	Idle State = iota
	Loading
	Running
	Paused
)

//
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Running:
		return "running"
	case Paused:
		return "paused"
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

//
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

//
func (s *State) UnmarshalText(text []byte) error {
	for st := Idle; st <= Paused; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("invalid session state: %s", text)
}

//
var (
	ErrLoadFailure       = errors.New("game could not be loaded")
	ErrNoSystem          = errors.New("no system selected")
	ErrNoMainEntry       = errors.New("archive holds no file supported by system")
	ErrUnsupportedFile   = errors.New("file not supported by system")
	ErrMissingDependency = errors.New("required system file missing")
	ErrNoSession         = errors.New("no game running")
)

// Info is a snapshot of the active session.
type Info struct {
	ID       string    `json:"id,omitempty"`
	System   string    `json:"system,omitempty"`
	Core     string    `json:"core,omitempty"`
	GameID   string    `json:"gameId,omitempty"`
	File     string    `json:"file,omitempty"`
	MainPath string    `json:"mainPath,omitempty"`
	State    State     `json:"state"`
	Paused   bool      `json:"paused"`
	Started  time.Time `json:"started,omitempty"`
}

//
func (i Info) Active() bool {
	return i.State == Running || i.State == Paused
}
