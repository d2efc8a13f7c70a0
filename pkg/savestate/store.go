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

/*
	Package savestate persists the serialised state of running games in
	numbered slots, per game.
*/
package savestate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// MaxSlot is the highest slot number, slots are numbered from 1.
const MaxSlot = 6

//
var (
	ErrNoState     = errors.New("no saved state")
	ErrInvalidSlot = errors.New("invalid slot")
	ErrInvalidGame = errors.New("invalid game ID")
)

// Slot describes a saved state.
type Slot struct {
	Number   int       `json:"slot"`
	Size     int       `json:"size"`
	Modified time.Time `json:"modified"`
}

// Store is where states get saved.
type Store interface {
	Save(ctx context.Context, gameID string, slot int, data []byte) error
	// Load returns ErrNoState if the slot is empty
	Load(ctx context.Context, gameID string, slot int) ([]byte, error)
	// Slots lists all occupied slots of a game, ordered by slot number
	Slots(ctx context.Context, gameID string) ([]Slot, error)
	Delete(ctx context.Context, gameID string, slot int) error
	Close() error
}

//
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

/*
	New creates a store of the given backend type. For the file backend,
	location is the base folder, for the SQLite backend the database file.
*/
func New(backend, location string) (Store, error) {
	switch strings.ToLower(backend) {
	case BackendFile, "":
		return NewFileStore(location)
	case BackendSQLite:
		return NewSQLiteStore(location)
	}
	return nil, fmt.Errorf("unknown save state backend: %s", backend)
}

//
func validate(gameID string, slot int) error {
	if slot < 1 || slot > MaxSlot {
		return fmt.Errorf("%w: %d, must be between 1 and %d",
			ErrInvalidSlot, slot, MaxSlot)
	}
	if strings.TrimSpace(gameID) == "" || gameID == "." || gameID == ".." ||
		strings.ContainsAny(gameID, "/\\:") {
		return fmt.Errorf("%w: '%s'", ErrInvalidGame, gameID)
	}
	return nil
}
