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

package savestate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

//
const (
	statePrefix = "state-"
	stateSuffix = ".state"
)

// NewFileStore creates a store that keeps each state in a file
// <dir>/<game ID>/state-<slot>.state.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("cannot create save state folder: %v", err)
	}
	return &FileStore{dir: dir}, nil
}

//
type FileStore struct {
	dir string
}

//
func (f *FileStore) file(gameID string, slot int) string {
	return filepath.Join(f.dir, gameID,
		fmt.Sprintf("%s%d%s", statePrefix, slot, stateSuffix))
}

// Save writes data to a temporary file next to the target, and then renames
// it, so that a slot either holds the old or the new state.
func (f *FileStore) Save(ctx context.Context, gameID string, slot int,
	data []byte) error {

	if err := validate(gameID, slot); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	target := f.file(gameID, slot)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	if err := os.Rename(tmp.Name(), target); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	log.WithFields(log.Fields{
		"game": gameID, "slot": slot, "size": len(data)}).Debug("state saved")
	return nil
}

//
func (f *FileStore) Load(ctx context.Context, gameID string,
	slot int) ([]byte, error) {

	if err := validate(gameID, slot); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.file(gameID, slot))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: game %s, slot %d", ErrNoState, gameID, slot)
	}
	return data, err
}

//
func (f *FileStore) Slots(ctx context.Context, gameID string) ([]Slot, error) {

	if err := validate(gameID, 1); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(filepath.Join(f.dir, gameID))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	var ret []Slot
	for _, e := range entries {

		if e.IsDir() {
			continue
		}

		n := e.Name()
		if !strings.HasPrefix(n, statePrefix) || !strings.HasSuffix(n, stateSuffix) {
			continue
		}

		slot, err := strconv.Atoi(
			strings.TrimSuffix(strings.TrimPrefix(n, statePrefix), stateSuffix))
		if err != nil || slot < 1 || slot > MaxSlot {
			continue
		}

		if info, err := e.Info(); err == nil {
			ret = append(ret, Slot{
				Number:   slot,
				Size:     int(info.Size()),
				Modified: info.ModTime(),
			})
		}
	}

	sort.Slice(ret, func(i, j int) bool { return ret[i].Number < ret[j].Number })
	return ret, nil
}

//
func (f *FileStore) Delete(ctx context.Context, gameID string, slot int) error {
	if err := validate(gameID, slot); err != nil {
		return err
	}
	err := os.Remove(f.file(gameID, slot))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

//
func (f *FileStore) Close() error {
	return nil
}
