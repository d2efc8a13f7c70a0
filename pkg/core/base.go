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
	"fmt"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/retrix/pkg/stream"
	"github.com/xelalexv/retrix/pkg/vfs"
)

/*
	Base implements the book keeping part of the Core contract, i.e. the
	descriptive attributes, the file stream callback slots, game ID, and the
	fault handler. Core implementations embed it and add the actual emulation.
*/
type Base struct {
	name         string
	extensions   []string
	dependencies []FileDependency
	systemFolder string
	saveFolder   string
	//
	mutex  sync.RWMutex
	open   OpenFunc
	close  CloseFunc
	fault  FaultHandler
	gameID string
}

//
func NewBase(cfg Config) *Base {

	exts := make([]string, 0, len(cfg.Extensions))
	for _, e := range cfg.Extensions {
		exts = append(exts, normalizeExtension(e))
	}

	return &Base{
		name:         cfg.Name,
		extensions:   exts,
		dependencies: append([]FileDependency(nil), cfg.Dependencies...),
		systemFolder: cfg.SystemFolder,
		saveFolder:   cfg.SaveFolder,
	}
}

//
func (b *Base) Name() string {
	return b.name
}

//
func (b *Base) SupportedExtensions() []string {
	return append([]string(nil), b.extensions...)
}

//
func (b *Base) FileDependencies() []FileDependency {
	return append([]FileDependency(nil), b.dependencies...)
}

//
func (b *Base) SystemFolder() string {
	return b.systemFolder
}

//
func (b *Base) SaveGameFolder() string {
	return b.saveFolder
}

//
func (b *Base) GameID() string {
	b.mutex.RLock()
	defer b.mutex.RUnlock()
	return b.gameID
}

// SetGameID is called by core implementations after successfully loading a
// game, and with an empty ID when unloading.
func (b *Base) SetGameID(id string) {
	b.mutex.Lock()
	b.gameID = id
	b.mutex.Unlock()
}

//
func (b *Base) SetFileStreamCallbacks(openFn OpenFunc, closeFn CloseFunc) {
	b.mutex.Lock()
	b.open = openFn
	b.close = closeFn
	b.mutex.Unlock()
}

//
func (b *Base) SetFaultHandler(h FaultHandler) {
	b.mutex.Lock()
	b.fault = h
	b.mutex.Unlock()
}

// OpenFile requests a stream through the installed callback.
func (b *Base) OpenFile(path string, mode vfs.AccessMode) (stream.Stream, error) {

	b.mutex.RLock()
	fn := b.open
	b.mutex.RUnlock()

	if fn == nil {
		return nil, fmt.Errorf("%w: cannot open '%s'", ErrCallbacksUnset, path)
	}

	return fn(path, mode)
}

// CloseFile hands a stream back through the installed callback.
func (b *Base) CloseFile(s stream.Stream) error {

	b.mutex.RLock()
	fn := b.close
	b.mutex.RUnlock()

	if fn == nil {
		return fmt.Errorf("%w: cannot close '%s'", ErrCallbacksUnset, s.Path())
	}

	return fn(s)
}

/*
	RaiseFault reports an unrecoverable error to the installed fault handler.
	self is the core embedding this base. If no handler is installed, the fault
	is only logged.
*/
func (b *Base) RaiseFault(self Core, err error) {

	b.mutex.RLock()
	h := b.fault
	b.mutex.RUnlock()

	if _, ok := err.(*Fault); !ok {
		err = NewFault(b.name, err)
	}

	if h == nil {
		log.WithField("core", b.name).Errorf("unhandled fault: %v", err)
		return
	}

	h(self, err)
}

//
func normalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
