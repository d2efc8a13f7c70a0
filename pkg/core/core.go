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
	"context"
	"errors"
	"fmt"

	"github.com/xelalexv/retrix/pkg/stream"
	"github.com/xelalexv/retrix/pkg/vfs"
)

/*
	Core is the contract every emulation core fulfills. Cores are opaque, the
	session manager only ever talks to them through this interface.

	A core requests all of its files, i.e. the game itself, system files such
	as BIOS images, and battery saves, through the file stream callbacks, using
	virtual paths. The callbacks need to be set before calling Load.

	Errors returned by any of the operations are either a *Fault, signalling
	that the core is no longer in a usable state, or a regular error, meaning
	that only the requested operation failed. Faults raised outside of an
	operation, e.g. by the emulation loop, are reported through the fault
	handler.
*/
type Core interface {
	Name() string
	SupportedExtensions() []string
	FileDependencies() []FileDependency
	SystemFolder() string
	SaveGameFolder() string
	// GameID is empty unless a game is loaded
	GameID() string
	SerializationSize() int

	SetFileStreamCallbacks(open OpenFunc, close CloseFunc)
	SetFaultHandler(h FaultHandler)

	Load(ctx context.Context, mainPath string) error
	Unload() error
	Pause() error
	Resume() error
	Reset() error
	SaveState(ctx context.Context, buf []byte) error
	LoadState(ctx context.Context, buf []byte) error
	InjectInput(port int, input InputType)
}

//
type OpenFunc func(path string, mode vfs.AccessMode) (stream.Stream, error)

//
type CloseFunc func(s stream.Stream) error

//
type FaultHandler func(c Core, err error)

// FileDependency is a system file a core needs, e.g. a BIOS image.
type FileDependency struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	MD5         string `yaml:"md5" json:"md5"`
}

//
var (
	ErrRejected       = errors.New("core rejected request")
	ErrCallbacksUnset = errors.New("file stream callbacks not set")
	ErrNotLoaded      = errors.New("no game loaded")
)

// Fault is an unrecoverable error inside a core.
type Fault struct {
	Core string
	Err  error
}

//
func NewFault(core string, err error) *Fault {
	return &Fault{Core: core, Err: err}
}

//
func (f *Fault) Error() string {
	return fmt.Sprintf("runtime fault in core '%s': %v", f.Core, f.Err)
}

//
func (f *Fault) Unwrap() error {
	return f.Err
}

// IsFault determines whether err is or wraps a core fault.
func IsFault(err error) bool {
	var f *Fault
	return errors.As(err, &f)
}
