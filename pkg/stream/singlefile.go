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

package stream

import (
	"context"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/retrix/pkg/vfs"
)

/*
	NewSingleFile creates a provider that exposes exactly one physical file
	under the given virtual path.
*/
func NewSingleFile(virtualPath, file string) *SingleFile {
	p := vfs.Clean(virtualPath)
	prefix := p
	if ix := strings.Index(p, vfs.Separator); ix > -1 {
		prefix = p[:ix]
	}
	return &SingleFile{path: p, prefix: prefix, file: file}
}

//
type SingleFile struct {
	path   string
	prefix string
	file   string
	tracker
}

//
func (sf *SingleFile) Prefix() string {
	return sf.prefix
}

//
func (sf *SingleFile) Open(ctx context.Context, path string,
	mode vfs.AccessMode) (Stream, error) {

	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	if sf.isClosed() {
		return nil, vfs.ErrClosed
	}

	if vfs.Clean(path) != sf.path {
		return nil, fmt.Errorf("%w: %s", vfs.ErrNotFound, path)
	}

	f, err := openPhysical(sf.file, mode, false)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"path": sf.path, "mode": mode}).Trace("single file stream opened")
	return sf.track(sf.path, f, f)
}

//
func (sf *SingleFile) CloseStream(s Stream) error {
	return sf.closeStream(s)
}

//
func (sf *SingleFile) Entries(ctx context.Context) ([]string, error) {
	if sf.isClosed() {
		return nil, vfs.ErrClosed
	}
	return []string{sf.path}, nil
}

//
func (sf *SingleFile) Close() error {
	_, err := sf.shutdown()
	return err
}

// openPhysical opens a file on disk for the given access mode, mapping a
// missing file to vfs.ErrNotFound.
func openPhysical(file string, mode vfs.AccessMode, create bool) (*os.File, error) {

	flags := os.O_RDONLY
	if mode == vfs.ReadWrite {
		flags = os.O_RDWR
		if create {
			flags |= os.O_CREATE
		}
	}

	f, err := os.OpenFile(file, flags, 0644)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %v", vfs.ErrNotFound, err)
		}
		return nil, err
	}

	if info, err := f.Stat(); err != nil {
		f.Close()
		return nil, err
	} else if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("%w: '%s' is a directory", vfs.ErrNotFound, file)
	}

	return f, nil
}
