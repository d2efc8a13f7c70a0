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
	"io/fs"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/retrix/pkg/vfs"
)

/*
	NewFolder creates a provider for the directory tree rooted at dir. Files
	are addressed by their path relative to dir, placed under prefix. Opening a
	file for writing creates it, including missing parent folders, so that
	cores can store battery saves and similar.
*/
func NewFolder(prefix, dir string) *Folder {
	return &Folder{prefix: vfs.Clean(prefix), dir: dir}
}

//
type Folder struct {
	prefix string
	dir    string
	tracker
}

//
func (f *Folder) Prefix() string {
	return f.prefix
}

//
func (f *Folder) Dir() string {
	return f.dir
}

//
func (f *Folder) Open(ctx context.Context, path string,
	mode vfs.AccessMode) (Stream, error) {

	if err := checkContext(ctx); err != nil {
		return nil, err
	}

	if f.isClosed() {
		return nil, vfs.ErrClosed
	}

	virtual := vfs.Clean(path)
	rel, ok := vfs.TrimPrefix(virtual, f.prefix)
	if !ok || rel == "" {
		return nil, fmt.Errorf("%w: %s", vfs.ErrNotFound, path)
	}

	// rel is clean and free of '..', so it cannot leave dir
	file := filepath.Join(f.dir, filepath.FromSlash(rel))

	if mode == vfs.ReadWrite {
		if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
			return nil, err
		}
	}

	fd, err := openPhysical(file, mode, true)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"path": virtual, "file": file, "mode": mode}).Trace("folder stream opened")
	return f.track(virtual, fd, fd)
}

//
func (f *Folder) CloseStream(s Stream) error {
	return f.closeStream(s)
}

// Entries lists all regular files below the folder, in lexical order. A
// folder that does not exist yet has no entries.
func (f *Folder) Entries(ctx context.Context) ([]string, error) {

	if f.isClosed() {
		return nil, vfs.ErrClosed
	}

	var ret []string

	err := filepath.WalkDir(f.dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == f.dir && os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if err := checkContext(ctx); err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(f.dir, p)
		if err != nil {
			return err
		}
		ret = append(ret, vfs.Join(f.prefix, filepath.ToSlash(rel)))
		return nil
	})

	if err != nil {
		return nil, err
	}
	return ret, nil
}

//
func (f *Folder) Close() error {
	_, err := f.shutdown()
	return err
}
