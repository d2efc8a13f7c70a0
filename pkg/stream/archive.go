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
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/bodgit/sevenzip"
	"github.com/nwaples/rardecode/v2"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/btree"

	"github.com/xelalexv/retrix/pkg/vfs"
)

// DefaultMaxEntrySize is the largest archive entry that will be unpacked.
const DefaultMaxEntrySize = 1 << 30

/*
	NewArchive creates a provider that exposes the entries of a container file
	under prefix, using the entry names as stored in the container. The entry
	index is built once, on the first call to Init, Open, or Entries. Each Open
	unpacks the requested entry into memory and yields an independent read
	cursor, so any number of entries can be open at the same time. Archive
	streams are read-only.
*/
func NewArchive(prefix, file string) *Archive {
	return &Archive{
		prefix:       vfs.Clean(prefix),
		file:         file,
		MaxEntrySize: DefaultMaxEntrySize,
	}
}

//
type Archive struct {
	prefix string
	file   string
	//
	MaxEntrySize int64
	//
	init    sync.Once
	initErr error
	kind    Kind
	entries []archiveEntry
	index   *btree.Map[string, int]
	//
	access  sync.RWMutex
	backend archiveBackend
	tracker
}

//
type archiveEntry struct {
	name    string // virtual path
	size    int64
	ordinal int // position within the container directory
}

//
type archiveBackend interface {
	list() ([]archiveEntry, error)
	read(e archiveEntry, limit int64) ([]byte, error)
	close() error
}

//
func (a *Archive) Prefix() string {
	return a.prefix
}

//
func (a *Archive) Kind() Kind {
	return a.kind
}

// Init builds the entry index from the container's directory. It is safe to
// call Init several times, only the first call does any work.
func (a *Archive) Init(ctx context.Context) error {

	if err := checkContext(ctx); err != nil {
		return err
	}

	if a.isClosed() {
		return vfs.ErrClosed
	}

	a.init.Do(func() {

		logger := log.WithField("archive", a.file)

		if a.kind, a.initErr = DetectKind(a.file); a.initErr != nil {
			return
		}

		switch a.kind {
		case KindZip:
			a.backend, a.initErr = newZipBackend(a.file, a.prefix)
		case Kind7z:
			a.backend, a.initErr = newSevenZipBackend(a.file, a.prefix)
		case KindRar:
			a.backend = &rarBackend{file: a.file, prefix: a.prefix}
		case KindGzip:
			a.backend = &gzipBackend{file: a.file, prefix: a.prefix}
		default:
			a.initErr = fmt.Errorf("unsupported archive type: %s", a.file)
		}

		if a.initErr != nil {
			logger.Errorf("cannot open archive: %v", a.initErr)
			return
		}

		if a.entries, a.initErr = a.backend.list(); a.initErr != nil {
			logger.Errorf("cannot list archive: %v", a.initErr)
			a.backend.close()
			return
		}

		a.index = btree.NewMap[string, int](0)
		for ix, e := range a.entries {
			if _, dup := a.index.Get(e.name); !dup {
				a.index.Set(e.name, ix)
			}
		}

		logger.WithFields(log.Fields{
			"kind": a.kind, "entries": len(a.entries)}).Debug("archive indexed")
	})

	return a.initErr
}

//
func (a *Archive) Open(ctx context.Context, path string,
	mode vfs.AccessMode) (Stream, error) {

	if err := a.Init(ctx); err != nil {
		return nil, err
	}

	if a.isClosed() {
		return nil, vfs.ErrClosed
	}

	virtual := vfs.Clean(path)
	ix, ok := a.index.Get(virtual)
	if !ok {
		return nil, fmt.Errorf("%w: %s", vfs.ErrNotFound, path)
	}

	if mode == vfs.ReadWrite {
		return nil, fmt.Errorf("%w: %s", vfs.ErrReadOnly, path)
	}

	a.access.RLock()
	defer a.access.RUnlock()

	if a.backend == nil {
		return nil, vfs.ErrClosed
	}

	data, err := a.backend.read(a.entries[ix], a.MaxEntrySize)
	if err != nil {
		return nil, fmt.Errorf("error unpacking '%s': %v", virtual, err)
	}

	log.WithFields(log.Fields{
		"path": virtual, "size": len(data)}).Trace("archive stream opened")
	return a.track(virtual, &readOnly{bytes.NewReader(data)}, nil)
}

//
func (a *Archive) CloseStream(s Stream) error {
	return a.closeStream(s)
}

// Entries lists the virtual paths of all file entries, in the order in which
// they appear in the container.
func (a *Archive) Entries(ctx context.Context) ([]string, error) {

	if err := a.Init(ctx); err != nil {
		return nil, err
	}

	if a.isClosed() {
		return nil, vfs.ErrClosed
	}

	ret := make([]string, len(a.entries))
	for ix, e := range a.entries {
		ret[ix] = e.name
	}
	return ret, nil
}

//
func (a *Archive) Close() error {

	first, err := a.shutdown()
	if !first {
		return nil
	}

	a.access.Lock()
	defer a.access.Unlock()

	if a.backend != nil && a.initErr == nil {
		if e := a.backend.close(); e != nil && err == nil {
			err = e
		}
	}
	a.backend = nil

	log.WithField("archive", a.file).Debug("archive closed")
	return err
}

// limitedRead reads all of r, failing when there is more than limit bytes.
func limitedRead(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("entry exceeds maximum size of %d bytes", limit)
	}
	return data, nil
}

// --- zip ---------------------------------------------------------------------

//
type zipBackend struct {
	prefix string
	reader *zip.ReadCloser
}

//
func newZipBackend(file, prefix string) (*zipBackend, error) {
	r, err := zip.OpenReader(file)
	if err != nil {
		return nil, err
	}
	return &zipBackend{prefix: prefix, reader: r}, nil
}

//
func (z *zipBackend) list() ([]archiveEntry, error) {
	var ret []archiveEntry
	for ix, f := range z.reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		ret = append(ret, archiveEntry{
			name:    vfs.Join(z.prefix, f.Name),
			size:    f.FileInfo().Size(),
			ordinal: ix,
		})
	}
	return ret, nil
}

//
func (z *zipBackend) read(e archiveEntry, limit int64) ([]byte, error) {
	rc, err := z.reader.File[e.ordinal].Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return limitedRead(rc, limit)
}

//
func (z *zipBackend) close() error {
	return z.reader.Close()
}

// --- 7z ----------------------------------------------------------------------

//
type sevenZipBackend struct {
	prefix string
	mutex  sync.Mutex
	reader *sevenzip.ReadCloser
}

//
func newSevenZipBackend(file, prefix string) (*sevenZipBackend, error) {
	r, err := sevenzip.OpenReader(file)
	if err != nil {
		return nil, err
	}
	return &sevenZipBackend{prefix: prefix, reader: r}, nil
}

//
func (s *sevenZipBackend) list() ([]archiveEntry, error) {
	var ret []archiveEntry
	for ix, f := range s.reader.File {
		if f.FileInfo().IsDir() {
			continue
		}
		ret = append(ret, archiveEntry{
			name:    vfs.Join(s.prefix, f.Name),
			size:    f.FileInfo().Size(),
			ordinal: ix,
		})
	}
	return ret, nil
}

// solid blocks are decoded sequentially, so reads are serialized
func (s *sevenZipBackend) read(e archiveEntry, limit int64) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	rc, err := s.reader.File[e.ordinal].Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return limitedRead(rc, limit)
}

//
func (s *sevenZipBackend) close() error {
	return s.reader.Close()
}

// --- rar ---------------------------------------------------------------------

// rar archives can only be read front to back, so each read opens its own
// reader and skips ahead to the requested entry.
type rarBackend struct {
	prefix string
	file   string
}

//
func (r *rarBackend) walk(visit func(ordinal int, h *rardecode.FileHeader,
	rd io.Reader) (bool, error)) error {

	rc, err := rardecode.OpenReader(r.file)
	if err != nil {
		return err
	}
	defer rc.Close()

	for ordinal := 0; ; ordinal++ {
		h, err := rc.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if done, err := visit(ordinal, h, rc); done || err != nil {
			return err
		}
	}
}

//
func (r *rarBackend) list() ([]archiveEntry, error) {
	var ret []archiveEntry
	err := r.walk(func(ordinal int, h *rardecode.FileHeader,
		rd io.Reader) (bool, error) {
		if !h.IsDir {
			ret = append(ret, archiveEntry{
				name:    vfs.Join(r.prefix, h.Name),
				size:    h.UnPackedSize,
				ordinal: ordinal,
			})
		}
		return false, nil
	})
	return ret, err
}

//
func (r *rarBackend) read(e archiveEntry, limit int64) ([]byte, error) {
	var ret []byte
	err := r.walk(func(ordinal int, h *rardecode.FileHeader,
		rd io.Reader) (bool, error) {
		if ordinal != e.ordinal {
			return false, nil
		}
		var err error
		ret, err = limitedRead(rd, limit)
		return true, err
	})
	if err == nil && ret == nil {
		err = fmt.Errorf("%w: %s", vfs.ErrNotFound, e.name)
	}
	return ret, err
}

//
func (r *rarBackend) close() error {
	return nil
}

// --- gzip --------------------------------------------------------------------

// a gzip file holds exactly one entry, named after the original file name
// stored in the header, or the archive's name without the compression suffix
type gzipBackend struct {
	prefix string
	file   string
}

//
func (g *gzipBackend) open() (*os.File, *gzip.Reader, error) {
	f, err := os.Open(g.file)
	if err != nil {
		return nil, nil, err
	}
	gz, err := gzip.NewReader(f)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return f, gz, nil
}

//
func (g *gzipBackend) list() ([]archiveEntry, error) {

	f, gz, err := g.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := strings.TrimSpace(gz.Name)
	if name == "" {
		base := vfs.Base(g.file)
		name = strings.TrimSuffix(base, base[len(base)-len(vfs.Ext(base)):])
	}

	return []archiveEntry{{name: vfs.Join(g.prefix, vfs.Base(name))}}, nil
}

//
func (g *gzipBackend) read(e archiveEntry, limit int64) ([]byte, error) {
	f, gz, err := g.open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return limitedRead(gz, limit)
}

//
func (g *gzipBackend) close() error {
	return nil
}
