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
	"io"
	"sync"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/retrix/pkg/vfs"
)

// Stream is an open file handed to a core.
type Stream interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer
	Path() string
}

/*
	Provider exposes the files of one backing source under a virtual prefix.
	Closing a provider closes all streams still open on it, and releases any
	underlying OS or archive resources. A closed provider fails all further
	opens with vfs.ErrClosed.
*/
type Provider interface {
	Prefix() string
	Open(ctx context.Context, path string, mode vfs.AccessMode) (Stream, error)
	CloseStream(s Stream) error
	// Entries returns a fresh listing of all virtual paths on each call.
	Entries(ctx context.Context) ([]string, error)
	Close() error
}

//
type readWriteSeeker interface {
	io.Reader
	io.Writer
	io.Seeker
}

// handle is the Stream implementation used by all providers
type handle struct {
	readWriteSeeker
	path   string
	closer io.Closer
	owner  *tracker
	once   sync.Once
	err    error
}

//
func (h *handle) Path() string {
	return h.path
}

//
func (h *handle) Close() error {
	h.once.Do(func() {
		if h.closer != nil {
			h.err = h.closer.Close()
		}
		h.owner.forget(h)
	})
	return h.err
}

// readOnly turns a read seeker into a stream body that refuses writes
type readOnly struct {
	io.ReadSeeker
}

//
func (r *readOnly) Write(p []byte) (int, error) {
	return 0, vfs.ErrReadOnly
}

/*
	tracker keeps book of the streams a provider has handed out, so that they
	can be released when the provider goes away.
*/
type tracker struct {
	mutex  sync.Mutex
	open   map[*handle]bool
	closed bool
}

//
func (t *tracker) track(path string, body readWriteSeeker,
	closer io.Closer) (*handle, error) {

	t.mutex.Lock()
	defer t.mutex.Unlock()

	if t.closed {
		if closer != nil {
			closer.Close()
		}
		return nil, vfs.ErrClosed
	}

	if t.open == nil {
		t.open = make(map[*handle]bool)
	}

	h := &handle{readWriteSeeker: body, path: path, closer: closer, owner: t}
	t.open[h] = true
	return h, nil
}

//
func (t *tracker) forget(h *handle) {
	t.mutex.Lock()
	delete(t.open, h)
	t.mutex.Unlock()
}

//
func (t *tracker) isClosed() bool {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return t.closed
}

//
func (t *tracker) count() int {
	t.mutex.Lock()
	defer t.mutex.Unlock()
	return len(t.open)
}

// closeStream closes s if it has been handed out through this tracker.
func (t *tracker) closeStream(s Stream) error {

	h, ok := s.(*handle)
	if ok {
		t.mutex.Lock()
		ok = t.open[h]
		t.mutex.Unlock()
	}

	if !ok {
		return fmt.Errorf("%w: stream not open on this provider", vfs.ErrNotFound)
	}

	return h.Close()
}

/*
	shutdown marks the tracker closed and closes all streams that are still
	open. Returns false if the tracker had already been shut down before.
*/
func (t *tracker) shutdown() (bool, error) {

	t.mutex.Lock()
	if t.closed {
		t.mutex.Unlock()
		return false, nil
	}
	t.closed = true
	pending := make([]*handle, 0, len(t.open))
	for h := range t.open {
		pending = append(pending, h)
	}
	t.mutex.Unlock()

	var ret *multierror.Error
	for _, h := range pending {
		log.WithField("path", h.path).Debug("closing stream left open")
		if err := h.Close(); err != nil {
			ret = multierror.Append(ret, err)
		}
	}

	return true, ret.ErrorOrNil()
}

/*
	SelectMain picks the main file from a listing: the first entry in listing
	order whose extension is among extensions. Extensions are expected in
	lower case, including the dot.
*/
func SelectMain(entries []string, extensions []string) (string, bool) {
	for _, e := range entries {
		ext := vfs.Ext(e)
		if ext == "" {
			continue
		}
		for _, x := range extensions {
			if ext == x {
				return e, true
			}
		}
	}
	return "", false
}

//
func checkContext(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
