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
	"sync"

	"github.com/hashicorp/go-multierror"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/retrix/pkg/vfs"
)

/*
	NewCombined unions several providers into one name space. Requests are
	dispatched to the member with the longest prefix matching the requested
	path. If several members declare the same prefix, the one passed first
	wins. The combined provider takes ownership of its members, closing it
	closes every member exactly once.
*/
func NewCombined(members ...Provider) *Combined {
	return &Combined{
		members: members,
		owners:  make(map[Stream]Provider),
	}
}

//
type Combined struct {
	members []Provider
	//
	mutex  sync.Mutex
	owners map[Stream]Provider
	closed bool
	//
	closeOnce sync.Once
	err       error
}

// Prefix of a combined provider is empty, it spans all its members.
func (c *Combined) Prefix() string {
	return ""
}

//
func (c *Combined) Members() []Provider {
	return append([]Provider(nil), c.members...)
}

//
func (c *Combined) Open(ctx context.Context, path string,
	mode vfs.AccessMode) (Stream, error) {

	c.mutex.Lock()
	closed := c.closed
	c.mutex.Unlock()
	if closed {
		return nil, vfs.ErrClosed
	}

	m := c.memberFor(path)
	if m == nil {
		return nil, fmt.Errorf("%w: no provider for %s", vfs.ErrNotFound, path)
	}

	s, err := m.Open(ctx, path, mode)
	if err != nil {
		return nil, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.closed { // closed while we were opening
		m.CloseStream(s)
		return nil, vfs.ErrClosed
	}
	c.owners[s] = m
	return s, nil
}

//
func (c *Combined) memberFor(path string) Provider {

	var ret Provider
	best := -1

	for _, m := range c.members {
		prefix := vfs.Clean(m.Prefix())
		if !vfs.HasPrefix(path, prefix) {
			continue
		}
		if l := len(prefix); l > best {
			best = l
			ret = m
		}
	}

	return ret
}

//
func (c *Combined) CloseStream(s Stream) error {

	c.mutex.Lock()
	owner, ok := c.owners[s]
	delete(c.owners, s)
	c.mutex.Unlock()

	if !ok {
		return fmt.Errorf("%w: stream not open on this provider", vfs.ErrNotFound)
	}

	return owner.CloseStream(s)
}

// Entries concatenates the listings of all members, in member order.
func (c *Combined) Entries(ctx context.Context) ([]string, error) {

	var ret []string

	for _, m := range c.members {
		entries, err := m.Entries(ctx)
		if err != nil {
			return nil, err
		}
		ret = append(ret, entries...)
	}

	return ret, nil
}

/*
	Close disposes all members. A member failing to close does not keep the
	remaining members from being closed, all errors are collected and returned
	together. Subsequent and concurrent calls wait for the first one to finish,
	and return the same result without closing anything again.
*/
func (c *Combined) Close() error {

	c.closeOnce.Do(func() {

		c.mutex.Lock()
		c.closed = true
		c.owners = make(map[Stream]Provider)
		c.mutex.Unlock()

		var result *multierror.Error
		for _, m := range c.members {
			if err := closeMember(m); err != nil {
				log.WithField("prefix", m.Prefix()).Warnf(
					"error closing provider: %v", err)
				result = multierror.Append(result, err)
			}
		}
		c.err = result.ErrorOrNil()
	})

	return c.err
}

// closeMember closes m, turning a panic into an error
func closeMember(m Provider) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic while closing provider: %v", r)
		}
	}()
	return m.Close()
}
