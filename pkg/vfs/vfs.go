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
	Package vfs holds the virtual name space in which cores address their
	files. Every virtual path starts with one of the fixed roots, uses '/' as
	separator, and never carries a leading separator or dot segments.
*/
package vfs

import (
	"errors"
	"path"
	"strings"
)

// Root is one of the fixed top level folders of the virtual name space.
type Root string

const (
	RomRoot    Root = "ROM"
	SystemRoot Root = "SYSTEM"
	SaveRoot   Root = "SAVE"
)

//
const Separator = "/"

//
var Roots = []Root{RomRoot, SystemRoot, SaveRoot}

// Path returns the virtual path of name below this root.
func (r Root) Path(name string) string {
	return Join(string(r), name)
}

//
func (r Root) String() string {
	return string(r)
}

// AccessMode is the mode in which a core requests a stream.
type AccessMode int

const (
	Read AccessMode = iota
	ReadWrite
)

//
func (m AccessMode) String() string {
	switch m {
	case Read:
		return "read"
	case ReadWrite:
		return "read-write"
	}
	return "unknown"
}

//
var (
	ErrNotFound    = errors.New("vfs: file not found")
	ErrOutsideRoot = errors.New("vfs: file is not inside root folder")
	ErrReadOnly    = errors.New("vfs: read-only file")
	ErrClosed      = errors.New("vfs: provider closed")
	ErrInvalidPath = errors.New("vfs: invalid path")
)

/*
	Clean turns p into its canonical virtual form. Back slashes are accepted as
	separators, so that paths handed over by cores built for other platforms
	resolve the same way. Going above the top of the name space is not
	possible, any '..' segments at the top are dropped.
*/
func Clean(p string) string {
	p = path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimPrefix(p, "/")
}

//
func Join(elem ...string) string {
	return Clean(path.Join(elem...))
}

/*
	HasPrefix determines whether virtual path p lies within prefix. Matching is
	done per path component, i.e. ROM/a is not a prefix of ROM/ab. The empty
	prefix matches everything.
*/
func HasPrefix(p, prefix string) bool {
	_, ok := TrimPrefix(p, prefix)
	return ok
}

/*
	TrimPrefix returns p relative to prefix, and whether p actually lies within
	prefix. If p equals prefix, the relative path is empty.
*/
func TrimPrefix(p, prefix string) (string, bool) {

	p = Clean(p)
	prefix = Clean(prefix)

	if prefix == "" {
		return p, true
	}

	if p == prefix {
		return "", true
	}

	if strings.HasPrefix(p, prefix+Separator) {
		return p[len(prefix)+1:], true
	}

	return "", false
}

// Ext returns the lower case extension of a virtual or physical file name,
// including the dot.
func Ext(name string) string {
	return strings.ToLower(path.Ext(strings.ReplaceAll(name, "\\", "/")))
}

// Base returns the last element of a virtual or physical path.
func Base(name string) string {
	return path.Base(strings.ReplaceAll(name, "\\", "/"))
}
