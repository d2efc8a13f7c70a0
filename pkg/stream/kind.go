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
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/xelalexv/retrix/pkg/vfs"
)

// Kind is the container format of an archive.
type Kind string

const (
	KindZip   Kind = "zip"
	Kind7z    Kind = "7z"
	KindRar   Kind = "rar"
	KindGzip  Kind = "gzip"
	KindPlain Kind = ""
)

//
var archiveExtensions = map[string]Kind{
	".zip":  KindZip,
	".7z":   Kind7z,
	".rar":  KindRar,
	".gz":   KindGzip,
	".gzip": KindGzip,
}

//
var magics = []struct {
	kind  Kind
	magic []byte
}{
	{KindZip, []byte("PK\x03\x04")},
	{KindZip, []byte("PK\x05\x06")}, // empty archive
	{Kind7z, []byte("7z\xBC\xAF\x27\x1C")},
	{KindRar, []byte("Rar!\x1A\x07")},
	{KindGzip, []byte{0x1f, 0x8b}},
}

// IsArchive determines by its extension whether file is a container that
// gets unpacked logically, rather than handed to a core as is.
func IsArchive(file string) bool {
	_, ok := archiveExtensions[vfs.Ext(file)]
	return ok
}

// ArchiveExtensions returns the extensions of all supported containers.
func ArchiveExtensions() []string {
	ret := make([]string, 0, len(archiveExtensions))
	for ext := range archiveExtensions {
		ret = append(ret, ext)
	}
	return ret
}

/*
	DetectKind determines the container format of file. Magic bytes take
	precedence, the file extension is used as fall back. Files that are not a
	supported container yield KindPlain.
*/
func DetectKind(file string) (Kind, error) {

	f, err := os.Open(file)
	if err != nil {
		if os.IsNotExist(err) {
			return KindPlain, fmt.Errorf("%w: %v", vfs.ErrNotFound, err)
		}
		return KindPlain, err
	}
	defer f.Close()

	head := make([]byte, 8)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return KindPlain, err
	}

	if k := kindFromMagic(head[:n]); k != KindPlain {
		return k, nil
	}

	return archiveExtensions[vfs.Ext(file)], nil
}

//
func kindFromMagic(head []byte) Kind {
	for _, m := range magics {
		if bytes.HasPrefix(head, m.magic) {
			return m.kind
		}
	}
	return KindPlain
}

/*
	SplitNameKind splits a file name into its base name without extensions,
	the extension that remains after stripping off a compression suffix, and
	the container kind if any. For example, "game.sms.gz" yields "game",
	".sms", and KindGzip.
*/
func SplitNameKind(file string) (string, string, Kind) {

	name := vfs.Base(file)
	kind := KindPlain

	ext := vfs.Ext(name)
	if k, ok := archiveExtensions[ext]; ok {
		kind = k
		name = name[:len(name)-len(ext)]
		ext = vfs.Ext(name)
	}

	return strings.TrimSuffix(name, name[len(name)-len(ext):]), ext, kind
}
