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

package repo

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// NewFileSource opens a buffered source for a local file.
func NewFileSource(file string) (*FileSource, error) {

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}

	if info, err := f.Stat(); err != nil {
		f.Close()
		return nil, err
	} else if info.IsDir() {
		f.Close()
		return nil, fmt.Errorf("not a file: %s", file)
	}

	return &FileSource{file: f, reader: bufio.NewReader(f)}, nil
}

//
type FileSource struct {
	file   *os.File
	reader io.Reader
}

//
func (fs *FileSource) Read(p []byte) (n int, err error) {
	return fs.reader.Read(p)
}

//
func (fs *FileSource) Close() error {
	return fs.file.Close()
}
