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
	"io"
	"strings"
)

/*
	Open returns a reader for the file ref refers to. ref can be an http(s)
	URL, a repository reference, or a local file path.
*/
func Open(ref, repo string, maxSize int64) (io.ReadCloser, error) {

	if lower := strings.ToLower(ref); strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") {
		return NewHTTPSource(ref, maxSize)
	}

	file, err := Resolve(ref, repo)
	if err != nil {
		return nil, err
	}
	return NewFileSource(file)
}
