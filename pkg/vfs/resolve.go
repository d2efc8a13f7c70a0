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

package vfs

import (
	"fmt"
	"path"
	"strings"
)

/*
	Resolve computes the canonical virtual path for a physical file within the
	given root:

	- ROM without a root folder yields ROM/<file name>, the file is treated as
	  a stand-alone unit
	- ROM with a root folder yields ROM/<path of file relative to folder>,
	  keeping sub-folders intact, so that multi-file images such as a cue
	  sheet with its tracks resolve next to each other
	- SYSTEM and SAVE always yield <ROOT>/<file name>, since those roots map
	  to the folders a core declares, regardless of where the file came from

	Physical paths may use either slash or back slash as separator.
*/
func Resolve(root Root, file, folder string) (string, error) {

	f := physical(file)
	if f == "" || f == "." || strings.HasSuffix(f, "/") {
		return "", fmt.Errorf("%w: '%s'", ErrInvalidPath, file)
	}

	switch root {

	case SystemRoot, SaveRoot:
		return root.Path(path.Base(f)), nil

	case RomRoot:
		if strings.TrimSpace(folder) == "" {
			return root.Path(path.Base(f)), nil
		}

		rel, ok := relative(f, physical(folder))
		if !ok {
			return "", fmt.Errorf("%w: '%s' not in '%s'", ErrOutsideRoot, file, folder)
		}
		return root.Path(rel), nil
	}

	return "", fmt.Errorf("%w: unknown root '%s'", ErrInvalidPath, root)
}

//
func physical(p string) string {
	p = strings.TrimSpace(strings.ReplaceAll(p, "\\", "/"))
	if p == "" {
		return ""
	}
	return path.Clean(p)
}

//
func relative(file, folder string) (string, bool) {
	if folder == "/" {
		return strings.TrimPrefix(file, "/"), file != "/"
	}
	if strings.HasPrefix(file, folder+"/") {
		return file[len(folder)+1:], true
	}
	return "", false
}
