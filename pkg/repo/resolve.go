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
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Scheme is the prefix of references to files in the ROM repository.
const Scheme = "repo://"

//
var (
	ErrNoRepo      = errors.New("no repository configured")
	ErrOutsideRepo = errors.New("reference points outside of repository")
)

// IsReference determines whether ref points into the ROM repository.
func IsReference(ref string) bool {
	return strings.HasPrefix(ref, Scheme)
}

// Reference turns a slash separated path relative to the repository into a
// reference.
func Reference(rel string) string {
	return Scheme + strings.TrimPrefix(filepath.ToSlash(rel), "/")
}

/*
	Resolve returns the physical file ref refers to. References into the
	repository are resolved relative to folder repo, and must not leave it.
	Anything else is taken as a plain file path, and returned as is.
*/
func Resolve(ref, repo string) (string, error) {

	if !IsReference(ref) {
		return ref, nil
	}

	if strings.TrimSpace(repo) == "" {
		return "", ErrNoRepo
	}

	rel := strings.TrimPrefix(ref, Scheme)
	if strings.TrimSpace(rel) == "" {
		return "", fmt.Errorf("empty reference: %s", ref)
	}

	file := filepath.Join(repo, filepath.FromSlash(rel))
	if r, err := filepath.Rel(repo, file); err != nil || r == ".." ||
		strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRepo, ref)
	}

	return file, nil
}
