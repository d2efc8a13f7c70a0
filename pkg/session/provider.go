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

package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/retrix/pkg/core"
	"github.com/xelalexv/retrix/pkg/stream"
	"github.com/xelalexv/retrix/pkg/vfs"
)

/*
	buildProvider assembles the combined provider through which the core of sys
	gets to see file, together with the core's system and save folders. It
	returns the provider and the virtual path of the game's main file.

	Archives the system cannot read directly are opened as a whole, and the
	first entry in container order with a supported extension becomes the main
	file. Any other file is exposed either on its own, or, if rootFolder is
	set, together with everything else below rootFolder.
*/
func buildProvider(ctx context.Context, sys *core.System, file,
	rootFolder string) (stream.Provider, string, error) {

	c := sys.Core()
	system := stream.NewFolder(string(vfs.SystemRoot), c.SystemFolder())
	save := stream.NewFolder(string(vfs.SaveRoot), c.SaveGameFolder())

	if fi, err := os.Stat(file); err != nil || fi.IsDir() {
		return nil, "", fmt.Errorf("%w: %s", vfs.ErrNotFound, file)
	}

	logger := log.WithFields(log.Fields{"system": sys.ID, "file": file})

	if stream.IsArchive(file) && !sys.Supports(file) {

		a := stream.NewArchive(string(vfs.RomRoot), file)

		entries, err := a.Entries(ctx)
		if err != nil {
			a.Close()
			return nil, "", err
		}

		main, ok := stream.SelectMain(entries, sys.SupportedExtensions())
		if !ok {
			a.Close()
			return nil, "", fmt.Errorf("%w: %s", ErrNoMainEntry, file)
		}

		logger.WithField("main", main).Debug("using archive entry as main file")
		return stream.NewCombined(a, system, save), main, nil
	}

	if !sys.Supports(file) {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedFile, file)
	}

	if strings.TrimSpace(rootFolder) == "" && sys.RequiresRootFolder(file) {
		rootFolder = filepath.Dir(file)
		logger.WithField("root", rootFolder).Debug(
			"multi-file image, using containing folder as root")
	}

	main, err := vfs.Resolve(vfs.RomRoot, file, rootFolder)
	if err != nil {
		return nil, "", err
	}

	var rom stream.Provider
	if strings.TrimSpace(rootFolder) == "" {
		rom = stream.NewSingleFile(main, file)
	} else {
		rom = stream.NewFolder(string(vfs.RomRoot), rootFolder)
	}

	return stream.NewCombined(rom, system, save), main, nil
}

// missingDependencies lists the system files of sys not present in its core's
// system folder.
func missingDependencies(sys *core.System) []string {
	var ret []string
	for _, d := range sys.Dependencies() {
		f := filepath.Join(sys.Core().SystemFolder(), d.Name)
		if fi, err := os.Stat(f); err != nil || fi.IsDir() {
			ret = append(ret, d.Name)
		}
	}
	return ret
}
