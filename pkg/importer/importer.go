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

package importer

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/retrix/pkg/core"
)

// MaxSize is the largest system file that will be imported.
const MaxSize = 256 << 20

//
var (
	ErrChecksumMismatch = errors.New("checksum mismatch")
	ErrTooLarge         = errors.New("file too large")
)

/*
	Importer installs one system file a core depends on, e.g. a BIOS image,
	into the core's system folder, after verifying its MD5 checksum.
*/
type Importer struct {
	core       string
	folder     string
	dependency core.FileDependency
}

//
func New(coreName, systemFolder string, dep core.FileDependency) *Importer {
	return &Importer{core: coreName, folder: systemFolder, dependency: dep}
}

// ForRegistry creates importers for the dependencies of all cores in reg, in
// core order.
func ForRegistry(reg *core.Registry) []*Importer {
	var ret []*Importer
	for _, c := range reg.Cores() {
		for _, d := range c.FileDependencies() {
			ret = append(ret, New(c.Name(), c.SystemFolder(), d))
		}
	}
	return ret
}

// Find returns the importer for the named file of the named core.
func Find(importers []*Importer, coreName, name string) (*Importer, bool) {
	for _, i := range importers {
		if i.core == coreName && i.dependency.Name == name {
			return i, true
		}
	}
	return nil, false
}

//
func (i *Importer) Core() string {
	return i.core
}

//
func (i *Importer) Dependency() core.FileDependency {
	return i.dependency
}

// Target is the physical location of the system file.
func (i *Importer) Target() string {
	return filepath.Join(i.folder, i.dependency.Name)
}

// Available determines whether the system file is present.
func (i *Importer) Available() bool {
	fi, err := os.Stat(i.Target())
	return err == nil && !fi.IsDir()
}

//
type Status struct {
	Core        string `json:"core"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MD5         string `json:"md5"`
	Available   bool   `json:"available"`
}

//
func (i *Importer) Status() Status {
	return Status{
		Core:        i.core,
		Name:        i.dependency.Name,
		Description: i.dependency.Description,
		MD5:         i.dependency.MD5,
		Available:   i.Available(),
	}
}

/*
	Import reads the system file from r and installs it. The file is written to
	a temporary location first, and only moved into place if its checksum
	matches. An existing file gets replaced.
*/
func (i *Importer) Import(ctx context.Context, r io.Reader) error {

	logger := log.WithFields(log.Fields{
		"core": i.core, "file": i.dependency.Name})

	if err := os.MkdirAll(i.folder, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(i.folder, ".import-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	hash := md5.New()
	n, err := io.Copy(io.MultiWriter(tmp, hash),
		io.LimitReader(&contextReader{ctx: ctx, r: r}, MaxSize+1))
	if err != nil {
		tmp.Close()
		return fmt.Errorf("error reading system file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if n > MaxSize {
		return fmt.Errorf("%w: more than %d bytes", ErrTooLarge, MaxSize)
	}

	sum := hex.EncodeToString(hash.Sum(nil))
	if want := strings.ToLower(i.dependency.MD5); want != "" && sum != want {
		logger.WithFields(log.Fields{
			"expected": want, "actual": sum}).Warn("rejecting system file")
		return fmt.Errorf("%w: expected %s, got %s", ErrChecksumMismatch, want, sum)
	}

	if err := os.Rename(tmp.Name(), i.Target()); err != nil {
		return err
	}

	logger.WithField("size", n).Info("system file imported")
	return nil
}

// Remove deletes the system file, if present.
func (i *Importer) Remove() error {
	err := os.Remove(i.Target())
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

//
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

//
func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
