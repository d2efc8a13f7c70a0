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

package daemon

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xelalexv/retrix/pkg/importer"
	"github.com/xelalexv/retrix/pkg/repo"
	"github.com/xelalexv/retrix/pkg/session"
	"github.com/xelalexv/retrix/pkg/util"
)

// FaultInfo describes the last runtime fault that ended a session.
type FaultInfo struct {
	Time    time.Time `json:"time"`
	Session string    `json:"session"`
	System  string    `json:"system"`
	GameID  string    `json:"gameId,omitempty"`
	Error   string    `json:"error"`
}

//
type Status struct {
	Version    string       `json:"version"`
	CoresReady bool         `json:"coresReady"`
	IndexReady bool         `json:"indexReady"`
	Session    session.Info `json:"session"`
	Player     PlayerState  `json:"player"`
	LastFault  *FaultInfo   `json:"lastFault,omitempty"`
}

//
func (s *Status) String() string {

	ret := fmt.Sprintf("version: %s\ncores:   %s\n", s.Version, ready(s.CoresReady))
	ret += fmt.Sprintf("index:   %s\n", ready(s.IndexReady))

	if s.Session.Active() {
		ret += fmt.Sprintf("game:    %s on %s (%s)\n",
			s.Session.MainPath, s.Session.System, s.Session.State)
		ret += fmt.Sprintf("started: %s\n", s.Session.Started.Format(time.RFC3339))
	} else {
		ret += "game:    none\n"
	}

	if s.LastFault != nil {
		ret += fmt.Sprintf("fault:   %s at %s\n",
			s.LastFault.Error, s.LastFault.Time.Format(time.RFC3339))
	}

	return ret
}

//
func ready(r bool) string {
	if r {
		return "ready"
	}
	return "initializing"
}

// Status returns a snapshot of the daemon's state. It does not wait for the
// command loop.
func (d *Daemon) Status() *Status {

	d.mutex.RLock()
	defer d.mutex.RUnlock()

	ret := &Status{
		Version:    util.RetrixVersion,
		CoresReady: d.registry != nil && d.registry.IsReady(),
		IndexReady: d.index != nil,
		Player:     d.playerState(),
	}

	if d.manager != nil {
		ret.Session = d.manager.Info()
	}

	if d.lastFault != nil {
		f := *d.lastFault
		ret.LastFault = &f
	}

	return ret
}

// Dependencies lists the system files of all cores, and whether they are
// present.
func (d *Daemon) Dependencies() []importer.Status {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	ret := make([]importer.Status, len(d.importers))
	for ix, i := range d.importers {
		ret[ix] = i.Status()
	}
	return ret
}

/*
	ImportDependency installs the system file name of core coreName. The file
	is read from body, or if body is nil, from ref, which can be a URL, a
	repository reference, or a local file.
*/
func (d *Daemon) ImportDependency(ctx context.Context, coreName, name, ref string,
	body io.Reader) error {

	d.mutex.RLock()
	imp, ok := importer.Find(d.importers, coreName, name)
	d.mutex.RUnlock()

	if !ok {
		return fmt.Errorf("core '%s' does not depend on '%s'", coreName, name)
	}

	if body == nil {
		if ref == "" {
			return fmt.Errorf("no source for system file")
		}
		src, err := repo.Open(ref, d.cfg.RepoDir, d.cfg.MaxDownload)
		if err != nil {
			return err
		}
		defer src.Close()
		body = src
	}

	return imp.Import(ctx, body)
}
