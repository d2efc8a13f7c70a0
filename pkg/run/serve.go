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

package run

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/retrix/pkg/control"
	"github.com/xelalexv/retrix/pkg/daemon"
	"github.com/xelalexv/retrix/pkg/metrics"
	"github.com/xelalexv/retrix/pkg/repo"
	"github.com/xelalexv/retrix/pkg/util"
)

//
func NewServe() *Serve {

	s := &Serve{}
	s.Runner = *NewRunner(
		"serve [-a|--address {address}] [-d|--data {folder}] [-r|--repo {folder}] ...",
		"start the Retrix daemon",
		`
Use the serve command to start the Retrix daemon. The daemon runs the emulation
cores and serves the control API, which all other commands talk to.`,
		"", `- The data folder holds the system files and save data of each core, below
  cores/{core}/system and cores/{core}/saves, and the saved states.

- If a ROM repository is given, it gets indexed for searching. Games in the
  repository can be referenced as repo://{path relative to repository}.

`+runnerHelpEpilogue, s.Run)

	s.AddBaseSettings()
	s.AddSetting(&s.DataDir, "data", "d", "", defaultDataDir(),
		"data folder for system files, save data, and states", false)
	s.AddSetting(&s.RepoDir, "repo", "r", "", nil,
		"ROM repository folder", false)
	s.AddSetting(&s.IndexDir, "index", "", "", nil,
		"folder for the repository search index; default is below data folder", false)
	s.AddSetting(&s.CatalogFile, "catalog", "", "", nil,
		"YAML system catalog replacing the built-in one", false)
	s.AddSetting(&s.CoreOverride, "core", "", "", nil,
		"use this core for all systems", false)
	s.AddSetting(&s.StateBackend, "state-backend", "", "", "file",
		"save state storage: file or sqlite", false)
	s.AddSetting(&s.StateLocation, "state-location", "", "", nil,
		"folder or database file for save states; default is below data folder", false)
	s.AddSetting(&s.MaxDownload, "max-download", "", "", int64(repo.DefaultMaxDownload),
		"max size in bytes of system files downloaded for import", false)
	s.AddSetting(&s.PointerIdle, "pointer-idle", "", "",
		daemon.DefaultTimings().PointerIdle, "hide pointer after this idle time", false)
	s.AddSetting(&s.PlayerUIIdle, "ui-idle", "", "",
		daemon.DefaultTimings().PlayerUIIdle, "hide player UI after this idle time", false)
	s.AddSetting(&s.LogLevel, "log-level", "l", "", "info",
		"log level: trace, debug, info, warn, error", false)
	s.AddSetting(&s.LogFormat, "log-format", "", "", "text",
		"log format: text or json", false)
	s.AddSetting(&s.LogFile, "log-file", "", "", nil,
		"also log to this file, with rotation", false)
	s.AddSetting(&s.LogMaxSize, "log-max-size", "", "", 10,
		"max size in MB of log file before rotation", false)
	s.AddSetting(&s.LogBackups, "log-backups", "", "", 3,
		"number of rotated log files to keep", false)

	return s
}

//
type Serve struct {
	//
	Runner
	//
	DataDir       string
	RepoDir       string
	IndexDir      string
	CatalogFile   string
	CoreOverride  string
	StateBackend  string
	StateLocation string
	MaxDownload   int64
	PointerIdle   time.Duration
	PlayerUIIdle  time.Duration
	//
	LogLevel   string
	LogFormat  string
	LogFile    string
	LogMaxSize int
	LogBackups int
}

//
func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".retrix")
	}
	return ".retrix"
}

//
func (s *Serve) Run() error {

	s.ParseSettings()

	closer, err := util.ConfigureLogging(util.LogConfig{
		Level:      s.LogLevel,
		Format:     s.LogFormat,
		File:       s.LogFile,
		MaxSizeMB:  s.LogMaxSize,
		MaxBackups: s.LogBackups,
	})
	if err != nil {
		return err
	}
	defer closer.Close()

	log.WithFields(log.Fields{
		"version": util.RetrixVersion,
		"data":    s.DataDir,
		"repo":    s.RepoDir,
	}).Info("Retrix daemon starting")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	d := daemon.NewDaemon(daemon.Config{
		DataDir:       s.DataDir,
		RepoDir:       s.RepoDir,
		IndexDir:      s.IndexDir,
		CatalogFile:   s.CatalogFile,
		CoreOverride:  s.CoreOverride,
		StateBackend:  s.StateBackend,
		StateLocation: s.StateLocation,
		MaxDownload:   s.MaxDownload,
		Timings: daemon.Timings{
			PointerIdle:  s.PointerIdle,
			PlayerUIIdle: s.PlayerUIIdle,
		},
	}, metrics.New(reg), nil)

	if err := d.Start(); err != nil {
		return fmt.Errorf("cannot start daemon: %v", err)
	}
	defer d.Stop()

	api := control.NewAPIServer(s.Address, d, reg)
	served := make(chan error, 1)
	go func() {
		served <- api.Serve()
	}()

	ctx, stop := signal.NotifyContext(
		context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err = <-served:
		if err != nil {
			log.Errorf("API server failed: %v", err)
		}
		return err
	}

	if err := api.Stop(); err != nil {
		log.Warnf("problem stopping API server: %v", err)
	}
	return <-served
}
