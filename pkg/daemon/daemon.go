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
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/retrix/pkg/core"
	"github.com/xelalexv/retrix/pkg/importer"
	"github.com/xelalexv/retrix/pkg/metrics"
	"github.com/xelalexv/retrix/pkg/repo"
	"github.com/xelalexv/retrix/pkg/savestate"
	"github.com/xelalexv/retrix/pkg/session"
	"github.com/xelalexv/retrix/pkg/stream"
)

//
var (
	ErrBusy     = errors.New("operation not allowed right now")
	ErrNotReady = errors.New("not ready")
	ErrNoGame   = errors.New("no game running")
	ErrStopped  = errors.New("daemon stopped")
	ErrStateIO  = errors.New("state could not be transferred")
)

// Timings for hiding pointer and player UI when idle.
type Timings struct {
	Period       time.Duration
	PointerIdle  time.Duration
	PlayerUIIdle time.Duration
}

//
func DefaultTimings() Timings {
	return Timings{
		Period:       2 * time.Second,
		PointerIdle:  4 * time.Second,
		PlayerUIIdle: 4 * time.Second,
	}
}

//
type Config struct {
	DataDir  string
	RepoDir  string
	IndexDir string
	// Catalog takes precedence over CatalogFile, without either, the built-in
	// catalog is used
	Catalog      *core.Catalog
	CatalogFile  string
	CoreOverride string
	//
	StateBackend  string
	StateLocation string
	//
	MaxDownload int64
	Timings     Timings
}

/*
	NewDaemon creates a daemon for cfg. m and p are optional, without a
	platform, the daemon runs headless.
*/
func NewDaemon(cfg Config, m *metrics.Metrics, p Platform) *Daemon {

	if p == nil {
		p = NewHeadless()
	}

	def := DefaultTimings()
	if cfg.Timings.Period <= 0 {
		cfg.Timings.Period = def.Period
	}
	if cfg.Timings.PointerIdle <= 0 {
		cfg.Timings.PointerIdle = def.PointerIdle
	}
	if cfg.Timings.PlayerUIIdle <= 0 {
		cfg.Timings.PlayerUIIdle = def.PlayerUIIdle
	}

	return &Daemon{
		cfg:      cfg,
		metrics:  m,
		platform: p,
		commands: make(chan *command),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

//
type Daemon struct {
	cfg      Config
	metrics  *metrics.Metrics
	platform Platform
	//
	registry *core.Registry
	manager  *session.Manager
	states   savestate.Store
	//
	commands chan *command
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	//
	mutex       sync.RWMutex
	player      player
	active      bool
	inFlight    bool
	stopped     bool
	running     bool
	importers   []*importer.Importer
	index       *repo.Index
	lastFault   *FaultInfo
	unsubscribe func()
}

/*
	Start sets up catalog, cores, session manager, and save state store, and
	starts the command loop. Cores get initialized in the background, once that
	is done, the dependency importers and the ROM index become available.
*/
func (d *Daemon) Start() error {

	cat := d.cfg.Catalog
	if cat == nil {
		var err error
		if d.cfg.CatalogFile != "" {
			cat, err = core.LoadCatalog(d.cfg.CatalogFile)
		} else {
			cat, err = core.DefaultCatalog()
		}
		if err != nil {
			return err
		}
	}

	location := d.cfg.StateLocation
	if location == "" {
		location = filepath.Join(d.cfg.DataDir, "states")
		if d.cfg.StateBackend == savestate.BackendSQLite {
			location += ".db"
		}
	}

	states, err := savestate.New(d.cfg.StateBackend, location)
	if err != nil {
		return fmt.Errorf("cannot open save state store: %v", err)
	}

	d.states = states
	d.registry = core.NewRegistry(cat, core.Options{
		DataDir:      d.cfg.DataDir,
		CoreOverride: d.cfg.CoreOverride,
	})
	d.manager = session.NewManager(d.registry, d.metrics)
	d.unsubscribe = d.manager.Subscribe(d.onSessionEvent)

	d.mutex.Lock()
	d.running = true
	d.mutex.Unlock()

	go d.run()
	go d.registry.Init()

	log.WithFields(log.Fields{
		"data":  d.cfg.DataDir,
		"repo":  d.cfg.RepoDir,
		"state": d.cfg.StateBackend}).Info("daemon started")

	return nil
}

// Stop ends any running game, stops the command loop, and releases all
// resources.
func (d *Daemon) Stop() {

	d.stopOnce.Do(func() {

		log.Info("daemon stopping")

		d.mutex.Lock()
		d.stopped = true
		running := d.running
		index := d.index
		d.index = nil
		d.mutex.Unlock()

		close(d.stop)
		if running {
			<-d.done
		}

		if d.manager != nil {
			if err := d.manager.Close(); err != nil {
				log.Errorf("error closing session: %v", err)
			}
			d.unsubscribe()
		}

		if index != nil {
			index.Stop()
		}

		if d.states != nil {
			if err := d.states.Close(); err != nil {
				log.Errorf("error closing save state store: %v", err)
			}
		}

		log.Info("daemon stopped")
	})
}

// Done is closed once the command loop has exited.
func (d *Daemon) Done() <-chan struct{} {
	return d.done
}

//
func (d *Daemon) run() {

	defer close(d.done)

	ticker := time.NewTicker(d.cfg.Timings.Period)
	defer ticker.Stop()

	for {
		select {

		case c := <-d.commands:
			logger := log.WithField("command", c.cmd)
			logger.Debug("running command")
			err := c.exec(d)
			if err != nil {
				logger.Warnf("command failed: %v", err)
			}
			if c.cmd.gating() != gateNone {
				d.mutex.Lock()
				d.inFlight = false
				d.mutex.Unlock()
			}
			c.done <- err

		case <-ticker.C:
			d.periodicChecks()

		case <-d.stop:
			log.Debug("command loop exiting")
			return
		}
	}
}

/*
	submit hands a command to the command loop and waits for its completion.
	Gated commands are rejected with ErrBusy if they are not allowed right now.
*/
func (d *Daemon) submit(ctx context.Context, cmd cmdType,
	args ...interface{}) error {

	c := newCommand(ctx, cmd, args...)
	gate := cmd.gating()

	if gate != gateNone {
		d.mutex.Lock()
		if d.stopped {
			d.mutex.Unlock()
			return ErrStopped
		}
		if d.inFlight || (gate == gateCore && !d.active) {
			d.mutex.Unlock()
			return fmt.Errorf("%w: %s", ErrBusy, cmd)
		}
		d.inFlight = true
		d.mutex.Unlock()
	}

	select {
	case d.commands <- c:
	case <-d.stop:
		d.clearInFlight(gate)
		return ErrStopped
	case <-ctx.Done():
		d.clearInFlight(gate)
		return ctx.Err()
	}

	select {
	case err := <-c.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

//
func (d *Daemon) clearInFlight(gate gating) {
	if gate != gateNone {
		d.mutex.Lock()
		d.inFlight = false
		d.mutex.Unlock()
	}
}

//
func (d *Daemon) onSessionEvent(e session.Event) {

	switch e.Type {

	case session.CoresInitialized:
		d.mutex.Lock()
		d.importers = importer.ForRegistry(d.registry)
		d.mutex.Unlock()
		go d.startIndex()

	case session.GameStarted:
		d.activate()

	case session.GameStopped:
		d.deactivate()

	case session.GameRuntimeExceptionOccurred:
		d.mutex.Lock()
		d.lastFault = &FaultInfo{
			Time:    time.Now(),
			Session: e.Session.ID,
			System:  e.Session.System,
			GameID:  e.Session.GameID,
			Error:   fmt.Sprintf("%v", e.Err),
		}
		d.mutex.Unlock()
		d.deactivate()
	}
}

//
func (d *Daemon) startIndex() {

	if d.cfg.RepoDir == "" {
		log.Info("no ROM repository configured")
		return
	}

	dir := d.cfg.IndexDir
	if dir == "" {
		dir = filepath.Join(d.cfg.DataDir, "index")
	}

	idx, err := repo.NewIndex(dir, d.cfg.RepoDir, repo.Options{
		Classifier: d.classify,
		Metrics:    d.metrics,
	})
	if err != nil {
		log.Errorf("cannot open ROM index: %v", err)
		return
	}

	if err := idx.Start(); err != nil {
		log.Errorf("cannot start ROM index: %v", err)
		idx.Stop()
		return
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.stopped {
		idx.Stop()
		return
	}
	d.index = idx
}

// classify lets everything into the index that can be played on a system, or
// is an archive
func (d *Daemon) classify(path string) (string, bool) {
	if sys := d.registry.Suggest(path); sys != nil {
		return sys.ID, true
	}
	return "", stream.IsArchive(path)
}

// Systems lists the available systems. The list is empty while cores are
// still initializing.
func (d *Daemon) Systems() []*core.System {
	return d.registry.Systems()
}

//
func (d *Daemon) SuggestSystem(ctx context.Context, file string) (*core.System, error) {
	file, err := repo.Resolve(file, d.cfg.RepoDir)
	if err != nil {
		return nil, err
	}
	return d.manager.SuggestSystemForFile(ctx, file)
}

// Search runs a search against the ROM index.
func (d *Daemon) Search(term string, max int) (*repo.SearchResult, error) {
	d.mutex.RLock()
	idx := d.index
	d.mutex.RUnlock()
	if idx == nil {
		return nil, fmt.Errorf("%w: ROM index", ErrNotReady)
	}
	return idx.Search(term, max)
}
