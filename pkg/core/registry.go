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

package core

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/retrix/pkg/vfs"
)

// Config is what a core factory gets for creating a core instance.
type Config struct {
	Name         string
	SystemFolder string
	SaveFolder   string
	Extensions   []string
	Dependencies []FileDependency
}

// Factory creates a core instance.
type Factory func(cfg Config) (Core, error)

var factoriesLock sync.RWMutex
var factories = make(map[string]Factory)

/*
	RegisterFactory makes a core implementation available under name. It is
	meant to be called from the init function of a core's package. Registering
	the same name twice, or a nil factory, panics.
*/
func RegisterFactory(name string, f Factory) {

	factoriesLock.Lock()
	defer factoriesLock.Unlock()

	if f == nil {
		panic("core: nil factory for " + name)
	}
	if _, dup := factories[name]; dup {
		panic("core: factory registered twice for " + name)
	}

	factories[name] = f
}

// Factories lists the names of all registered core implementations.
func Factories() []string {
	factoriesLock.RLock()
	defer factoriesLock.RUnlock()
	ret := make([]string, 0, len(factories))
	for n := range factories {
		ret = append(ret, n)
	}
	sort.Strings(ret)
	return ret
}

//
func factory(name string) (Factory, bool) {
	factoriesLock.RLock()
	defer factoriesLock.RUnlock()
	f, ok := factories[name]
	return f, ok
}

//
type Options struct {
	// DataDir is the base folder below which each core gets its system and
	// save folders.
	DataDir string
	// CoreOverride binds all systems to the named core, if set.
	CoreOverride string
}

/*
	NewRegistry creates a registry for the systems in catalog. The registry is
	empty until Init has been called. After that, it does not change anymore
	and is safe for concurrent use.
*/
func NewRegistry(catalog *Catalog, opts Options) *Registry {
	return &Registry{
		catalog: catalog,
		opts:    opts,
		ready:   make(chan struct{}),
		cores:   make(map[string]Core),
		byID:    make(map[string]*System),
	}
}

//
type Registry struct {
	catalog *Catalog
	opts    Options
	//
	once  sync.Once
	ready chan struct{}
	err   error
	//
	cores     map[string]Core
	coreOrder []string
	systems   []*System
	byID      map[string]*System
}

/*
	Init creates one instance of each core referenced by the catalog, and binds
	the systems to them. Systems whose core is not available are skipped. Only
	the first call does any work, later calls return the result of the first.
*/
func (r *Registry) Init() error {

	r.once.Do(func() {
		defer close(r.ready)
		r.err = r.build()
		if r.err != nil {
			log.Errorf("error initializing cores: %v", r.err)
		}
	})

	return r.err
}

//
func (r *Registry) build() error {

	if r.catalog == nil {
		return fmt.Errorf("no system catalog")
	}

	// collect the extensions each core needs to handle
	extensions := make(map[string][]string)
	var order []string

	for _, s := range r.catalog.Systems {
		name := r.coreNameFor(s)
		if _, ok := extensions[name]; !ok {
			order = append(order, name)
			extensions[name] = nil
		}
		for _, e := range s.Extensions {
			e = normalizeExtension(e)
			if !contains(extensions[name], e) {
				extensions[name] = append(extensions[name], e)
			}
		}
	}

	for _, name := range order {

		logger := log.WithField("core", name)

		f, ok := factory(name)
		if !ok {
			logger.Warn("no implementation for core, skipping")
			continue
		}

		dir := filepath.Join(r.opts.DataDir, "cores", name)
		c, err := f(Config{
			Name:         name,
			SystemFolder: filepath.Join(dir, "system"),
			SaveFolder:   filepath.Join(dir, "saves"),
			Extensions:   extensions[name],
			Dependencies: r.catalog.core(name).Dependencies,
		})

		if err != nil {
			logger.Errorf("cannot create core: %v", err)
			continue
		}

		r.cores[name] = c
		r.coreOrder = append(r.coreOrder, name)
		logger.Debug("core created")
	}

	for _, s := range r.catalog.Systems {

		name := r.coreNameFor(s)
		c, ok := r.cores[name]
		if !ok {
			continue
		}

		exts := make([]string, 0, len(s.Extensions))
		for _, e := range s.Extensions {
			exts = append(exts, normalizeExtension(e))
		}
		multi := make([]string, 0, len(s.MultiFileExtensions))
		for _, e := range s.MultiFileExtensions {
			multi = append(multi, normalizeExtension(e))
		}

		sys := &System{
			ID:                  s.ID,
			Name:                s.Name,
			Manufacturer:        s.Manufacturer,
			CoreName:            name,
			Extensions:          exts,
			MultiFileExtensions: multi,
			IgnoresDependencies: s.IgnoreDependencies,
			core:                c,
		}

		r.systems = append(r.systems, sys)
		r.byID[sys.ID] = sys
	}

	log.WithFields(log.Fields{
		"cores":   len(r.cores),
		"systems": len(r.systems)}).Info("cores initialized")

	return nil
}

//
func (r *Registry) coreNameFor(s SystemSpec) string {
	if r.opts.CoreOverride != "" {
		return r.opts.CoreOverride
	}
	return s.Core
}

// Ready returns a channel that gets closed once initialization is complete.
func (r *Registry) Ready() <-chan struct{} {
	return r.ready
}

//
func (r *Registry) IsReady() bool {
	select {
	case <-r.ready:
		return true
	default:
		return false
	}
}

// WaitReady blocks until the registry is initialized, or ctx is done.
func (r *Registry) WaitReady(ctx context.Context) error {
	select {
	case <-r.ready:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Systems returns all systems in catalog order.
func (r *Registry) Systems() []*System {
	if !r.IsReady() {
		return nil
	}
	return append([]*System(nil), r.systems...)
}

//
func (r *Registry) System(id string) (*System, bool) {
	if !r.IsReady() {
		return nil, false
	}
	s, ok := r.byID[id]
	return s, ok
}

// Cores returns all core instances, in the order in which they were first
// referenced by the catalog.
func (r *Registry) Cores() []Core {
	if !r.IsReady() {
		return nil
	}
	ret := make([]Core, len(r.coreOrder))
	for ix, n := range r.coreOrder {
		ret[ix] = r.cores[n]
	}
	return ret
}

//
func (r *Registry) Core(name string) (Core, bool) {
	if !r.IsReady() {
		return nil, false
	}
	c, ok := r.cores[name]
	return c, ok
}

/*
	Suggest returns the first system, in catalog order, whose extensions
	include the extension of file. Returns nil if there is none, or the
	registry is not yet initialized.
*/
func (r *Registry) Suggest(file string) *System {
	ext := vfs.Ext(file)
	for _, s := range r.Systems() {
		if contains(s.Extensions, ext) {
			return s
		}
	}
	return nil
}
