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
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/retrix/pkg/metrics"
	"github.com/xelalexv/retrix/pkg/util"
)

//
const replaceChars = "`~!@#$%^&*_-+=()[]{}|;:',.<>?"

var nameCleaner *strings.Replacer

//
func init() {
	rep := make([]string, 2*len(replaceChars))
	for ix, c := range replaceChars {
		rep[ix*2] = string(c)
		rep[ix*2+1] = " "
	}
	nameCleaner = strings.NewReplacer(rep...)
}

/*
	Classifier decides whether a file belongs into the index, and if so, which
	system it is suggested for. The system may be empty, e.g. for archives.
*/
type Classifier func(path string) (system string, ok bool)

// flushThreshold is the number of pending changes that trigger a flush
const flushThreshold = 100

//
type Options struct {
	// Classifier is optional, without it, every file gets indexed
	Classifier Classifier
	Metrics    *metrics.Metrics
	// Backoff is the quiet time after changes in the repo, before they get
	// flushed to the index
	Backoff time.Duration
}

/*
	NewIndex opens the search index stored in folder base for the ROM
	repository in folder repo. If there is no index yet, a new one is created.
	The index does not reflect the repository before Start has been called.
*/
func NewIndex(base, repo string, opts Options) (*Index, error) {

	var err error
	i := &Index{opts: opts}

	if i.opts.Backoff <= 0 {
		i.opts.Backoff = 5 * time.Second
	}

	if i.base, err = filepath.Abs(base); err != nil {
		return nil, err
	}
	if i.repo, err = filepath.Abs(repo); err != nil {
		return nil, err
	}

	logger := log.WithFields(log.Fields{"base": i.base, "repo": i.repo})

	if _, err := os.Stat(i.base); errors.Is(err, fs.ErrNotExist) {
		logger.Info("creating new index")
		if i.index, err = bleve.New(i.base, bleve.NewIndexMapping()); err != nil {
			logger.Errorf("cannot create index: %v", err)
			return nil, err
		}
		i.empty = true

	} else {
		logger.Info("opening index")
		if i.index, err = bleve.Open(i.base); err != nil {
			logger.Errorf("cannot open index: %v", err)
			return nil, err
		}
	}

	i.batch = i.index.NewBatch()
	return i, nil
}

// Entry is the document stored in the index for each ROM file.
type Entry struct {
	Name   string `json:"name"`
	System string `json:"system"`
}

//
type Index struct {
	base    string
	repo    string
	opts    Options
	stopped atomic.Bool
	//
	index   bleve.Index
	empty   bool
	watcher *util.DirWatcher
	//
	mutex      sync.Mutex
	batch      *bleve.Batch
	batchCount int
}

// Repo returns the absolute path of the repository folder.
func (i *Index) Repo() string {
	return i.repo
}

/*
	Start brings the index up to date with the repository, removing entries for
	files that are gone, and adding new or changed files. After that, the
	repository is watched for changes.
*/
func (i *Index) Start() error {

	start := time.Now()
	log.Info("pruning index")
	if err := i.prune(); err != nil {
		return fmt.Errorf("error pruning index: %v", err)
	}
	log.WithField("duration", time.Since(start)).Info("index pruning finished")

	start = time.Now()
	log.Info("updating index")
	if err := i.update(); err != nil {
		return fmt.Errorf("error updating index: %v", err)
	}
	log.WithField("duration", time.Since(start)).Info("index update finished")

	if err := i.batched(true); err != nil {
		return err
	}

	if err := i.startWatching(); err != nil {
		return fmt.Errorf("error starting repo watcher: %v", err)
	}

	log.Info("index ready")
	return nil
}

//
func (i *Index) Stop() {

	i.stopped.Store(true)

	if i.watcher != nil {
		i.watcher.Stop()
	}

	i.mutex.Lock()
	defer i.mutex.Unlock()

	if i.index != nil {
		if err := i.index.Close(); err != nil {
			log.Errorf("error closing index: %v", err)
		}
		i.index = nil
	}
}

//
func (i *Index) prune() error {

	if i.empty {
		return nil
	}

	ix, err := i.index.Advanced()
	if err != nil {
		return err
	}

	rd, err := ix.Reader()
	if err != nil {
		return err
	}
	defer rd.Close()

	docs, err := rd.DocIDReaderAll()
	if err != nil {
		return err
	}
	defer docs.Close()

	for {
		d, err := docs.Next()
		if err != nil {
			return err
		}
		if d == nil {
			return nil
		}
		id, err := rd.ExternalID(d)
		if err != nil {
			return err
		}
		if _, err := os.Stat(i.physical(id)); errors.Is(err, fs.ErrNotExist) {
			i.removeEntry(id)
		}
	}
}

//
func (i *Index) update() error {

	var lastMod time.Time
	if !i.empty {
		if store, err := os.Stat(filepath.Join(i.base, "store")); err == nil {
			lastMod = store.ModTime()
			log.Debugf("last index mod time: %v", lastMod)
		}
	}

	i.empty = false

	return filepath.WalkDir(i.repo, func(path string, d fs.DirEntry, err error) error {

		if i.stopped.Load() {
			return fmt.Errorf("forced exit")
		}
		if err != nil {
			log.Warnf("skipping '%s': %v", path, err)
			return nil
		}

		if d.IsDir() {
			if path != i.repo && i.skip(path) {
				return filepath.SkipDir
			}
			return nil
		}

		if info, err := d.Info(); err == nil && info.ModTime().After(lastMod) {
			i.addEntry(i.makeRelative(path))
		}

		return nil
	})
}

// skip excludes hidden files and folders, and the index itself in case it is
// located inside the repo
func (i *Index) skip(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".") ||
		path == i.base || strings.HasPrefix(path, i.base+string(filepath.Separator))
}

//
func (i *Index) startWatching() error {
	log.Info("starting index repo watcher")
	var err error
	if i.watcher, err = util.NewDirWatcher(i.repo, i.skip); err != nil {
		return err
	}
	return i.watcher.Start(i.opts.Backoff, i.watchEvent, i.flushEvent)
}

//
func (i *Index) watchEvent(evt fsnotify.Event) error {

	rel := i.makeRelative(evt.Name)
	logger := log.WithFields(log.Fields{"path": rel, "op": evt.Op})
	logger.Debug("index update")

	switch {

	case evt.Op&(fsnotify.Create|fsnotify.Write) != 0:
		info, err := os.Stat(evt.Name)
		if err != nil {
			logger.Errorf("cannot add new entry: %v", err)
		} else if info.IsDir() {
			return i.addTree(evt.Name)
		} else {
			return i.addEntry(rel)
		}

	case evt.Op&(fsnotify.Rename|fsnotify.Remove) != 0:
		return i.removeTree(rel)

	default:
		logger.Debug("no index update required")
	}

	return nil
}

// addTree adds all files below a folder that appeared in the repo
func (i *Index) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && i.skip(path) {
				return filepath.SkipDir
			}
			return nil
		}
		return i.addEntry(i.makeRelative(path))
	})
}

// removeTree removes the entry for path, and if path was a folder, all entries
// below it
func (i *Index) removeTree(path string) error {

	if err := i.removeEntry(path); err != nil {
		return err
	}

	i.mutex.Lock()
	index := i.index
	i.mutex.Unlock()
	if index == nil {
		return nil
	}

	query := bleve.NewPrefixQuery(path + "/")
	query.SetField("_id")
	res, err := index.Search(bleve.NewSearchRequestOptions(query, 10000, 0, false))
	if err != nil {
		return err
	}
	for _, h := range res.Hits {
		if err := i.removeEntry(h.ID); err != nil {
			return err
		}
	}
	return nil
}

//
func (i *Index) flushEvent() error {
	return i.batched(true)
}

//
func (i *Index) addEntry(path string) error {

	system := ""
	if i.opts.Classifier != nil {
		var ok bool
		if system, ok = i.opts.Classifier(path); !ok {
			return nil
		}
	}

	logger := log.WithFields(log.Fields{"file": path, "system": system})
	logger.Debug("adding new entry to index")

	i.mutex.Lock()
	err := i.batch.Index(path, Entry{Name: nameCleaner.Replace(path), System: system})
	i.mutex.Unlock()

	if err != nil {
		logger.Errorf("failed to batch entry add: %v", err)
		return err
	}

	return i.batched(false)
}

//
func (i *Index) removeEntry(path string) error {
	log.WithField("file", path).Debug("removing deleted entry from index")
	i.mutex.Lock()
	i.batch.Delete(path)
	i.mutex.Unlock()
	return i.batched(false)
}

//
func (i *Index) batched(flush bool) error {

	i.mutex.Lock()
	defer i.mutex.Unlock()

	if i.index == nil {
		return nil
	}

	if i.batchCount++; flush || i.batchCount > flushThreshold {
		log.Debug("flushing pending index actions")
		if err := i.index.Batch(i.batch); err != nil {
			log.Errorf("failed to execute index batch: %v", err)
			return err
		}
		i.batch = i.index.NewBatch()
		i.batchCount = 0
	}

	return nil
}

// makeRelative turns a physical path inside the repo into a slash separated
// path relative to the repo
func (i *Index) makeRelative(path string) string {
	if rel, err := filepath.Rel(i.repo, path); err == nil &&
		!strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

//
func (i *Index) physical(rel string) string {
	return filepath.Join(i.repo, filepath.FromSlash(rel))
}
