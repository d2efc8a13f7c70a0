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

package util

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

/*
	NewDirWatcher creates a recursive file system watcher for the directory tree
	rooted in dir. Directories created later on are included in the watch.
	Paths for which skip returns true are neither watched nor reported, skip
	may be nil. The watcher does not report anything before Start is called.
*/
func NewDirWatcher(dir string, skip func(path string) bool) (*DirWatcher, error) {

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dw := &DirWatcher{
		dir:     dir,
		skip:    skip,
		watcher: w,
		done:    make(chan struct{}),
	}

	if err := dw.addTree(dir); err != nil {
		w.Close()
		log.Errorf("error walking directory '%s': %v", dir, err)
		return nil, err
	}

	return dw, nil
}

//
type DirWatcher struct {
	dir     string
	skip    func(path string) bool
	watcher *fsnotify.Watcher
	//
	mutex   sync.Mutex
	running bool
	stopped bool
	done    chan struct{}
}

/*
	Start runs the watch loop. Each change in the watched tree is passed to
	handler. Once changes have settled for backoff time, flush is called. Both
	are only ever called from the watch loop, so they need not be thread safe.
*/
func (dw *DirWatcher) Start(backoff time.Duration,
	handler func(fsnotify.Event) error, flush func() error) error {

	dw.mutex.Lock()
	defer dw.mutex.Unlock()

	if dw.stopped {
		return fmt.Errorf("directory watcher stopped")
	}
	if dw.running {
		return fmt.Errorf("directory watcher already started")
	}

	dw.running = true
	go dw.run(backoff, handler, flush)

	return nil
}

//
func (dw *DirWatcher) run(backoff time.Duration,
	handler func(fsnotify.Event) error, flush func() error) {

	defer close(dw.done)

	var timer *time.Timer
	var settled <-chan time.Time
	errors := dw.watcher.Errors

	for {
		select {

		case evt, ok := <-dw.watcher.Events:

			if !ok {
				log.Debug("directory watcher routine exiting")
				return
			}

			if dw.skip != nil && dw.skip(evt.Name) {
				continue
			}

			dw.track(evt)
			if err := handler(evt); err != nil {
				log.Errorf("error in watch event handler: %v", err)
			}

			if timer == nil {
				timer = time.NewTimer(backoff)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(backoff)
			}
			settled = timer.C

		case err, ok := <-errors:
			if !ok {
				errors = nil
				continue
			}
			log.Errorf("directory watcher error: %v", err)

		case <-settled:
			settled = nil
			if err := flush(); err != nil {
				log.Errorf("error flushing: %v", err)
			}
		}
	}
}

// Stop ends watching, and waits for the watch loop to exit. A stopped watcher
// cannot be started again.
func (dw *DirWatcher) Stop() {

	dw.mutex.Lock()
	if dw.stopped {
		dw.mutex.Unlock()
		return
	}
	dw.stopped = true
	running := dw.running
	dw.mutex.Unlock()

	log.WithField("dir", dw.dir).Info("closing directory watcher")
	if err := dw.watcher.Close(); err != nil {
		log.Errorf("could not close file watcher: %v", err)
	}

	if running {
		<-dw.done
	}
}

// track extends the watch to directories that were created
func (dw *DirWatcher) track(evt fsnotify.Event) {
	log.WithFields(
		log.Fields{"path": evt.Name, "op": evt.Op}).Trace("handling event")
	if evt.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Lstat(evt.Name); err == nil && info.IsDir() {
			dw.addTree(evt.Name)
		}
	}
}

//
func (dw *DirWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {

		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dw.dir && dw.skip != nil && dw.skip(path) {
			return filepath.SkipDir
		}

		if err := dw.watcher.Add(path); err != nil {
			log.Errorf("error adding watch for directory '%s': %v", path, err)
			return err
		}
		log.WithField("path", path).Debug("starting directory watch")
		return nil
	})
}
