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
	"sync"

	log "github.com/sirupsen/logrus"
)

/*
	Platform is the front-end the daemon is driving, e.g. a window showing the
	game, or nothing at all when running headless.
*/
type Platform interface {
	SetPointerVisible(visible bool)
	ShouldDisplayTouchGamepad() bool
	// SetFullScreen returns whether the requested mode could be entered
	SetFullScreen(full bool) bool
	IsFullScreen() bool
}

// NewHeadless returns a platform that only keeps track of requested settings.
func NewHeadless() Platform {
	return &headless{}
}

//
type headless struct {
	mutex      sync.Mutex
	pointer    bool
	fullScreen bool
}

//
func (h *headless) SetPointerVisible(visible bool) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.pointer != visible {
		log.WithField("visible", visible).Trace("pointer visibility")
		h.pointer = visible
	}
}

//
func (h *headless) ShouldDisplayTouchGamepad() bool {
	return false
}

//
func (h *headless) SetFullScreen(full bool) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.fullScreen = full
	return true
}

//
func (h *headless) IsFullScreen() bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return h.fullScreen
}
