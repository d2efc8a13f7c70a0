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
	"time"

	log "github.com/sirupsen/logrus"
)

// PlayerState is what a front-end needs to know for rendering the player.
type PlayerState struct {
	Paused                    bool `json:"paused"`
	DisplayPlayerUI           bool `json:"displayPlayerUI"`
	PointerVisible            bool `json:"pointerVisible"`
	ShouldDisplayTouchGamepad bool `json:"displayTouchGamepad"`
	FullScreen                bool `json:"fullScreen"`
	OperationsAllowed         bool `json:"operationsAllowed"`
}

//
type player struct {
	state           PlayerState
	lastPointerMove time.Time
	uiShown         time.Time
}

// playerState requires the mutex to be held.
func (d *Daemon) playerState() PlayerState {
	ret := d.player.state
	ret.OperationsAllowed = d.active && !d.inFlight
	ret.FullScreen = d.platform.IsFullScreen()
	return ret
}

// setDisplayPlayerUI requires the mutex to be held.
func (d *Daemon) setDisplayPlayerUI(show bool) {
	d.player.state.DisplayPlayerUI = show
	if show {
		d.player.uiShown = time.Now()
	}
}

// setPointerVisible requires the mutex to be held.
func (d *Daemon) setPointerVisible(visible bool) {
	if d.player.state.PointerVisible != visible {
		d.player.state.PointerVisible = visible
		d.platform.SetPointerVisible(visible)
	}
}

// activate happens when a game has started
func (d *Daemon) activate() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.active = true
	d.player.state.Paused = false
	d.setDisplayPlayerUI(true)
	d.player.lastPointerMove = time.Now()
	log.Debug("player activated")
}

// deactivate happens when the game has ended, for whatever reason
func (d *Daemon) deactivate() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.active = false
	d.player.state.Paused = false
	d.setPointerVisible(true)
	log.Debug("player deactivated")
}

//
func (d *Daemon) isPaused() bool {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return d.player.state.Paused
}

/*
	togglePause pauses a running game and brings up the player UI, or resumes
	a paused game, in which case dismiss hides the player UI. Needs to run in
	the command loop.
*/
func (d *Daemon) togglePause(ctx context.Context, dismiss bool) error {

	paused := d.isPaused()

	var err error
	if paused {
		err = d.manager.ResumeGame(ctx)
	} else {
		err = d.manager.PauseGame(ctx)
	}
	if err != nil {
		return err
	}

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if paused {
		if dismiss {
			d.setDisplayPlayerUI(false)
		}
	} else {
		d.setDisplayPlayerUI(true)
	}
	d.player.state.Paused = !paused

	return nil
}

// resumeIfPaused is what follows any operation that needed the game paused.
func (d *Daemon) resumeIfPaused(ctx context.Context) error {
	if d.isPaused() {
		return d.togglePause(ctx, true)
	}
	return nil
}

/*
	periodicChecks runs from the command loop's timer. It refreshes the touch
	game pad setting, and unless the game is paused, hides pointer and player
	UI when they have been idle for long enough.
*/
func (d *Daemon) periodicChecks() {

	d.mutex.Lock()
	defer d.mutex.Unlock()

	if !d.active {
		return
	}

	d.player.state.ShouldDisplayTouchGamepad = d.platform.ShouldDisplayTouchGamepad()

	if d.player.state.Paused {
		return
	}

	now := time.Now()
	if now.Sub(d.player.lastPointerMove) >= d.cfg.Timings.PointerIdle {
		d.setPointerVisible(false)
	}
	if now.Sub(d.player.uiShown) >= d.cfg.Timings.PlayerUIIdle {
		d.player.state.DisplayPlayerUI = false
	}
}

// SetFullScreen asks the platform to switch full screen mode, and returns
// whether that succeeded.
func (d *Daemon) SetFullScreen(full bool) bool {
	ok := d.platform.SetFullScreen(full)
	log.WithFields(log.Fields{"full": full, "ok": ok}).Debug("full screen")
	return ok
}
