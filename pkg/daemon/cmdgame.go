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

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/retrix/pkg/core"
	"github.com/xelalexv/retrix/pkg/repo"
)

/*
	StartGame starts file on the given system. file may be a repository
	reference. If system is empty, the first system able to play the file is
	used. root is the optional root folder for multi-file images.
*/
func (d *Daemon) StartGame(ctx context.Context, system, file, root string) error {
	return d.submit(ctx, cmdStart, system, file, root)
}

//
func (d *Daemon) StopGame(ctx context.Context) error {
	return d.submit(ctx, cmdStop)
}

//
func (d *Daemon) ResetGame(ctx context.Context) error {
	return d.submit(ctx, cmdReset)
}

//
func (d *Daemon) PauseGame(ctx context.Context) error {
	return d.submit(ctx, cmdPause)
}

//
func (d *Daemon) ResumeGame(ctx context.Context) error {
	return d.submit(ctx, cmdResume)
}

// TogglePause is what the pause key does. When resuming, dismiss hides the
// player UI.
func (d *Daemon) TogglePause(ctx context.Context, dismiss bool) error {
	return d.submit(ctx, cmdToggle, dismiss)
}

/*
	The START command loads and starts a game.

		arg 0:	system ID, may be empty
		    1:	file or repository reference
		    2:	root folder or repository reference, may be empty
*/
func (c *command) start(d *Daemon) error {

	file, err := repo.Resolve(c.stringArg(1), d.cfg.RepoDir)
	if err != nil {
		return err
	}

	root := c.stringArg(2)
	if root != "" {
		if root, err = repo.Resolve(root, d.cfg.RepoDir); err != nil {
			return err
		}
	}

	sys, err := d.system(c.ctx, c.stringArg(0), file)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"system": sys.ID, "file": file, "root": root}).Info("START")

	if err := d.manager.StartGame(c.ctx, sys, file, root); err != nil {
		// a previously running game may already be gone
		if !d.manager.Info().Active() {
			d.deactivate()
		}
		return err
	}
	return nil
}

//
func (d *Daemon) system(ctx context.Context, id, file string) (*core.System, error) {

	if err := d.registry.WaitReady(ctx); err != nil {
		return nil, fmt.Errorf("%w: cores: %v", ErrNotReady, err)
	}

	if id == "" {
		sys, err := d.manager.SuggestSystemForFile(ctx, file)
		if err != nil {
			return nil, err
		}
		if sys == nil {
			return nil, fmt.Errorf("no system can play '%s'", file)
		}
		return sys, nil
	}

	if sys, ok := d.registry.System(id); ok {
		return sys, nil
	}
	return nil, fmt.Errorf("unknown system: %s", id)
}

// The STOP command ends the running game.
func (c *command) stop(d *Daemon) error {
	log.Info("STOP")
	return d.manager.StopGame(c.ctx)
}

// The RESET command resets the running game, and resumes it if it was paused.
func (c *command) reset(d *Daemon) error {
	log.Info("RESET")
	if err := d.manager.ResetGame(c.ctx); err != nil {
		return err
	}
	return d.resumeIfPaused(c.ctx)
}

//
func (c *command) pause(d *Daemon) error {
	log.Info("PAUSE")
	if d.isPaused() {
		return nil
	}
	return d.togglePause(c.ctx, false)
}

//
func (c *command) resume(d *Daemon) error {
	log.Info("RESUME")
	return d.resumeIfPaused(c.ctx)
}

/*
	The TOGGLE command toggles pause.

		arg 0:	whether to hide the player UI when resuming
*/
func (c *command) toggle(d *Daemon) error {
	log.WithField("dismiss", c.boolArg(0)).Info("TOGGLE")
	return d.togglePause(c.ctx, c.boolArg(0))
}
