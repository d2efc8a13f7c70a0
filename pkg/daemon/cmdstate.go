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

	"github.com/xelalexv/retrix/pkg/savestate"
)

// SaveState saves the state of the running game into slot.
func (d *Daemon) SaveState(ctx context.Context, slot int) error {
	return d.submit(ctx, cmdSave, slot)
}

// LoadState restores the running game from the state in slot.
func (d *Daemon) LoadState(ctx context.Context, slot int) error {
	return d.submit(ctx, cmdLoad, slot)
}

// States lists the occupied save slots of the running game.
func (d *Daemon) States(ctx context.Context) ([]savestate.Slot, error) {
	id, err := d.gameID()
	if err != nil {
		return nil, err
	}
	return d.states.Slots(ctx, id)
}

// StateData returns the raw state saved in slot for the running game.
func (d *Daemon) StateData(ctx context.Context, slot int) ([]byte, error) {
	id, err := d.gameID()
	if err != nil {
		return nil, err
	}
	return d.states.Load(ctx, id, slot)
}

//
func (d *Daemon) gameID() (string, error) {
	info := d.manager.Info()
	if !info.Active() || info.GameID == "" {
		return "", ErrNoGame
	}
	return info.GameID, nil
}

/*
	The SAVE command saves the state of the running game. A paused game gets
	resumed afterwards.

		arg 0:	slot
*/
func (c *command) save(d *Daemon) error {

	slot := c.intArg(0)
	if slot < 1 || slot > savestate.MaxSlot {
		return fmt.Errorf("%w: %d", savestate.ErrInvalidSlot, slot)
	}

	id, err := d.gameID()
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{"game": id, "slot": slot}).Info("SAVE")

	if data := d.manager.SaveGameState(c.ctx); data == nil {
		err = ErrStateIO
	} else {
		err = d.states.Save(c.ctx, id, slot, data)
	}

	if e := d.resumeIfPaused(c.ctx); err == nil {
		err = e
	}
	return err
}

/*
	The LOAD command restores the running game from a saved state. A paused
	game gets resumed afterwards.

		arg 0:	slot
*/
func (c *command) load(d *Daemon) error {

	slot := c.intArg(0)

	id, err := d.gameID()
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{"game": id, "slot": slot}).Info("LOAD")

	if data, e := d.states.Load(c.ctx, id, slot); e != nil {
		err = e
	} else if !d.manager.LoadGameState(c.ctx, data) {
		err = ErrStateIO
	}

	if e := d.resumeIfPaused(c.ctx); err == nil {
		err = e
	}
	return err
}
