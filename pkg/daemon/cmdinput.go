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

	"github.com/xelalexv/retrix/pkg/session"
)

// InjectInput passes the named input, e.g. "start", to the running game.
func (d *Daemon) InjectInput(ctx context.Context, name string) error {
	in, err := session.ParseInjectedInput(name)
	if err != nil {
		return err
	}
	return d.submit(ctx, cmdInput, in)
}

// PointerMoved is reported by a front-end whenever the user moves the pointer.
func (d *Daemon) PointerMoved(ctx context.Context) error {
	return d.submit(ctx, cmdPointer)
}

// Tapped is reported by a front-end when the user taps the game.
func (d *Daemon) Tapped(ctx context.Context) error {
	return d.submit(ctx, cmdTapped)
}

/*
	The INPUT command injects an input into the running game.

		arg 0:	session.InjectedInput
*/
func (c *command) input(d *Daemon) error {
	in, _ := c.arg(0).(session.InjectedInput)
	log.WithField("input", in).Trace("INPUT")
	if !d.manager.InjectInput(in) {
		return ErrNoGame
	}
	return nil
}

// The POINTER command shows the pointer and the player UI.
func (c *command) pointer(d *Daemon) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.setPointerVisible(true)
	d.player.lastPointerMove = time.Now()
	d.setDisplayPlayerUI(true)
	return nil
}

// The TAPPED command toggles the player UI.
func (c *command) tapped(d *Daemon) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.setDisplayPlayerUI(!d.player.state.DisplayPlayerUI)
	return nil
}
