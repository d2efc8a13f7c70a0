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

/*
	Package dummy provides a core that does not emulate any real hardware. It
	does everything else a core does though: it reads the game and its system
	files through the file stream callbacks, keeps battery RAM in the save
	folder, runs a frame loop, and serializes its state. That makes it useful
	for exercising front-end functionality without native cores.
*/
package dummy

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/retrix/pkg/core"
	"github.com/xelalexv/retrix/pkg/vfs"
)

//
const Name = "dummy"

// StateSize is the size of a serialized state.
const StateSize = 64

//
const batterySize = 256
const stateVersion = 1

//
var stateMagic = []byte("RTXD")

//
func init() {
	core.RegisterFactory(Name, New)
}

//
func New(cfg core.Config) (core.Core, error) {
	return &Core{
		Base:      core.NewBase(cfg),
		FrameTime: time.Second / 60,
	}, nil
}

//
type Core struct {
	*core.Base
	FrameTime time.Duration
	//
	mutex    sync.Mutex
	loaded   bool
	paused   bool
	mainPath string
	romHash  [sha1.Size]byte
	battery  []byte
	dirty    bool
	frame    uint64
	input    uint32
	crash    error
	//
	stop chan struct{}
	done chan struct{}
}

/*
	Load reads the game at mainPath, checks that all declared system files are
	present, and restores battery RAM if there is a save file. The frame loop
	starts right away.
*/
func (c *Core) Load(ctx context.Context, mainPath string) error {

	if err := c.Unload(); err != nil {
		log.WithField("core", c.Name()).Warnf("error unloading previous game: %v", err)
	}

	rom, err := c.readFile(mainPath)
	if err != nil {
		return fmt.Errorf("%w: cannot read game: %v", core.ErrRejected, err)
	}
	if len(rom) == 0 {
		return fmt.Errorf("%w: game file '%s' is empty", core.ErrRejected, mainPath)
	}

	for _, d := range c.FileDependencies() {
		if _, err := c.readFile(vfs.SystemRoot.Path(d.Name)); err != nil {
			return fmt.Errorf("%w: missing system file '%s': %v",
				core.ErrRejected, d.Name, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	battery := make([]byte, batterySize)
	if data, err := c.readFile(batteryPath(mainPath)); err == nil {
		copy(battery, data)
	}

	c.mutex.Lock()
	c.loaded = true
	c.paused = false
	c.mainPath = mainPath
	c.romHash = sha1.Sum(rom)
	c.battery = battery
	c.dirty = false
	c.frame = 0
	c.input = 0
	c.crash = nil
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.run(c.stop, c.done)
	c.mutex.Unlock()

	c.SetGameID(hex.EncodeToString(c.romHash[:]))

	log.WithFields(log.Fields{
		"core": c.Name(), "game": mainPath, "id": c.GameID()}).Info("game loaded")
	return nil
}

/*
	Unload stops the frame loop and writes back battery RAM if it has changed.
	Must not be called from within the fault handler, since that runs on the
	frame loop.
*/
func (c *Core) Unload() error {

	c.mutex.Lock()
	if !c.loaded {
		c.mutex.Unlock()
		return nil
	}
	c.loaded = false
	stop, done := c.stop, c.done
	path := batteryPath(c.mainPath)
	var battery []byte
	if c.dirty {
		battery = append([]byte(nil), c.battery...)
	}
	c.mutex.Unlock()

	close(stop)
	<-done

	c.SetGameID("")

	if battery != nil {
		if err := c.writeFile(path, battery); err != nil {
			return fmt.Errorf("error writing battery RAM: %v", err)
		}
		log.WithField("path", path).Debug("battery RAM saved")
	}

	return nil
}

//
func (c *Core) Pause() error {
	return c.withLoaded(func() error {
		c.paused = true
		return nil
	})
}

//
func (c *Core) Resume() error {
	return c.withLoaded(func() error {
		c.paused = false
		return nil
	})
}

//
func (c *Core) Reset() error {
	return c.withLoaded(func() error {
		c.frame = 0
		c.input = 0
		return nil
	})
}

//
func (c *Core) SerializationSize() int {
	return StateSize
}

//
func (c *Core) SaveState(ctx context.Context, buf []byte) error {
	return c.withLoaded(func() error {

		if len(buf) < StateSize {
			return fmt.Errorf("%w: state buffer too small", core.ErrRejected)
		}

		var b bytes.Buffer
		b.Write(stateMagic)
		b.WriteByte(stateVersion)
		binary.Write(&b, binary.LittleEndian, c.frame)
		binary.Write(&b, binary.LittleEndian, c.input)
		b.Write(c.romHash[:])

		for ix := range buf {
			buf[ix] = 0
		}
		copy(buf, b.Bytes())
		return nil
	})
}

//
func (c *Core) LoadState(ctx context.Context, buf []byte) error {
	return c.withLoaded(func() error {

		if len(buf) < StateSize || !bytes.HasPrefix(buf, stateMagic) {
			return fmt.Errorf("%w: not a valid state", core.ErrRejected)
		}

		r := bytes.NewReader(buf[len(stateMagic):])
		if v, _ := r.ReadByte(); v != stateVersion {
			return fmt.Errorf("%w: unsupported state version %d", core.ErrRejected, v)
		}

		var frame uint64
		var input uint32
		var hash [sha1.Size]byte
		binary.Read(r, binary.LittleEndian, &frame)
		binary.Read(r, binary.LittleEndian, &input)
		if _, err := io.ReadFull(r, hash[:]); err != nil {
			return fmt.Errorf("%w: truncated state", core.ErrRejected)
		}

		if hash != c.romHash {
			return fmt.Errorf("%w: state belongs to a different game", core.ErrRejected)
		}

		c.frame = frame
		c.input = input
		return nil
	})
}

//
func (c *Core) InjectInput(port int, input core.InputType) {
	if port != 0 || input < 0 || input > 31 {
		return
	}
	c.mutex.Lock()
	c.input |= 1 << uint(input)
	c.mutex.Unlock()
}

// InjectFault makes the frame loop crash on its next frame.
func (c *Core) InjectFault(err error) {
	c.mutex.Lock()
	c.crash = err
	c.mutex.Unlock()
}

//
func (c *Core) Frame() uint64 {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.frame
}

//
func (c *Core) IsPaused() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.paused
}

//
func (c *Core) withLoaded(f func() error) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if !c.loaded {
		return core.ErrNotLoaded
	}
	return f()
}

//
func (c *Core) run(stop, done chan struct{}) {

	defer close(done)
	defer func() {
		if r := recover(); r != nil {
			log.WithField("core", c.Name()).Errorf("frame loop crashed: %v", r)
			c.RaiseFault(c, fmt.Errorf("frame loop crashed: %v", r))
		}
	}()

	ticker := time.NewTicker(c.FrameTime)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.step()
		}
	}
}

//
func (c *Core) step() {

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.crash != nil {
		err := c.crash
		c.crash = nil
		panic(err)
	}

	if c.paused {
		return
	}

	c.frame++
	if c.input != 0 {
		c.battery[c.frame%batterySize] ^= byte(c.input)
		c.dirty = true
		c.input = 0
	}
}

//
func (c *Core) readFile(path string) ([]byte, error) {
	s, err := c.OpenFile(path, vfs.Read)
	if err != nil {
		return nil, err
	}
	defer c.CloseFile(s)
	return io.ReadAll(s)
}

//
func (c *Core) writeFile(path string, data []byte) error {
	s, err := c.OpenFile(path, vfs.ReadWrite)
	if err != nil {
		return err
	}
	defer c.CloseFile(s)
	_, err = s.Write(data)
	return err
}

// battery RAM lives next to the game's name in the save root
func batteryPath(mainPath string) string {
	name := vfs.Base(mainPath)
	name = strings.TrimSuffix(name, name[len(name)-len(vfs.Ext(name)):])
	return vfs.SaveRoot.Path(name + ".srm")
}
