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

package session

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xelalexv/retrix/pkg/core"
	"github.com/xelalexv/retrix/pkg/stream"
	"github.com/xelalexv/retrix/pkg/vfs"
)

const testCore = "session-test"

const testCatalog = `
cores:
  - name: session-test
    dependencies:
      - name: bios.bin
        description: test BIOS
systems:
  - id: sms
    name: Master System
    core: session-test
    extensions: [sms]
  - id: psx
    name: PlayStation
    core: session-test
    extensions: [cue, bin]
    multiFileExtensions: [cue]
    ignoreDependencies: true
`

func init() {
	core.RegisterFactory(testCore, func(cfg core.Config) (core.Core, error) {
		return &fakeCore{Base: core.NewBase(cfg)}, nil
	})
}

// fakeCore records what the session manager asks it to do
type fakeCore struct {
	*core.Base
	//
	mutex sync.Mutex
	//
	extra       []string
	loadErr     error
	panicOnLoad bool
	faultOnSave bool
	unloadDelay time.Duration
	//
	loaded  bool
	state   []byte
	opened  []string
	held    stream.Stream
	loads   int
	unloads int
	pauses  int
	resumes int
	resets  int
	inputs  []core.InputType
}

func (f *fakeCore) SerializationSize() int { return 16 }

func (f *fakeCore) Load(ctx context.Context, mainPath string) error {

	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.loads++

	if f.panicOnLoad {
		panic("corrupted")
	}
	if f.loadErr != nil {
		return f.loadErr
	}

	files := append([]string{mainPath}, f.extra...)
	for _, p := range files {
		s, err := f.OpenFile(p, vfs.Read)
		if err != nil {
			return err
		}
		data, err := io.ReadAll(s)
		f.CloseFile(s)
		if err != nil {
			return err
		}
		if len(data) == 0 {
			return core.ErrRejected
		}
		f.opened = append(f.opened, p)
	}

	s, err := f.OpenFile(vfs.SaveRoot.Path("battery.srm"), vfs.ReadWrite)
	if err != nil {
		return err
	}
	f.held = s

	f.state = make([]byte, 16)
	f.state[0] = byte(len(mainPath))
	f.loaded = true
	f.SetGameID("game:" + mainPath)
	return nil
}

func (f *fakeCore) Unload() error {

	f.mutex.Lock()
	delay := f.unloadDelay
	f.mutex.Unlock()
	time.Sleep(delay)

	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.unloads++
	f.loaded = false
	f.SetGameID("")
	return nil
}

func (f *fakeCore) Pause() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if !f.loaded {
		return core.ErrNotLoaded
	}
	f.pauses++
	return nil
}

func (f *fakeCore) Resume() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if !f.loaded {
		return core.ErrNotLoaded
	}
	f.resumes++
	return nil
}

func (f *fakeCore) Reset() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.resets++
	return nil
}

func (f *fakeCore) SaveState(ctx context.Context, buf []byte) error {

	f.mutex.Lock()
	fault := f.faultOnSave
	copy(buf, f.state)
	f.mutex.Unlock()

	if fault {
		f.RaiseFault(f, errors.New("emulation crashed during save"))
		return errors.New("save aborted")
	}
	return nil
}

func (f *fakeCore) LoadState(ctx context.Context, buf []byte) error {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if len(buf) != len(f.state) {
		return core.ErrRejected
	}
	copy(f.state, buf)
	return nil
}

func (f *fakeCore) InjectInput(port int, input core.InputType) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	if port == 0 {
		f.inputs = append(f.inputs, input)
	}
}

func (f *fakeCore) counts() (loads, unloads int) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.loads, f.unloads
}

//
type fixture struct {
	dir  string
	reg  *core.Registry
	mgr  *Manager
	core *fakeCore
	sms  *core.System
	psx  *core.System
	//
	mutex  sync.Mutex
	events []Event
}

func newFixture(t *testing.T) *fixture {

	require := require.New(t)

	cat, err := core.ParseCatalog([]byte(testCatalog))
	require.NoError(err)

	f := &fixture{dir: t.TempDir()}
	f.reg = core.NewRegistry(cat, core.Options{
		DataDir:      filepath.Join(f.dir, "data"),
		CoreOverride: testCore,
	})
	f.mgr = NewManager(f.reg, nil)
	f.mgr.Subscribe(func(e Event) {
		f.mutex.Lock()
		defer f.mutex.Unlock()
		f.events = append(f.events, e)
	})

	require.NoError(f.reg.Init())

	c, ok := f.reg.Core(testCore)
	require.True(ok)
	f.core = c.(*fakeCore)

	f.sms, ok = f.reg.System("sms")
	require.True(ok)
	f.psx, ok = f.reg.System("psx")
	require.True(ok)

	writeFile(t, filepath.Join(f.core.SystemFolder(), "bios.bin"), "bios")

	t.Cleanup(func() { f.mgr.Close() })
	return f
}

func (f *fixture) count(typ EventType) int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	n := 0
	for _, e := range f.events {
		if e.Type == typ {
			n++
		}
	}
	return n
}

func (f *fixture) last(typ EventType) (Event, bool) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	for ix := len(f.events) - 1; ix >= 0; ix-- {
		if f.events[ix].Type == typ {
			return f.events[ix], true
		}
	}
	return Event{}, false
}

func (f *fixture) game(t *testing.T, name string) string {
	file := filepath.Join(f.dir, "games", name)
	writeFile(t, file, "data of "+name)
	return file
}

func writeFile(t *testing.T, file, content string) {
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0755))
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))
}

func createZip(t *testing.T, file string, names ...string) {

	require := require.New(t)
	require.NoError(os.MkdirAll(filepath.Dir(file), 0755))

	fd, err := os.Create(file)
	require.NoError(err)
	defer fd.Close()

	zw := zip.NewWriter(fd)
	for _, n := range names {
		w, err := zw.Create(n)
		require.NoError(err)
		_, err = w.Write([]byte("data of " + n))
		require.NoError(err)
	}
	require.NoError(zw.Close())
}

func testContext(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}
