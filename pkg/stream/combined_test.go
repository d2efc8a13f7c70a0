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

package stream

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xelalexv/retrix/pkg/vfs"
)

func TestCombinedDispatch(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	romDir := t.TempDir()
	sysDir := t.TempDir()
	saveDir := t.TempDir()
	writeFile(t, filepath.Join(romDir, "disc.cue"), "cue")
	writeFile(t, filepath.Join(romDir, "track1.bin"), "track")
	writeFile(t, filepath.Join(sysDir, "bios.bin"), "bios")

	c := NewCombined(
		NewFolder("ROM", romDir),
		NewFolder("SYSTEM", sysDir),
		NewFolder("SAVE", saveDir))

	require.Equal("track", readAll(t, c, "ROM/track1.bin"))
	require.Equal("bios", readAll(t, c, "SYSTEM/bios.bin"))

	_, err := c.Open(context.Background(), "OTHER/file", vfs.Read)
	require.ErrorIs(err, vfs.ErrNotFound)

	_, err = c.Open(context.Background(), "SYSTEM/missing.bin", vfs.Read)
	require.ErrorIs(err, vfs.ErrNotFound)

	s, err := c.Open(context.Background(), "SAVE/disc.srm", vfs.ReadWrite)
	require.NoError(err)
	_, err = s.Write([]byte("save"))
	require.NoError(err)
	require.NoError(c.CloseStream(s))
	require.ErrorIs(c.CloseStream(s), vfs.ErrNotFound)

	entries, err := c.Entries(context.Background())
	require.NoError(err)
	require.Equal([]string{
		"ROM/disc.cue", "ROM/track1.bin", "SYSTEM/bios.bin", "SAVE/disc.srm"},
		entries)

	require.NoError(c.Close())
	_, err = c.Open(context.Background(), "ROM/track1.bin", vfs.Read)
	require.ErrorIs(err, vfs.ErrClosed)
}

func TestCombinedLongestPrefix(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	short := &fakeProvider{prefix: "ROM"}
	long := &fakeProvider{prefix: "ROM/disc"}
	c := NewCombined(short, long)

	_, err := c.Open(context.Background(), "ROM/disc/track1.bin", vfs.Read)
	require.EqualError(err, "ROM/disc opened")

	_, err = c.Open(context.Background(), "ROM/discs/track1.bin", vfs.Read)
	require.EqualError(err, "ROM opened")

	require.Equal([]string{"ROM/disc/track1.bin"}, long.opened)
	require.Equal([]string{"ROM/discs/track1.bin"}, short.opened)
}

func TestCombinedCloseOnce(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	first := &fakeProvider{prefix: "ROM", closeErr: errors.New("rom failed")}
	second := &fakeProvider{prefix: "SYSTEM", panics: true}
	third := &fakeProvider{prefix: "SAVE", closeErr: errors.New("save failed")}
	fourth := &fakeProvider{prefix: "EXTRA"}

	c := NewCombined(first, second, third, fourth)

	err := c.Close()
	require.Error(err)
	require.Contains(err.Error(), "rom failed")
	require.Contains(err.Error(), "panic while closing provider")
	require.Contains(err.Error(), "save failed")

	require.Equal(err, c.Close())

	for _, p := range []*fakeProvider{first, second, third, fourth} {
		require.Equal(1, p.closed, p.prefix)
	}
}

func TestCombinedConcurrentClose(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	slow := &fakeProvider{
		prefix:   "ROM",
		closeErr: errors.New("rom failed"),
		entered:  make(chan struct{}),
		release:  make(chan struct{}),
	}
	c := NewCombined(slow, &fakeProvider{prefix: "SAVE"})

	errs := make(chan error, 2)
	go func() { errs <- c.Close() }()
	<-slow.entered
	go func() { errs <- c.Close() }()

	time.Sleep(50 * time.Millisecond)
	close(slow.release)

	for ix := 0; ix < 2; ix++ {
		select {
		case err := <-errs:
			require.Error(err)
			require.Contains(err.Error(), "rom failed")
		case <-time.After(5 * time.Second):
			require.Fail("close did not return")
		}
	}
	require.Equal(1, slow.closed)
}

func TestCombinedClosesOpenStreams(t *testing.T) {
	t.Parallel()
	require := require.New(t)

	dir := t.TempDir()
	file := createTestZip(t, dir, "game.zip", zipEntry{"game.sms", "rom"})
	arc := NewArchive("ROM", file)
	save := NewFolder("SAVE", filepath.Join(dir, "saves"))

	c := NewCombined(arc, save)

	_, err := c.Open(context.Background(), "ROM/game.sms", vfs.Read)
	require.NoError(err)
	_, err = c.Open(context.Background(), "SAVE/game.srm", vfs.ReadWrite)
	require.NoError(err)

	require.Equal(1, arc.count())
	require.Equal(1, save.count())

	require.NoError(c.Close())

	require.Equal(0, arc.count())
	require.Equal(0, save.count())
}
