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
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/xelalexv/retrix/pkg/core"
	"github.com/xelalexv/retrix/pkg/vfs"
)

func TestStartSingleFile(t *testing.T) {

	t.Parallel()
	require := require.New(t)
	f := newFixture(t)
	ctx := testContext(t)

	file := f.game(t, "game.sms")
	require.NoError(f.mgr.StartGame(ctx, f.sms, file, ""))

	info := f.mgr.Info()
	require.Equal(Running, info.State)
	require.True(info.Active())
	require.False(info.Paused)
	require.Equal("sms", info.System)
	require.Equal("ROM/game.sms", info.MainPath)
	require.Equal("game:ROM/game.sms", info.GameID)
	require.NotEmpty(info.ID)
	require.Equal(1, f.count(GameStarted))

	e, ok := f.last(GameStarted)
	require.True(ok)
	require.Equal(info.ID, e.Session.ID)

	require.NoError(f.mgr.StopGame(ctx))
	require.Equal(Idle, f.mgr.Info().State)
	require.Equal(1, f.count(GameStopped))
	_, unloads := f.core.counts()
	require.Equal(1, unloads)
	require.Empty(f.core.GameID())

	e, ok = f.last(GameStopped)
	require.True(ok)
	require.Equal(info.ID, e.Session.ID)

	// stopping again is a no-op
	require.NoError(f.mgr.StopGame(ctx))
	require.Equal(1, f.count(GameStopped))
}

func TestStartSystemDependency(t *testing.T) {

	t.Parallel()
	require := require.New(t)
	f := newFixture(t)

	f.core.extra = []string{"SYSTEM/bios.bin"}
	require.NoError(
		f.mgr.StartGame(testContext(t), f.sms, f.game(t, "sub/game.sms"), ""))

	require.Equal("ROM/game.sms", f.mgr.Info().MainPath)
	require.Equal([]string{"ROM/game.sms", "SYSTEM/bios.bin"}, f.core.opened)
}

func TestStartMultiFileImage(t *testing.T) {

	t.Parallel()
	require := require.New(t)
	f := newFixture(t)
	ctx := testContext(t)

	discs := filepath.Join(f.dir, "discs")
	writeFile(t, filepath.Join(discs, "disc.cue"), "FILE track1.bin")
	writeFile(t, filepath.Join(discs, "track1.bin"), "track 1")
	writeFile(t, filepath.Join(discs, "game", "disc.cue"), "FILE track1.bin")
	writeFile(t, filepath.Join(discs, "game", "track1.bin"), "track 1")

	// containing folder becomes root folder
	f.core.extra = []string{"ROM/track1.bin"}
	require.NoError(
		f.mgr.StartGame(ctx, f.psx, filepath.Join(discs, "disc.cue"), ""))
	require.Equal("ROM/disc.cue", f.mgr.Info().MainPath)
	require.Equal([]string{"ROM/disc.cue", "ROM/track1.bin"}, f.core.opened)

	// explicit root folder keeps sub folders
	f.core.opened = nil
	f.core.extra = []string{"ROM/game/track1.bin"}
	require.NoError(f.mgr.StartGame(
		ctx, f.psx, filepath.Join(discs, "game", "disc.cue"), discs+"/"))
	require.Equal("ROM/game/disc.cue", f.mgr.Info().MainPath)
	require.Equal(
		[]string{"ROM/game/disc.cue", "ROM/game/track1.bin"}, f.core.opened)
}

func TestStartArchive(t *testing.T) {

	t.Parallel()
	require := require.New(t)
	f := newFixture(t)
	ctx := testContext(t)

	file := filepath.Join(f.dir, "games", "game.zip")
	createZip(t, file, "readme.txt", "game.sms", "other.sms")

	require.NoError(f.mgr.StartGame(ctx, f.sms, file, ""))
	require.Equal("ROM/game.sms", f.mgr.Info().MainPath)
	require.Equal(file, f.mgr.Info().File)

	empty := filepath.Join(f.dir, "games", "empty.zip")
	createZip(t, empty, "readme.txt")

	err := f.mgr.StartGame(ctx, f.sms, empty, "")
	require.ErrorIs(err, ErrLoadFailure)
	require.ErrorIs(err, ErrNoMainEntry)
	require.Equal(Idle, f.mgr.Info().State)
}

func TestStartFailures(t *testing.T) {

	t.Parallel()
	f := newFixture(t)
	ctx := testContext(t)

	tests := []struct {
		name  string
		setup func() (*core.System, string)
		cause error
	}{
		{
			name:  "no system",
			setup: func() (*core.System, string) { return nil, f.game(t, "a.sms") },
			cause: ErrNoSystem,
		},
		{
			name:  "unsupported file",
			setup: func() (*core.System, string) { return f.sms, f.game(t, "a.txt") },
			cause: ErrUnsupportedFile,
		},
		{
			name: "missing file",
			setup: func() (*core.System, string) {
				return f.sms, filepath.Join(f.dir, "nothing.sms")
			},
			cause: vfs.ErrNotFound,
		},
		{
			name: "rejected",
			setup: func() (*core.System, string) {
				f.core.loadErr = core.ErrRejected
				return f.sms, f.game(t, "b.sms")
			},
			cause: core.ErrRejected,
		},
		{
			name: "missing dependency",
			setup: func() (*core.System, string) {
				f.core.loadErr = nil
				bios := filepath.Join(f.core.SystemFolder(), "bios.bin")
				require.NoError(t, os.Remove(bios))
				return f.sms, f.game(t, "c.sms")
			},
			cause: ErrMissingDependency,
		},
	}

	for _, tc := range tests {
		sys, file := tc.setup()
		err := f.mgr.StartGame(ctx, sys, file, "")
		require.ErrorIs(t, err, ErrLoadFailure, tc.name)
		require.ErrorIs(t, err, tc.cause, tc.name)
		require.Equal(t, Idle, f.mgr.Info().State, tc.name)
	}

	require.Zero(t, f.count(GameStarted))
	require.Zero(t, f.count(GameRuntimeExceptionOccurred))
}

func TestStartPanicTearsDown(t *testing.T) {

	t.Parallel()
	require := require.New(t)
	f := newFixture(t)

	f.core.panicOnLoad = true
	err := f.mgr.StartGame(testContext(t), f.sms, f.game(t, "game.sms"), "")
	require.ErrorIs(err, ErrLoadFailure)
	require.True(core.IsFault(err))

	loads, unloads := f.core.counts()
	require.Equal(1, loads)
	require.Equal(1, unloads)
	require.Equal(Idle, f.mgr.Info().State)
	require.Zero(f.count(GameRuntimeExceptionOccurred))

	// session is usable afterwards
	f.core.panicOnLoad = false
	require.NoError(
		f.mgr.StartGame(testContext(t), f.sms, f.game(t, "game.sms"), ""))
}

func TestSingleActiveSession(t *testing.T) {

	t.Parallel()
	require := require.New(t)
	f := newFixture(t)
	ctx := testContext(t)

	require.NoError(f.mgr.StartGame(ctx, f.sms, f.game(t, "one.sms"), ""))
	first := f.mgr.Info()
	held := f.core.held

	_, err := held.Write([]byte("battery"))
	require.NoError(err)

	require.NoError(f.mgr.StartGame(ctx, f.sms, f.game(t, "two.sms"), ""))
	second := f.mgr.Info()

	require.NotEqual(first.ID, second.ID)
	require.Equal("ROM/two.sms", second.MainPath)

	_, unloads := f.core.counts()
	require.Equal(1, unloads)

	// streams of the first session's provider are gone
	_, err = held.Write([]byte("battery"))
	require.Error(err)

	require.Equal(2, f.count(GameStarted))
	require.Zero(f.count(GameStopped))
}

func TestPauseResume(t *testing.T) {

	t.Parallel()
	require := require.New(t)
	f := newFixture(t)
	ctx := testContext(t)

	// no-ops without session
	require.NoError(f.mgr.PauseGame(ctx))
	require.NoError(f.mgr.ResumeGame(ctx))
	require.NoError(f.mgr.ResetGame(ctx))
	require.Zero(f.core.pauses)

	require.NoError(f.mgr.StartGame(ctx, f.sms, f.game(t, "game.sms"), ""))

	require.NoError(f.mgr.PauseGame(ctx))
	require.NoError(f.mgr.PauseGame(ctx))
	require.Equal(1, f.core.pauses)
	require.Equal(Paused, f.mgr.Info().State)
	require.True(f.mgr.Info().Paused)

	require.NoError(f.mgr.ResetGame(ctx))
	require.Equal(1, f.core.resets)
	require.True(f.mgr.Info().Paused)

	require.NoError(f.mgr.ResumeGame(ctx))
	require.NoError(f.mgr.ResumeGame(ctx))
	require.Equal(1, f.core.resumes)
	require.Equal(Running, f.mgr.Info().State)
}

func TestSaveLoadRoundTrip(t *testing.T) {

	t.Parallel()
	require := require.New(t)
	f := newFixture(t)
	ctx := testContext(t)

	require.Nil(f.mgr.SaveGameState(ctx))
	require.False(f.mgr.LoadGameState(ctx, make([]byte, 16)))

	require.NoError(f.mgr.StartGame(ctx, f.sms, f.game(t, "game.sms"), ""))

	for _, pause := range []bool{false, true} {

		if pause {
			require.NoError(f.mgr.PauseGame(ctx))
		}

		before := f.mgr.Info()
		data := f.mgr.SaveGameState(ctx)
		require.Len(data, 16)
		require.True(f.mgr.LoadGameState(ctx, data))

		after := f.mgr.Info()
		require.Equal(before.GameID, after.GameID)
		require.Equal(before.Paused, after.Paused)
		require.Equal(pause, after.Paused)
	}

	require.False(f.mgr.LoadGameState(ctx, nil))
	require.False(f.mgr.LoadGameState(ctx, []byte{1, 2, 3}))
	require.Equal(Paused, f.mgr.Info().State)
}

func TestFaultDuringSave(t *testing.T) {

	t.Parallel()
	require := require.New(t)
	f := newFixture(t)
	ctx := testContext(t)

	require.NoError(f.mgr.StartGame(ctx, f.sms, f.game(t, "game.sms"), ""))
	id := f.mgr.Info().ID

	f.core.faultOnSave = true
	require.Nil(f.mgr.SaveGameState(ctx))

	require.Equal(1, f.count(GameRuntimeExceptionOccurred))
	e, ok := f.last(GameRuntimeExceptionOccurred)
	require.True(ok)
	require.Equal(id, e.Session.ID)
	require.True(core.IsFault(e.Err))

	_, unloads := f.core.counts()
	require.Equal(1, unloads)
	require.Equal(Idle, f.mgr.Info().State)

	// late faults of the dead session go nowhere
	f.core.RaiseFault(f.core, errors.New("late"))
	require.NoError(f.mgr.StopGame(ctx))
	require.Equal(1, f.count(GameRuntimeExceptionOccurred))
	require.Zero(f.count(GameStopped))
}

func TestAsynchronousFault(t *testing.T) {

	t.Parallel()
	require := require.New(t)
	f := newFixture(t)
	ctx := testContext(t)

	require.NoError(f.mgr.StartGame(ctx, f.sms, f.game(t, "game.sms"), ""))

	go f.core.RaiseFault(f.core, errors.New("illegal opcode"))

	require.Eventually(func() bool {
		return f.count(GameRuntimeExceptionOccurred) == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.Eventually(func() bool {
		_, unloads := f.core.counts()
		return unloads == 1
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(f.mgr.StartGame(ctx, f.sms, f.game(t, "game.sms"), ""))
	require.Equal(Running, f.mgr.Info().State)
	require.Equal(1, f.count(GameRuntimeExceptionOccurred))
}

func TestCloseWaitsForFaultTeardown(t *testing.T) {

	t.Parallel()
	require := require.New(t)
	f := newFixture(t)
	ctx := testContext(t)

	require.NoError(f.mgr.StartGame(ctx, f.sms, f.game(t, "game.sms"), ""))

	f.core.mutex.Lock()
	f.core.unloadDelay = 200 * time.Millisecond
	f.core.mutex.Unlock()

	f.core.RaiseFault(f.core, errors.New("bus error"))
	require.NoError(f.mgr.Close())

	_, unloads := f.core.counts()
	require.Equal(1, unloads)
	require.Equal(1, f.count(GameRuntimeExceptionOccurred))
	require.Equal(Idle, f.mgr.Info().State)
}

func TestInjectInput(t *testing.T) {

	t.Parallel()
	require := require.New(t)
	f := newFixture(t)

	require.False(f.mgr.InjectInput(InjectedJoypadStart))

	require.NoError(
		f.mgr.StartGame(testContext(t), f.sms, f.game(t, "game.sms"), ""))

	require.True(f.mgr.InjectInput(InjectedJoypadStart))
	require.True(f.mgr.InjectInput(InjectedJoypadA))
	require.False(f.mgr.InjectInput(InjectedInput(42)))

	require.Equal(
		[]core.InputType{core.InputJoypadStart, core.InputJoypadA}, f.core.inputs)
}

func TestSuggestSystem(t *testing.T) {

	t.Parallel()
	require := require.New(t)
	f := newFixture(t)
	ctx := testContext(t)

	sys, err := f.mgr.SuggestSystemForFile(ctx, "/games/Sonic.SMS")
	require.NoError(err)
	require.NotNil(sys)
	require.Equal("sms", sys.ID)

	sys, err = f.mgr.SuggestSystemForFile(ctx, "/games/notes.txt")
	require.NoError(err)
	require.Nil(sys)
}

func TestSuggestSystemWaitsForCores(t *testing.T) {

	t.Parallel()
	require := require.New(t)

	cat, err := core.ParseCatalog([]byte(testCatalog))
	require.NoError(err)
	reg := core.NewRegistry(cat, core.Options{DataDir: t.TempDir()})
	mgr := NewManager(reg, nil)
	defer mgr.Close()

	require.False(mgr.CoresInitialized())

	timeout, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = mgr.SuggestSystemForFile(timeout, "game.sms")
	require.ErrorIs(err, context.DeadlineExceeded)

	go reg.Init()
	sys, err := mgr.SuggestSystemForFile(testContext(t), "game.sms")
	require.NoError(err)
	require.NotNil(sys)
	require.True(mgr.CoresInitialized())
}

func TestCoresInitializedEvent(t *testing.T) {

	t.Parallel()
	f := newFixture(t)

	require.Eventually(t, func() bool {
		return f.count(CoresInitialized) == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestSubscribeCancel(t *testing.T) {

	t.Parallel()
	require := require.New(t)
	f := newFixture(t)

	var got []EventType
	cancel := f.mgr.Subscribe(func(e Event) {
		if e.Type != CoresInitialized {
			got = append(got, e.Type)
		}
	})
	f.mgr.Subscribe(func(e Event) { panic("observer failure") })

	ctx := testContext(t)
	require.NoError(f.mgr.StartGame(ctx, f.sms, f.game(t, "game.sms"), ""))
	cancel()
	require.NoError(f.mgr.StopGame(ctx))

	require.Equal([]EventType{GameStarted}, got)
	require.Equal(1, f.count(GameStopped))
}

func TestUnloadGameRaisesNoEvent(t *testing.T) {

	t.Parallel()
	require := require.New(t)
	f := newFixture(t)
	ctx := testContext(t)

	require.NoError(f.mgr.StartGame(ctx, f.sms, f.game(t, "game.sms"), ""))
	require.NoError(f.mgr.UnloadGame(ctx))
	require.Equal(Idle, f.mgr.Info().State)
	require.Zero(f.count(GameStopped))
}
