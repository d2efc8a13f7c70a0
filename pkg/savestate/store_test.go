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

package savestate

import (
	"context"
	"go/parser"
	"go/token"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

//
type storeFactory func(t *testing.T) Store

func factories() map[string]storeFactory {
	return map[string]storeFactory{
		"file": func(t *testing.T) Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "states"))
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "states.db"))
			require.NoError(t, err)
			return s
		},
		"sqlite-memory": func(t *testing.T) Store {
			s, err := NewSQLiteStore(":memory:")
			require.NoError(t, err)
			return s
		},
	}
}

func TestStores(t *testing.T) {

	for name, factory := range factories() {

		factory := factory
		t.Run(name, func(t *testing.T) {

			t.Parallel()
			require := require.New(t)
			ctx := context.Background()

			s := factory(t)
			defer s.Close()

			const game = "a94a8fe5ccb19ba61c4c0873d391e987982fbbd3"

			_, err := s.Load(ctx, game, 1)
			require.ErrorIs(err, ErrNoState)

			slots, err := s.Slots(ctx, game)
			require.NoError(err)
			require.Empty(slots)

			require.NoError(s.Save(ctx, game, 3, []byte("three")))
			require.NoError(s.Save(ctx, game, 1, []byte("one")))
			require.NoError(s.Save(ctx, game, 1, []byte("uno")))
			require.NoError(s.Save(ctx, "other", 1, []byte("other")))

			data, err := s.Load(ctx, game, 1)
			require.NoError(err)
			require.Equal("uno", string(data))

			slots, err = s.Slots(ctx, game)
			require.NoError(err)
			require.Len(slots, 2)
			require.Equal(1, slots[0].Number)
			require.Equal(3, slots[0].Size)
			require.Equal(3, slots[1].Number)
			require.Equal(5, slots[1].Size)
			require.False(slots[1].Modified.IsZero())

			require.NoError(s.Delete(ctx, game, 3))
			require.NoError(s.Delete(ctx, game, 3))
			_, err = s.Load(ctx, game, 3)
			require.ErrorIs(err, ErrNoState)

			data, err = s.Load(ctx, "other", 1)
			require.NoError(err)
			require.Equal("other", string(data))
		})
	}
}

func TestValidation(t *testing.T) {

	for name, factory := range factories() {

		factory := factory
		t.Run(name, func(t *testing.T) {

			t.Parallel()
			require := require.New(t)
			ctx := context.Background()

			s := factory(t)
			defer s.Close()

			require.ErrorIs(s.Save(ctx, "game", 0, nil), ErrInvalidSlot)
			require.ErrorIs(s.Save(ctx, "game", MaxSlot+1, nil), ErrInvalidSlot)
			require.ErrorIs(s.Save(ctx, "", 1, nil), ErrInvalidGame)
			require.ErrorIs(s.Save(ctx, "../escape", 1, nil), ErrInvalidGame)

			_, err := s.Load(ctx, "..", 1)
			require.ErrorIs(err, ErrInvalidGame)
			_, err = s.Slots(ctx, "a/b")
			require.ErrorIs(err, ErrInvalidGame)
		})
	}
}

func TestNew(t *testing.T) {

	t.Parallel()
	require := require.New(t)
	dir := t.TempDir()

	s, err := New("file", filepath.Join(dir, "states"))
	require.NoError(err)
	require.IsType(&FileStore{}, s)

	s, err = New("SQLite", filepath.Join(dir, "states.db"))
	require.NoError(err)
	require.IsType(&SQLiteStore{}, s)
	require.NoError(s.Close())

	_, err = New("cloud", dir)
	require.Error(err)
}

func TestPackageDoc(t *testing.T) {
	t.Parallel()
	f, err := parser.ParseFile(token.NewFileSet(), "store.go", nil,
		parser.PackageClauseOnly|parser.ParseComments)
	require.NoError(t, err)
	require.NotNil(t, f.Doc)
	require.Contains(t, f.Doc.Text(), "Package savestate ")
}
