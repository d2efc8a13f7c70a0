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

package repo

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func classify(path string) (string, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".sms":
		return "sms", true
	case ".zip":
		return "", true
	}
	return "", false
}

func writeRepoFile(t *testing.T, repo, rel string) {
	file := filepath.Join(repo, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0755))
	require.NoError(t, os.WriteFile(file, []byte(rel), 0644))
}

func TestIndex(t *testing.T) {

	t.Parallel()
	require := require.New(t)

	repo := t.TempDir()
	base := filepath.Join(t.TempDir(), "index")

	writeRepoFile(t, repo, "sega/Sonic_the_Hedgehog.sms")
	writeRepoFile(t, repo, "sega/Alex-Kidd.sms")
	writeRepoFile(t, repo, "misc/Alex Kidd collection.zip")
	writeRepoFile(t, repo, "misc/readme.txt")
	writeRepoFile(t, repo, ".cache/Alex.sms")

	idx, err := NewIndex(base, repo, Options{
		Classifier: classify,
		Backoff:    50 * time.Millisecond,
	})
	require.NoError(err)
	defer idx.Stop()

	require.NoError(idx.Start())

	count, err := idx.Count()
	require.NoError(err)
	require.Equal(uint64(3), count)

	res, err := idx.Search("alex", 10)
	require.NoError(err)
	require.True(res.Complete)
	require.Len(res.Hits, 2)

	res, err = idx.Search("sonic", 10)
	require.NoError(err)
	require.Len(res.Hits, 1)
	require.Equal("sega/Sonic_the_Hedgehog.sms", res.Hits[0].Path)
	require.Equal("repo://sega/Sonic_the_Hedgehog.sms", res.Hits[0].Ref)
	require.Equal("sms", res.Hits[0].System)

	res, err = idx.Search("alex", 1)
	require.NoError(err)
	require.False(res.Complete)
	require.Len(res.Hits, 1)
	require.Equal(uint64(2), res.Total)

	_, err = idx.Search("  ", 10)
	require.Error(err)

	// changes get picked up by the watcher
	writeRepoFile(t, repo, "sega/Wonder Boy.sms")
	require.Eventually(func() bool {
		res, err := idx.Search("wonder", 10)
		return err == nil && len(res.Hits) == 1
	}, 10*time.Second, 50*time.Millisecond)

	require.NoError(os.Remove(filepath.Join(repo, "sega", "Alex-Kidd.sms")))
	require.Eventually(func() bool {
		res, err := idx.Search("alex", 10)
		return err == nil && len(res.Hits) == 1
	}, 10*time.Second, 50*time.Millisecond)
}

func TestIndexReopen(t *testing.T) {

	t.Parallel()
	require := require.New(t)

	repo := t.TempDir()
	base := filepath.Join(t.TempDir(), "index")
	writeRepoFile(t, repo, "a.sms")
	writeRepoFile(t, repo, "b.sms")

	idx, err := NewIndex(base, repo, Options{})
	require.NoError(err)
	require.NoError(idx.Start())
	idx.Stop()

	require.NoError(os.Remove(filepath.Join(repo, "a.sms")))

	idx, err = NewIndex(base, repo, Options{})
	require.NoError(err)
	defer idx.Stop()
	require.NoError(idx.Start())

	count, err := idx.Count()
	require.NoError(err)
	require.Equal(uint64(1), count)

	_, err = idx.Search("a", 0)
	require.Error(err)
}
