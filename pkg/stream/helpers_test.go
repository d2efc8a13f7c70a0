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
	"archive/zip"
	"compress/gzip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xelalexv/retrix/pkg/vfs"
)

type zipEntry struct {
	name string
	data string
}

func createTestZip(t *testing.T, dir, name string, entries ...zipEntry) string {
	t.Helper()

	file := filepath.Join(dir, name)
	f, err := os.Create(file)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.data))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())

	return file
}

func createTestGzip(t *testing.T, dir, name, original, data string) string {
	t.Helper()

	file := filepath.Join(dir, name)
	f, err := os.Create(file)
	require.NoError(t, err)
	defer f.Close()

	gw := gzip.NewWriter(f)
	gw.Name = original
	_, err = gw.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, gw.Close())

	return file
}

func writeFile(t *testing.T, file, data string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0755))
	require.NoError(t, os.WriteFile(file, []byte(data), 0644))
}

func readAll(t *testing.T, p Provider, path string) string {
	t.Helper()
	s, err := p.Open(context.Background(), path, vfs.Read)
	require.NoError(t, err)
	defer p.CloseStream(s)
	data, err := io.ReadAll(s)
	require.NoError(t, err)
	return string(data)
}

// fakeProvider counts how often it gets closed
type fakeProvider struct {
	prefix   string
	closeErr error
	panics   bool
	closed   int
	opened   []string
	// optional, for holding up Close
	entered chan struct{}
	release chan struct{}
}

func (f *fakeProvider) Prefix() string { return f.prefix }

func (f *fakeProvider) Open(ctx context.Context, path string,
	mode vfs.AccessMode) (Stream, error) {
	f.opened = append(f.opened, path)
	return nil, errors.New(f.prefix + " opened")
}

func (f *fakeProvider) CloseStream(s Stream) error { return nil }

func (f *fakeProvider) Entries(ctx context.Context) ([]string, error) {
	return []string{vfs.Join(f.prefix, "entry")}, nil
}

func (f *fakeProvider) Close() error {
	f.closed++
	if f.entered != nil {
		close(f.entered)
	}
	if f.release != nil {
		<-f.release
	}
	if f.panics {
		panic("boom")
	}
	return f.closeErr
}
