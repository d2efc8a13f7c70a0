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

package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/xelalexv/retrix/pkg/core"
	"github.com/xelalexv/retrix/pkg/core/dummy"
	"github.com/xelalexv/retrix/pkg/daemon"
	"github.com/xelalexv/retrix/pkg/metrics"
	"github.com/xelalexv/retrix/pkg/savestate"
	"github.com/xelalexv/retrix/pkg/session"
)

const testCatalog = `
cores:
  - name: dummy
    dependencies:
      - name: boot.rom
        description: boot ROM
systems:
  - id: sms
    name: Master System
    core: dummy
    extensions: [sms]
`

//
type client struct {
	t      *testing.T
	server *httptest.Server
}

//
func newClient(t *testing.T, repoDir string) *client {

	require := require.New(t)

	cat, err := core.ParseCatalog([]byte(testCatalog))
	require.NoError(err)

	reg := prometheus.NewRegistry()
	d := daemon.NewDaemon(daemon.Config{
		DataDir: t.TempDir(),
		RepoDir: repoDir,
		Catalog: cat,
		Timings: daemon.Timings{
			Period:       20 * time.Millisecond,
			PointerIdle:  time.Minute,
			PlayerUIIdle: time.Minute,
		},
	}, metrics.New(reg), nil)

	require.NoError(d.Start())
	t.Cleanup(d.Stop)

	require.Eventually(func() bool {
		return d.Status().CoresReady
	}, 5*time.Second, 10*time.Millisecond)

	server := httptest.NewServer(newAPI("", d, reg).server.Handler)
	t.Cleanup(server.Close)

	return &client{t: t, server: server}
}

//
func (c *client) call(method, path string, body io.Reader,
	header ...string) (int, string) {

	req, err := http.NewRequest(method, c.server.URL+path, body)
	require.NoError(c.t, err)
	for ix := 0; ix+1 < len(header); ix += 2 {
		req.Header.Set(header[ix], header[ix+1])
	}

	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)

	return resp.StatusCode, string(data)
}

//
func (c *client) callJSON(method, path string, v interface{}) int {
	status, body := c.call(method, path, nil, "Accept", "application/json")
	if status == http.StatusOK {
		require.NoError(c.t, json.Unmarshal([]byte(body), v), body)
	}
	return status
}

func writeROM(t *testing.T, dir, name string) string {
	file := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(file), 0755))
	require.NoError(t, os.WriteFile(file, []byte("ROM "+name), 0644))
	return file
}

//
func TestGameControl(t *testing.T) {

	t.Parallel()
	require := require.New(t)
	c := newClient(t, "")

	status, _ := c.call("PUT", "/game/pause", nil)
	require.Equal(http.StatusLocked, status)

	status, _ = c.call("PUT", "/game", nil)
	require.Equal(http.StatusUnprocessableEntity, status)

	status, body := c.call("PUT", "/game?system=sms&file="+
		url.QueryEscape(writeROM(t, t.TempDir(), "game.sms")), nil)
	require.Equal(http.StatusFailedDependency, status, body)

	status, body = c.call("PUT", "/dependencies/dummy/boot.rom",
		strings.NewReader("boot"))
	require.Equal(http.StatusOK, status, body)

	file := writeROM(t, t.TempDir(), "game.sms")
	status, body = c.call("PUT", "/game?file="+url.QueryEscape(file), nil)
	require.Equal(http.StatusOK, status, body)
	require.Equal("started ROM/game.sms on sms\n", body)

	var st daemon.Status
	require.Equal(http.StatusOK, c.callJSON("GET", "/status", &st))
	require.Equal(session.Running, st.Session.State)
	require.True(st.Player.OperationsAllowed)

	var p daemon.PlayerState
	require.Equal(http.StatusOK, c.callJSON("PUT", "/game/toggle", &p))
	require.True(p.Paused)
	require.True(p.DisplayPlayerUI)

	status, body = c.call("PUT", "/game/resume", nil)
	require.Equal(http.StatusOK, status)
	require.Equal("resume: game running\n", body)

	status, _ = c.call("PUT", "/game/reset", nil)
	require.Equal(http.StatusOK, status)

	status, body = c.call("PUT", "/game/rewind", nil)
	require.Equal(http.StatusNotFound, status, body)

	status, body = c.call("DELETE", "/game", nil)
	require.Equal(http.StatusOK, status)
	require.Equal("game stopped\n", body)

	_, body = c.call("GET", "/status", nil)
	require.Contains(body, "game:    none")
}

//
func TestStates(t *testing.T) {

	t.Parallel()
	require := require.New(t)
	c := newClient(t, "")

	status, _ := c.call("GET", "/state", nil)
	require.Equal(http.StatusNotFound, status)

	status, body := c.call("PUT", "/dependencies/dummy/boot.rom?json",
		strings.NewReader("boot"))
	require.Equal(http.StatusOK, status, body)

	file := writeROM(t, t.TempDir(), "game.sms")
	status, body = c.call("PUT", "/game?system=sms&file="+url.QueryEscape(file), nil)
	require.Equal(http.StatusOK, status, body)

	status, body = c.call("PUT", "/state/2", nil)
	require.Equal(http.StatusOK, status, body)

	status, body = c.call("PUT", "/state/9", nil)
	require.Equal(http.StatusUnprocessableEntity, status, body)

	var slots []savestate.Slot
	require.Equal(http.StatusOK, c.callJSON("GET", "/state", &slots))
	require.Len(slots, 1)
	require.Equal(2, slots[0].Number)

	status, body = c.call("GET", "/state/2", nil)
	require.Equal(http.StatusOK, status)
	require.Len(body, dummy.StateSize)

	status, _ = c.call("GET", "/state/3", nil)
	require.Equal(http.StatusNotFound, status)

	status, body = c.call("PUT", "/state/2/load", nil)
	require.Equal(http.StatusOK, status, body)
	require.Equal("loaded state from slot 2\n", body)

	status, _ = c.call("PUT", "/state/3/load", nil)
	require.Equal(http.StatusNotFound, status)
}

//
func TestPlayer(t *testing.T) {

	t.Parallel()
	require := require.New(t)
	c := newClient(t, "")

	status, _ := c.call("PUT", "/input/start", nil)
	require.Equal(http.StatusNotFound, status)

	c.call("PUT", "/dependencies/dummy/boot.rom", strings.NewReader("boot"))
	file := writeROM(t, t.TempDir(), "game.sms")
	status, body := c.call("PUT", "/game?file="+url.QueryEscape(file), nil)
	require.Equal(http.StatusOK, status, body)

	status, body = c.call("PUT", "/input/Start", nil)
	require.Equal(http.StatusOK, status, body)
	status, _ = c.call("PUT", "/input/turbo", nil)
	require.Equal(http.StatusUnprocessableEntity, status)

	var p daemon.PlayerState
	require.Equal(http.StatusOK, c.callJSON("PUT", "/player/tap", &p))
	require.False(p.DisplayPlayerUI)
	require.Equal(http.StatusOK, c.callJSON("PUT", "/player/pointer", &p))
	require.True(p.PointerVisible)
	require.Equal(http.StatusOK, c.callJSON("PUT", "/player/fullscreen?on", &p))
	require.True(p.FullScreen)
}

//
func TestCatalogQueries(t *testing.T) {

	t.Parallel()
	require := require.New(t)
	c := newClient(t, "")

	var systems []core.System
	require.Equal(http.StatusOK, c.callJSON("GET", "/systems", &systems))
	require.Len(systems, 1)
	require.Equal("sms", systems[0].ID)

	status, body := c.call("GET", "/suggest?file=some/game.SMS", nil)
	require.Equal(http.StatusOK, status)
	require.Equal("sms\n", body)

	status, _ = c.call("GET", "/suggest?file=notes.txt", nil)
	require.Equal(http.StatusNotFound, status)

	status, _ = c.call("GET", "/suggest", nil)
	require.Equal(http.StatusUnprocessableEntity, status)

	status, body = c.call("GET", "/dependencies", nil)
	require.Equal(http.StatusOK, status)
	require.Contains(body, "boot.rom")
	require.Contains(body, "missing")

	status, body = c.call("PUT", "/dependencies/dummy/other.rom",
		strings.NewReader("x"))
	require.Equal(http.StatusUnprocessableEntity, status, body)

	var ver Version
	require.Equal(http.StatusOK, c.callJSON("GET", "/version", &ver))
	require.Contains(ver.Cores, dummy.Name)

	status, body = c.call("GET", "/metrics", nil)
	require.Equal(http.StatusOK, status)
	require.Contains(body, "retrix_")
}

//
func TestSearch(t *testing.T) {

	t.Parallel()
	require := require.New(t)

	status, _ := newClient(t, "").call("GET", "/search?term=sonic", nil)
	require.Equal(http.StatusServiceUnavailable, status)

	repoDir := t.TempDir()
	writeROM(t, repoDir, "sega/Sonic.sms")
	c := newClient(t, repoDir)

	require.Eventually(func() bool {
		var st daemon.Status
		return c.callJSON("GET", "/status", &st) == http.StatusOK && st.IndexReady
	}, 10*time.Second, 20*time.Millisecond)

	status, body := c.call("GET", "/search?term=sonic", nil)
	require.Equal(http.StatusOK, status, body)
	require.Contains(body, "repo://sega/Sonic.sms")
	require.Contains(body, "total hits: 1")

	status, _ = c.call("GET", "/search?term=sonic&items=x", nil)
	require.Equal(http.StatusUnprocessableEntity, status)

	c.call("PUT", "/dependencies/dummy/boot.rom", strings.NewReader("boot"))
	status, body = c.call("PUT", "/game?ref=repo://sega/Sonic.sms", nil)
	require.Equal(http.StatusOK, status, body)

	status, _ = c.call("PUT", "/game?ref=repo://../x.sms", nil)
	require.Equal(http.StatusNotAcceptable, status)
}

//
func TestStatusFor(t *testing.T) {

	t.Parallel()
	require := require.New(t)

	wrap := func(err error) error { return fmt.Errorf("wrapped: %w", err) }

	require.Equal(http.StatusLocked, statusFor(wrap(daemon.ErrBusy)))
	require.Equal(http.StatusNotFound, statusFor(wrap(savestate.ErrNoState)))
	require.Equal(http.StatusRequestEntityTooLarge,
		statusFor(wrap(&http.MaxBytesError{Limit: 1})))
	require.Equal(http.StatusRequestTimeout, statusFor(wrap(context.Canceled)))
	require.Equal(http.StatusUnprocessableEntity, statusFor(errors.New("other")))
}
