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
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/retrix/pkg/core"
	"github.com/xelalexv/retrix/pkg/daemon"
	"github.com/xelalexv/retrix/pkg/importer"
	"github.com/xelalexv/retrix/pkg/repo"
	"github.com/xelalexv/retrix/pkg/savestate"
	"github.com/xelalexv/retrix/pkg/session"
)

//
type APIServer interface {
	Serve() error
	Stop() error
}

// Daemon is what the API server controls.
type Daemon interface {
	Status() *daemon.Status
	Systems() []*core.System
	SuggestSystem(ctx context.Context, file string) (*core.System, error)
	//
	StartGame(ctx context.Context, system, file, root string) error
	StopGame(ctx context.Context) error
	ResetGame(ctx context.Context) error
	PauseGame(ctx context.Context) error
	ResumeGame(ctx context.Context) error
	TogglePause(ctx context.Context, dismiss bool) error
	//
	SaveState(ctx context.Context, slot int) error
	LoadState(ctx context.Context, slot int) error
	States(ctx context.Context) ([]savestate.Slot, error)
	StateData(ctx context.Context, slot int) ([]byte, error)
	//
	InjectInput(ctx context.Context, name string) error
	PointerMoved(ctx context.Context) error
	Tapped(ctx context.Context) error
	SetFullScreen(full bool) bool
	//
	Dependencies() []importer.Status
	ImportDependency(ctx context.Context, coreName, name, ref string,
		body io.Reader) error
	Search(term string, max int) (*repo.SearchResult, error)
}

// NewAPIServer creates a server for the control API. If gatherer is not nil,
// metrics are served on /metrics.
func NewAPIServer(address string, d Daemon,
	gatherer prometheus.Gatherer) APIServer {
	return newAPI(address, d, gatherer)
}

//
func newAPI(address string, d Daemon, gatherer prometheus.Gatherer) *api {
	a := &api{daemon: d, gatherer: gatherer}
	a.server = &http.Server{
		Addr:              address,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a
}

//
type api struct {
	daemon   Daemon
	gatherer prometheus.Gatherer
	server   *http.Server
}

//
func (a *api) router() http.Handler {

	router := mux.NewRouter().StrictSlash(true)
	router.Use(logRequest)

	router.HandleFunc("/status", a.status).Methods("GET")
	router.HandleFunc("/version", a.version).Methods("GET")
	router.HandleFunc("/systems", a.systems).Methods("GET")
	router.HandleFunc("/suggest", a.suggest).Methods("GET")

	router.HandleFunc("/game", a.start).Methods("PUT")
	router.HandleFunc("/game", a.stop).Methods("DELETE")
	router.HandleFunc("/game/{op:reset|pause|resume|toggle}", a.control).Methods("PUT")

	router.HandleFunc("/state", a.states).Methods("GET")
	router.HandleFunc("/state/{slot:[0-9]+}", a.save).Methods("PUT")
	router.HandleFunc("/state/{slot:[0-9]+}", a.stateData).Methods("GET")
	router.HandleFunc("/state/{slot:[0-9]+}/load", a.load).Methods("PUT")

	router.HandleFunc("/input/{input}", a.input).Methods("PUT")
	router.HandleFunc("/player/pointer", a.pointer).Methods("PUT")
	router.HandleFunc("/player/tap", a.tap).Methods("PUT")
	router.HandleFunc("/player/fullscreen", a.fullScreen).Methods("PUT")

	router.HandleFunc("/dependencies", a.dependencies).Methods("GET")
	router.HandleFunc("/dependencies/{core}/{name}", a.importDependency).Methods("PUT")

	router.HandleFunc("/search", a.search).Methods("GET")

	if a.gatherer != nil {
		router.Handle("/metrics",
			promhttp.HandlerFor(a.gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	return router
}

//
func (a *api) Serve() error {
	log.WithField("address", a.server.Addr).Info("API server starting")
	if err := a.server.ListenAndServe(); err != nil &&
		!errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("API server stopped")
	return nil
}

//
func (a *api) Stop() error {
	log.Info("API server stopping")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return a.server.Shutdown(ctx)
}

//
func logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, req)
		log.WithFields(log.Fields{
			"method":   req.Method,
			"path":     req.URL.Path,
			"duration": time.Since(start),
		}).Trace("API request")
	})
}

/*
	statusFor maps err to the HTTP status code to report it with. Errors not
	caused by the server are unprocessable requests.
*/
func statusFor(err error) int {

	switch {

	case errors.Is(err, daemon.ErrBusy):
		return http.StatusLocked

	case errors.Is(err, daemon.ErrNotReady), errors.Is(err, daemon.ErrStopped):
		return http.StatusServiceUnavailable

	case errors.Is(err, daemon.ErrNoGame), errors.Is(err, savestate.ErrNoState):
		return http.StatusNotFound

	case errors.Is(err, session.ErrMissingDependency):
		return http.StatusFailedDependency

	case errors.Is(err, repo.ErrNoRepo), errors.Is(err, repo.ErrOutsideRepo):
		return http.StatusNotAcceptable

	case errors.Is(err, importer.ErrTooLarge), exceedsBodyLimit(err):
		return http.StatusRequestEntityTooLarge

	case errors.Is(err, daemon.ErrStateIO):
		return http.StatusInternalServerError

	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout
	}

	return http.StatusUnprocessableEntity
}

//
func exceedsBodyLimit(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}

//
func handleDaemonError(e error, w http.ResponseWriter) bool {
	if e == nil {
		return false
	}
	return handleError(e, statusFor(e), w)
}

//
func handleError(e error, statusCode int, w http.ResponseWriter) bool {

	if e == nil {
		return false
	}

	if statusCode >= http.StatusInternalServerError {
		log.Errorf("%v", e)
	} else {
		log.Debugf("%v", e)
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := io.WriteString(w, fmt.Sprintf("%v\n", e)); err != nil {
		log.Errorf("problem sending error reply: %v", err)
	}

	return true
}

//
func sendReply(body []byte, statusCode int, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		log.Errorf("problem sending reply: %v", err)
	}
}

//
func sendJSONReply(obj interface{}, statusCode int, w http.ResponseWriter) {

	body, err := json.Marshal(obj)
	if handleError(err, http.StatusInternalServerError, w) {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		log.Errorf("problem sending JSON reply: %v", err)
	}
}

//
func sendStreamReply(r io.Reader, statusCode int, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(statusCode)
	if _, err := io.Copy(w, r); err != nil {
		log.Errorf("problem sending stream reply: %v", err)
	}
}

// sendResult replies with obj as JSON if the client wants that, and with text
// otherwise.
func sendResult(req *http.Request, obj interface{}, text string,
	w http.ResponseWriter) {
	if wantsJSON(req) {
		sendJSONReply(obj, http.StatusOK, w)
	} else {
		sendReply([]byte(text), http.StatusOK, w)
	}
}

//
func wantsJSON(req *http.Request) bool {
	return isFlagSet(req, "json") ||
		strings.Contains(req.Header.Get("Accept"), "application/json")
}

// getArg returns the named path variable, or if not present, the first value
// of the named query parameter.
func getArg(req *http.Request, arg string) string {
	if v, ok := mux.Vars(req)[arg]; ok {
		return v
	}
	return req.URL.Query().Get(arg)
}

//
func getIntArg(req *http.Request, arg string, def int) (int, error) {
	v := getArg(req, arg)
	if v == "" {
		return def, nil
	}
	ret, err := strconv.Atoi(v)
	if err != nil {
		return def, fmt.Errorf("invalid value for '%s': %s", arg, v)
	}
	return ret, nil
}

// isFlagSet determines whether the named query parameter is present and not
// explicitly set to false.
func isFlagSet(req *http.Request, arg string) bool {
	vals, ok := req.URL.Query()[arg]
	if !ok {
		return false
	}
	if len(vals) == 0 || vals[0] == "" {
		return true
	}
	b, err := strconv.ParseBool(vals[0])
	return err == nil && b
}
