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
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/xelalexv/retrix/pkg/core"
	"github.com/xelalexv/retrix/pkg/metrics"
	"github.com/xelalexv/retrix/pkg/stream"
	"github.com/xelalexv/retrix/pkg/vfs"
)

/*
	Manager runs at most one game at a time. It owns the stream provider and
	the core of the active session, and implements the load, run, pause,
	reset, save, and stop state machine on top of them.

	State changing operations are serialised by an operation lock. The active
	session is guarded by a read/write mutex, which is never held while calling
	into a core. Input injection bypasses the operation lock.
*/
type Manager struct {
	registry *core.Registry
	metrics  *metrics.Metrics
	//
	lock chan bool
	//
	mutex    sync.RWMutex
	current  *session
	draining chan struct{}
	//
	observersLock sync.Mutex
	observers     []observer
	nextObserver  int
	//
	quit      chan struct{}
	closeOnce sync.Once
}

//
type session struct {
	id       uuid.UUID
	system   *core.System
	core     core.Core
	file     string
	mainPath string
	provider stream.Provider
	state    State
	started  time.Time
	//
	busy    bool
	faulted bool
	fault   error
	//
	ctx      context.Context
	cancel   context.CancelFunc
	teardown sync.Once
}

//
func (s *session) logger() *log.Entry {
	return log.WithFields(log.Fields{
		"session": s.id.String(),
		"system":  s.system.ID,
		"core":    s.core.Name(),
	})
}

/*
	NewManager creates a manager for the systems of reg. Metrics are optional.
	Once reg has been initialized, a CoresInitialized event is raised.
*/
func NewManager(reg *core.Registry, m *metrics.Metrics) *Manager {

	mgr := &Manager{
		registry: reg,
		metrics:  m,
		lock:     make(chan bool, 1),
		quit:     make(chan struct{}),
	}

	go func() {
		select {
		case <-reg.Ready():
			mgr.emit(Event{Type: CoresInitialized})
		case <-mgr.quit:
		}
	}()

	return mgr
}

// Registry returns the core registry this manager uses.
func (m *Manager) Registry() *core.Registry {
	return m.registry
}

// CoresInitialized determines whether the core registry is ready.
func (m *Manager) CoresInitialized() bool {
	return m.registry.IsReady()
}

//
func (m *Manager) acquire(ctx context.Context) error {
	select {
	case m.lock <- true:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

//
func (m *Manager) release() {
	select {
	case <-m.lock:
	default:
	}
}

/*
	StartGame loads file on system and starts it. Any active session is
	unloaded first. rootFolder is optional and, if set, makes all files below
	it accessible to the core, as is needed for multi-file images. Files of
	systems that require a root folder get their containing folder as root
	folder, if none is given. Any failure tears down the new session
	completely, and yields an error wrapping ErrLoadFailure.
*/
func (m *Manager) StartGame(ctx context.Context, sys *core.System, file,
	rootFolder string) error {

	if err := m.acquire(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailure, err)
	}
	defer m.release()

	m.unload()
	if err := m.awaitDrain(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrLoadFailure, err)
	}

	if sys == nil || sys.Core() == nil {
		m.metrics.LoadFailed("")
		return fmt.Errorf("%w: %w", ErrLoadFailure, ErrNoSystem)
	}

	s := &session{
		id:      uuid.New(),
		system:  sys,
		core:    sys.Core(),
		file:    file,
		state:   Loading,
		started: time.Now(),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	logger := s.logger().WithField("file", file)

	m.mutex.Lock()
	m.current = s
	m.mutex.Unlock()
	m.metrics.SetState(int(Loading))

	err := m.load(ctx, s, rootFolder)

	m.mutex.Lock()
	if err == nil && s.faulted {
		err = s.fault
	}
	if err == nil && m.current != s {
		err = ErrNoSession
	}
	if err != nil {
		if m.current == s {
			m.current = nil
		}
		m.mutex.Unlock()
		logger.Errorf("game could not be loaded: %v", err)
		m.teardown(s)
		m.metrics.LoadFailed(sys.ID)
		return fmt.Errorf("%w: %w", ErrLoadFailure, err)
	}
	s.state = Running
	info := m.info(s)
	m.mutex.Unlock()

	logger.WithField("main", s.mainPath).Info("game started")
	m.metrics.SetState(int(Running))
	m.metrics.GameStarted(sys.ID, time.Since(s.started))
	m.emit(Event{Type: GameStarted, Session: info})

	return nil
}

//
func (m *Manager) load(ctx context.Context, s *session, rootFolder string) error {

	if missing := missingDependencies(s.system); len(missing) > 0 {
		return fmt.Errorf("%w: %v", ErrMissingDependency, missing)
	}

	prov, main, err := buildProvider(ctx, s.system, s.file, rootFolder)
	if err != nil {
		return err
	}

	m.mutex.Lock()
	s.provider = prov
	s.mainPath = main
	m.mutex.Unlock()

	s.core.SetFileStreamCallbacks(m.openFunc(s), m.closeFunc(s))
	s.core.SetFaultHandler(func(c core.Core, err error) {
		m.fault(s, err)
	})

	s.logger().WithField("main", main).Debug("loading game")
	return m.invoke(s, func() error { return s.core.Load(ctx, main) })
}

//
func (m *Manager) openFunc(s *session) core.OpenFunc {
	return func(path string, mode vfs.AccessMode) (stream.Stream, error) {
		st, err := s.provider.Open(s.ctx, path, mode)
		m.metrics.StreamOpened(err == nil)
		if err != nil {
			s.logger().WithFields(log.Fields{
				"path": path,
				"mode": mode}).Debugf("cannot open stream: %v", err)
		}
		return st, err
	}
}

//
func (m *Manager) closeFunc(s *session) core.CloseFunc {
	return func(st stream.Stream) error {
		return s.provider.CloseStream(st)
	}
}

/*
	invoke runs fn, an operation on the core of s, while marking s as busy.
	Panics are converted into faults. If s became faulted during fn, either
	through fn's result or through the fault handler, and s is past loading,
	the session is torn down here and the fault event raised.
*/
func (m *Manager) invoke(s *session, fn func() error) error {

	m.mutex.Lock()
	if m.current != s {
		m.mutex.Unlock()
		return ErrNoSession
	}
	s.busy = true
	m.mutex.Unlock()

	err := protect(s.core.Name(), fn)

	m.mutex.Lock()
	s.busy = false
	if core.IsFault(err) && !s.faulted {
		s.faulted = true
		s.fault = err
	}
	if s.faulted && err == nil {
		err = s.fault
	}
	terminate := s.faulted && s.state != Loading && m.current == s
	var info Info
	if terminate {
		info = m.info(s)
		m.current = nil
	}
	m.mutex.Unlock()

	if terminate {
		m.terminate(s, info)
	}

	return err
}

//
func protect(name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = core.NewFault(name, fmt.Errorf("panic: %v", r))
		}
	}()
	return fn()
}

/*
	fault is the fault handler installed in the core of s. A fault for a
	session that is no longer active, or already faulted, is ignored. While
	an operation is in flight, the fault is only recorded, and handled when
	the operation returns. Otherwise the session is torn down asynchronously,
	since the caller may be the core's own emulation loop.
*/
func (m *Manager) fault(s *session, err error) {

	m.mutex.Lock()

	if m.current != s || s.faulted {
		m.mutex.Unlock()
		s.logger().Debugf("ignoring fault of inactive session: %v", err)
		return
	}

	s.faulted = true
	s.fault = err

	if s.busy || s.state == Loading {
		m.mutex.Unlock()
		return
	}

	info := m.info(s)
	m.current = nil
	done := make(chan struct{})
	m.draining = done
	m.mutex.Unlock()

	go func() {
		defer close(done)
		m.terminate(s, info)
	}()
}

//
func (m *Manager) terminate(s *session, info Info) {
	s.logger().Errorf("runtime fault, terminating session: %v", s.fault)
	m.teardown(s)
	m.metrics.Fault(s.core.Name())
	m.emit(Event{Type: GameRuntimeExceptionOccurred, Session: info, Err: s.fault})
}

//
func (m *Manager) awaitDrain(ctx context.Context) error {

	m.mutex.RLock()
	d := m.draining
	m.mutex.RUnlock()

	if d == nil {
		return nil
	}

	select {
	case <-d:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

/*
	teardown releases all resources of s: it unloads the core, clears the core's
	callbacks and fault handler, and closes the provider. Only the first call
	for a session does anything.
*/
func (m *Manager) teardown(s *session) {

	s.teardown.Do(func() {

		logger := s.logger()

		if err := protect(s.core.Name(), s.core.Unload); err != nil {
			logger.Warnf("error unloading core: %v", err)
		}

		s.core.SetFaultHandler(nil)
		s.core.SetFileStreamCallbacks(nil, nil)

		if s.provider != nil {
			if err := s.provider.Close(); err != nil {
				logger.Warnf("error closing streams: %v", err)
			}
		}

		s.cancel()
		m.metrics.SetState(int(Idle))
		logger.Debug("session torn down")
	})
}

// unload detaches and tears down the active session, if any. Requires the
// operation lock.
func (m *Manager) unload() *session {

	m.mutex.Lock()
	s := m.current
	m.current = nil
	m.mutex.Unlock()

	if s != nil {
		m.teardown(s)
	}

	return s
}

// active returns the active session, if any. Sessions that are loading do not
// count.
func (m *Manager) active() *session {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.current == nil || m.current.state == Loading {
		return nil
	}
	return m.current
}

// PauseGame pauses the active game. No-op if there is none, or if it is
// already paused.
func (m *Manager) PauseGame(ctx context.Context) error {
	return m.setPaused(ctx, true)
}

// ResumeGame resumes the active game. No-op if there is none, or if it is
// not paused.
func (m *Manager) ResumeGame(ctx context.Context) error {
	return m.setPaused(ctx, false)
}

//
func (m *Manager) setPaused(ctx context.Context, pause bool) error {

	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.release()

	s := m.active()
	if s == nil {
		return nil
	}

	m.mutex.RLock()
	paused := s.state == Paused
	m.mutex.RUnlock()

	if paused == pause {
		return nil
	}

	fn := s.core.Resume
	next := Running
	if pause {
		fn = s.core.Pause
		next = Paused
	}

	if err := m.invoke(s, fn); err != nil {
		return err
	}

	m.mutex.Lock()
	if m.current == s {
		s.state = next
	}
	m.mutex.Unlock()
	m.metrics.SetState(int(next))

	return nil
}

// ResetGame resets the active game. No-op if there is none.
func (m *Manager) ResetGame(ctx context.Context) error {

	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.release()

	if s := m.active(); s != nil {
		return m.invoke(s, s.core.Reset)
	}
	return nil
}

/*
	SaveGameState serialises the state of the active game. Returns nil if there
	is no active game, or the core could not provide its state.
*/
func (m *Manager) SaveGameState(ctx context.Context) []byte {

	if err := m.acquire(ctx); err != nil {
		return nil
	}
	defer m.release()

	s := m.active()
	if s == nil {
		return nil
	}

	size := s.core.SerializationSize()
	if size <= 0 {
		s.logger().Warn("core does not support save states")
		m.metrics.StateOperation("save", false)
		return nil
	}

	buf := make([]byte, size)
	if err := m.invoke(s, func() error {
		return s.core.SaveState(ctx, buf)
	}); err != nil {
		s.logger().Warnf("state could not be saved: %v", err)
		m.metrics.StateOperation("save", false)
		return nil
	}

	m.metrics.StateOperation("save", true)
	return buf
}

/*
	LoadGameState restores the active game to the state in data. Returns false
	if there is no active game, or the core rejected data.
*/
func (m *Manager) LoadGameState(ctx context.Context, data []byte) bool {

	if len(data) == 0 {
		return false
	}

	if err := m.acquire(ctx); err != nil {
		return false
	}
	defer m.release()

	s := m.active()
	if s == nil {
		return false
	}

	if err := m.invoke(s, func() error {
		return s.core.LoadState(ctx, data)
	}); err != nil {
		s.logger().Warnf("state could not be loaded: %v", err)
		m.metrics.StateOperation("load", false)
		return false
	}

	m.metrics.StateOperation("load", true)
	return true
}

// StopGame ends the active game and raises GameStopped. No-op if there is no
// active game.
func (m *Manager) StopGame(ctx context.Context) error {

	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.release()

	m.mutex.RLock()
	var info Info
	if m.current != nil {
		info = m.info(m.current)
	}
	m.mutex.RUnlock()

	if s := m.unload(); s != nil {
		s.logger().Info("game stopped")
		m.emit(Event{Type: GameStopped, Session: info})
	}

	return nil
}

// UnloadGame ends the active game without raising any event.
func (m *Manager) UnloadGame(ctx context.Context) error {

	if err := m.acquire(ctx); err != nil {
		return err
	}
	defer m.release()

	m.unload()
	return nil
}

/*
	SuggestSystemForFile returns the first system able to play file, or nil if
	there is none. It waits for the core registry to become ready.
*/
func (m *Manager) SuggestSystemForFile(ctx context.Context,
	file string) (*core.System, error) {
	if err := m.registry.WaitReady(ctx); err != nil {
		return nil, err
	}
	return m.registry.Suggest(file), nil
}

/*
	InjectInput passes in to port 0 of the active game's core. Returns false if
	there is no active game, or in is unknown.
*/
func (m *Manager) InjectInput(in InjectedInput) bool {

	mapped, ok := in.CoreInput()
	if !ok {
		return false
	}

	s := m.active()
	if s == nil {
		return false
	}

	if err := protect(s.core.Name(), func() error {
		s.core.InjectInput(0, mapped)
		return nil
	}); err != nil {
		m.fault(s, err)
		return false
	}
	return true
}

// Info returns a snapshot of the active session.
func (m *Manager) Info() Info {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.current == nil {
		return Info{State: Idle}
	}
	return m.info(m.current)
}

// info requires the mutex to be held.
func (m *Manager) info(s *session) Info {
	return Info{
		ID:       s.id.String(),
		System:   s.system.ID,
		Core:     s.core.Name(),
		GameID:   s.core.GameID(),
		File:     s.file,
		MainPath: s.mainPath,
		State:    s.state,
		Paused:   s.state == Paused,
		Started:  s.started,
	}
}

// Close waits for a pending fault teardown, ends the active game, if any, and
// stops the manager.
func (m *Manager) Close() error {
	m.closeOnce.Do(func() {
		close(m.quit)
	})
	if err := m.awaitDrain(context.Background()); err != nil {
		return err
	}
	return m.UnloadGame(context.Background())
}
