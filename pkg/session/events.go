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
	"fmt"

	log "github.com/sirupsen/logrus"
)

//
type EventType int

const (
	CoresInitialized EventType = iota
	GameStarted
	GameStopped
	GameRuntimeExceptionOccurred
)

//
func (t EventType) String() string {
	switch t {
	case CoresInitialized:
		return "CoresInitialized"
	case GameStarted:
		return "GameStarted"
	case GameStopped:
		return "GameStopped"
	case GameRuntimeExceptionOccurred:
		return "GameRuntimeExceptionOccurred"
	}
	return fmt.Sprintf("EventType(%d)", int(t))
}

/*
	Event is sent to observers of a manager. Session is the state of the
	session the event is about, as it was right before the event occurred.
	Err is only set for runtime exceptions.
*/
type Event struct {
	Type    EventType
	Session Info
	Err     error
}

/*
	Subscribe registers fn for receiving all events of this manager. Observers
	are called synchronously, in the order of subscription, and must not call
	back into the manager's state changing operations. The returned function
	cancels the subscription.
*/
func (m *Manager) Subscribe(fn func(Event)) (cancel func()) {

	m.observersLock.Lock()
	defer m.observersLock.Unlock()

	id := m.nextObserver
	m.nextObserver++
	m.observers = append(m.observers, observer{id: id, fn: fn})

	return func() {
		m.observersLock.Lock()
		defer m.observersLock.Unlock()
		for ix, o := range m.observers {
			if o.id == id {
				m.observers = append(m.observers[:ix], m.observers[ix+1:]...)
				return
			}
		}
	}
}

//
type observer struct {
	id int
	fn func(Event)
}

//
func (m *Manager) emit(e Event) {

	m.observersLock.Lock()
	obs := append([]observer(nil), m.observers...)
	m.observersLock.Unlock()

	log.WithFields(log.Fields{
		"event":   e.Type,
		"session": e.Session.ID}).Debug("session event")

	for _, o := range obs {
		notify(o.fn, e)
	}
}

//
func notify(fn func(Event), e Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("observer panicked on %s: %v", e.Type, r)
		}
	}()
	fn(e)
}
