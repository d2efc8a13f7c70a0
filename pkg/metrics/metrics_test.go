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

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	require.NotPanics(t, func() {
		m.GameStarted("sms", time.Second)
		m.LoadFailed("sms")
		m.Fault("gpgx")
		m.StateOperation("save", true)
		m.StreamOpened(false)
		m.SetState(2)
		m.Searched()
	})
}

func TestMetrics(t *testing.T) {
	require := require.New(t)

	reg := prometheus.NewRegistry()
	m := New(reg)

	m.GameStarted("sms", 100*time.Millisecond)
	m.GameStarted("sms", 200*time.Millisecond)
	m.LoadFailed("nes")
	m.StateOperation("load", false)
	m.StreamOpened(true)
	m.SetState(3)

	families, err := reg.Gather()
	require.NoError(err)

	values := make(map[string]float64)
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			switch {
			case metric.GetCounter() != nil:
				values[f.GetName()] += metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				values[f.GetName()] = metric.GetGauge().GetValue()
			}
		}
	}

	require.Equal(2.0, values["retrix_session_games_started_total"])
	require.Equal(1.0, values["retrix_session_load_failures_total"])
	require.Equal(1.0, values["retrix_session_state_operations_total"])
	require.Equal(1.0, values["retrix_vfs_streams_opened_total"])
	require.Equal(3.0, values["retrix_session_state"])

	require.Panics(func() { New(reg) })
}
