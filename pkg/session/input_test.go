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
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xelalexv/retrix/pkg/core"
)

func TestParseInjectedInput(t *testing.T) {

	t.Parallel()
	require := require.New(t)

	in, err := ParseInjectedInput(" Start ")
	require.NoError(err)
	require.Equal(InjectedJoypadStart, in)

	mapped, ok := in.CoreInput()
	require.True(ok)
	require.Equal(core.InputJoypadStart, mapped)

	_, err = ParseInjectedInput("turbo")
	require.Error(err)

	names := InjectedInputNames()
	require.Len(names, 10)
	for _, n := range names {
		in, err := ParseInjectedInput(n)
		require.NoError(err)
		require.Equal(n, in.String())
	}
}

func TestStateJSON(t *testing.T) {

	t.Parallel()
	require := require.New(t)

	data, err := json.Marshal(Info{State: Paused, Paused: true})
	require.NoError(err)
	require.Contains(string(data), `"state":"paused"`)

	var info Info
	require.NoError(json.Unmarshal(data, &info))
	require.Equal(Paused, info.State)

	var s State
	require.Error(s.UnmarshalText([]byte("sleeping")))
}
