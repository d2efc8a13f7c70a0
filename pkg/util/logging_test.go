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

package util

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// not parallel, changes the standard logger
func TestConfigureLogging(t *testing.T) {

	require := require.New(t)

	defer func() {
		log.SetOutput(os.Stderr)
		log.SetLevel(log.InfoLevel)
		log.SetFormatter(&log.TextFormatter{})
	}()

	_, err := ConfigureLogging(LogConfig{Level: "chatty"})
	require.Error(err)

	_, err = ConfigureLogging(LogConfig{Format: "xml"})
	require.Error(err)

	file := filepath.Join(t.TempDir(), "logs", "retrix.log")
	closer, err := ConfigureLogging(LogConfig{
		Level: "debug", Format: "json", File: file})
	require.NoError(err)
	require.Equal(log.DebugLevel, log.GetLevel())

	log.WithField("game", "sonic").Info("game started")
	require.NoError(closer.Close())

	data, err := os.ReadFile(file)
	require.NoError(err)
	require.Contains(string(data), `"game":"sonic"`)
}
