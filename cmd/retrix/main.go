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

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	_ "github.com/xelalexv/retrix/pkg/core/dummy"
	"github.com/xelalexv/retrix/pkg/run"
)

//
func main() {

	root := &cobra.Command{
		Use:   "retrix",
		Short: "Retrix multi-platform emulator front-end",
		Long: `
Retrix runs emulation cores behind a daemon, and controls the daemon via its
HTTP API. Start the daemon with 'retrix serve', then use the other commands to
start games, save and load states, and manage system files.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		&run.NewServe().Command,
		&run.NewStart().Command,
		&run.NewStop().Command,
		&run.NewGameOp("reset").Command,
		&run.NewGameOp("pause").Command,
		&run.NewGameOp("resume").Command,
		&run.NewGameOp("toggle").Command,
		&run.NewSave().Command,
		&run.NewLoad().Command,
		&run.NewStates().Command,
		&run.NewDump().Command,
		&run.NewInput().Command,
		&run.NewStatus().Command,
		&run.NewSystems().Command,
		&run.NewSuggest().Command,
		&run.NewSearch().Command,
		&run.NewDeps().Command,
		&run.NewImport().Command,
		&run.NewVersion().Command,
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr)
		os.Exit(1)
	}
}
