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

package run

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

//
const runnerHelpEpilogue = `- All settings can also be passed via environment variables, named RETRIX_ plus
  the setting's long name in upper case, with - replaced by _, e.g. RETRIX_ADDRESS.
  Settings can further be read from a YAML file given with --config. Flags take
  precedence over environment variables, which take precedence over the file.

`

//
const defaultAddress = "localhost:8888"

//
type setting struct {
	name     string
	ref      interface{}
	required bool
}

//
type settings struct {
	viper *viper.Viper
	list  []setting
}

//
type Runner struct {
	cobra.Command
	//
	Address    string
	ConfigFile string
	//
	settings *settings
	client   *http.Client
}

/*
	NewRunner creates a runner for a CLI command. helpIntro and helpEpilogue
	get placed before and after the flag list in the usage help.
*/
func NewRunner(use, short, long, helpIntro, helpEpilogue string,
	exec func() error) *Runner {

	r := &Runner{
		Command: cobra.Command{
			Use:           use,
			Short:         short,
			Long:          long,
			SilenceUsage: true,
			Args:         cobra.NoArgs,
		},
		settings: &settings{viper: viper.New()},
		client:   &http.Client{Timeout: 60 * time.Second},
	}

	r.Flags().SetNormalizeFunc(normalizeName)
	r.PreRunE = r.prepare
	r.RunE = func(cmd *cobra.Command, args []string) error {
		return exec()
	}

	r.SetUsageTemplate(fmt.Sprintf("%s%s%s", helpIntro,
		r.UsageTemplate(), helpEpilogue))

	return r
}

// AddBaseSettings adds the settings every command has.
func (r *Runner) AddBaseSettings() {
	r.AddSetting(&r.Address, "address", "a", "", defaultAddress,
		"listen address and port of daemon's API server", false)
	r.AddSetting(&r.ConfigFile, "config", "", "", nil,
		"YAML file to read settings from", false)
}

/*
	AddSetting adds a setting that can be set via flag, environment variable,
	or config file. ref needs to point to a string, int, int64, bool, or
	duration. If env is empty, the variable name is derived from name. If dflt
	is nil, the zero value is used.
*/
func (r *Runner) AddSetting(ref interface{}, name, short, env string,
	dflt interface{}, usage string, required bool) {

	flags := r.Flags()

	switch v := ref.(type) {
	case *string:
		def, _ := dflt.(string)
		flags.StringVarP(v, name, short, def, usage)
	case *int:
		def, _ := dflt.(int)
		flags.IntVarP(v, name, short, def, usage)
	case *int64:
		def, _ := dflt.(int64)
		flags.Int64VarP(v, name, short, def, usage)
	case *bool:
		def, _ := dflt.(bool)
		flags.BoolVarP(v, name, short, def, usage)
	case *time.Duration:
		def, _ := dflt.(time.Duration)
		flags.DurationVarP(v, name, short, def, usage)
	default:
		panic(fmt.Sprintf("unsupported setting type for '%s': %T", name, ref))
	}

	if env == "" {
		env = envName(name)
	}

	v := r.settings.viper
	if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
		panic(err)
	}
	if err := v.BindEnv(name, env); err != nil {
		panic(err)
	}

	r.settings.list = append(r.settings.list,
		setting{name: name, ref: ref, required: required})
}

//
func envName(name string) string {
	return "RETRIX_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// prepare reads the config file if given and checks required settings.
func (r *Runner) prepare(cmd *cobra.Command, args []string) error {

	v := r.settings.viper

	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("cannot read config file %s: %v", file, err)
		}
	}

	for _, s := range r.settings.list {
		if s.required && !v.IsSet(s.name) {
			return fmt.Errorf("required setting '%s' not set", s.name)
		}
	}

	return nil
}

// ParseSettings sets all settings to the value given via flag, environment,
// config file, or their default.
func (r *Runner) ParseSettings() {

	v := r.settings.viper

	for _, s := range r.settings.list {
		switch ref := s.ref.(type) {
		case *string:
			*ref = v.GetString(s.name)
		case *int:
			*ref = v.GetInt(s.name)
		case *int64:
			*ref = v.GetInt64(s.name)
		case *bool:
			*ref = v.GetBool(s.name)
		case *time.Duration:
			*ref = v.GetDuration(s.name)
		}
	}
}

// IsSet determines whether the named setting was given explicitly.
func (r *Runner) IsSet(name string) bool {
	if f := r.Flags().Lookup(name); f != nil && f.Changed {
		return true
	}
	return r.settings.viper.InConfig(name) ||
		os.Getenv(envName(name)) != ""
}

// normalizeName lets flags be given with _ in place of -.
func normalizeName(f *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
}

/*
	apiCall sends a request to the daemon's API server. If json is true, a JSON
	reply is requested. Any status other than OK is turned into an error
	carrying the reply's message. The caller needs to close the returned body.
*/
func (r *Runner) apiCall(method, path string, json bool,
	body io.Reader) (io.ReadCloser, error) {

	req, err := http.NewRequest(method,
		fmt.Sprintf("http://%s%s", r.Address, path), body)
	if err != nil {
		return nil, err
	}

	if json {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if err != nil {
			return nil, fmt.Errorf("daemon replied with %s", resp.Status)
		}
		return nil, fmt.Errorf("%s (%s)",
			strings.TrimSpace(string(msg)), resp.Status)
	}

	return resp.Body, nil
}

// apiJSON gets path from the API server and decodes the JSON reply into v.
func (r *Runner) apiJSON(path string, v interface{}) error {
	resp, err := r.apiCall("GET", path, true, nil)
	if err != nil {
		return err
	}
	defer resp.Close()
	return json.NewDecoder(io.LimitReader(resp, 1<<20)).Decode(v)
}

// apiPrint sends a request to the API server and prints the reply.
func (r *Runner) apiPrint(method, path string, body io.Reader) error {

	resp, err := r.apiCall(method, path, false, body)
	if err != nil {
		return err
	}
	defer resp.Close()

	fmt.Println()
	if _, err := io.Copy(os.Stdout, resp); err != nil {
		return err
	}
	fmt.Println()
	return nil
}

//
func GetUserConfirmation(prompt string) bool {
	return confirm(os.Stdin, os.Stdout, prompt)
}

//
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprintf(out, "%s [y/N] ", prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
