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

package core

import (
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed systems.yaml
var defaultCatalog []byte

/*
	Catalog is the declarative list of systems and the cores that emulate
	them, typically read from YAML.
*/
type Catalog struct {
	Cores   []CoreSpec   `yaml:"cores"`
	Systems []SystemSpec `yaml:"systems"`
}

//
type CoreSpec struct {
	Name         string           `yaml:"name"`
	Dependencies []FileDependency `yaml:"dependencies"`
}

//
type SystemSpec struct {
	ID                  string   `yaml:"id"`
	Name                string   `yaml:"name"`
	Manufacturer        string   `yaml:"manufacturer"`
	Core                string   `yaml:"core"`
	Extensions          []string `yaml:"extensions"`
	MultiFileExtensions []string `yaml:"multiFileExtensions"`
	IgnoreDependencies  bool     `yaml:"ignoreDependencies"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(defaultCatalog)
}

// LoadCatalog reads a catalog from file. If file is empty, the built-in
// catalog is returned.
func LoadCatalog(file string) (*Catalog, error) {

	if file == "" {
		return DefaultCatalog()
	}

	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	return ParseCatalog(data)
}

//
func ParseCatalog(data []byte) (*Catalog, error) {

	c := &Catalog{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("invalid system catalog: %v", err)
	}

	ids := make(map[string]bool)
	for ix, s := range c.Systems {
		if s.ID == "" || s.Core == "" {
			return nil, fmt.Errorf(
				"invalid system catalog: system %d lacks id or core", ix)
		}
		if ids[s.ID] {
			return nil, fmt.Errorf(
				"invalid system catalog: duplicate system '%s'", s.ID)
		}
		ids[s.ID] = true
	}

	return c, nil
}

//
func (c *Catalog) core(name string) CoreSpec {
	for _, cs := range c.Cores {
		if cs.Name == name {
			return cs
		}
	}
	return CoreSpec{Name: name}
}
