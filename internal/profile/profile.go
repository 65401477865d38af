// Copyright ©2025 The Gifsmith Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package profile defines platform constraint profiles for animated
// GIF delivery targets.
package profile

import (
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/gifsmith/gifsmith/internal/schema"
)

// Profile describes the constraints of a named delivery target. Zero
// valued limits are not enforced.
type Profile struct {
	Name        string
	MaxWidth    int
	MaxHeight   int
	MinFPS      float64
	MaxFPS      float64
	MaxColors   int
	MaxDuration time.Duration
}

// Table is a set of profiles keyed by name.
type Table map[string]Profile

// Builtin returns the built-in profile table. The returned table is a
// fresh copy; mutating it does not affect later calls.
func Builtin() Table {
	return Table{
		"emoji": {
			Name:        "emoji",
			MaxWidth:    128,
			MaxHeight:   128,
			MinFPS:      1,
			MaxFPS:      30,
			MaxColors:   128,
			MaxDuration: 3 * time.Second,
		},
		"message": {
			Name:      "message",
			MaxWidth:  480,
			MaxHeight: 480,
			MinFPS:    1,
			MaxFPS:    60,
			MaxColors: 256,
		},
	}
}

// Lookup returns the named profile.
func (t Table) Lookup(name string) (Profile, bool) {
	p, ok := t[name]
	return p, ok
}

// Names returns the profile names in lexical order.
func (t Table) Names() []string {
	names := make([]string, 0, len(t))
	for name := range t {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge returns a table containing the receiver's profiles overlaid
// with extra. Neither input is modified.
func (t Table) Merge(extra Table) Table {
	merged := make(Table, len(t)+len(extra))
	for name, p := range t {
		merged[name] = p
	}
	for name, p := range extra {
		merged[name] = p
	}
	return merged
}

// fileSchema is the CUE schema for profile extension files.
const fileSchema = `
profile: {[string]: {
	max_width:     int & >0
	max_height:    int & >0
	min_fps?:      number & >=0
	max_fps?:      number & >0
	max_colors?:   int & >=2 & <=256
	max_duration?: string
}}
`

type file struct {
	Profile map[string]fileProfile `toml:"profile" json:"profile,omitempty"`
}

type fileProfile struct {
	MaxWidth    int     `toml:"max_width" json:"max_width"`
	MaxHeight   int     `toml:"max_height" json:"max_height"`
	MinFPS      float64 `toml:"min_fps" json:"min_fps,omitempty"`
	MaxFPS      float64 `toml:"max_fps" json:"max_fps,omitempty"`
	MaxColors   int     `toml:"max_colors" json:"max_colors,omitempty"`
	MaxDuration string  `toml:"max_duration" json:"max_duration,omitempty"`
}

// Load reads a TOML profile extension file, validates it against the
// profile schema and returns the profiles it defines.
func Load(path string) (Table, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f file
	err = toml.Unmarshal(b, &f)
	if err != nil {
		return nil, fmt.Errorf("profiles %s: %w", path, err)
	}
	err = schema.Validate(fileSchema, f)
	if err != nil {
		return nil, fmt.Errorf("profiles %s: %w", path, err)
	}
	table := make(Table, len(f.Profile))
	for name, fp := range f.Profile {
		p := Profile{
			Name:      name,
			MaxWidth:  fp.MaxWidth,
			MaxHeight: fp.MaxHeight,
			MinFPS:    fp.MinFPS,
			MaxFPS:    fp.MaxFPS,
			MaxColors: fp.MaxColors,
		}
		if fp.MaxDuration != "" {
			p.MaxDuration, err = time.ParseDuration(fp.MaxDuration)
			if err != nil {
				return nil, fmt.Errorf("profiles %s: %s: %w", path, name, err)
			}
		}
		table[name] = p
	}
	return table, nil
}
