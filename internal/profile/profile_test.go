// Copyright ©2025 The Gifsmith Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package profile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestBuiltin(t *testing.T) {
	table := Builtin()
	for _, name := range []string{"emoji", "message"} {
		p, ok := table.Lookup(name)
		if !ok {
			t.Errorf("missing builtin profile %q", name)
			continue
		}
		if p.Name != name {
			t.Errorf("unexpected profile name: got:%q want:%q", p.Name, name)
		}
	}
	emoji, _ := table.Lookup("emoji")
	if emoji.MaxWidth != 128 || emoji.MaxHeight != 128 {
		t.Errorf("unexpected emoji dimensions: %dx%d", emoji.MaxWidth, emoji.MaxHeight)
	}
	if emoji.MaxDuration != 3*time.Second {
		t.Errorf("unexpected emoji max duration: %v", emoji.MaxDuration)
	}
	msg, _ := table.Lookup("message")
	if msg.MaxDuration != 0 {
		t.Errorf("message profile must not bound duration: %v", msg.MaxDuration)
	}

	// Mutating a returned table must not leak into later calls.
	table["emoji"] = Profile{Name: "emoji"}
	fresh, _ := Builtin().Lookup("emoji")
	if fresh.MaxWidth != 128 {
		t.Error("Builtin returned shared state")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.toml")
	err := os.WriteFile(path, []byte(`
[profile.banner]
max_width = 800
max_height = 200
min_fps = 1
max_fps = 30
max_colors = 64
max_duration = "10s"

[profile.thumb]
max_width = 64
max_height = 64
`), 0o644)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := Table{
		"banner": {
			Name: "banner", MaxWidth: 800, MaxHeight: 200,
			MinFPS: 1, MaxFPS: 30, MaxColors: 64, MaxDuration: 10 * time.Second,
		},
		"thumb": {Name: "thumb", MaxWidth: 64, MaxHeight: 64},
	}
	if !cmp.Equal(table, want) {
		t.Errorf("unexpected table:\n%s", cmp.Diff(table, want))
	}
}

func TestLoadInvalid(t *testing.T) {
	invalidTests := []struct {
		name string
		data string
	}{
		{
			name: "missing_dimension",
			data: "[profile.p]\nmax_width = 10\n",
		},
		{
			name: "colors_out_of_range",
			data: "[profile.p]\nmax_width = 10\nmax_height = 10\nmax_colors = 1000\n",
		},
		{
			name: "bad_duration",
			data: "[profile.p]\nmax_width = 10\nmax_height = 10\nmax_duration = \"fast\"\n",
		},
		{
			name: "not_toml",
			data: "{]",
		},
	}
	for _, test := range invalidTests {
		t.Run(test.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "profiles.toml")
			err := os.WriteFile(path, []byte(test.data), 0o644)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			_, err = Load(path)
			if err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "none.toml"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestMerge(t *testing.T) {
	base := Builtin()
	extra := Table{
		"emoji": {Name: "emoji", MaxWidth: 64, MaxHeight: 64},
		"new":   {Name: "new", MaxWidth: 10, MaxHeight: 10},
	}
	merged := base.Merge(extra)
	if got, _ := merged.Lookup("emoji"); got.MaxWidth != 64 {
		t.Errorf("extra did not override base: got:%d", got.MaxWidth)
	}
	if _, ok := merged.Lookup("new"); !ok {
		t.Error("merged table missing extra profile")
	}
	if got, _ := base.Lookup("emoji"); got.MaxWidth != 128 {
		t.Error("merge modified base table")
	}
	if got := merged.Names(); !cmp.Equal(got, []string{"emoji", "message", "new"}) {
		t.Errorf("unexpected names: %v", got)
	}
}
