// Copyright ©2025 The Gifsmith Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package validate checks encoded animations against delivery target
// constraint profiles.
package validate

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"
	"time"

	"github.com/gifsmith/gifsmith/internal/animation"
	"github.com/gifsmith/gifsmith/internal/profile"
)

// ErrUnsupportedFormat is returned when the target file is not a
// readable animated GIF.
var ErrUnsupportedFormat = errors.New("unsupported animation format")

// defaultDelay is the per-frame delay assumed for GIFs that carry no
// delay information, in hundredths of a second.
const defaultDelay = 10

// Check is the outcome of a single constraint check.
type Check struct {
	Name   string
	OK     bool
	Detail string
}

// Report is the result of validating an animation against a profile.
// All constraint checks are evaluated; Violations collects the failures.
type Report struct {
	Path    string
	Profile string
	Pass    bool

	Width    int
	Height   int
	Frames   int
	Duration time.Duration
	FPS      float64
	Colors   int
	Size     int64

	Violations []string
	// Checks holds per-check detail and is populated only for
	// verbose validation.
	Checks []Check
}

// File validates the animated GIF at path against the given profile.
// Every constraint is checked and all violations are reported together.
// If verbose is true the report carries per-check detail.
//
// The measured color count is the number of distinct palette colors
// referenced by at least one pixel of at least one frame; it is exact
// with respect to the stored palettes and deterministic for a given
// input file.
func File(path string, p profile.Profile, verbose bool) (Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return Report{}, err
	}
	defer f.Close()
	fi, err := f.Stat()
	if err != nil {
		return Report{}, err
	}

	r := animation.AsReadPeeker(f)
	if !animation.IsGIF(r) {
		return Report{}, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	g, err := animation.DecodeAll(r)
	if err != nil {
		return Report{}, fmt.Errorf("%s: %w: %v", path, ErrUnsupportedFormat, err)
	}

	rep := Report{
		Path:    path,
		Profile: p.Name,
		Width:   g.Config.Width,
		Height:  g.Config.Height,
		Frames:  len(g.Image),
		Size:    fi.Size(),
	}
	if rep.Width == 0 || rep.Height == 0 {
		b := g.Image[0].Bounds()
		rep.Width, rep.Height = b.Dx(), b.Dy()
	}
	var total int
	for i := range g.Image {
		if i < len(g.Delay) {
			total += g.Delay[i]
		} else {
			total += defaultDelay
		}
	}
	rep.Duration = time.Duration(total) * 10 * time.Millisecond
	if rep.Duration > 0 {
		rep.FPS = float64(rep.Frames) / rep.Duration.Seconds()
	}
	rep.Colors = countColors(g.Image)

	checks := []Check{
		dimensionCheck(&rep, p),
		rateCheck(&rep, p),
		durationCheck(&rep, p),
		colorCheck(&rep, p),
	}
	rep.Pass = true
	for _, c := range checks {
		if !c.OK {
			rep.Pass = false
			rep.Violations = append(rep.Violations, c.Detail)
		}
	}
	if verbose {
		rep.Checks = checks
	}
	return rep, nil
}

// IsReady reports whether the animation at path satisfies the profile.
func IsReady(path string, p profile.Profile) (bool, error) {
	rep, err := File(path, p, false)
	if err != nil {
		return false, err
	}
	return rep.Pass, nil
}

func dimensionCheck(rep *Report, p profile.Profile) Check {
	c := Check{Name: "dimensions", OK: true}
	if (p.MaxWidth > 0 && rep.Width > p.MaxWidth) || (p.MaxHeight > 0 && rep.Height > p.MaxHeight) {
		c.OK = false
		c.Detail = fmt.Sprintf("dimensions: %dx%d exceeds maximum %dx%d",
			rep.Width, rep.Height, p.MaxWidth, p.MaxHeight)
		return c
	}
	c.Detail = fmt.Sprintf("dimensions: %dx%d within %dx%d", rep.Width, rep.Height, p.MaxWidth, p.MaxHeight)
	return c
}

func rateCheck(rep *Report, p profile.Profile) Check {
	c := Check{Name: "frame_rate", OK: true}
	switch {
	case p.MinFPS > 0 && rep.FPS < p.MinFPS:
		c.OK = false
		c.Detail = fmt.Sprintf("frame_rate: %.2f fps below minimum %.2f", rep.FPS, p.MinFPS)
	case p.MaxFPS > 0 && rep.FPS > p.MaxFPS:
		c.OK = false
		c.Detail = fmt.Sprintf("frame_rate: %.2f fps above maximum %.2f", rep.FPS, p.MaxFPS)
	default:
		c.Detail = fmt.Sprintf("frame_rate: %.2f fps within [%.2f, %.2f]", rep.FPS, p.MinFPS, p.MaxFPS)
	}
	return c
}

func durationCheck(rep *Report, p profile.Profile) Check {
	c := Check{Name: "duration", OK: true}
	if p.MaxDuration > 0 && rep.Duration > p.MaxDuration {
		c.OK = false
		c.Detail = fmt.Sprintf("duration: %v exceeds maximum %v", rep.Duration, p.MaxDuration)
		return c
	}
	c.Detail = fmt.Sprintf("duration: %v", rep.Duration)
	return c
}

func colorCheck(rep *Report, p profile.Profile) Check {
	c := Check{Name: "colors", OK: true}
	if p.MaxColors > 0 && rep.Colors > p.MaxColors {
		c.OK = false
		c.Detail = fmt.Sprintf("colors: %d exceeds maximum %d", rep.Colors, p.MaxColors)
		return c
	}
	c.Detail = fmt.Sprintf("colors: %d", rep.Colors)
	return c
}

// countColors returns the number of distinct palette colors referenced
// by frame pixels across all frames.
func countColors(frames []*image.Paletted) int {
	seen := make(map[color.RGBA]bool)
	for _, frame := range frames {
		var used [256]bool
		for _, idx := range frame.Pix {
			used[idx] = true
		}
		for idx, ok := range used {
			if !ok || idx >= len(frame.Palette) {
				continue
			}
			r, g, b, a := frame.Palette[idx].RGBA()
			seen[color.RGBA{
				R: uint8(r >> 8),
				G: uint8(g >> 8),
				B: uint8(b >> 8),
				A: uint8(a >> 8),
			}] = true
		}
	}
	return len(seen)
}
