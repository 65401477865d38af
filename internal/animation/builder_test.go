// Copyright ©2025 The Gifsmith Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package animation

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func solid(width, height int, c color.Color) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(frame, frame.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return frame
}

var (
	red  = color.RGBA{R: 0xff, A: 0xff}
	blue = color.RGBA{B: 0xff, A: 0xff}
)

func TestNewBuilderInvalid(t *testing.T) {
	invalidTests := []struct {
		name   string
		w, h   int
		fps    int
	}{
		{name: "zero_fps", w: 10, h: 10, fps: 0},
		{name: "negative_fps", w: 10, h: 10, fps: -1},
		{name: "zero_width", w: 0, h: 10, fps: 10},
		{name: "negative_height", w: 10, h: -1, fps: 10},
	}
	for _, test := range invalidTests {
		t.Run(test.name, func(t *testing.T) {
			_, err := NewBuilder(test.w, test.h, test.fps)
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument, got: %v", err)
			}
		})
	}
}

func TestAddFrameDimensionMismatch(t *testing.T) {
	b, err := NewBuilder(10, 10, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = b.AddFrame(solid(10, 12, red))
	var dimErr DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected DimensionError, got: %v", err)
	}
	want := DimensionError{Got: image.Point{X: 10, Y: 12}, Want: image.Point{X: 10, Y: 10}}
	if !cmp.Equal(dimErr, want) {
		t.Errorf("unexpected error detail:\n%s", cmp.Diff(dimErr, want))
	}
	if b.Len() != 0 {
		t.Errorf("mismatched frame was added: len=%d", b.Len())
	}
}

func TestAddFramesAtomic(t *testing.T) {
	b, err := NewBuilder(10, 10, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = b.AddFrame(solid(10, 10, red))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = b.AddFrames([]image.Image{
		solid(10, 10, red),
		solid(12, 10, blue), // mismatched
		solid(10, 10, blue),
	})
	var dimErr DimensionError
	if !errors.As(err, &dimErr) {
		t.Fatalf("expected DimensionError, got: %v", err)
	}
	if b.Len() != 1 {
		t.Errorf("AddFrames was not atomic: len=%d want=1", b.Len())
	}

	err = b.AddFrames([]image.Image{solid(10, 10, red), solid(10, 10, blue)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Len() != 3 {
		t.Errorf("unexpected frame count: len=%d want=3", b.Len())
	}
}

func TestDefensiveCopy(t *testing.T) {
	b, err := NewBuilder(4, 4, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	frame := solid(4, 4, red)
	err = b.AddFrame(frame)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Caller reuses the buffer after adding; the builder must not see it.
	draw.Draw(frame, frame.Bounds(), &image.Uniform{blue}, image.Point{}, draw.Src)

	var buf bytes.Buffer
	_, err = b.Encode(&buf, SaveOptions{Colors: 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g, err := DecodeAll(&buf)
	if err != nil {
		t.Fatalf("unexpected error decoding: %v", err)
	}
	got := color.RGBAModel.Convert(g.Image[0].At(2, 2)).(color.RGBA)
	if got != red {
		t.Errorf("builder affected by caller mutation: got:%v want:%v", got, red)
	}
}

func TestEncodeEmpty(t *testing.T) {
	b, err := NewBuilder(10, 10, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var buf bytes.Buffer
	_, err = b.Encode(&buf, SaveOptions{})
	if !errors.Is(err, ErrEmptySequence) {
		t.Errorf("expected ErrEmptySequence, got: %v", err)
	}
	_, err = b.Save(filepath.Join(t.TempDir(), "out.gif"), SaveOptions{})
	if !errors.Is(err, ErrEmptySequence) {
		t.Errorf("expected ErrEmptySequence from Save, got: %v", err)
	}
}

func TestDurationLaw(t *testing.T) {
	const (
		fps    = 10
		frames = 12
	)
	b, err := NewBuilder(16, 16, fps)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < frames; i++ {
		c := color.RGBA{R: uint8(i * 20), G: 0x40, B: 0x80, A: 0xff}
		err = b.AddFrame(solid(16, 16, c))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	var buf bytes.Buffer
	info, err := b.Encode(&buf, SaveOptions{Colors: 64})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Duration(frames) * time.Second / fps
	if info.Duration != want {
		t.Errorf("unexpected duration: got:%v want:%v", info.Duration, want)
	}

	g, err := DecodeAll(&buf)
	if err != nil {
		t.Fatalf("unexpected error decoding: %v", err)
	}
	if len(g.Image) != frames {
		t.Errorf("unexpected frame count: got:%d want:%d", len(g.Image), frames)
	}
	var total int
	for _, d := range g.Delay {
		total += d
	}
	if total != frames*100/fps {
		t.Errorf("unexpected total delay: got:%dcs want:%dcs", total, frames*100/fps)
	}
	if g.LoopCount != 0 {
		t.Errorf("expected infinite loop count, got: %d", g.LoopCount)
	}
}

func TestDedupLaw(t *testing.T) {
	b, err := NewBuilder(8, 8, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	a := solid(8, 8, red)
	err = b.AddFrames([]image.Image{a, a, solid(8, 8, blue)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var buf bytes.Buffer
	info, err := b.Encode(&buf, SaveOptions{Colors: 8, RemoveDuplicates: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Frames != 2 {
		t.Errorf("unexpected stored frame count: got:%d want:2", info.Frames)
	}
	if want := 300 * time.Millisecond; info.Duration != want {
		t.Errorf("dedup changed total duration: got:%v want:%v", info.Duration, want)
	}

	g, err := DecodeAll(&buf)
	if err != nil {
		t.Fatalf("unexpected error decoding: %v", err)
	}
	if len(g.Image) != 2 {
		t.Fatalf("unexpected frame count: got:%d want:2", len(g.Image))
	}
	if g.Delay[0] != 2*g.Delay[1] {
		t.Errorf("collapsed frame delay not doubled: got:%v", g.Delay)
	}
}

func TestDedupPreservesOrder(t *testing.T) {
	b, err := NewBuilder(8, 8, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seq := []color.RGBA{red, red, blue, blue, red}
	for _, c := range seq {
		err = b.AddFrame(solid(8, 8, c))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	var buf bytes.Buffer
	_, err = b.Encode(&buf, SaveOptions{Colors: 8, RemoveDuplicates: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g, err := DecodeAll(&buf)
	if err != nil {
		t.Fatalf("unexpected error decoding: %v", err)
	}
	var got []color.RGBA
	for _, frame := range g.Image {
		got = append(got, color.RGBAModel.Convert(frame.At(4, 4)).(color.RGBA))
	}
	want := []color.RGBA{red, blue, red}
	if !cmp.Equal(got, want) {
		t.Errorf("unexpected frame order:\n%s", cmp.Diff(got, want))
	}
}

func TestPaletteClamp(t *testing.T) {
	clampTests := []struct {
		name   string
		colors int
		max    int
	}{
		{name: "below_range", colors: -5, max: MinColors},
		{name: "one", colors: 1, max: MinColors},
		{name: "in_range", colors: 16, max: 16},
		{name: "above_range", colors: 1000, max: MaxColors},
	}
	for _, test := range clampTests {
		t.Run(test.name, func(t *testing.T) {
			b, err := NewBuilder(16, 16, 10)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for i := 0; i < 4; i++ {
				c := color.RGBA{R: uint8(i * 60), G: uint8(255 - i*60), B: uint8(i * 40), A: 0xff}
				err = b.AddFrame(solid(16, 16, c))
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
			}
			var buf bytes.Buffer
			info, err := b.Encode(&buf, SaveOptions{Colors: test.colors})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if info.Colors > test.max {
				t.Errorf("palette exceeds clamp: got:%d max:%d", info.Colors, test.max)
			}
			if info.Colors < 1 {
				t.Errorf("empty palette: got:%d", info.Colors)
			}
		})
	}
}

// The shared palette must be derived from the whole sequence, not just
// the first frame, so every frame's color is representable.
func TestGlobalPalette(t *testing.T) {
	green := color.RGBA{G: 0xff, A: 0xff}
	frames := []*image.RGBA{
		solid(8, 8, red),
		solid(8, 8, green),
		solid(8, 8, blue),
	}
	pal := globalPalette(frames, 8)
	if len(pal) == 0 || len(pal) > 8 {
		t.Fatalf("unexpected palette size: %d", len(pal))
	}
	const tol = 0x1000
	for _, c := range []color.RGBA{red, green, blue} {
		cr, cg, cb, _ := c.RGBA()
		pr, pg, pb, _ := pal.Convert(c).RGBA()
		if chanDiff(cr, pr) > tol || chanDiff(cg, pg) > tol || chanDiff(cb, pb) > tol {
			t.Errorf("color %v not representable in palette %v", c, pal)
		}
	}
}

func chanDiff(a, b uint32) uint32 {
	if a > b {
		return a - b
	}
	return b - a
}

func TestOptimizeForEmoji(t *testing.T) {
	b, err := NewBuilder(256, 256, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 36; i++ {
		c := color.RGBA{R: uint8(i * 7), G: 0x80, B: uint8(255 - i*7), A: 0xff}
		err = b.AddFrame(solid(256, 256, c))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	var buf bytes.Buffer
	info, err := b.Encode(&buf, SaveOptions{OptimizeForEmoji: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Width != 128 || info.Height != 128 {
		t.Errorf("unexpected dimensions: got:%dx%d want:128x128", info.Width, info.Height)
	}
	if info.Colors > 48 {
		t.Errorf("palette exceeds emoji bound: got:%d", info.Colors)
	}
	if info.Frames > 18 {
		t.Errorf("frame thinning not applied: got:%d frames", info.Frames)
	}

	g, err := DecodeAll(&buf)
	if err != nil {
		t.Fatalf("unexpected error decoding: %v", err)
	}
	if g.Config.Width != 128 || g.Config.Height != 128 {
		t.Errorf("unexpected encoded dimensions: got:%dx%d", g.Config.Width, g.Config.Height)
	}
}

func TestSave(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBuilder(16, 16, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = b.AddFrame(solid(16, 16, red))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	path := filepath.Join(dir, "out.gif")
	info, err := b.Save(path, SaveOptions{Colors: 8})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Path != path {
		t.Errorf("unexpected path: got:%q want:%q", info.Path, path)
	}
	if info.Size <= 0 {
		t.Errorf("unexpected size: got:%d", info.Size)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()
	if !IsGIF(AsReadPeeker(f)) {
		t.Error("saved file is not a GIF")
	}

	// No temp file must survive.
	des, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(des) != 1 {
		for _, de := range des {
			t.Logf("found: %s", de.Name())
		}
		t.Errorf("unexpected directory contents: %d entries", len(des))
	}
}

func TestSaveUnwritable(t *testing.T) {
	b, err := NewBuilder(16, 16, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = b.AddFrame(solid(16, 16, red))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = b.Save(filepath.Join(t.TempDir(), "missing", "out.gif"), SaveOptions{})
	if err == nil {
		t.Error("expected error saving to missing directory")
	}
}

func TestClear(t *testing.T) {
	b, err := NewBuilder(8, 8, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err = b.AddFrame(solid(8, 8, red))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b.Clear()
	if b.Len() != 0 {
		t.Errorf("unexpected frame count after clear: got:%d", b.Len())
	}
}
