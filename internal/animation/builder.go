// Copyright ©2025 The Gifsmith Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package animation

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/ericpauley/go-quantize/quantize"
	xdraw "golang.org/x/image/draw"
)

// Palette size limits for GIF encoding. Requested palette sizes outside
// [MinColors, MaxColors] are clamped, not rejected.
const (
	MinColors     = 2
	MaxColors     = 256
	DefaultColors = 128
)

// Emoji optimization targets. Save with OptimizeForEmoji clamps the
// output toward these values.
const (
	emojiSize   = 128
	emojiColors = 48
	emojiFrames = 12
)

// ErrInvalidArgument is returned for out-of-range builder parameters.
var ErrInvalidArgument = errors.New("invalid argument")

// ErrEmptySequence is returned by Save and Encode when no frames have
// been added to the builder.
var ErrEmptySequence = errors.New("no frames to save")

// DimensionError describes a frame whose size does not match the
// builder's declared size.
type DimensionError struct {
	Got, Want image.Point
}

func (e DimensionError) Error() string {
	return fmt.Sprintf("mismatched frame size: %dx%d != %dx%d", e.Got.X, e.Got.Y, e.Want.X, e.Want.Y)
}

// Builder accumulates an ordered sequence of equally sized frames and
// encodes them as a looping animated GIF at a fixed frame rate.
//
// A Builder must be confined to a single goroutine; distinct builders
// share no state and may be used concurrently.
type Builder struct {
	width  int
	height int
	fps    int

	frames []*image.RGBA
}

// NewBuilder returns an empty builder for frames of the given size at
// the given playback rate in frames per second.
func NewBuilder(width, height, fps int) (*Builder, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: frame size %dx%d", ErrInvalidArgument, width, height)
	}
	if fps <= 0 {
		return nil, fmt.Errorf("%w: frame rate %d", ErrInvalidArgument, fps)
	}
	return &Builder{width: width, height: height, fps: fps}, nil
}

// AddFrame appends a copy of the frame to the sequence. The frame must
// match the builder's declared size. Later mutation of img does not
// affect the builder.
func (b *Builder) AddFrame(img image.Image) error {
	bounds := img.Bounds()
	if bounds.Dx() != b.width || bounds.Dy() != b.height {
		return DimensionError{
			Got:  image.Point{X: bounds.Dx(), Y: bounds.Dy()},
			Want: image.Point{X: b.width, Y: b.height},
		}
	}
	b.frames = append(b.frames, clone(img))
	return nil
}

// AddFrames appends copies of all the given frames in order. The
// operation is all-or-nothing: if any frame does not match the builder's
// declared size, no frame is added.
func (b *Builder) AddFrames(imgs []image.Image) error {
	for i, img := range imgs {
		bounds := img.Bounds()
		if bounds.Dx() != b.width || bounds.Dy() != b.height {
			return fmt.Errorf("frame %d: %w", i, DimensionError{
				Got:  image.Point{X: bounds.Dx(), Y: bounds.Dy()},
				Want: image.Point{X: b.width, Y: b.height},
			})
		}
	}
	for _, img := range imgs {
		b.frames = append(b.frames, clone(img))
	}
	return nil
}

// Len returns the number of frames added to the builder.
func (b *Builder) Len() int { return len(b.frames) }

// Clear removes all frames, allowing the builder to be reused.
func (b *Builder) Clear() { b.frames = b.frames[:0] }

// SaveOptions control GIF encoding.
type SaveOptions struct {
	// Colors is the target palette size. Values outside
	// [MinColors, MaxColors] are clamped into that range.
	// Zero means DefaultColors.
	Colors int

	// OptimizeForEmoji clamps the output toward emoji targets:
	// at most 128x128 pixels, at most 48 colors and roughly 12
	// frames. It is an auto-correction, not a validation gate.
	OptimizeForEmoji bool

	// RemoveDuplicates collapses runs of consecutive pixel-identical
	// frames into a single stored frame whose display duration is
	// the sum of the run's durations, preserving perceived timing.
	RemoveDuplicates bool
}

// Info describes a saved animation.
type Info struct {
	Path     string
	Size     int64
	Width    int
	Height   int
	Frames   int
	FPS      int
	Duration time.Duration
	Colors   int
}

// Save encodes the accumulated frames and writes the animation to path.
// The file is written via a temporary file in the destination directory
// and renamed into place, so a failed save leaves no partial output.
func (b *Builder) Save(path string, opts SaveOptions) (Info, error) {
	if len(b.frames) == 0 {
		return Info{}, ErrEmptySequence
	}
	f, err := os.CreateTemp(filepath.Dir(path), ".gifsmith-*")
	if err != nil {
		return Info{}, fmt.Errorf("save: %w", err)
	}
	name := f.Name()
	info, err := b.Encode(f, opts)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(name)
		return Info{}, fmt.Errorf("save: %w", err)
	}
	err = os.Rename(name, path)
	if err != nil {
		os.Remove(name)
		return Info{}, fmt.Errorf("save: %w", err)
	}
	fi, err := os.Stat(path)
	if err != nil {
		return Info{}, fmt.Errorf("save: %w", err)
	}
	info.Path = path
	info.Size = fi.Size()
	return info, nil
}

// Encode encodes the accumulated frames as an animated GIF to w.
func (b *Builder) Encode(w io.Writer, opts SaveOptions) (Info, error) {
	if len(b.frames) == 0 {
		return Info{}, ErrEmptySequence
	}

	frames := make([]*image.RGBA, len(b.frames))
	copy(frames, b.frames)
	delays := make([]int, len(frames))
	unit := int(math.Round(100 / float64(b.fps)))
	for i := range delays {
		delays[i] = unit
	}

	if opts.RemoveDuplicates {
		frames, delays = dedup(frames, delays)
	}

	colors := opts.Colors
	if colors == 0 {
		colors = DefaultColors
	}
	width, height := b.width, b.height
	if opts.OptimizeForEmoji {
		if width > emojiSize || height > emojiSize {
			width, height = emojiSize, emojiSize
			for i, frame := range frames {
				frames[i] = resize(frame, width, height)
			}
		}
		if colors > emojiColors {
			colors = emojiColors
		}
		if len(frames) > emojiFrames {
			keep := len(frames) / emojiFrames
			var (
				thinned      []*image.RGBA
				thinnedDelay []int
			)
			for i := 0; i < len(frames); i += keep {
				thinned = append(thinned, frames[i])
				thinnedDelay = append(thinnedDelay, delays[i])
			}
			frames, delays = thinned, thinnedDelay
		}
	}
	if colors < MinColors {
		colors = MinColors
	}
	if colors > MaxColors {
		colors = MaxColors
	}

	pal := globalPalette(frames, colors)
	g := &gif.GIF{
		Image: make([]*image.Paletted, 0, len(frames)),
		Delay: delays,
		Config: image.Config{
			ColorModel: pal,
			Width:      width,
			Height:     height,
		},
	}
	for _, frame := range frames {
		dst := image.NewPaletted(frame.Bounds(), pal)
		draw.FloydSteinberg.Draw(dst, frame.Bounds(), frame, frame.Bounds().Min)
		g.Image = append(g.Image, dst)
	}

	err := gif.EncodeAll(w, g)
	if err != nil {
		return Info{}, err
	}
	var total int
	for _, d := range delays {
		total += d
	}
	return Info{
		Width:    width,
		Height:   height,
		Frames:   len(frames),
		FPS:      b.fps,
		Duration: time.Duration(total) * 10 * time.Millisecond,
		Colors:   len(pal),
	}, nil
}

// dedup collapses runs of consecutive pixel-identical frames, summing
// their delays so total display duration is unchanged.
func dedup(frames []*image.RGBA, delays []int) ([]*image.RGBA, []int) {
	if len(frames) < 2 {
		return frames, delays
	}
	outFrames := frames[:1:1]
	outDelays := delays[:1:1]
	for i := 1; i < len(frames); i++ {
		if equalFrames(outFrames[len(outFrames)-1], frames[i]) {
			outDelays[len(outDelays)-1] += delays[i]
			continue
		}
		outFrames = append(outFrames, frames[i])
		outDelays = append(outDelays, delays[i])
	}
	return outFrames, outDelays
}

func equalFrames(a, b *image.RGBA) bool {
	return a.Bounds() == b.Bounds() && a.Stride == b.Stride && bytes.Equal(a.Pix, b.Pix)
}

// globalPalette derives a shared palette from the frame sequence by
// median-cut quantization over a bounded sample of frames. The sampled
// frames are stacked into a single sheet so that one quantization pass
// sees pixels from the whole sequence.
func globalPalette(frames []*image.RGBA, colors int) color.Palette {
	n := 5
	if len(frames) < n {
		n = len(frames)
	}
	b := frames[0].Bounds()
	sheet := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()*n))
	for i := 0; i < n; i++ {
		src := frames[i*len(frames)/n]
		row := image.Rect(0, i*b.Dy(), b.Dx(), (i+1)*b.Dy())
		draw.Draw(sheet, row, src, src.Bounds().Min, draw.Src)
	}
	q := quantize.MedianCutQuantizer{}
	return q.Quantize(make(color.Palette, 0, colors), sheet)
}

func resize(src *image.RGBA, width, height int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}

func clone(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
