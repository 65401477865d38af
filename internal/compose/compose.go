// Copyright ©2025 The Gifsmith Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package compose provides stateless frame composition primitives.
//
// Drawing operations mutate the destination frame in place so that a
// caller can layer operations onto a single frame before handing it to an
// animation builder. Geometry outside the frame bounds is clipped
// silently; degenerate geometry is an error.
package compose

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"golang.org/x/image/font/basicfont"

	"github.com/gifsmith/gifsmith/internal/text"
)

// ErrGeometry is returned for drawing operations with degenerate
// geometry, such as a non-positive radius.
var ErrGeometry = errors.New("invalid geometry")

// New returns a frame of the given size filled with the given color.
func New(width, height int, bg color.Color) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: frame size %dx%d", ErrGeometry, width, height)
	}
	frame := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(frame, frame.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)
	return frame, nil
}

// Gradient returns a frame of the given size filled with a vertical
// gradient from top to bottom.
func Gradient(width, height int, top, bottom color.Color) (*image.RGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: frame size %dx%d", ErrGeometry, width, height)
	}
	frame := image.NewRGBA(image.Rect(0, 0, width, height))
	r1, g1, b1, _ := top.RGBA()
	r2, g2, b2, _ := bottom.RGBA()
	for y := 0; y < height; y++ {
		ratio := float64(y) / float64(height)
		row := color.RGBA{
			R: uint8(lerp(float64(r1>>8), float64(r2>>8), ratio)),
			G: uint8(lerp(float64(g1>>8), float64(g2>>8), ratio)),
			B: uint8(lerp(float64(b1>>8), float64(b2>>8), ratio)),
			A: 0xff,
		}
		draw.Draw(frame, image.Rect(0, y, width, y+1), &image.Uniform{row}, image.Point{}, draw.Src)
	}
	return frame, nil
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

// Op is a single drawing operation in the closed operation set.
type Op interface {
	// Draw applies the operation to dst, mutating it in place.
	Draw(dst *image.RGBA) error
}

// Circle draws a circle, optionally filled and outlined.
type Circle struct {
	Center       image.Point
	Radius       float64
	Fill         color.Color // nil for no fill
	Outline      color.Color // nil for no outline
	OutlineWidth float64
}

func (op Circle) Draw(dst *image.RGBA) error {
	if op.Radius <= 0 {
		return fmt.Errorf("%w: circle radius %v", ErrGeometry, op.Radius)
	}
	return rasterize(dst, op.Fill, op.Outline, op.OutlineWidth, func(ctx *canvas.Context, h float64) {
		ctx.DrawPath(float64(op.Center.X), h-float64(op.Center.Y), canvas.Circle(op.Radius))
	})
}

// Star draws a five-pointed star with the given outer radius. The inner
// radius is fixed at 0.4 of the outer, matching conventional proportions.
type Star struct {
	Center       image.Point
	Size         float64
	Fill         color.Color
	Outline      color.Color
	OutlineWidth float64
}

func (op Star) Draw(dst *image.RGBA) error {
	if op.Size <= 0 {
		return fmt.Errorf("%w: star size %v", ErrGeometry, op.Size)
	}
	return rasterize(dst, op.Fill, op.Outline, op.OutlineWidth, func(ctx *canvas.Context, h float64) {
		ctx.DrawPath(float64(op.Center.X), h-float64(op.Center.Y), canvas.StarPolygon(5, op.Size, op.Size*0.4, true))
	})
}

// Rect draws an axis-aligned rectangle.
type Rect struct {
	Bounds       image.Rectangle
	Fill         color.Color
	Outline      color.Color
	OutlineWidth float64
}

func (op Rect) Draw(dst *image.RGBA) error {
	b := op.Bounds.Canon()
	if b.Dx() == 0 || b.Dy() == 0 {
		return fmt.Errorf("%w: empty rectangle %v", ErrGeometry, op.Bounds)
	}
	return rasterize(dst, op.Fill, op.Outline, op.OutlineWidth, func(ctx *canvas.Context, h float64) {
		ctx.DrawPath(float64(b.Min.X), h-float64(b.Max.Y), canvas.Rectangle(float64(b.Dx()), float64(b.Dy())))
	})
}

// Line draws a straight line segment. A nil Color draws black.
type Line struct {
	From, To image.Point
	Color    color.Color
	Width    float64
}

func (op Line) Draw(dst *image.RGBA) error {
	if op.Width <= 0 {
		return fmt.Errorf("%w: line width %v", ErrGeometry, op.Width)
	}
	if op.From == op.To {
		return fmt.Errorf("%w: zero length line at %v", ErrGeometry, op.From)
	}
	col := op.Color
	if col == nil {
		col = color.Black
	}
	return rasterize(dst, nil, col, op.Width, func(ctx *canvas.Context, h float64) {
		dx := float64(op.To.X - op.From.X)
		dy := float64(op.From.Y-op.To.Y) // y inverted between image and canvas space
		ctx.DrawPath(float64(op.From.X), h-float64(op.From.Y), canvas.Line(dx, dy))
	})
}

// Polygon draws a closed polygon through the given points.
type Polygon struct {
	Points       []image.Point
	Fill         color.Color
	Outline      color.Color
	OutlineWidth float64
}

func (op Polygon) Draw(dst *image.RGBA) error {
	if len(op.Points) < 3 {
		return fmt.Errorf("%w: polygon needs 3 points, got %d", ErrGeometry, len(op.Points))
	}
	return rasterize(dst, op.Fill, op.Outline, op.OutlineWidth, func(ctx *canvas.Context, h float64) {
		p := &canvas.Path{}
		p.MoveTo(float64(op.Points[0].X), h-float64(op.Points[0].Y))
		for _, pt := range op.Points[1:] {
			p.LineTo(float64(pt.X), h-float64(pt.Y))
		}
		p.Close()
		ctx.DrawPath(0, 0, p)
	})
}

// Caption draws word-wrapped text. DX and DY give the relative position
// of the text within the frame in [0, 1]; {0.5, 0.5} centers it.
type Caption struct {
	Text   string
	Color  color.Color
	DX, DY float64
}

func (op Caption) Draw(dst *image.RGBA) error {
	if op.Text == "" {
		return fmt.Errorf("%w: empty caption", ErrGeometry)
	}
	col := op.Color
	if col == nil {
		col = color.Black
	}
	text.Draw(text.Shrink{Image: dst, Margin: 1}, op.Text, col, basicfont.Face7x13, op.DX, op.DY, true)
	return nil
}

// Draw applies the given operations to dst in order, mutating it in
// place. The first failing operation aborts the sequence.
func Draw(dst *image.RGBA, ops ...Op) error {
	for _, op := range ops {
		err := op.Draw(dst)
		if err != nil {
			return err
		}
	}
	return nil
}

// rasterize renders a single vector drawing function onto an overlay the
// size of dst and composites it over dst. The callback receives the
// context and the canvas height for image-space y inversion.
func rasterize(dst *image.RGBA, fill, stroke color.Color, strokeWidth float64, fn func(ctx *canvas.Context, h float64)) error {
	b := dst.Bounds()
	c := canvas.New(float64(b.Dx()), float64(b.Dy()))
	ctx := canvas.NewContext(c)
	if fill != nil {
		ctx.SetFillColor(fill)
	} else {
		ctx.SetFillColor(canvas.Transparent)
	}
	if stroke != nil && strokeWidth > 0 {
		ctx.SetStrokeColor(stroke)
		ctx.SetStrokeWidth(strokeWidth)
	} else {
		ctx.SetStrokeColor(canvas.Transparent)
	}
	fn(ctx, float64(b.Dy()))
	overlay := rasterizer.Draw(c, canvas.DPMM(1.0), canvas.DefaultColorSpace)
	draw.Draw(dst, b, overlay, overlay.Bounds().Min, draw.Over)
	return nil
}
