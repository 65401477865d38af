// Copyright ©2025 The Gifsmith Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scene provides a declarative TOML animation scene description.
//
// A scene names the frame geometry and a set of shapes whose parameters
// may be animated between a from value and a to value under a named
// easing curve. Rendering a scene produces the frame sequence for an
// animation builder.
package scene

import (
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gifsmith/gifsmith/internal/compose"
	"github.com/gifsmith/gifsmith/internal/easing"
	"github.com/gifsmith/gifsmith/internal/schema"
)

// Value is a scalar shape parameter, optionally animated from From to To
// over the scene's duration. A bare TOML number is a constant value.
type Value struct {
	From, To float64
}

// UnmarshalTOML accepts either a number or a {from, to} table.
func (v *Value) UnmarshalTOML(data any) error {
	switch data := data.(type) {
	case int64:
		v.From = float64(data)
		v.To = v.From
	case float64:
		v.From = data
		v.To = data
	case map[string]any:
		from, err := tomlNumber(data["from"])
		if err != nil {
			return fmt.Errorf("from: %w", err)
		}
		to, err := tomlNumber(data["to"])
		if err != nil {
			return fmt.Errorf("to: %w", err)
		}
		v.From = from
		v.To = to
	default:
		return fmt.Errorf("invalid value: %v", data)
	}
	return nil
}

func tomlNumber(data any) (float64, error) {
	switch data := data.(type) {
	case int64:
		return float64(data), nil
	case float64:
		return data, nil
	default:
		return 0, fmt.Errorf("not a number: %v", data)
	}
}

// at returns the value at progress t eased by the named curve.
func (v Value) at(t float64, kind easing.Kind) (float64, error) {
	if v.From == v.To {
		return v.From, nil
	}
	return easing.Interpolate(v.From, v.To, t, kind)
}

// Background describes the frame background. Top and Bottom select a
// vertical gradient; otherwise Color fills the frame, defaulting to
// white when empty.
type Background struct {
	Color  string `toml:"color"`
	Top    string `toml:"top"`
	Bottom string `toml:"bottom"`
}

// Shape is one drawing operation in a scene, applied to every frame.
type Shape struct {
	Kind         string      `toml:"kind"`
	Easing       easing.Kind `toml:"easing"`
	Fill         string      `toml:"fill"`
	Outline      string      `toml:"outline"`
	OutlineWidth float64     `toml:"outline_width"`

	CenterX Value `toml:"center_x"`
	CenterY Value `toml:"center_y"`
	Radius  Value `toml:"radius"`
	Size    Value `toml:"size"`

	X0    Value `toml:"x0"`
	Y0    Value `toml:"y0"`
	X1    Value `toml:"x1"`
	Y1    Value `toml:"y1"`
	Width Value `toml:"width"`

	Points [][]float64 `toml:"points"`

	Text string  `toml:"text"`
	DX   float64 `toml:"dx"`
	DY   float64 `toml:"dy"`
}

// Scene is a decoded scene description.
type Scene struct {
	Width      int        `toml:"width"`
	Height     int        `toml:"height"`
	FPS        int        `toml:"fps"`
	Frames     int        `toml:"frames"`
	Background Background `toml:"background"`
	Shapes     []Shape    `toml:"shape"`
}

// sceneSchema is the CUE schema scene files are validated against before
// the typed decode.
const sceneSchema = `
#value: number | {from: number, to: number}
width:  int & >0
height: int & >0
fps:    int & >0
frames: int & >0
background?: {
	color?:  string
	top?:    string
	bottom?: string
}
shape?: [...{
	kind:           "circle" | "star" | "rect" | "line" | "polygon" | "caption"
	easing?:        string
	fill?:          string
	outline?:       string
	outline_width?: number & >=0
	center_x?:      #value
	center_y?:      #value
	radius?:        #value
	size?:          #value
	x0?:            #value
	y0?:            #value
	x1?:            #value
	y1?:            #value
	width?:         #value
	points?:        [...[number, number]]
	text?:          string
	dx?:            number & >=0 & <=1
	dy?:            number & >=0 & <=1
}]
`

// Load reads a TOML scene file, validates it against the scene schema
// and returns the decoded scene.
func Load(path string) (*Scene, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b, path)
}

// Parse decodes a TOML scene description. The name is used only in
// error messages.
func Parse(b []byte, name string) (*Scene, error) {
	var raw map[string]any
	err := toml.Unmarshal(b, &raw)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", name, err)
	}
	err = schema.Validate(sceneSchema, raw)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", name, err)
	}
	var s Scene
	err = toml.Unmarshal(b, &s)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", name, err)
	}
	for i, shape := range s.Shapes {
		if shape.Easing == "" {
			continue
		}
		_, err = easing.Func(shape.Easing)
		if err != nil {
			return nil, fmt.Errorf("scene %s: shape %d: %w", name, i, err)
		}
	}
	return &s, nil
}

// Render produces the scene's frame sequence. Each shape's animated
// values are eased from their From to their To over the sequence.
func (s *Scene) Render() ([]*image.RGBA, error) {
	if s.Frames <= 0 {
		return nil, fmt.Errorf("invalid frame count: %d", s.Frames)
	}
	frames := make([]*image.RGBA, 0, s.Frames)
	for i := 0; i < s.Frames; i++ {
		var t float64
		if s.Frames > 1 {
			t = float64(i) / float64(s.Frames-1)
		}
		frame, err := s.background()
		if err != nil {
			return nil, err
		}
		for j, shape := range s.Shapes {
			op, err := shape.op(t)
			if err != nil {
				return nil, fmt.Errorf("shape %d: %w", j, err)
			}
			err = compose.Draw(frame, op)
			if err != nil {
				return nil, fmt.Errorf("shape %d: %w", j, err)
			}
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

func (s *Scene) background() (*image.RGBA, error) {
	if s.Background.Top != "" || s.Background.Bottom != "" {
		top, err := ParseColor(s.Background.Top)
		if err != nil {
			return nil, err
		}
		bottom, err := ParseColor(s.Background.Bottom)
		if err != nil {
			return nil, err
		}
		return compose.Gradient(s.Width, s.Height, top, bottom)
	}
	bg := color.Color(color.White)
	if s.Background.Color != "" {
		var err error
		bg, err = ParseColor(s.Background.Color)
		if err != nil {
			return nil, err
		}
	}
	return compose.New(s.Width, s.Height, bg)
}

// op evaluates the shape at progress t and returns the drawing
// operation for it.
func (sh Shape) op(t float64) (compose.Op, error) {
	kind := sh.Easing
	if kind == "" {
		kind = easing.Linear
	}
	fill, err := optColor(sh.Fill)
	if err != nil {
		return nil, err
	}
	outline, err := optColor(sh.Outline)
	if err != nil {
		return nil, err
	}
	eval := func(v Value) float64 {
		x, evalErr := v.at(t, kind)
		if evalErr != nil && err == nil {
			err = evalErr
		}
		return x
	}
	var op compose.Op
	switch sh.Kind {
	case "circle":
		op = compose.Circle{
			Center:       image.Point{X: round(eval(sh.CenterX)), Y: round(eval(sh.CenterY))},
			Radius:       eval(sh.Radius),
			Fill:         fill,
			Outline:      outline,
			OutlineWidth: sh.OutlineWidth,
		}
	case "star":
		op = compose.Star{
			Center:       image.Point{X: round(eval(sh.CenterX)), Y: round(eval(sh.CenterY))},
			Size:         eval(sh.Size),
			Fill:         fill,
			Outline:      outline,
			OutlineWidth: sh.OutlineWidth,
		}
	case "rect":
		op = compose.Rect{
			Bounds:       image.Rect(round(eval(sh.X0)), round(eval(sh.Y0)), round(eval(sh.X1)), round(eval(sh.Y1))),
			Fill:         fill,
			Outline:      outline,
			OutlineWidth: sh.OutlineWidth,
		}
	case "line":
		width := eval(sh.Width)
		if width == 0 {
			width = 1
		}
		op = compose.Line{
			From:  image.Point{X: round(eval(sh.X0)), Y: round(eval(sh.Y0))},
			To:    image.Point{X: round(eval(sh.X1)), Y: round(eval(sh.Y1))},
			Color: outline,
			Width: width,
		}
	case "polygon":
		points := make([]image.Point, len(sh.Points))
		for i, p := range sh.Points {
			if len(p) != 2 {
				return nil, fmt.Errorf("%w: polygon point %v", compose.ErrGeometry, p)
			}
			points[i] = image.Point{X: round(p[0]), Y: round(p[1])}
		}
		op = compose.Polygon{
			Points:       points,
			Fill:         fill,
			Outline:      outline,
			OutlineWidth: sh.OutlineWidth,
		}
	case "caption":
		op = compose.Caption{
			Text:  sh.Text,
			Color: fill,
			DX:    sh.DX,
			DY:    sh.DY,
		}
	default:
		return nil, fmt.Errorf("unknown shape kind: %q", sh.Kind)
	}
	return op, err
}

func round(x float64) int {
	if x < 0 {
		return int(x - 0.5)
	}
	return int(x + 0.5)
}

func optColor(val string) (color.Color, error) {
	if val == "" {
		return nil, nil
	}
	return ParseColor(val)
}

// ParseColor resolves a scene color: either a name from the built-in
// palette or a #rrggbb web color.
func ParseColor(val string) (color.Color, error) {
	if strings.HasPrefix(val, "#") {
		return webColor(val)
	}
	col, ok := namedColor[val]
	if !ok {
		return nil, fmt.Errorf("invalid color name: %s", val)
	}
	return col, nil
}

var namedColor = map[string]color.RGBA{
	"black":     {R: 0x00, G: 0x00, B: 0x00, A: 0xff},
	"red":       {R: 0x80, G: 0x00, B: 0x00, A: 0xff},
	"green":     {R: 0x00, G: 0x80, B: 0x00, A: 0xff},
	"yellow":    {R: 0x80, G: 0x80, B: 0x00, A: 0xff},
	"blue":      {R: 0x00, G: 0x00, B: 0x80, A: 0xff},
	"magenta":   {R: 0x80, G: 0x00, B: 0x80, A: 0xff},
	"cyan":      {R: 0x00, G: 0x80, B: 0x80, A: 0xff},
	"white":     {R: 0xc0, G: 0xc0, B: 0xc0, A: 0xff},
	"hiblack":   {R: 0x80, G: 0x80, B: 0x80, A: 0xff},
	"hired":     {R: 0xff, G: 0x00, B: 0x00, A: 0xff},
	"higreen":   {R: 0x00, G: 0xff, B: 0x00, A: 0xff},
	"hiyellow":  {R: 0xff, G: 0xff, B: 0x00, A: 0xff},
	"hiblue":    {R: 0x00, G: 0x00, B: 0xff, A: 0xff},
	"himagenta": {R: 0xff, G: 0x00, B: 0xff, A: 0xff},
	"hicyan":    {R: 0x00, G: 0xff, B: 0xff, A: 0xff},
	"hiwhite":   {R: 0xff, G: 0xff, B: 0xff, A: 0xff},
}

func webColor(val string) (color.Color, error) {
	val, ok := strings.CutPrefix(val, "#")
	if !ok {
		return nil, fmt.Errorf("invalid web color: %s", val)
	}
	c, err := strconv.ParseUint(val, 16, 24)
	if err != nil {
		return nil, fmt.Errorf("invalid web color: #%s", val)
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], uint32(c))
	return color.NRGBA{R: b[1], G: b[2], B: b[3], A: 0xff}, nil
}
