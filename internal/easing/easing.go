// Copyright ©2025 The Gifsmith Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package easing provides time-mapping functions for animation motion.
//
// All curves map a progress value t to an eased progress fraction. Curves
// are defined on [0, 1] but accept values outside that interval, in which
// case the result is an extrapolation; callers wanting clamped behaviour
// must clamp t themselves.
package easing

import (
	"fmt"
	"math"
)

// Kind names an easing curve.
type Kind string

// The supported easing curves. BackOut and ElasticOut overshoot their
// end value before settling; BackIn and ElasticIn undershoot their start.
const (
	Linear       Kind = "linear"
	EaseIn       Kind = "ease_in"
	EaseOut      Kind = "ease_out"
	EaseInOut    Kind = "ease_in_out"
	CubicIn      Kind = "cubic_in"
	CubicOut     Kind = "cubic_out"
	CubicInOut   Kind = "cubic_in_out"
	BounceIn     Kind = "bounce_in"
	BounceOut    Kind = "bounce_out"
	Bounce       Kind = "bounce"
	ElasticIn    Kind = "elastic_in"
	ElasticOut   Kind = "elastic_out"
	Elastic      Kind = "elastic"
	BackIn       Kind = "back_in"
	BackOut      Kind = "back_out"
	BackInOut    Kind = "back_in_out"
	Anticipate   Kind = "anticipate" // alias for back_in
	Overshoot    Kind = "overshoot"  // alias for back_out
)

// ErrUnknownKind is returned by Func and Interpolate for an unrecognised
// easing kind.
var ErrUnknownKind = fmt.Errorf("unknown easing kind")

// Func returns the curve function for the named kind.
func Func(kind Kind) (func(t float64) float64, error) {
	fn, ok := curves[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return fn, nil
}

// Interpolate returns the value between start and end at eased progress t
// using the named curve. Overshooting curves may return values outside
// [start, end].
func Interpolate(start, end, t float64, kind Kind) (float64, error) {
	fn, err := Func(kind)
	if err != nil {
		return 0, err
	}
	return start + (end-start)*fn(t), nil
}

var curves = map[Kind]func(float64) float64{
	Linear:     func(t float64) float64 { return t },
	EaseIn:     easeInQuad,
	EaseOut:    easeOutQuad,
	EaseInOut:  easeInOutQuad,
	CubicIn:    easeInCubic,
	CubicOut:   easeOutCubic,
	CubicInOut: easeInOutCubic,
	BounceIn:   easeInBounce,
	BounceOut:  easeOutBounce,
	Bounce:     easeInOutBounce,
	ElasticIn:  easeInElastic,
	ElasticOut: easeOutElastic,
	Elastic:    easeInOutElastic,
	BackIn:     easeInBack,
	BackOut:    easeOutBack,
	BackInOut:  easeInOutBack,
	Anticipate: easeInBack,
	Overshoot:  easeOutBack,
}

func easeInQuad(t float64) float64 { return t * t }

func easeOutQuad(t float64) float64 { return t * (2 - t) }

func easeInOutQuad(t float64) float64 {
	if t < 0.5 {
		return 2 * t * t
	}
	return -1 + (4-2*t)*t
}

func easeInCubic(t float64) float64 { return t * t * t }

func easeOutCubic(t float64) float64 {
	u := t - 1
	return u*u*u + 1
}

func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	u := 2*t - 2
	return (t-1)*u*u + 1
}

func easeInBounce(t float64) float64 { return 1 - easeOutBounce(1-t) }

func easeOutBounce(t float64) float64 {
	switch {
	case t < 1/2.75:
		return 7.5625 * t * t
	case t < 2/2.75:
		t -= 1.5 / 2.75
		return 7.5625*t*t + 0.75
	case t < 2.5/2.75:
		t -= 2.25 / 2.75
		return 7.5625*t*t + 0.9375
	default:
		t -= 2.625 / 2.75
		return 7.5625*t*t + 0.984375
	}
}

func easeInOutBounce(t float64) float64 {
	if t < 0.5 {
		return easeInBounce(t*2) * 0.5
	}
	return easeOutBounce(t*2-1)*0.5 + 0.5
}

func easeInElastic(t float64) float64 {
	if t == 0 || t == 1 {
		return t
	}
	return -math.Pow(2, 10*(t-1)) * math.Sin((t-1.1)*5*math.Pi)
}

func easeOutElastic(t float64) float64 {
	if t == 0 || t == 1 {
		return t
	}
	return math.Pow(2, -10*t)*math.Sin((t-0.1)*5*math.Pi) + 1
}

func easeInOutElastic(t float64) float64 {
	if t == 0 || t == 1 {
		return t
	}
	t = t*2 - 1
	if t < 0 {
		return -0.5 * math.Pow(2, 10*t) * math.Sin((t-0.1)*5*math.Pi)
	}
	return math.Pow(2, -10*t)*math.Sin((t-0.1)*5*math.Pi)*0.5 + 1
}

// backOvershoot is the standard back-easing overshoot constant. The
// maximum excursion beyond the end value for back_out is ~10% of the
// start–end span.
const backOvershoot = 1.70158

func easeInBack(t float64) float64 {
	const (
		c1 = backOvershoot
		c3 = c1 + 1
	)
	return c3*t*t*t - c1*t*t
}

func easeOutBack(t float64) float64 {
	const (
		c1 = backOvershoot
		c3 = c1 + 1
	)
	u := t - 1
	return 1 + c3*u*u*u + c1*u*u
}

func easeInOutBack(t float64) float64 {
	const (
		c1 = backOvershoot
		c2 = c1 * 1.525
	)
	if t < 0.5 {
		u := 2 * t
		return u * u * ((c2+1)*u - c2) / 2
	}
	u := 2*t - 2
	return (u*u*((c2+1)*u+c2) + 2) / 2
}

// Arc returns the position at progress t along a parabolic arc from start
// to end with the given apex height above the straight-line path at the
// midpoint. Positive heights arc upwards in image coordinates (lower y).
func Arc(startX, startY, endX, endY, height, t float64) (x, y float64) {
	x = startX + (endX-startX)*t
	y = startY + (endY-startY)*t - 4*height*t*(1-t)
	return x, y
}

// SquashDirection selects the axis of a squash and stretch deformation.
type SquashDirection int

const (
	Vertical SquashDirection = iota
	Horizontal
	Both
)

// SquashStretch returns width and height scale factors deforming the base
// scales by the given intensity in [0, 1]. Vertical squashes height and
// stretches width, Horizontal the converse, Both compresses both axes.
func SquashStretch(widthScale, heightScale, intensity float64, dir SquashDirection) (w, h float64) {
	switch dir {
	case Horizontal:
		widthScale *= 1 - intensity*0.5
		heightScale *= 1 + intensity*0.5
	case Both:
		widthScale *= 1 - intensity*0.3
		heightScale *= 1 - intensity*0.3
	default:
		heightScale *= 1 - intensity*0.5
		widthScale *= 1 + intensity*0.5
	}
	return widthScale, heightScale
}
