// Package missmap projects missed greens onto a scatter plot around the pin.
package missmap

import (
	"errors"
	"math"
	"slices"

	"github.com/antigravity/fairwaylog/internal/models"
)

// ErrNoData means every green was hit, so there is nothing to plot.
var ErrNoData = errors.New("no missed greens to plot")

const (
	RadiusX = 60.0
	RadiusY = 55.0

	Width   = 320.0
	Height  = 310.0
	CenterX = 160.0
	CenterY = 140.0

	JitterSpread = 8.0
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Dot struct {
	HoleNumber int                    `json:"hole_number"`
	Directions []models.MissDirection `json:"directions"`
	Point
}

type Plot struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Pin    Point   `json:"pin"`
	Dots   []Dot   `json:"dots"`
}

// Offset sums a unit vector per direction and scales the result onto the
// plot radii. Directions that cancel out land on the pin.
func Offset(dirs []models.MissDirection) Point {
	var x, y float64
	for _, d := range dirs {
		switch d {
		case models.MissShort:
			y++
		case models.MissLong:
			y--
		case models.MissLeft:
			x--
		case models.MissRight:
			x++
		}
	}
	l := math.Hypot(x, y)
	if l == 0 {
		l = 1
	}
	return Point{X: x / l * RadiusX, Y: y / l * RadiusY}
}

// Jitter maps a seed to a fixed offset in [-spread, spread) so dots for
// different holes do not sit on top of each other. It is a plain sine hash,
// the same seed always gives the same value.
func Jitter(seed, spread float64) float64 {
	x := math.Sin(seed*127.1+311.7) * 43758.5453
	return (x-math.Floor(x))*spread*2 - spread
}

// Project places one dot per missed green that has a recorded direction.
func Project(holes []models.HoleRecord) (Plot, error) {
	var dots []Dot
	for _, h := range holes {
		if h.GIR != models.GIRMiss || len(h.MissDirections) == 0 {
			continue
		}
		off := Offset(h.MissDirections)
		seed := float64(h.HoleNumber)
		dots = append(dots, Dot{
			HoleNumber: h.HoleNumber,
			Directions: slices.Clone(h.MissDirections),
			Point: Point{
				X: CenterX + off.X + Jitter(seed, JitterSpread),
				Y: CenterY + off.Y + Jitter(seed*3, JitterSpread),
			},
		})
	}
	if len(dots) == 0 {
		return Plot{}, ErrNoData
	}
	return Plot{
		Width:  Width,
		Height: Height,
		Pin:    Point{X: CenterX, Y: CenterY},
		Dots:   dots,
	}, nil
}
