// Package layout maps ordered task groups onto the sector fan: grid cells,
// polar coordinates, pivot-relative screen offsets and draw order.
package layout

import (
	"errors"
	"fmt"
	"math"
)

// DragZIndex is the draw order forced onto the card under an active drag.
const DragZIndex = math.MaxInt32

// Geometry holds the fan dimensions in logical pixels.
type Geometry struct {
	Rows           int
	BaseRadius     float64
	RowHeight      float64
	ArcSpacing     float64
	CardWidth      float64
	CardHeight     float64
	MaxDoneColumns int
	ZBase          int
}

// Cell is a logical grid position. Todo columns are >= 0, done columns < 0.
type Cell struct {
	Column int `json:"column"`
	Row    int `json:"row"`
}

// Polar is an angle in degrees (0 points straight up from the pivot) and a
// radius measured to the inner edge of the card's orbit.
type Polar struct {
	Angle  float64 `json:"angle"`
	Radius float64 `json:"radius"`
}

// Point is an offset from the pivot; negative Y is up.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DefaultGeometry returns the reference fan used at scale 1.
func DefaultGeometry() Geometry {
	return Geometry{
		Rows:           3,
		BaseRadius:     500,
		RowHeight:      260,
		ArcSpacing:     200,
		CardWidth:      180,
		CardHeight:     220,
		MaxDoneColumns: 3,
		ZBase:          1000,
	}
}

// Validate rejects geometry that would overlap rows or collapse the fan.
func (g Geometry) Validate() error {
	if g.Rows <= 0 {
		return errors.New("rows must be > 0")
	}
	if g.BaseRadius <= 0 || g.ArcSpacing <= 0 {
		return errors.New("base radius and arc spacing must be > 0")
	}
	if g.CardWidth <= 0 || g.CardHeight <= 0 {
		return errors.New("card size must be > 0")
	}
	if g.RowHeight <= g.CardHeight {
		return fmt.Errorf("row height %.0f must exceed card height %.0f", g.RowHeight, g.CardHeight)
	}
	if g.MaxDoneColumns <= 0 {
		return errors.New("max done columns must be > 0")
	}
	return nil
}

// Radius returns the orbit radius of a row.
func (g Geometry) Radius(row int) float64 {
	return g.BaseRadius + float64(row)*g.RowHeight
}

// AngleStep returns the angular column spacing, in degrees, that keeps the arc
// distance between neighbouring card centres at ArcSpacing for the given
// radius. Outer rows therefore get a smaller step.
func (g Geometry) AngleStep(radius float64) float64 {
	return g.ArcSpacing / radius * (180 / math.Pi)
}

// Polar places a cell on the fan. The half-step offset puts todo column 0 and
// done column -1 symmetrically either side of straight up.
func (g Geometry) Polar(c Cell) Polar {
	radius := g.Radius(c.Row)
	step := g.AngleStep(radius)
	return Polar{
		Angle:  float64(c.Column)*step + step/2,
		Radius: radius,
	}
}

// Cartesian converts to a pivot-relative offset of the card centre. Cards
// pivot around their own centre, so the distance used is the radius plus half
// a card height.
func (g Geometry) Cartesian(p Polar) Point {
	dist := p.Radius + g.CardHeight/2
	rad := p.Angle * math.Pi / 180
	return Point{
		X: dist * math.Sin(rad),
		Y: -dist * math.Cos(rad),
	}
}

// ZIndex keeps cards near the centre columns above far ones, and lower rows
// above higher rows at equal column distance.
func (g Geometry) ZIndex(c Cell) int {
	col := c.Column
	if col < 0 {
		col = -col
	}
	return g.ZBase - 10*col - c.Row
}

// MaxVisibleDone is the number of done cards the fan shows.
func (g Geometry) MaxVisibleDone() int {
	return g.Rows * g.MaxDoneColumns
}
