package tui

import (
	"math"

	"github.com/evanschultz/arcboard/internal/layout"
)

// projection maps pivot-relative logical pixels onto terminal cells of the
// board area. The pivot sits horizontally centred, PivotDepth pixels below the
// bottom edge.
type projection struct {
	width  int
	height int
	scale  float64
	cellW  float64
	cellH  float64
	pivotX float64
	pivotY float64
}

func newProjection(cfg RuntimeConfig, width, height int) projection {
	cellW := cfg.Viewport.CellWidth
	if cellW <= 0 {
		cellW = 8
	}
	cellH := cfg.Viewport.CellHeight
	if cellH <= 0 {
		cellH = 16
	}
	scale := cfg.Viewport.Scale.Scale(float64(height) * cellH)
	return projection{
		width:  width,
		height: height,
		scale:  scale,
		cellW:  cellW,
		cellH:  cellH,
		pivotX: float64(width) / 2,
		pivotY: float64(height) + cfg.Viewport.PivotDepth*scale/cellH,
	}
}

// cellsX converts a horizontal logical distance to cells.
func (p projection) cellsX(px float64) float64 {
	return px * p.scale / p.cellW
}

// cellsY converts a vertical logical distance to cells.
func (p projection) cellsY(px float64) float64 {
	return px * p.scale / p.cellH
}

// pixelsX converts a column to a logical x distance, the unit drag gestures
// measure in.
func (p projection) pixelsX(cells int) float64 {
	if p.scale <= 0 {
		return 0
	}
	return float64(cells) * p.cellW / p.scale
}

// cardSize is the outer card box in cells, border included.
func (p projection) cardSize(g layout.Geometry, placementScale float64) (int, int) {
	if placementScale <= 0 {
		placementScale = 1
	}
	w := int(math.Round(p.cellsX(g.CardWidth * placementScale)))
	h := int(math.Round(p.cellsY(g.CardHeight * placementScale)))
	return max(w, 6), max(h, 4)
}

// box returns the top-left cell and size of a card centred on pt.
func (p projection) box(g layout.Geometry, pt layout.Point, placementScale float64) cardBox {
	w, h := p.cardSize(g, placementScale)
	cx := p.pivotX + p.cellsX(pt.X)
	cy := p.pivotY + p.cellsY(pt.Y)
	return cardBox{
		x: int(math.Round(cx - float64(w)/2)),
		y: int(math.Round(cy - float64(h)/2)),
		w: w,
		h: h,
	}
}

type cardBox struct {
	x, y, w, h int
}

func (b cardBox) contains(x, y int) bool {
	return x >= b.x && x < b.x+b.w && y >= b.y && y < b.y+b.h
}

func (b cardBox) shift(dx, dy int) cardBox {
	b.x += dx
	b.y += dy
	return b
}
