package runtime

import (
	"math"

	"github.com/schmidtdse/joshsim/internal/units"
)

// GridCellGeometry is the flat rectangular-grid Geometry every example
// in this module runs against: patches are unit squares laid out on
// integer row/col coordinates, no projection or curvature. Real GIS
// geometry (shapefiles, projections, raster alignment) is the external
// collaborator §6 leaves out of scope; this is enough to drive
// `within` queries and position literals over a plain grid.
type GridCellGeometry struct {
	Row, Col int
	CellSize float64
}

// NewGridCellGeometry builds the geometry for grid cell (row, col)
// with edges of length cellSize (in meters).
func NewGridCellGeometry(row, col int, cellSize float64) *GridCellGeometry {
	return &GridCellGeometry{Row: row, Col: col, CellSize: cellSize}
}

func (g *GridCellGeometry) Center() (x, y float64, z *float64) {
	return (float64(g.Col) + 0.5) * g.CellSize, (float64(g.Row) + 0.5) * g.CellSize, nil
}

func (g *GridCellGeometry) Within(other Geometry, distance float64) bool {
	ox, oy, _ := other.Center()
	x, y, _ := g.Center()
	dx, dy := x-ox, y-oy
	return math.Sqrt(dx*dx+dy*dy) <= distance
}

func (g *GridCellGeometry) Area() (float64, units.Units) {
	return g.CellSize * g.CellSize, units.New(map[string]int{"meters": 2}, nil)
}

func (g *GridCellGeometry) Length() (float64, units.Units) {
	return g.CellSize, units.Atom("meters")
}

// PointGeometry is a zero-extent position, the Geometry an `(x, y)`
// position literal resolves to: no row/col, just the raw coordinate pair a
// `create N of T at (x, y)` call places its new members at.
type PointGeometry struct {
	X, Y float64
}

// NewPointGeometry builds a point geometry at (x, y).
func NewPointGeometry(x, y float64) *PointGeometry {
	return &PointGeometry{X: x, Y: y}
}

func (g *PointGeometry) Center() (x, y float64, z *float64) { return g.X, g.Y, nil }

func (g *PointGeometry) Within(other Geometry, distance float64) bool {
	ox, oy, _ := other.Center()
	dx, dy := g.X-ox, g.Y-oy
	return math.Sqrt(dx*dx+dy*dy) <= distance
}

func (g *PointGeometry) Area() (float64, units.Units)   { return 0, units.EMPTY }
func (g *PointGeometry) Length() (float64, units.Units) { return 0, units.EMPTY }
