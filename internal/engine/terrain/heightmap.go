package terrain

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/brickgrid/pkg/formats"
)

// CellAt returns the cell at the given coordinates.
// Returns nil if coordinates are out of bounds.
func (g *Grid) CellAt(x, z int) *Cell {
	if g == nil || x < 0 || z < 0 || x >= GridSize || z >= GridSize {
		return nil
	}
	return &g.cells[formats.CellIndex(x, z)]
}

// CellCoords converts a grid-local position to cell coordinates.
// Table rows run against the world x axis: row x covers
// [(64-x)/32, (65-x)/32), so the world cell at x in [0, 1/32) lies outside
// the grid. The result may lie outside the grid.
func CellCoords(pos mgl32.Vec3) (x, z int) {
	return GridSize - int(math32.Floor(pos.X()*CellsPerUnit)), int(math32.Floor(pos.Z() * CellsPerUnit))
}

// CellMin returns the grid-local corner of cell (x, z) with the smallest
// x and z, at height 0.
func CellMin(x, z int) mgl32.Vec3 {
	return mgl32.Vec3{float32(GridSize-x) * CellSize, 0, float32(z) * CellSize}
}

// CellAtPosition returns the cell containing a grid-local position.
func (g *Grid) CellAtPosition(pos mgl32.Vec3) *Cell {
	x, z := CellCoords(pos)
	return g.CellAt(x, z)
}

// ColumnsAt returns the columns of cell (x, z), bottom to top.
// Iterate from the end for top-to-bottom order.
func (g *Grid) ColumnsAt(x, z int) []Column {
	cell := g.CellAt(x, z)
	if cell == nil {
		return nil
	}
	return cell.Columns
}

// BlocksAt returns the raw per-slot block references of cell (x, z).
func (g *Grid) BlocksAt(x, z int) []BlockRef {
	cell := g.CellAt(x, z)
	if cell == nil {
		return nil
	}
	return cell.Blocks
}

// HeightAt returns the surface height of column at a grid-local position.
// Ramps drop exactly one slot across one cell along their driving axis.
func HeightAt(pos mgl32.Vec3, column Column) float32 {
	top := column.Box.Max().Y()
	switch column.Shape {
	case ShapeRampZPos:
		return top - (1-fraction(pos.Z()))*SlotHeight
	case ShapeRampXPos:
		return top - fraction(pos.X())*SlotHeight
	case ShapeRampZNeg:
		return top - (1-fraction(pos.X()))*SlotHeight
	case ShapeRampXNeg:
		return top - fraction(pos.Z())*SlotHeight
	default:
		return top
	}
}

// fraction returns the position inside a cell along one axis, in [0, 1).
func fraction(v float32) float32 {
	f := v * CellsPerUnit
	return f - math32.Floor(f)
}

// Stats summarizes the decoded grid.
type Stats struct {
	Cells       int // Cells with at least one column
	Columns     int
	Slots       int
	Ramps       int
	GroundTypes map[GroundType]int
	MaxHeight   float32
}

// Stats counts columns, slots and ground types across the grid.
func (g *Grid) Stats() Stats {
	s := Stats{GroundTypes: make(map[GroundType]int)}
	for i := range g.cells {
		cell := &g.cells[i]
		s.Slots += len(cell.Blocks)
		if len(cell.Columns) == 0 {
			continue
		}
		s.Cells++
		for _, col := range cell.Columns {
			s.Columns++
			if col.IsRamp() {
				s.Ramps++
			}
			s.GroundTypes[col.GroundType]++
			if top := col.Box.Max().Y(); top > s.MaxHeight {
				s.MaxHeight = top
			}
		}
	}
	return s
}
