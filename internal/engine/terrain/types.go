// Package terrain provides the brick-grid column index and height queries for isometric scenes.
package terrain

import (
	"fmt"

	"github.com/ethaniccc/float32-cube/cube"

	"github.com/Faultbox/brickgrid/pkg/formats"
)

// Grid dimensions in grid-local units. A cell is 1/32 wide on x and z and a
// slot is 1/64 tall.
const (
	GridSize     = formats.GridSize
	CellsPerUnit = 32
	CellSize     = float32(1.0 / CellsPerUnit)
	SlotHeight   = float32(1.0 / 64.0)
)

// Shape determines how height varies across a column's footprint.
type Shape uint8

// Shape codes as stored in layout libraries. Ramp names give the axis and
// sign of the library orientation; see HeightAt for the height law.
const (
	ShapeNone     Shape = 0
	ShapeFlat     Shape = 1
	ShapeRampZPos Shape = 2
	ShapeRampXPos Shape = 3
	ShapeRampZNeg Shape = 4
	ShapeRampXNeg Shape = 5
)

// IsRamp reports whether the shape is one of the four ramp orientations.
func (s Shape) IsRamp() bool {
	return s >= ShapeRampZPos && s <= ShapeRampXNeg
}

// String returns a human-readable shape name.
func (s Shape) String() string {
	switch s {
	case ShapeNone:
		return "None"
	case ShapeFlat:
		return "Flat"
	case ShapeRampZPos:
		return "Ramp+Z"
	case ShapeRampXPos:
		return "Ramp+X"
	case ShapeRampZNeg:
		return "Ramp-Z"
	case ShapeRampXNeg:
		return "Ramp-X"
	default:
		return fmt.Sprintf("Unknown(%d)", s)
	}
}

// GroundType is the terrain behaviour attached to a column.
type GroundType int8

// Ground types in library order.
const (
	GroundNone GroundType = iota - 1
	GroundNormalFloor
	GroundWater
	GroundUnused
	GroundEscalatorBottomRightTopLeft
	GroundEscalatorTopLeftBottomRight
	GroundEscalatorBottomLeftTopRight
	GroundEscalatorTopRightBottomLeft
	GroundDomeOfTheSlateFloor
	GroundCaveSpikes
	GroundLava
	GroundNormalFloor2
	GroundGas
	GroundUnused2
	GroundLava2
	GroundGas2
	GroundWater2
)

var groundTypeNames = [...]string{
	"NormalFloor",
	"Water",
	"Unused",
	"EscalatorBottomRightTopLeft",
	"EscalatorTopLeftBottomRight",
	"EscalatorBottomLeftTopRight",
	"EscalatorTopRightBottomLeft",
	"DomeOfTheSlateFloor",
	"CaveSpikes",
	"Lava",
	"NormalFloor2",
	"Gas",
	"Unused2",
	"Lava2",
	"Gas2",
	"Water2",
}

// String returns a human-readable ground type name.
func (g GroundType) String() string {
	if g == GroundNone {
		return "None"
	}
	if g < 0 || int(g) >= len(groundTypeNames) {
		return fmt.Sprintf("Unknown(%d)", g)
	}
	return groundTypeNames[g]
}

// IsWater returns true for both water variants.
func (g GroundType) IsWater() bool {
	return g == GroundWater || g == GroundWater2
}

// IsLava returns true for both lava variants.
func (g GroundType) IsLava() bool {
	return g == GroundLava || g == GroundLava2
}

// IsEscalator returns true for the four escalator orientations.
func (g GroundType) IsEscalator() bool {
	return g >= GroundEscalatorBottomRightTopLeft && g <= GroundEscalatorTopRightBottomLeft
}

// BlockRef references a block in the grid's layout library.
type BlockRef = formats.BlockRef

// NoBlock marks an empty slot.
var NoBlock = formats.NoBlock

// BlockInfo is the collision data of one library block.
type BlockInfo struct {
	Shape      Shape
	GroundType GroundType
	Sound      int
	Sound2     int
}

// Layout is a group of blocks addressed by a BlockRef.Block index.
type Layout struct {
	Blocks []BlockInfo
}

// Block returns the block at index, or false when out of range.
func (l *Layout) Block(index int) (BlockInfo, bool) {
	if l == nil || index < 0 || index >= len(l.Blocks) {
		return BlockInfo{}, false
	}
	return l.Blocks[index], true
}

// LayoutResolver looks up layouts of the library a grid was built against.
type LayoutResolver interface {
	Layout(index int) (*Layout, bool)
}

// Column is a vertically contiguous span of same-layout bricks within a cell.
type Column struct {
	Shape      Shape
	GroundType GroundType
	Sound      int
	Sound2     int
	Layout     int
	Box        cube.BBox
}

// IsRamp reports whether the column top is sloped.
func (c Column) IsRamp() bool {
	return c.Shape.IsRamp()
}

// SolidBox returns the part of the column that is solid everywhere in its
// footprint. Ramps are solid up to their low edge.
func (c Column) SolidBox() cube.BBox {
	if !c.IsRamp() {
		return c.Box
	}
	lo, hi := c.Box.Min(), c.Box.Max()
	return cube.Box(lo.X(), lo.Y(), lo.Z(), hi.X(), hi.Y()-SlotHeight, hi.Z())
}

// Cell is one (x, z) position of the grid.
type Cell struct {
	X, Z    int
	Columns []Column // Bottom to top
	Blocks  []BlockRef
}

// Grid is a decoded brick grid.
type Grid struct {
	Library int

	resolver LayoutResolver
	cells    [GridSize * GridSize]Cell
}

// Library is an in-memory LayoutResolver keyed by layout index.
type Library map[int]*Layout

// Layout implements LayoutResolver.
func (l Library) Layout(index int) (*Layout, bool) {
	layout, ok := l[index]
	return layout, ok && layout != nil
}
