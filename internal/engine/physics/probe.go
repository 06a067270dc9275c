package physics

import (
	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/brickgrid/internal/engine/terrain"
)

// FloorHeight finds the floor below a grid-local position by descending in
// ProbeStep increments. At each step it checks the surfaces of the position's
// cell, then whether box (relative to pos) hits a column in the surrounding
// cells. It returns NoGround when nothing is found above ProbeFloor.
func FloorHeight(grid *terrain.Grid, box cube.BBox, pos mgl32.Vec3) float32 {
	cx, cz := terrain.CellCoords(pos)
	cell := grid.CellAt(cx, cz)

	p := pos
	for i := 0; i < maxProbeSteps && p.Y() > ProbeFloor; i++ {
		if cell != nil {
			if y, ok := surfaceBelow(cell, p); ok {
				return y
			}
		}

		probe := box.Translate(p.Add(mgl32.Vec3{0, BoxLift, 0}))
		for ox := -1; ox <= 1; ox++ {
			for oz := -1; oz <= 1; oz++ {
				for _, col := range grid.ColumnsAt(cx+ox, cz+oz) {
					solid := col.SolidBox()
					if probe.IntersectsWith(solid) {
						return solid.Max().Y()
					}
				}
			}
		}

		p[1] -= ProbeStep
	}
	return NoGround
}

// surfaceBelow returns the topmost surface of cell just above p, within
// landing reach.
func surfaceBelow(cell *terrain.Cell, p mgl32.Vec3) (float32, bool) {
	for i := len(cell.Columns) - 1; i >= 0; i-- {
		col := cell.Columns[i]
		minY := math32.Inf(-1)
		if i > 0 {
			minY = col.Box.Min().Y()
		}
		y := terrain.HeightAt(p, col)
		if p.Y() >= minY && p.Y() < y && y-p.Y() < LandingTolerance {
			return y, true
		}
	}
	return 0, false
}

// footprint returns the four bottom corners of an absolute box.
func footprint(box cube.BBox) [4]mgl32.Vec3 {
	lo, hi := box.Min(), box.Max()
	return [4]mgl32.Vec3{
		{lo.X(), lo.Y(), lo.Z()},
		{hi.X(), lo.Y(), lo.Z()},
		{lo.X(), lo.Y(), hi.Z()},
		{hi.X(), lo.Y(), hi.Z()},
	}
}

// probeFloor samples FloorHeight under each footprint corner of the body and
// returns the lowest positive result.
func (s *Solver) probeFloor(t *tick) (float32, bool) {
	local := t.body.localBox()
	abs := local.Translate(t.pos)

	found := false
	var lowest float32
	for _, corner := range footprint(abs) {
		// Keep the probe box on the body while the corner descends.
		h := FloorHeight(s.Grid, local.Translate(t.pos.Sub(corner)), corner)
		if h <= 0 {
			continue
		}
		if !found || h < lowest {
			lowest, found = h, true
		}
	}
	return lowest, found
}
