package physics

import (
	"github.com/chewxy/math32"
	"github.com/ethaniccc/float32-cube/cube"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/brickgrid/internal/engine/terrain"
)

// resolvePenetration pushes the body out of the solid columns of the 3x3
// cells around it. Ramps count up to their solid part, one slot below the
// top. Cells outside the grid are infinite walls and take the body off the
// ground. Each push moves the box before the next test, so the
// visiting order (x rows, then z, ascending) matters.
func (s *Solver) resolvePenetration(t *tick) {
	box := t.body.localBox().Translate(t.pos.Add(mgl32.Vec3{0, BoxLift, 0}))
	cx, cz := terrain.CellCoords(t.pos)

	colliding := false
	for ox := -1; ox <= 1; ox++ {
		for oz := -1; oz <= 1; oz++ {
			x, z := cx+ox, cz+oz
			cell := s.Grid.CellAt(x, z)
			if cell == nil {
				var pushed bool
				box, pushed = pushOut(t, box, wallBox(x, z))
				colliding = colliding || pushed
				t.touching = false
				continue
			}
			for _, col := range cell.Columns {
				var pushed bool
				box, pushed = pushOut(t, box, col.SolidBox())
				colliding = colliding || pushed
			}
		}
	}
	t.body.State.IsColliding = colliding
}

// wallBox is the solid stand-in for a cell outside the grid.
func wallBox(x, z int) cube.BBox {
	corner := terrain.CellMin(x, z)
	return cube.Box(
		corner.X(), math32.Inf(-1), corner.Z(),
		corner.X()+terrain.CellSize, math32.Inf(1), corner.Z()+terrain.CellSize,
	)
}

// pushOut moves box and the body out of solid along the horizontal axis with
// the smaller overlap, away from solid's center.
func pushOut(t *tick, box, solid cube.BBox) (cube.BBox, bool) {
	if !box.IntersectsWith(solid) {
		return box, false
	}

	bMin, bMax := box.Min(), box.Max()
	sMin, sMax := solid.Min(), solid.Max()
	overlapX := math32.Min(bMax.X(), sMax.X()) - math32.Max(bMin.X(), sMin.X())
	overlapZ := math32.Min(bMax.Z(), sMax.Z()) - math32.Max(bMin.Z(), sMin.Z())

	var delta mgl32.Vec3
	if overlapX < overlapZ {
		delta[0] = overlapX * direction(bMin.X()+bMax.X(), sMin.X()+sMax.X())
	} else {
		delta[2] = overlapZ * direction(bMin.Z()+bMax.Z(), sMin.Z()+sMax.Z())
	}

	t.pos = t.pos.Add(delta)
	return box.Translate(delta), true
}

// direction is the sign of a-b, positive when the centers coincide.
func direction(a, b float32) float32 {
	if a < b {
		return -1
	}
	return 1
}
