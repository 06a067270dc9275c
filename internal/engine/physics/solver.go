package physics

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/brickgrid/internal/engine/terrain"
	"github.com/Faultbox/brickgrid/internal/logger"
)

// Options are scene-wide solver switches.
type Options struct {
	// Dome marks the Dome of the Slate scenes, where water drowns into stars.
	Dome bool
	// Legacy selects first-game behaviour: escalators do not move bodies.
	Legacy bool
}

// Solver resolves bodies against one scene grid. It only reads the grid, so
// bodies may be processed in any order.
type Solver struct {
	Grid    *terrain.Grid
	Options Options
}

// NewSolver creates a solver for a scene grid.
func NewSolver(grid *terrain.Grid, opts Options) *Solver {
	return &Solver{Grid: grid, Options: opts}
}

// tick carries the intermediate values of one ProcessCollisions call, in
// grid-local units.
type tick struct {
	body     *Body
	pos      mgl32.Vec3
	basePos  mgl32.Vec3
	dt       float32
	touching bool
	ground   *terrain.Column

	groundHeight float32
	floorHeight  float32
}

// ProcessCollisions resolves one body for one tick of dt seconds and returns
// whether it touches the ground. The body's Position and State are updated.
func (s *Solver) ProcessCollisions(b *Body, dt float32) bool {
	t := &tick{
		body:         b,
		pos:          toLocal(b.Position),
		basePos:      toLocal(b.BasePosition),
		dt:           dt,
		groundHeight: NoGround,
	}

	st := &b.State
	st.IsDrowning = false
	st.IsDrowningStars = false
	st.IsDrowningLava = false
	st.FloorSound = -1
	st.FloorSound2 = -1
	st.IsUsingProtoOrJetpack = b.usingProtoOrJetpack()

	if b.Flags.CollisionFloor || b.Flags.CanFall {
		s.scanGround(t)
	}
	if t.ground != nil {
		s.applyGroundType(t)
	}
	s.hover(t)

	t.floorHeight = t.groundHeight
	if !t.touching && b.IsHero() {
		if h, ok := s.probeFloor(t); ok {
			t.floorHeight = h
		}
	}

	if b.Flags.CollisionBricks {
		s.resolvePenetration(t)
	} else {
		st.IsColliding = false
	}
	if !t.touching {
		st.IsDrowning = false
		st.IsDrowningStars = false
		st.IsDrowningLava = false
	}

	t.pos[1] = math32.Max(0, t.pos.Y())
	b.Position = t.pos.Mul(WorldSize)

	st.IsTouchingGround = t.touching
	st.DistFromGround = math32.Max(t.pos.Y()-t.groundHeight, 0) * WorldSize
	st.DistFromFloor = math32.Max(t.pos.Y()-t.floorHeight, 0) * WorldSize

	return t.touching
}

// scanGround walks the body's cell from the topmost column down and stops at
// the first column the body was above on the previous tick. That column is
// the ground candidate; the body stands on it when its surface is within
// landing reach.
func (s *Solver) scanGround(t *tick) {
	cell := s.Grid.CellAtPosition(t.pos)
	if cell == nil {
		if logger.Enabled("debug") {
			logger.Debug("body outside grid", zap.Int("actor", t.body.Index), zap.Any("position", t.body.Position))
		}
		return
	}

	hovering := t.body.State.IsUsingProtoOrJetpack
	cols := cell.Columns
	for i := len(cols) - 1; i >= 0; i-- {
		col := &cols[i]
		y := terrain.HeightAt(t.pos, *col)

		// The bottom column is reachable from any height.
		minY := math32.Inf(-1)
		if i > 0 {
			minY = col.Box.Min().Y()
		}

		lands := t.pos.Y() <= y+surfaceEpsilon && y-t.pos.Y() < LandingTolerance
		if t.basePos.Y() < minY && !(col.IsRamp() && lands) {
			continue
		}

		t.groundHeight = y
		if lands && !hovering {
			t.pos[1] = y
			t.touching = true
			t.ground = col
			t.body.State.FloorSound = col.Sound
			t.body.State.FloorSound2 = col.Sound2
		}
		return
	}
}

// applyGroundType runs the side effects of the column the body landed on.
func (s *Solver) applyGroundType(t *tick) {
	st := &t.body.State
	switch gt := t.ground.GroundType; {
	case gt.IsWater():
		if s.Options.Dome {
			st.IsDrowningStars = true
		} else {
			st.IsDrowning = true
		}
	case gt.IsLava():
		st.IsDrowningLava = true
	case gt == terrain.GroundCaveSpikes:
		if !st.IsJumping && !st.IsHit && t.body.Anim != AnimHit && t.body.OnHit != nil {
			t.body.OnHit(SpikeAttacker, SpikeDamage)
		}
	case gt.IsEscalator():
		if !s.Options.Legacy {
			t.pos = t.pos.Add(escalatorDrift(gt).Mul(EscalatorSpeed * t.dt))
		}
	}
}

// escalatorDrift returns the unit drift direction of an escalator.
func escalatorDrift(gt terrain.GroundType) mgl32.Vec3 {
	switch gt {
	case terrain.GroundEscalatorBottomRightTopLeft:
		return mgl32.Vec3{0, 0, -1}
	case terrain.GroundEscalatorTopLeftBottomRight:
		return mgl32.Vec3{0, 0, 1}
	case terrain.GroundEscalatorBottomLeftTopRight:
		return mgl32.Vec3{1, 0, 0}
	case terrain.GroundEscalatorTopRightBottomLeft:
		return mgl32.Vec3{-1, 0, 0}
	default:
		return mgl32.Vec3{}
	}
}

// hover moves jetpack and protopack bodies toward their hover height above
// the ground at a fixed rate, never past it.
func (s *Solver) hover(t *tick) {
	if !t.body.State.IsUsingProtoOrJetpack {
		return
	}
	offset, _ := t.body.Mode.HoverOffset()
	if t.groundHeight-t.pos.Y() >= offset {
		return
	}

	target := t.groundHeight + offset
	delta := HoverSpeed * t.dt
	if target <= t.pos.Y() {
		t.pos[1] = math32.Max(target, t.pos.Y()-delta)
	} else {
		t.pos[1] = math32.Min(target, t.pos.Y()+delta)
	}
}
