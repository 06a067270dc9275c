package terrain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethaniccc/float32-cube/cube"
	"go.uber.org/zap"

	"github.com/Faultbox/brickgrid/internal/logger"
	"github.com/Faultbox/brickgrid/pkg/formats"
)

// Overrides maps "z,y,x" slot keys to replacement blocks, where z is the
// cell's position within its table row and x the row itself: the editor's
// order. A replacement with Layout -1 removes the slot.
type Overrides map[string]BlockRef

// OverrideKey returns the Overrides key of slot y in cell (x, z).
func OverrideKey(x, y, z int) string {
	return fmt.Sprintf("%d,%d,%d", z, y, x)
}

// ParseOverrideKey splits a "z,y,x" key into cell and slot coordinates.
func ParseOverrideKey(key string) (x, y, z int, ok bool) {
	parts := strings.Split(key, ",")
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	var vals [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return 0, 0, 0, false
		}
		vals[i] = v
	}
	return vals[2], vals[1], vals[0], true
}

// Decode parses a grid buffer and builds its columns against resolver.
// overrides may be nil.
func Decode(data []byte, resolver LayoutResolver, overrides Overrides) (*Grid, error) {
	raw, err := formats.ParseGrid(data)
	if err != nil {
		return nil, fmt.Errorf("decoding grid: %w", err)
	}
	return FromFormat(raw, resolver, overrides), nil
}

// FromFormat builds a Grid from an already parsed grid file.
func FromFormat(raw *formats.Grid, resolver LayoutResolver, overrides Overrides) *Grid {
	g := &Grid{
		Library:  int(raw.Library),
		resolver: resolver,
	}

	columns := 0
	for x := 0; x < GridSize; x++ {
		for z := 0; z < GridSize; z++ {
			src := raw.GetCell(x, z)
			cell := &g.cells[formats.CellIndex(x, z)]
			cell.X = x
			cell.Z = z
			cell.Blocks = append([]BlockRef(nil), src.Slots...)
			if len(overrides) > 0 {
				for y := range cell.Blocks {
					if ref, ok := overrides[OverrideKey(x, y, z)]; ok {
						cell.Blocks[y] = normalizeRef(ref)
					}
				}
			}
			cell.Columns = buildColumns(x, z, cell.Blocks, resolver)
			columns += len(cell.Columns)
		}
	}

	logger.Debug("grid decoded",
		zap.Int("library", g.Library),
		zap.Int("columns", columns),
		zap.Int("truncatedCells", raw.TruncatedCells()),
		zap.Int("overrides", len(overrides)),
	)

	return g
}

// Patch applies editor overrides to the decoded grid and rebuilds the
// columns of every touched cell. Keys that are malformed or address a slot
// outside the cell's data are skipped. Returns the number of slots changed.
func (g *Grid) Patch(overrides Overrides) int {
	dirty := make(map[int]struct{})
	changed := 0

	for key, ref := range overrides {
		x, y, z, ok := ParseOverrideKey(key)
		if !ok {
			logger.Debug("skipping malformed override key", zap.String("key", key))
			continue
		}
		cell := g.CellAt(x, z)
		if cell == nil || y < 0 || y >= len(cell.Blocks) {
			continue
		}
		ref = normalizeRef(ref)
		if cell.Blocks[y] == ref {
			continue
		}
		cell.Blocks[y] = ref
		dirty[formats.CellIndex(x, z)] = struct{}{}
		changed++
	}

	for idx := range dirty {
		cell := &g.cells[idx]
		cell.Columns = buildColumns(cell.X, cell.Z, cell.Blocks, g.resolver)
	}

	if changed > 0 {
		logger.Debug("grid patched", zap.Int("slots", changed), zap.Int("cells", len(dirty)))
	}
	return changed
}

func normalizeRef(ref BlockRef) BlockRef {
	if ref.Empty() {
		return NoBlock
	}
	return ref
}

// resolve looks up the block behind ref. Unknown layouts and block indices
// resolve to nothing.
func resolve(resolver LayoutResolver, ref BlockRef) (BlockInfo, bool) {
	if ref.Empty() || resolver == nil {
		return BlockInfo{}, false
	}
	layout, ok := resolver.Layout(ref.Layout)
	if !ok {
		return BlockInfo{}, false
	}
	return layout.Block(ref.Block)
}

// buildColumns merges contiguous resolved slots of the same layout into
// columns. Each column takes its properties from its lowest slot.
func buildColumns(x, z int, blocks []BlockRef, resolver LayoutResolver) []Column {
	var columns []Column

	open := false
	start, layout := 0, -1
	var base BlockInfo

	for y, ref := range blocks {
		info, ok := resolve(resolver, ref)
		if ok && open && ref.Layout == layout {
			continue
		}
		if open {
			columns = append(columns, newColumn(x, z, start, y, layout, base))
			open = false
		}
		if ok {
			open = true
			start, layout, base = y, ref.Layout, info
		}
	}
	if open {
		columns = append(columns, newColumn(x, z, start, len(blocks), layout, base))
	}

	return columns
}

func newColumn(x, z, bottom, top, layout int, info BlockInfo) Column {
	corner := CellMin(x, z)
	return Column{
		Shape:      info.Shape,
		GroundType: info.GroundType,
		Sound:      info.Sound,
		Sound2:     info.Sound2,
		Layout:     layout,
		Box: cube.Box(
			corner.X(), float32(bottom)*SlotHeight, corner.Z(),
			corner.X()+CellSize, float32(top)*SlotHeight, corner.Z()+CellSize,
		),
	}
}
