// Package formats provides parsers for isometric scene file formats.
package formats

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// Grid format errors.
var (
	ErrTruncatedGridData  = errors.New("truncated grid data")
	ErrUnsupportedRunType = errors.New("unsupported column run type")
)

// Grid layout constants.
const (
	GridSize       = 64
	GridCellCount  = GridSize * GridSize
	GridHeaderSize = 34
	GridTableEnd   = GridHeaderSize + GridCellCount*2
)

// RunType is the 2-bit type of a stacked column run.
type RunType uint8

// Run types.
const (
	RunEmpty  RunType = 0 // Empty slots
	RunSlots  RunType = 1 // One block reference per slot
	RunShared RunType = 2 // One block reference shared by every slot
	RunLegacy RunType = 3 // Not supported
)

// String returns a human-readable run type name.
func (t RunType) String() string {
	switch t {
	case RunEmpty:
		return "Empty"
	case RunSlots:
		return "Slots"
	case RunShared:
		return "Shared"
	case RunLegacy:
		return "Legacy"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// DecodeError reports a run the decoder cannot handle.
type DecodeError struct {
	Cell int
	Run  int
	Type RunType
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%v: cell %d run %d type %s", ErrUnsupportedRunType, e.Cell, e.Run, e.Type)
}

// Unwrap allows errors.Is(err, ErrUnsupportedRunType).
func (e *DecodeError) Unwrap() error {
	return ErrUnsupportedRunType
}

// BlockRef references a block inside a layout library.
// Layout is -1 for an empty slot.
type BlockRef struct {
	Layout int
	Block  int
}

// Empty reports whether the reference points at nothing.
func (b BlockRef) Empty() bool {
	return b.Layout < 0
}

// NoBlock is the reference stored for empty slots.
var NoBlock = BlockRef{Layout: -1}

// GridCell holds the raw slots of one cell, bottom to top.
type GridCell struct {
	Slots []BlockRef

	// Truncated is set when the cell offset or its run data ran past the buffer.
	Truncated bool
}

// Grid represents a parsed brick grid file.
type Grid struct {
	Library uint8
	Cells   [GridCellCount]GridCell
}

// CellIndex returns the index of cell (x, z) in Cells.
func CellIndex(x, z int) int {
	return x*GridSize + z
}

// GetCell returns the cell at the given coordinates.
// Returns nil if coordinates are out of bounds.
func (g *Grid) GetCell(x, z int) *GridCell {
	if x < 0 || z < 0 || x >= GridSize || z >= GridSize {
		return nil
	}
	return &g.Cells[CellIndex(x, z)]
}

// ParseGrid parses a brick grid from raw bytes.
func ParseGrid(data []byte) (*Grid, error) {
	if len(data) < GridTableEnd {
		return nil, fmt.Errorf("%w: %d bytes, need %d for the offset table", ErrTruncatedGridData, len(data), GridTableEnd)
	}

	grid := &Grid{Library: data[0]}

	for i := 0; i < GridCellCount; i++ {
		offset := int(binary.LittleEndian.Uint16(data[GridHeaderSize+i*2:])) + GridHeaderSize
		cell, err := parseGridCell(data, offset, i)
		if err != nil {
			return nil, err
		}
		grid.Cells[i] = cell
	}

	return grid, nil
}

// parseGridCell reads the runs at offset. Running out of data is not an
// error: the cell is returned empty and flagged.
func parseGridCell(data []byte, offset, index int) (GridCell, error) {
	r := cellReader{data: data, pos: offset}

	runs, ok := r.byte()
	if !ok {
		return GridCell{Truncated: true}, nil
	}

	var slots []BlockRef
	for run := 0; run < int(runs); run++ {
		flags, ok := r.byte()
		if !ok {
			return GridCell{Truncated: true}, nil
		}
		typ := RunType(flags >> 6)
		height := int(flags&0x3f) + 1

		switch typ {
		case RunEmpty:
			for j := 0; j < height; j++ {
				slots = append(slots, NoBlock)
			}
		case RunSlots:
			for j := 0; j < height; j++ {
				ref, ok := r.blockRef()
				if !ok {
					return GridCell{Truncated: true}, nil
				}
				slots = append(slots, ref)
			}
		case RunShared:
			ref, ok := r.blockRef()
			if !ok {
				return GridCell{Truncated: true}, nil
			}
			for j := 0; j < height; j++ {
				slots = append(slots, ref)
			}
		default:
			return GridCell{}, &DecodeError{Cell: index, Run: run, Type: typ}
		}
	}

	return GridCell{Slots: slots}, nil
}

type cellReader struct {
	data []byte
	pos  int
}

func (r *cellReader) byte() (byte, bool) {
	if r.pos < 0 || r.pos >= len(r.data) {
		return 0, false
	}
	b := r.data[r.pos]
	r.pos++
	return b, true
}

// blockRef reads a (layout+1, block) pair.
func (r *cellReader) blockRef() (BlockRef, bool) {
	if r.pos+2 > len(r.data) {
		return BlockRef{}, false
	}
	ref := BlockRef{
		Layout: int(r.data[r.pos]) - 1,
		Block:  int(r.data[r.pos+1]),
	}
	r.pos += 2
	if ref.Layout < 0 {
		return NoBlock, true
	}
	return ref, true
}

// ParseGridFile parses a grid file from disk.
func ParseGridFile(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading grid file: %w", err)
	}
	return ParseGrid(data)
}

// SlotCount returns the total number of slots across all cells.
func (g *Grid) SlotCount() int {
	n := 0
	for i := range g.Cells {
		n += len(g.Cells[i].Slots)
	}
	return n
}

// TruncatedCells returns how many cells were recovered as empty.
func (g *Grid) TruncatedCells() int {
	n := 0
	for i := range g.Cells {
		if g.Cells[i].Truncated {
			n++
		}
	}
	return n
}
