package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// GridRun describes one stacked run when writing a grid.
// Refs holds one entry per slot for RunSlots and a single entry for RunShared.
type GridRun struct {
	Type   RunType
	Height int
	Refs   []BlockRef
}

// GridWriter builds grid buffers in the format read by ParseGrid.
// Cells without runs are written as a zero run count.
type GridWriter struct {
	Library uint8
	cells   [GridCellCount][]GridRun
}

// NewGridWriter creates a writer for the given library selector.
func NewGridWriter(library uint8) *GridWriter {
	return &GridWriter{Library: library}
}

// SetCell replaces the runs of cell (x, z).
func (w *GridWriter) SetCell(x, z int, runs ...GridRun) {
	w.cells[CellIndex(x, z)] = runs
}

// Bytes encodes the grid.
func (w *GridWriter) Bytes() ([]byte, error) {
	var body bytes.Buffer
	offsets := make([]uint16, GridCellCount)

	// Shared empty cell at the start of the body.
	body.WriteByte(0)
	emptyOffset := uint16(GridTableEnd - GridHeaderSize)

	for i, runs := range w.cells {
		if len(runs) == 0 {
			offsets[i] = emptyOffset
			continue
		}
		rel := GridTableEnd - GridHeaderSize + body.Len()
		if rel > 0xffff {
			return nil, fmt.Errorf("cell %d: offset %d overflows the offset table", i, rel)
		}
		offsets[i] = uint16(rel)
		if err := writeRuns(&body, runs); err != nil {
			return nil, fmt.Errorf("cell %d: %w", i, err)
		}
	}

	out := new(bytes.Buffer)
	header := make([]byte, GridHeaderSize)
	header[0] = w.Library
	out.Write(header)
	binary.Write(out, binary.LittleEndian, offsets)
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

func writeRuns(buf *bytes.Buffer, runs []GridRun) error {
	if len(runs) > 0xff {
		return fmt.Errorf("%d runs exceed the run count byte", len(runs))
	}
	buf.WriteByte(byte(len(runs)))
	for _, run := range runs {
		if run.Height < 1 || run.Height > 64 {
			return fmt.Errorf("run height %d out of range", run.Height)
		}
		buf.WriteByte(byte(run.Type)<<6 | byte(run.Height-1))
		switch run.Type {
		case RunSlots:
			if len(run.Refs) != run.Height {
				return fmt.Errorf("slots run needs %d refs, got %d", run.Height, len(run.Refs))
			}
			for _, ref := range run.Refs {
				writeRef(buf, ref)
			}
		case RunShared:
			if len(run.Refs) != 1 {
				return fmt.Errorf("shared run needs 1 ref, got %d", len(run.Refs))
			}
			writeRef(buf, run.Refs[0])
		}
	}
	return nil
}

func writeRef(buf *bytes.Buffer, ref BlockRef) {
	if ref.Empty() {
		buf.WriteByte(0)
		buf.WriteByte(0)
		return
	}
	buf.WriteByte(byte(ref.Layout + 1))
	buf.WriteByte(byte(ref.Block))
}
