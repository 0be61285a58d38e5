package lattice

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"rubble/internal/material"
)

var (
	// ErrSizeMismatch is returned when level data declares a different grid
	// than the lattice it is loaded into.
	ErrSizeMismatch = errors.New("level size mismatch")
	// ErrMalformed is returned for truncated or corrupt level data.
	ErrMalformed = errors.New("malformed level data")
)

var levelMagic = [4]byte{'R', 'B', 'L', 'V'}

const levelVersion = 1

// Header is the fixed preamble of the flat level format.
type Header struct {
	ColumnsX   int
	ColumnsZ   int
	ColumnSize int
	Height     int
}

type wireHeader struct {
	Magic      [4]byte
	Version    uint16
	ColumnsX   uint32
	ColumnsZ   uint32
	ColumnSize uint32
	Height     uint32
}

// Header describes the lattice's grid in level-format terms.
func (l *Lattice) Header() Header {
	return Header{ColumnsX: l.cfg.ColumnsX, ColumnsZ: l.cfg.ColumnsZ, ColumnSize: l.cfg.ColumnSize, Height: l.dims.Y}
}

// Encode writes the lattice as a flat node array: the header, then for each
// node in flattened order its iso, contribution count and contributions.
// Liquid is not persisted.
func (l *Lattice) Encode(w io.Writer) error {
	bw := bufio.NewWriter(w)
	h := l.Header()
	wh := wireHeader{
		Magic:      levelMagic,
		Version:    levelVersion,
		ColumnsX:   uint32(h.ColumnsX),
		ColumnsZ:   uint32(h.ColumnsZ),
		ColumnSize: uint32(h.ColumnSize),
		Height:     uint32(h.Height),
	}
	if err := binary.Write(bw, binary.LittleEndian, wh); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	var buf [6]byte
	for i := range l.cells {
		c := &l.cells[i]
		binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(c.iso))
		buf[4] = c.n
		if _, err := bw.Write(buf[:5]); err != nil {
			return fmt.Errorf("write node %d: %w", i, err)
		}
		for k := 0; k < int(c.n); k++ {
			binary.LittleEndian.PutUint16(buf[:2], uint16(c.mats[k].Material))
			binary.LittleEndian.PutUint32(buf[2:6], math.Float32bits(c.mats[k].Weight))
			if _, err := bw.Write(buf[:6]); err != nil {
				return fmt.Errorf("write node %d: %w", i, err)
			}
		}
	}
	return bw.Flush()
}

// ReadHeader parses and validates the level preamble.
func ReadHeader(r io.Reader) (Header, error) {
	var wh wireHeader
	if err := binary.Read(r, binary.LittleEndian, &wh); err != nil {
		return Header{}, fmt.Errorf("%w: header: %v", ErrMalformed, err)
	}
	if wh.Magic != levelMagic {
		return Header{}, fmt.Errorf("%w: bad magic %q", ErrMalformed, wh.Magic[:])
	}
	if wh.Version != levelVersion {
		return Header{}, fmt.Errorf("%w: unsupported version %d", ErrMalformed, wh.Version)
	}
	h := Header{ColumnsX: int(wh.ColumnsX), ColumnsZ: int(wh.ColumnsZ), ColumnSize: int(wh.ColumnSize), Height: int(wh.Height)}
	if h.ColumnsX <= 0 || h.ColumnsZ <= 0 || h.ColumnSize <= 0 || h.Height <= 0 {
		return Header{}, fmt.Errorf("%w: degenerate grid %+v", ErrMalformed, h)
	}
	const axisLimit, limit = 1 << 12, 1 << 26
	if h.ColumnsX > axisLimit || h.ColumnsZ > axisLimit || h.ColumnSize > axisLimit || h.Height > axisLimit {
		return Header{}, fmt.Errorf("%w: grid %+v too large", ErrMalformed, h)
	}
	if (h.ColumnsX*h.ColumnSize+1)*(h.ColumnsZ*h.ColumnSize+1)*h.Height > limit {
		return Header{}, fmt.Errorf("%w: grid %+v too large", ErrMalformed, h)
	}
	return h, nil
}

// Decode allocates a lattice at the size declared by the level data and
// fills it. Spacing, cutoff and logger come from cfg.
func Decode(r io.Reader, cfg Config) (*Lattice, error) {
	br := bufio.NewReader(r)
	h, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}
	cfg.ColumnsX, cfg.ColumnsZ, cfg.ColumnSize, cfg.Height = h.ColumnsX, h.ColumnsZ, h.ColumnSize, h.Height
	l := New(cfg)
	cells, err := readCells(br, len(l.cells))
	if err != nil {
		return nil, err
	}
	l.commit(cells)
	return l, nil
}

// Load replaces the lattice contents with level data of the same size. On
// any error the lattice is left untouched.
func (l *Lattice) Load(r io.Reader) error {
	br := bufio.NewReader(r)
	h, err := ReadHeader(br)
	if err != nil {
		return err
	}
	if h != l.Header() {
		return fmt.Errorf("%w: level %+v, lattice %+v", ErrSizeMismatch, h, l.Header())
	}
	cells, err := readCells(br, len(l.cells))
	if err != nil {
		return err
	}
	l.commit(cells)
	return nil
}

func (l *Lattice) commit(cells []cell) {
	l.Clear()
	copy(l.cells, cells)
	for i := range l.cells {
		if l.cells[i].iso > 0 || l.cells[i].n > 0 {
			l.markChanged(i)
		}
	}
}

func readCells(r io.Reader, n int) ([]cell, error) {
	cells := make([]cell, n)
	var buf [6]byte
	for i := range cells {
		if _, err := io.ReadFull(r, buf[:5]); err != nil {
			return nil, fmt.Errorf("%w: node %d: %v", ErrMalformed, i, err)
		}
		iso := math.Float32frombits(binary.LittleEndian.Uint32(buf[:4]))
		count := buf[4]
		if !finite(iso) || iso < 0 || iso > 1 {
			return nil, fmt.Errorf("%w: node %d iso %v", ErrMalformed, i, iso)
		}
		if int(count) > MaxContributions {
			return nil, fmt.Errorf("%w: node %d has %d contributions", ErrMalformed, i, count)
		}
		c := &cells[i]
		c.iso = iso
		for k := 0; k < int(count); k++ {
			if _, err := io.ReadFull(r, buf[:6]); err != nil {
				return nil, fmt.Errorf("%w: node %d: %v", ErrMalformed, i, err)
			}
			mat := material.ID(binary.LittleEndian.Uint16(buf[:2]))
			w := math.Float32frombits(binary.LittleEndian.Uint32(buf[2:6]))
			if mat == material.None || !finite(w) || w <= 0 || w > 1 {
				return nil, fmt.Errorf("%w: node %d contribution %d", ErrMalformed, i, k)
			}
			c.mats[c.n] = Contribution{Material: mat, Weight: w}
			c.n++
		}
		if c.iso == 0 && c.n > 0 {
			return nil, fmt.Errorf("%w: node %d has materials without terrain", ErrMalformed, i)
		}
	}
	return cells, nil
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
