package instance

import (
	"fmt"

	"github.com/Carmen-Shannon/oxen-go/common"
	"github.com/Carmen-Shannon/oxen-go/engine/transform"
	"github.com/go-gl/mathgl/mgl32"
)

// Layout selects the per-instance record format. The CPU-side buffer and the program's
// per-instance vertex attributes must agree on it.
type Layout uint8

const (
	// LayoutModelMatrix writes one column-major 4x4 model matrix (16 floats) per instance.
	LayoutModelMatrix Layout = iota
	// LayoutPositionScale writes position (3 floats) followed by scale (3 floats) per instance.
	LayoutPositionScale
)

// Components returns the number of float32 values in one record.
func (l Layout) Components() int {
	switch l {
	case LayoutPositionScale:
		return 6
	default:
		return 16
	}
}

// Stride returns the byte size of one record.
func (l Layout) Stride() uint64 {
	return uint64(l.Components()) * 4
}

func (l Layout) String() string {
	switch l {
	case LayoutModelMatrix:
		return "model_matrix"
	case LayoutPositionScale:
		return "position_scale"
	default:
		return fmt.Sprintf("Layout(%d)", uint8(l))
	}
}

// Buffer is a tightly packed snapshot of the visible instances of one render object.
type Buffer struct {
	// Layout is the record format of Data.
	Layout Layout
	// Count is the number of records.
	Count int
	// Data holds Count records of Layout.Components() floats each.
	Data []float32
}

// Bytes returns a byte view of Data for GPU upload. The view aliases Data.
func (b Buffer) Bytes() []byte {
	return common.SliceToBytes(b.Data)
}

// Record returns the i-th record.
//
// Parameters:
//   - i: record index in [0, Count)
//
// Returns:
//   - []float32: a slice aliasing the record's floats
func (b Buffer) Record(i int) []float32 {
	n := b.Layout.Components()
	return b.Data[i*n : (i+1)*n]
}

// Build snapshots the handles into a new Buffer. See Builder.Build.
func Build(handles []*transform.Handle, layout Layout) Buffer {
	var b Builder
	return b.Build(handles, layout)
}

// Builder reuses its backing storage across frames. A Builder is not safe for concurrent use;
// keep one per render object.
type Builder struct {
	data []float32
}

// Build locks each handle in list order, skips it if invisible, and appends its record otherwise.
// Each lock is released before the next is taken. The returned Buffer aliases the builder's storage
// and is valid until the next call to Build.
//
// Parameters:
//   - handles: the instance list, in insertion order
//   - layout: the record format to produce
//
// Returns:
//   - Buffer: the visible instances in list order
func (b *Builder) Build(handles []*transform.Handle, layout Layout) Buffer {
	b.data = b.data[:0]
	count := 0
	for _, h := range handles {
		t := h.Snapshot()
		if !t.Visible {
			continue
		}
		b.data = appendRecord(b.data, t, layout)
		count++
	}
	return Buffer{
		Layout: layout,
		Count:  count,
		Data:   b.data,
	}
}

func appendRecord(dst []float32, t transform.Transform, layout Layout) []float32 {
	switch layout {
	case LayoutPositionScale:
		return append(dst,
			t.Position.X(), t.Position.Y(), t.Position.Z(),
			t.Scale.X(), t.Scale.Y(), t.Scale.Z(),
		)
	default:
		m := t.ModelMatrix()
		return append(dst, m[:]...)
	}
}

// ModelMatrix returns record i of a LayoutModelMatrix buffer as a matrix.
func (b Buffer) ModelMatrix(i int) mgl32.Mat4 {
	var m mgl32.Mat4
	copy(m[:], b.Record(i))
	return m
}
