package common

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSliceToBytes(t *testing.T) {
	assert.Nil(t, SliceToBytes([]float32{}))

	b := SliceToBytes([]float32{1, 2, 3})
	require.Len(t, b, 12)
}

func TestStructToBytes(t *testing.T) {
	m := mgl32.Ident4()
	assert.Len(t, StructToBytes(&m), 64)
}

func TestDepthZeroToOne(t *testing.T) {
	tests := []struct {
		name  string
		in    mgl32.Vec4
		wantZ float32
	}{
		{name: "near plane", in: mgl32.Vec4{0, 0, -1, 1}, wantZ: 0},
		{name: "far plane", in: mgl32.Vec4{0, 0, 1, 1}, wantZ: 1},
		{name: "midpoint", in: mgl32.Vec4{0, 0, 0, 1}, wantZ: 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := DepthZeroToOne.Mul4x1(tt.in)
			assert.InDelta(t, tt.wantZ, out.Z()/out.W(), 1e-6)
			assert.Equal(t, tt.in.X(), out.X())
			assert.Equal(t, tt.in.Y(), out.Y())
		})
	}
}

func TestCoalesce(t *testing.T) {
	assert.Equal(t, 3, Coalesce(0, 0, 3, 4))
	assert.Equal(t, "", Coalesce("", ""))
	assert.Equal(t, "a", Coalesce("a", "b"))
}
