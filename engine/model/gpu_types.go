package model

import (
	_ "embed"
	"encoding/binary"
	"math"
	"unsafe"

	"github.com/Carmen-Shannon/oxen-go/engine/surface"
)

// SquareShaderSource draws position+scale instances of a flat colored mesh.
//
//go:embed assets/square.wgsl
var SquareShaderSource string

// CubeShaderSource draws model-matrix instances of a flat colored mesh.
//
//go:embed assets/cube.wgsl
var CubeShaderSource string

// Shader entry points shared by the built-in programs.
const (
	VertexEntry   = "vs_main"
	FragmentEntry = "fs_main"

	// InstanceLocation is the first shader location of the per-instance attributes.
	InstanceLocation = 2
)

// GPUVertex is the GPU-aligned representation of a single built-in mesh vertex.
// Size: 24 bytes, no padding.
type GPUVertex struct {
	Position [3]float32 // offset  0: vertex position in model space (12 bytes)
	Color    [3]float32 // offset 12: linear RGB color (12 bytes)
}

// Size returns the size of the GPUVertex struct in bytes.
//
// Returns:
//   - int: the size of the struct in bytes.
func (g *GPUVertex) Size() int {
	return int(unsafe.Sizeof(*g))
}

// Marshal serializes the GPUVertex struct into a byte buffer suitable for GPU upload.
//
// Returns:
//   - []byte: 24-byte buffer ready for GPU upload.
func (g *GPUVertex) Marshal() []byte {
	buf := make([]byte, 24)
	binary.LittleEndian.PutUint32(buf[0:4], math.Float32bits(g.Position[0]))
	binary.LittleEndian.PutUint32(buf[4:8], math.Float32bits(g.Position[1]))
	binary.LittleEndian.PutUint32(buf[8:12], math.Float32bits(g.Position[2]))
	binary.LittleEndian.PutUint32(buf[12:16], math.Float32bits(g.Color[0]))
	binary.LittleEndian.PutUint32(buf[16:20], math.Float32bits(g.Color[1]))
	binary.LittleEndian.PutUint32(buf[20:24], math.Float32bits(g.Color[2]))
	return buf
}

// GPUVertexFormat is the vertex buffer layout matching GPUVertex.
var GPUVertexFormat = surface.VertexFormat{
	Stride: 24,
	Attributes: []surface.VertexAttribute{
		{Location: 0, Offset: 0, Components: 3},
		{Location: 1, Offset: 12, Components: 3},
	},
}

// MarshalVertices concatenates the GPU encoding of every vertex.
//
// Parameters:
//   - vertices: the vertices to encode
//
// Returns:
//   - []byte: len(vertices)*24 bytes
func MarshalVertices(vertices []GPUVertex) []byte {
	out := make([]byte, 0, len(vertices)*24)
	for i := range vertices {
		out = append(out, vertices[i].Marshal()...)
	}
	return out
}
