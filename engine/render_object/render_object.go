package render_object

import (
	"errors"
	"sync"

	"github.com/Carmen-Shannon/oxen-go/engine/surface"
	"github.com/Carmen-Shannon/oxen-go/engine/transform"
)

// ErrNilTransform is returned when attaching a nil transform handle.
var ErrNilTransform = errors.New("render object: nil transform")

type renderObject struct {
	mu *sync.RWMutex

	name    string
	mesh    surface.Mesh
	program surface.Program

	instances []*transform.Handle
}

// RenderObject is a named mesh/program pair plus the append-only list of transforms instancing it.
// The mesh and program never change after construction; Attach may be called from any goroutine
// while the render goroutine reads Instances.
type RenderObject interface {
	// Name returns the registry key of this render object.
	//
	// Returns:
	//   - string: the name
	Name() string

	// Mesh returns the GPU mesh handle.
	//
	// Returns:
	//   - surface.Mesh: the mesh
	Mesh() surface.Mesh

	// Program returns the GPU program handle.
	//
	// Returns:
	//   - surface.Program: the program
	Program() surface.Program

	// Attach appends a transform to the instance list.
	//
	// Parameters:
	//   - t: the shared transform to instance the mesh at
	//
	// Returns:
	//   - error: ErrNilTransform if t is nil
	Attach(t *transform.Handle) error

	// Instances returns a copy of the instance list taken under the read lock.
	// Appends racing with the call may or may not be included.
	//
	// Returns:
	//   - []*transform.Handle: the instances in insertion order
	Instances() []*transform.Handle

	// InstanceCount returns the number of attached transforms, visible or not.
	//
	// Returns:
	//   - int: the instance count
	InstanceCount() int
}

var _ RenderObject = &renderObject{}

// NewRenderObject creates a render object with no instances.
//
// Parameters:
//   - name: the registry key
//   - mesh: the GPU mesh
//   - program: the GPU program
//
// Returns:
//   - RenderObject: the newly created render object
func NewRenderObject(name string, mesh surface.Mesh, program surface.Program) RenderObject {
	return &renderObject{
		mu:      &sync.RWMutex{},
		name:    name,
		mesh:    mesh,
		program: program,
	}
}

func (r *renderObject) Name() string {
	return r.name
}

func (r *renderObject) Mesh() surface.Mesh {
	return r.mesh
}

func (r *renderObject) Program() surface.Program {
	return r.program
}

func (r *renderObject) Attach(t *transform.Handle) error {
	if t == nil {
		return ErrNilTransform
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances = append(r.instances, t)
	return nil
}

func (r *renderObject) Instances() []*transform.Handle {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*transform.Handle, len(r.instances))
	copy(out, r.instances)
	return out
}

func (r *renderObject) InstanceCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.instances)
}
