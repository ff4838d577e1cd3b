package render_object

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Carmen-Shannon/oxen-go/engine/transform"
)

var (
	// ErrUnknownRenderObject is returned when attaching to a name that was never registered.
	ErrUnknownRenderObject = errors.New("unknown render object")

	// ErrDuplicateRenderObject is returned when registering a name twice.
	ErrDuplicateRenderObject = errors.New("duplicate render object")

	// ErrRegistryFrozen is returned when registering after the registry was frozen at engine start.
	ErrRegistryFrozen = errors.New("render object registry is frozen")
)

type registry struct {
	mu *sync.RWMutex

	objects map[string]RenderObject
	ordered []RenderObject // sorted by name; rebuilt on Register
	frozen  bool
}

// Registry is the name-keyed collection of render objects.
// Registration happens at startup only; once Freeze is called the set of names is fixed and only the
// instance lists inside each render object change.
type Registry interface {
	// Register adds a render object under its name.
	//
	// Parameters:
	//   - obj: the render object to add
	//
	// Returns:
	//   - error: ErrDuplicateRenderObject or ErrRegistryFrozen
	Register(obj RenderObject) error

	// Attach appends t to the instance list of the named render object.
	// A failed Attach never changes any render object.
	//
	// Parameters:
	//   - name: the render object name
	//   - t: the shared transform to attach
	//
	// Returns:
	//   - error: ErrUnknownRenderObject if name is not registered, ErrNilTransform if t is nil
	Attach(name string, t *transform.Handle) error

	// Get looks up a render object by name.
	//
	// Returns:
	//   - RenderObject: the render object, or nil
	//   - bool: true if found
	Get(name string) (RenderObject, bool)

	// Names returns the registered names in sorted order.
	Names() []string

	// RenderObjects returns the registered render objects sorted by name.
	// The returned slice must not be modified.
	RenderObjects() []RenderObject

	// Freeze rejects further registrations.
	Freeze()

	// Frozen reports whether Freeze has been called.
	Frozen() bool
}

var _ Registry = &registry{}

// NewRegistry creates an empty, unfrozen registry.
//
// Returns:
//   - Registry: the registry
func NewRegistry() Registry {
	return &registry{
		mu:      &sync.RWMutex{},
		objects: make(map[string]RenderObject),
	}
}

func (r *registry) Register(obj RenderObject) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return fmt.Errorf("%w: cannot register %q", ErrRegistryFrozen, obj.Name())
	}
	if _, ok := r.objects[obj.Name()]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateRenderObject, obj.Name())
	}
	r.objects[obj.Name()] = obj

	ordered := make([]RenderObject, 0, len(r.objects))
	for _, o := range r.objects {
		ordered = append(ordered, o)
	}
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].Name() < ordered[j].Name()
	})
	r.ordered = ordered
	return nil
}

func (r *registry) Attach(name string, t *transform.Handle) error {
	obj, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownRenderObject, name)
	}
	return obj.Attach(t)
}

func (r *registry) Get(name string) (RenderObject, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	obj, ok := r.objects[name]
	return obj, ok
}

func (r *registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.ordered))
	for i, o := range r.ordered {
		names[i] = o.Name()
	}
	return names
}

func (r *registry) RenderObjects() []RenderObject {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ordered
}

func (r *registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

func (r *registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}
