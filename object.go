package nvd

import "sync"

// GenericID is an opaque handle identifying a driver-owned object to the
// client. The zero value is never a valid handle.
type GenericID uint32

// Typed handles for the five object kinds. They share the GenericID space of
// one driver instance.
type (
	ConfigID  GenericID
	ContextID GenericID
	SurfaceID GenericID
	BufferID  GenericID
	ImageID   GenericID
)

type objectType int

const (
	objectConfig objectType = iota + 1
	objectContext
	objectSurface
	objectBuffer
	objectImage
)

func (t objectType) String() string {
	switch t {
	case objectConfig:
		return "config"
	case objectContext:
		return "context"
	case objectSurface:
		return "surface"
	case objectBuffer:
		return "buffer"
	case objectImage:
		return "image"
	default:
		return "unknown"
	}
}

type object struct {
	id      GenericID
	typ     objectType
	payload any
}

// objectTable maps handles to live driver objects. Ids are strictly
// increasing and never reused within the table's lifetime. The mutex covers
// only table scans and mutations; it is never held across hardware calls so
// a stalled decode cannot block unrelated handle lookups.
type objectTable struct {
	mu     sync.Mutex
	nextID GenericID
	objs   map[GenericID]*object
}

func newObjectTable() *objectTable {
	return &objectTable{objs: make(map[GenericID]*object)}
}

func (t *objectTable) allocate(typ objectType, payload any) *object {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	o := &object{id: t.nextID, typ: typ, payload: payload}
	t.objs[o.id] = o
	return o
}

func (t *objectTable) lookup(id GenericID) *object {
	if id == 0 {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.objs[id]
}

// payload returns the typed payload for id, or nil if the handle is invalid
// or names an object of a different kind.
func (t *objectTable) payload(id GenericID, typ objectType) any {
	o := t.lookup(id)
	if o == nil || o.typ != typ {
		return nil
	}
	return o.payload
}

// lookupByPayload finds the object wrapping the given payload pointer. Used
// for nested-object cleanup, e.g. releasing an image's pixel buffer.
func (t *objectTable) lookupByPayload(payload any) *object {
	if payload == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, o := range t.objs {
		if o.payload == payload {
			return o
		}
	}
	return nil
}

func (t *objectTable) delete(id GenericID) {
	if id == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.objs, id)
}

// snapshot returns the live objects at the time of the call. Callers iterate
// the copy so bulk teardown can delete entries without holding the table
// lock across blocking work.
func (t *objectTable) snapshot() []*object {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*object, 0, len(t.objs))
	for _, o := range t.objs {
		out = append(out, o)
	}
	return out
}

func (t *objectTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.objs)
}
