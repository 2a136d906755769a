package nvd

import (
	"sync"
	"testing"
)

func TestObjectTable_AllocateLookup(t *testing.T) {
	tbl := newObjectTable()
	s := &Surface{}
	o := tbl.allocate(objectSurface, s)
	if o.id == 0 {
		t.Fatal("allocated id must be non-zero")
	}
	if got := tbl.payload(o.id, objectSurface); got != s {
		t.Errorf("payload() = %v, want %v", got, s)
	}
	if got := tbl.payload(o.id, objectBuffer); got != nil {
		t.Errorf("payload() with wrong type = %v, want nil", got)
	}
	if got := tbl.payload(0, objectSurface); got != nil {
		t.Errorf("payload(0) = %v, want nil", got)
	}
}

func TestObjectTable_MonotonicIDs(t *testing.T) {
	tbl := newObjectTable()
	a := tbl.allocate(objectConfig, &Config{})
	b := tbl.allocate(objectConfig, &Config{})
	if b.id <= a.id {
		t.Errorf("ids not monotonic: %d then %d", a.id, b.id)
	}
	tbl.delete(a.id)
	c := tbl.allocate(objectConfig, &Config{})
	if c.id <= b.id {
		t.Errorf("deleted id reused: %d after %d", c.id, b.id)
	}
}

func TestObjectTable_Delete(t *testing.T) {
	tbl := newObjectTable()
	o := tbl.allocate(objectBuffer, &Buffer{})
	tbl.delete(o.id)
	if got := tbl.payload(o.id, objectBuffer); got != nil {
		t.Errorf("payload after delete = %v, want nil", got)
	}
	if n := tbl.len(); n != 0 {
		t.Errorf("len() = %d, want 0", n)
	}
}

func TestObjectTable_LookupByPayload(t *testing.T) {
	tbl := newObjectTable()
	buf := &Buffer{}
	o := tbl.allocate(objectBuffer, buf)
	found := tbl.lookupByPayload(buf)
	if found == nil || found.id != o.id {
		t.Fatalf("lookupByPayload() = %v, want id %d", found, o.id)
	}
	if got := tbl.lookupByPayload(&Buffer{}); got != nil {
		t.Errorf("lookupByPayload(unknown) = %v, want nil", got)
	}
	if got := tbl.lookupByPayload(nil); got != nil {
		t.Errorf("lookupByPayload(nil) = %v, want nil", got)
	}
}

func TestObjectTable_ConcurrentAccess(t *testing.T) {
	tbl := newObjectTable()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				o := tbl.allocate(objectBuffer, &Buffer{})
				if got := tbl.payload(o.id, objectBuffer); got == nil {
					t.Error("payload() = nil for a live object")
					return
				}
				tbl.snapshot()
				tbl.delete(o.id)
				if got := tbl.payload(o.id, objectBuffer); got != nil {
					t.Errorf("payload() after delete = %v, want nil", got)
					return
				}
			}
		}()
	}
	wg.Wait()
	if n := tbl.len(); n != 0 {
		t.Errorf("len() = %d, want 0", n)
	}
}

func TestObjectTable_Snapshot(t *testing.T) {
	tbl := newObjectTable()
	for i := 0; i < 5; i++ {
		tbl.allocate(objectSurface, &Surface{})
	}
	snap := tbl.snapshot()
	if len(snap) != 5 {
		t.Fatalf("snapshot() returned %d objects, want 5", len(snap))
	}
	for _, o := range snap {
		tbl.delete(o.id)
	}
	if n := tbl.len(); n != 0 {
		t.Errorf("len() after deleting snapshot = %d, want 0", n)
	}
}
