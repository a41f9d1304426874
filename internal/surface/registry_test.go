package surface

import "testing"

type fakeHandle struct {
	name     string
	disposed int
}

func (f *fakeHandle) Dispose() {
	f.disposed++
}

func TestReplaceDisposesPrior(t *testing.T) {
	r := NewRegistry()
	a := &fakeHandle{name: "a"}
	b := &fakeHandle{name: "b"}

	r.Replace(Detail, a)
	if a.disposed != 0 {
		t.Fatal("Expected first install not to dispose anything")
	}

	r.Replace(Detail, b)
	if a.disposed != 1 {
		t.Errorf("Expected prior handle disposed once, got %d", a.disposed)
	}
	if b.disposed != 0 {
		t.Errorf("Expected new handle untouched, got %d", b.disposed)
	}

	got, ok := r.Get(Detail)
	if !ok || got != b {
		t.Errorf("Expected b on surface, got %v", got)
	}
}

func TestReplaceSameHandle(t *testing.T) {
	r := NewRegistry()
	a := &fakeHandle{name: "a"}

	r.Replace(Detail, a)
	r.Replace(Detail, a)
	if a.disposed != 0 {
		t.Errorf("Expected reinstalling the same handle to keep it, disposed %d", a.disposed)
	}
}

func TestSurfacesAreIndependent(t *testing.T) {
	r := NewRegistry()
	a := &fakeHandle{name: "a"}
	b := &fakeHandle{name: "b"}

	r.Replace(Distribution, a)
	r.Replace(Classes, b)
	if a.disposed != 0 || b.disposed != 0 {
		t.Error("Expected no disposal across surfaces")
	}
	if r.Len() != 2 {
		t.Errorf("Expected 2 surfaces, got %d", r.Len())
	}

	r.DisposeAll()
	if a.disposed != 1 || b.disposed != 1 {
		t.Errorf("Expected every handle disposed, got a=%d b=%d", a.disposed, b.disposed)
	}
	if r.Len() != 0 {
		t.Errorf("Expected empty registry, got %d", r.Len())
	}
}

type sliceHandle []int

func (h sliceHandle) Dispose() {
	h[0]++
}

func TestReplaceUncomparableHandle(t *testing.T) {
	r := NewRegistry()
	a := sliceHandle{0}
	b := sliceHandle{0}

	r.Replace(Detail, a)
	r.Replace(Detail, b)
	if a[0] != 1 {
		t.Errorf("Expected prior slice handle disposed once, got %d", a[0])
	}
	if b[0] != 0 {
		t.Errorf("Expected new slice handle untouched, got %d", b[0])
	}
}
