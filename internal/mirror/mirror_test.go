package mirror

import (
	"reflect"
	"testing"
)

func TestMirror_ReplaceDiscardsStaleFetch(t *testing.T) {
	m := New[int]()

	slow := m.Begin()
	fast := m.Begin()

	if !m.Replace(fast, []int{3, 4}) {
		t.Fatal("Replace(fast) = false, want true")
	}
	// The earlier fetch resolves late; it must not clobber the newer data.
	if m.Replace(slow, []int{1, 2}) {
		t.Error("Replace(slow) = true, want false")
	}

	if got := m.Snapshot(); !reflect.DeepEqual(got, []int{3, 4}) {
		t.Errorf("Snapshot() = %v, want [3 4]", got)
	}
}

func TestMirror_PatchInPlace(t *testing.T) {
	m := New[string]()
	m.Replace(m.Begin(), []string{"a", "b", "c"})

	n := m.Patch(
		func(s string) bool { return s == "b" },
		func(string) string { return "B" },
	)
	if n != 1 {
		t.Errorf("Patch() = %d, want 1", n)
	}
	if got := m.Snapshot(); !reflect.DeepEqual(got, []string{"a", "B", "c"}) {
		t.Errorf("Snapshot() = %v, want [a B c]", got)
	}
}

func TestMirror_RemoveAndAppend(t *testing.T) {
	m := New[int]()
	m.Replace(m.Begin(), []int{1, 2, 3, 2})

	if n := m.Remove(func(v int) bool { return v == 2 }); n != 2 {
		t.Errorf("Remove() = %d, want 2", n)
	}
	m.Append(9)

	if got := m.Snapshot(); !reflect.DeepEqual(got, []int{1, 3, 9}) {
		t.Errorf("Snapshot() = %v, want [1 3 9]", got)
	}
	if m.Len() != 3 {
		t.Errorf("Len() = %d, want 3", m.Len())
	}
}

func TestMirror_SnapshotIsACopy(t *testing.T) {
	m := New[int]()
	m.Replace(m.Begin(), []int{1, 2})

	snap := m.Snapshot()
	snap[0] = 99

	if got := m.Snapshot()[0]; got != 1 {
		t.Errorf("mirror mutated through snapshot: got %d, want 1", got)
	}
}
