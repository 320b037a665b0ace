package compare

import (
	"reflect"
	"testing"
)

func TestSetAdd(t *testing.T) {
	var s Set
	s.SetMain("Brazil")

	if !s.Add("Chile") {
		t.Fatal("Add(Chile) should change the set")
	}
	if s.Add("Chile") {
		t.Error("adding the same country twice must be a no-op")
	}
	if s.Add("Brazil") {
		t.Error("adding the main country must be a no-op")
	}
	if s.Add("") {
		t.Error("adding an empty name must be a no-op")
	}
	s.Add("Russia")
	if s.Add("Russian Federation") {
		t.Error("a second spelling of the same country must be a no-op")
	}

	want := []string{"Chile", "Russia"}
	if got := s.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Names = %v, want %v", got, want)
	}
}

func TestSetRemove(t *testing.T) {
	var s Set
	s.Add("Chile")
	s.Add("Peru")
	s.Add("Bolivia")

	if !s.Remove("Peru") {
		t.Fatal("Remove(Peru) should report true")
	}
	if s.Remove("Peru") {
		t.Error("second Remove should report false")
	}
	if got, want := s.Names(), []string{"Chile", "Bolivia"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names = %v, want %v", got, want)
	}
	if s.Index("Bolivia") != 1 {
		t.Errorf("Bolivia should move to index 1")
	}
}

func TestSetMainDropsEntry(t *testing.T) {
	var s Set
	s.Add("Chile")
	s.Add("Slovakia")
	s.SetMain("Slovak Republic")
	if got, want := s.Names(), []string{"Chile"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Names = %v, want %v", got, want)
	}
	s.Clear()
	if s.Len() != 0 || s.Main() != "" {
		t.Fatal("Clear should empty the set")
	}
}

func TestSetLimit(t *testing.T) {
	var s Set
	for i := 0; i < MaxEntries; i++ {
		if !s.Add(string(rune('a'+i%26)) + string(rune('A'+i/26))) {
			t.Fatalf("Add %d failed", i)
		}
	}
	if s.Add("one too many") {
		t.Fatal("Add beyond MaxEntries should fail")
	}
}

func TestColorFor(t *testing.T) {
	palette := []string{"main", "c1", "c2"}
	tests := []struct {
		index int
		want  string
	}{
		{0, "c1"},
		{1, "c2"},
		{2, "main"},
		{3, "c1"},
		{-1, "main"},
	}
	for _, tc := range tests {
		if got := ColorFor(palette, tc.index); got != tc.want {
			t.Errorf("ColorFor(%d) = %q, want %q", tc.index, got, tc.want)
		}
	}

	// order of calls does not matter
	a := []string{ColorFor(DefaultPalette, 5), ColorFor(DefaultPalette, 0), ColorFor(DefaultPalette, 12)}
	b := []string{ColorFor(DefaultPalette, 5), ColorFor(DefaultPalette, 0), ColorFor(DefaultPalette, 12)}
	if !reflect.DeepEqual(a, b) {
		t.Fatal("ColorFor is not deterministic")
	}
	if ColorFor(DefaultPalette, 0) != DefaultPalette[1] || MainColor(DefaultPalette) != DefaultPalette[0] {
		t.Fatal("slot 0 is reserved for the main country")
	}
	if ColorFor(nil, 3) != "" || MainColor(nil) != "" {
		t.Fatal("empty palette yields no color")
	}
}
