package compare

import "github.com/atlasview/atlasview/pkg/names"

// DefaultPalette holds the line colors. Slot 0 belongs to the main country.
var DefaultPalette = []string{
	"#2563eb",
	"#f97316",
	"#40da78ff",
	"#9333ea",
	"#dc2626",
	"#d2f700ff",
	"#2a6111ff",
	"#03ebfcff",
	"#fc03a9ff",
	"#000000ff",
}

// MaxEntries bounds the number of comparison countries.
const MaxEntries = 256

// ColorFor returns the color of the comparison entry at index: slot
// (index+1) modulo the palette size.
func ColorFor(palette []string, index int) string {
	n := len(palette)
	if n == 0 {
		return ""
	}
	return palette[((index+1)%n+n)%n]
}

// MainColor returns the main country's color.
func MainColor(palette []string) string {
	if len(palette) == 0 {
		return ""
	}
	return palette[0]
}

// Set is the ordered list of countries compared against the main country.
// Two spellings of the same country count as one entry.
type Set struct {
	main    string
	entries []string
}

// SetMain changes the main country and drops it from the comparison list.
func (s *Set) SetMain(name string) {
	s.main = name
	if s.main == "" {
		return
	}
	for i, e := range s.entries {
		if names.Same(e, name) {
			s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
			return
		}
	}
}

// Main returns the main country.
func (s *Set) Main() string { return s.main }

// Add appends name unless it is empty, already present, the main country,
// or the set is full. It reports whether the set changed.
func (s *Set) Add(name string) bool {
	if name == "" || len(s.entries) >= MaxEntries {
		return false
	}
	if s.main != "" && names.Same(name, s.main) {
		return false
	}
	if s.Index(name) >= 0 {
		return false
	}
	s.entries = append(s.entries, name)
	return true
}

// Remove deletes name and reports whether it was present.
func (s *Set) Remove(name string) bool {
	i := s.Index(name)
	if i < 0 {
		return false
	}
	s.entries = append(s.entries[:i:i], s.entries[i+1:]...)
	return true
}

// Index returns the position of name, or -1.
func (s *Set) Index(name string) int {
	for i, e := range s.entries {
		if names.Same(e, name) {
			return i
		}
	}
	return -1
}

// Entry returns the stored spelling of name, if present.
func (s *Set) Entry(name string) (string, bool) {
	if i := s.Index(name); i >= 0 {
		return s.entries[i], true
	}
	return "", false
}

// Names returns a copy of the entries in order.
func (s *Set) Names() []string {
	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out
}

func (s *Set) Len() int { return len(s.entries) }

// Clear empties the set and forgets the main country.
func (s *Set) Clear() {
	s.main = ""
	s.entries = nil
}
