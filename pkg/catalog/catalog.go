// Package catalog lists the countries a user can pick for comparison,
// resolves their ISO 3166 alpha-2 codes for flags, and suggests close
// matches for misspelled names.
package catalog

import (
	"sort"
	"strings"
	"sync"

	"github.com/agext/levenshtein"
	"github.com/atlasview/atlasview/pkg/names"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const (
	// MinSearchLen is the shortest term Search answers.
	MinSearchLen = 2
	// MaxSearchResults caps the number of Search results.
	MaxSearchResults = 6

	maxSuggestions = 3
)

// Country is a catalog entry.
type Country struct {
	Name string `json:"name"`
	ISO2 string `json:"iso2"`
}

var (
	loadOnce  sync.Once
	countries []Country
	byKey     map[string]string // folded name -> ISO2, first code wins
)

// retired lists codes CLDR still parses that no longer name an ISO 3166-1
// country, plus the exceptionally reserved and grouping codes.
var retired = map[string]bool{
	// withdrawn
	"AN": true, "BU": true, "CS": true, "CT": true, "DD": true, "DY": true,
	"FQ": true, "FX": true, "HV": true, "JT": true, "MI": true, "NH": true,
	"NQ": true, "NT": true, "PC": true, "PU": true, "PZ": true, "RH": true,
	"SU": true, "TP": true, "UK": true, "VD": true, "WK": true, "YD": true,
	"YU": true, "ZR": true,
	// reserved and groupings
	"AC": true, "CP": true, "DG": true, "EA": true, "EU": true, "EZ": true,
	"IC": true, "QO": true, "TA": true, "UN": true, "ZZ": true,
}

// current reports whether r is a country code in use today. XK (Kosovo) is
// kept since the data API carries it.
func current(r language.Region) bool {
	if !r.IsCountry() || retired[r.String()] {
		return false
	}
	return r.Canonicalize() == r
}

func load() {
	loadOnce.Do(func() {
		byKey = make(map[string]string)
		seen := make(map[string]struct{})
		namer := display.English.Regions()
		for a := 'A'; a <= 'Z'; a++ {
			for b := 'A'; b <= 'Z'; b++ {
				r, err := language.ParseRegion(string([]rune{a, b}))
				if err != nil || !current(r) {
					continue
				}
				code := r.String()
				if _, dup := seen[code]; dup {
					continue
				}
				name := namer.Name(r)
				if name == "" {
					continue
				}
				key := fold(name)
				if _, dup := byKey[key]; dup {
					continue
				}
				seen[code] = struct{}{}
				countries = append(countries, Country{Name: name, ISO2: code})
				byKey[key] = code
			}
		}
		sort.Slice(countries, func(i, j int) bool { return countries[i].Name < countries[j].Name })
	})
}

// fold lowercases a name and unifies apostrophes, which differ between the
// CLDR names and the backend spellings.
func fold(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("’", "'", "`", "'").Replace(s)
}

// All returns every country, sorted by name.
func All() []Country {
	load()
	out := make([]Country, len(countries))
	copy(out, countries)
	return out
}

// ISO2 returns the alpha-2 code for a country name in any of the known
// vocabularies, or "" when it cannot be resolved.
func ISO2(name string) string {
	load()
	for _, candidate := range candidates(name) {
		if code, ok := byKey[fold(candidate)]; ok {
			return code
		}
	}
	return ""
}

func candidates(name string) []string {
	backend := names.Normalize(name)
	out := []string{name, backend, names.DisplayName(backend), names.GeometryName(name)}
	out = append(out, names.Default().Aliases(backend)...)
	return out
}

// Search returns up to MaxSearchResults catalog names containing term,
// case-insensitively. Names referring to the same country as any of
// exclude are skipped. Terms shorter than MinSearchLen match nothing.
func Search(term string, exclude ...string) []string {
	term = fold(term)
	if len([]rune(term)) < MinSearchLen {
		return []string{}
	}
	load()

	out := []string{}
	for _, c := range countries {
		if !strings.Contains(fold(c.Name), term) || excluded(c.Name, exclude) {
			continue
		}
		out = append(out, c.Name)
		if len(out) == MaxSearchResults {
			break
		}
	}
	return out
}

func excluded(name string, exclude []string) bool {
	code := ISO2(name)
	for _, e := range exclude {
		if e == "" {
			continue
		}
		if names.Same(name, e) || (code != "" && code == ISO2(e)) {
			return true
		}
	}
	return false
}

// Suggest returns the catalog names closest to name by edit distance, best
// first. Distant names are not suggested.
func Suggest(name string) []string {
	load()
	target := fold(name)
	if target == "" {
		return []string{}
	}
	limit := len([]rune(target))/2 + 1

	type scored struct {
		name string
		dist int
	}
	var hits []scored
	for _, c := range countries {
		d := levenshtein.Distance(target, fold(c.Name), nil)
		if d <= limit {
			hits = append(hits, scored{c.Name, d})
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].dist != hits[j].dist {
			return hits[i].dist < hits[j].dist
		}
		return hits[i].name < hits[j].name
	})

	out := []string{}
	for i := 0; i < len(hits) && i < maxSuggestions; i++ {
		out = append(out, hits[i].name)
	}
	return out
}
