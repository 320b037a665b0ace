package compare

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/atlasview/atlasview/pkg/catalog"
	"github.com/atlasview/atlasview/pkg/names"
	"github.com/atlasview/atlasview/pkg/series"
	"github.com/bluele/gcache"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
)

// ErrNoMainCountry is returned when the main series is requested before a
// country was selected.
var ErrNoMainCountry = errors.New("no main country selected")

// Fetcher retrieves one country's indicator record.
type Fetcher interface {
	Fetch(ctx context.Context, country, indicator string) (series.Record, error)
}

// Logger abstracts logging so callers can plug in logrus or anything else
// with the same methods.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}
func (nopLogger) Debugf(string, ...interface{}) {}

// State is the loading state of the main series.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *State) UnmarshalText(b []byte) error {
	switch string(b) {
	case "idle":
		*s = StateIdle
	case "loading":
		*s = StateLoading
	case "ready":
		*s = StateReady
	case "failed":
		*s = StateFailed
	default:
		return fmt.Errorf("unknown state %q", b)
	}
	return nil
}

// Options tunes a Session.
type Options struct {
	Palette     []string // defaults to DefaultPalette
	Concurrency int      // concurrent comparison fetches, defaults to 4
	Log         Logger   // optional
}

// Session is the state behind one chart: the main country, the indicator,
// the comparison countries, and the records fetched for them.
//
// Each comparison record is fetched at most once per entry. Removing an
// entry discards its record, so adding it back fetches again. A fetch that
// completes after its entry was removed, or after the indicator changed, is
// dropped.
type Session struct {
	fetcher     Fetcher
	palette     []string
	concurrency int
	log         Logger

	mu         sync.Mutex
	indicator  string
	set        Set
	mainSeq    uint64
	mainState  State
	mainRecord series.Record
	mainErr    error
	cache      gcache.Cache      // entry name -> series.Record
	gens       map[string]uint64 // entry name -> incarnation
	nextGen    uint64
	inflight   map[string]uint64
	errs       map[string]error
}

func NewSession(f Fetcher, indicator string, opts Options) *Session {
	palette := opts.Palette
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	log := opts.Log
	if log == nil {
		log = nopLogger{}
	}
	return &Session{
		fetcher:     f,
		palette:     append([]string(nil), palette...),
		concurrency: concurrency,
		log:         log,
		indicator:   indicator,
		cache:       gcache.New(MaxEntries).Simple().Build(),
		gens:        make(map[string]uint64),
		inflight:    make(map[string]uint64),
		errs:        make(map[string]error),
	}
}

// Palette returns the session's colors.
func (s *Session) Palette() []string { return append([]string(nil), s.palette...) }

func (s *Session) Indicator() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.indicator
}

// Title is the chart heading for the current indicator.
func (s *Session) Title() string { return series.Title(s.Indicator()) }

func (s *Session) Main() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Main()
}

// Compared returns the comparison countries in order.
func (s *Session) Compared() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.set.Names()
}

// State returns the main series state and, when failed, its error.
func (s *Session) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mainState, s.mainErr
}

// SetMain selects the main country and loads its record. A comparison
// entry for the same country is dropped.
func (s *Session) SetMain(ctx context.Context, country string) error {
	s.mu.Lock()
	if entry, ok := s.set.Entry(country); ok {
		s.forget(entry)
	}
	s.set.SetMain(country)
	s.mu.Unlock()
	return s.LoadMain(ctx)
}

// LoadMain fetches the main country's record for the current indicator.
// Failures leave the session in StateFailed; there is no retry.
func (s *Session) LoadMain(ctx context.Context) error {
	s.mu.Lock()
	country, indicator := s.set.Main(), s.indicator
	if country == "" {
		s.mu.Unlock()
		return ErrNoMainCountry
	}
	s.mainSeq++
	seq := s.mainSeq
	s.mainState, s.mainRecord, s.mainErr = StateLoading, series.Record{}, nil
	s.mu.Unlock()

	s.log.Debugf("Fetching %s for %s", indicator, country)
	rec, err := s.fetcher.Fetch(ctx, country, indicator)

	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.mainSeq {
		// superseded by a newer selection
		return err
	}
	if err != nil {
		s.mainState, s.mainErr = StateFailed, err
		s.log.Warnf("Loading %s for %s failed: %v", indicator, country, err)
		return err
	}
	s.mainState, s.mainRecord = StateReady, rec
	return nil
}

// SetIndicator switches the indicator. Every fetched record belongs to the
// old indicator, so all of them are discarded; call LoadMain and Refresh
// to fetch again.
func (s *Session) SetIndicator(indicator string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if indicator == s.indicator {
		return
	}
	s.indicator = indicator
	s.mainSeq++
	s.mainState, s.mainRecord, s.mainErr = StateIdle, series.Record{}, nil
	s.cache.Purge()
	s.inflight = make(map[string]uint64)
	s.errs = make(map[string]error)
	for _, name := range s.set.Names() {
		s.nextGen++
		s.gens[name] = s.nextGen
	}
}

// Add appends a comparison country. It is a no-op for duplicates and for
// the main country. The record is fetched by the next Refresh.
func (s *Session) Add(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.set.Add(name) {
		return false
	}
	s.nextGen++
	s.gens[name] = s.nextGen
	return true
}

// Remove drops a comparison country together with its fetched record.
func (s *Session) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.set.Entry(name)
	if !ok {
		return false
	}
	s.set.Remove(entry)
	s.forget(entry)
	return true
}

// forget discards everything known about an entry. Callers hold s.mu.
func (s *Session) forget(entry string) {
	s.cache.Remove(entry)
	delete(s.gens, entry)
	delete(s.inflight, entry)
	delete(s.errs, entry)
}

// Close clears the main country, the comparison list and every record.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set.Clear()
	s.mainSeq++
	s.mainState, s.mainRecord, s.mainErr = StateIdle, series.Record{}, nil
	s.cache.Purge()
	s.gens = make(map[string]uint64)
	s.inflight = make(map[string]uint64)
	s.errs = make(map[string]error)
}

type fetchJob struct {
	name string
	gen  uint64
}

// Refresh fetches the record of every comparison country that has none
// yet, concurrently. One country failing does not affect the others; the
// failures are returned together.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	indicator := s.indicator
	var jobs []fetchJob
	for _, name := range s.set.Names() {
		gen := s.gens[name]
		if _, err := s.cache.GetIFPresent(name); err == nil || s.inflight[name] == gen {
			continue
		}
		s.inflight[name] = gen
		jobs = append(jobs, fetchJob{name: name, gen: gen})
	}
	s.mu.Unlock()

	if len(jobs) == 0 {
		return nil
	}

	var (
		g    errgroup.Group
		merr *multierror.Error
	)
	g.SetLimit(s.concurrency)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			s.log.Debugf("Fetching %s for %s", indicator, job.name)
			rec, err := s.fetcher.Fetch(ctx, job.name, indicator)

			s.mu.Lock()
			defer s.mu.Unlock()
			if s.inflight[job.name] == job.gen {
				delete(s.inflight, job.name)
			}
			if s.gens[job.name] != job.gen {
				s.log.Debugf("Dropping stale %s record for %s", indicator, job.name)
				return nil
			}
			if err != nil {
				s.errs[job.name] = err
				merr = multierror.Append(merr, fmt.Errorf("%s: %w", job.name, err))
				s.log.Warnf("Loading %s for %s failed: %v", indicator, job.name, err)
				return nil
			}
			delete(s.errs, job.name)
			return s.cache.Set(job.name, rec)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return merr.ErrorOrNil()
}

// Record returns the fetched record of the main country or of a
// comparison entry.
func (s *Session) Record(name string) (series.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if main := s.set.Main(); main != "" && names.Same(main, name) {
		return s.mainRecord, s.mainState == StateReady
	}
	entry, ok := s.set.Entry(name)
	if !ok {
		return series.Record{}, false
	}
	return s.cachedRecord(entry)
}

func (s *Session) cachedRecord(entry string) (series.Record, bool) {
	v, err := s.cache.Get(entry)
	if err != nil {
		return series.Record{}, false
	}
	rec, ok := v.(series.Record)
	return rec, ok
}

// Line is one country's series with everything needed to draw it.
type Line struct {
	Name     string        `json:"name"`
	Display  string        `json:"display"`
	Backend  string        `json:"backend"`
	Geometry string        `json:"geometry"`
	ISO2     string        `json:"iso2,omitempty"`
	Color    string        `json:"color"`
	Main     bool          `json:"main"`
	Loaded   bool          `json:"loaded"`
	Error    string        `json:"error,omitempty"`
	Points   series.Series `json:"points"`
}

// Chart is a snapshot of the session ready for rendering.
type Chart struct {
	Indicator string `json:"indicator"`
	Title     string `json:"title"`
	State     State  `json:"state"`
	Error     string `json:"error,omitempty"`
	Lines     []Line `json:"lines"`
}

// Chart extracts the series of the main country and of every comparison
// entry. Entries without a record yet have no points.
func (s *Session) Chart() Chart {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := Chart{
		Indicator: s.indicator,
		Title:     series.Title(s.indicator),
		State:     s.mainState,
		Lines:     []Line{},
	}
	if s.mainErr != nil {
		c.Error = s.mainErr.Error()
	}

	if main := s.set.Main(); main != "" {
		l := newLine(main, MainColor(s.palette))
		l.Main = true
		if s.mainState == StateReady {
			l.Loaded = true
			l.Points = series.Extract(s.mainRecord, s.indicator)
		}
		if s.mainErr != nil {
			l.Error = s.mainErr.Error()
		}
		c.Lines = append(c.Lines, l)
	}

	for i, name := range s.set.Names() {
		l := newLine(name, ColorFor(s.palette, i))
		if rec, ok := s.cachedRecord(name); ok {
			l.Loaded = true
			l.Points = series.Extract(rec, s.indicator)
		}
		if err := s.errs[name]; err != nil {
			l.Error = err.Error()
		}
		c.Lines = append(c.Lines, l)
	}
	return c
}

func newLine(name, color string) Line {
	backend := names.Normalize(name)
	return Line{
		Name:     name,
		Display:  names.DisplayName(backend),
		Backend:  backend,
		Geometry: names.GeometryName(name),
		ISO2:     catalog.ISO2(name),
		Color:    color,
		Points:   series.Series{},
	}
}
