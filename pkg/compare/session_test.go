package compare

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/atlasview/atlasview/pkg/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   map[string]int
	records map[string]string
	fail    map[string]error
	gates   map[string]chan struct{}
	started chan string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		calls:   map[string]int{},
		records: map[string]string{},
		fail:    map[string]error{},
		gates:   map[string]chan struct{}{},
	}
}

func (f *fakeFetcher) Fetch(ctx context.Context, country, indicator string) (series.Record, error) {
	f.mu.Lock()
	f.calls[country]++
	gate := f.gates[country]
	raw, ok := f.records[country+"/"+indicator]
	err := f.fail[country]
	started := f.started
	f.mu.Unlock()

	if started != nil {
		started <- country
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return series.Record{}, ctx.Err()
		}
	}
	if err != nil {
		return series.Record{}, err
	}
	if !ok {
		return series.Record{}, fmt.Errorf("no fixture for %s/%s", country, indicator)
	}
	return series.NewRecord(raw), nil
}

func (f *fakeFetcher) count(country string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[country]
}

func fixtures() *fakeFetcher {
	f := newFakeFetcher()
	f.records["Brazil/gdp"] = `{"gdp_2001": 2, "gdp_2000": 1}`
	f.records["Chile/gdp"] = `{"gdp_2000": 3}`
	f.records["Peru/gdp"] = `{"gdp_2000": 4}`
	f.records["Brazil/population"] = `{"population_2000": 170}`
	f.records["Chile/population"] = `{"population_2000": 15}`
	return f
}

func TestSessionMainSeries(t *testing.T) {
	f := fixtures()
	s := NewSession(f, "gdp", Options{})

	require.ErrorIs(t, s.LoadMain(context.Background()), ErrNoMainCountry)

	require.NoError(t, s.SetMain(context.Background(), "Brazil"))
	state, err := s.State()
	assert.Equal(t, StateReady, state)
	assert.NoError(t, err)

	c := s.Chart()
	require.Len(t, c.Lines, 1)
	assert.True(t, c.Lines[0].Main)
	assert.Equal(t, DefaultPalette[0], c.Lines[0].Color)
	assert.Equal(t, series.Series{{Year: 2000, Value: 1}, {Year: 2001, Value: 2}}, c.Lines[0].Points)
	assert.Equal(t, "ready", c.State.String())
}

func TestSessionMainFailure(t *testing.T) {
	f := fixtures()
	f.fail["Brazil"] = errors.New("connection refused")
	s := NewSession(f, "gdp", Options{})

	err := s.SetMain(context.Background(), "Brazil")
	require.Error(t, err)
	state, stateErr := s.State()
	assert.Equal(t, StateFailed, state)
	assert.Equal(t, err, stateErr)

	// comparisons are unaffected by the main failure
	s.Add("Chile")
	require.NoError(t, s.Refresh(context.Background()))
	c := s.Chart()
	require.Len(t, c.Lines, 2)
	assert.Equal(t, "connection refused", c.Error)
	assert.False(t, c.Lines[0].Loaded)
	assert.True(t, c.Lines[1].Loaded)
	assert.Equal(t, 1, f.count("Brazil"), "no automatic retry")
}

func TestSessionAddIsIdempotent(t *testing.T) {
	f := fixtures()
	s := NewSession(f, "gdp", Options{})
	require.NoError(t, s.SetMain(context.Background(), "Brazil"))

	assert.True(t, s.Add("Chile"))
	assert.False(t, s.Add("Chile"))
	assert.False(t, s.Add("Brazil"))
	assert.Equal(t, []string{"Chile"}, s.Compared())

	require.NoError(t, s.Refresh(context.Background()))
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, 1, f.count("Chile"), "records are fetched at most once")
}

func TestSessionRemoveDiscardsRecord(t *testing.T) {
	f := fixtures()
	s := NewSession(f, "gdp", Options{})
	require.NoError(t, s.SetMain(context.Background(), "Brazil"))

	s.Add("Chile")
	require.NoError(t, s.Refresh(context.Background()))
	_, ok := s.Record("Chile")
	require.True(t, ok)

	assert.True(t, s.Remove("Chile"))
	assert.False(t, s.Remove("Chile"))
	_, ok = s.Record("Chile")
	assert.False(t, ok)

	s.Add("Chile")
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, 2, f.count("Chile"), "re-adding fetches exactly once more")
	_, ok = s.Record("Chile")
	assert.True(t, ok)
}

func TestSessionComparisonFailureIsIsolated(t *testing.T) {
	f := fixtures()
	f.fail["Peru"] = errors.New("timeout")
	s := NewSession(f, "gdp", Options{})
	require.NoError(t, s.SetMain(context.Background(), "Brazil"))
	s.Add("Peru")
	s.Add("Chile")

	err := s.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Peru: timeout")
	assert.NotContains(t, err.Error(), "Chile")

	c := s.Chart()
	require.Len(t, c.Lines, 3)
	assert.Equal(t, StateReady, c.State)
	assert.Len(t, c.Lines[0].Points, 2)
	assert.Equal(t, "Peru", c.Lines[1].Name)
	assert.Equal(t, "timeout", c.Lines[1].Error)
	assert.Empty(t, c.Lines[1].Points)
	assert.Equal(t, "Chile", c.Lines[2].Name)
	assert.Equal(t, series.Series{{Year: 2000, Value: 3}}, c.Lines[2].Points)

	// colors follow positions
	assert.Equal(t, ColorFor(DefaultPalette, 0), c.Lines[1].Color)
	assert.Equal(t, ColorFor(DefaultPalette, 1), c.Lines[2].Color)

	// failures are not cached; the next refresh tries again
	delete(f.fail, "Peru")
	f.records["Peru/gdp"] = `{"gdp_2000": 4}`
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, 2, f.count("Peru"))
	assert.Equal(t, 1, f.count("Chile"))
}

func TestSessionDropsStaleFetch(t *testing.T) {
	f := fixtures()
	gate := make(chan struct{})
	f.gates["Chile"] = gate
	f.started = make(chan string, 4)
	s := NewSession(f, "gdp", Options{})
	s.Add("Chile")

	done := make(chan error)
	go func() { done <- s.Refresh(context.Background()) }()
	require.Equal(t, "Chile", <-f.started)

	// removed while its fetch is in flight
	s.Remove("Chile")
	close(gate)
	require.NoError(t, <-done)

	_, ok := s.Record("Chile")
	assert.False(t, ok, "a late result must not resurrect a removed entry")

	s.Add("Chile")
	require.NoError(t, s.Refresh(context.Background()))
	<-f.started
	assert.Equal(t, 2, f.count("Chile"))
	_, ok = s.Record("Chile")
	assert.True(t, ok)
}

func TestSessionSetIndicator(t *testing.T) {
	f := fixtures()
	s := NewSession(f, "gdp", Options{})
	require.NoError(t, s.SetMain(context.Background(), "Brazil"))
	s.Add("Chile")
	require.NoError(t, s.Refresh(context.Background()))

	s.SetIndicator("population")
	state, _ := s.State()
	assert.Equal(t, StateIdle, state)
	_, ok := s.Record("Chile")
	assert.False(t, ok)

	require.NoError(t, s.LoadMain(context.Background()))
	require.NoError(t, s.Refresh(context.Background()))
	c := s.Chart()
	assert.Equal(t, "population", c.Title)
	assert.Equal(t, c.Title, s.Title())
	assert.Equal(t, series.Series{{Year: 2000, Value: 170}}, c.Lines[0].Points)
	assert.Equal(t, series.Series{{Year: 2000, Value: 15}}, c.Lines[1].Points)
	assert.Equal(t, 2, f.count("Chile"))
}

func TestSessionClose(t *testing.T) {
	f := fixtures()
	s := NewSession(f, "gdp", Options{})
	require.NoError(t, s.SetMain(context.Background(), "Brazil"))
	s.Add("Chile")
	require.NoError(t, s.Refresh(context.Background()))

	s.Close()
	assert.Empty(t, s.Compared())
	assert.Equal(t, "", s.Main())
	assert.Empty(t, s.Chart().Lines)

	s.Add("Chile")
	require.NoError(t, s.Refresh(context.Background()))
	assert.Equal(t, 2, f.count("Chile"))
}

func TestSessionSetMainDropsComparison(t *testing.T) {
	f := fixtures()
	s := NewSession(f, "gdp", Options{})
	s.Add("Chile")
	s.Add("Peru")
	require.NoError(t, s.SetMain(context.Background(), "Chile"))
	assert.Equal(t, []string{"Peru"}, s.Compared())
}

func TestSessionConcurrentRefresh(t *testing.T) {
	f := newFakeFetcher()
	s := NewSession(f, "gdp", Options{Concurrency: 3})
	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("Country %02d", i)
		f.records[name+"/gdp"] = fmt.Sprintf(`{"gdp_2000": %d}`, i)
		s.Add(name)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Refresh(context.Background()))
		}()
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		name := fmt.Sprintf("Country %02d", i)
		assert.Equal(t, 1, f.count(name), name)
		rec, ok := s.Record(name)
		require.True(t, ok, name)
		assert.Equal(t, series.Series{{Year: 2000, Value: float64(i)}}, series.Extract(rec, "gdp"))
	}
}
