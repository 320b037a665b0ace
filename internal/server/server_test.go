package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/atlasview/atlasview/pkg/compare"
	"github.com/atlasview/atlasview/pkg/names"
	"github.com/atlasview/atlasview/pkg/series"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubFetcher struct {
	mu      sync.Mutex
	records map[string]string // backend name -> record
	asked   []string
}

func (f *stubFetcher) Fetch(_ context.Context, country, indicator string) (series.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	backend := names.Normalize(country)
	f.asked = append(f.asked, backend)
	raw, ok := f.records[backend]
	if !ok {
		return series.Record{}, errors.New("upstream unavailable")
	}
	return series.NewRecord(raw), nil
}

func newTestServer() (*Server, *stubFetcher) {
	f := &stubFetcher{records: map[string]string{
		"Russian Federation": `{"gdp_2001": 2, "gdp_2000": 1, "population_2000": 146}`,
		"Congo, Dem. Rep.":   `{"gdp_2000": 3}`,
		"Chile":              `{"gdp_2000": 4}`,
	}}
	log := logrus.New()
	log.SetOutput(io.Discard)
	return New(Config{Fetcher: f, Indicator: "gdp", Log: log}), f
}

func get(t *testing.T, s *Server, target string, out interface{}) int {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec.Code
}

func TestChart(t *testing.T) {
	s, _ := newTestServer()

	var chart compare.Chart
	code := get(t, s, "/api/chart?country=Russia&compare=Chile,Peru&compare=Russian%20Federation", &chart)
	require.Equal(t, http.StatusOK, code)

	assert.Equal(t, "gdp", chart.Indicator)
	require.Len(t, chart.Lines, 3, "duplicates of the main country are dropped")

	main := chart.Lines[0]
	assert.True(t, main.Main)
	assert.Equal(t, "Russian Federation", main.Backend)
	assert.Equal(t, "Russia", main.Geometry)
	assert.Equal(t, compare.DefaultPalette[0], main.Color)
	assert.Equal(t, series.Series{{Year: 2000, Value: 1}, {Year: 2001, Value: 2}}, main.Points)

	assert.Equal(t, "Chile", chart.Lines[1].Name)
	assert.Equal(t, compare.DefaultPalette[1], chart.Lines[1].Color)
	assert.Equal(t, series.Series{{Year: 2000, Value: 4}}, chart.Lines[1].Points)

	assert.Equal(t, "Peru", chart.Lines[2].Name)
	assert.Equal(t, "upstream unavailable", chart.Lines[2].Error)
	assert.Empty(t, chart.Lines[2].Points)
}

func TestChartFromGeometry(t *testing.T) {
	s, f := newTestServer()

	var chart compare.Chart
	code := get(t, s, "/api/chart?geometry=Dem.%20Rep.%20Congo&indicator=gdp", &chart)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, chart.Lines, 1)
	assert.Equal(t, "Congo, Dem. Rep.", chart.Lines[0].Backend)
	assert.Equal(t, []string{"Congo, Dem. Rep."}, f.asked)
}

func TestChartMainFailure(t *testing.T) {
	s, _ := newTestServer()

	var chart compare.Chart
	code := get(t, s, "/api/chart?country=Atlantis&compare=Chile", &chart)
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "upstream unavailable", chart.Error)
	require.Len(t, chart.Lines, 2)
	assert.Equal(t, series.Series{{Year: 2000, Value: 4}}, chart.Lines[1].Points)
}

func TestChartRequiresCountry(t *testing.T) {
	s, _ := newTestServer()
	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/chart", nil))
}

func TestIndicators(t *testing.T) {
	s, _ := newTestServer()
	var out struct {
		Indicators []string `json:"indicators"`
	}
	require.Equal(t, http.StatusOK, get(t, s, "/api/indicators?country=Russia", &out))
	assert.Equal(t, []string{"gdp", "population"}, out.Indicators)

	assert.Equal(t, http.StatusBadGateway, get(t, s, "/api/indicators?country=Atlantis", nil))
}

func TestNames(t *testing.T) {
	s, _ := newTestServer()
	var info NameInfo
	require.Equal(t, http.StatusOK, get(t, s, "/api/names?name=South%20Korea", &info))
	assert.Equal(t, "Korea, Rep.", info.Backend)
	assert.Equal(t, "South Korea", info.Display)
	assert.Equal(t, "South Korea", info.Geometry)
	assert.Equal(t, []string{"South Korea", "Republic of Korea"}, info.Aliases)
	assert.Equal(t, "KR", info.ISO2)

	assert.Equal(t, http.StatusBadRequest, get(t, s, "/api/names", nil))
}

func TestSearch(t *testing.T) {
	s, _ := newTestServer()
	var out map[string][]string
	require.Equal(t, http.StatusOK, get(t, s, "/api/search?q=chi&exclude=Chile", &out))
	assert.Contains(t, out["results"], "China")
	assert.NotContains(t, out["results"], "Chile")

	out = nil
	require.Equal(t, http.StatusOK, get(t, s, "/api/search?q=Germny", &out))
	assert.Empty(t, out["results"])
	assert.Contains(t, out["suggestions"], "Germany")
}

func TestPalette(t *testing.T) {
	s, _ := newTestServer()
	var out struct {
		Main   string   `json:"main"`
		Colors []string `json:"colors"`
	}
	require.Equal(t, http.StatusOK, get(t, s, "/api/palette", &out))
	assert.Equal(t, compare.DefaultPalette[0], out.Main)
	assert.Equal(t, compare.DefaultPalette, out.Colors)
}
