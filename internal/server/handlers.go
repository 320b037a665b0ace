package server

import (
	"net/http"
	"strings"

	"github.com/atlasview/atlasview/internal/utils"
	"github.com/atlasview/atlasview/pkg/catalog"
	"github.com/atlasview/atlasview/pkg/compare"
	"github.com/atlasview/atlasview/pkg/names"
	"github.com/atlasview/atlasview/pkg/series"
	"github.com/labstack/echo/v4"
)

// listParam collects a repeated and/or comma-separated query parameter.
func listParam(c echo.Context, key string) []string {
	var out []string
	for _, v := range c.QueryParams()[key] {
		out = append(out, utils.SplitList(v)...)
	}
	return out
}

// mainCountry reads the selected country, accepting a map feature name
// through the geometry parameter.
func mainCountry(c echo.Context) string {
	if country := strings.TrimSpace(c.QueryParam("country")); country != "" {
		return country
	}
	if geo := strings.TrimSpace(c.QueryParam("geometry")); geo != "" {
		return names.FromGeometry(geo)
	}
	return ""
}

func (s *Server) indicator(c echo.Context) string {
	if ind := strings.TrimSpace(c.QueryParam("indicator")); ind != "" {
		return ind
	}
	return s.cfg.Indicator
}

func (s *Server) handleChart(c echo.Context) error {
	country := mainCountry(c)
	if country == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "country or geometry is required")
	}
	indicator := s.indicator(c)
	if indicator == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "indicator is required")
	}

	sess := compare.NewSession(s.cfg.Fetcher, indicator, compare.Options{
		Palette:     s.cfg.Palette,
		Concurrency: s.cfg.Concurrency,
		Log:         s.cfg.Log,
	})
	ctx := c.Request().Context()
	mainErr := sess.SetMain(ctx, country)
	for _, name := range listParam(c, "compare") {
		sess.Add(name)
	}
	if err := sess.Refresh(ctx); err != nil {
		s.cfg.Log.Debugf("Some comparisons failed: %v", err)
	}

	status := http.StatusOK
	if mainErr != nil {
		status = http.StatusBadGateway
	}
	return c.JSON(status, sess.Chart())
}

func (s *Server) handleIndicators(c echo.Context) error {
	country := mainCountry(c)
	if country == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "country or geometry is required")
	}
	rec, err := s.cfg.Fetcher.Fetch(c.Request().Context(), country, s.indicator(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"country":    country,
		"indicators": series.Indicators(rec),
	})
}

// NameInfo is every spelling known for one country.
type NameInfo struct {
	Input    string   `json:"input"`
	Backend  string   `json:"backend"`
	Display  string   `json:"display"`
	Geometry string   `json:"geometry"`
	Aliases  []string `json:"aliases"`
	ISO2     string   `json:"iso2,omitempty"`
}

// LookupName resolves a name in any vocabulary.
func LookupName(name string) NameInfo {
	backend := names.Normalize(names.FromGeometry(name))
	return NameInfo{
		Input:    name,
		Backend:  backend,
		Display:  names.DisplayName(backend),
		Geometry: names.GeometryName(backend),
		Aliases:  names.Default().Aliases(backend),
		ISO2:     catalog.ISO2(name),
	}
}

func (s *Server) handleNames(c echo.Context) error {
	name := strings.TrimSpace(c.QueryParam("name"))
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name is required")
	}
	return c.JSON(http.StatusOK, LookupName(name))
}

func (s *Server) handleSearch(c echo.Context) error {
	q := c.QueryParam("q")
	res := map[string][]string{
		"results": catalog.Search(q, listParam(c, "exclude")...),
	}
	if len(res["results"]) == 0 && len([]rune(strings.TrimSpace(q))) >= catalog.MinSearchLen {
		res["suggestions"] = catalog.Suggest(q)
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handlePalette(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"main":   compare.MainColor(s.cfg.Palette),
		"colors": s.cfg.Palette,
	})
}
