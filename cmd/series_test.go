package cmd

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/atlasview/atlasview/pkg/series"
)

type recordFetcher map[string]string

func (f recordFetcher) Fetch(_ context.Context, country, indicator string) (series.Record, error) {
	raw, ok := f[country]
	if !ok {
		return series.Record{}, errors.New("not found")
	}
	return series.NewRecord(raw), nil
}

func TestLoadSessionReportsMainInCompareList(t *testing.T) {
	f := recordFetcher{
		"Brazil": `{"gdp_2000": 1}`,
		"Chile":  `{"gdp_2000": 2}`,
	}
	sess, skipped, err := loadSession(context.Background(), f, "gdp", "Brazil", []string{"Chile", "Brazil", "Chile"})
	if err != nil {
		t.Fatal(err)
	}
	defer sess.Close()

	if want := []string{"Brazil", "Chile"}; !reflect.DeepEqual(skipped, want) {
		t.Fatalf("skipped = %v, want %v", skipped, want)
	}
	if want := []string{"Chile"}; !reflect.DeepEqual(sess.Compared(), want) {
		t.Fatalf("compared = %v, want %v", sess.Compared(), want)
	}
}

func TestLoadSessionMainFailure(t *testing.T) {
	f := recordFetcher{"Chile": `{"gdp_2000": 2}`}
	sess, skipped, err := loadSession(context.Background(), f, "gdp", "Atlantis", []string{"Chile"})
	if err == nil {
		t.Fatal("expected the main fetch to fail")
	}
	defer sess.Close()

	if len(skipped) != 0 {
		t.Fatalf("nothing should be skipped, got %v", skipped)
	}
	if sess.Main() != "Atlantis" {
		t.Fatalf("main = %q", sess.Main())
	}
}
