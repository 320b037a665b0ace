package main

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/atlasview/atlasview/pkg/compare"
	"github.com/atlasview/atlasview/pkg/dataapi"
)

func main() {
	// Usage: go run *.go -country "South Korea" -compare "Japan,China" -indicator gdp

	countryFlag := flag.String("country", "", "Main country")
	compareFlag := flag.String("compare", "", "Comma separated comparison countries")
	indicatorFlag := flag.String("indicator", "gdp", "Indicator")
	apiFlag := flag.String("api", dataapi.DefaultBaseURL, "Data API base URL")

	// Parse the command-line flags
	flag.Parse()

	if *countryFlag == "" {
		fmt.Println("Country is required. Please provide it using -country flag.")
		return
	}

	client, err := dataapi.NewClient(dataapi.Config{BaseURL: *apiFlag, Retries: 2, Timeout: 10 * time.Second})
	if err != nil {
		fmt.Println(err)
		return
	}

	ctx := context.Background()
	sess := compare.NewSession(client, *indicatorFlag, compare.Options{})
	defer sess.Close()

	for _, c := range strings.Split(*compareFlag, ",") {
		sess.Add(strings.TrimSpace(c))
	}
	if err := sess.SetMain(ctx, *countryFlag); err != nil {
		fmt.Println(err)
	}
	if err := sess.Refresh(ctx); err != nil {
		fmt.Println(err)
	}

	for _, line := range sess.Chart().Lines {
		for _, p := range line.Points {
			fmt.Println(line.Display, line.Color, p.Year, p.Value)
		}
	}
}
