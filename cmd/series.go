package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/atlasview/atlasview/internal/utils"
	"github.com/atlasview/atlasview/pkg/catalog"
	"github.com/atlasview/atlasview/pkg/compare"
	"github.com/atlasview/atlasview/pkg/series"
	"github.com/atlasview/atlasview/pkg/storage"
	"github.com/spf13/cobra"
)

// seriesCmd represents the series command
var seriesCmd = &cobra.Command{
	Use:   "series <country>",
	Short: "Print the year series of an indicator for a country",
	Long: `Fetches the record of a country from the data API and prints the year series
of the chosen indicator. Use --compare to add comparison countries.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		indicator := indicatorFlag(cmd)
		compareList, _ := cmd.Flags().GetString("compare")
		asJSON, _ := cmd.Flags().GetBool("json")
		save, _ := cmd.Flags().GetBool("save")

		ctx := context.Background()
		sess, skipped, mainErr := loadSession(ctx, client, indicator, args[0], utils.SplitList(compareList))
		defer sess.Close()

		for _, name := range skipped {
			utils.Log.Warnf("Skipping %s: duplicate or main country", name)
		}
		if mainErr != nil {
			utils.Log.Errorf("Could not load %s: %v", args[0], mainErr)
			if s := catalog.Suggest(args[0]); len(s) > 0 {
				utils.Log.Infof("Did you mean: %s?", strings.Join(s, ", "))
			}
		}
		if err := sess.Refresh(ctx); err != nil {
			utils.Log.Warnf("Some comparison countries could not be loaded: %v", err)
		}

		chart := sess.Chart()
		if save {
			if err := saveChart(ctx, cmd, chart); err != nil {
				return err
			}
		}

		if asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(chart)
		}
		printChart(chart)

		if len(chart.Lines) > 0 && chart.Lines[0].Main && chart.Lines[0].Loaded && len(chart.Lines[0].Points) == 0 {
			if rec, ok := sess.Record(chart.Lines[0].Name); ok {
				if ind := series.Indicators(rec); len(ind) > 0 {
					fmt.Printf("\nNo %q data. Available indicators: %s\n", indicator, strings.Join(ind, ", "))
				}
			}
		}
		if state, err := sess.State(); state == compare.StateFailed {
			return err
		}
		return nil
	},
}

// loadSession selects the main country, then adds the comparison countries.
// It returns the comparison names the set refused and the main fetch error.
func loadSession(ctx context.Context, f compare.Fetcher, indicator, main string, others []string) (*compare.Session, []string, error) {
	sess := compare.NewSession(f, indicator, sessionOptions())
	mainErr := sess.SetMain(ctx, main)

	var skipped []string
	for _, name := range others {
		if !sess.Add(name) {
			skipped = append(skipped, name)
		}
	}
	return sess, skipped, mainErr
}

func printChart(c compare.Chart) {
	fmt.Printf("%s\n\n", c.Title)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "COUNTRY\tISO\tMAP NAME\tCOLOR\tYEARS\tLATEST\t")
	for _, l := range c.Lines {
		label := l.Display
		if l.Main {
			label += " *"
		}
		years, latest := "-", "-"
		if first, last, ok := l.Points.Years(); ok {
			years = fmt.Sprintf("%d-%d", first, last)
			latest = strconv.FormatFloat(l.Points[len(l.Points)-1].Value, 'g', -1, 64)
		} else if l.Error != "" {
			latest = "error: " + l.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t\n", label, l.ISO2, l.Geometry, l.Color, years, latest)
	}
	w.Flush()

	for _, l := range c.Lines {
		if len(l.Points) == 0 {
			continue
		}
		fmt.Printf("\n%s\n", l.Display)
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		for _, p := range l.Points {
			fmt.Fprintf(w, "%d\t%s\t\n", p.Year, strconv.FormatFloat(p.Value, 'f', -1, 64))
		}
		w.Flush()
	}
}

// saveChart stores every loaded line of the chart as a snapshot.
func saveChart(ctx context.Context, cmd *cobra.Command, c compare.Chart) error {
	dbPath, _ := cmd.Flags().GetString("dbpath")
	absPath, err := utils.GetAbsDBPath(dbPath)
	if err != nil {
		return err
	}
	lock, err := utils.NewDBLock(absPath)
	if err != nil {
		return err
	}
	if err := lock.LockContext(ctx); err != nil {
		return err
	}
	defer lock.Unlock()

	db, err := storage.Open(absPath)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, l := range c.Lines {
		if !l.Loaded {
			continue
		}
		if err := db.SaveSeries(ctx, l.Name, c.Indicator, l.Points); err != nil {
			return fmt.Errorf("saving %s: %w", l.Name, err)
		}
		utils.Log.Infof("Saved %d points for %s (%s)", len(l.Points), l.Backend, c.Indicator)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(seriesCmd)
	seriesCmd.Flags().StringP("indicator", "i", "", "Indicator to extract (default from config)")
	seriesCmd.Flags().StringP("compare", "c", "", "Comma separated comparison countries")
	seriesCmd.Flags().Bool("json", false, "Print the chart as JSON")
	seriesCmd.Flags().Bool("save", false, "Store the loaded series in the snapshot database")
	seriesCmd.Flags().String("dbpath", "", "Snapshot database path (default ~/.config/atlasview/atlasview.sqlite)")
}
