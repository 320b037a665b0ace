package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/atlasview/atlasview/internal/utils"
	"github.com/atlasview/atlasview/pkg/names"
	"github.com/atlasview/atlasview/pkg/series"
	"github.com/atlasview/atlasview/pkg/storage"
	"github.com/spf13/cobra"
)

var dbPath string

// dbCmd represents the db command
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Interact with the snapshot database",
}

func openDB(cmd *cobra.Command) (*storage.DB, error) {
	p, _ := cmd.Parent().PersistentFlags().GetString("dbpath")
	absPath, err := utils.GetAbsDBPath(p)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database file not found: %s", absPath)
	}
	return storage.Open(absPath)
}

// listCmd represents the db list command
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored series",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		snaps, err := db.ListSnapshots(context.Background())
		if err != nil {
			return err
		}
		if len(snaps) == 0 {
			fmt.Println("No stored series.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "COUNTRY\tINDICATOR\tPOINTS\tYEARS\tSAVED\t")
		for _, s := range snaps {
			fmt.Fprintf(w, "%s\t%s\t%d\t%d-%d\t%s\t\n",
				names.DisplayName(s.Country), s.Indicator, s.Points, s.FirstYear, s.LastYear, s.SavedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

// showCmd represents the db show command
var showCmd = &cobra.Command{
	Use:   "show <country> <indicator>",
	Short: "Print a stored series",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		points, err := db.LoadSeries(context.Background(), args[0], args[1])
		if err != nil {
			return err
		}
		if len(points) == 0 {
			return fmt.Errorf("no stored %s series for %s", args[1], names.Normalize(args[0]))
		}

		fmt.Printf("%s: %s\n\n", names.DisplayName(names.Normalize(args[0])), series.Title(args[1]))
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.AlignRight)
		for _, p := range points {
			fmt.Fprintf(w, "%d\t%s\t\n", p.Year, strconv.FormatFloat(p.Value, 'f', -1, 64))
		}
		return w.Flush()
	},
}

// deleteCmd represents the db delete command
var deleteCmd = &cobra.Command{
	Use:   "delete <country> <indicator>",
	Short: "Remove a stored series",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, _ := cmd.Parent().PersistentFlags().GetString("dbpath")
		lock, err := utils.NewDBLock(p)
		if err != nil {
			return err
		}
		if err := lock.Lock(); err != nil {
			return err
		}
		defer lock.Unlock()

		db, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer db.Close()

		n, err := db.DeleteSeries(context.Background(), args[0], args[1])
		if err != nil {
			return err
		}
		utils.Log.Infof("Removed %d points", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
	dbCmd.PersistentFlags().StringVar(&dbPath, "dbpath", "", "Path to SQLite DB file (default ~/.config/atlasview/atlasview.sqlite)")
	dbCmd.AddCommand(listCmd, showCmd, deleteCmd)
}
