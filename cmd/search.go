package cmd

import (
	"fmt"
	"strings"

	"github.com/atlasview/atlasview/internal/utils"
	"github.com/atlasview/atlasview/pkg/catalog"
	"github.com/spf13/cobra"
)

// searchCmd represents the search command
var searchCmd = &cobra.Command{
	Use:   "search <term>",
	Short: "Find countries whose name contains a term",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exclude, _ := cmd.Flags().GetString("exclude")
		results := catalog.Search(args[0], utils.SplitList(exclude)...)
		if len(results) == 0 {
			if s := catalog.Suggest(args[0]); len(s) > 0 {
				return fmt.Errorf("no country matches %q, did you mean: %s?", args[0], strings.Join(s, ", "))
			}
			return fmt.Errorf("no country matches %q", args[0])
		}
		for _, name := range results {
			fmt.Printf("%s\t%s\n", catalog.ISO2(name), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().StringP("exclude", "e", "", "Comma separated countries to leave out")
}
