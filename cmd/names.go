package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/atlasview/atlasview/internal/server"
	"github.com/atlasview/atlasview/pkg/names"
	"github.com/spf13/cobra"
)

// namesCmd represents the names command
var namesCmd = &cobra.Command{
	Use:   "names <name>",
	Short: "Show every known spelling of a country",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		info := server.LookupName(args[0])
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}
		fmt.Printf("Backend:  %s\n", info.Backend)
		fmt.Printf("Display:  %s\n", info.Display)
		fmt.Printf("Geometry: %s\n", info.Geometry)
		fmt.Printf("ISO2:     %s\n", info.ISO2)
		if len(info.Aliases) > 0 {
			fmt.Printf("Aliases:  %s\n", strings.Join(info.Aliases, ", "))
		}
		return nil
	},
}

var normalizeCmd = &cobra.Command{
	Use:   "normalize <name>",
	Short: "Print the backend spelling of a country name",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(names.Normalize(args[0]))
	},
}

var displayCmd = &cobra.Command{
	Use:   "display <backend name>",
	Short: "Print the common spelling of a backend country name",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(names.DisplayName(args[0]))
	},
}

var geometryCmd = &cobra.Command{
	Use:   "geometry <name>",
	Short: "Print the map geometry name of a country",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(names.GeometryName(args[0]))
	},
}

var fromGeometryCmd = &cobra.Command{
	Use:   "from-geometry <geometry name>",
	Short: "Print the common spelling of a map geometry name",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(names.FromGeometry(args[0]))
	},
}

func init() {
	rootCmd.AddCommand(namesCmd)
	namesCmd.Flags().Bool("json", false, "Print as JSON")
	namesCmd.AddCommand(normalizeCmd, displayCmd, geometryCmd, fromGeometryCmd)
}
