package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atlasview/atlasview/internal/utils"
	"github.com/atlasview/atlasview/pkg/compare"
	"github.com/atlasview/atlasview/pkg/dataapi"
	"github.com/spf13/cobra"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "atlasview",
	Short: "Country indicator series for the world map viewer.",
	Long: `atlasview fetches country indicator records from the data API, turns them into
year series and compares countries side by side, from the command line or
through a small HTTP API for the browser map.`,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return utils.SetLogLevel(viper.GetString("loglevel"))
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.atlasview.yaml)")

	// Global flags
	rootCmd.PersistentFlags().String("api", dataapi.DefaultBaseURL, "Data API base URL")
	rootCmd.PersistentFlags().StringP("proxy", "", "", "HTTP Proxy (Useful for debugging. Example: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")

	viper.BindPFlag("api.baseurl", rootCmd.PersistentFlags().Lookup("api"))
	viper.BindPFlag("api.proxy", rootCmd.PersistentFlags().Lookup("proxy"))
	viper.BindPFlag("loglevel", rootCmd.PersistentFlags().Lookup("loglevel"))
}

func setDefaults() {
	viper.SetDefault("api.baseurl", dataapi.DefaultBaseURL)
	viper.SetDefault("api.retries", 3)
	viper.SetDefault("api.timeout", 15)
	viper.SetDefault("indicator", "gdp")
	viper.SetDefault("palette", compare.DefaultPalette)
	viper.SetDefault("compare.concurrency", 4)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".atlasview")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("atlasview")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".atlasview.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				utils.Log.Debugf("Could not create config file: %v", err)
			}
		} else {
			utils.Log.Warnf("Could not read config: %v", err)
		}
	}
}

// newAPIClient builds a data API client from the current configuration.
func newAPIClient() (*dataapi.Client, error) {
	return dataapi.NewClient(dataapi.Config{
		BaseURL: viper.GetString("api.baseurl"),
		Proxy:   viper.GetString("api.proxy"),
		Retries: viper.GetInt("api.retries"),
		Timeout: time.Duration(viper.GetInt("api.timeout")) * time.Second,
		Logger:  utils.RetryLogger(),
	})
}

// indicatorFlag returns the --indicator flag, falling back to the config.
func indicatorFlag(cmd *cobra.Command) string {
	if ind, _ := cmd.Flags().GetString("indicator"); ind != "" {
		return ind
	}
	return viper.GetString("indicator")
}

func sessionOptions() compare.Options {
	return compare.Options{
		Palette:     viper.GetStringSlice("palette"),
		Concurrency: viper.GetInt("compare.concurrency"),
		Log:         utils.Log,
	}
}
