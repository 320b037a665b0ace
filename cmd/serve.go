package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/atlasview/atlasview/internal/server"
	"github.com/atlasview/atlasview/internal/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve chart data to the browser map",
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newAPIClient()
		if err != nil {
			return err
		}
		opts := sessionOptions()
		srv := server.New(server.Config{
			Fetcher:     client,
			Indicator:   viper.GetString("indicator"),
			Palette:     opts.Palette,
			Concurrency: opts.Concurrency,
			Log:         utils.Log,
		})

		listen := viper.GetString("serve.listen")
		errCh := make(chan error, 1)
		go func() {
			utils.Log.Infof("Listening on %s (data API %s)", listen, viper.GetString("api.baseurl"))
			errCh <- srv.Start(listen)
		}()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-stop:
		}

		utils.Log.Info("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("listen", ":8080", "Address to listen on")
	viper.BindPFlag("serve.listen", serveCmd.Flags().Lookup("listen"))
}
