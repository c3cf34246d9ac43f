package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/realtimehub/internal/app"
	"github.com/nfrund/realtimehub/internal/config"
	"github.com/nfrund/realtimehub/internal/eventlog"
	"github.com/nfrund/realtimehub/internal/logging"
)

var (
	configPath  string
	application *app.App
)

var rootCmd = &cobra.Command{
	Use:   "realtimehub",
	Short: "Clients for the RealtimeHub polling, server-sent and web-socket demos",
	Long: `realtimehub drives the three real-time demonstrations of the RealtimeHub
backend from a terminal, or serves them as a small web dashboard.

Available commands:
  login / logout / whoami   Manage the stored session
  poll                      Refresh the weather snapshot on a fixed interval
  sse                       Stream stock quotes for a client ID
  chat                      Talk to another user over the chat socket
  serve                     Run the web dashboard

Configuration is read from .env, the optional --config YAML file and the
API_URL, SOCKET_PATH, POLL_INTERVAL, SESSION_BACKEND, SESSION_PATH,
DASHBOARD_ADDR and SESSION_SECRET environment variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.New()
		cfg, err := config.New(configPath)
		if err != nil {
			return err
		}
		application = app.New(cmd.Context(), cfg)
		return nil
	},
}

// Execute runs the root command bound to ctx. The application built for the
// command is closed afterwards, whether or not the command failed.
func Execute(ctx context.Context) error {
	err := rootCmd.ExecuteContext(ctx)
	return errors.Join(err, closeApplication())
}

func closeApplication() error {
	if application == nil {
		return nil
	}
	err := application.Close()
	application = nil
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
}

// printLog mirrors event log entries of source to the command's stderr.
func printLog(cmd *cobra.Command, source string) {
	log := app.MustResolve[*eventlog.Log](application)
	out := cmd.ErrOrStderr()
	log.OnEntry(func(e eventlog.Entry) {
		if e.Source != source {
			return
		}
		fmt.Fprintf(out, "[%s] %s %s\n", e.Timestamp.Format("15:04:05"), e.Level, e.Message)
	})
}
