package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/nfrund/realtimehub/internal/app"
	"github.com/nfrund/realtimehub/internal/auth"
	"github.com/nfrund/realtimehub/internal/chat"
	"github.com/nfrund/realtimehub/internal/config"
	"github.com/nfrund/realtimehub/internal/dashboard"
	"github.com/nfrund/realtimehub/internal/eventlog"
	"github.com/nfrund/realtimehub/internal/httpapi"
	"github.com/nfrund/realtimehub/internal/polling"
	"github.com/nfrund/realtimehub/internal/session"
	"github.com/nfrund/realtimehub/internal/sse"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web dashboard",
	Long: `Serve the home, login, polling, server-sent and web-socket pages.
The dashboard shares the session store with the other commands, so a
"realtimehub logout" in another terminal closes its chat socket.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		cfg := application.Config

		sessions := app.MustResolve[*session.Manager](application)
		srv := dashboard.New(ctx, dashboard.Deps{
			Sessions:      sessions,
			Auth:          app.MustResolve[*auth.Client](application),
			API:           app.MustResolve[*httpapi.Client](application),
			Poller:        app.MustResolve[*polling.Poller](application),
			PollInterval:  cfg.PollInterval,
			SSE:           app.MustResolve[*sse.Client](application),
			Log:           app.MustResolve[*eventlog.Log](application),
			Connector:     app.MustResolve[*chat.Connector](application),
			SessionSecret: cfg.SessionSecret,
		})

		if cfg.SessionBackend != config.BackendMemory {
			if err := session.Watch(ctx, cfg.SessionPath, func() { srv.OnSessionChange(ctx) }); err != nil {
				slog.Warn("Session changes from other processes will not be noticed", "error", err)
			}
		}

		addr := serveAddr
		if addr == "" {
			addr = cfg.DashboardAddr
		}
		slog.Info("Starting dashboard", "addr", addr, "api", cfg.APIURL)
		return srv.Start(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (defaults to DASHBOARD_ADDR)")
	rootCmd.AddCommand(serveCmd)
}
