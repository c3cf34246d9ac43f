package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nfrund/realtimehub/internal/app"
	"github.com/nfrund/realtimehub/internal/domain"
	"github.com/nfrund/realtimehub/internal/eventlog"
	"github.com/nfrund/realtimehub/internal/httpapi"
	"github.com/nfrund/realtimehub/internal/polling"
)

var pollOnce bool

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "Fetch the weather snapshot on a fixed interval",
	Long: `Fetch GET /api-polling immediately and then every poll interval until
interrupted. A failed fetch keeps the previous snapshot.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		poller := polling.New(app.MustResolve[*httpapi.Client](application),
			polling.WithInterval(application.Config.PollInterval),
			polling.WithSink(app.MustResolve[eventlog.Sink](application)),
			polling.OnUpdate(func(s domain.WeatherSnapshot) { printSnapshot(out, s) }),
		)
		printLog(cmd, polling.Source)

		if pollOnce {
			return poller.Refresh(cmd.Context())
		}
		err := poller.Run(cmd.Context())
		poller.Wait()
		return err
	},
}

func printSnapshot(w io.Writer, s domain.WeatherSnapshot) {
	unit := s.CurrentUnits.Temperature2m
	if unit == "" {
		unit = "°C"
	}
	fmt.Fprintf(w, "%v%s at %s (%.3f°N, %.3f°E)\n",
		s.Current.Temperature2m, unit, s.Current.Time, s.Latitude, s.Longitude)
}

func init() {
	pollCmd.Flags().BoolVar(&pollOnce, "once", false, "fetch a single snapshot and exit")
	rootCmd.AddCommand(pollCmd)
}
