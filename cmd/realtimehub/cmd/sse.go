package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nfrund/realtimehub/internal/app"
	"github.com/nfrund/realtimehub/internal/domain"
	"github.com/nfrund/realtimehub/internal/eventlog"
	"github.com/nfrund/realtimehub/internal/httpapi"
	"github.com/nfrund/realtimehub/internal/sse"
)

var (
	sseClientID string
	sseSymbols  []string
)

var sseCmd = &cobra.Command{
	Use:   "sse",
	Short: "Stream stock quotes for a client ID",
	Long: `Open GET /sse/stream/{clientId}, subscribe to the given symbols and print
every price update until interrupted or the stream fails.

Example:
  realtimehub sse --client-id poc-client-001 --symbols AAPL,MSFT`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()
		printLog(cmd, sse.Source)

		ended := make(chan struct{}, 1)
		client := sse.New(app.MustResolve[*httpapi.Client](application),
			sse.WithSink(app.MustResolve[eventlog.Sink](application)),
			sse.OnMessage(func(msg domain.SSEMessage) {
				quotes, err := msg.Quotes()
				if msg.Type != domain.SSEPriceUpdate || err != nil {
					return
				}
				for _, q := range quotes {
					fmt.Fprintf(out, "%-6s $%.2f %+.2f (%+.2f%%)\n", q.Symbol, q.Price, q.Change, q.ChangePercent)
				}
			}),
			sse.OnStatus(func(s domain.Status) {
				if s.Message == "Connection error" {
					select {
					case ended <- struct{}{}:
					default:
					}
				}
			}),
		)

		if err := client.Connect(ctx, sseClientID); err != nil {
			return fmt.Errorf("connect: %s", domain.Message(err))
		}
		defer client.Disconnect(ctx)

		if len(sseSymbols) > 0 {
			if err := client.Subscribe(ctx, sseClientID, sseSymbols); err != nil {
				return fmt.Errorf("subscribe: %s", domain.Message(err))
			}
		}

		select {
		case <-ctx.Done():
			if len(sseSymbols) > 0 {
				_ = client.Unsubscribe(context.WithoutCancel(ctx), sseClientID, sseSymbols)
			}
			return nil
		case <-ended:
			return fmt.Errorf("stream for %s ended", sseClientID)
		}
	},
}

func init() {
	sseCmd.Flags().StringVar(&sseClientID, "client-id", sse.DefaultClientID, "client ID the stream is opened for")
	sseCmd.Flags().StringSliceVar(&sseSymbols, "symbols", nil, "symbols to subscribe to, e.g. AAPL,GOOGL,MSFT")
	rootCmd.AddCommand(sseCmd)
}
