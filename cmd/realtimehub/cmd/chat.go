package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nfrund/realtimehub/internal/app"
	"github.com/nfrund/realtimehub/internal/chat"
	"github.com/nfrund/realtimehub/internal/dashboard/views"
	"github.com/nfrund/realtimehub/internal/domain"
	"github.com/nfrund/realtimehub/internal/httpapi"
	"github.com/nfrund/realtimehub/internal/session"
)

var chatTo string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with another user over the socket",
	Long: `Connect to the chat socket with the stored token, print the contact list
and every incoming message, and send each line read from stdin to the
contact given by --to. Requires a prior "realtimehub login".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		out := cmd.OutOrStdout()

		sessions := app.MustResolve[*session.Manager](application)
		sess, ok, err := sessions.Current(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("not logged in, run realtimehub login first")
		}

		connector := app.MustResolve[*chat.Connector](application)
		sock, err := connector.Connect(ctx, sess.Token)
		if err != nil {
			return fmt.Errorf("connect: %s", domain.Message(err))
		}
		defer connector.Disconnect()

		room := chat.NewRoom(app.MustResolve[*httpapi.Client](application), sess,
			chat.OnUsers(func(users []domain.Contact) {
				fmt.Fprintln(out, "-- contacts --")
				for _, u := range users {
					if u.Email == sess.Username {
						continue
					}
					state := "offline"
					if u.Online {
						state = "online"
					}
					fmt.Fprintf(out, "  %s <%s> %s\n", u.Name, u.Email, state)
				}
			}),
			chat.OnMessage(func(m domain.ChatMessage) {
				fmt.Fprintf(out, "[%s] %s: %s\n", views.FormatClock(m.Timestamp), m.From, m.Message)
			}),
		)
		room.Bind(sock)
		defer func() {
			room.Unbind()
			_ = sessions.ForgetName(ctx)
		}()

		if chatTo != "" {
			if err := room.Select(ctx, domain.Contact{Name: chatTo, Email: chatTo}); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error fetching chat history: %s\n", domain.Message(err))
			}
			for _, m := range room.Messages() {
				fmt.Fprintf(out, "[%s] %s: %s\n", views.FormatClock(m.Timestamp), m.From, m.Message)
			}
		}

		lines := make(chan string)
		go func() {
			defer close(lines)
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				lines <- scanner.Text()
			}
		}()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-sock.Done():
				return fmt.Errorf("chat socket closed: %v", sock.Err())
			case line, ok := <-lines:
				if !ok {
					return nil
				}
				if err := room.Send(ctx, strings.TrimRight(line, "\r")); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Message not sent: %s\n", domain.Message(err))
				}
			}
		}
	},
}

func init() {
	chatCmd.Flags().StringVar(&chatTo, "to", "", "email of the contact to talk to")
	rootCmd.AddCommand(chatCmd)
}
