package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezkam/pomotodo/internal/infrastructure/http/handler"
	"github.com/rezkam/pomotodo/internal/session"
)

func newNotificationsCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "notifications",
		Short: "List pending notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pending, err := rt.app.Queue.ListPending(cmd.Context())
			if err != nil {
				return err
			}
			dtos := make([]handler.NotificationDTO, len(pending))
			for i, n := range pending {
				dtos[i] = handler.MapNotificationToDTO(n)
			}
			return rt.print(cmd, handler.ListNotificationsResponse{Notifications: dtos}, func(w io.Writer) {
				if len(pending) == 0 {
					fmt.Fprintln(w, "Nothing pending")
					return
				}
				for _, n := range pending {
					fmt.Fprintf(w, "%s  %s\n", n.FireAt.Local().Format(time.Kitchen), n.Title)
				}
			})
		},
	}
}

func newWatchCommand(rt *runtime) *cobra.Command {
	var every time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Run the reminder and session loop in the foreground until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sched, err := rt.app.NewScheduler()
			if err != nil {
				return err
			}

			done := make(chan error, 1)
			go func() { done <- sched.Start(ctx) }()

			ticker := rt.app.Clock.NewTicker(time.Second)
			defer ticker.Stop()

			w := cmd.OutOrStdout()
			var (
				last      session.Snapshot
				lastPrint time.Time
			)
			for {
				select {
				case <-ctx.Done():
					return <-done
				case now := <-ticker.C():
					st := rt.app.Session.Status(ctx)
					snap := st.Snapshot
					changed := snap.Active != last.Active || snap.Phase != last.Phase || snap.IsPaused != last.IsPaused
					if changed || now.Sub(lastPrint) >= every {
						fmt.Fprintf(w, "%s  %s\n", now.Local().Format(time.TimeOnly), describeState(st))
						last, lastPrint = snap, now
					}
				}
			}
		},
	}
	cmd.Flags().DurationVar(&every, "every", time.Minute, "Print the session state at least this often")
	return cmd
}
