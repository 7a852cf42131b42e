package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezkam/pomotodo/internal/domain"
	"github.com/rezkam/pomotodo/internal/infrastructure/http/handler"
)

func newReminderCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminder",
		Short: "Manage task reminders",
	}
	cmd.AddCommand(
		newReminderSetCommand(rt),
		newReminderClearCommand(rt),
		newReminderNextCommand(rt),
	)
	return cmd
}

func newReminderSetCommand(rt *runtime) *cobra.Command {
	var (
		at string
		in domain.ReminderInput
	)

	cmd := &cobra.Command{
		Use:   "set <task-id>",
		Short: "Attach a reminder to a task, replacing any existing one",
		Example: `  pomoctl reminder set 0192... --at 2026-06-01T09:00:00+02:00 --repeat weekly --days 1,3,5
  pomoctl reminder set 0192... --at 2026-06-01T18:30:00Z --sound bell`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := time.Parse(time.RFC3339, at)
			if err != nil {
				return fmt.Errorf("--at must be an RFC 3339 time: %w", err)
			}
			in.Date = date

			task, err := rt.app.Todo.SetReminder(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			return rt.print(cmd, handler.MapTaskToDTO(*task), func(w io.Writer) {
				fmt.Fprintf(w, "Reminder set for %q (%s)\n", task.Title, task.Reminder.RepeatType)
			})
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "First occurrence as RFC 3339, e.g. 2026-06-01T09:00:00Z")
	cmd.Flags().StringVarP(&in.RepeatType, "repeat", "r", "", "none, daily, weekly or monthly")
	cmd.Flags().IntSliceVar(&in.Days, "days", nil, "Weekdays (0=Sunday) for weekly, days of month for monthly")
	cmd.Flags().StringVar(&in.Sound, "sound", "", "Notification sound")
	cmd.Flags().StringVar(&in.Timezone, "tz", "", "IANA timezone occurrences are computed in (default local)")
	_ = cmd.MarkFlagRequired("at")
	return cmd
}

func newReminderClearCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "clear <task-id>",
		Short: "Remove a task's reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := rt.app.Todo.RemoveReminder(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rt.print(cmd, handler.MapTaskToDTO(*task), func(w io.Writer) {
				fmt.Fprintf(w, "Reminder removed from %q\n", task.Title)
			})
		},
	}
}

func newReminderNextCommand(rt *runtime) *cobra.Command {
	var (
		count int
		after string
	)

	cmd := &cobra.Command{
		Use:   "next <task-id>",
		Short: "Preview upcoming occurrences of a task's reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from := rt.app.Clock.Now()
			if after != "" {
				t, err := time.Parse(time.RFC3339, after)
				if err != nil {
					return fmt.Errorf("--after must be an RFC 3339 time: %w", err)
				}
				from = t
			}

			occurrences, err := rt.app.Todo.NextOccurrences(cmd.Context(), args[0], from, count)
			if err != nil {
				return err
			}
			if occurrences == nil {
				occurrences = []time.Time{}
			}
			return rt.print(cmd, handler.OccurrencesResponse{Occurrences: occurrences}, func(w io.Writer) {
				if len(occurrences) == 0 {
					fmt.Fprintln(w, "No upcoming occurrences")
					return
				}
				for _, o := range occurrences {
					fmt.Fprintln(w, o.Local().Format(time.RFC1123))
				}
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 5, "How many occurrences to show")
	cmd.Flags().StringVar(&after, "after", "", "Start from this RFC 3339 time instead of now")
	return cmd
}
