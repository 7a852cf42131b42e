package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezkam/pomotodo/internal/application/worksession"
	"github.com/rezkam/pomotodo/internal/domain"
	"github.com/rezkam/pomotodo/internal/infrastructure/http/handler"
)

func newSessionCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Control the pomodoro work session",
	}

	transitions := []struct {
		use   string
		short string
		fn    func(*worksession.Service, context.Context) (worksession.State, error)
	}{
		{"start", "Start a work session with the current settings", (*worksession.Service).Start},
		{"pause", "Pause the session; remaining time is frozen", (*worksession.Service).Pause},
		{"resume", "Resume a paused session", (*worksession.Service).Resume},
		{"break", "Take a break now", (*worksession.Service).StartBreak},
		{"work", "End the current break and get back to work", (*worksession.Service).EndBreak},
		{"end", "End the session", (*worksession.Service).End},
	}
	for _, tr := range transitions {
		cmd.AddCommand(&cobra.Command{
			Use:   tr.use,
			Short: tr.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				st, err := tr.fn(rt.app.Session, cmd.Context())
				if err != nil {
					return err
				}
				return rt.printState(cmd, st)
			},
		})
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.printState(cmd, rt.app.Session.Status(cmd.Context()))
		},
	})
	return cmd
}

func (rt *runtime) printState(cmd *cobra.Command, st worksession.State) error {
	return rt.print(cmd, handler.MapStateToDTO(st), func(w io.Writer) {
		fmt.Fprintln(w, describeState(st))
	})
}

// describeState renders the session as one line.
func describeState(st worksession.State) string {
	snap := st.Snapshot
	if !snap.Active {
		return "No active session"
	}

	paused := ""
	if snap.IsPaused {
		paused = " (paused)"
	}
	switch snap.Phase {
	case domain.PhaseBreak:
		return fmt.Sprintf("On break%s: %s left of break, %s left in session",
			paused, clockDuration(snap.BreakRemaining), clockDuration(snap.Remaining))
	default:
		return fmt.Sprintf("Working%s: %s until break, %s left in session, %d breaks taken",
			paused, clockDuration(snap.UntilNextBreak), clockDuration(snap.Remaining), snap.BreakCount)
	}
}

// clockDuration formats d as h:mm:ss or m:ss.
func clockDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d % time.Hour / time.Minute)
	s := int(d % time.Minute / time.Second)
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
