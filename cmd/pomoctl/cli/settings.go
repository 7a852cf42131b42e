package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rezkam/pomotodo/internal/domain"
	"github.com/rezkam/pomotodo/internal/infrastructure/http/handler"
)

func newSettingsCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change work session settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.printSettings(cmd, rt.app.Session.Settings(cmd.Context()))
		},
	})
	cmd.AddCommand(newSettingsSetCommand(rt))
	return cmd
}

func newSettingsSetCommand(rt *runtime) *cobra.Command {
	var values domain.WorkSessionSettings

	cmd := &cobra.Command{
		Use:     "set",
		Short:   "Change settings; only the flags given are applied",
		Example: `  pomoctl settings set --total 2h --interval 50m --break 10m --auto-start=false`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.SettingsPatch
			flags := cmd.Flags()
			if flags.Changed("total") {
				patch.TotalDuration = &values.TotalDuration
			}
			if flags.Changed("interval") {
				patch.BreakInterval = &values.BreakInterval
			}
			if flags.Changed("break") {
				patch.BreakDuration = &values.BreakDuration
			}
			if flags.Changed("auto-start") {
				patch.AutoStartAfterBreak = &values.AutoStartAfterBreak
			}
			if flags.Changed("sound") {
				patch.SoundEnabled = &values.SoundEnabled
			}

			settings, err := rt.app.Session.UpdateSettings(cmd.Context(), patch)
			if err != nil {
				return err
			}
			return rt.printSettings(cmd, settings)
		},
	}
	cmd.Flags().DurationVar(&values.TotalDuration, "total", 0, "Total session length")
	cmd.Flags().DurationVar(&values.BreakInterval, "interval", 0, "Work time between breaks")
	cmd.Flags().DurationVar(&values.BreakDuration, "break", 0, "Break length")
	cmd.Flags().BoolVar(&values.AutoStartAfterBreak, "auto-start", true, "Resume work automatically when a break ends")
	cmd.Flags().BoolVar(&values.SoundEnabled, "sound", true, "Send session notifications")
	return cmd
}

func (rt *runtime) printSettings(cmd *cobra.Command, s domain.WorkSessionSettings) error {
	return rt.print(cmd, handler.MapSettingsToDTO(s), func(w io.Writer) {
		printSettings(w, s)
	})
}

func printSettings(w io.Writer, s domain.WorkSessionSettings) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "total\t%s\n", s.TotalDuration)
	fmt.Fprintf(tw, "break interval\t%s\n", s.BreakInterval)
	fmt.Fprintf(tw, "break\t%s\n", s.BreakDuration)
	fmt.Fprintf(tw, "auto start after break\t%t\n", s.AutoStartAfterBreak)
	fmt.Fprintf(tw, "sound\t%t\n", s.SoundEnabled)
	tw.Flush()
}
