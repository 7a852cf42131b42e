package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rezkam/pomotodo/internal/infrastructure/http/handler"
)

func newPresetCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage settings presets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List built-in and saved presets",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := rt.app.Session.Presets(cmd.Context())
			dtos := make([]handler.PresetDTO, len(presets))
			for i, p := range presets {
				dtos[i] = handler.MapPresetToDTO(p)
			}
			return rt.print(cmd, handler.ListPresetsResponse{Presets: dtos}, func(w io.Writer) {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tTOTAL\tINTERVAL\tBREAK\t")
				for _, p := range presets {
					kind := ""
					if p.BuiltIn {
						kind = "built-in"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name,
						p.Settings.TotalDuration, p.Settings.BreakInterval, p.Settings.BreakDuration, kind)
				}
				tw.Flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "save <name>",
		Short: "Save the current settings as a preset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := rt.app.Session.SavePreset(cmd.Context(), args[0], nil)
			if err != nil {
				return err
			}
			return rt.print(cmd, handler.MapPresetToDTO(p), func(w io.Writer) {
				fmt.Fprintf(w, "Saved preset %q as %s\n", p.Name, p.ID)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "apply <id>",
		Short: "Replace the settings with a preset's",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := rt.app.Session.ApplyPreset(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rt.printSettings(cmd, settings)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a saved preset",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.app.Session.DeletePreset(cmd.Context(), args[0]); err != nil {
				return err
			}
			return rt.print(cmd, map[string]string{"deleted": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted preset %s\n", args[0])
			})
		},
	})
	return cmd
}
