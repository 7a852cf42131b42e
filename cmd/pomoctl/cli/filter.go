package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/rezkam/pomotodo/internal/domain"
	"github.com/rezkam/pomotodo/internal/infrastructure/http/handler"
)

// conditionFlags are the task conditions shared by "task list" and
// "filter save".
type conditionFlags struct {
	category string
	priority string
	open     bool
	done     bool
	repeat   string
	sound    string
	from     string
	to       string
	sortBy   string
}

func (c *conditionFlags) register(fs *pflag.FlagSet) {
	fs.StringVarP(&c.category, "category", "c", "", "Only tasks in this category")
	fs.StringVarP(&c.priority, "priority", "p", "", "Only tasks with this priority")
	fs.BoolVar(&c.open, "open", false, "Only incomplete tasks")
	fs.BoolVar(&c.done, "done", false, "Only completed tasks")
	fs.StringVar(&c.repeat, "repeat", "", "Only tasks whose reminder repeats none, daily, weekly or monthly")
	fs.StringVar(&c.sound, "sound", "", "Only tasks whose reminder plays this sound")
	fs.StringVar(&c.from, "from", "", "Only reminders at or after this RFC3339 time")
	fs.StringVar(&c.to, "to", "", "Only reminders at or before this RFC3339 time")
	fs.StringVarP(&c.sortBy, "sort", "s", "", "created (default), date, priority or category")
}

func (c *conditionFlags) filter() (domain.TaskFilter, error) {
	filter := domain.TaskFilter{SortBy: domain.TaskSortField(c.sortBy)}
	if c.category != "" {
		v, err := domain.NewCategory(c.category)
		if err != nil {
			return filter, err
		}
		filter.Category = &v
	}
	if c.priority != "" {
		v, err := domain.NewPriority(c.priority)
		if err != nil {
			return filter, err
		}
		filter.Priority = &v
	}
	switch {
	case c.open && c.done:
		return filter, fmt.Errorf("--open and --done are mutually exclusive")
	case c.open:
		filter.Completed = new(bool)
	case c.done:
		completed := true
		filter.Completed = &completed
	}
	if c.repeat != "" {
		v, err := domain.NewRepeatType(c.repeat)
		if err != nil {
			return filter, err
		}
		filter.RepeatType = &v
	}
	if c.sound != "" {
		v, err := domain.NewSoundType(c.sound)
		if err != nil {
			return filter, err
		}
		filter.Sound = &v
	}
	var err error
	if filter.ReminderFrom, err = parseBound("from", c.from); err != nil {
		return filter, err
	}
	if filter.ReminderTo, err = parseBound("to", c.to); err != nil {
		return filter, err
	}
	return filter, nil
}

func parseBound(flag, v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	at, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("--%s: expected RFC3339 time, got %q", flag, v)
	}
	return &at, nil
}

func newFilterCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Manage saved task filters",
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List saved filters",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filters := rt.app.Todo.Filters(cmd.Context())
			dtos := make([]handler.FilterDTO, len(filters))
			for i, f := range filters {
				dtos[i] = handler.MapFilterToDTO(f)
			}
			return rt.print(cmd, handler.ListFiltersResponse{Filters: dtos}, func(w io.Writer) {
				if len(filters) == 0 {
					fmt.Fprintln(w, "No saved filters")
					return
				}
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tCREATED")
				for _, f := range filters {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", f.ID, f.Name, f.CreatedAt.Local().Format(time.DateTime))
				}
				tw.Flush()
			})
		},
	})

	var conditions conditionFlags
	save := &cobra.Command{
		Use:     "save <name>",
		Short:   "Save task conditions under a name",
		Example: `  pomoctl filter save "June bells" --sound bell --from 2026-06-01T00:00:00Z --to 2026-06-30T23:59:59Z`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := conditions.filter()
			if err != nil {
				return err
			}
			saved, err := rt.app.Todo.SaveFilter(cmd.Context(), args[0], filter)
			if err != nil {
				return err
			}
			return rt.print(cmd, handler.MapFilterToDTO(saved), func(w io.Writer) {
				fmt.Fprintf(w, "Saved filter %q as %s\n", saved.Name, saved.ID)
			})
		},
	}
	conditions.register(save.Flags())
	cmd.AddCommand(save)

	cmd.AddCommand(&cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a saved filter",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.app.Todo.DeleteFilter(cmd.Context(), args[0]); err != nil {
				return err
			}
			return rt.print(cmd, map[string]string{"deleted": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted filter %s\n", args[0])
			})
		},
	})
	return cmd
}
