package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rezkam/pomotodo/internal/domain"
	"github.com/rezkam/pomotodo/internal/infrastructure/http/handler"
)

func newTaskCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	cmd.AddCommand(
		newTaskAddCommand(rt),
		newTaskListCommand(rt),
		newTaskShowCommand(rt),
		newTaskEditCommand(rt),
		newTaskDoneCommand(rt),
		newTaskStartCommand(rt),
		newTaskStopCommand(rt),
		newTaskRemoveCommand(rt),
	)
	return cmd
}

func newTaskAddCommand(rt *runtime) *cobra.Command {
	var params domain.CreateTaskParams

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Example: `  pomoctl task add "Write quarterly report" --priority high --category work --tag q3
  pomoctl task add "Buy milk" -c shopping`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params.Title = args[0]
			task, err := rt.app.Todo.CreateTask(cmd.Context(), params)
			if err != nil {
				return err
			}
			return rt.print(cmd, handler.MapTaskToDTO(*task), func(w io.Writer) {
				fmt.Fprintf(w, "Created task %s\n", task.ID)
			})
		},
	}
	cmd.Flags().StringVarP(&params.Description, "description", "d", "", "Longer description")
	cmd.Flags().StringVarP(&params.Priority, "priority", "p", "", "low, medium or high (default medium)")
	cmd.Flags().StringVarP(&params.Category, "category", "c", "", "work, personal, shopping or other (default other)")
	cmd.Flags().StringSliceVarP(&params.Tags, "tag", "t", nil, "Tag; repeat or comma-separate for several")
	cmd.Flags().DurationVarP(&params.Estimated, "estimate", "e", 0, "Estimated effort, e.g. 45m")
	return cmd
}

func newTaskListCommand(rt *runtime) *cobra.Command {
	var (
		conditions conditionFlags
		preset     string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Example: `  pomoctl task list --open --sort priority
  pomoctl task list --repeat daily --sound bell
  pomoctl task list --filter 01901234-5678-7abc-8def-0123456789ab --category work`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := conditions.filter()
			if err != nil {
				return err
			}

			var tasks []domain.Task
			if preset != "" {
				tasks, err = rt.app.Todo.FindTasksWithFilter(cmd.Context(), preset, filter)
			} else {
				tasks, err = rt.app.Todo.FindTasks(cmd.Context(), filter)
			}
			if err != nil {
				return err
			}

			dtos := make([]handler.TaskDTO, len(tasks))
			for i, t := range tasks {
				dtos[i] = handler.MapTaskToDTO(t)
			}
			return rt.print(cmd, handler.ListTasksResponse{Tasks: dtos}, func(w io.Writer) {
				if len(tasks) == 0 {
					fmt.Fprintln(w, "No tasks")
					return
				}
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tDONE\tPRIORITY\tCATEGORY\tTITLE\tTAGS")
				for _, t := range tasks {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						t.ID, checkbox(t.Completed), t.Priority, t.Category, t.Title, strings.Join(t.Tags, ","))
				}
				tw.Flush()
			})
		},
	}
	conditions.register(cmd.Flags())
	cmd.Flags().StringVar(&preset, "filter", "", "Start from this saved filter; other flags narrow it")
	return cmd
}

func newTaskShowCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := rt.app.Todo.GetTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rt.print(cmd, handler.MapTaskToDTO(*task), func(w io.Writer) {
				printTask(w, *task)
			})
		},
	}
}

func newTaskEditCommand(rt *runtime) *cobra.Command {
	var (
		title       string
		description string
		priority    string
		category    string
		tags        []string
		estimated   time.Duration
		actual      time.Duration
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a task; only the flags given are applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := domain.UpdateTaskParams{TaskID: args[0]}
			flags := cmd.Flags()
			set := func(flag, field string) bool {
				if !flags.Changed(flag) {
					return false
				}
				params.UpdateMask = append(params.UpdateMask, field)
				return true
			}
			if set("title", "title") {
				params.Title = &title
			}
			if set("description", "description") {
				params.Description = &description
			}
			if set("priority", "priority") {
				params.Priority = &priority
			}
			if set("category", "category") {
				params.Category = &category
			}
			if set("tag", "tags") {
				params.Tags = &tags
			}
			if set("estimate", "estimated") {
				params.Estimated = &estimated
			}
			if set("actual", "actual") {
				params.Actual = &actual
			}

			task, err := rt.app.Todo.UpdateTask(cmd.Context(), params)
			if err != nil {
				return err
			}
			return rt.print(cmd, handler.MapTaskToDTO(*task), func(w io.Writer) {
				fmt.Fprintf(w, "Updated task %s\n", task.ID)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	cmd.Flags().StringVarP(&priority, "priority", "p", "", "low, medium or high")
	cmd.Flags().StringVarP(&category, "category", "c", "", "work, personal, shopping or other")
	cmd.Flags().StringSliceVarP(&tags, "tag", "t", nil, "Replace the tags")
	cmd.Flags().DurationVarP(&estimated, "estimate", "e", 0, "Estimated effort")
	cmd.Flags().DurationVar(&actual, "actual", 0, "Effort spent so far")
	return cmd
}

func newTaskDoneCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task between done and open",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := rt.app.Todo.ToggleTask(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rt.print(cmd, handler.MapTaskToDTO(*task), func(w io.Writer) {
				if task.Completed {
					fmt.Fprintf(w, "Completed %q\n", task.Title)
					return
				}
				fmt.Fprintf(w, "Reopened %q\n", task.Title)
			})
		},
	}
}

func newTaskStartCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "start <id>",
		Short: "Start the work timer of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := rt.app.Todo.StartWork(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rt.print(cmd, handler.MapTaskToDTO(*task), func(w io.Writer) {
				fmt.Fprintf(w, "Working on %q\n", task.Title)
			})
		},
	}
}

func newTaskStopCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop the work timer and add the elapsed time to the effort",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := rt.app.Todo.StopWork(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return rt.print(cmd, handler.MapTaskToDTO(*task), func(w io.Writer) {
				fmt.Fprintf(w, "Stopped %q, %s spent\n", task.Title, task.WorkTime.Actual)
			})
		},
	}
}

func newTaskRemoveCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rt.app.Todo.DeleteTask(cmd.Context(), args[0]); err != nil {
				return err
			}
			return rt.print(cmd, map[string]string{"deleted": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted task %s\n", args[0])
			})
		},
	}
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func printTask(w io.Writer, t domain.Task) {
	fmt.Fprintf(w, "%s %s\n", checkbox(t.Completed), t.Title)
	fmt.Fprintf(w, "  id:        %s\n", t.ID)
	fmt.Fprintf(w, "  priority:  %s\n", t.Priority)
	fmt.Fprintf(w, "  category:  %s\n", t.Category)
	if t.Description != "" {
		fmt.Fprintf(w, "  notes:     %s\n", t.Description)
	}
	if len(t.Tags) > 0 {
		fmt.Fprintf(w, "  tags:      %s\n", strings.Join(t.Tags, ", "))
	}
	if wt := t.WorkTime; wt != nil {
		fmt.Fprintf(w, "  effort:    %s of %s\n", wt.Actual, wt.Estimated)
		if wt.Running() {
			fmt.Fprintf(w, "  working:   since %s\n", wt.StartedAt.Local().Format(time.Kitchen))
		}
	}
	if r := t.Reminder; r != nil {
		fmt.Fprintf(w, "  reminder:  %s (%s)\n", r.Date.Local().Format(time.RFC1123), r.RepeatType)
	}
	fmt.Fprintf(w, "  created:   %s\n", t.CreatedAt.Local().Format(time.RFC1123))
}
