package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"kanban-cli/internal/board"
	"kanban-cli/internal/reorder"
)

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Short:   "Work with board tasks",
		Aliases: []string{"task"},
	}
	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksAddCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksEditCmd(app))
	cmd.AddCommand(newTasksMoveCmd(app))
	cmd.AddCommand(newTasksDoneCmd(app))
	cmd.AddCommand(newTasksRmCmd(app))
	cmd.AddCommand(newTasksTagCmd(app))
	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	var status string
	var tag string

	cmd := &cobra.Command{
		Use:     "list",
		Short:   "List tasks in board order",
		Aliases: []string{"ls"},
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadFacade(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			tasks, err := f.GetAll(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			if s := strings.TrimSpace(status); s != "" {
				st, err := board.ParseStatus(s)
				if err != nil {
					return writeErr(cmd, err)
				}
				tasks = filterTasks(tasks, func(t board.Task) bool { return t.Status == st })
			}
			if tg := strings.TrimSpace(tag); tg != "" {
				tasks = filterTasks(tasks, func(t board.Task) bool { return t.HasTag(tg) })
			}
			sortBoardOrder(tasks)
			return writeOut(cmd, app, map[string]any{"data": tasks})
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only tasks with this status (todo|in_progress|done)")
	cmd.Flags().StringVar(&tag, "tag", "", "Only tasks carrying this tag")
	return cmd
}

func newTasksAddCmd(app *App) *cobra.Command {
	var status string
	var taskType string
	var tags []string

	cmd := &cobra.Command{
		Use:     "add <text...>",
		Short:   "Create a task",
		Aliases: []string{"create"},
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadFacade(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return writeErr(cmd, errors.New("empty task text"))
			}
			st, err := board.ParseStatus(status)
			if err != nil {
				return writeErr(cmd, err)
			}
			draft := board.TaskDraft{
				Text:   text,
				Status: st,
				Tags:   cleanTags(tags),
			}
			if tt := strings.TrimSpace(taskType); tt != "" {
				typ := board.TaskType(tt)
				if !typ.Valid() {
					return writeErr(cmd, fmt.Errorf("unknown type: %s", tt))
				}
				draft.Type = typ
			}
			t, err := f.Create(cmd.Context(), draft)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}

	cmd.Flags().StringVar(&status, "status", string(board.StatusTodo), "Status column (todo|in_progress|done)")
	cmd.Flags().StringVar(&taskType, "type", "", "Task type (task|feature|bug|chore|epic|request|experiment)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag to attach (repeatable)")
	return cmd
}

func newTasksShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadFacade(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			tasks, err := f.GetAll(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			t, ok := findTask(tasks, args[0])
			if !ok {
				return writeErr(cmd, errNotFound("task", args[0]))
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}
	return cmd
}

func newTasksEditCmd(app *App) *cobra.Command {
	var text string
	var taskType string

	cmd := &cobra.Command{
		Use:   "edit <task-id>",
		Short: "Edit a task's text or type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadFacade(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			var patch board.TaskPatch
			if cmd.Flags().Changed("text") {
				v := text
				patch.Text = &v
			}
			if cmd.Flags().Changed("type") {
				typ := board.TaskType(strings.TrimSpace(taskType))
				if !typ.Valid() {
					return writeErr(cmd, fmt.Errorf("unknown type: %s", taskType))
				}
				patch.Type = &typ
			}
			if patch.Empty() {
				return writeErr(cmd, errors.New("nothing to change; pass --text or --type"))
			}
			t, err := f.Update(cmd.Context(), args[0], patch)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": t})
		},
	}

	cmd.Flags().StringVar(&text, "text", "", "New task text (markdown)")
	cmd.Flags().StringVar(&taskType, "type", "", "New task type")
	return cmd
}

func newTasksMoveCmd(app *App) *cobra.Command {
	var before string
	var after string

	cmd := &cobra.Command{
		Use:   "move <task-id> <status>",
		Short: "Move a task to a column, repacking the column's order",
		Long: strings.TrimSpace(`
Move a task into a status column. By default the task lands at the bottom;
--before/--after place it relative to another task already in the target
column. Status and position commit as one batch, so watchers never observe
the task half-moved.
`),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadFacade(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			if before != "" && after != "" {
				return writeErr(cmd, errors.New("provide at most one of --before or --after"))
			}
			to, err := board.ParseStatus(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			tasks, err := f.GetAll(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			t, ok := findTask(tasks, id)
			if !ok {
				return writeErr(cmd, errNotFound("task", id))
			}

			ids := columnIDs(tasks, to)

			// Positions count within the column with the moved task taken out.
			rest := make([]string, 0, len(ids))
			for _, x := range ids {
				if x != id {
					rest = append(rest, x)
				}
			}
			insertAt := len(rest)
			if ref := strings.TrimSpace(before); ref != "" {
				i := indexOf(rest, ref)
				if i < 0 {
					return writeErr(cmd, fmt.Errorf("task %s is not in the %s column", ref, to))
				}
				insertAt = i
			}
			if ref := strings.TrimSpace(after); ref != "" {
				i := indexOf(rest, ref)
				if i < 0 {
					return writeErr(cmd, fmt.Errorf("task %s is not in the %s column", ref, to))
				}
				insertAt = i + 1
			}

			plan, err := reorder.PlanDrop(ids, id, insertAt, t.Status, to)
			if err != nil {
				return writeErr(cmd, err)
			}
			updated, err := f.BatchUpdate(cmd.Context(), plan.Patches)
			if err != nil {
				return writeErr(cmd, err)
			}
			if plan.Completed {
				fmt.Fprintf(cmd.ErrOrStderr(), "Completed %s\n", id)
			}
			return writeOut(cmd, app, map[string]any{"data": updated})
		},
	}

	cmd.Flags().StringVar(&before, "before", "", "Place before this task id (in the target column)")
	cmd.Flags().StringVar(&after, "after", "", "Place after this task id (in the target column)")
	return cmd
}

func newTasksDoneCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "done <task-id>",
		Short: "Move a task to the bottom of the done column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadFacade(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			tasks, err := f.GetAll(cmd.Context())
			if err != nil {
				return writeErr(cmd, err)
			}
			id := strings.TrimSpace(args[0])
			t, ok := findTask(tasks, id)
			if !ok {
				return writeErr(cmd, errNotFound("task", id))
			}
			if t.Status == board.StatusDone {
				return writeOut(cmd, app, map[string]any{"data": []board.Task{t}})
			}

			ids := columnIDs(tasks, board.StatusDone)
			plan, err := reorder.PlanDrop(ids, id, len(ids), t.Status, board.StatusDone)
			if err != nil {
				return writeErr(cmd, err)
			}
			updated, err := f.BatchUpdate(cmd.Context(), plan.Patches)
			if err != nil {
				return writeErr(cmd, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Completed %s\n", id)
			return writeOut(cmd, app, map[string]any{"data": updated})
		},
	}
	return cmd
}

func newTasksRmCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <task-id>",
		Short:   "Delete a task",
		Aliases: []string{"delete"},
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadFacade(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			ok, err := f.Delete(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"success": ok}})
		},
	}
	return cmd
}

func newTasksTagCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tag",
		Short: "Add or remove task tags",
	}

	add := &cobra.Command{
		Use:   "add <task-id> <tag...>",
		Short: "Attach tags to a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return retag(cmd, app, args[0], func(tags []string) []string {
				for _, tag := range cleanTags(args[1:]) {
					if indexOf(tags, tag) < 0 {
						tags = append(tags, tag)
					}
				}
				return tags
			})
		},
	}

	rm := &cobra.Command{
		Use:   "rm <task-id> <tag...>",
		Short: "Detach tags from a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			drop := cleanTags(args[1:])
			return retag(cmd, app, args[0], func(tags []string) []string {
				kept := make([]string, 0, len(tags))
				for _, tag := range tags {
					if indexOf(drop, tag) < 0 {
						kept = append(kept, tag)
					}
				}
				return kept
			})
		},
	}

	cmd.AddCommand(add)
	cmd.AddCommand(rm)
	return cmd
}

func retag(cmd *cobra.Command, app *App, id string, fn func([]string) []string) error {
	f, err := loadFacade(cmd.Context(), app)
	if err != nil {
		return writeErr(cmd, err)
	}
	tasks, err := f.GetAll(cmd.Context())
	if err != nil {
		return writeErr(cmd, err)
	}
	t, ok := findTask(tasks, id)
	if !ok {
		return writeErr(cmd, errNotFound("task", id))
	}
	tags := fn(append([]string{}, t.Tags...))
	updated, err := f.Update(cmd.Context(), t.ID, board.TaskPatch{Tags: &tags})
	if err != nil {
		return writeErr(cmd, err)
	}
	return writeOut(cmd, app, map[string]any{"data": updated})
}

func findTask(tasks []board.Task, id string) (board.Task, bool) {
	id = strings.TrimSpace(id)
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return board.Task{}, false
}

func filterTasks(tasks []board.Task, keep func(board.Task) bool) []board.Task {
	out := make([]board.Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// columnIDs returns the column's id sequence sorted by order.
func columnIDs(tasks []board.Task, status board.Status) []string {
	col := filterTasks(tasks, func(t board.Task) bool { return t.Status == status })
	board.SortByOrder(col)
	ids := make([]string, 0, len(col))
	for _, t := range col {
		ids = append(ids, t.ID)
	}
	return ids
}

// sortBoardOrder sorts tasks the way the board shows them: column by
// column, top to bottom.
func sortBoardOrder(tasks []board.Task) {
	rank := map[board.Status]int{}
	for i, s := range board.Statuses {
		rank[s] = i
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].Status != tasks[j].Status {
			return rank[tasks[i].Status] < rank[tasks[j].Status]
		}
		return tasks[i].Order < tasks[j].Order
	})
}

func indexOf(xs []string, want string) int {
	for i, x := range xs {
		if x == want {
			return i
		}
	}
	return -1
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if indexOf(out, tag) < 0 {
			out = append(out, tag)
		}
	}
	return out
}
