// Task commands for the foreman CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/millbridge/foreman/internal/workflow"
	"github.com/millbridge/foreman/pkg/types"
)

var (
	taskCreateEpic        int64
	taskCreateTitle       string
	taskCreateDescription string
	taskCreateAssignee    string
	taskCreatePriority    string
	taskCreateSprint      string

	taskUpdateTitle    string
	taskUpdateAssignee string
	taskUpdatePriority string
	taskUpdateSprint   string

	taskListStatus   []string
	taskListEpic     int64
	taskListSprint   string
	taskListAssignee string
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Manage tasks",
}

var taskCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a task under an epic",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		params := types.TaskParams{
			EpicNum:     taskCreateEpic,
			Title:       taskCreateTitle,
			Description: taskCreateDescription,
			Assignee:    taskCreateAssignee,
			Priority:    taskCreatePriority,
		}
		if taskCreateSprint != "" {
			params.SprintID = &taskCreateSprint
		}
		task, err := st.CreateTask(params, flagActor)
		if err != nil {
			fatal(err)
		}
		emit(task, func() {
			fmt.Printf("task %d.%d created: %s\n", task.EpicNum, task.StoryNum, task.Title)
		})
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show one task",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		task, err := st.GetTask(args[0])
		if err != nil {
			fatal(err)
		}
		emit(task, func() {
			fmt.Printf("task %d.%d [%s/%s] %s\n", task.EpicNum, task.StoryNum, task.Status, task.Priority, task.Title)
			if task.Assignee != "" {
				fmt.Println("assignee:", task.Assignee)
			}
			if task.Description != "" {
				fmt.Println(task.Description)
			}
		})
	},
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update <task-id>",
	Short: "Update task fields other than status",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		flags := cmd.Flags()
		update := types.TaskUpdate{
			Title:    optional(flags.Changed("title"), taskUpdateTitle),
			Assignee: optional(flags.Changed("assignee"), taskUpdateAssignee),
			Priority: optional(flags.Changed("priority"), taskUpdatePriority),
			SprintID: optional(flags.Changed("sprint"), taskUpdateSprint),
		}
		task, err := st.UpdateTask(args[0], update, flagActor)
		if err != nil {
			fatal(err)
		}
		emit(task, func() {
			fmt.Printf("task %d.%d updated\n", task.EpicNum, task.StoryNum)
		})
	},
}

var taskStatusCmd = &cobra.Command{
	Use:   "status <task-id> <status>",
	Short: "Move a task to a new status",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		task, err := st.UpdateTaskStatus(args[0], args[1], flagActor)
		if err != nil {
			var terr *types.TransitionError
			if errors.As(err, &terr) {
				fmt.Fprintf(os.Stderr, "allowed from %s: %s\n",
					terr.From, strings.Join(workflow.TaskTargetsFrom(terr.From), ", "))
			}
			fatal(err)
		}
		emit(task, func() {
			fmt.Printf("task %d.%d is now %s\n", task.EpicNum, task.StoryNum, task.Status)
		})
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task and its document links",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		if err := st.DeleteTask(args[0], flagActor); err != nil {
			fatal(err)
		}
		fmt.Println("task deleted")
	},
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		filter := types.TaskFilter{
			Statuses: taskListStatus,
			SprintID: taskListSprint,
			Assignee: taskListAssignee,
		}
		if cmd.Flags().Changed("epic") {
			filter.EpicNum = &taskListEpic
		}
		tasks, err := st.ListTasks(filter)
		if err != nil {
			fatal(err)
		}
		emit(tasks, func() {
			for _, task := range tasks {
				fmt.Printf("%d.%d\t%s\t%s\t%s\n",
					task.EpicNum, task.StoryNum, task.Status, strconv.Quote(task.Title), task.Assignee)
			}
		})
	},
}

func init() {
	taskCreateCmd.Flags().Int64Var(&taskCreateEpic, "epic", 0, "epic number (required)")
	taskCreateCmd.Flags().StringVar(&taskCreateTitle, "title", "", "task title (required)")
	taskCreateCmd.Flags().StringVar(&taskCreateDescription, "description", "", "task description")
	taskCreateCmd.Flags().StringVar(&taskCreateAssignee, "assignee", "", "assignee")
	taskCreateCmd.Flags().StringVar(&taskCreatePriority, "priority", "", "LOW, MEDIUM, HIGH, or CRITICAL")
	taskCreateCmd.Flags().StringVar(&taskCreateSprint, "sprint", "", "sprint id")
	taskCreateCmd.MarkFlagRequired("epic")
	taskCreateCmd.MarkFlagRequired("title")

	taskUpdateCmd.Flags().StringVar(&taskUpdateTitle, "title", "", "new title")
	taskUpdateCmd.Flags().StringVar(&taskUpdateAssignee, "assignee", "", "new assignee")
	taskUpdateCmd.Flags().StringVar(&taskUpdatePriority, "priority", "", "new priority")
	taskUpdateCmd.Flags().StringVar(&taskUpdateSprint, "sprint", "", "sprint id, empty string to detach")

	taskListCmd.Flags().StringSliceVar(&taskListStatus, "status", nil, "filter by status")
	taskListCmd.Flags().Int64Var(&taskListEpic, "epic", 0, "filter by epic number")
	taskListCmd.Flags().StringVar(&taskListSprint, "sprint", "", "filter by sprint id")
	taskListCmd.Flags().StringVar(&taskListAssignee, "assignee", "", "filter by assignee")

	taskCmd.AddCommand(taskCreateCmd)
	taskCmd.AddCommand(taskShowCmd)
	taskCmd.AddCommand(taskUpdateCmd)
	taskCmd.AddCommand(taskStatusCmd)
	taskCmd.AddCommand(taskDeleteCmd)
	taskCmd.AddCommand(taskListCmd)
}
