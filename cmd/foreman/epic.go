// Epic commands for the foreman CLI.
package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/millbridge/foreman/pkg/types"
)

var (
	epicCreateTitle       string
	epicCreateDescription string
	epicCreatePriority    string

	epicListStatus   []string
	epicListPriority string
)

var epicCmd = &cobra.Command{
	Use:   "epic",
	Short: "Manage epics",
}

var epicCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an epic and allocate its number",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		epic, err := st.CreateEpic(types.EpicParams{
			Title:       epicCreateTitle,
			Description: epicCreateDescription,
			Priority:    epicCreatePriority,
		}, flagActor)
		if err != nil {
			fatal(err)
		}
		emit(epic, func() {
			fmt.Printf("epic %d created: %s\n", epic.EpicNum, epic.Title)
		})
	},
}

var epicShowCmd = &cobra.Command{
	Use:   "show <epic-num>",
	Short: "Show one epic with its per-status task counts",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		num, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			fatal(fmt.Errorf("invalid epic number %q", args[0]))
		}

		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		epic, err := st.GetEpicByNum(num)
		if err != nil {
			fatal(err)
		}
		counts, err := st.CountTasksByStatus(num)
		if err != nil {
			fatal(err)
		}

		out := struct {
			*types.Epic
			TaskCounts map[string]int64 `json:"task_counts"`
		}{epic, counts}
		emit(out, func() {
			fmt.Printf("epic %d [%s/%s] %s\n", epic.EpicNum, epic.Status, epic.Priority, epic.Title)
			if epic.Description != "" {
				fmt.Println(epic.Description)
			}
			for status, n := range counts {
				fmt.Printf("  %s: %d\n", status, n)
			}
		})
	},
}

var epicDeleteCmd = &cobra.Command{
	Use:   "delete <epic-id>",
	Short: "Delete an epic with no remaining tasks",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		if err := st.DeleteEpic(args[0], flagActor); err != nil {
			fatal(err)
		}
		fmt.Println("epic deleted")
	},
}

var epicListCmd = &cobra.Command{
	Use:   "list",
	Short: "List epics",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		epics, err := st.ListEpics(types.EpicFilter{
			Statuses: epicListStatus,
			Priority: epicListPriority,
		})
		if err != nil {
			fatal(err)
		}
		emit(epics, func() {
			for _, e := range epics {
				fmt.Printf("%d\t%s\t%s\t%s\n", e.EpicNum, e.Status, e.Priority, e.Title)
			}
		})
	},
}

func init() {
	epicCreateCmd.Flags().StringVar(&epicCreateTitle, "title", "", "epic title (required)")
	epicCreateCmd.Flags().StringVar(&epicCreateDescription, "description", "", "epic description")
	epicCreateCmd.Flags().StringVar(&epicCreatePriority, "priority", "", "LOW, MEDIUM, or HIGH")
	epicCreateCmd.MarkFlagRequired("title")

	epicListCmd.Flags().StringSliceVar(&epicListStatus, "status", nil, "filter by status")
	epicListCmd.Flags().StringVar(&epicListPriority, "priority", "", "filter by priority")

	epicCmd.AddCommand(epicCreateCmd)
	epicCmd.AddCommand(epicShowCmd)
	epicCmd.AddCommand(epicDeleteCmd)
	epicCmd.AddCommand(epicListCmd)
}
