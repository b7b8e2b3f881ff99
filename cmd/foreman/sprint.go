// Sprint commands for the foreman CLI.
package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/millbridge/foreman/internal/workflow"
	"github.com/millbridge/foreman/pkg/types"
)

var (
	sprintCreateName  string
	sprintCreateGoal  string
	sprintCreateStart string
	sprintCreateEnd   string

	sprintListStatus []string
	sprintListName   string
)

var sprintCmd = &cobra.Command{
	Use:   "sprint",
	Short: "Manage sprints",
}

var sprintCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a sprint in PLANNING",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		params := types.SprintParams{
			Name: sprintCreateName,
			Goal: sprintCreateGoal,
		}
		var err error
		if params.StartDate, err = parseDate(sprintCreateStart); err != nil {
			fatal(err)
		}
		if params.EndDate, err = parseDate(sprintCreateEnd); err != nil {
			fatal(err)
		}

		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		sprint, err := st.CreateSprint(params, flagActor)
		if err != nil {
			fatal(err)
		}
		emit(sprint, func() {
			fmt.Printf("sprint created: %s (%s)\n", sprint.Name, sprint.SprintID)
		})
	},
}

var sprintStatusCmd = &cobra.Command{
	Use:   "status <sprint-id> <status>",
	Short: "Move a sprint to a new status",
	Long: `Move a sprint along its lifecycle: PLANNING to ACTIVE, ACTIVE to
COMPLETED or CANCELLED. At most one sprint can be ACTIVE at a time.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		sprint, err := st.UpdateSprintStatus(args[0], args[1], flagActor)
		if err != nil {
			var terr *types.TransitionError
			if errors.As(err, &terr) {
				fmt.Fprintf(os.Stderr, "allowed from %s: %s\n",
					terr.From, strings.Join(workflow.SprintTargetsFrom(terr.From), ", "))
			}
			fatal(err)
		}
		emit(sprint, func() {
			fmt.Printf("sprint %s is now %s\n", sprint.Name, sprint.Status)
		})
	},
}

var sprintActiveCmd = &cobra.Command{
	Use:   "active",
	Short: "Show the active sprint",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		sprint, err := st.ActiveSprint()
		if err != nil {
			fatal(err)
		}
		emit(sprint, func() {
			fmt.Printf("%s\t%s\t%s\n", sprint.SprintID, sprint.Name, sprint.Goal)
		})
	},
}

var sprintDeleteCmd = &cobra.Command{
	Use:   "delete <sprint-id>",
	Short: "Delete a sprint, detaching its tasks",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		if err := st.DeleteSprint(args[0], flagActor); err != nil {
			fatal(err)
		}
		fmt.Println("sprint deleted")
	},
}

var sprintListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sprints",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		sprints, err := st.ListSprints(types.SprintFilter{
			Statuses:     sprintListStatus,
			NameContains: sprintListName,
		})
		if err != nil {
			fatal(err)
		}
		emit(sprints, func() {
			for _, sp := range sprints {
				fmt.Printf("%s\t%s\t%s\n", sp.SprintID, sp.Status, sp.Name)
			}
		})
	},
}

// parseDate parses a YYYY-MM-DD flag value, empty meaning unset.
func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, want YYYY-MM-DD", value)
	}
	return &t, nil
}

func init() {
	sprintCreateCmd.Flags().StringVar(&sprintCreateName, "name", "", "sprint name (required)")
	sprintCreateCmd.Flags().StringVar(&sprintCreateGoal, "goal", "", "sprint goal")
	sprintCreateCmd.Flags().StringVar(&sprintCreateStart, "start", "", "start date (YYYY-MM-DD)")
	sprintCreateCmd.Flags().StringVar(&sprintCreateEnd, "end", "", "end date (YYYY-MM-DD)")
	sprintCreateCmd.MarkFlagRequired("name")

	sprintListCmd.Flags().StringSliceVar(&sprintListStatus, "status", nil, "filter by status")
	sprintListCmd.Flags().StringVar(&sprintListName, "name", "", "filter by name substring")

	sprintCmd.AddCommand(sprintCreateCmd)
	sprintCmd.AddCommand(sprintStatusCmd)
	sprintCmd.AddCommand(sprintActiveCmd)
	sprintCmd.AddCommand(sprintDeleteCmd)
	sprintCmd.AddCommand(sprintListCmd)
}
