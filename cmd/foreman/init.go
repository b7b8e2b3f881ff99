// Init command for the foreman CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	initName        string
	initDescription string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the project database",
	Long: `Create the data directory and database file, apply the schema, and
record the project metadata. Running init on an existing project updates
the metadata and leaves all other data untouched.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		if initName == "" {
			fmt.Println("project database ready")
			return
		}
		project, err := st.SaveProject(initName, initDescription, flagActor)
		if err != nil {
			fatal(err)
		}
		emit(project, func() {
			fmt.Printf("project %q ready\n", project.Name)
		})
	},
}

func init() {
	initCmd.Flags().StringVar(&initName, "name", "", "project name")
	initCmd.Flags().StringVar(&initDescription, "description", "", "project description")
}
