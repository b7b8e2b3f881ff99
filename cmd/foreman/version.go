// Version command for the foreman CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the CLI release version.
const Version = "0.3.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the foreman version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("foreman", Version)
	},
}
