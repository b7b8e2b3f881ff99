// History command for the foreman CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history <entity-type> <entity-id>",
	Short: "Print the change history of one entity",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		records, err := st.History(args[0], args[1])
		if err != nil {
			fatal(err)
		}
		emit(records, func() {
			for _, r := range records {
				fmt.Printf("%s\t%s\t%s\t%q -> %q\n",
					r.CreatedAt.Format("2006-01-02 15:04:05"), r.Actor, r.Field, r.OldValue, r.NewValue)
			}
		})
	},
}
