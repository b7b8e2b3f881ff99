// Link commands for the foreman CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/millbridge/foreman/pkg/types"
)

var (
	linkSection string
	linkPurpose string
)

var linkCmd = &cobra.Command{
	Use:   "link",
	Short: "Manage entity-document links",
}

var linkAddCmd = &cobra.Command{
	Use:   "add <entity-type> <entity-id> <document-id>",
	Short: "Link an entity to a document, optionally to one section",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		link, err := st.Link(types.LinkParams{
			EntityType: args[0],
			EntityID:   args[1],
			DocumentID: args[2],
			Section:    linkSection,
			Purpose:    linkPurpose,
		}, flagActor)
		if err != nil {
			fatal(err)
		}
		emit(link, func() {
			fmt.Println("linked", link.LinkID)
		})
	},
}

var linkRemoveCmd = &cobra.Command{
	Use:   "remove <entity-type> <entity-id> <document-id>",
	Short: "Remove a link; removing an absent link succeeds",
	Args:  cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		if err := st.Unlink(args[0], args[1], args[2], linkSection, flagActor); err != nil {
			fatal(err)
		}
		fmt.Println("unlinked")
	},
}

var linkListCmd = &cobra.Command{
	Use:   "list <entity-type> <entity-id>",
	Short: "List the documents linked to an entity",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		links, err := st.LinksForEntity(args[0], args[1])
		if err != nil {
			fatal(err)
		}
		emit(links, func() {
			for _, link := range links {
				target := link.DocumentID
				if link.DocumentSection != "" {
					target += "#" + link.DocumentSection
				}
				fmt.Printf("%s\t%s\t%s\n", target, link.DocumentTitle, link.LinkPurpose)
			}
		})
	},
}

var linkEntitiesCmd = &cobra.Command{
	Use:   "entities <document-id>",
	Short: "List the entities linked to a document, grouped by kind",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		grouped, err := st.EntitiesForDocument(args[0], linkSection)
		if err != nil {
			fatal(err)
		}
		emit(grouped, func() {
			for kind, entities := range grouped {
				for _, e := range entities {
					fmt.Printf("%s\t%s\t%s\n", kind, e.EntityID, e.DocumentSection)
				}
			}
		})
	},
}

func init() {
	linkCmd.PersistentFlags().StringVar(&linkSection, "section", "", "section id within the document")
	linkAddCmd.Flags().StringVar(&linkPurpose, "purpose", "", "why the link exists")

	linkCmd.AddCommand(linkAddCmd)
	linkCmd.AddCommand(linkRemoveCmd)
	linkCmd.AddCommand(linkListCmd)
	linkCmd.AddCommand(linkEntitiesCmd)
}
