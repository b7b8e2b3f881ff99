// Document commands for the foreman CLI.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/millbridge/foreman/pkg/types"
)

var (
	docCreateType   string
	docCreateTitle  string
	docCreateFile   string
	docSaveFile     string
	docListType     string
	docListStatus   []string
	docUpdateTitle  string
	docUpdateType   string
	docUpdateStatus string
)

var docCmd = &cobra.Command{
	Use:   "doc",
	Short: "Manage versioned documents",
}

var docCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a document at version 1",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		content, err := readBody(docCreateFile)
		if err != nil {
			fatal(err)
		}

		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		doc, err := st.CreateDocument(types.DocumentParams{
			DocType: docCreateType,
			Title:   docCreateTitle,
			Content: content,
		}, flagActor)
		if err != nil {
			fatal(err)
		}
		emit(doc, func() {
			fmt.Printf("document created: %s (%s)\n", doc.Title, doc.DocumentID)
		})
	},
}

var docShowCmd = &cobra.Command{
	Use:   "show <document-id>",
	Short: "Print a document's current body",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		doc, err := st.GetDocument(args[0])
		if err != nil {
			fatal(err)
		}
		emit(doc, func() {
			fmt.Printf("%s [%s] v%d\n\n", doc.Title, doc.Status, doc.Version)
			fmt.Println(doc.Content)
		})
	},
}

var docUpdateCmd = &cobra.Command{
	Use:   "update <document-id>",
	Short: "Update document metadata without touching the body",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		flags := cmd.Flags()
		doc, err := st.UpdateDocument(args[0], types.DocumentUpdate{
			Title:   optional(flags.Changed("title"), docUpdateTitle),
			DocType: optional(flags.Changed("type"), docUpdateType),
			Status:  optional(flags.Changed("doc-status"), docUpdateStatus),
		}, flagActor)
		if err != nil {
			fatal(err)
		}
		emit(doc, func() {
			fmt.Printf("document %s updated (still v%d)\n", doc.DocumentID, doc.Version)
		})
	},
}

var docSaveCmd = &cobra.Command{
	Use:   "save <document-id>",
	Short: "Replace the body and advance the version",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		content, err := readBody(docSaveFile)
		if err != nil {
			fatal(err)
		}

		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		doc, err := st.SaveNewVersion(args[0], content, flagActor)
		if err != nil {
			fatal(err)
		}

		stale, err := st.StaleSectionLinks(doc.DocumentID)
		if err != nil {
			fatal(err)
		}
		emit(doc, func() {
			fmt.Printf("document %s is now v%d\n", doc.DocumentID, doc.Version)
		})
		for _, link := range stale {
			fmt.Fprintf(os.Stderr, "warning: %s %s links to vanished section %q\n",
				link.EntityType, link.EntityID, link.DocumentSection)
		}
	},
}

var docSectionsCmd = &cobra.Command{
	Use:   "sections <document-id>",
	Short: "Print the section index derived from the current body",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		secs, err := st.Sections(args[0])
		if err != nil {
			fatal(err)
		}
		emit(secs, func() {
			for _, sec := range secs {
				fmt.Printf("%s%s (%s)\n", strings.Repeat("  ", sec.Level-1), sec.Title, sec.ID)
			}
		})
	},
}

var docDeleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Delete a document and all links to it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		if err := st.DeleteDocument(args[0], flagActor); err != nil {
			fatal(err)
		}
		fmt.Println("document deleted")
	},
}

var docListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		st, err := openStore()
		if err != nil {
			fatal(err)
		}
		defer st.Close()

		docs, err := st.ListDocuments(types.DocumentFilter{
			DocType:  docListType,
			Statuses: docListStatus,
		})
		if err != nil {
			fatal(err)
		}
		emit(docs, func() {
			for _, doc := range docs {
				fmt.Printf("%s\t%s\tv%d\t%s\t%s\n", doc.DocumentID, doc.DocType, doc.Version, doc.Status, doc.Title)
			}
		})
	},
}

// readBody reads the document body from the given file, or from stdin when
// path is "-" or empty.
func readBody(path string) (string, error) {
	if path == "" || path == "-" {
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(raw), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(raw), nil
}

func init() {
	docCreateCmd.Flags().StringVar(&docCreateType, "type", "", "document type (required)")
	docCreateCmd.Flags().StringVar(&docCreateTitle, "title", "", "document title (required)")
	docCreateCmd.Flags().StringVar(&docCreateFile, "file", "", "body file, - for stdin")
	docCreateCmd.MarkFlagRequired("type")
	docCreateCmd.MarkFlagRequired("title")

	docUpdateCmd.Flags().StringVar(&docUpdateTitle, "title", "", "new title")
	docUpdateCmd.Flags().StringVar(&docUpdateType, "type", "", "new document type")
	docUpdateCmd.Flags().StringVar(&docUpdateStatus, "doc-status", "", "new document status")

	docSaveCmd.Flags().StringVar(&docSaveFile, "file", "", "body file, - for stdin")

	docListCmd.Flags().StringVar(&docListType, "type", "", "filter by document type")
	docListCmd.Flags().StringSliceVar(&docListStatus, "status", nil, "filter by status")

	docCmd.AddCommand(docCreateCmd)
	docCmd.AddCommand(docShowCmd)
	docCmd.AddCommand(docUpdateCmd)
	docCmd.AddCommand(docSaveCmd)
	docCmd.AddCommand(docSectionsCmd)
	docCmd.AddCommand(docDeleteCmd)
	docCmd.AddCommand(docListCmd)
}
