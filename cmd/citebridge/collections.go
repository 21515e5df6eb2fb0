package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/citebridge/citebridge/internal/client"
)

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "List Zotero collections",
	Long:  `Collections lists every collection in the configured Zotero library with its key and item count.`,
	RunE:  runCollections,
}

func init() {
	rootCmd.AddCommand(collectionsCmd)
}

func runCollections(cmd *cobra.Command, args []string) error {
	zot, err := client.NewZotero(cfg, logger)
	if err != nil {
		return err
	}

	collections, err := zot.ListCollections(context.Background())
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(collections)
	}

	if len(collections) == 0 {
		printInfo("No collections found")
		return nil
	}
	for _, coll := range collections {
		marker := ""
		if coll.ParentKey != "" {
			marker = "  └ "
		}
		printInfo("%s%-12s %s (%d items)", marker, coll.Key, coll.Name, coll.NumItems)
	}
	return nil
}
