// Command citebridge synchronizes Zotero collections with NotebookLM
// notebooks in both directions and imports notebook sources back into
// the library.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/citebridge/citebridge/internal/config"
	"github.com/citebridge/citebridge/internal/events"
)

var (
	cfgFile    string
	jsonOutput bool
	verbose    bool

	cfg    *config.Config
	logger *events.Logger
)

var rootCmd = &cobra.Command{
	Use:   "citebridge",
	Short: "Bridge between Zotero and NotebookLM",
	Long: `CiteBridge keeps Zotero collections and NotebookLM notebooks in sync.

Forward sync uploads collection PDFs as notebook sources, reverse sync
pulls AI-generated notes back onto the matching Zotero items, and import
materializes a notebook's sources as Zotero items.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		logger = events.NewLogger(&cfg.Log)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"Config file (default ~/.citebridge/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError("%v", err)
		os.Exit(1)
	}
}
