// Package cmd provides the restitch command line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restitch",
		Short: "Apply a model's search/replace edits to a file",
		Long: `Restitch takes a source file and a language model's reply containing
search/replace edit blocks, locates each block in the real file content, and
produces the patched text together with a per-block confidence report.

Blocks that cannot be located exactly are matched with successively looser
strategies (whitespace-normalized, fuzzy, line hint); each block's report
shows which strategy matched so low-confidence edits can be reviewed before
the result is written anywhere.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
}

// rootCmd represents the base command when called without any subcommands.
var rootCmd = newRootCmd()

func init() {
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(versionCmd)
}

// Execute runs the CLI. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}
