package main

import (
	"github.com/aretw0/lattice/internal/cli"
	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect FILE",
	Short: "Summarize a synth file",
	Long: `Resolves the synth file without placing anything and prints its extents,
groups, missing objects, issues and plane maps. --mermaid prints the catalog
as a Mermaid flowchart instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mermaid, _ := cmd.Flags().GetBool("mermaid")
		raw, _ := cmd.Flags().GetBool("raw")
		width, _ := cmd.Flags().GetInt("width")

		return withApp(cmd, func(app *cli.App) error {
			return app.Inspect(cmd.Context(), cli.InspectOptions{Path: args[0], Mermaid: mermaid, Raw: raw, Width: width})
		})
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().Bool("mermaid", false, "Print a Mermaid flowchart of the catalog")
	inspectCmd.Flags().Bool("raw", false, "Print markdown without terminal styling")
	inspectCmd.Flags().Int("width", 0, "Wrap width (default: terminal width)")
}
