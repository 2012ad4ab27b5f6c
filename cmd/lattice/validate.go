package main

import (
	"github.com/aretw0/lattice/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate FILE",
	Short: "Check a synth file for consistency",
	Long: `Parses the synth file and reports cells that address missing groups, hints
that disagree with the group order, empty or unused groups. With --resolve the
catalog names are also looked up in the scene.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		resolve, _ := cmd.Flags().GetBool("resolve")
		jsonOut, _ := cmd.Flags().GetBool("json")

		return withApp(cmd, func(app *cli.App) error {
			_, err := app.Validate(cmd.Context(), cli.ValidateOptions{Path: args[0], Resolve: resolve, JSON: jsonOut})
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().Bool("resolve", false, "Also report catalog names missing from the scene")
	validateCmd.Flags().Bool("json", false, "Print the issues as JSON")
}
