package main

import (
	"github.com/aretw0/lattice/internal/cli"
	"github.com/aretw0/lattice/pkg/adapters/file"
	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan FILE",
	Short: "Resolve a synth file and emit its placements",
	Long: `Parses the synth file, resolves its object names (reloading the scene file it
names once if some are missing) and sends one placement per object per cell,
plane by plane, to the selected sink.

Sinks:
- stdout (default) or --out PATH: JSON Lines or text
- sqlite:PATH: placements table of a scene database
- redis[:SCENE]: placement queue of the shared scene registry
- exec:HOST: stdin of a host program listed in the hosts file`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		out, _ := cmd.Flags().GetString("out")
		sink, _ := cmd.Flags().GetString("sink")
		quiet, _ := cmd.Flags().GetBool("quiet")

		return withApp(cmd, func(app *cli.App) error {
			var format file.Format
			if output != "" {
				f, err := file.ParseFormat(output)
				if err != nil {
					return err
				}
				format = f
			}

			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()

			_, err := app.Plan(ctx, cli.PlanOptions{
				Path:        args[0],
				SinkOptions: cli.SinkOptions{Spec: sink, Out: out, Format: format},
				Quiet:       quiet,
			})
			return err
		})
	},
}

func init() {
	rootCmd.AddCommand(planCmd)
	planCmd.Flags().StringP("output", "o", "", "Line format: jsonl or text (default from config)")
	planCmd.Flags().String("out", "", "Write placements to this file instead of stdout")
	planCmd.Flags().String("sink", "", "Placement sink: sqlite:PATH, redis[:SCENE] or exec:HOST")
	planCmd.Flags().BoolP("quiet", "q", false, "Do not print the run summary")
}
