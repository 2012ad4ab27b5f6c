package main

import (
	"github.com/aretw0/lattice/internal/cli"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP planning server",
	Long: `Starts the planning service: POST a synth document to /plan, /validate or
/fmt. Engine events stream on /events and Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		noMetrics, _ := cmd.Flags().GetBool("no-metrics")

		return withApp(cmd, func(app *cli.App) error {
			if noMetrics {
				app.Config.Metrics = false
			}
			ctx := cli.NewSignalContext(cmd.Context())
			defer ctx.Cancel()
			return app.Serve(ctx, addr)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default from config, :8080)")
	serveCmd.Flags().Bool("no-metrics", false, "Do not expose /metrics")
}
