package main

import (
	"fmt"
	"os"

	"github.com/aretw0/lattice/internal/cli"
	"github.com/aretw0/lattice/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "lattice",
	Short: "Lattice places scene objects on a synthesized voxel lattice",
	Long: `Lattice reads a synth file (a voxel lattice plus object group catalogs),
resolves the group object names against a scene and emits one placement
command per object per cell.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Config file (default: lattice.yaml, .yml, .json or .hcl in the working directory)")
	flags.String("scene-dir", "", "Directory scene documents are resolved against")
	flags.String("scene", "", "Scene document providing the initial objects")
	flags.Float64("unit", 0, "World distance between neighbouring cells")
	flags.Bool("no-fallback", false, "Do not reload the scene file named by the synth file")
	flags.String("redis", "", "Redis address of the shared scene registry")
	flags.String("log-level", "", "Log level: debug, info, warn or error")
	flags.String("log-format", "", "Log format: text or json")
}

// newApp loads the config file and applies the flags the user set on top.
func newApp(cmd *cobra.Command) (*cli.App, error) {
	flags := cmd.Flags()
	path, _ := flags.GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if flags.Changed("scene-dir") {
		cfg.SceneDir, _ = flags.GetString("scene-dir")
	}
	if flags.Changed("scene") {
		cfg.Scene, _ = flags.GetString("scene")
	}
	if flags.Changed("unit") {
		cfg.Unit, _ = flags.GetFloat64("unit")
	}
	if flags.Changed("no-fallback") {
		noFallback, _ := flags.GetBool("no-fallback")
		cfg.Fallback = !noFallback
	}
	if flags.Changed("redis") {
		cfg.Redis.Addr, _ = flags.GetString("redis")
	}
	if flags.Changed("log-level") {
		cfg.LogLevel, _ = flags.GetString("log-level")
	}
	if flags.Changed("log-format") {
		cfg.LogFormat, _ = flags.GetString("log-format")
	}

	return cli.NewApp(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// withApp runs fn with an app built from the flags and closes it afterwards.
func withApp(cmd *cobra.Command, fn func(app *cli.App) error) error {
	app, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(app)
}
