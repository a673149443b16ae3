// Command hakobench drives a hako world through a frame loop: worker
// goroutines record spawns, mutations and destroys into their own command
// buffers, then the main loop applies them and runs a movement system.
package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/pkg/profile"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/edwinsyarief/hako/config"
	"github.com/edwinsyarief/hako/internal/metrics"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, eris.ToString(err, false))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath  string
		profileMode string
		frames      int
		producers   int
		spawn       int
	)
	cmd := &cobra.Command{
		Use:           "hakobench",
		Short:         "Run a concurrent frame loop against a hako world and print its stats as JSON",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if frames > 0 {
				cfg.Bench.Frames = frames
			}
			if producers > 0 {
				cfg.World.Workers = producers
			}
			if spawn > 0 {
				cfg.Bench.SpawnPerFrame = spawn
			}

			log, err := cfg.Logging.NewLogger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			client := metrics.NoOp()
			if cfg.Metrics.StatsdAddress != "" {
				if client, err = metrics.New(cfg.Metrics.StatsdAddress, cfg.Metrics.Tags); err != nil {
					return err
				}
			}
			defer client.Close()

			switch profileMode {
			case "":
			case "cpu":
				defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
			case "mem":
				defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
			default:
				return eris.Errorf("unknown profile mode %q, want cpu or mem", profileMode)
			}

			rep, err := run(cmd.Context(), cfg, log, client)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(rep, "", "  ")
			if err != nil {
				return eris.Wrap(err, "encode report")
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "TOML or YAML config file")
	f.StringVar(&profileMode, "profile", "", "write a cpu or mem profile to the working directory")
	f.IntVarP(&frames, "frames", "n", 0, "number of frames to run (overrides config)")
	f.IntVarP(&producers, "producers", "p", 0, "number of producer goroutines (overrides config)")
	f.IntVar(&spawn, "spawn", 0, "entities spawned per frame (overrides config)")
	return cmd
}
