package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"sonicvoyager/internal/library"
	"sonicvoyager/internal/preflight"
	"sonicvoyager/internal/services"
	"sonicvoyager/internal/show"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var overrides trackOverrides
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "render [track-number|source]",
		Short: "Render a track offline and capture it to video",
		Long: `Render plays a track on a virtual clock, faster than realtime, and
captures the visuals, overlay and original audio into one 1920x1080 video.

The argument is either a 1-based position in the configured [[tracks]] queue
or a local path / http(s) URL of an audio file. With no argument the first
queued track is rendered.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			var ref string
			if len(args) > 0 {
				ref = args[0]
			}
			index, err := selectQueueEntry(cfg, ref, overrides)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if failed := preflight.Failed(preflight.RunAll(runCtx, cfg)); len(failed) > 0 {
				return services.Wrap(services.ErrConfiguration, "render", "preflight",
					fmt.Sprintf("%s: %s", failed[0].Name, failed[0].Detail), nil)
			}

			opts := show.Options{Config: cfg, Logger: logger}
			if cfg.Capture.RecordCatalog {
				store, err := library.Open(cfg)
				if err != nil {
					return err
				}
				defer store.Close()
				opts.Catalog = store
			}

			sh, err := show.New(opts)
			if err != nil {
				return err
			}
			defer sh.Close()

			if err := sh.SelectTrack(runCtx, index); err != nil {
				return err
			}
			if overrides.preset != "" {
				if err := sh.SetPreset(overrides.preset); err != nil {
					return err
				}
			}

			outcome, err := sh.Render(runCtx, overrides.title)
			return reportOutcome(cmd, outcome, err, jsonOutput)
		},
	}
	overrides.register(cmd)
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the capture summary as JSON")
	return cmd
}

// reportOutcome prints a finished capture. Interrupted captures that were
// flushed successfully are reported, not treated as failures.
func reportOutcome(cmd *cobra.Command, outcome *show.Outcome, err error, jsonOutput bool) error {
	if outcome == nil {
		return err
	}
	summary := summarizeOutcome(outcome)
	if jsonOutput {
		if werr := writeJSON(cmd, summary); werr != nil {
			return werr
		}
	} else {
		printCaptureSummary(cmd.OutOrStdout(), summary)
	}
	if errors.Is(err, context.Canceled) && outcome.Capture.Err == nil {
		return nil
	}
	return err
}
