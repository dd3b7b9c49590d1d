package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sonicvoyager/internal/library"
	"sonicvoyager/internal/playback"
	"sonicvoyager/internal/show"
)

func newPlayCommand(ctx *commandContext) *cobra.Command {
	var overrides trackOverrides
	var record bool
	var volume float64
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "play [track-number|source]",
		Short: "Perform a track live through the sound card",
		Long: `Play performs a track in realtime through the default audio device.
With --record the performance is captured from the first sample of the
track; the capture finishes when the track ends or on Ctrl+C.`,
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

			opts := show.Options{
				Config: cfg,
				Logger: logger,
				Output: &playback.SpeakerOutput{
					Buffer:   time.Duration(cfg.Audio.SpeakerBufferMS) * time.Millisecond,
					VolumeDB: volume,
				},
			}
			if record && cfg.Capture.RecordCatalog {
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

			track, _ := sh.Current()
			fmt.Fprintf(cmd.OutOrStdout(), "Performing %s (%s)\n", track.Title, sh.Director().Active())
			outcome, err := sh.Perform(runCtx, show.PerformOptions{Record: record, Title: overrides.title})
			return reportOutcome(cmd, outcome, err, jsonOutput)
		},
	}
	overrides.register(cmd)
	cmd.Flags().BoolVarP(&record, "record", "r", false, "Capture the performance to video")
	cmd.Flags().Float64Var(&volume, "volume", 0, "Speaker gain in dB (captures are unaffected)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the capture summary as JSON")
	return cmd
}
