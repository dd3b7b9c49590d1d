package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"sonicvoyager/internal/library"
	"sonicvoyager/internal/preflight"
	"sonicvoyager/internal/show"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check dependencies, directories and the capture catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			var lines []string

			lines = append(lines, renderSectionHeader("Dependencies", colorize))
			for _, dep := range preflight.CheckSystemDeps(cfg) {
				kind, msg := statusOK, dep.Command
				if !dep.Available {
					kind, msg = statusError, dep.Detail
					if dep.Optional {
						kind = statusWarn
					}
				}
				lines = append(lines, renderStatusLine(dep.Name, kind, msg, colorize))
			}
			format := preflight.CheckCaptureFormat(cmd.Context(), cfg)
			lines = append(lines, renderStatusLine(format.Name, passKind(format.Passed, statusWarn), format.Detail, colorize))

			lines = append(lines, "", renderSectionHeader("Filesystem", colorize))
			for _, r := range preflight.RunAll(cmd.Context(), cfg) {
				lines = append(lines, renderStatusLine(r.Name, passKind(r.Passed, statusError), r.Detail, colorize))
			}

			lines = append(lines, "", renderSectionHeader("Performance", colorize))
			locked, err := show.Locked(cfg)
			switch {
			case err != nil:
				lines = append(lines, renderStatusLine("Live performance", statusWarn, err.Error(), colorize))
			case locked:
				lines = append(lines, renderStatusLine("Live performance", statusInfo, "running", colorize))
			default:
				lines = append(lines, renderStatusLine("Live performance", statusInfo, "idle", colorize))
			}
			lines = append(lines, renderStatusLine("Queued tracks", statusInfo, fmt.Sprintf("%d", len(cfg.Tracks)), colorize))

			err = ctx.withCatalog(func(store *library.Store) error {
				stats, err := store.Stats(cmd.Context())
				if err != nil {
					return err
				}
				msg := fmt.Sprintf("%d captures, %s", stats.Count, humanize.IBytes(uint64(max(stats.Bytes, 0))))
				kind := statusOK
				if stats.Unchecked > 0 {
					msg += fmt.Sprintf(", %d unvalidated", stats.Unchecked)
					kind = statusWarn
				}
				lines = append(lines, renderStatusLine("Catalog", kind, msg, colorize))
				return nil
			})
			if err != nil {
				lines = append(lines, renderStatusLine("Catalog", statusError, err.Error(), colorize))
			}

			fmt.Fprintln(out, strings.Join(lines, "\n"))
			return nil
		},
	}
}

func passKind(passed bool, failed statusKind) statusKind {
	if passed {
		return statusOK
	}
	return failed
}
