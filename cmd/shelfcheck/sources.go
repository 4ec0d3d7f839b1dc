package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"shelfcheck/internal/config"
	"shelfcheck/internal/probe"
)

var sourcesTimeout time.Duration

// sourcesCmd creates the "sources" subcommand.
func sourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Probe each catalog's entry page",
		Long:  "Check over plain HTTP whether each configured catalog's entry page responds, without launching a browser.",
		RunE:  runSources,
	}

	cmd.Flags().DurationVarP(&sourcesTimeout, "timeout", "t", 10*time.Second, "per-source probe timeout")

	return cmd
}

// runSources executes the sources command.
func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	prober := probe.NewProber(sourcesTimeout, logger)
	statuses := prober.Check(ctx, catalogSources(cfg))

	failed := 0
	for _, s := range statuses {
		mark := "✅"
		detail := fmt.Sprintf("HTTP %d in %s", s.Status, s.Latency.Round(time.Millisecond))
		if !s.Reachable {
			mark = "❌"
			failed++
			if s.Error != "" {
				detail = s.Error
			}
		}
		fmt.Printf("%s %-8s %-32s %s\n", mark, s.Key, s.Label, detail)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sources unreachable", failed, len(statuses))
	}
	return nil
}
