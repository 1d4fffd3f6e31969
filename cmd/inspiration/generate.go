package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"inspiration-batch/internal/artifact"
	"inspiration-batch/internal/batch"
	"inspiration-batch/internal/catalog"
	"inspiration-batch/internal/gemini"
	"inspiration-batch/internal/generation"
	"inspiration-batch/internal/httpclient"
)

type generateOptions struct {
	start  int
	end    int
	ids    []int
	delay  time.Duration
	verify bool
}

func newGenerateCmd() *cobra.Command {
	var opts generateOptions

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate missing images for a range or a list of ids",
		Long: `Generates images for the eligible catalog entries selected by --start/--end
(indexes into the eligible list, end exclusive) or by --ids. Entries whose
image already exists are skipped, so an interrupted run can simply be
repeated. A results ledger is written to the output directory.`,
		Example: `  inspiration generate --start 0 --end 50
  inspiration generate --ids 10015,10024,10073`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.IntVar(&opts.start, "start", 0, "first index of the eligible entries")
	f.IntVar(&opts.end, "end", 0, "index after the last eligible entry")
	f.IntSliceVar(&opts.ids, "ids", nil, "catalog ids to generate, comma separated")
	f.DurationVar(&opts.delay, "delay", 0, "pause after each generation attempt (default BATCH_DELAY_MS)")
	f.BoolVar(&opts.verify, "verify", false, "treat existing files that are not valid PNGs as missing")

	cmd.MarkFlagsRequiredTogether("start", "end")
	cmd.MarkFlagsMutuallyExclusive("start", "ids")
	cmd.MarkFlagsMutuallyExclusive("end", "ids")

	return cmd
}

// runGenerate checks the selection and the credential before touching the
// catalog or the network.
func runGenerate(cmd *cobra.Command, opts generateOptions) error {
	ctx := cmd.Context()

	sel := catalog.Selection{IDs: opts.ids}
	if cmd.Flags().Changed("start") || cmd.Flags().Changed("end") {
		sel.Range = &catalog.Range{Start: opts.start, End: opts.end}
	}
	if err := sel.Validate(); err != nil {
		return err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	rules := catalog.DefaultRules()
	rules.MinID = cfg.MinID
	eligible := rules.Filter(cat.Entries)

	entries, missing := sel.Apply(eligible)
	if len(missing) > 0 {
		logger.Debug("requested ids not eligible or not in catalog", "ids", missing)
	}

	delay := cfg.BatchDelay
	if cmd.Flags().Changed("delay") {
		delay = opts.delay
	}

	httpClient := httpclient.New(httpclient.Options{
		PreferIPv4: cfg.PreferIPv4,
		Timeout:    cfg.HTTPTimeout,
		UserAgent:  userAgent,
	})

	gem, err := gemini.New(ctx, gemini.Options{
		APIKey:     cfg.GeminiAPIKey,
		Model:      cfg.GeminiModel,
		ImageSize:  cfg.GeminiImageSize,
		HTTPClient: httpClient,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("gemini init: %w", err)
	}

	store := artifact.New(artifact.Options{
		Dir:    cfg.OutputDir,
		Verify: opts.verify,
		Logger: logger,
	})

	runner := batch.New(batch.Options{
		Executor: generation.New(generation.Options{
			Generator: gem,
			Store:     store,
			Logger:    logger,
		}),
		Store:  store,
		Delay:  delay,
		Out:    cmd.OutOrStdout(),
		Logger: logger,
	})

	label := sel.Label()
	logger.Info("selection resolved",
		"label", label,
		"catalog", len(cat.Entries),
		"eligible", len(eligible),
		"selected", len(entries),
		"model", gem.Model(),
	)

	summary, runErr := runner.Run(ctx, entries, label)
	if summary.LedgerPath != "" {
		if tg := newNotifier(); tg != nil {
			// The run context may already be cancelled; the summary still goes out.
			notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
			if err := tg.BatchFinished(notifyCtx, label, summary); err != nil {
				logger.Warn("notify failed", "err", err)
			}
			cancel()
		}
	}

	if errors.Is(runErr, context.Canceled) {
		logger.Info("stopped by signal", "label", label)
	}
	return runErr
}
