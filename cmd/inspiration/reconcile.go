package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"inspiration-batch/internal/artifact"
	"inspiration-batch/internal/catalog"
	"inspiration-batch/internal/reconcile"
)

var reconcileVerify bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Record generated images in the catalog",
	Long: `Scans the output directory for <slug>.png files and sets generatedImage on
every catalog entry that has one. All other content of the catalog is written
back unchanged.`,
	Args: cobra.NoArgs,
	RunE: runReconcile,
}

func init() {
	reconcileCmd.Flags().BoolVar(&reconcileVerify, "verify", false, "only count files that decode as PNG")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		return err
	}

	store := artifact.New(artifact.Options{
		Dir:    cfg.OutputDir,
		Verify: reconcileVerify,
		Logger: logger,
	})

	r := reconcile.New(reconcile.Options{
		Catalog:      cat,
		Store:        store,
		PublicPrefix: cfg.PublicPrefix,
		Out:          cmd.OutOrStdout(),
		Logger:       logger,
	})

	updated, err := r.Run(ctx)
	if err != nil {
		return err
	}

	if tg := newNotifier(); tg != nil {
		notifyCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := tg.Reconciled(notifyCtx, cat.Path(), updated); err != nil {
			logger.Warn("notify failed", "err", err)
		}
	}
	return nil
}
