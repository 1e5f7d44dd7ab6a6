package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ZaguanLabs/transbasket"
	"github.com/ZaguanLabs/transbasket/cache"
)

func newMigrateCmd() *cobra.Command {
	var (
		fromKind   string
		fromConfig string
		toKind     string
		toConfig   string
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "migrate --from <kind> --from-config <path> --to <kind> --to-config <path>",
		Short: "Copy cache entries from one backend to another.",
		Long: `Copy every cache entry from a source backend into a destination
backend. Only the language pair and both texts travel; the destination
assigns fresh ids, counts and timestamps, so migrated entries must be
re-confirmed before they are served from cache.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(fromKind, fromConfig, toKind, toConfig, !noProgress)
		},
		DisableFlagsInUseLine: true,
	}

	fs := cmd.Flags()
	fs.StringVar(&fromKind, "from", "", "source backend kind (text or sqlite)")
	fs.StringVar(&fromConfig, "from-config", "", "source backend path")
	fs.StringVar(&toKind, "to", "", "destination backend kind (text or sqlite)")
	fs.StringVar(&toConfig, "to-config", "", "destination backend path")
	fs.BoolVar(&noProgress, "no-progress", false, "suppress progress logging")
	cmd.MarkFlagRequired("from")
	cmd.MarkFlagRequired("from-config")
	cmd.MarkFlagRequired("to")
	cmd.MarkFlagRequired("to-config")

	return cmd
}

func runMigrate(fromKind, fromConfig, toKind, toConfig string, progress bool) error {
	logger, err := transbasket.NewLogger("info")
	if err != nil {
		return err
	}
	defer logger.Sync()

	from, err := cache.ParseKind(fromKind)
	if err != nil {
		return err
	}
	to, err := cache.ParseKind(toKind)
	if err != nil {
		return err
	}
	if err := cache.ValidateMigrationPair(from, to); err != nil {
		return err
	}

	src, err := cache.New(cache.Options{Kind: from, Path: fromConfig, Logger: logger})
	if err != nil {
		return fmt.Errorf("opening source backend: %w", err)
	}
	defer src.Close()

	dst, err := cache.New(cache.Options{Kind: to, Path: toConfig, Logger: logger})
	if err != nil {
		return fmt.Errorf("opening destination backend: %w", err)
	}
	defer dst.Close()

	result, err := cache.Migrate(src, dst, cache.MigrateOptions{
		Progress: progress,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	fmt.Printf("migrated %d entries, %d failed\n", result.Migrated, result.Failed)
	if result.Failed > 0 {
		return fmt.Errorf("%d entries failed to migrate", result.Failed)
	}
	return nil
}
