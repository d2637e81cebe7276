package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"spotter/internal/driver"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the findings cache",
	Long:  "Invalidate the findings cache so the next check analyses every file again.",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

func init() {
	cleanCmd.Flags().String("cache-dir", "", "findings cache directory")
}

func runClean(cmd *cobra.Command, _ []string) error {
	s, err := loadSession(cmd)
	if err != nil {
		return err
	}
	dir := s.manifest.Resolve(s.settings.Cache.Dir)
	if cmd.Flags().Changed("cache-dir") {
		if dir, err = cmd.Flags().GetString("cache-dir"); err != nil {
			return fmt.Errorf("failed to get cache-dir flag: %w", err)
		}
	}
	if dir == "" {
		if dir, err = driver.DefaultCacheDir("spotter"); err != nil {
			return err
		}
	}
	cache, err := driver.OpenCache(dir)
	if err != nil {
		return fmt.Errorf("failed to open cache %q: %w", dir, err)
	}
	if err := cache.DropAll(); err != nil {
		return fmt.Errorf("failed to clean cache %q: %w", dir, err)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", cache.Dir())
	return nil
}
