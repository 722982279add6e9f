package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"askip/internal/fetch/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the local document cache",
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show where the cache lives and how many documents it holds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()
		n, err := store.Count(cmd.Context())
		if err != nil {
			return err
		}
		cmd.Printf("%s: %d document(s)\n", store.Path(), n)
		return nil
	},
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Remove every cached document",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		store, err := openCache()
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Purge(cmd.Context()); err != nil {
			return err
		}
		cmd.Println("Cache purged.")
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheInfoCmd, cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}

func openCache() (*cache.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	store, err := cache.Open(cfg.Fetch.Cache.Dir, cfg.CacheTTL())
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return store, nil
}
