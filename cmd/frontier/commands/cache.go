package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quantcase/frontier/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the calculation cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired cache entries",
	RunE:  runCachePurge,
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cachePurgeCmd)
}

func runCachePurge(cmd *cobra.Command, args []string) error {
	cfg, log, err := setup()
	if err != nil {
		return err
	}

	db, err := openCacheDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := cache.New(db.Conn(), log).Purge()
	if err != nil {
		return err
	}

	fmt.Printf("Purged %d expired entries\n", n)
	return nil
}
