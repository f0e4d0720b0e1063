package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var evictMaxMBFlag int

// NewCacheCmd creates the cache subcommand.
func NewCacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the tensor cache",
		RunE:  runCacheStatus,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached tensor",
		RunE:  runCacheClear,
	}

	evictCmd := &cobra.Command{
		Use:   "evict",
		Short: "Evict oldest entries until the cache fits a size limit",
		RunE:  runCacheEvict,
	}
	evictCmd.Flags().IntVar(&evictMaxMBFlag, "max-mb", 0, "Size limit in MB (default: configured PHOTOFLOW_CACHE_MAX_MB)")

	cmd.AddCommand(clearCmd)
	cmd.AddCommand(evictCmd)

	return cmd
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	a, err := GetApp()
	if err != nil {
		return err
	}
	if a.Cache == nil {
		fmt.Println("Tensor cache is disabled.")
		return nil
	}

	size, err := a.Cache.Size()
	if err != nil {
		return err
	}

	fmt.Println("Tensor cache:")
	fmt.Printf("  Directory: %s\n", a.Cache.Dir())
	fmt.Printf("  Size:      %.2f MB\n", float64(size)/(1024*1024))
	if limit := a.Config.CacheMaxBytes(); limit > 0 {
		fmt.Printf("  Limit:     %.2f MB\n", float64(limit)/(1024*1024))
	} else {
		fmt.Println("  Limit:     none")
	}
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	a, err := GetApp()
	if err != nil {
		return err
	}
	if a.Cache == nil {
		return errors.New("tensor cache is disabled")
	}
	if err := a.Cache.Clear(); err != nil {
		return err
	}
	fmt.Println("Cache cleared.")
	return nil
}

func runCacheEvict(cmd *cobra.Command, args []string) error {
	a, err := GetApp()
	if err != nil {
		return err
	}
	if a.Cache == nil {
		return errors.New("tensor cache is disabled")
	}

	limitMB := evictMaxMBFlag
	if limitMB <= 0 {
		limitMB = a.Config.CacheMaxMB
	}
	if limitMB <= 0 {
		return errors.New("no size limit given; pass --max-mb or set PHOTOFLOW_CACHE_MAX_MB")
	}

	if err := a.Cache.EvictToLimit(int64(limitMB) * 1024 * 1024); err != nil {
		return err
	}
	fmt.Printf("Cache evicted to at most %d MB.\n", limitMB)
	return nil
}
