// Package cli assembles the photoflow command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"photoflow/internal/startup"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "photoflow",
		Short: "Fetch Google Photos media as normalized tensors",
		Long: `photoflow enumerates albums and media items from a Google Photos
account, downloads the images and turns them into normalized float32
tensors, with a local disk cache so repeated runs skip the network.`,
		SilenceUsage: true,
		Version:      fmt.Sprintf("%s (%s)", startup.Version, startup.Commit),
	}

	rootCmd.AddCommand(NewLoginCmd())
	rootCmd.AddCommand(NewLogoutCmd())
	rootCmd.AddCommand(NewAlbumsCmd())
	rootCmd.AddCommand(NewFetchCmd())
	rootCmd.AddCommand(NewItemCmd())
	rootCmd.AddCommand(NewCacheCmd())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}
