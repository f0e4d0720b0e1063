package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"photoflow/internal/fetcher"
	"photoflow/internal/photoslib"
	"photoflow/internal/transform"
)

var (
	itemSizeFlag   int
	itemPolicyFlag string
	itemOutputFlag string
)

// NewItemCmd creates the item subcommand.
func NewItemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item <media-item-id>",
		Short: "Fetch a single media item as a tensor",
		Args:  cobra.ExactArgs(1),
		RunE:  runItem,
	}

	cmd.Flags().IntVarP(&itemSizeFlag, "size", "s", 512, "Target size in pixels")
	cmd.Flags().StringVarP(&itemPolicyFlag, "policy", "p", "scale", "Sizing policy: original, scale, crop, fill")
	cmd.Flags().StringVarP(&itemOutputFlag, "output", "o", "tensors", "Directory for the tensor file")

	return cmd
}

func runItem(cmd *cobra.Command, args []string) error {
	a, err := GetApp()
	if err != nil {
		return err
	}
	ctx, cancelCtx := a.Cancel.Context(context.Background())
	defer cancelCtx()

	policy, err := transform.ParsePolicy(itemPolicyFlag)
	if err != nil {
		return err
	}

	item, err := a.Client.GetMediaItem(ctx, args[0])
	if err != nil {
		return err
	}

	res, err := a.Fetch.FetchAll(ctx, []photoslib.MediaItem{*item}, fetcher.Request{
		Policy:       policy,
		TargetSize:   itemSizeFlag,
		CacheEnabled: a.Cache != nil,
		Cancel:       a.Cancel,
	})
	if err != nil {
		return err
	}
	if len(res.Tensors) == 0 {
		return fmt.Errorf("item %s could not be materialized", args[0])
	}

	if err := writeTensors(itemOutputFlag, policy, itemSizeFlag, res.Tensors); err != nil {
		return err
	}
	shape := res.Tensors[0].Shape()
	fmt.Printf("Wrote tensor %v to %s\n", shape, itemOutputFlag)
	return nil
}
