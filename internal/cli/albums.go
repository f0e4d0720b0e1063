package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"photoflow/internal/albumstore"
	"photoflow/internal/photoslib"
)

var albumsCachedFlag bool

// NewAlbumsCmd creates the albums subcommand.
func NewAlbumsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "albums",
		Short: "List the account's albums",
		Long: `Lists every album in the account, one line per album with its
enumeration index. The listing is mirrored locally so a later fetch can
refer to an album by index without another enumeration.`,
		RunE: runAlbums,
	}

	cmd.Flags().BoolVar(&albumsCachedFlag, "cached", false, "Print the local mirror without querying the API")

	return cmd
}

func runAlbums(cmd *cobra.Command, args []string) error {
	a, err := GetApp()
	if err != nil {
		return err
	}
	ctx, cancelCtx := a.Cancel.Context(context.Background())
	defer cancelCtx()

	mirror, err := albumstore.Open(ctx, a.Config.AlbumDBPath, a.Logger)
	if err != nil {
		return err
	}
	defer mirror.Close()

	if !albumsCachedFlag {
		albums, err := a.Client.ListAlbums(ctx, photoslib.ListAlbumsOptions{Cancel: a.Cancel})
		if err != nil {
			return err
		}
		if err := mirror.ReplaceAll(ctx, albums); err != nil {
			return err
		}
	}

	entries, err := mirror.All(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Println("No albums found.")
		return nil
	}
	fmt.Print(albumstore.FormatList(entries))
	return nil
}
