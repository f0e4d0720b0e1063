package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"photoflow/internal/albumstore"
	"photoflow/internal/fetcher"
	"photoflow/internal/photoslib"
	"photoflow/internal/progress"
	"photoflow/internal/tensor"
	"photoflow/internal/transform"
)

var (
	fetchAlbumFlag     string
	fetchMaxFlag       int
	fetchStartFromFlag int
	fetchSizeFlag      int
	fetchPolicyFlag    string
	fetchOrderByFlag   string
	fetchIncludeFlag   []string
	fetchExcludeFlag   []string
	fetchMediaTypeFlag string
	fetchArchivedFlag  bool
	fetchDateFlag      string
	fetchOutputFlag    string
	fetchNoCacheFlag   bool
	fetchAllMediaFlag  bool
)

// NewFetchCmd creates the fetch subcommand.
func NewFetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download media items as tensors",
		Long: `Enumerates matching media items and materializes each one as a
normalized float32 tensor file. An album can be named by its id or by
the index printed by the albums command. Without an album the whole
library is searched, restricted to photos.`,
		RunE: runFetch,
	}

	cmd.Flags().StringVarP(&fetchAlbumFlag, "album", "a", "", "Album id or index from the albums listing")
	cmd.Flags().IntVarP(&fetchMaxFlag, "max", "m", 10, "Maximum number of items to fetch")
	cmd.Flags().IntVar(&fetchStartFromFlag, "start-from", 0, "Skip this many matching items first")
	cmd.Flags().IntVarP(&fetchSizeFlag, "size", "s", 512, "Target size in pixels")
	cmd.Flags().StringVarP(&fetchPolicyFlag, "policy", "p", "scale", "Sizing policy: original, scale, crop, fill")
	cmd.Flags().StringVar(&fetchOrderByFlag, "order-by", "", "Server-side ordering (e.g. MediaMetadata.creation_time)")
	cmd.Flags().StringSliceVar(&fetchIncludeFlag, "category", nil, "Content categories to include (repeatable)")
	cmd.Flags().StringSliceVar(&fetchExcludeFlag, "exclude-category", nil, "Content categories to exclude (repeatable)")
	cmd.Flags().StringVar(&fetchMediaTypeFlag, "media-type", "", "Restrict to PHOTO or VIDEO")
	cmd.Flags().BoolVar(&fetchArchivedFlag, "archived", false, "Include archived items")
	cmd.Flags().StringVar(&fetchDateFlag, "date", "", "Capture date filter as YYYY[-MM[-DD]]")
	cmd.Flags().StringVarP(&fetchOutputFlag, "output", "o", "tensors", "Directory for the tensor files")
	cmd.Flags().BoolVar(&fetchNoCacheFlag, "no-cache", false, "Bypass the tensor cache for this run")
	cmd.Flags().BoolVar(&fetchAllMediaFlag, "all-media", false, "Keep non-photo items in a library search")

	return cmd
}

func runFetch(cmd *cobra.Command, args []string) error {
	a, err := GetApp()
	if err != nil {
		return err
	}
	ctx, cancelCtx := a.Cancel.Context(context.Background())
	defer cancelCtx()

	policy, err := transform.ParsePolicy(fetchPolicyFlag)
	if err != nil {
		return err
	}
	if fetchMaxFlag <= 0 {
		return errors.New("--max must be positive")
	}

	filters, err := buildFilters()
	if err != nil {
		return err
	}

	opts := photoslib.SearchOptions{
		OrderBy:   fetchOrderByFlag,
		MaxItems:  fetchMaxFlag,
		StartFrom: fetchStartFromFlag,
		Filters:   filters,
		Cancel:    a.Cancel,
	}

	if fetchAlbumFlag != "" {
		albumID, err := resolveAlbum(ctx, a, fetchAlbumFlag)
		if err != nil {
			return err
		}
		opts.AlbumID = albumID
		opts.Variant = photoslib.VariantAlbum
		if filters != nil {
			return errors.New("content filters cannot be combined with --album")
		}
	} else {
		opts.Variant = photoslib.VariantFiltered
		opts.PhotosOnly = !fetchAllMediaFlag
	}

	set := progress.NewSet(a.Logger)
	set.Add(photoslib.CounterLoadImages, int64(fetchMaxFlag))
	defer set.Finish()
	opts.Progress = set

	start := time.Now()
	items, err := a.Client.Search(ctx, opts)
	if err != nil {
		return err
	}
	a.Logger.Info("enumerated %d items in %s", len(items), time.Since(start).Round(time.Millisecond))

	res, err := a.Fetch.FetchAll(ctx, items, fetcher.Request{
		Policy:       policy,
		TargetSize:   fetchSizeFlag,
		CacheEnabled: a.Cache != nil && !fetchNoCacheFlag,
		Progress:     set,
		Cancel:       a.Cancel,
	})
	if err != nil {
		return err
	}

	if err := maintainCache(a); err != nil {
		a.Logger.Warn("cache maintenance failed: %v", err)
	}

	if err := writeTensors(fetchOutputFlag, policy, fetchSizeFlag, res.Tensors); err != nil {
		return err
	}

	fmt.Printf("Fetched %d tensors (%d from cache, %d failed) into %s\n",
		len(res.Tensors), res.Cached, res.Failed, fetchOutputFlag)
	return nil
}

// resolveAlbum turns an album flag value into an album id. A value that
// parses as a small integer is treated as an index into the local album
// mirror; anything else is passed through as an id.
func resolveAlbum(ctx context.Context, a *App, value string) (string, error) {
	index, err := strconv.Atoi(value)
	if err != nil {
		return value, nil
	}

	mirror, err := albumstore.Open(ctx, a.Config.AlbumDBPath, a.Logger)
	if err != nil {
		return "", err
	}
	defer mirror.Close()

	entry, err := mirror.ByIndex(ctx, index)
	if errors.Is(err, albumstore.ErrNotFound) {
		return "", fmt.Errorf("no album at index %d; run \"photoflow albums\" first", index)
	}
	if err != nil {
		return "", err
	}
	a.Logger.Info("album %d resolved to %q (%s)", index, entry.Title, entry.ID)
	return entry.ID, nil
}

func buildFilters() (*photoslib.Filters, error) {
	b := photoslib.NewFilterBuilder().
		IncludeCategories(fetchIncludeFlag...).
		ExcludeCategories(fetchExcludeFlag...).
		MediaType(fetchMediaTypeFlag)
	if fetchArchivedFlag {
		b.IncludeArchived()
	}
	if fetchDateFlag != "" {
		year, month, day, err := parseDateFlag(fetchDateFlag)
		if err != nil {
			return nil, err
		}
		b.Date(year, month, day)
	}
	return b.Build(), nil
}

func parseDateFlag(s string) (year, month, day int, err error) {
	for _, layout := range []string{"2006-01-02", "2006-01", "2006"} {
		if t, perr := time.Parse(layout, s); perr == nil {
			switch layout {
			case "2006":
				return t.Year(), 0, 0, nil
			case "2006-01":
				return t.Year(), int(t.Month()), 0, nil
			default:
				return t.Year(), int(t.Month()), t.Day(), nil
			}
		}
	}
	return 0, 0, 0, fmt.Errorf("invalid --date %q, want YYYY[-MM[-DD]]", s)
}

// writeTensors writes one file per tensor into dir. An empty batch
// still produces a single zero tensor of the target geometry so
// downstream consumers always receive well-formed input.
func writeTensors(dir string, policy transform.Policy, size int, tensors []*tensor.Tensor) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if len(tensors) == 0 {
		if size <= 0 || policy == transform.PolicyOriginal {
			size = 64
		}
		tensors = []*tensor.Tensor{tensor.New(size, size, 3)}
	}

	for i, t := range tensors {
		path := filepath.Join(dir, fmt.Sprintf("%04d.ten", i))
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating %s: %w", path, err)
		}
		if _, err := t.WriteTo(f); err != nil {
			f.Close()
			return fmt.Errorf("writing %s: %w", path, err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("closing %s: %w", path, err)
		}
	}
	return nil
}

// maintainCache enforces the configured size limit after a batch.
func maintainCache(a *App) error {
	if a.Cache == nil || a.Config.CacheMaxBytes() <= 0 {
		return nil
	}
	return a.Cache.EvictToLimit(a.Config.CacheMaxBytes())
}
