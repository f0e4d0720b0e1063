package photoslib

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"photoflow/internal/progress"
)

// SearchVariant selects which of the two source-observed request-merge
// behaviors a search uses. The variants differ in how the request body
// is assembled, not in the pagination loop itself.
type SearchVariant int

const (
	// VariantFiltered always sends pageSize 100 and always includes the
	// albumId, pageToken and filters members, null or empty included.
	// This is the shape used by the generic loader.
	VariantFiltered SearchVariant = iota
	// VariantAlbum caps pageSize at the requested maximum, omits the
	// pageToken on the first page and omits empty filters entirely.
	// This is the shape used by the album loader.
	VariantAlbum
)

// SearchOptions selects what to search and how much of it to return.
type SearchOptions struct {
	// AlbumID restricts the search to one album. The API rejects
	// combining albumId with filters.
	AlbumID string
	// OrderBy is passed through when set (e.g. "MediaMetadata.creation_time").
	OrderBy string
	// Filters is the assembled filter object, usually from FilterBuilder.
	Filters *Filters
	// MaxItems bounds the returned slice.
	MaxItems int
	// StartFrom skips the first n logically-matching items.
	StartFrom int
	// PhotosOnly drops items without raster photo metadata as pages
	// arrive. The generic entry point sets this; the album entry point
	// historically does not, and the asymmetry is preserved.
	PhotosOnly bool
	// Variant selects the request-merge behavior.
	Variant SearchVariant
	// Progress, when set, receives updates on the CounterLoadImages
	// counter as pages arrive.
	Progress *progress.Set
	// Cancel is the batch's cooperative cancellation flag.
	Cancel *progress.Flag
}

// Search walks mediaItems:search pages until the requested window
// [StartFrom, StartFrom+MaxItems) is satisfied, the listing is
// exhausted, a later page fails, or the operation is cancelled.
//
// A failure on the first page is returned as an error; a failure on any
// later page ends the walk and the accumulated window is returned as a
// partial, non-error result. Cancellation returns progress.ErrCancelled.
func (c *Client) Search(ctx context.Context, opts SearchOptions) ([]MediaItem, error) {
	total := opts.StartFrom + opts.MaxItems
	c.logger.Info("searching up to %d items (skipping first %d)", opts.MaxItems, opts.StartFrom)

	pageSize := searchPageSize
	if opts.Variant == VariantAlbum && opts.MaxItems < pageSize {
		pageSize = opts.MaxItems
	}

	var all []MediaItem
	pageToken := ""
	firstPage := true

	for len(all) < total {
		if err := opts.Cancel.Check(ctx); err != nil {
			return nil, err
		}
		// Fixed inter-page delay; the first wait returns immediately.
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, progress.ErrCancelled
		}

		items, nextToken, err := c.searchPage(ctx, opts, pageSize, pageToken)
		if err != nil {
			if err := opts.Cancel.Check(ctx); err != nil {
				return nil, err
			}
			if firstPage {
				return nil, err
			}
			c.logger.Warn("search aborted after %d items: %v", len(all), err)
			break
		}
		firstPage = false

		if err := opts.Cancel.Check(ctx); err != nil {
			return nil, err
		}

		if len(items) == 0 {
			c.logger.Info("no more items found")
			break
		}

		if opts.PhotosOnly {
			items = filterPhotos(items)
		}
		all = append(all, items...)
		if opts.Progress != nil {
			opts.Progress.Update(CounterLoadImages, int64(len(items)))
		}
		c.logger.Info("retrieved %d media items in this page, %d total", len(items), len(all))

		if nextToken == "" {
			c.logger.Info("no more pages available")
			break
		}
		pageToken = nextToken
	}

	return window(all, opts.StartFrom, opts.MaxItems), nil
}

func (c *Client) searchPage(ctx context.Context, opts SearchOptions, pageSize int, pageToken string) ([]MediaItem, string, error) {
	var body interface{}
	switch opts.Variant {
	case VariantAlbum:
		body = searchRequest{
			PageSize:  pageSize,
			PageToken: pageToken,
			AlbumID:   opts.AlbumID,
			OrderBy:   opts.OrderBy,
			Filters:   opts.Filters,
		}
	default:
		var albumID *string
		if opts.AlbumID != "" {
			albumID = &opts.AlbumID
		}
		var token *string
		if pageToken != "" {
			token = &pageToken
		}
		filters := opts.Filters
		if filters == nil {
			filters = &Filters{}
		}
		body = legacySearchRequest{
			PageSize:  pageSize,
			AlbumID:   albumID,
			PageToken: token,
			OrderBy:   opts.OrderBy,
			Filters:   filters,
		}
	}

	var resp searchResponse
	if err := c.doJSON(ctx, http.MethodPost, "/mediaItems:search", body, &resp, "search"); err != nil {
		return nil, "", err
	}
	return resp.MediaItems, resp.NextPageToken, nil
}

func filterPhotos(items []MediaItem) []MediaItem {
	kept := items[:0:len(items)]
	for _, item := range items {
		if item.HasPhoto() {
			kept = append(kept, item)
		}
	}
	return kept
}

// window slices [skip, skip+max) out of items, tolerating page
// boundaries that land mid-window.
func window(items []MediaItem, skip, max int) []MediaItem {
	if skip >= len(items) {
		return nil
	}
	end := skip + max
	if end > len(items) {
		end = len(items)
	}
	return items[skip:end]
}

// ListAlbumsOptions carries the progress and cancellation hooks of an
// album listing.
type ListAlbumsOptions struct {
	Progress *progress.Set
	Cancel   *progress.Flag
}

// ListAlbums walks the albums listing to exhaustion. There is no
// maximum: the caller gets every album. A failure after the first page
// returns the accumulated albums as a partial result.
func (c *Client) ListAlbums(ctx context.Context, opts ListAlbumsOptions) ([]Album, error) {
	c.logger.Info("starting to list albums")

	var all []Album
	pageToken := ""
	firstPage := true

	for {
		if err := opts.Cancel.Check(ctx); err != nil {
			return nil, err
		}
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, progress.ErrCancelled
		}

		query := url.Values{"pageSize": {strconv.Itoa(albumsPageSize)}}
		if pageToken != "" {
			query.Set("pageToken", pageToken)
		}
		path := "/albums?" + query.Encode()

		var resp albumsResponse
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &resp, "albums"); err != nil {
			if err := opts.Cancel.Check(ctx); err != nil {
				return nil, err
			}
			if firstPage {
				return nil, err
			}
			c.logger.Warn("album listing aborted after %d albums: %v", len(all), err)
			break
		}
		firstPage = false

		all = append(all, resp.Albums...)
		if opts.Progress != nil {
			opts.Progress.Update(CounterListAlbums, int64(len(resp.Albums)))
		}
		c.logger.Info("retrieved %d albums in this page, %d total", len(resp.Albums), len(all))

		if resp.NextPageToken == "" {
			c.logger.Info("no more pages available")
			break
		}
		pageToken = resp.NextPageToken
	}

	c.logger.Info("retrieved a total of %d albums", len(all))
	return all, nil
}
