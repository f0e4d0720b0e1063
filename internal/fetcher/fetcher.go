package fetcher

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"photoflow/internal/cache"
	"photoflow/internal/logging"
	"photoflow/internal/metrics"
	"photoflow/internal/photoslib"
	"photoflow/internal/progress"
	"photoflow/internal/tensor"
	"photoflow/internal/transform"
)

const (
	// DefaultConcurrency bounds simultaneous downloads for the generic
	// fetch path.
	DefaultConcurrency = 10
	// AlbumConcurrency is the historically higher bound used when
	// fetching a whole album.
	AlbumConcurrency = 20
	// DefaultPacingWindow bounds how many items may be admitted ahead
	// of completions: once the window is full, each new enqueue waits
	// for an earlier item to finish. Progress is also logged at this
	// cadence.
	DefaultPacingWindow = 5

	// CounterProcessImages is the progress counter incremented once per
	// processed item, whatever the outcome.
	CounterProcessImages = "process_images"
)

// Config tunes a Fetcher. Zero values select the defaults above.
type Config struct {
	Concurrency  int
	PacingWindow int
}

// Fetcher downloads, transforms and caches media items.
type Fetcher struct {
	client *photoslib.Client
	store  *cache.Store
	logger logging.Logger
	limit  int
	pacing int
}

// New returns a Fetcher using the given API client and tensor cache.
// store may be nil when caching is disabled for the process.
func New(client *photoslib.Client, store *cache.Store, cfg Config, logger logging.Logger) *Fetcher {
	limit := cfg.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	pacing := cfg.PacingWindow
	if pacing <= 0 {
		pacing = DefaultPacingWindow
	}
	return &Fetcher{
		client: client,
		store:  store,
		logger: logging.Or(logger),
		limit:  limit,
		pacing: pacing,
	}
}

// Request describes how one batch of items is to be materialized.
type Request struct {
	Policy       transform.Policy
	TargetSize   int
	CacheEnabled bool
	// Operation names the batch for metrics ("fetch" by default).
	Operation string
	// Progress, when set, carries the per-item completion counter.
	Progress *progress.Set
	// Cancel is the batch's cooperative cancellation flag.
	Cancel *progress.Flag
}

// Result is the outcome of a batch fetch. Tensors holds one tensor per
// successfully processed item, in the order the items were given;
// failed items are skipped, not represented by gaps.
type Result struct {
	Tensors []*tensor.Tensor
	Failed  int
	Cached  int
}

// FetchAll materializes tensors for every item. Individual item
// failures are logged and counted, never escalated; the batch fails as
// a whole only on cancellation, which returns progress.ErrCancelled.
func (f *Fetcher) FetchAll(ctx context.Context, items []photoslib.MediaItem, req Request) (Result, error) {
	operation := req.Operation
	if operation == "" {
		operation = "fetch"
	}
	start := time.Now()
	defer func() {
		metrics.BatchDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
		f.client.CloseIdleConnections()
	}()

	if req.Progress != nil {
		req.Progress.Add(CounterProcessImages, int64(len(items)))
		defer req.Progress.Remove(CounterProcessImages)
	}

	f.logger.Info("fetching %d items (policy %s, size %d, %d workers)",
		len(items), req.Policy, req.TargetSize, f.limit)

	results := make([]*tensor.Tensor, len(items))
	var failed, cached, completed atomic.Int64

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(f.limit)

	// Admission pacing: the first window of items dispatches freely,
	// after that each new enqueue waits for a completion, so a slow
	// batch never piles up more than `pacing` in-flight items.
	admit := make(chan struct{}, f.pacing)

schedule:
	for i := range items {
		if err := req.Cancel.Check(gctx); err != nil {
			break
		}
		select {
		case admit <- struct{}{}:
		case <-gctx.Done():
			break schedule
		}
		i := i
		group.Go(func() error {
			defer func() { <-admit }()
			if err := req.Cancel.Check(gctx); err != nil {
				return err
			}

			t, fromCache, err := f.fetchOne(gctx, &items[i], req)
			done := completed.Add(1)
			if req.Progress != nil {
				req.Progress.Update(CounterProcessImages, 1)
			}
			if done%int64(f.pacing) == 0 || done == int64(len(items)) {
				f.logger.Info("processed %d/%d items", done, len(items))
			}

			switch {
			case errors.Is(err, progress.ErrCancelled):
				return err
			case err != nil:
				failed.Add(1)
				metrics.ItemsProcessedTotal.WithLabelValues("failure").Inc()
				f.logger.Warn("item %s failed: %v", items[i].ID, err)
				return nil
			case fromCache:
				cached.Add(1)
				metrics.ItemsProcessedTotal.WithLabelValues("cached").Inc()
			default:
				metrics.ItemsProcessedTotal.WithLabelValues("success").Inc()
			}
			results[i] = t
			return nil
		})
	}

	err := group.Wait()
	if err == nil {
		err = req.Cancel.Check(ctx)
	}
	if err != nil {
		metrics.BatchesTotal.WithLabelValues(operation, "cancelled").Inc()
		f.logger.Warn("fetch cancelled after %d of %d items", completed.Load(), len(items))
		return Result{}, progress.ErrCancelled
	}

	res := Result{
		Tensors: make([]*tensor.Tensor, 0, len(items)),
		Failed:  int(failed.Load()),
		Cached:  int(cached.Load()),
	}
	for _, t := range results {
		if t != nil {
			res.Tensors = append(res.Tensors, t)
		}
	}

	metrics.BatchesTotal.WithLabelValues(operation, "success").Inc()
	f.logger.Info("fetch complete: %d ok (%d from cache), %d failed",
		len(res.Tensors), res.Cached, res.Failed)
	return res, nil
}

// fetchOne produces the tensor for a single item, consulting the cache
// first when enabled.
func (f *Fetcher) fetchOne(ctx context.Context, item *photoslib.MediaItem, req Request) (*tensor.Tensor, bool, error) {
	origW, origH := item.Dimensions()
	key := cache.Key{
		MediaID:    item.ID,
		Policy:     req.Policy,
		TargetSize: req.TargetSize,
	}
	if req.Policy == transform.PolicyOriginal {
		key.OrigWidth = origW
		key.OrigHeight = origH
	}

	if req.CacheEnabled && f.store != nil {
		if t, err := f.store.Get(key); err == nil {
			metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
			f.logger.Debug("cache hit for %s", item.ID)
			return t, true, nil
		}
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
	}

	url := transform.SizedURL(item.BaseURL, req.Policy, req.TargetSize, origW, origH)

	metrics.DownloadsInFlight.Inc()
	data, err := f.client.Download(ctx, url)
	metrics.DownloadsInFlight.Dec()
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, progress.ErrCancelled
		}
		return nil, false, err
	}

	var img image.Image
	if req.Policy == transform.PolicyOriginal {
		img, err = transform.Decode(data)
	} else {
		img, err = transform.DecodeConstrained(data, f.logger)
	}
	if err != nil {
		return nil, false, err
	}

	t := transform.ToTensor(transform.Apply(img, req.Policy, req.TargetSize))

	if req.CacheEnabled && f.store != nil {
		f.store.Put(key, t)
	}
	return t, false, nil
}
