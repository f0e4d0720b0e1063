// Package fetcher turns a list of enumerated media items into decoded,
// transformed tensors. It runs downloads with bounded concurrency,
// isolates per-item failures, consults the tensor cache before going to
// the network and honors cooperative cancellation between items.
package fetcher
