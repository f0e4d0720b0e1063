// Package photoslib is a client for the Google Photos Library API.
//
// It covers the paginated mediaItems:search and albums listings, single
// media item lookup, and raw content downloads against an item's
// ephemeral base URL. Page requests are rate limited with a fixed
// inter-page delay and every loop is cooperatively cancellable.
//
// A transport or non-2xx failure mid-listing aborts pagination and
// returns whatever was accumulated; only a failure on the first page is
// surfaced as an error.
package photoslib
