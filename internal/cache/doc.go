// Package cache persists transcoded image tensors on local storage so
// repeat requests skip the network and the transform pipeline.
//
// Entries are keyed by media id, size policy, target size and (for the
// original policy) the declared source dimensions; the key is a pure
// function of those inputs, so identical requests across runs resolve
// to the same file. Corrupt or missing entries degrade to a cache miss
// and write failures are logged and swallowed, never failing the batch.
package cache
