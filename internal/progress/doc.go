// Package progress provides the shared progress counters and the
// cooperative cancellation flag used by one batch operation.
//
// Counters are named and monotonically increasing; updating an unknown
// name is a no-op so that late updates racing a removal are harmless.
// The cancellation flag is advisory: it is set at most once and polled
// at suspension points, never used to interrupt in-flight work.
package progress
