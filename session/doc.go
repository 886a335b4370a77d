// Package session owns the in-memory portal session lifecycle: token issuance,
// binding of a token to a client identity (IP, MAC, username), time-bounded
// validity, binding-aware validation, revocation, and lazy expiry.
//
// # Concurrency
//
// A [Store] guards its whole token map with a single mutex. Create, Validate,
// Lookup and Revoke hold it for their full duration, including the inline
// expiry sweep, so Validate is serialized with every mutation even though it is
// logically a read. All work under the lock is in-memory and bounded by the map
// size.
//
// # Expiry
//
// Sessions are never extended. Expired entries are purged at the start of
// Create and Validate by the configured [SweepStrategy]. [SweepScan] walks the
// whole map and is O(n) per call; [SweepHeap] keeps an expiry-ordered index and
// only touches expired entries. Both honour the same contract.
//
// # What this package must NOT do
//
//   - Return errors from Create, Validate or Revoke. Not-found, expired and
//     binding mismatch all fold into a single false.
//   - Fall back to a weaker random source when the entropy source fails.
//   - Hand out references to stored sessions; callers only receive copies.
package session
