// Package redisstream is a portalgate.AuditSink that appends each audit event
// to a Redis stream with XADD, so several portal instances can feed one
// collector.
//
// Each entry carries the event type, success flag and the full event as JSON
// in the "event" field. The stream is trimmed approximately to MaxLen.
//
// # What this package must NOT do
//
//   - Block the engine: it runs on the audit dispatcher goroutine and bounds
//     every write with a timeout.
//   - Own the Redis client lifecycle; callers close it.
package redisstream
