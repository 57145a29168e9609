// Package tasks coordinates long-running generation jobs and the polling that follows them.
//
// # Components
//
//  1. [JobTracker] : at most one active job per session, replaced by the last writer.
//     Never persisted; a restart rediscovers running jobs from the artifact listing.
//
//  2. [GenerationService] : triggers podcast and quiz generation and records the accepted job.
//     A rejected trigger tracks nothing.
//
//  3. [Policy] : pure polling cadence. A podcast whose id starts with [models.InProgressPrefix]
//     keeps polling at the short interval; anything else stops polling.
//
//  4. [Poller] : fetch loop driven by [Policy], with bounded linear backoff on fetch failures.
//     Exhaustion surfaces as [shared.ErrPollExhausted] together with the last known listing.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
