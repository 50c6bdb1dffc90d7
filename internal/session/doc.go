// Package session implements the per-session state stores. A session owns
// its rate-limit window, its bounded analysis history and its bounded
// security log; nothing is shared across sessions. The in-memory store is
// the single-instance default, the Redis store shares rate limits and
// history across instances.
package session
