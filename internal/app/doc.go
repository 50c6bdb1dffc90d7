// Package app is the application layer — the only component that references
// multiple domain components. It orchestrates the analysis use cases: session
// resolution, rate limiting, scoring, history and the security log.
package app
