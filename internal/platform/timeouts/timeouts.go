// Package timeouts defines the durations shared by roster servers and
// adapters.
package timeouts

import "time"

// ReadHeader limits how long the admin HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long servers wait for in-flight work during graceful
// shutdown.
const Shutdown = 5 * time.Second

// Interaction caps the handling of one inbound gateway interaction. Discord
// invalidates interaction tokens after 15 minutes; the deferred response
// must be followed up well inside that window.
const Interaction = 30 * time.Second
