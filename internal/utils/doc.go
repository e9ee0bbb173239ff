// Package utils provides shared low-level helpers for the provider adapters
// and the runtime: JSON POST round-trips, Server-Sent Events scanning, string
// truncation for log output, and a wall-clock timer.
//
// Key entry points: [DoPostSync] for synchronous JSON round-trips,
// [DoPostStream] together with [SSEScanner] for streaming, and [HTTPError]
// for inspecting non-2xx responses with errors.As.
package utils
