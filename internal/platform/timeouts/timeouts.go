// Package timeouts defines shared timeout constants used across the runtime.
package timeouts

import "time"

// StorageWrite caps a single batched write to the shopkeeper store.
const StorageWrite = 10 * time.Second

// StorageLoad caps reading every stored shopkeeper on startup.
const StorageLoad = 30 * time.Second

// Shutdown limits how long the runtime waits for in-flight work
// (pending flushes, telemetry export) during graceful shutdown.
const Shutdown = 5 * time.Second
