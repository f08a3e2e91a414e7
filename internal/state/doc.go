// Package state provides the thread-safe statistics store shared by the
// poller, the HTTP server and the operator console.
//
// # Overview
//
// The poller records every published chunk, the server records viewer
// counts, and readers take copies with Snapshot:
//
//	Producers:                     Consumers:
//	┌──────────────────────┐      ┌───────────────────┐
//	│ poller.RecordChunk() │      │ /healthz          │
//	│ poller.Fail()        │─────→│ console header    │
//	│ hub → SetViewers()   │(lock)│                   │
//	└──────────────────────┘      └───────────────────┘
//
// # Degraded State
//
// Fail marks the service degraded once the tailed file cannot be read. The
// first error wins; later calls are ignored so the root cause stays visible.
//
// # Thread Safety
//
// All methods lock an RWMutex. Snapshot returns a value copy and wraps the
// stored error so callers never share the stored instance.
package state
