// Package hub fans rendered chunks out to connected viewers.
//
// The Hub owns the viewer set. Register and Unregister may be called from any
// goroutine at any time; Publish snapshots the set under a lock and delivers
// outside it, so a viewer leaving mid-broadcast neither corrupts iteration nor
// blocks the others. A viewer whose Deliver fails is removed and reported as
// an EventDropped. There is no retry.
package hub
