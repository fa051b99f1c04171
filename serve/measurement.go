// Copyright © 2021-2023 The Gomon Project.

package serve

import (
	"sync/atomic"
	"time"
)

type (
	// measures records the metrics for the server's operations.
	measures struct {
		httpRequests   atomic.Int64
		collections    atomic.Int64
		collectionTime atomic.Int64 // nanoseconds
	}
)

// collected records a Prometheus collection that measured the system.
func (m *measures) collected(d time.Duration) {
	m.collections.Add(1)
	m.collectionTime.Add(int64(d))
}
