// Package pool provides pooled row maps for the ingest hot path. Rows
// decoded from NDJSON are short-lived; pooling them keeps per-event
// allocations flat.
package pool

import (
	"sync"
)

const maxPooledMapSize = 256

var mapPool = sync.Pool{
	New: func() interface{} {
		return make(map[string]interface{}, 16)
	},
}

// GetMap returns an empty row map from the pool.
func GetMap() map[string]interface{} {
	return mapPool.Get().(map[string]interface{})
}

// PutMap clears a row map and returns it to the pool. Maps that grew
// unusually large are dropped.
func PutMap(m map[string]interface{}) {
	if m == nil || len(m) > maxPooledMapSize {
		return
	}
	for k := range m {
		delete(m, k)
	}
	mapPool.Put(m)
}
