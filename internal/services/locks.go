package services

import (
	"hash/fnv"
	"sync"
)

// keyedLocks serializes work per key over a fixed set of mutexes. Two keys
// may share a stripe; that only costs throughput.
type keyedLocks struct {
	stripes []sync.Mutex
}

func newKeyedLocks(n int) *keyedLocks {
	if n <= 0 {
		n = 64
	}
	return &keyedLocks{stripes: make([]sync.Mutex, n)}
}

func (k *keyedLocks) lock(key string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	m := &k.stripes[h.Sum32()%uint32(len(k.stripes))]
	m.Lock()
	return m.Unlock
}
