package sync

import (
	base "sync"
)

const replicasPerStripe = 500

// StripedLock maps an unbounded key space, such as account addresses, onto a
// fixed set of mutexes. Equal keys always share a mutex.
type StripedLock struct {
	locks []base.Mutex
	ring  *ring
}

// NewStripedLock returns a StripedLock with the given number of stripes. At
// least one stripe is always allocated.
func NewStripedLock(stripes int) *StripedLock {
	if stripes < 1 {
		stripes = 1
	}
	return &StripedLock{
		locks: make([]base.Mutex, stripes),
		ring:  newRing(stripes, replicasPerStripe),
	}
}

// Get returns the mutex for key.
func (l *StripedLock) Get(key []byte) *base.Mutex {
	return &l.locks[l.ring.stripe(key)]
}
