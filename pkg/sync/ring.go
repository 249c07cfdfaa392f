package sync

import (
	"encoding/binary"
	"fmt"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// ring is a consistent hash ring over stripe indices.
type ring struct {
	points *treemap.Map

	// first caches the stripe of the lowest point, which owns every hash past
	// the highest point. treemap.Map.Min() is O(log n).
	first int
}

// newRing places each of stripes indices on the ring replicas times.
func newRing(stripes, replicas int) *ring {
	points := treemap.NewWith(utils.Int64Comparator)
	for stripe := 0; stripe < stripes; stripe++ {
		seed, _ := murmur3.Sum128([]byte(fmt.Sprintf("entry%d", stripe)))

		var buf [12]byte
		binary.LittleEndian.PutUint64(buf[:8], seed)
		for replica := 0; replica < replicas; replica++ {
			binary.LittleEndian.PutUint32(buf[8:], uint32(replica))
			hash, _ := murmur3.Sum128(buf[:])
			points.Put(int64(hash), stripe)
		}
	}

	r := &ring{points: points}
	if _, first := points.Min(); first != nil {
		r.first = first.(int)
	}
	return r
}

// stripe returns the stripe index owning key.
func (r *ring) stripe(key []byte) int {
	hash, _ := murmur3.Sum128(key)
	if _, stripe := r.points.Ceiling(int64(hash)); stripe != nil {
		return stripe.(int)
	}
	return r.first
}
