package todo

import (
	"sync/atomic"
	"time"
)

// IDGenerator hands out provisional ids for todos the remote never confirmed.
// Ids are derived from the wall clock in milliseconds but strictly increase,
// so rapid successive calls never collide.
type IDGenerator struct {
	last atomic.Int64
	now  func() time.Time
}

// NewIDGenerator returns a generator backed by time.Now.
func NewIDGenerator() *IDGenerator {
	return &IDGenerator{now: time.Now}
}

// Next returns the next provisional id.
func (g *IDGenerator) Next() int64 {
	for {
		prev := g.last.Load()
		next := g.now().UnixMilli()
		if next <= prev {
			next = prev + 1
		}
		if g.last.CompareAndSwap(prev, next) {
			return next
		}
	}
}
