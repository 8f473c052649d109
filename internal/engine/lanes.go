package engine

import "sync"

// lanes serializes commands. Item commands share the global lane and hold
// an exclusive lane for their id; bulk commands hold the global lane
// exclusively. Two commands for the same id therefore never interleave
// their apply, remote call, and reconcile steps.
type lanes struct {
	global sync.RWMutex

	mu    sync.Mutex
	items map[int64]*itemLane
}

type itemLane struct {
	mu   sync.Mutex
	refs int
}

func newLanes() *lanes {
	return &lanes{items: make(map[int64]*itemLane)}
}

// item acquires the lane for id and returns its release func.
func (l *lanes) item(id int64) func() {
	l.global.RLock()

	l.mu.Lock()
	ln, ok := l.items[id]
	if !ok {
		ln = &itemLane{}
		l.items[id] = ln
	}
	ln.refs++
	l.mu.Unlock()

	ln.mu.Lock()

	return func() {
		ln.mu.Unlock()

		l.mu.Lock()
		ln.refs--
		if ln.refs == 0 {
			delete(l.items, id)
		}
		l.mu.Unlock()

		l.global.RUnlock()
	}
}

// all acquires the global lane exclusively and returns its release func.
func (l *lanes) all() func() {
	l.global.Lock()
	return l.global.Unlock
}
