// Package param implements the vehicle Parameter Table and its
// param_set request/response protocol.
package param

import "sync"

// Table maps param_name to its last known float value ,
// updated on every PARAM_VALUE. It also tracks, per name, a
// generation counter param_set polls on to detect a fresh arrival
// rather than reading a value that predates its own request.
type Table struct {
	mu     sync.RWMutex
	values map[string]float32
	gen    map[string]uint64

	expectedCount int
	highestIndex  int
	haveCount     bool
}

func NewTable() *Table {
	return &Table{values: map[string]float32{}, gen: map[string]uint64{}}
}

// Update records a PARAM_VALUE and reports whether the bulk fetch is
// now complete: the "index+1 == count" rule, applied to the arriving
// message's own index, so only the message carrying the last index
// reports completion, whatever order the others arrive in.
func (t *Table) Update(name string, value float32, index, count uint16) (complete bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.values[name] = value
	t.gen[name]++

	return int(index)+1 == int(count)
}

// Get returns name's last known value.
func (t *Table) Get(name string) (float32, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[name]
	return v, ok
}

// Generation returns name's update counter, used by param_set polling
// to detect a fresh PARAM_VALUE distinct from a stale prior value.
func (t *Table) Generation(name string) uint64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.gen[name]
}

// All returns a snapshot of every known parameter, for `param show`
// and the mav.parm snapshot writer.
func (t *Table) All() map[string]float32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]float32, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}

// Reset clears the table, used when starting a fresh `param fetch`.
func (t *Table) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values = map[string]float32{}
	t.haveCount = false
	t.expectedCount = 0
	t.highestIndex = -1
}
