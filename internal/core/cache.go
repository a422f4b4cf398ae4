package core

import "math"

// memo is a bounded FIFO memo of Add results.
// Keys are IEEE bit patterns so that -0/+0 and NaN payloads never collide.
type memo struct {
	capacity int
	entries  map[pairKey]float64
	order    []pairKey // insertion order, oldest first
}

type pairKey [2]uint64

func (m *memo) clear() {
	clear(m.entries)
	m.order = m.order[:0]
}

func (m *memo) get(a, b float64) (float64, bool) {
	sum, ok := m.entries[keyFor(a, b)]

	return sum, ok
}

func (m *memo) len() int {
	return len(m.entries)
}

func (m *memo) put(a, b, sum float64) {
	key := keyFor(a, b)

	if _, ok := m.entries[key]; ok {
		m.entries[key] = sum

		return
	}

	if len(m.order) >= m.capacity {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.entries, oldest)
	}

	m.entries[key] = sum
	m.order = append(m.order, key)
}

func keyFor(a, b float64) pairKey {
	return pairKey{math.Float64bits(a), math.Float64bits(b)}
}

func newMemo(capacity int) *memo {
	return &memo{
		capacity: capacity,
		entries:  make(map[pairKey]float64, min(capacity, DefaultCacheSize)),
		order:    make([]pairKey, 0, min(capacity, DefaultCacheSize)),
	}
}
