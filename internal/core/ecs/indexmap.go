package ecs

import "fmt"

// IndexMap maps stable keys to densely packed values. Lookups by key or by
// dense index are O(1); removal swaps the last entry into the freed slot, so
// the only operations that move a key are Remove and ApplySort.
type IndexMap[K comparable, V any] struct {
	index  map[K]int
	keys   []K
	values []V
}

func NewIndexMap[K comparable, V any](capacity int) *IndexMap[K, V] {
	return &IndexMap[K, V]{
		index:  make(map[K]int, capacity),
		keys:   make([]K, 0, capacity),
		values: make([]V, 0, capacity),
	}
}

func (m *IndexMap[K, V]) Len() int { return len(m.keys) }

// Keys exposes the dense key slice. Callers must not modify it.
func (m *IndexMap[K, V]) Keys() []K { return m.keys }

func (m *IndexMap[K, V]) Has(key K) bool {
	_, ok := m.index[key]
	return ok
}

// Find returns the dense index of key without panicking.
func (m *IndexMap[K, V]) Find(key K) (int, bool) {
	i, ok := m.index[key]
	return i, ok
}

func (m *IndexMap[K, V]) IndexOf(key K) int {
	i, ok := m.index[key]
	if !ok {
		panic(fmt.Sprintf("ecs: index map has no key %v", key))
	}
	return i
}

func (m *IndexMap[K, V]) KeyAt(i int) K {
	m.checkIndex(i)
	return m.keys[i]
}

func (m *IndexMap[K, V]) ValueAt(i int) V {
	m.checkIndex(i)
	return m.values[i]
}

// PtrAt returns a pointer into the dense value slice. The pointer is only
// valid until the next Add, Remove or ApplySort.
func (m *IndexMap[K, V]) PtrAt(i int) *V {
	m.checkIndex(i)
	return &m.values[i]
}

func (m *IndexMap[K, V]) ValueOf(key K) V {
	return m.values[m.IndexOf(key)]
}

// Add appends key/value. Adding a key that is already present is a caller bug.
func (m *IndexMap[K, V]) Add(key K, value V) {
	if _, dup := m.index[key]; dup {
		panic(fmt.Sprintf("ecs: index map already has key %v", key))
	}
	m.index[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.values = append(m.values, value)
}

// Remove deletes key by moving the last entry into its slot.
func (m *IndexMap[K, V]) Remove(key K) {
	i := m.IndexOf(key)
	last := len(m.keys) - 1
	if i != last {
		moved := m.keys[last]
		m.keys[i] = moved
		m.values[i] = m.values[last]
		m.index[moved] = i
	}
	var zero V
	m.values[last] = zero
	m.keys = m.keys[:last]
	m.values = m.values[:last]
	delete(m.index, key)
}

// ApplySort reorders the map so that entry i becomes the entry previously at
// perm[i]. perm must be a permutation of [0, Len()).
func (m *IndexMap[K, V]) ApplySort(perm []int) {
	n := len(m.keys)
	if len(perm) != n {
		panic(fmt.Sprintf("ecs: permutation has %d entries, map has %d", len(perm), n))
	}
	placed := make([]bool, n)
	for _, p := range perm {
		if p < 0 || p >= n || placed[p] {
			panic(fmt.Sprintf("ecs: invalid permutation %v", perm))
		}
		placed[p] = true
	}

	// Follow each cycle once, swapping elements into place.
	clear(placed)
	for i := 0; i < n; i++ {
		if placed[i] {
			continue
		}
		placed[i] = true
		prev := i
		for j := perm[prev]; j != i; j = perm[prev] {
			m.keys[prev], m.keys[j] = m.keys[j], m.keys[prev]
			m.values[prev], m.values[j] = m.values[j], m.values[prev]
			placed[j] = true
			prev = j
		}
	}
	for i, k := range m.keys {
		m.index[k] = i
	}
}

// CopyFrom makes m an exact copy of src, reusing m's backing storage.
func (m *IndexMap[K, V]) CopyFrom(src *IndexMap[K, V]) {
	clear(m.index)
	m.keys = append(m.keys[:0], src.keys...)
	m.values = append(m.values[:0], src.values...)
	for k, i := range src.index {
		m.index[k] = i
	}
}

func (m *IndexMap[K, V]) checkIndex(i int) {
	if i < 0 || i >= len(m.keys) {
		panic(fmt.Sprintf("ecs: index %d out of range [0,%d)", i, len(m.keys)))
	}
}
