package vkdriver

// handleMap hands out stable integer ids for API objects. The same object
// always maps to the same id until it is dropped.
type handleMap[K ~uint64, V comparable] struct {
	next *uint64
	byID map[K]V
	ids  map[V]K
}

func newHandleMap[K ~uint64, V comparable](next *uint64) handleMap[K, V] {
	return handleMap[K, V]{next: next, byID: make(map[K]V), ids: make(map[V]K)}
}

func (m handleMap[K, V]) add(v V) K {
	if id, ok := m.ids[v]; ok {
		return id
	}
	*m.next++
	id := K(*m.next)
	m.byID[id] = v
	m.ids[v] = id
	return id
}

func (m handleMap[K, V]) get(id K) (V, bool) {
	v, ok := m.byID[id]
	return v, ok
}

func (m handleMap[K, V]) drop(id K) (V, bool) {
	v, ok := m.byID[id]
	if ok {
		delete(m.byID, id)
		delete(m.ids, v)
	}
	return v, ok
}

func (m handleMap[K, V]) len() int {
	return len(m.byID)
}
