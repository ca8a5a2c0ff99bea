package ecs

import "fmt"

// Query is a streaming inner join over component stores keyed by entity.
// Iteration walks the driver store's live buffer in dense order; for each
// candidate every required joined store must also hold the entity. Optional
// stores never gate iteration. Put the most selective store first.
type Query struct {
	driver ComponentStore
	joins  []join
}

type join struct {
	store    ComponentStore
	optional bool
}

// NewQuery builds a query driven by driver and joined with the given stores,
// all required until marked Optional.
func NewQuery(driver ComponentStore, joins ...ComponentStore) *Query {
	q := &Query{driver: driver, joins: make([]join, 0, len(joins))}
	for _, s := range joins {
		if s == driver || q.slot(s) >= 0 {
			panic(fmt.Sprintf("ecs: %s joined twice in one query", s.ComponentName()))
		}
		q.joins = append(q.joins, join{store: s})
	}
	return q
}

// QueryOf builds a query driven by the registered store of T.
func QueryOf[T any](r *Registry, joins ...ComponentStore) *Query {
	return NewQuery(StoreOf[T](r), joins...)
}

// Optional marks joined stores as not required. The driver can never be
// optional, and every store must already be part of the query.
func (q *Query) Optional(stores ...ComponentStore) *Query {
	for _, s := range stores {
		if s == q.driver {
			panic(fmt.Sprintf("ecs: driving store %s cannot be optional", s.ComponentName()))
		}
		k := q.slot(s)
		if k < 0 {
			panic(fmt.Sprintf("ecs: %s is not part of this query", s.ComponentName()))
		}
		q.joins[k].optional = true
	}
	return q
}

// Iter returns an iterator positioned before the first match.
func (q *Query) Iter() *Iter {
	return &Iter{q: q, pos: -1, idx: make([]int, len(q.joins))}
}

// Find returns an iterator whose first Next lands on id when id satisfies the
// join, and that continues forward in live order from there. When the driver
// has no record for id the iterator is exhausted.
func (q *Query) Find(id EntityID) *Iter {
	it := q.Iter()
	i, ok := q.driver.liveFind(id)
	if !ok {
		it.pos = q.driver.Len()
		return it
	}
	it.pos = i - 1
	return it
}

// Each runs fn for every match.
func (q *Query) Each(fn func(it *Iter)) {
	for it := q.Iter(); it.Next(); {
		fn(it)
	}
}

// Count walks the query and returns the number of matches.
func (q *Query) Count() int {
	n := 0
	for it := q.Iter(); it.Next(); {
		n++
	}
	return n
}

func (q *Query) slot(s ComponentStore) int {
	for k, j := range q.joins {
		if j.store == s {
			return k
		}
	}
	return -1
}

// Iter walks the matches of a Query.
type Iter struct {
	q   *Query
	pos int
	id  EntityID
	idx []int // live index per join, -1 when absent
}

// Next advances to the next entity satisfying every required join.
func (it *Iter) Next() bool {
	n := it.q.driver.Len()
	for it.pos+1 < n {
		it.pos++
		it.id = it.q.driver.liveKey(it.pos)
		if it.resolve() {
			return true
		}
	}
	it.pos = n
	it.id = 0
	return false
}

// Entity is the entity under the iterator.
func (it *Iter) Entity() EntityID { return it.id }

func (it *Iter) resolve() bool {
	for k, j := range it.q.joins {
		i, ok := j.store.liveFind(it.id)
		if !ok {
			if !j.optional {
				return false
			}
			i = -1
		}
		it.idx[k] = i
	}
	return true
}

func (it *Iter) liveIndex(s ComponentStore) (int, bool) {
	if it.id == 0 {
		panic("ecs: iterator is not positioned on an entity")
	}
	if s == it.q.driver {
		return it.pos, true
	}
	k := it.q.slot(s)
	if k < 0 {
		panic(fmt.Sprintf("ecs: %s is not part of this query", s.ComponentName()))
	}
	i := it.idx[k]
	return i, i >= 0
}
