package ecs

import (
	"cmp"
	"slices"
	"testing"
)

type pos struct{ X, Y float64 }

func TestStoreNetEffectOfStagedOps(t *testing.T) {
	type op struct {
		add bool
		val int
	}
	cases := []struct {
		name    string
		present bool // record committed before the ops
		ops     []op
		wantHas bool
		wantVal int
	}{
		{"add", false, []op{{true, 1}}, true, 1},
		{"add_twice_keeps_first", false, []op{{true, 1}, {true, 2}}, true, 1},
		{"add_then_remove", false, []op{{true, 1}, {false, 0}}, false, 0},
		{"add_remove_add", false, []op{{true, 1}, {false, 0}, {true, 3}}, true, 3},
		{"remove_absent", false, []op{{false, 0}}, false, 0},
		{"add_present_ignored", true, []op{{true, 5}}, true, 9},
		{"remove_present", true, []op{{false, 0}}, false, 0},
		{"remove_twice", true, []op{{false, 0}, {false, 0}}, false, 0},
		{"replace", true, []op{{false, 0}, {true, 4}}, true, 4},
		{"replace_then_remove", true, []op{{false, 0}, {true, 4}, {false, 0}}, false, 0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := NewStore[int]()
			const id EntityID = 1
			if c.present {
				s.StageAdd(id, 9)
				s.Commit()
			}
			for _, o := range c.ops {
				if o.add {
					s.StageAdd(id, o.val)
				} else {
					s.StageRemove(id)
				}
			}
			s.Commit()

			if s.Has(id) != c.wantHas {
				t.Fatalf("expected Has=%v", c.wantHas)
			}
			if c.wantHas && s.Get(id) != c.wantVal {
				t.Fatalf("expected value %d, got %d", c.wantVal, s.Get(id))
			}
			if s.Removing(id) {
				t.Fatalf("removal still staged after commit")
			}
		})
	}
}

func TestStoreAddInvisibleUntilCommit(t *testing.T) {
	s := NewStore[pos]()
	s.StageAdd(1, pos{X: 1})

	if s.Has(1) || s.Len() != 0 {
		t.Fatalf("staged add must not be live")
	}
	if _, ok := s.TryGet(1); ok {
		t.Fatalf("TryGet must not see staged add")
	}
	if _, ok := s.Latest(1); ok {
		t.Fatalf("Latest must not see staged add")
	}

	s.Commit()
	if !s.Has(1) || s.Get(1).X != 1 {
		t.Fatalf("add not visible after commit")
	}
}

func TestStoreRemovingUntilCommit(t *testing.T) {
	s := NewStore[pos]()
	s.StageAdd(1, pos{X: 1})
	s.Commit()

	s.StageRemove(1)
	if !s.Removing(1) {
		t.Fatalf("expected staged removal")
	}
	if _, ok := s.Latest(1); !ok {
		t.Fatalf("Latest should still see the record before commit")
	}

	s.Commit()
	if s.Removing(1) || s.Has(1) {
		t.Fatalf("record should be gone after commit")
	}
}

func TestStoreMutWritesInProgress(t *testing.T) {
	s := NewStore[pos]()
	s.StageAdd(1, pos{X: 1})
	s.Commit()

	s.Mut(1).X = 5
	if got := s.Get(1).X; got != 1 {
		t.Fatalf("live must not change before commit, got %v", got)
	}
	if v, _ := s.Latest(1); v.X != 5 {
		t.Fatalf("Latest should see the write, got %v", v.X)
	}

	s.Commit()
	if got := s.Get(1).X; got != 5 {
		t.Fatalf("expected committed write 5, got %v", got)
	}
}

func TestStoreAdvanceFrameReseedsCopy(t *testing.T) {
	s := NewStore[pos]()
	for id := EntityID(1); id <= 3; id++ {
		s.StageAdd(id, pos{X: float64(id)})
	}
	s.Commit()
	s.Mut(2).Y = 7
	s.AdvanceFrame()

	if s.Get(2).Y != 7 {
		t.Fatalf("mutation not live after AdvanceFrame")
	}
	for _, id := range liveOrder(s) {
		latest, ok := s.Latest(id)
		if !ok || latest != s.Get(id) {
			t.Fatalf("in-progress differs from live for %d", id)
		}
	}

	// The next frame's writes start from the published state.
	s.Mut(2).X += 10
	s.AdvanceFrame()
	if got := s.Get(2); got.X != 12 || got.Y != 7 {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestStoreOrderedCommit(t *testing.T) {
	s := NewStore(WithOrder(func(a, b pos) int { return cmp.Compare(a.X, b.X) }))
	s.StageAdd(1, pos{X: 30})
	s.StageAdd(2, pos{X: 10})
	s.StageAdd(3, pos{X: 20})
	s.Commit()

	if !slices.Equal(liveOrder(s), []EntityID{2, 3, 1}) {
		t.Fatalf("expected order by X, got %v", liveOrder(s))
	}

	s.Mut(1).X = 0
	s.Commit()
	if !slices.Equal(liveOrder(s), []EntityID{1, 2, 3}) {
		t.Fatalf("expected re-sort after mutation, got %v", liveOrder(s))
	}

	s.StageRemove(2)
	s.Commit()
	if !slices.Equal(liveOrder(s), []EntityID{1, 3}) {
		t.Fatalf("expected order kept after removal, got %v", liveOrder(s))
	}
}

func TestStoreOnChange(t *testing.T) {
	var seen []EntityID
	s := NewStore(WithOnChange(func(id EntityID, _ int) { seen = append(seen, id) }))
	s.StageAdd(1, 1)
	s.StageAdd(2, 2)
	s.StageAdd(3, 3)
	s.Commit()
	s.AdvanceFrame()
	if len(seen) != 3 {
		t.Fatalf("expected 3 added entities reported, got %v", seen)
	}

	seen = nil
	*s.Mut(2) = 20
	*s.Mut(2) = 21
	s.Commit()
	s.AdvanceFrame()
	if !slices.Equal(seen, []EntityID{2}) {
		t.Fatalf("expected one report for entity 2, got %v", seen)
	}

	seen = nil
	s.AdvanceFrame()
	if len(seen) != 0 {
		t.Fatalf("quiet frame reported %v", seen)
	}

	// A record removed in the same frame it changed is not reported.
	*s.Mut(3) = 30
	s.StageRemove(3)
	s.Commit()
	s.AdvanceFrame()
	if len(seen) != 0 {
		t.Fatalf("removed entity reported: %v", seen)
	}
}

func TestStorePanicsOnMissing(t *testing.T) {
	s := NewStore[pos]()
	mustPanic(t, "Get", func() { s.Get(4) })
	mustPanic(t, "Mut", func() { s.Mut(4) })
}

func liveOrder[T any](s *Store[T]) []EntityID {
	var ids []EntityID
	s.Each(func(id EntityID, _ T) { ids = append(ids, id) })
	return ids
}
