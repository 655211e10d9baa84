package counters

import (
	"slices"
	"testing"

	"github.com/lfsj/RealNerdStats/pkg/types"
)

func TestStoreGetPut(t *testing.T) {
	s := NewStore[int32, types.Counters]()
	if _, ok := s.Get(1); ok {
		t.Fatalf("empty store should miss")
	}
	s.Put(1, types.Counters{Read: 10})
	s.Put(1, types.Counters{Read: 20})
	got, ok := s.Get(1)
	if !ok || got.Read != 20 {
		t.Fatalf("expected latest value, got %+v ok=%t", got, ok)
	}
	if s.Len() != 1 {
		t.Fatalf("expected one entry, got %d", s.Len())
	}
}

func TestStorePruneKeepsExactlyLiveSet(t *testing.T) {
	s := NewStore[int32, types.Counters]()
	for _, pid := range []int32{1, 2, 3, 4} {
		s.Put(pid, types.Counters{})
	}

	live := map[int32]struct{}{2: {}, 4: {}, 9: {}}
	if evicted := s.Prune(live); evicted != 2 {
		t.Fatalf("expected 2 evictions, got %d", evicted)
	}

	keys := s.Keys()
	slices.Sort(keys)
	if !slices.Equal(keys, []int32{2, 4}) {
		t.Fatalf("unexpected keys after prune: %v", keys)
	}
}

func TestStorePrunedIdentityIsFreshAgain(t *testing.T) {
	s := NewStore[int32, types.Counters]()
	s.Put(77, types.Counters{Read: 5000})
	s.Prune(map[int32]struct{}{})

	prev, seen := s.Get(77)
	rates := Calculate(prev, seen, types.Counters{Read: 9000}, 1)
	if seen || rates.Read != 0 {
		t.Fatalf("reused pid must start from a first sample, got seen=%t rates=%+v", seen, rates)
	}
}
