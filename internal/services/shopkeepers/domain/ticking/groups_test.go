package ticking

import "testing"

func TestGroupCounterIsFair(t *testing.T) {
	for groups := 1; groups <= 7; groups++ {
		for total := 0; total <= 50; total++ {
			counter := NewGroupCounter(groups)
			counts := make([]int, groups)
			for i := 0; i < total; i++ {
				group := counter.NextGroup()
				if group < 0 || group >= groups {
					t.Fatalf("group = %d, want [0,%d)", group, groups)
				}
				counts[group]++
			}
			lo, hi := counts[0], counts[0]
			for _, n := range counts {
				lo = min(lo, n)
				hi = max(hi, n)
			}
			if hi-lo > 1 {
				t.Fatalf("groups=%d total=%d counts=%v", groups, total, counts)
			}
		}
	}
}

func TestGroupCounterDefaults(t *testing.T) {
	if got := NewGroupCounter(0).Groups(); got != DefaultGroups {
		t.Fatalf("groups = %d, want %d", got, DefaultGroups)
	}
}
