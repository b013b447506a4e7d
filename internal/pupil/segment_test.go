package pupil

import "testing"

func TestRegionGrowCompleteness(t *testing.T) {
	w, h := 6, 6
	tags := make([]edgeTag, w*h)
	set := func(x, y int) { tags[y*w+x] = tagEdge }
	// an 8-connected diagonal chain
	for i := 0; i < 5; i++ {
		set(i, i)
	}

	region := regionGrow(tags, w, h, point{0, 0})
	if len(region) != 5 {
		t.Fatalf("region size = %d, want 5", len(region))
	}
	for _, p := range region {
		if tags[idx(w, p)] != tagVisited {
			t.Errorf("pixel %v not tagged visited", p)
		}
	}
}

func TestWalkChainNoOverlap(t *testing.T) {
	w, h := 5, 3
	tags := make([]edgeTag, w*h)
	for x := 0; x < w; x++ {
		tags[1*w+x] = tagVisited
	}
	chain, out := walkChain(tags, w, h, point{0, 1})

	seen := make(map[int]bool)
	for _, p := range chain {
		i := idx(w, p)
		if seen[i] {
			t.Fatalf("pixel %v appears twice in chain", p)
		}
		seen[i] = true
		if out[i] != tagOnBranch {
			t.Errorf("chain pixel %v not tagged onBranch", p)
		}
	}
	if len(chain) != w {
		t.Errorf("chain length = %d, want %d", len(chain), w)
	}
}

func TestBreakpointsIncludesEnds(t *testing.T) {
	curv := []float64{360, 360, 5, 6, 200, 5, 360, 360}
	bp := breakpoints(curv, 150, -150)
	if bp[0] != 0 {
		t.Errorf("first breakpoint = %d, want 0", bp[0])
	}
	if bp[len(bp)-1] != len(curv)-1 {
		t.Errorf("last breakpoint = %d, want %d", bp[len(bp)-1], len(curv)-1)
	}
}
