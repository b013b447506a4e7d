package pupil

// edgeTag is the per-pixel state alphabet for edge segmentation (§4.6),
// also used by sharpenEdges (§4.5) for the Removed mark.
type edgeTag uint8

const (
	tagEmpty edgeTag = iota
	tagRemoved
	tagEdge
	tagVisited
	tagOnBranch
	tagAccepted
)

// sharpenEdges breaks 2-of-4 connected diagonal pairs of an edge pixel's
// 4-neighbours when the opposite 4-neighbour is absent (§4.5). Cardinal
// neighbours sit at ring8 indices 0,2,4,6 (N,E,S,W); a pair is addressed by
// m in [0,3] as ring8[2*m], and its opposite member by ring8[2*m+2]. The
// "opposite" 4-neighbour tested for absence is ring8[2*m+1] (the diagonal
// between the pair), matching the source's q=2m+1 indexing.
//
// The scan reads only the snapshot passed in; tags written during the pass
// are not visible to later pixels in the same pass.
func sharpenEdges(tags []edgeTag, w, h int) []edgeTag {
	in := func(x, y int) bool { return x >= 0 && y >= 0 && x < w && y < h }
	idx := func(x, y int) int { return y*w + x }

	out := make([]edgeTag, len(tags))
	copy(out, tags)

	neighbourTag := func(x, y, ringIdx int) edgeTag {
		d := ring8[ringIdx%8]
		nx, ny := x+d.dx, y+d.dy
		if !in(nx, ny) {
			return tagEmpty
		}
		return tags[idx(nx, ny)]
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if tags[idx(x, y)] != tagEdge {
				continue
			}
			removed := false
			for m := 0; m < 4 && !removed; m++ {
				a := neighbourTag(x, y, 2*m)
				b := neighbourTag(x, y, 2*m+2)
				if a != tagEdge || b != tagEdge {
					continue
				}
				opp := neighbourTag(x, y, 2*m+1)
				if opp == tagEmpty || opp == tagRemoved {
					removed = true
				}
			}
			if removed {
				out[idx(x, y)] = tagRemoved
			}
		}
	}
	return out
}
