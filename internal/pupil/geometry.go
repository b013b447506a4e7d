package pupil

// dir is an 8-connected step (dx,dy) in image coordinates (x right, y down).
type dir struct {
	dx, dy int
}

// ring8 is the general 8-connectivity neighbour table used by the glint
// sum, edge BFS, sharpening, and segmentation walk, ordered clockwise
// starting from N. Cardinal directions sit at the even indices
// (N=0, E=2, S=4, W=6); that is what lets sharpen.go address a cardinal
// neighbour as ring8[2*m].
var ring8 = [8]dir{
	{0, -1},  // N
	{1, -1},  // NE
	{1, 0},   // E
	{1, 1},   // SE
	{0, 1},   // S
	{-1, 1},  // SW
	{-1, 0},  // W
	{-1, -1}, // NW
}

// radialDirs are the eight perimeter offsets for the radial gradient kernel
// (§4.4.1), ordered clockwise starting from (+1,0) as specified.
var radialDirs = [8]dir{
	{1, 0},   // index 0, 0 rad
	{1, 1},   // index 1
	{0, 1},   // index 2
	{-1, 1},  // index 3
	{-1, 0},  // index 4
	{-1, -1}, // index 5
	{0, -1},  // index 6
	{1, -1},  // index 7
}

// opposite returns the ring8 index diametrically opposite i (i.e. i+4 mod 8).
func opposite(i int) int {
	return (i + 4) % 8
}
