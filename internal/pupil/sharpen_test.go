package pupil

import "testing"

func TestSharpenEdgesIdempotence(t *testing.T) {
	tests := []struct {
		name string
		w, h int
		set  []struct{ x, y int }
	}{
		{
			name: "diagonal pair with empty opposite",
			w:    3, h: 3,
			set: []struct{ x, y int }{
				{1, 0}, {1, 1}, {0, 1},
			},
		},
		{
			name: "dense plus shape",
			w:    5, h: 5,
			set: []struct{ x, y int }{
				{2, 1}, {1, 2}, {2, 2}, {3, 2}, {2, 3},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tags := make([]edgeTag, tt.w*tt.h)
			for _, p := range tt.set {
				tags[p.y*tt.w+p.x] = tagEdge
			}

			once := sharpenEdges(tags, tt.w, tt.h)
			twice := sharpenEdges(once, tt.w, tt.h)

			for i := range once {
				if once[i] != twice[i] {
					t.Fatalf("pixel %d: not idempotent: once=%v twice=%v", i, once[i], twice[i])
				}
			}
		})
	}
}
