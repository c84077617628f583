package geo

import "testing"

func TestWrap(t *testing.T) {
	cases := []struct {
		p    Position
		w, h int
		want Position
	}{
		{Position{0, 0}, 10, 10, Position{0, 0}},
		{Position{-1, -1}, 10, 10, Position{9, 9}},
		{Position{10, 10}, 10, 10, Position{0, 0}},
		{Position{23, -23}, 10, 10, Position{3, 7}},
	}
	for _, c := range cases {
		got := c.p.Wrap(c.w, c.h)
		if got != c.want {
			t.Errorf("Position{%d,%d}.Wrap(%d,%d) = %v, want %v", c.p.X, c.p.Y, c.w, c.h, got, c.want)
		}
	}
}

func TestManhattanDistance(t *testing.T) {
	a := Position{0, 0}
	b := Position{3, 4}
	if d := a.ManhattanDistance(b); d != 7 {
		t.Errorf("ManhattanDistance = %d, want 7", d)
	}
}

func TestDirectionCount(t *testing.T) {
	seen := make(map[[2]int]bool)
	for _, d := range Direction {
		if d.DX == 0 && d.DY == 0 {
			t.Fatal("Direction must not contain the zero offset")
		}
		seen[[2]int{d.DX, d.DY}] = true
	}
	if len(seen) != 8 {
		t.Errorf("Direction has %d distinct offsets, want 8", len(seen))
	}
}
