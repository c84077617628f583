// Package geo implements toroidal coordinate arithmetic for the grid
// world: positions wrap around the edges of a fixed-size rectangle.
package geo

// Position is an integer grid coordinate. Arithmetic on a Position is
// only meaningful once Wrapped against a world size.
type Position struct {
	X, Y int
}

// Add returns the position offset by (dx, dy), unwrapped.
func (p Position) Add(dx, dy int) Position {
	return Position{X: p.X + dx, Y: p.Y + dy}
}

// Wrap folds p into [0,w)x[0,h) using Euclidean (always non-negative)
// modulo arithmetic.
func (p Position) Wrap(w, h int) Position {
	return Position{X: wrapAxis(p.X, w), Y: wrapAxis(p.Y, h)}
}

func wrapAxis(v, d int) int {
	v %= d
	if v < 0 {
		v += d
	}
	return v
}

// ManhattanDistance returns |dx| + |dy| between two positions, without
// accounting for wraparound shortcuts across an edge.
func (p Position) ManhattanDistance(q Position) int {
	return absInt(p.X-q.X) + absInt(p.Y-q.Y)
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Direction enumerates the eight neighbor offsets, ordered to match the
// fixed (dy,dx) scan used for deterministic tie-breaking throughout the
// simulation engine.
var Direction = [8]struct{ DX, DY int }{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}
