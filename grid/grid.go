// Package grid implements the toroidal tile world organisms live on.
// Unlike grid2d's occupant-oriented Grid, tiles never hold a live
// organism reference; the simulation engine tracks organism positions
// in its own inverse index and only reads tile kind/resource state
// from here.
package grid

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"math/rand"

	"github.com/evosim/evo-wasm/evoerr"
	"github.com/evosim/evo-wasm/geo"
	"github.com/evosim/evo-wasm/log"
)

var Logger = log.Null()

// Kind is the terrain type of one tile. The numeric values match the
// env_read host call's encoding exactly: a compiled genome reads these
// same integers back.
type Kind int

const (
	Empty Kind = iota
	Resource
	Obstacle
	Hazard
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "Empty"
	case Resource:
		return "Resource"
	case Obstacle:
		return "Obstacle"
	case Hazard:
		return "Hazard"
	default:
		return "Unknown"
	}
}

// Tile is one cell of the world.
type Tile struct {
	Kind           Kind
	ResourceAmount int
	MaxResource    int
}

// Config controls the cumulative-threshold terrain sampling NewGrid
// performs for every cell.
type Config struct {
	Width, Height   int
	ObstacleDensity float64
	HazardDensity   float64
	ResourceDensity float64
	MaxResource     int
	InitialResource int
}

// Grid is a fixed-size toroidal array of tiles. All coordinate access
// wraps; callers never need to pre-wrap a Position.
type Grid struct {
	width, height int
	tiles         []Tile
}

// NewGrid samples terrain for every cell with rng, in row-major order,
// so identical (config, rng-seed) pairs always produce byte-identical
// grids. Thresholds are cumulative: obstacle, then hazard, then
// resource, matching the order in the sampling note.
func NewGrid(cfg Config, rng *rand.Rand) *Grid {
	g := &Grid{width: cfg.Width, height: cfg.Height, tiles: make([]Tile, cfg.Width*cfg.Height)}
	obstacleT := cfg.ObstacleDensity
	hazardT := obstacleT + cfg.HazardDensity
	resourceT := hazardT + cfg.ResourceDensity

	for y := 0; y < cfg.Height; y++ {
		for x := 0; x < cfg.Width; x++ {
			r := rng.Float64()
			var t Tile
			switch {
			case r < obstacleT:
				t = Tile{Kind: Obstacle}
			case r < hazardT:
				t = Tile{Kind: Hazard}
			case r < resourceT:
				t = Tile{Kind: Resource, MaxResource: cfg.MaxResource, ResourceAmount: cfg.InitialResource}
			default:
				t = Tile{Kind: Empty}
			}
			g.tiles[g.index(x, y)] = t
		}
	}
	return g
}

func (g *Grid) index(x, y int) int { return y*g.width + x }

// Extents returns the grid's fixed dimensions.
func (g *Grid) Extents() (int, int) { return g.width, g.height }

// Get returns the tile at p after toroidal wrap.
func (g *Grid) Get(p geo.Position) Tile {
	w := p.Wrap(g.width, g.height)
	return g.tiles[g.index(w.X, w.Y)]
}

// Set replaces the tile at p after toroidal wrap.
func (g *Grid) Set(p geo.Position, t Tile) {
	w := p.Wrap(g.width, g.height)
	g.tiles[g.index(w.X, w.Y)] = t
}

// NeighborTile pairs a wrapped position with its tile.
type NeighborTile struct {
	Pos  geo.Position
	Tile Tile
}

// Neighbors returns the 8-connected neighborhood of p (radius is
// presently always 1) in the fixed (dy,dx) order used throughout the
// engine for deterministic tie-breaking.
func (g *Grid) Neighbors(p geo.Position, radius int) []NeighborTile {
	out := make([]NeighborTile, 0, len(geo.Direction))
	for _, d := range geo.Direction {
		np := p.Add(d.DX*radius, d.DY*radius)
		out = append(out, NeighborTile{Pos: np.Wrap(g.width, g.height), Tile: g.Get(np)})
	}
	return out
}

// RegenerateResources applies logistic growth to every Resource tile:
// delta = floor(rate * r * (1 - r/max)), then r <- min(max, r +
// max(1, delta)) while r < max. This guarantees at least +1 resource
// per tick for any under-capacity Resource tile.
func (g *Grid) RegenerateResources(rate float64) {
	for i := range g.tiles {
		t := &g.tiles[i]
		if t.Kind != Resource || t.MaxResource <= 0 || t.ResourceAmount >= t.MaxResource {
			continue
		}
		r := float64(t.ResourceAmount)
		max := float64(t.MaxResource)
		delta := int(rate * r * (1 - r/max))
		if delta < 1 {
			delta = 1
		}
		t.ResourceAmount += delta
		if t.ResourceAmount > t.MaxResource {
			t.ResourceAmount = t.MaxResource
		}
	}
}

// IsPassable reports whether an organism may occupy this tile (the
// caller is still responsible for checking occupancy separately).
func (t Tile) IsPassable() bool { return t.Kind != Obstacle }

type gobTile struct {
	Kind           Kind
	ResourceAmount int
	MaxResource    int
}

type gobGrid struct {
	Width, Height int
	Tiles         []gobTile
}

// GobEncode lets a Grid be stored directly inside a checkpoint record.
func (g *Grid) GobEncode() ([]byte, error) {
	gg := gobGrid{Width: g.width, Height: g.height, Tiles: make([]gobTile, len(g.tiles))}
	for i, t := range g.tiles {
		gg.Tiles[i] = gobTile(t)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(gg); err != nil {
		return nil, evoerr.New(evoerr.Serialization, "grid.GobEncode", err)
	}
	return buf.Bytes(), nil
}

func (g *Grid) GobDecode(data []byte) error {
	var gg gobGrid
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&gg); err != nil {
		return evoerr.New(evoerr.Serialization, "grid.GobDecode", err)
	}
	if gg.Width*gg.Height != len(gg.Tiles) {
		return evoerr.New(evoerr.Serialization, "grid.GobDecode", fmt.Errorf("tile count %d does not match %dx%d", len(gg.Tiles), gg.Width, gg.Height))
	}
	g.width, g.height = gg.Width, gg.Height
	g.tiles = make([]Tile, len(gg.Tiles))
	for i, t := range gg.Tiles {
		g.tiles[i] = Tile(t)
	}
	return nil
}
