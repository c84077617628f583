// Package wasmrun instantiates compiled organism modules inside a
// wasmer-go sandbox, binds the nine-function host ABI to a per-organism
// context, and exposes a typed init/step execution contract.
package wasmrun

import (
	"sync"

	"github.com/evosim/evo-wasm/geo"
	"github.com/evosim/evo-wasm/ids"
)

// ActionKind tags which variant of Action is populated.
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionMove
	ActionEat
	ActionAttack
	ActionReproduce
	ActionEmitSignal
)

// Action is one deferred effect an organism's step enqueued. The
// engine resolves it against shared state after the WASM call
// returns; host functions never touch world state directly.
type Action struct {
	Kind    ActionKind
	DX, DY  int32
	Amount  int32
	Channel int32
	Value   int32
}

// SensorData is the read-only view of an organism's own state exposed
// to host calls.
type SensorData struct {
	Energy   int32
	Age      int32
	Position geo.Position
}

// OrganismContext is the process-local record a WASM instance's host
// functions read from and append to. It never holds a reference back
// to the WASM instance itself, avoiding the cyclic-ownership problem
// the design notes call out: the engine addresses organisms by
// OrganismId through its own table, not through back-pointers.
type OrganismContext struct {
	OrganismID OrganismId
	Sensors    SensorData

	mu      sync.Mutex
	actions []Action

	// EnvQuery reads the tile kind at a wrapped (x,y); it must never
	// mutate the grid it closes over.
	EnvQuery func(x, y int32) int32
}

// OrganismId is a local alias kept here so wasmrun does not need to
// import the ids package into every signature below.
type OrganismId = ids.OrganismId

func NewOrganismContext(id OrganismId, sensors SensorData, envQuery func(x, y int32) int32) *OrganismContext {
	return &OrganismContext{OrganismID: id, Sensors: sensors, EnvQuery: envQuery}
}

func (c *OrganismContext) AddAction(a Action) {
	c.mu.Lock()
	c.actions = append(c.actions, a)
	c.mu.Unlock()
}

// TakeActions drains and returns the pending action queue.
func (c *OrganismContext) TakeActions() []Action {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.actions
	c.actions = nil
	return out
}
