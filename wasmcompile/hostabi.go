package wasmcompile

import "github.com/evosim/evo-wasm/ir"

// HostImport describes one function imported from module "env". Index
// position in HostImports is the fixed call target used by the
// compiler; the runtime binds each import by its Name.
type HostImport struct {
	Name    string
	Params  []byte // WASM value types
	Results []byte
}

// HostImports is the fixed nine-function ABI, in call-index order.
var HostImports = []HostImport{
	{"env_read", []byte{valI32, valI32}, []byte{valI32}},       // 0
	{"get_energy", nil, []byte{valI32}},                        // 1
	{"get_age", nil, []byte{valI32}},                           // 2
	{"move_dir", []byte{valI32, valI32}, []byte{valI32}},       // 3
	{"eat", nil, []byte{valI32}},                                // 4
	{"attack", []byte{valI32, valI32}, []byte{valI32}},          // 5, (slot, amount): the engine, not the program, picks the actual target
	{"sense_neighbor", []byte{valI32}, []byte{valI32}},          // 6
	{"try_reproduce", nil, []byte{valI32}},                      // 7
	{"emit_signal", []byte{valI32, valI32}, nil},                // 8
}

const (
	hostEnvRead        = 0
	hostGetEnergy      = 1
	hostGetAge         = 2
	hostMoveDir        = 3
	hostEat            = 4
	hostAttack         = 5
	hostSenseNeighbor  = 6
	hostTryReproduce   = 7
	hostEmitSignal     = 8
)

// hostCallIndex maps a host-call opcode to its fixed import index.
func hostCallIndex(op ir.Opcode) int {
	switch op {
	case ir.OpSenseEnv:
		return hostEnvRead
	case ir.OpGetEnergy:
		return hostGetEnergy
	case ir.OpGetAge:
		return hostGetAge
	case ir.OpMove:
		return hostMoveDir
	case ir.OpEat:
		return hostEat
	case ir.OpAttack:
		return hostAttack
	case ir.OpSenseNeighbor:
		return hostSenseNeighbor
	case ir.OpReproduce:
		return hostTryReproduce
	case ir.OpEmitSignal:
		return hostEmitSignal
	default:
		panic("wasmcompile: not a host call opcode")
	}
}

func isHostCall(op ir.Opcode) bool {
	switch op {
	case ir.OpSenseEnv, ir.OpGetEnergy, ir.OpGetAge, ir.OpMove, ir.OpEat,
		ir.OpAttack, ir.OpSenseNeighbor, ir.OpReproduce, ir.OpEmitSignal:
		return true
	}
	return false
}
