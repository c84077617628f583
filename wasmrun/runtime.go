package wasmrun

import (
	"fmt"
	"strings"

	"github.com/evosim/evo-wasm/evoerr"
	"github.com/evosim/evo-wasm/log"
	"github.com/evosim/evo-wasm/wasmcompile"
	"github.com/wasmerio/wasmer-go/wasmer"
)

var Logger = log.Null()

// Config bounds what a sandboxed module may do.
type Config struct {
	MaxFuelPerStep  int32
	MaxMemoryBytes  int
}

func DefaultConfig() Config {
	return Config{MaxFuelPerStep: 10000, MaxMemoryBytes: 65536}
}

// Runtime owns one wasmer engine shared by every organism instance in
// an island; engines are expensive to create and safe to reuse across
// modules.
type Runtime struct {
	engine *wasmer.Engine
	config Config
}

func NewRuntime(cfg Config) *Runtime {
	return &Runtime{engine: wasmer.NewEngine(), config: cfg}
}

// Instance wraps one compiled, instantiated organism module together
// with the context its host functions read and write.
type Instance struct {
	store     *wasmer.Store
	ctx       *OrganismContext
	initFn    wasmer.NativeFunction
	stepFn    wasmer.NativeFunction
	fuelUsed  *wasmer.Global
	fuelLimit *wasmer.Global
	config    Config
}

// Instantiate compiles wasmBytes and binds the host ABI to ctx.
func (r *Runtime) Instantiate(wasmBytes []byte, ctx *OrganismContext) (*Instance, error) {
	store := wasmer.NewStore(r.engine)
	module, err := wasmer.NewModule(store, wasmBytes)
	if err != nil {
		return nil, evoerr.New(evoerr.Wasm, "wasmrun.Instantiate", fmt.Errorf("compile module: %w", err))
	}

	importObject := wasmer.NewImportObject()
	importObject.Register("env", bindHostImports(store, ctx))

	instance, err := wasmer.NewInstance(module, importObject)
	if err != nil {
		return nil, evoerr.New(evoerr.Wasm, "wasmrun.Instantiate", fmt.Errorf("instantiate: %w", err))
	}

	initFn, err := instance.Exports.GetFunction(wasmcompile.InitExportName())
	if err != nil {
		return nil, evoerr.New(evoerr.Wasm, "wasmrun.Instantiate", fmt.Errorf("missing init export: %w", err))
	}
	stepFn, err := instance.Exports.GetFunction(wasmcompile.StepExportName())
	if err != nil {
		return nil, evoerr.New(evoerr.Wasm, "wasmrun.Instantiate", fmt.Errorf("missing step export: %w", err))
	}
	fuelUsed, err := instance.Exports.GetGlobal(wasmcompile.FuelUsedGlobal)
	if err != nil {
		return nil, evoerr.New(evoerr.Wasm, "wasmrun.Instantiate", fmt.Errorf("missing fuel_used global: %w", err))
	}
	fuelLimit, err := instance.Exports.GetGlobal(wasmcompile.FuelLimitGlobal)
	if err != nil {
		return nil, evoerr.New(evoerr.Wasm, "wasmrun.Instantiate", fmt.Errorf("missing fuel_limit global: %w", err))
	}

	return &Instance{
		store: store, ctx: ctx,
		initFn: initFn, stepFn: stepFn,
		fuelUsed: fuelUsed, fuelLimit: fuelLimit,
		config: r.config,
	}, nil
}

// UpdateSensors refreshes the read-only sensor snapshot the instance's
// host functions will answer get_energy/get_age calls from this tick.
func (in *Instance) UpdateSensors(s SensorData) {
	in.ctx.Sensors = s
}

func (in *Instance) resetFuel() error {
	if err := in.fuelUsed.Set(int32(0), wasmer.I32); err != nil {
		return err
	}
	return in.fuelLimit.Set(in.config.MaxFuelPerStep, wasmer.I32)
}

// Init calls the module's init(seed) export.
func (in *Instance) Init(seed int64) error {
	if err := in.resetFuel(); err != nil {
		return evoerr.New(evoerr.Wasm, "wasmrun.Init", err)
	}
	_, err := in.initFn(seed)
	if err != nil {
		return evoerr.New(evoerr.Wasm, "wasmrun.Init", err)
	}
	return nil
}

// StepResult carries the organism's returned value, its enqueued
// actions, and the fuel consumed by the call.
type StepResult struct {
	Value        int32
	Actions      []Action
	FuelConsumed int32
}

// Step calls step(ctxPtr), draining actions and reading back fuel
// consumption regardless of whether the call trapped on
// ResourceExhausted.
func (in *Instance) Step(ctxPtr int32) (StepResult, error) {
	if err := in.resetFuel(); err != nil {
		return StepResult{}, evoerr.New(evoerr.Wasm, "wasmrun.Step", err)
	}

	result, callErr := in.stepFn(ctxPtr)

	fuelConsumed := in.fuelUsed.Get().I32()

	actions := in.ctx.TakeActions()

	if callErr != nil {
		if isFuelTrap(callErr) {
			return StepResult{Actions: actions, FuelConsumed: fuelConsumed},
				evoerr.New(evoerr.ResourceExhausted, "wasmrun.Step", callErr)
		}
		return StepResult{Actions: actions, FuelConsumed: fuelConsumed},
			evoerr.New(evoerr.Wasm, "wasmrun.Step", callErr)
	}

	value, _ := result.(int32)
	return StepResult{Value: value, Actions: actions, FuelConsumed: fuelConsumed}, nil
}

// isFuelTrap recognizes the "unreachable" trap the compiler-injected
// fuel check raises. wasmer-go surfaces WASM traps as plain errors, so
// this matches on the trap's well-known message rather than a typed
// error — there is no richer classification to key off.
func isFuelTrap(err error) bool {
	return strings.Contains(err.Error(), "unreachable")
}
