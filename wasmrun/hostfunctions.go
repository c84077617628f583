package wasmrun

import "github.com/wasmerio/wasmer-go/wasmer"

// bindHostImports builds the "env" import namespace against ctx. The
// closures here are intentionally thin: they read sensors or append to
// the action queue and never touch the grid or organism table
// directly, per the deferred-action design.
func bindHostImports(store *wasmer.Store, ctx *OrganismContext) map[string]wasmer.IntoExtern {
	i32 := wasmer.NewValueTypes(wasmer.I32)
	i32i32 := wasmer.NewValueTypes(wasmer.I32, wasmer.I32)
	none := wasmer.NewValueTypes()

	return map[string]wasmer.IntoExtern{
		"env_read": wasmer.NewFunction(store, wasmer.NewFunctionType(i32i32, i32),
			func(args []wasmer.Value) ([]wasmer.Value, error) {
				v := ctx.EnvQuery(args[0].I32(), args[1].I32())
				return []wasmer.Value{wasmer.NewI32(v)}, nil
			}),
		"get_energy": wasmer.NewFunction(store, wasmer.NewFunctionType(none, i32),
			func(args []wasmer.Value) ([]wasmer.Value, error) {
				return []wasmer.Value{wasmer.NewI32(ctx.Sensors.Energy)}, nil
			}),
		"get_age": wasmer.NewFunction(store, wasmer.NewFunctionType(none, i32),
			func(args []wasmer.Value) ([]wasmer.Value, error) {
				return []wasmer.Value{wasmer.NewI32(ctx.Sensors.Age)}, nil
			}),
		"move_dir": wasmer.NewFunction(store, wasmer.NewFunctionType(i32i32, i32),
			func(args []wasmer.Value) ([]wasmer.Value, error) {
				ctx.AddAction(Action{Kind: ActionMove, DX: args[0].I32(), DY: args[1].I32()})
				return []wasmer.Value{wasmer.NewI32(1)}, nil
			}),
		"eat": wasmer.NewFunction(store, wasmer.NewFunctionType(none, i32),
			func(args []wasmer.Value) ([]wasmer.Value, error) {
				ctx.AddAction(Action{Kind: ActionEat})
				return []wasmer.Value{wasmer.NewI32(1)}, nil
			}),
		"attack": wasmer.NewFunction(store, wasmer.NewFunctionType(i32i32, i32),
			func(args []wasmer.Value) ([]wasmer.Value, error) {
				// args[0] is the slot the program chose; the engine picks the
				// actual target independently, so it is read and discarded.
				ctx.AddAction(Action{Kind: ActionAttack, Amount: args[1].I32()})
				return []wasmer.Value{wasmer.NewI32(1)}, nil
			}),
		"sense_neighbor": wasmer.NewFunction(store, wasmer.NewFunctionType(i32, i32),
			func(args []wasmer.Value) ([]wasmer.Value, error) {
				// Reserved; see the SenseNeighbor open question.
				return []wasmer.Value{wasmer.NewI32(0)}, nil
			}),
		"try_reproduce": wasmer.NewFunction(store, wasmer.NewFunctionType(none, i32),
			func(args []wasmer.Value) ([]wasmer.Value, error) {
				ctx.AddAction(Action{Kind: ActionReproduce})
				return []wasmer.Value{wasmer.NewI32(1)}, nil
			}),
		"emit_signal": wasmer.NewFunction(store, wasmer.NewFunctionType(i32i32, none),
			func(args []wasmer.Value) ([]wasmer.Value, error) {
				ctx.AddAction(Action{Kind: ActionEmitSignal, Channel: args[0].I32(), Value: args[1].I32()})
				return nil, nil
			}),
	}
}
