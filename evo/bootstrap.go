package evo

import (
	"math/rand"

	"github.com/evosim/evo-wasm/ir"
)

// bootstrapGenome builds the minimal viable organism: move in a random
// direction, eat, then try to reproduce. One mutation pass is applied
// before the genome is ever run, so even the first generation already
// carries genetic variance.
func bootstrapGenome(rng *rand.Rand, mutator *ir.Mutator) *ir.Program {
	p := ir.NewProgram()

	init := ir.NewFunction(ir.InitFuncName, 1, ir.ReturnVoidType)
	init.Block(0).Add(ir.ReturnVoid())
	p.AddFunction(init)

	step := ir.NewFunction(ir.StepFuncName, 1, ir.ReturnIntType)
	block := step.Block(0)
	block.Add(ir.LoadConst(ir.Register(0), ir.IntOperand(int32(rng.Intn(3)-1))))
	block.Add(ir.LoadConst(ir.Register(1), ir.IntOperand(int32(rng.Intn(3)-1))))
	block.Add(ir.NewInstruction(ir.OpMove, 0, ir.RegOperand(ir.Register(0)), ir.RegOperand(ir.Register(1))))
	block.Add(ir.Instruction{Opcode: ir.OpEat, Dest: ir.Register(2)})
	block.Add(ir.Instruction{Opcode: ir.OpReproduce, Dest: ir.Register(0)})
	block.Add(ir.ReturnValue(ir.Register(2)))
	p.AddFunction(step)

	return mutator.Mutate(rng, p)
}
