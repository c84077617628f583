package ir

import "math/rand"

// randomRegister picks a register in [0,16), the window every
// generator and point-mutation draws from regardless of a function's
// declared NumLocals — programs are tolerant of referencing registers
// beyond NumLocals the same way the legacy interpreter was.
func randomRegister(rng *rand.Rand) Register { return Register(rng.Intn(16)) }

func randomDirectionOperand(rng *rand.Rand) Operand {
	return IntOperand(int32(rng.Intn(3) - 1)) // -1, 0, or 1
}

// GenerateInstruction returns one syntactically valid, arity-correct
// instruction drawn uniformly from the non-legacy opcode pool.
func GenerateInstruction(rng *rand.Rand) Instruction {
	pool := []Opcode{
		OpAdd, OpSub, OpMul, OpDiv, OpMod, OpNeg, OpAbs, OpMin, OpMax,
		OpEq, OpNe, OpLt, OpLe, OpGt, OpGe,
		OpAnd, OpOr, OpXor, OpNot,
		OpLoadConst,
		OpSenseEnv, OpSenseNeighbor, OpGetEnergy, OpGetAge,
		OpMove, OpEat, OpAttack, OpReproduce, OpEmitSignal,
	}
	op := pool[rng.Intn(len(pool))]
	return generateForOpcode(rng, op)
}

func generateForOpcode(rng *rand.Rand, op Opcode) Instruction {
	dest := randomRegister(rng)
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpMin, OpMax,
		OpEq, OpNe, OpLt, OpLe, OpGt, OpGe, OpAnd, OpOr, OpXor:
		return NewInstruction(op, dest, RegOperand(randomRegister(rng)), RegOperand(randomRegister(rng)))
	case OpNeg, OpAbs, OpNot:
		return NewInstruction(op, dest, RegOperand(randomRegister(rng)))
	case OpLoadConst:
		return NewInstruction(op, dest, IntOperand(int32(rng.Intn(21)-10)))
	case OpSenseEnv:
		return NewInstruction(op, dest, randomDirectionOperand(rng), randomDirectionOperand(rng))
	case OpSenseNeighbor:
		return NewInstruction(op, dest, IntOperand(int32(rng.Intn(8))))
	case OpGetEnergy, OpGetAge, OpReproduce:
		return NewInstruction(op, dest)
	case OpMove:
		return Instruction{Opcode: op, Operands: []Operand{randomDirectionOperand(rng), randomDirectionOperand(rng)}}
	case OpAttack:
		return Instruction{Opcode: op, Operands: []Operand{
			IntOperand(int32(rng.Intn(8))),
			IntOperand(int32(rng.Intn(20) + 1)),
		}}
	case OpEat:
		return Instruction{Opcode: op, Dest: dest}
	case OpEmitSignal:
		return Instruction{Opcode: op, Operands: []Operand{
			IntOperand(int32(rng.Intn(10))),
			IntOperand(int32(rng.Intn(201) - 100)),
		}}
	default:
		return Instruction{Opcode: OpGetEnergy, Dest: dest}
	}
}

// GenerateFunction returns a freshly synthesized function: 3-20 random
// instructions followed by a trailing `Return Register(0)`.
func GenerateFunction(rng *rand.Rand, name string) *Function {
	f := NewFunction(name, 1, ReturnIntType)
	n := rng.Intn(18) + 3
	block := f.Block(0)
	for i := 0; i < n; i++ {
		block.Add(GenerateInstruction(rng))
	}
	block.Add(ReturnValue(Register(0)))
	return f
}
