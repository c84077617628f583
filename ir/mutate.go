package ir

import "math/rand"

// MutatorConfig mirrors the legacy mutation knobs exactly: every rate
// is a per-opportunity probability in [0,1].
type MutatorConfig struct {
	PointMutationRate         float64
	InsertionRate             float64
	DeletionRate              float64
	BlockDuplicationRate      float64
	FunctionAdditionRate      float64
	MaxInstructionsPerFunction int
	MaxFunctions              int
	MaxLocals                 int
}

// DefaultMutatorConfig returns the rates used throughout the example
// islands and the bootstrap genome.
func DefaultMutatorConfig() MutatorConfig {
	return MutatorConfig{
		PointMutationRate:          0.01,
		InsertionRate:              0.005,
		DeletionRate:               0.005,
		BlockDuplicationRate:       0.001,
		FunctionAdditionRate:       0.0001,
		MaxInstructionsPerFunction: 100,
		MaxFunctions:               10,
		MaxLocals:                  16,
	}
}

// Mutator applies the configured mutation operators to a program using
// a caller-supplied deterministic RNG.
type Mutator struct {
	Config MutatorConfig
}

func NewMutator(cfg MutatorConfig) *Mutator { return &Mutator{Config: cfg} }

// Mutate returns a mutated clone of p; p itself is never modified.
func (m *Mutator) Mutate(rng *rand.Rand, p *Program) *Program {
	out := p.Clone()
	for _, f := range out.Functions {
		m.mutateFunction(rng, f)
	}
	if rng.Float64() < m.Config.FunctionAdditionRate && len(out.Functions) < m.Config.MaxFunctions {
		out.AddFunction(GenerateFunction(rng, "fn"+itoa(len(out.Functions))))
	}
	return out
}

func (m *Mutator) mutateFunction(rng *rand.Rand, f *Function) {
	for _, b := range f.Blocks {
		m.mutateBlock(rng, b)
	}
	if rng.Float64() < m.Config.BlockDuplicationRate && len(f.Blocks) > 0 {
		src := f.Blocks[rng.Intn(len(f.Blocks))]
		f.AddBlock(src.Clone())
	}
	if rng.Float64() < 0.01 && f.NumLocals < m.Config.MaxLocals {
		f.NumLocals++
	}
}

func (m *Mutator) mutateBlock(rng *rand.Rand, b *BasicBlock) {
	i := 0
	for i < len(b.Instructions) {
		if rng.Float64() < m.Config.PointMutationRate {
			b.Instructions[i] = m.pointMutate(rng, b.Instructions[i])
		}
		if rng.Float64() < m.Config.DeletionRate && len(b.Instructions) >= 2 {
			b.Instructions = append(b.Instructions[:i], b.Instructions[i+1:]...)
			continue // the next instruction now sits at i; don't advance
		}
		if rng.Float64() < m.Config.InsertionRate && len(b.Instructions) < m.Config.MaxInstructionsPerFunction {
			ins := GenerateInstruction(rng)
			b.Instructions = append(b.Instructions, Instruction{})
			copy(b.Instructions[i+1:], b.Instructions[i:])
			b.Instructions[i] = ins
			i++ // skip over the instruction we just inserted
		}
		i++
	}
}

// pointMutate applies one of three sub-operations uniformly, never
// violating the instruction's arity.
func (m *Mutator) pointMutate(rng *rand.Rand, ins Instruction) Instruction {
	switch rng.Intn(3) {
	case 0:
		ins.Opcode = mutateOpcodeClass(rng, ins.Opcode)
	case 1:
		for i, operand := range ins.Operands {
			if rng.Float64() < 0.5 {
				ins.Operands[i] = mutateOperand(rng, operand)
			}
		}
	case 2:
		if ins.Opcode.HasDest() {
			ins.Dest = randomRegister(rng)
		}
	}
	return ins
}

// mutateOpcodeClass swaps op for another member of its arity class.
// Opcodes in ClassOther (action opcodes, mixed-arity host calls,
// LoadConst, Return, and the legacy no-ops) are left unchanged.
func mutateOpcodeClass(rng *rand.Rand, op Opcode) Opcode {
	class := op.Class()
	members, ok := classMembers[class]
	if !ok || len(members) == 0 {
		return op
	}
	return members[rng.Intn(len(members))]
}

func mutateOperand(rng *rand.Rand, o Operand) Operand {
	switch o.Kind {
	case OperandRegister:
		o.Register = randomRegister(rng)
	case OperandInt:
		o.Int += int32(rng.Intn(21) - 10)
	case OperandFloat:
		o.Float += (rng.Float32()*2 - 1)
	case OperandBool:
		if rng.Float64() < 0.5 {
			o.Bool = !o.Bool
		}
	case OperandBlockIndex, OperandFunctionIndex:
		o.Index = rng.Intn(8)
	}
	return o
}

// Crossover produces one child program from two parents: the target
// function count is the average of the parents' counts capped at
// MaxFunctions, and each slot independently takes from one parent or
// the other on a fair coin, falling back to the other parent (index
// modulo its length) when the chosen parent has no function at that
// slot. The result is returned unmutated; callers apply Mutate
// separately.
func Crossover(rng *rand.Rand, cfg MutatorConfig, p1, p2 *Program) *Program {
	target := (len(p1.Functions) + len(p2.Functions)) / 2
	if target > cfg.MaxFunctions {
		target = cfg.MaxFunctions
	}
	if target == 0 {
		target = 1
	}
	child := NewProgram()
	for i := 0; i < target; i++ {
		donor, other := p1, p2
		if rng.Float64() >= 0.5 {
			donor, other = p2, p1
		}
		if i >= len(donor.Functions) {
			donor = other
		}
		if len(donor.Functions) == 0 {
			continue
		}
		idx := i % len(donor.Functions)
		child.AddFunction(donor.Functions[idx].Clone())
	}
	if child.GetFunction(InitFuncName) == nil {
		if f := p1.InitFunction(); f != nil {
			child.AddFunction(f.Clone())
		}
	}
	if child.GetFunction(StepFuncName) == nil {
		if f := p1.StepFunction(); f != nil {
			child.AddFunction(f.Clone())
		}
	}
	return child
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
