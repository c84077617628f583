package ir

import (
	"fmt"

	"github.com/evosim/evo-wasm/evoerr"
)

// Validate is a pure function of p: it rejects a program missing
// either required entry point, a function with zero blocks, a
// non-terminal block that is empty, or a function whose last
// instruction is not a Return. The final block of a function may be
// empty; the last instruction of the nearest non-empty block before it
// then counts as the function's last instruction.
func Validate(p *Program) error {
	if p.InitFunction() == nil {
		return evoerr.New(evoerr.Validation, "ir.Validate", fmt.Errorf("missing %q function", InitFuncName))
	}
	if p.StepFunction() == nil {
		return evoerr.New(evoerr.Validation, "ir.Validate", fmt.Errorf("missing %q function", StepFuncName))
	}
	for _, f := range p.Functions {
		if err := validateFunction(f); err != nil {
			return err
		}
	}
	return nil
}

func validateFunction(f *Function) error {
	if len(f.Blocks) == 0 {
		return evoerr.New(evoerr.Validation, "ir.Validate", fmt.Errorf("function %q has no basic blocks", f.Name))
	}
	for i, b := range f.Blocks {
		if i == len(f.Blocks)-1 {
			continue // the terminal block may be empty
		}
		if len(b.Instructions) == 0 {
			return evoerr.New(evoerr.Validation, "ir.Validate", fmt.Errorf("function %q block %d is empty", f.Name, i))
		}
	}
	if !endsWithReturn(f) {
		return evoerr.New(evoerr.Validation, "ir.Validate", fmt.Errorf("function %q does not end with Return", f.Name))
	}
	return nil
}

// endsWithReturn walks backward from the last block looking for the
// final instruction overall; mutation and crossover can leave trailing
// blocks empty, so an empty terminal block defers to the last
// instruction of the nearest non-empty block before it.
func endsWithReturn(f *Function) bool {
	for i := len(f.Blocks) - 1; i >= 0; i-- {
		instrs := f.Blocks[i].Instructions
		if len(instrs) == 0 {
			continue
		}
		return instrs[len(instrs)-1].Opcode == OpReturn
	}
	return false
}
