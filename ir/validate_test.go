package ir

import "testing"

func validProgram() *Program {
	p := NewProgram()
	init := NewFunction(InitFuncName, 0, ReturnVoidType)
	init.Block(0).Add(ReturnVoid())
	p.AddFunction(init)

	step := NewFunction(StepFuncName, 0, ReturnIntType)
	step.Block(0).Add(LoadConst(0, IntOperand(0)))
	step.Block(0).Add(ReturnValue(0))
	p.AddFunction(step)
	return p
}

func TestValidateAcceptsWellFormedProgram(t *testing.T) {
	if err := Validate(validProgram()); err != nil {
		t.Errorf("Validate(well-formed program) = %v, want nil", err)
	}
}

func TestValidateRejectsMissingInit(t *testing.T) {
	p := validProgram()
	p.Functions = p.Functions[1:] // drop init, keep step
	if err := Validate(p); err == nil {
		t.Error("Validate should reject a program missing init")
	}
}

func TestValidateRejectsMissingStep(t *testing.T) {
	p := validProgram()
	p.Functions = p.Functions[:1] // drop step, keep init
	if err := Validate(p); err == nil {
		t.Error("Validate should reject a program missing step")
	}
}

func TestValidateRejectsEmptyNonTerminalBlock(t *testing.T) {
	p := validProgram()
	step := p.StepFunction()
	step.AddBlock(NewBasicBlock()) // empty, now non-terminal
	step.Blocks[1].Add(ReturnVoid())
	step.Blocks = []*BasicBlock{step.Blocks[0], NewBasicBlock(), step.Blocks[1]}
	if err := Validate(p); err == nil {
		t.Error("Validate should reject a function with an empty non-terminal block")
	}
}

func TestValidateRejectsMissingTrailingReturn(t *testing.T) {
	p := validProgram()
	step := p.StepFunction()
	step.Blocks[0].Instructions = step.Blocks[0].Instructions[:1] // drop the Return
	if err := Validate(p); err == nil {
		t.Error("Validate should reject a function not ending in Return")
	}
}

func TestValidateAllowsEmptyTerminalBlock(t *testing.T) {
	p := validProgram()
	step := p.StepFunction()
	step.AddBlock(NewBasicBlock()) // empty terminal block is fine
	if err := Validate(p); err != nil {
		t.Errorf("Validate should allow an empty terminal block, got %v", err)
	}
}
