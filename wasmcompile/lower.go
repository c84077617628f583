package wasmcompile

import (
	"fmt"

	"github.com/evosim/evo-wasm/evoerr"
	"github.com/evosim/evo-wasm/ir"
)

const (
	opUnreachable = 0x00
	opEnd         = 0x0B
	opIf          = 0x04
	opElse        = 0x05
	opLocalGet    = 0x20
	opLocalSet    = 0x21
	opGlobalGet   = 0x23
	opGlobalSet   = 0x24
	opCall        = 0x10
	opReturn      = 0x0F
	opI32Eqz      = 0x45
	opI32Eq       = 0x46
	opI32Ne       = 0x47
	opI32LtS      = 0x48
	opI32GtS      = 0x4A
	opI32LeS      = 0x4C
	opI32GeS      = 0x4E
	opI32Add      = 0x6A
	opI32Sub      = 0x6B
	opI32Mul      = 0x6C
	opI32DivS     = 0x6D
	opI32RemS     = 0x6F
	opI32And      = 0x71
	opI32Or       = 0x72
	opI32Xor      = 0x73
	opDrop        = 0x1A
)

var binaryOp = map[ir.Opcode]byte{
	ir.OpAdd: opI32Add, ir.OpSub: opI32Sub, ir.OpMul: opI32Mul,
	ir.OpDiv: opI32DivS, ir.OpMod: opI32RemS,
	ir.OpEq: opI32Eq, ir.OpNe: opI32Ne, ir.OpLt: opI32LtS,
	ir.OpLe: opI32LeS, ir.OpGt: opI32GtS, ir.OpGe: opI32GeS,
	ir.OpAnd: opI32And, ir.OpOr: opI32Or, ir.OpXor: opI32Xor,
}

// funcLayout resolves register and scratch-local WASM indices for one
// function body. Registers 0..15 are always addressable regardless of
// the function's declared NumLocals, matching the legacy interpreter's
// tolerance of "over-wide" register references.
type funcLayout struct {
	paramCount int
	numRegs    int
	scratch1   int
	scratch2   int
}

func newFuncLayout(f *ir.Function) funcLayout {
	numRegs := f.NumLocals
	if numRegs < 16 {
		numRegs = 16
	}
	return funcLayout{
		paramCount: f.NumParams,
		numRegs:    numRegs,
		scratch1:   f.NumParams + numRegs,
		scratch2:   f.NumParams + numRegs + 1,
	}
}

func (l funcLayout) regIndex(r ir.Register) uint32 { return uint32(l.paramCount) + uint32(r) }

func compileFunctionBody(f *ir.Function) ([]byte, error) {
	layout := newFuncLayout(f)

	body := &buf{}
	// locals declaration: one group of (numRegs+2) i32 locals.
	body.u32(1)
	body.u32(uint32(layout.numRegs + 2))
	body.byte(valI32)

	for _, block := range f.Blocks {
		emitFuelCheck(body, len(block.Instructions))
		for _, ins := range block.Instructions {
			if err := lowerInstruction(body, layout, f, ins); err != nil {
				return nil, err
			}
		}
	}
	body.byte(opEnd)
	return body.b, nil
}

// emitFuelCheck injects the compiler-side fuel metering sequence at
// the start of every basic block: increment fuel_used by the block's
// static instruction count, and trap if it now exceeds fuel_limit.
func emitFuelCheck(b *buf, cost int) {
	if cost == 0 {
		return
	}
	b.byte(opGlobalGet)
	b.u32(0) // fuel_used
	b.i32const(int32(cost))
	b.byte(opI32Add)
	b.byte(opGlobalSet)
	b.u32(0)

	b.byte(opGlobalGet)
	b.u32(0) // fuel_used
	b.byte(opGlobalGet)
	b.u32(1) // fuel_limit
	b.byte(opI32GtS)
	b.byte(opIf)
	b.byte(0x40) // empty blocktype
	b.byte(opUnreachable)
	b.byte(opEnd)
}

func pushOperand(b *buf, layout funcLayout, o ir.Operand) {
	if o.Kind == ir.OperandRegister {
		b.byte(opLocalGet)
		b.u32(layout.regIndex(o.Register))
		return
	}
	b.i32const(o.AsI32())
}

func setDest(b *buf, layout funcLayout, dest ir.Register) {
	b.byte(opLocalSet)
	b.u32(layout.regIndex(dest))
}

func lowerInstruction(b *buf, layout funcLayout, f *ir.Function, ins ir.Instruction) error {
	op := ins.Opcode

	if wasmOp, ok := binaryOp[op]; ok {
		pushOperand(b, layout, ins.Operands[0])
		pushOperand(b, layout, ins.Operands[1])
		b.byte(wasmOp)
		setDest(b, layout, ins.Dest)
		return nil
	}

	switch op {
	case ir.OpNot:
		pushOperand(b, layout, ins.Operands[0])
		b.byte(opI32Eqz)
		setDest(b, layout, ins.Dest)

	case ir.OpNeg:
		b.i32const(0)
		pushOperand(b, layout, ins.Operands[0])
		b.byte(opI32Sub)
		setDest(b, layout, ins.Dest)

	case ir.OpAbs:
		pushOperand(b, layout, ins.Operands[0])
		b.byte(opLocalSet)
		b.u32(uint32(layout.scratch1))
		b.byte(opLocalGet)
		b.u32(uint32(layout.scratch1))
		b.i32const(0)
		b.byte(opI32LtS)
		b.byte(opIf)
		b.byte(valI32)
		b.i32const(0)
		b.byte(opLocalGet)
		b.u32(uint32(layout.scratch1))
		b.byte(opI32Sub)
		b.byte(opElse)
		b.byte(opLocalGet)
		b.u32(uint32(layout.scratch1))
		b.byte(opEnd)
		setDest(b, layout, ins.Dest)

	case ir.OpMin, ir.OpMax:
		pushOperand(b, layout, ins.Operands[0])
		b.byte(opLocalSet)
		b.u32(uint32(layout.scratch1))
		pushOperand(b, layout, ins.Operands[1])
		b.byte(opLocalSet)
		b.u32(uint32(layout.scratch2))
		b.byte(opLocalGet)
		b.u32(uint32(layout.scratch1))
		b.byte(opLocalGet)
		b.u32(uint32(layout.scratch2))
		if op == ir.OpMin {
			b.byte(opI32LtS)
		} else {
			b.byte(opI32GtS)
		}
		b.byte(opIf)
		b.byte(valI32)
		b.byte(opLocalGet)
		b.u32(uint32(layout.scratch1))
		b.byte(opElse)
		b.byte(opLocalGet)
		b.u32(uint32(layout.scratch2))
		b.byte(opEnd)
		setDest(b, layout, ins.Dest)

	case ir.OpLoadConst:
		b.i32const(ins.Operands[0].AsI32())
		setDest(b, layout, ins.Dest)

	case ir.OpReturn:
		if f.ReturnType == ir.ReturnIntType {
			pushOperand(b, layout, ins.Operands[0])
		}
		b.byte(opReturn)

	case ir.OpBranch, ir.OpBranchIf, ir.OpCall, ir.OpLoad, ir.OpStore:
		Logger.Printf("wasmcompile: %s is declared but not lowered; emitting no-op\n", op)

	default:
		if !isHostCall(op) {
			return evoerr.New(evoerr.Wasm, "wasmcompile.lowerInstruction", fmt.Errorf("unhandled opcode %s", op))
		}
		for _, operand := range ins.Operands {
			pushOperand(b, layout, operand)
		}
		idx := hostCallIndex(op)
		b.byte(opCall)
		b.u32(uint32(idx))
		switch {
		case op.HasDest():
			setDest(b, layout, ins.Dest)
		case len(HostImports[idx].Results) > 0:
			// The call yields a value (e.g. a success flag) the IR
			// discards; drop it to keep the WASM stack balanced.
			b.byte(opDrop)
		}
	}
	return nil
}
