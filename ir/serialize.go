package ir

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"

	"github.com/evosim/evo-wasm/evoerr"
)

// wire mirrors Program/Function/BasicBlock/Instruction with exported
// fields only, so both encoding/gob and encoding/json see identical
// content regardless of which concrete Go types carry it.
type wireProgram struct {
	MemoryPages int
	Functions   []wireFunction
}

type wireFunction struct {
	Name       string
	NumParams  int
	NumLocals  int
	ReturnType ReturnType
	Blocks     [][]Instruction
}

func toWire(p *Program) wireProgram {
	w := wireProgram{MemoryPages: p.MemoryPages, Functions: make([]wireFunction, len(p.Functions))}
	for i, f := range p.Functions {
		wf := wireFunction{Name: f.Name, NumParams: f.NumParams, NumLocals: f.NumLocals, ReturnType: f.ReturnType}
		wf.Blocks = make([][]Instruction, len(f.Blocks))
		for j, b := range f.Blocks {
			wf.Blocks[j] = b.Instructions
		}
		w.Functions[i] = wf
	}
	return w
}

func fromWire(w wireProgram) *Program {
	p := &Program{MemoryPages: w.MemoryPages}
	for _, wf := range w.Functions {
		f := &Function{Name: wf.Name, NumParams: wf.NumParams, NumLocals: wf.NumLocals, ReturnType: wf.ReturnType}
		f.Blocks = make([]*BasicBlock, len(wf.Blocks))
		for j, instrs := range wf.Blocks {
			f.Blocks[j] = &BasicBlock{Instructions: instrs}
		}
		p.AddFunction(f)
	}
	return p
}

// ToBytes encodes p with encoding/gob, the same binary codec the
// grid snapshot code in this repository has always used.
func ToBytes(p *Program) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(toWire(p)); err != nil {
		return nil, evoerr.New(evoerr.Serialization, "ir.ToBytes", err)
	}
	return buf.Bytes(), nil
}

// FromBytes decodes bytes produced by ToBytes.
func FromBytes(data []byte) (*Program, error) {
	var w wireProgram
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&w); err != nil {
		return nil, evoerr.New(evoerr.Serialization, "ir.FromBytes", err)
	}
	return fromWire(w), nil
}

// ToJSON and FromJSON provide the human-readable encoding carrying
// identical content to ToBytes/FromBytes.
func ToJSON(p *Program) ([]byte, error) {
	data, err := json.Marshal(toWire(p))
	if err != nil {
		return nil, evoerr.New(evoerr.Serialization, "ir.ToJSON", err)
	}
	return data, nil
}

func FromJSON(data []byte) (*Program, error) {
	var w wireProgram
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, evoerr.New(evoerr.Serialization, "ir.FromJSON", fmt.Errorf("%w", err))
	}
	return fromWire(w), nil
}
