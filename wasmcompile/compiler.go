package wasmcompile

import (
	"github.com/evosim/evo-wasm/ir"
	"github.com/evosim/evo-wasm/log"
)

var Logger = log.Null()

// FuelUsedGlobal and FuelLimitGlobal name the two mutable i32 globals
// the compiler exports on every module so the runtime can reset the
// budget before each step and read back consumption after it; see the
// fuel emulation note in the design notes.
const (
	FuelUsedGlobal  = "fuel_used"
	FuelLimitGlobal = "fuel_limit"
	MemoryExport    = "memory"
	wasmPageBytes   = 65536
)

// Config controls module-level emission knobs not carried by the IR
// itself.
type Config struct {
	// MaxMemoryPages caps the module's memory maximum; MemoryPages on
	// the program is clamped to this.
	MaxMemoryPages int
}

func DefaultConfig() Config { return Config{MaxMemoryPages: 1} }

// InitExportName and StepExportName name the two exports the runtime
// resolves after instantiation; the compiler exports every IR function
// under its own name, so these simply surface the fixed init/step names.
func InitExportName() string { return ir.InitFuncName }
func StepExportName() string { return ir.StepFuncName }

// funcTypeIndex resolves an IR function's WASM type index: init gets
// type 0, step gets type 1, anything else reuses step's signature.
func funcTypeIndex(name string) uint32 {
	if name == ir.InitFuncName {
		return 0
	}
	return 1
}

// Compile lowers p into a complete WASM module. Compile is a pure
// function of (p, cfg): identical inputs produce byte-identical
// modules.
func Compile(p *ir.Program, cfg Config) ([]byte, error) {
	if err := ir.Validate(p); err != nil {
		return nil, err
	}

	pages := p.MemoryPages
	if pages < 1 {
		pages = 1
	}
	if pages > cfg.MaxMemoryPages {
		pages = cfg.MaxMemoryPages
	}

	c := &compilation{program: p}

	module := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00} // \0asm, version 1
	module = append(module, section(1, c.typeSection())...)
	module = append(module, section(2, c.importSection())...)
	module = append(module, section(3, c.functionSection())...)
	module = append(module, section(5, c.memorySection(pages))...)
	module = append(module, section(6, c.globalSection())...)
	module = append(module, section(7, c.exportSection())...)
	codeSec, err := c.codeSection()
	if err != nil {
		return nil, err
	}
	module = append(module, section(10, codeSec)...)
	return module, nil
}

type compilation struct {
	program *ir.Program
}

// typeSection emits init(i64)->(), step(i32)->i32, then the nine host
// import signatures, in that fixed order (type indices 0..10).
func (c *compilation) typeSection() []byte {
	b := &buf{}
	b.u32(uint32(2 + len(HostImports)))

	b.byte(0x60)
	b.u32(1)
	b.byte(valI64)
	b.u32(0)

	b.byte(0x60)
	b.u32(1)
	b.byte(valI32)
	b.u32(1)
	b.byte(valI32)

	for _, h := range HostImports {
		b.byte(0x60)
		b.u32(uint32(len(h.Params)))
		b.bytes(h.Params)
		b.u32(uint32(len(h.Results)))
		b.bytes(h.Results)
	}
	return b.b
}

func (c *compilation) importSection() []byte {
	b := &buf{}
	b.u32(uint32(len(HostImports)))
	for i, h := range HostImports {
		b.name("env")
		b.name(h.Name)
		b.byte(0x00) // func import
		b.u32(uint32(2 + i))
	}
	return b.b
}

func (c *compilation) functionSection() []byte {
	b := &buf{}
	b.u32(uint32(len(c.program.Functions)))
	for _, f := range c.program.Functions {
		b.u32(funcTypeIndex(f.Name))
	}
	return b.b
}

func (c *compilation) memorySection(pages int) []byte {
	b := &buf{}
	b.u32(1)
	b.byte(0x01) // flags: max present
	b.u32(uint32(pages))
	b.u32(uint32(pages))
	return b.b
}

// globalSection declares the two mutable fuel-tracking i32 globals,
// both initialized to zero.
func (c *compilation) globalSection() []byte {
	b := &buf{}
	b.u32(2)
	for i := 0; i < 2; i++ {
		b.byte(valI32)
		b.byte(0x01) // mutable
		b.i32const(0)
		b.byte(0x0B) // end
	}
	return b.b
}

func (c *compilation) exportSection() []byte {
	b := &buf{}
	numImports := uint32(len(HostImports))
	b.u32(uint32(len(c.program.Functions) + 1 + 2))
	for i, f := range c.program.Functions {
		b.name(f.Name)
		b.byte(0x00)
		b.u32(numImports + uint32(i))
	}
	b.name(MemoryExport)
	b.byte(0x02)
	b.u32(0)
	b.name(FuelUsedGlobal)
	b.byte(0x03)
	b.u32(0)
	b.name(FuelLimitGlobal)
	b.byte(0x03)
	b.u32(1)
	return b.b
}

func (c *compilation) codeSection() ([]byte, error) {
	b := &buf{}
	b.u32(uint32(len(c.program.Functions)))
	for _, f := range c.program.Functions {
		body, err := compileFunctionBody(f)
		if err != nil {
			return nil, err
		}
		b.u32(uint32(len(body)))
		b.bytes(body)
	}
	return b.b, nil
}
