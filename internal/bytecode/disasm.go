package bytecode

import (
	"fmt"
	"io"
)

// Disassembler renders a Chunk's bytecode in human-readable form for the
// `bite disasm` CLI subcommand and for debugging failing tests.
type Disassembler struct {
	w     io.Writer
	chunk *Chunk
}

// NewDisassembler creates a disassembler writing chunk's listing to w.
func NewDisassembler(w io.Writer, chunk *Chunk) *Disassembler {
	return &Disassembler{w: w, chunk: chunk}
}

// Disassemble prints the chunk's full listing: header, constant pool, then
// every instruction, recursing into any FunctionProto/ClassProto constants.
func (d *Disassembler) Disassemble() {
	fmt.Fprintf(d.w, "== %s ==\n", d.chunk.Name)

	offset := 0
	for offset < len(d.chunk.Code) {
		offset = d.instruction(offset)
	}

	for i, c := range d.chunk.Constants {
		switch v := c.(type) {
		case *FunctionProto:
			fmt.Fprintf(d.w, "\n-- constant [%d] function %s --\n", i, v.Name)
			NewDisassembler(d.w, v.Chunk).Disassemble()
		case *ClassProto:
			fmt.Fprintf(d.w, "\n-- constant [%d] class %s --\n", i, v.Name)
			if v.Ctor != nil {
				fmt.Fprintf(d.w, "-- %s.init --\n", v.Name)
				NewDisassembler(d.w, v.Ctor.Chunk).Disassemble()
			}
			for name, m := range v.Methods {
				fmt.Fprintf(d.w, "-- %s.%s --\n", v.Name, name)
				NewDisassembler(d.w, m.Chunk).Disassemble()
			}
			for name, g := range v.Getters {
				fmt.Fprintf(d.w, "-- %s.get %s --\n", v.Name, name)
				NewDisassembler(d.w, g.Chunk).Disassemble()
			}
			for name, s := range v.Setters {
				fmt.Fprintf(d.w, "-- %s.set %s --\n", v.Name, name)
				NewDisassembler(d.w, s.Chunk).Disassemble()
			}
		}
	}
}

// instruction prints the instruction at offset and returns the offset of
// the next one.
func (d *Disassembler) instruction(offset int) int {
	op := Op(d.chunk.Code[offset])
	line := d.chunk.Lines[offset]
	fmt.Fprintf(d.w, "%04d %4d %-18s", offset, line, op)

	switch op {
	case OpConstant, OpGetGlobal, OpSetGlobal, OpGetNative, OpGetProperty, OpSetProperty, OpGetSuper:
		idx := d.chunk.ReadU16(offset + 1)
		fmt.Fprintf(d.w, " %d  ; %s\n", idx, d.constantLabel(idx))
		return offset + 3
	case OpGetLocal, OpSetLocal, OpGetUpvalue, OpSetUpvalue:
		idx := d.chunk.ReadU16(offset + 1)
		fmt.Fprintf(d.w, " %d\n", idx)
		return offset + 3
	case OpJump, OpJumpIfFalse, OpJumpIfFalsePeek, OpJumpIfTruePeek, OpJumpIfNilPeek, OpLoop:
		target := d.chunk.ReadU16(offset + 1)
		fmt.Fprintf(d.w, " -> %04d\n", target)
		return offset + 3
	case OpIterNext:
		target := d.chunk.ReadU16(offset + 1)
		fmt.Fprintf(d.w, " done -> %04d\n", target)
		return offset + 3
	case OpClass:
		idx := d.chunk.ReadU16(offset + 1)
		fmt.Fprintf(d.w, " %d  ; %s\n", idx, d.constantLabel(idx))
		return offset + 3
	case OpCall, OpInstance:
		argc := d.chunk.Code[offset+1]
		fmt.Fprintf(d.w, " argc=%d\n", argc)
		return offset + 2
	case OpRange:
		inclusive := d.chunk.Code[offset+1]
		fmt.Fprintf(d.w, " inclusive=%d\n", inclusive)
		return offset + 2
	case OpClosure:
		idx := d.chunk.ReadU16(offset + 1)
		fmt.Fprintf(d.w, " %d  ; %s\n", idx, d.constantLabel(idx))
		next := offset + 3
		proto, _ := d.chunk.Constants[idx].(*FunctionProto)
		if proto == nil {
			return next
		}
		for range proto.Upvalues {
			isLocal := d.chunk.Code[next]
			upIdx := d.chunk.ReadU16(next + 1)
			kind := "upvalue"
			if isLocal != 0 {
				kind = "local"
			}
			fmt.Fprintf(d.w, "%04d      |                    %s %d\n", next, kind, upIdx)
			next += 3
		}
		return next
	default:
		fmt.Fprintln(d.w)
		return offset + 1
	}
}

func (d *Disassembler) constantLabel(idx uint16) string {
	if int(idx) >= len(d.chunk.Constants) {
		return "?"
	}
	switch v := d.chunk.Constants[idx].(type) {
	case string:
		return fmt.Sprintf("%q", v)
	case *FunctionProto:
		return "fn:" + v.Name
	case *ClassProto:
		return "class:" + v.Name
	default:
		return fmt.Sprintf("%v", v)
	}
}
