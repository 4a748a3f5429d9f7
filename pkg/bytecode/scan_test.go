package bytecode

import (
	"errors"
	"strings"
	"testing"
)

func sampleBuffer(t *testing.T) *Buffer {
	t.Helper()
	b := NewBuffer()
	b.WriteOpcode(OpLoadLiteral)
	b.WriteDatatype(String)
	if err := b.WriteString("hi"); err != nil {
		t.Fatal(err)
	}
	b.WriteOpcode(OpCall)
	b.WriteDatatype(Void)
	if err := b.WriteIdentifier("std.sio::writeln"); err != nil {
		t.Fatal(err)
	}
	if err := b.WriteDatatypeList([]Datatype{String}); err != nil {
		t.Fatal(err)
	}
	b.WriteOpcode(OpLoadLocal)
	if err := b.WriteIndex(3); err != nil {
		t.Fatal(err)
	}
	b.WriteOpcode(OpReturn)
	return b
}

func TestScanInstructions(t *testing.T) {
	b := sampleBuffer(t)
	ins, err := b.Instructions()
	if err != nil {
		t.Fatalf("Instructions: %v", err)
	}
	if len(ins) != 4 {
		t.Fatalf("got %d instructions, want 4", len(ins))
	}

	lit := ins[0]
	if lit.Op != OpLoadLiteral || lit.Datatype != String || lit.Literal != "hi" || lit.Len != 1+1+1+4 {
		t.Errorf("LOAD_LITERAL decoded as %+v", lit)
	}
	call := ins[1]
	if call.Op != OpCall || call.Datatype != Void || call.Name != "std.sio::writeln" {
		t.Errorf("CALL decoded as %+v", call)
	}
	if call.Pos != lit.Next() {
		t.Errorf("CALL at %d, want %d", call.Pos, lit.Next())
	}
	if ins[2].Index != 3 {
		t.Errorf("LOAD_LOCAL index = %d, want 3", ins[2].Index)
	}
	if ins[3].Next() != b.Len() {
		t.Errorf("last instruction ends at %d, want %d", ins[3].Next(), b.Len())
	}
}

func TestScanTruncated(t *testing.T) {
	full := sampleBuffer(t).Bytes()
	b := BufferFrom(full[:len(full)-3])
	if _, err := b.Instructions(); !errors.Is(err, ErrBufferOverrun) {
		t.Errorf("Instructions on truncated buffer error = %v, want ErrBufferOverrun", err)
	}
}

func TestDisassemble(t *testing.T) {
	out := sampleBuffer(t).DisassembleWithName("main")
	for _, want := range []string{
		"; === main ===",
		"LOAD_LITERAL  String \"hi\"",
		"CALL",
		"std.sio::writeln (String)",
		"LOAD_LOCAL",
		"#3",
		"RETURN",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("disassembly missing %q:\n%s", want, out)
		}
	}
}

func TestDisassembleReportsErrors(t *testing.T) {
	out := BufferFrom([]byte{byte(OpNoOperation), 0xEE}).Disassemble()
	if !strings.Contains(out, "error") {
		t.Errorf("disassembly should report the bad opcode:\n%s", out)
	}
}
