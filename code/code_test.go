package code

import "testing"

func TestMake(t *testing.T) {
	tests := []struct {
		op       Opcode
		operands []int
		expected []byte
	}{
		{LoadConst, []int{65534}, []byte{byte(LoadConst), 255, 254}},
		{Pop, []int{}, []byte{byte(Pop)}},
		{LoadBuiltin, []int{255}, []byte{byte(LoadBuiltin), 255}},
		{Jump, []int{65534}, []byte{byte(Jump), 255, 254}},
		{AssignCaptured, []int{3}, []byte{byte(AssignCaptured), 3}},
	}

	for _, tt := range tests {
		instruction := Make(tt.op, tt.operands...)
		if len(instruction) != len(tt.expected) {
			t.Fatalf("instruction has wrong length. want=%d, got=%d", len(tt.expected), len(instruction))
		}
		for i, b := range tt.expected {
			if instruction[i] != b {
				t.Errorf("wrong byte at pos %d. want=%d, got=%d", i, b, instruction[i])
			}
		}
	}
}

func TestInstructionsString(t *testing.T) {
	instructions := []Instructions{
		Make(LoadConst, 1),
		Make(LoadConst, 2),
		Make(BinaryOp, int(BinaryAdd)),
		Make(LoadBuiltin, 0),
		Make(Jump, 10),
	}

	expected := "0000 LoadConst 1\n" +
		"0003 LoadConst 2\n" +
		"0006 BinaryOp 0\n" +
		"0008 LoadBuiltin 0\n" +
		"0010 Jump 10\n"

	concatted := Instructions{}
	for _, ins := range instructions {
		concatted = append(concatted, ins...)
	}

	if concatted.String() != expected {
		t.Errorf("instructions wrongly formatted.\nwant=%q\ngot=%q", expected, concatted.String())
	}
}

func TestReadOperands(t *testing.T) {
	tests := []struct {
		op        Opcode
		operands  []int
		bytesRead int
	}{
		{LoadConst, []int{65535}, 2},
		{LoadBuiltin, []int{255}, 1},
		{Jump, []int{65535}, 2},
		{AssignCaptured, []int{200}, 1},
	}

	for _, tt := range tests {
		instruction := Make(tt.op, tt.operands...)
		def, err := Lookup(byte(tt.op))
		if err != nil {
			t.Fatalf("definition not found: %s", err)
		}
		operandsRead, n := ReadOperands(def, instruction[1:])
		if n != tt.bytesRead {
			t.Fatalf("n wrong. want=%d, got=%d", tt.bytesRead, n)
		}
		for i, want := range tt.operands {
			if operandsRead[i] != want {
				t.Errorf("operand wrong. want=%d, got=%d", want, operandsRead[i])
			}
		}
	}
}

func TestUnitFixUpExplicitReturns(t *testing.T) {
	u := NewUnit("$main")
	u.Emit(LoadConst, 0)
	u.Emit(Pop)
	u.FixUpExplicitReturns()

	last := u.lastOpcode()
	if last != ReturnPlaceholder {
		t.Errorf("expected unit to be return-terminated, got last opcode %d", last)
	}

	u2 := NewUnit("fn")
	u2.Emit(LoadConst, 0)
	u2.Emit(Return)
	before := len(u2.Chunk)
	u2.FixUpExplicitReturns()
	if len(u2.Chunk) != before {
		t.Errorf("expected no-op when already return-terminated")
	}
}

func TestUnitAddConstDedup(t *testing.T) {
	u := NewUnit("$main")
	eq := func(a, b any) bool { return a == b }

	i1 := u.AddConst("hello", eq)
	i2 := u.AddConst("hello", eq)
	i3 := u.AddConst("world", eq)

	if i1 != i2 {
		t.Errorf("expected duplicate constant to reuse index: %d != %d", i1, i2)
	}
	if i3 == i1 {
		t.Errorf("expected distinct constant to get a new index")
	}
	if len(u.Constants) != 2 {
		t.Errorf("expected 2 constants, got %d", len(u.Constants))
	}
}

func TestUnitExtendRewritesConstIndices(t *testing.T) {
	inner := NewUnit("block")
	inner.Constants = append(inner.Constants, "x")
	inner.Emit(LoadConst, 0)

	outer := NewUnit("$main")
	outer.Constants = append(outer.Constants, "already-here")
	outer.Extend(inner)

	def, _ := Lookup(outer.Chunk[0])
	operands, _ := ReadOperands(def, outer.Chunk[1:])
	if operands[0] != 1 {
		t.Errorf("expected rewritten const index 1, got %d", operands[0])
	}
	if outer.Constants[1] != "x" {
		t.Errorf("expected constant copied into outer pool, got %v", outer.Constants[1])
	}
}
