package tclbc

import "testing"

func TestAddLiteralReturnsSequentialIndexes(t *testing.T) {
	img := NewImage()
	i0 := img.AddLiteral(Literal{Kind: LitInt, Int: 1})
	i1 := img.AddLiteral(Literal{Kind: LitString, Str: "a"})
	i2 := img.AddLiteral(Literal{Kind: LitBool, Bool: true})

	if i0 != 0 || i1 != 1 || i2 != 2 {
		t.Fatalf("got indexes %d,%d,%d, want 0,1,2", i0, i1, i2)
	}
	if len(img.Literals) != 3 {
		t.Fatalf("got %d literals, want 3", len(img.Literals))
	}
}

func TestInstructionAtPanicsOutOfRange(t *testing.T) {
	img := NewImage()
	img.Code = []byte{byte(OpPop)}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range offset")
		}
	}()
	img.instructionAt(5)
}

func TestInstructionAtReadsOpcode(t *testing.T) {
	img := NewImage()
	img.Code = []byte{byte(OpDone)}
	if got := img.instructionAt(0); got != OpDone {
		t.Fatalf("got %s, want %s", got, OpDone)
	}
}
