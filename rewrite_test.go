package tclbc

import "testing"

// buildProcCallImage returns an Image containing a single synthetic
// `proc` call site (four push1 literals feeding invoke_stk1 argc=4, then
// pop) at code offset 0, matching the shape procsite.go's locator
// expects, plus the ProcSite describing it.
func buildProcCallImage(bodyNewIndex int) (*Image, ProcSite) {
	img := NewImage()
	nameIdx := img.AddLiteral(Literal{Kind: LitString, Str: "proc"})
	procNameIdx := img.AddLiteral(Literal{Kind: LitString, Str: "greet"})
	argsIdx := img.AddLiteral(Literal{Kind: LitString, Str: "name"})
	bodyIdx := img.AddLiteral(Literal{Kind: LitProcBody, Str: "return $name"})

	img.Code = []byte{
		byte(OpPush1), byte(nameIdx),
		byte(OpPush1), byte(procNameIdx),
		byte(OpPush1), byte(argsIdx),
		byte(OpPush1), byte(bodyIdx),
		byte(OpInvokeStk1), 4,
		byte(OpPop),
	}

	site := ProcSite{
		NameIndex:     nameIdx,
		ProcNameIndex: procNameIdx,
		ArgsIndex:     argsIdx,
		BodyOrigIndex: bodyIdx,
		BodyNewIndex:  bodyNewIndex,
		InvokeOffset:  8,
		CommandIndex:  -1,
		pushes: [4]pushSite{
			{op: OpPush1, operandOffset: 1, literalIndex: nameIdx},
			{op: OpPush1, operandOffset: 3, literalIndex: procNameIdx},
			{op: OpPush1, operandOffset: 5, literalIndex: argsIdx},
			{op: OpPush1, operandOffset: 7, literalIndex: bodyIdx},
		},
	}
	return img, site
}

func TestRewriteCallSitesPatchesOperandsInPlace(t *testing.T) {
	img, site := buildProcCallImage(2) // fits in a byte, no widening needed
	originalLen := len(img.Code)

	rewriteCallSites(img, []ProcSite{site})

	if len(img.Code) != originalLen {
		t.Fatalf("code length changed without any widening: got %d, want %d", len(img.Code), originalLen)
	}

	nameOperand := int(img.Code[1])
	nameLit := img.Literals[nameOperand]
	if nameLit.Kind != LitString || nameLit.Str != procLoadCommand {
		t.Fatalf("push[0] operand does not reference %q: got %+v", procLoadCommand, nameLit)
	}

	bodyOperand := int(img.Code[7])
	if bodyOperand != 2 {
		t.Fatalf("push[3] operand = %d, want 2", bodyOperand)
	}
}

func TestRewriteCallSitesTriggersGlobalExpandOnWideBodyIndex(t *testing.T) {
	img, site := buildProcCallImage(300) // forces push1 -> push4 at pushes[3]

	// Append a short jump after the call site that jumps forward to a
	// trailing `done`, so expansion must also widen it and recompute its
	// relative offset.
	jumpOffset := len(img.Code)
	img.Code = append(img.Code, byte(OpJump1), 0)
	doneOffset := len(img.Code)
	img.Code = append(img.Code, byte(OpDone))
	img.Code[jumpOffset+1] = byte(int8(doneOffset - jumpOffset))

	rewriteCallSites(img, []ProcSite{site})

	// Walk the rewritten code and collect opcodes in order.
	var ops []Op
	var offsets []int
	walkInstructions(img.Code, func(offset int, op Op) {
		ops = append(ops, op)
		offsets = append(offsets, offset)
	})

	wantOps := []Op{OpPush1, OpPush1, OpPush1, OpPush4, OpInvokeStk1, OpPop, OpJump4, OpDone}
	if len(ops) != len(wantOps) {
		t.Fatalf("got %d instructions %v, want %d %v", len(ops), ops, len(wantOps), wantOps)
	}
	for i := range ops {
		if ops[i] != wantOps[i] {
			t.Errorf("instruction %d: got %s, want %s", i, ops[i], wantOps[i])
		}
	}

	push4Offset := offsets[3]
	gotBodyIdx := decodeUint32(img.Code[push4Offset+1 : push4Offset+5])
	if gotBodyIdx != 300 {
		t.Errorf("widened push4 operand = %d, want 300", gotBodyIdx)
	}

	jump4Offset := offsets[6]
	doneNewOffset := offsets[7]
	wantRel := doneNewOffset - jump4Offset
	gotRel := int(int32(decodeUint32(img.Code[jump4Offset+1 : jump4Offset+5])))
	if gotRel != wantRel {
		t.Errorf("widened jump4 relative offset = %d, want %d", gotRel, wantRel)
	}
}

func TestGlobalExpandPatchesExceptionRanges(t *testing.T) {
	img, site := buildProcCallImage(300)

	// A loop exception range entirely after the call site: its offsets
	// must all shift by the push1->push4 growth.
	loopStart := len(img.Code)
	img.Code = append(img.Code, byte(OpPush1), 0, byte(OpJumpFalse1), 0)
	loopBody := len(img.Code)
	img.Code = append(img.Code, byte(OpDone))
	img.Code[loopStart+3] = byte(int8(loopBody - (loopStart + 2)))

	img.ExceptionRanges = append(img.ExceptionRanges, ExceptionRange{
		Type:           LoopExceptionRange,
		CodeOffset:     loopStart,
		CodeLength:     loopBody - loopStart,
		BreakOffset:    loopBody,
		ContinueOffset: loopStart,
	})

	rewriteCallSites(img, []ProcSite{site})

	r := img.ExceptionRanges[0]
	// The push1 at pushes[3] (offset 6) widened by 3 bytes, and the
	// range's own jump_false1 also widened, shifting everything from
	// loopStart onward by the push1 growth (3 bytes), applied before the
	// range's own internal jump widening is accounted for in BreakOffset.
	wantCodeOffset := loopStart + 3
	if r.CodeOffset != wantCodeOffset {
		t.Errorf("ExceptionRange.CodeOffset = %d, want %d", r.CodeOffset, wantCodeOffset)
	}
	if r.BreakOffset <= wantCodeOffset {
		t.Errorf("ExceptionRange.BreakOffset = %d, should have shifted past CodeOffset %d", r.BreakOffset, wantCodeOffset)
	}
}
