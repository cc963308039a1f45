// rewrite.go - call-site rewriter and instruction-width expansion
//
package tclbc

// rewriteCallSites replaces every site's `proc` call with the loader's
// `bcproc` call: the command-name literal becomes "bcproc" and the body
// push is repointed at BodyNewIndex. The original four-word shape (name,
// proc-name, arg-spec, body) is kept rather than spliced down to three,
// so a widened body index only ever grows the single push instruction
// that names it, never shifts the call's own word count.
func rewriteCallSites(img *Image, sites []ProcSite) {
	if len(sites) == 0 {
		return
	}

	bcprocIdx := internLiteral(img, Literal{Kind: LitString, Str: procLoadCommand})

	widen := make(map[int]uint32)

	for _, site := range sites {
		applyOperand(img, site.pushes[0], bcprocIdx, widen)
		applyOperand(img, site.pushes[3], site.BodyNewIndex, widen)
	}

	if len(widen) == 0 {
		return
	}
	globalExpand(img, widen)
}

// internLiteral appends lit and returns its new index without searching
// the table for an equal literal. rewriteCallSites calls it once per
// image, so every site shares that one "bcproc" entry.
func internLiteral(img *Image, lit Literal) int {
	return img.AddLiteral(lit)
}

// applyOperand sets one push instruction's literal operand to newIdx. A
// push4 has its four operand bytes patched in place; a push1 is patched
// in place when newIdx is below 255, otherwise the instruction's code
// offset is recorded in widen for globalExpand to convert to its push4
// form.
func applyOperand(img *Image, site pushSite, newIdx int, widen map[int]uint32) {
	if site.op == OpPush4 {
		copy(img.Code[site.operandOffset:site.operandOffset+4], encodeUint32BE(uint32(newIdx)))
		return
	}
	if newIdx < 255 {
		img.Code[site.operandOffset] = byte(newIdx)
		return
	}
	widen[site.operandOffset-1] = uint32(newIdx)
}

// globalExpand performs the global instruction-expansion algorithm:
// widenSites (each a push1 opcode offset to widen to push4,
// with its already-known new operand value) forces every jump1-family
// instruction in the image to widen to its jump4 form too, since the
// code growing at the widen points can push an existing short jump's
// relative offset out of an int8's range. Rather than selectively
// re-checking each jump's new range, every jump1/jump_true1/jump_false1
// is widened unconditionally once any widening happens at all -- this is
// a deliberate simplifying choice, not a size optimization.
func globalExpand(img *Image, widenSites map[int]uint32) {
	code := img.Code

	growth := make(map[int]bool, len(widenSites))
	for off := range widenSites {
		growth[off] = true
	}
	walkInstructions(code, func(offset int, op Op) {
		if op.IsShortJump() {
			growth[offset] = true
		}
	})

	delta := make([]int, len(code)+1)

	// Build delta as a prefix sum over instruction boundaries: delta[i]
	// is the total growth contributed by every widened instruction whose
	// opcode offset is strictly less than i.
	cum := 0
	pos := 0
	walkInstructions(code, func(offset int, op Op) {
		for pos <= offset {
			delta[pos] = cum
			pos++
		}
		if growth[offset] {
			cum += 3
		}
	})
	for pos < len(delta) {
		delta[pos] = cum
		pos++
	}

	newOffsetOf := func(off int) int { return off + delta[off] }

	var newCode []byte
	walkInstructions(code, func(offset int, op Op) {
		newIdx, isWiden := widenSites[offset]
		switch {
		case isWiden:
			newCode = append(newCode, byte(OpPush4))
			newCode = append(newCode, encodeUint32BE(newIdx)...)
		case op.IsShortJump():
			oldRel := int(int8(code[offset+1]))
			oldTarget := offset + oldRel
			newHere := newOffsetOf(offset)
			newTarget := newOffsetOf(oldTarget)
			newRel := newTarget - newHere
			newCode = append(newCode, byte(op.Widen()))
			newCode = append(newCode, encodeInt32BE(int32(newRel))...)
		default:
			newCode = append(newCode, code[offset:offset+op.Size()]...)
		}
	})

	img.Code = newCode

	for i := range img.CmdLocations {
		loc := &img.CmdLocations[i]
		newStart := newOffsetOf(loc.CodeOffset)
		newEnd := newOffsetOf(loc.CodeOffset + loc.CodeLength)
		loc.CodeOffset = newStart
		loc.CodeLength = newEnd - newStart
	}

	for i := range img.ExceptionRanges {
		r := &img.ExceptionRanges[i]
		newStart := newOffsetOf(r.CodeOffset)
		newEnd := newOffsetOf(r.CodeOffset + r.CodeLength)
		r.CodeOffset = newStart
		r.CodeLength = newEnd - newStart
		if r.Type == CatchExceptionRange {
			r.CatchOffset = newOffsetOf(r.CatchOffset)
		} else {
			r.BreakOffset = newOffsetOf(r.BreakOffset)
			r.ContinueOffset = newOffsetOf(r.ContinueOffset)
		}
	}
}

func encodeUint32BE(n uint32) []byte {
	return []byte{byte(n >> 24), byte(n >> 16), byte(n >> 8), byte(n)}
}

func encodeInt32BE(n int32) []byte {
	return encodeUint32BE(uint32(n))
}
