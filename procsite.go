// procsite.go - proc-call site locator
package tclbc

// pushSite records where one push instruction lives in the code buffer:
// the offset of its operand byte(s) and which opcode (push1 or push4)
// emitted it, so later stages can patch the operand in place or rewrite
// the whole instruction.
type pushSite struct {
	op            Op
	operandOffset int // offset of the first operand byte, not the opcode
	literalIndex  int
}

// ProcSite describes one `proc name args body` call site found in an
// Image's code: which literal index holds each of the four words, where
// the body literal is relocated to, and where the invoking instruction
// sits in the code buffer.
type ProcSite struct {
	NameIndex     int // literal index of the "proc" command-name word
	ProcNameIndex int // literal index of the proc's own name
	ArgsIndex     int // literal index of the argument-spec literal
	BodyOrigIndex int // literal index of the body literal, pre-unshare
	BodyNewIndex  int // literal index of the body literal, post-unshare (starts equal to BodyOrigIndex)

	pushes       [4]pushSite // the four push instructions feeding the invoke
	InvokeOffset int         // code offset of the invoke_stk opcode byte
	CommandIndex int         // index into Image.CmdLocations owning this site, -1 if not found
}

// locateProcSites scans img's code for the `proc` call-site shape codegen
// emits: four consecutive push instructions (command name "proc", proc
// name, arg spec, body) followed by an invoke_stk with argc 4, where the
// first pushed literal is the string "proc" and the fourth is a
// LitProcBody literal.
func locateProcSites(img *Image) []ProcSite {
	var sites []ProcSite
	var pending []pushSite

	cmdIndexForOffset := func(off int) int {
		for i, loc := range img.CmdLocations {
			if off >= loc.CodeOffset && off < loc.CodeOffset+loc.CodeLength {
				return i
			}
		}
		return -1
	}

	walkInstructions(img.Code, func(offset int, op Op) {
		switch op {
		case OpPush1:
			pending = append(pending, pushSite{op: op, operandOffset: offset + 1, literalIndex: int(img.Code[offset+1])})
		case OpPush4:
			idx := decodeUint32(img.Code[offset+1 : offset+5])
			pending = append(pending, pushSite{op: op, operandOffset: offset + 1, literalIndex: idx})
		case OpInvokeStk1:
			argc := int(img.Code[offset+1])
			if argc == 4 && len(pending) >= 4 {
				last4 := pending[len(pending)-4:]
				if site, ok := tryBuildProcSite(img, last4, offset, cmdIndexForOffset(offset)); ok {
					sites = append(sites, site)
				}
			}
			pending = pending[:0]
		case OpInvokeStk4:
			pending = pending[:0]
		default:
			if !op.IsShortPush() && op != OpPush4 {
				pending = pending[:0]
			}
		}
	})

	return sites
}

// tryBuildProcSite validates that four candidate push instructions match
// the `proc` call shape and, if so, builds the corresponding ProcSite.
func tryBuildProcSite(img *Image, pushes []pushSite, invokeOffset, cmdIndex int) (ProcSite, bool) {
	nameLit := img.Literals[pushes[0].literalIndex]
	if nameLit.Kind != LitString || nameLit.Str != "proc" {
		return ProcSite{}, false
	}
	bodyLit := img.Literals[pushes[3].literalIndex]
	if bodyLit.Kind != LitProcBody {
		return ProcSite{}, false
	}

	site := ProcSite{
		NameIndex:     pushes[0].literalIndex,
		ProcNameIndex: pushes[1].literalIndex,
		ArgsIndex:     pushes[2].literalIndex,
		BodyOrigIndex: pushes[3].literalIndex,
		BodyNewIndex:  pushes[3].literalIndex,
		InvokeOffset:  invokeOffset,
		CommandIndex:  cmdIndex,
	}
	copy(site.pushes[:], pushes)
	return site, true
}

// decodeUint32 reads a 4-byte big-endian literal index, matching the
// encoding rewrite.go's encodeUint32BE writes for push4 operands.
func decodeUint32(b []byte) int {
	return int(b[0])<<24 | int(b[1])<<16 | int(b[2])<<8 | int(b[3])
}
