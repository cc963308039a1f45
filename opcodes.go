package tclbc

// Op is a single-byte bytecode instruction opcode.
//
// Push and jump instructions come in paired short/long forms: the long
// form is always the short form's opcode value plus one. The rewriter
// (rewrite.go) converts push1->push4 and jump*1->jump*4 through Widen,
// which reads each short form's sibling from instTable.
type Op byte

const (
	OpPush1 Op = iota // push1 idx1: push literals[idx1]
	OpPush4            // push4 idx4: push literals[idx4]

	OpJump1      // jump1 off1: unconditional relative jump
	OpJump4      // jump4 off4
	OpJumpTrue1  // jump_true1 off1: pop, jump if true
	OpJumpTrue4  // jump_true4 off4
	OpJumpFalse1 // jump_false1 off1: pop, jump if false
	OpJumpFalse4 // jump_false4 off4

	OpInvokeStk1 // invoke_stk1 argc1: invoke top argc objects as a command
	OpInvokeStk4 // invoke_stk4 argc4

	OpPop      // discard top of stack
	OpDup      // duplicate top of stack
	OpConcat1  // concat1 n1: concatenate top n objects into one string
	OpListStk  // list_stk n1: build a list from top n objects
	OpLoadScalar1
	OpLoadScalar4
	OpStoreScalar1
	OpStoreScalar4
	OpIncrScalar1

	OpStartCmd // inst_start_cmd numCmds4 codeLen4: prologue marking a command boundary
	OpDone     // end of a top-level script/body

	OpBeginCatch1 // begin_catch1 off1: push a catch exception range marker
	OpEndCatch    // end_catch: pop a catch exception range marker

	OpAdd
	OpSub
	OpMul
	OpEq
	OpLt
	OpGt
	OpNot

	numOps
)

// instDesc describes the fixed-size operand layout of an opcode.
//
// numBytes is the total instruction length (opcode byte included).
// wide, when non-zero, names the instruction's long-operand sibling; the
// instruction itself is the short-operand member of the pair.
type instDesc struct {
	name     string
	numBytes int
	wide     Op // 0 means "no sibling / already wide / no operand"
}

// instTable is indexed by Op. It is immutable and shared across every
// concurrent compile: nothing here is ever mutated after
// package init.
var instTable = [numOps]instDesc{
	OpPush1:       {"push1", 2, OpPush4},
	OpPush4:       {"push4", 5, 0},
	OpJump1:       {"jump1", 2, OpJump4},
	OpJump4:       {"jump4", 5, 0},
	OpJumpTrue1:   {"jump_true1", 2, OpJumpTrue4},
	OpJumpTrue4:   {"jump_true4", 5, 0},
	OpJumpFalse1:  {"jump_false1", 2, OpJumpFalse4},
	OpJumpFalse4:  {"jump_false4", 5, 0},
	OpInvokeStk1:  {"invoke_stk1", 2, OpInvokeStk4},
	OpInvokeStk4:  {"invoke_stk4", 5, 0},
	OpPop:         {"pop", 1, 0},
	OpDup:         {"dup", 1, 0},
	OpConcat1:     {"concat1", 2, 0},
	OpListStk:     {"list_stk", 2, 0},
	OpLoadScalar1: {"load_scalar1", 2, OpLoadScalar4},
	OpLoadScalar4: {"load_scalar4", 5, 0},
	OpStoreScalar1: {"store_scalar1", 2, OpStoreScalar4},
	OpStoreScalar4: {"store_scalar4", 5, 0},
	OpIncrScalar1: {"incr_scalar1", 2, 0},
	OpStartCmd:    {"inst_start_cmd", 9, 0},
	OpDone:        {"done", 1, 0},
	OpBeginCatch1: {"begin_catch1", 2, 0},
	OpEndCatch:    {"end_catch", 1, 0},
	OpAdd:         {"add", 1, 0},
	OpSub:         {"sub", 1, 0},
	OpMul:         {"mul", 1, 0},
	OpEq:          {"eq", 1, 0},
	OpLt:          {"lt", 1, 0},
	OpGt:          {"gt", 1, 0},
	OpNot:         {"not", 1, 0},
}

// Size returns the total instruction width, in bytes, opcode included.
func (o Op) Size() int { return instTable[o].numBytes }

// Name returns the mnemonic used by disassembly and error messages.
func (o Op) Name() string {
	if int(o) < len(instTable) && instTable[o].name != "" {
		return instTable[o].name
	}
	return "unknown"
}

func (o Op) String() string { return o.Name() }

// IsShortPush reports whether o is the one-byte-operand push form.
func (o Op) IsShortPush() bool { return o == OpPush1 }

// IsShortJump reports whether o is one of the one-byte-operand jump forms
// (unconditional, jump-if-true, jump-if-false).
func (o Op) IsShortJump() bool {
	return o == OpJump1 || o == OpJumpTrue1 || o == OpJumpFalse1
}

// Widen returns the long-operand sibling of a short-operand instruction.
// It panics if o has no sibling; callers only call it after IsShortPush
// or IsShortJump confirms one exists.
func (o Op) Widen() Op {
	w := instTable[o].wide
	if w == 0 {
		panic("tclbc: Widen called on opcode with no wide form: " + o.Name())
	}
	return w
}
