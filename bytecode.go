// Package tclbc implements a post-compile bytecode writer: it takes the
// in-memory output of a script compiler frontend, rewrites every top-level
// proc body into a pre-compiled body object, and serializes the result into
// a self-describing, Tcl-safe text object file that a companion loader
// package can read back and evaluate.
package tclbc

import "fmt"

// LiteralKind tags the dynamic type of a Literal.
type LiteralKind int

const (
	LitInt LiteralKind = iota
	LitDouble
	LitBool
	LitString
	LitOpaque // arbitrary bytes with no recognized primitive type
	LitProcBody
	LitBytecode // a nested, fully-compiled Image (a command substitution)
)

// Literal is one entry in an Image's literal table: an immutable value
// usable as a push-instruction operand.
type Literal struct {
	Kind LiteralKind

	Int    int64
	Double float64
	Bool   bool
	Str    string // LitString and LitOpaque's string form
	Opaque []byte // LitOpaque's raw bytes, when not string-shaped

	// Proc is non-nil only for Kind == LitProcBody, populated by
	// codegen.go when it emits the proc call site; bodycompile.go compiles
	// the body against it.
	Proc *ProcDescriptor

	// Bytecode is non-nil only for Kind == LitBytecode or LitProcBody.
	Bytecode *Image
}

// ProcDescriptor is attached to a procedure-body literal when the proc
// call site is compiled, and supplies the argument frame slots when the
// body compiler later compiles the body.
type ProcDescriptor struct {
	NumArgs int
	Locals  []Local
}

// LocalFlag marks what role a Local plays in a compiled procedure.
type LocalFlag int

const (
	LocalArgument LocalFlag = 1 << iota
	LocalTemporary
)

// Local is one formal parameter or temporary slot of a compiled procedure.
type Local struct {
	Name        string
	FrameIndex  int
	Default     *Literal // nil if the argument has no default value
	Flags       LocalFlag
}

// ExceptionRangeType distinguishes loop ranges (break/continue targets)
// from catch ranges (a single catch target).
type ExceptionRangeType int

const (
	LoopExceptionRange ExceptionRangeType = iota
	CatchExceptionRange
)

// ExceptionRange is one entry of an Image's exception-range table.
type ExceptionRange struct {
	Type         ExceptionRangeType
	NestingLevel int
	CodeOffset   int
	CodeLength   int

	// Catch-range fields (Type == CatchExceptionRange).
	CatchOffset int

	// Loop-range fields (Type == LoopExceptionRange).
	BreakOffset    int
	ContinueOffset int
}

// AuxDataKind tags the payload shape of an AuxData record.
type AuxDataKind int

const (
	AuxJumpTable AuxDataKind = iota
	AuxDictUpdate
	AuxNewForeach
)

// JumpTableEntry is one case of a jump-table AuxData record: the string
// key is matched to select TargetOffset, a code offset relative to the
// jump instruction that owns the table.
type JumpTableEntry struct {
	Key          string
	TargetOffset int
}

// ForeachVarList is one value-list clause of a new-foreach AuxData record.
type ForeachVarList struct {
	VarIndexes []int
}

// AuxData is one entry of an Image's auxiliary-data table: out-of-line
// instruction metadata too irregular to fit in fixed operand bytes.
type AuxData struct {
	Kind AuxDataKind

	JumpTable []JumpTableEntry // AuxJumpTable

	DictUpdateVarIndexes []int // AuxDictUpdate

	ForeachNumLists int              // AuxNewForeach
	ForeachLoopTemp int              // AuxNewForeach
	ForeachLists    []ForeachVarList // AuxNewForeach
}

// CmdLocation records, for one top-level or nested command, where its
// first instruction begins and how many bytes its instruction group spans.
type CmdLocation struct {
	CodeOffset int
	CodeLength int
	SrcOffset  int // -1 when source maps are not carried (the default)
	SrcLength  int // -1 when source maps are not carried (the default)
}

// Image is a bytecode image: the post-compile in-memory representation of
// one script or procedure body.
type Image struct {
	Code []byte

	Literals        []Literal
	ExceptionRanges []ExceptionRange
	AuxData         []AuxData

	// CmdLocations[i].CodeOffset is strictly increasing in i.
	CmdLocations []CmdLocation

	NumCommands    int
	MaxExceptDepth int
	MaxStackDepth  int
}

// NewImage returns an empty Image ready to be populated by a Frontend.
func NewImage() *Image {
	return &Image{}
}

// AddLiteral appends lit and returns its new index.
func (img *Image) AddLiteral(lit Literal) int {
	img.Literals = append(img.Literals, lit)
	return len(img.Literals) - 1
}

// instructionAt decodes the opcode at byte offset off. It panics on an
// out-of-range offset; callers are expected to only walk offsets produced
// by instruction-boundary iteration (see walkInstructions).
func (img *Image) instructionAt(off int) Op {
	if off < 0 || off >= len(img.Code) {
		panic(fmt.Sprintf("tclbc: instruction offset %d out of range [0,%d)", off, len(img.Code)))
	}
	return Op(img.Code[off])
}

// walkInstructions calls fn with the offset of every instruction boundary
// in code, in order. fn must not mutate code's length.
func walkInstructions(code []byte, fn func(offset int, op Op)) {
	for pc := 0; pc < len(code); {
		op := Op(code[pc])
		fn(pc, op)
		pc += op.Size()
	}
}
