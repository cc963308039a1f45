// frontend.go - the pluggable compiler-frontend boundary
package tclbc

// Frontend is the interface a host scripting language's compiler presents
// to the writer. The host interpreter and its own bytecode compiler are
// treated as an external collaborator whose interface the writer depends
// on; Frontend is that interface. tclbc ships one concrete implementation
// (TclFrontend, below) built from lexer.go/parser.go/codegen.go, but any
// frontend satisfying this interface can drive Compile.
type Frontend interface {
	// CompileScript compiles top-level script source into an Image.
	CompileScript(source string) (*Image, error)

	// CompileProcBody compiles one proc's body source into an Image,
	// using descriptor to resolve argument and local-variable frame
	// indexes.
	CompileProcBody(source string, descriptor *ProcDescriptor) (*Image, error)
}

// TclFrontend is the bundled Tcl-subset frontend: lexer.go tokenizes,
// parser.go builds the ast.go node tree, codegen.go lowers it to an
// Image. It supports enough of Tcl (set/proc/if/while/foreach/list/
// return, command and variable substitution) to exercise every writer
// invariant against real compiled output.
type TclFrontend struct{}

// NewTclFrontend returns the bundled frontend.
func NewTclFrontend() *TclFrontend { return &TclFrontend{} }

func (f *TclFrontend) CompileScript(source string) (*Image, error) {
	script, err := NewParser(source).ParseScript()
	if err != nil {
		return nil, fileCompileError("<script>", 0, err)
	}
	gen := newCodeGen(nil)
	return gen.compileScript(script)
}

func (f *TclFrontend) CompileProcBody(source string, descriptor *ProcDescriptor) (*Image, error) {
	script, err := NewParser(source).ParseScript()
	if err != nil {
		return nil, procCompileError("<body>", 0, err)
	}
	gen := newCodeGen(descriptor)
	return gen.compileScript(script)
}
