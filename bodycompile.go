// bodycompile.go - body compiler driver
package tclbc

import "fmt"

// dummyCommandCounter backs the "$compiler$dummy%d" naming scheme used
// while compiling a proc body in isolation: a body whose site's proc-name
// literal is not a plain string is reported in error messages under such
// a placeholder name instead. Process-global and monotonic, since multiple
// CompilerContexts may compile bodies over the process lifetime and must
// never collide on the placeholder name.
var dummyCommandCounter int

// nextDummyCommandName returns the next placeholder command name.
func nextDummyCommandName() string {
	name := fmt.Sprintf("$compiler$dummy%d", dummyCommandCounter)
	dummyCommandCounter++
	return name
}

// compileBodies recompiles every proc body named by sites, in place,
// using frontend. Each site's literal at BodyNewIndex (possibly a fresh
// copy from unshareBodies) is replaced with a LitProcBody literal whose
// Bytecode field holds the recompiled Image.
func compileBodies(img *Image, sites []ProcSite, frontend Frontend) error {
	for _, site := range sites {
		lit := img.Literals[site.BodyNewIndex]
		if lit.Kind != LitProcBody {
			return formatError("bodycompile: literal %d is not a proc body", site.BodyNewIndex)
		}

		descriptor := lit.Proc
		if descriptor == nil {
			descriptor = &ProcDescriptor{}
		}

		procName := procNameForSite(img, site)
		if procName == "" {
			procName = nextDummyCommandName()
		}

		bodyImage, err := frontend.CompileProcBody(lit.Str, descriptor)
		if err != nil {
			return procCompileError(procName, 0, err)
		}

		lit.Bytecode = bodyImage
		img.Literals[site.BodyNewIndex] = lit
	}
	return nil
}

// procNameForSite recovers the proc's source-level name for error
// annotation, returning "" if the literal isn't a plain string (it
// always is, for sites built by codegen.go, but a caller could
// hand-construct an Image that violates that) so the caller can fall
// back to a placeholder name.
func procNameForSite(img *Image, site ProcSite) string {
	lit := img.Literals[site.ProcNameIndex]
	if lit.Kind == LitString {
		return lit.Str
	}
	return ""
}
