// compiler_state.go - central per-interpreter postprocessing state
package tclbc

import (
	"fmt"
	"os"
)

// CompilerContext holds everything one postprocess run needs: the image
// being rewritten, the options controlling the run, the literal-reference
// table built by the reference analyzer, and the pipeline tracking which
// stage is active. Each host interpreter gets its own CompilerContext.
// The image's literal table is snapshotted into savedLiterals when the
// context is created and put back by Restore.
type CompilerContext struct {
	image   *Image
	options CompileOptions

	refs *objRefTable

	pipeline *CompilationPipeline

	// savedLiterals is a copy of the image's literal table, snapshotted on
	// entry to PostProcess and restored only when body recompilation fails.
	savedLiterals []Literal

	phase PostProcessStage
}

// CompileOptions controls one postprocessing run.
type CompileOptions struct {
	OutputPath     string
	Verbose        bool
	EmitSourceMaps bool
	LoaderVersion  string
}

// NewCompilerContext creates a context ready to drive img through the
// postprocessing pipeline.
func NewCompilerContext(img *Image, options CompileOptions) *CompilerContext {
	cc := &CompilerContext{
		image:         img,
		options:       options,
		refs:          newObjRefTable(len(img.Literals)),
		pipeline:      NewCompilationPipeline(),
		savedLiterals: append([]Literal(nil), img.Literals...),
		phase:         StageInit,
	}
	return cc
}

// TransitionPhase advances the context's pipeline to newPhase.
func (cc *CompilerContext) TransitionPhase(newPhase PostProcessStage) {
	cc.pipeline.AdvanceTo(newPhase)
	cc.phase = newPhase

	if Verbose {
		fmt.Fprintf(os.Stderr, "=== Phase Transition: %v ===\n", newPhase)
	}
}

// CurrentPhase returns the stage the context's pipeline is at.
func (cc *CompilerContext) CurrentPhase() PostProcessStage {
	return cc.phase
}

// Restore resets the image's literal table to its pre-postprocess state.
// Called when body recompilation fails partway through, so the caller
// never sees a half-rewritten literal table.
func (cc *CompilerContext) Restore() {
	cc.image.Literals = cc.savedLiterals
}

// Summary returns a short diagnostic description of the context's state.
func (cc *CompilerContext) Summary() string {
	return fmt.Sprintf(
		"CompilerContext:\n"+
			"  Phase: %v\n"+
			"  Literals: %d\n"+
			"  Instructions: %d bytes\n",
		cc.phase,
		len(cc.image.Literals),
		len(cc.image.Code),
	)
}
