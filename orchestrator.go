// orchestrator.go - top-level PostProcess entry point
package tclbc

import "fmt"

// PostProcess drives img through the fixed pipeline: locate every
// `proc` call site, analyze how the literal
// table is referenced, unshare any proc body that turns out to be
// shared, recompile each body through frontend, rewrite the call sites
// to invoke the loader instead of `proc`, and return the ready-to-emit
// image. Call Compile, not PostProcess, for the full script-to-object-file
// path; PostProcess is exported separately so a caller that already has a
// compiled Image (its own frontend run) can postprocess it directly.
func PostProcess(img *Image, frontend Frontend, options CompileOptions) (*Image, error) {
	if img == nil {
		return nil, badArgsError("PostProcess: nil image")
	}
	if frontend == nil {
		return nil, badArgsError("PostProcess: nil frontend")
	}

	cc := NewCompilerContext(img, options)

	cc.TransitionPhase(StageLocateProcSites)
	sites := locateProcSites(img)
	cc.pipeline.Checkpoint(fmt.Sprintf("located %d proc site(s)", len(sites)))

	cc.TransitionPhase(StageAnalyzeReferences)
	cc.refs = analyzeLiteralReferences(img, sites)

	cc.TransitionPhase(StageUnshareBodies)
	unshareBodies(img, cc.refs, sites)

	cc.TransitionPhase(StageCompileBodies)
	if err := compileBodies(img, sites, frontend); err != nil {
		// Leave the image exactly as the caller handed it rather than
		// exposing a half-rewritten literal table: on this failure path
		// the interpreter's own interning table must come back unchanged.
		cc.Restore()
		return nil, err
	}

	cc.TransitionPhase(StageRewriteCallSites)
	rewriteCallSites(img, sites)

	cc.TransitionPhase(StageEmit)
	cc.TransitionPhase(StageComplete)

	return img, nil
}

// Compile runs source through frontend to produce a top-level script
// Image, then postprocesses it exactly as PostProcess does. This is the
// single entry point cmd/tclbc drives for the `build` subcommand.
func Compile(source string, frontend Frontend, options CompileOptions) (*Image, error) {
	if frontend == nil {
		return nil, badArgsError("Compile: nil frontend")
	}

	img, err := frontend.CompileScript(source)
	if err != nil {
		return nil, fileCompileError(options.OutputPath, 0, err)
	}

	return PostProcess(img, frontend, options)
}
