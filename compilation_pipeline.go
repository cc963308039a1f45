// compilation_pipeline.go - explicit postprocessing stages with validation
package tclbc

import (
	"fmt"
	"os"
)

// PostProcessStage is one step of the fixed postprocessing pipeline that
// orchestrator.go drives: locate proc call sites, analyze literal
// references, unshare bodies, recompile bodies, rewrite call sites.
// StageEmit marks the image as ready for WriteObjectFile; PostProcess
// passes through it without emitting anything itself.
type PostProcessStage int

const (
	StageInit PostProcessStage = iota
	StageLocateProcSites
	StageAnalyzeReferences
	StageUnshareBodies
	StageCompileBodies
	StageRewriteCallSites
	StageEmit
	StageComplete
)

func (s PostProcessStage) String() string {
	switch s {
	case StageInit:
		return "Initialization"
	case StageLocateProcSites:
		return "Locate Proc Call Sites"
	case StageAnalyzeReferences:
		return "Analyze Literal References"
	case StageUnshareBodies:
		return "Unshare Proc Bodies"
	case StageCompileBodies:
		return "Compile Proc Bodies"
	case StageRewriteCallSites:
		return "Rewrite Call Sites"
	case StageEmit:
		return "Emit Object File"
	case StageComplete:
		return "Postprocess Complete"
	default:
		return fmt.Sprintf("Unknown Stage %d", s)
	}
}

// CompilationPipeline tracks the current stage of one PostProcess context
// and validates that stages only ever advance in the fixed order above.
// One pipeline exists per CompilerContext.
type CompilationPipeline struct {
	currentStage PostProcessStage
	stages       []PostProcessStage // history, for diagnostics
	enabled      bool               // disable validation once fuzz-tested
}

// NewCompilationPipeline returns a pipeline positioned at StageInit.
func NewCompilationPipeline() *CompilationPipeline {
	return &CompilationPipeline{
		currentStage: StageInit,
		stages:       []PostProcessStage{StageInit},
		enabled:      true,
	}
}

// AdvanceTo moves to stage, panicking if the transition skips or reorders
// the fixed pipeline. An invalid transition here means an orchestrator bug,
// not a malformed input, so it panics rather than returning an error.
func (cp *CompilationPipeline) AdvanceTo(stage PostProcessStage) {
	if !cp.enabled {
		cp.currentStage = stage
		return
	}

	validTransition := false
	switch cp.currentStage {
	case StageInit:
		validTransition = stage == StageLocateProcSites
	case StageLocateProcSites:
		validTransition = stage == StageAnalyzeReferences
	case StageAnalyzeReferences:
		validTransition = stage == StageUnshareBodies
	case StageUnshareBodies:
		validTransition = stage == StageCompileBodies
	case StageCompileBodies:
		validTransition = stage == StageRewriteCallSites
	case StageRewriteCallSites:
		validTransition = stage == StageEmit
	case StageEmit:
		validTransition = stage == StageComplete
	case StageComplete:
		validTransition = false
	}

	if !validTransition {
		fmt.Fprintf(os.Stderr, "ERROR: invalid postprocess stage transition: %s -> %s\n", cp.currentStage, stage)
		fmt.Fprintf(os.Stderr, "stage history:\n")
		for i, s := range cp.stages {
			fmt.Fprintf(os.Stderr, "  %d. %s\n", i+1, s)
		}
		panic(fmt.Sprintf("tclbc: invalid postprocess stage transition: %s -> %s", cp.currentStage, stage))
	}

	cp.currentStage = stage
	cp.stages = append(cp.stages, stage)

	if Verbose {
		fmt.Fprintf(os.Stderr, "PIPELINE: advanced to stage: %s\n", stage)
	}
}

// CurrentStage returns the stage the pipeline is currently positioned at.
func (cp *CompilationPipeline) CurrentStage() PostProcessStage {
	return cp.currentStage
}

// ValidateStage panics if the pipeline is not at expected, naming operation
// in the panic message.
func (cp *CompilationPipeline) ValidateStage(expected PostProcessStage, operation string) {
	if !cp.enabled {
		return
	}
	if cp.currentStage != expected {
		fmt.Fprintf(os.Stderr, "ERROR: attempted %q at wrong stage\n", operation)
		fmt.Fprintf(os.Stderr, "  expected: %s\n", expected)
		fmt.Fprintf(os.Stderr, "  actual:   %s\n", cp.currentStage)
		panic(fmt.Sprintf("tclbc: invalid operation %q at stage %s", operation, cp.currentStage))
	}
}

// Checkpoint logs a named diagnostic checkpoint when Verbose is set.
func (cp *CompilationPipeline) Checkpoint(name string) {
	if Verbose {
		fmt.Fprintf(os.Stderr, "PIPELINE CHECKPOINT: %s at stage %s\n", name, cp.currentStage)
	}
}
