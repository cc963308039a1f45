package tclbc

import "testing"

func compileScriptSource(t *testing.T, src string) *Image {
	t.Helper()
	script, err := NewParser(src).ParseScript()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	img, err := newCodeGen(nil).compileScript(script)
	if err != nil {
		t.Fatalf("codegen error: %v", err)
	}
	return img
}

func TestCodegenSetEmitsStoreAndPop(t *testing.T) {
	img := compileScriptSource(t, "set x 5")

	var ops []Op
	walkInstructions(img.Code, func(offset int, op Op) { ops = append(ops, op) })

	want := []Op{OpPush1, OpStoreScalar1, OpPop, OpDone}
	if len(ops) != len(want) {
		t.Fatalf("got ops %v, want %v", ops, want)
	}
	for i := range ops {
		if ops[i] != want[i] {
			t.Errorf("op %d = %s, want %s", i, ops[i], want[i])
		}
	}
}

func TestCodegenProcEmitsRecognizableCallSite(t *testing.T) {
	img := compileScriptSource(t, `proc greet {name} {return $name}`)

	sites := locateProcSites(img)
	if len(sites) != 1 {
		t.Fatalf("got %d proc sites, want 1", len(sites))
	}
	site := sites[0]

	if got := img.Literals[site.ProcNameIndex].Str; got != "greet" {
		t.Errorf("proc name literal = %q, want greet", got)
	}
	bodyLit := img.Literals[site.BodyOrigIndex]
	if bodyLit.Kind != LitProcBody {
		t.Fatalf("body literal kind = %v, want LitProcBody", bodyLit.Kind)
	}
	if bodyLit.Proc == nil || bodyLit.Proc.NumArgs != 1 {
		t.Fatalf("body descriptor = %+v, want NumArgs 1", bodyLit.Proc)
	}
}

func TestCodegenIfProducesBalancedJumps(t *testing.T) {
	img := compileScriptSource(t, `if $a {set x 1} else {set x 2}`)

	var jumps int
	walkInstructions(img.Code, func(offset int, op Op) {
		if op.IsShortJump() {
			jumps++
		}
	})
	// One jump_false to skip the then-branch, one jump to skip the else
	// branch once the then-branch has run.
	if jumps != 2 {
		t.Errorf("got %d short jumps, want 2", jumps)
	}
}

func TestCodegenWhileProducesLoopExceptionRange(t *testing.T) {
	img := compileScriptSource(t, `while $running {set x 1}`)

	if len(img.ExceptionRanges) != 1 {
		t.Fatalf("got %d exception ranges, want 1", len(img.ExceptionRanges))
	}
	r := img.ExceptionRanges[0]
	if r.Type != LoopExceptionRange {
		t.Errorf("range type = %v, want LoopExceptionRange", r.Type)
	}
	if r.BreakOffset <= r.CodeOffset {
		t.Errorf("BreakOffset %d should be past CodeOffset %d", r.BreakOffset, r.CodeOffset)
	}
}

func TestCodegenForeachProducesNewForeachAuxData(t *testing.T) {
	img := compileScriptSource(t, `foreach item $items {set x $item}`)

	var found bool
	for _, a := range img.AuxData {
		if a.Kind == AuxNewForeach {
			found = true
			if a.ForeachNumLists != 1 {
				t.Errorf("ForeachNumLists = %d, want 1", a.ForeachNumLists)
			}
			if len(a.ForeachLists) != 1 || len(a.ForeachLists[0].VarIndexes) != 1 {
				t.Errorf("ForeachLists = %+v, want one list with one var index", a.ForeachLists)
			}
		}
	}
	if !found {
		t.Fatal("expected an AuxNewForeach record")
	}
}

func TestCodegenListAndReturn(t *testing.T) {
	img := compileScriptSource(t, "proc f {} {return [list 1 2 3]}")
	sites := locateProcSites(img)
	if len(sites) != 1 {
		t.Fatalf("got %d proc sites, want 1", len(sites))
	}

	bodyLit := img.Literals[sites[0].BodyOrigIndex]
	body, err := NewTclFrontend().CompileProcBody(bodyLit.Str, bodyLit.Proc)
	if err != nil {
		t.Fatalf("body compile: %v", err)
	}

	// return [list 1 2 3]: push the command-substitution image, done for
	// the return, done closing the body.
	var ops []Op
	walkInstructions(body.Code, func(offset int, op Op) { ops = append(ops, op) })
	want := []Op{OpPush1, OpDone, OpDone}
	if len(ops) != len(want) {
		t.Fatalf("got body ops %v, want %v", ops, want)
	}
	for i := range ops {
		if ops[i] != want[i] {
			t.Errorf("body op %d = %s, want %s", i, ops[i], want[i])
		}
	}

	sub := body.Literals[int(body.Code[1])]
	if sub.Kind != LitBytecode || sub.Bytecode == nil {
		t.Fatalf("returned value literal = %+v, want a LitBytecode with an Image", sub)
	}
	var hasList bool
	walkInstructions(sub.Bytecode.Code, func(offset int, op Op) {
		if op == OpListStk {
			hasList = true
		}
	})
	if !hasList {
		t.Error("expected a list_stk instruction in the substituted command")
	}
}
