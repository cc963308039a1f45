package tclbc

import "testing"

func TestParseSetCommand(t *testing.T) {
	script, err := NewParser(`set x 5`).ParseScript()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if len(script.Commands) != 1 {
		t.Fatalf("got %d commands, want 1", len(script.Commands))
	}
	set, ok := script.Commands[0].(*SetCommand)
	if !ok {
		t.Fatalf("got %T, want *SetCommand", script.Commands[0])
	}
	if set.VarName != "x" {
		t.Errorf("VarName = %q, want %q", set.VarName, "x")
	}
	lit, ok := set.Value.(*LiteralWord)
	if !ok || lit.Value != "5" {
		t.Errorf("Value = %#v, want LiteralWord{5}", set.Value)
	}
}

func TestParseProcCommand(t *testing.T) {
	script, err := NewParser(`proc greet {name {greeting hello}} {return $greeting}`).ParseScript()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	proc, ok := script.Commands[0].(*ProcCommand)
	if !ok {
		t.Fatalf("got %T, want *ProcCommand", script.Commands[0])
	}
	if proc.Name != "greet" {
		t.Errorf("Name = %q, want greet", proc.Name)
	}
	if len(proc.Args) != 2 {
		t.Fatalf("got %d args, want 2", len(proc.Args))
	}
	if proc.Args[0].Name != "name" || proc.Args[0].Default != nil {
		t.Errorf("Args[0] = %+v, want {name, nil}", proc.Args[0])
	}
	if proc.Args[1].Name != "greeting" {
		t.Errorf("Args[1].Name = %q, want greeting", proc.Args[1].Name)
	}
	if proc.Body != "return $greeting" {
		t.Errorf("Body = %q", proc.Body)
	}
}

func TestParseIfElseifElse(t *testing.T) {
	src := `if $a {set x 1} elseif $b {set x 2} else {set x 3}`
	script, err := NewParser(src).ParseScript()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	ifCmd, ok := script.Commands[0].(*IfCommand)
	if !ok {
		t.Fatalf("got %T, want *IfCommand", script.Commands[0])
	}
	if len(ifCmd.Branches) != 2 {
		t.Fatalf("got %d branches, want 2", len(ifCmd.Branches))
	}
	if ifCmd.Else == nil {
		t.Fatal("expected an else clause")
	}
}

func TestParseIfSuggestsElseifOnTypo(t *testing.T) {
	src := `if $a {set x 1} elsif $b {set x 2}`
	_, err := NewParser(src).ParseScript()
	if err == nil {
		t.Fatal("expected a parse error for the misspelled elsif")
	}
	if got := err.Error(); got == "" {
		t.Fatal("expected a non-empty error message")
	}
	const want = `did you mean "elseif"?`
	if !contains(err.Error(), want) {
		t.Errorf("error %q does not suggest %q", err.Error(), want)
	}
}

func TestParseWhile(t *testing.T) {
	script, err := NewParser(`while $running {set x 1}`).ParseScript()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	w, ok := script.Commands[0].(*WhileCommand)
	if !ok {
		t.Fatalf("got %T, want *WhileCommand", script.Commands[0])
	}
	if len(w.Body) != 1 {
		t.Errorf("got %d body commands, want 1", len(w.Body))
	}
}

func TestParseForeach(t *testing.T) {
	script, err := NewParser(`foreach item $items {set x $item}`).ParseScript()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	f, ok := script.Commands[0].(*ForeachCommand)
	if !ok {
		t.Fatalf("got %T, want *ForeachCommand", script.Commands[0])
	}
	if f.VarName != "item" {
		t.Errorf("VarName = %q, want item", f.VarName)
	}
}

func TestParseGenericCommandFallback(t *testing.T) {
	script, err := NewParser(`puts "hello world"`).ParseScript()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	cmd, ok := script.Commands[0].(*GenericCommand)
	if !ok {
		t.Fatalf("got %T, want *GenericCommand", script.Commands[0])
	}
	if len(cmd.Words) != 2 {
		t.Errorf("got %d words, want 2", len(cmd.Words))
	}
}

func TestParseCommandSubstitution(t *testing.T) {
	script, err := NewParser(`set x [expr 1]`).ParseScript()
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	set := script.Commands[0].(*SetCommand)
	if _, ok := set.Value.(*CommandSubWord); !ok {
		t.Fatalf("got %T, want *CommandSubWord", set.Value)
	}
}

func TestParseProcRejectsArrayElementParam(t *testing.T) {
	_, err := NewParser(`proc p {x(0)} {return $x}`).ParseScript()
	if err == nil {
		t.Fatal("expected a compile error for an array-element formal parameter")
	}
	if _, ok := err.(*CompileError); !ok {
		t.Fatalf("got %T, want *CompileError", err)
	}
	if !contains(err.Error(), "p") || !contains(err.Error(), "x(0)") {
		t.Errorf("error %q does not name both the proc and the offending parameter", err.Error())
	}
}

func TestParseProcRejectsArrayElementDefaultParam(t *testing.T) {
	_, err := NewParser(`proc p {{x(0) 1}} {return $x}`).ParseScript()
	if err == nil {
		t.Fatal("expected a compile error for an array-element formal parameter with a default")
	}
	if !contains(err.Error(), "x(0)") {
		t.Errorf("error %q does not name the offending parameter", err.Error())
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
