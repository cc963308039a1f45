// parser.go - command/word parser feeding codegen.go
package tclbc

import (
	"fmt"
	"strings"
)

// Parser turns a token stream from a Lexer into a Script. It recognizes
// the small set of commands the frontend compiles specially
// (set/proc/if/while/foreach/list/return); everything else becomes a
// GenericCommand.
type Parser struct {
	lex            *Lexer
	atCommandStart bool
}

// NewParser returns a Parser over src.
func NewParser(src string) *Parser {
	return &Parser{lex: NewLexer(src), atCommandStart: true}
}

// ParseScript parses an entire script (used both for top-level compiles
// and, lazily, for a proc's body once the body compiler recompiles it).
func (p *Parser) ParseScript() (*Script, error) {
	script := &Script{}
	for {
		cmd, ok, err := p.parseCommand()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if cmd != nil {
			script.Commands = append(script.Commands, cmd)
		}
	}
	return script, nil
}

// parseCommand reads one command, returning ok=false at end of input.
func (p *Parser) parseCommand() (Command, bool, error) {
	words, err := p.readWords()
	if err != nil {
		return nil, false, err
	}
	if words == nil {
		return nil, false, nil
	}
	if len(words) == 0 {
		return nil, true, nil // blank command (just a separator)
	}

	name, isLiteral := literalText(words[0])
	if isLiteral {
		switch name {
		case "set":
			return p.buildSet(words)
		case "proc":
			return p.buildProc(words)
		case "if":
			return p.buildIf(words)
		case "while":
			return p.buildWhile(words)
		case "foreach":
			return p.buildForeach(words)
		case "list":
			return &ListCommand{Elements: words[1:]}, true, nil
		case "return":
			if len(words) > 1 {
				return &ReturnCommand{Value: words[1]}, true, nil
			}
			return &ReturnCommand{}, true, nil
		}
	}
	return &GenericCommand{Words: words}, true, nil
}

// readWords reads every word of one command, stopping at a command
// separator (newline/semicolon) or EOF. Returns nil, nil at true EOF with
// no words read.
func (p *Parser) readWords() ([]Word, error) {
	var words []Word
	first := true
	for {
		tok, err := p.lex.NextToken(first && p.atCommandStart)
		if err != nil {
			return nil, err
		}
		switch tok.Type {
		case TokEOF:
			p.atCommandStart = true
			if words == nil {
				return nil, nil
			}
			return words, nil
		case TokNewline, TokSemicolon:
			p.atCommandStart = true
			return words, nil
		case TokWord:
			first = false
			w, err := parseWord(tok.Text)
			if err != nil {
				return nil, err
			}
			words = append(words, w)
		}
	}
}

// parseWord interprets one raw word's delimiters: brace-quoted words are
// literal text with the braces stripped and no substitution; everything
// else is scanned for $var and [cmd] substitutions.
func parseWord(raw string) (Word, error) {
	if len(raw) >= 2 && raw[0] == '{' && raw[len(raw)-1] == '}' {
		return &BracedWord{Value: raw[1 : len(raw)-1]}, nil
	}
	text := raw
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		text = raw[1 : len(raw)-1]
	}
	return scanSubstitutions(text)
}

// scanSubstitutions splits text on $name and [cmd] boundaries. A word
// with exactly one substitution and no surrounding literal text becomes
// that substitution's own Word node directly; anything more complex (a
// literal prefix/suffix, or more than one substitution) still returns a
// LiteralWord of the original text, since this subset's codegen only
// needs to recognize whole-word substitutions to drive jump/loop test
// scenarios, not full string interpolation.
func scanSubstitutions(text string) (Word, error) {
	if strings.HasPrefix(text, "$") && !strings.ContainsAny(text[1:], " \t[]$") {
		return &VarSubWord{Name: text[1:]}, nil
	}
	if strings.HasPrefix(text, "[") && strings.HasSuffix(text, "]") {
		inner := text[1 : len(text)-1]
		sub := NewParser(inner)
		sub.atCommandStart = true
		body, err := sub.ParseScript()
		if err != nil {
			return nil, fmt.Errorf("tclbc: parsing command substitution: %w", err)
		}
		return &CommandSubWord{Body: body}, nil
	}
	return &LiteralWord{Value: text}, nil
}

// literalText reports whether w is a plain literal, and if so its text.
func literalText(w Word) (string, bool) {
	if lw, ok := w.(*LiteralWord); ok {
		return lw.Value, true
	}
	return "", false
}

// buildSet parses: set varName value
func (p *Parser) buildSet(words []Word) (Command, bool, error) {
	if len(words) != 3 {
		return nil, false, fmt.Errorf("tclbc: set expects 2 arguments, got %d", len(words)-1)
	}
	name, ok := literalText(words[1])
	if !ok {
		return nil, false, fmt.Errorf("tclbc: set requires a literal variable name")
	}
	return &SetCommand{VarName: name, Value: words[2]}, true, nil
}

// buildProc parses: proc name {arg1 {arg2 default2} ...} body
func (p *Parser) buildProc(words []Word) (Command, bool, error) {
	if len(words) != 4 {
		return nil, false, fmt.Errorf("tclbc: proc expects 3 arguments, got %d", len(words)-1)
	}
	name, ok := literalText(words[1])
	if !ok {
		return nil, false, fmt.Errorf("tclbc: proc requires a literal name")
	}
	argsWord, ok := words[2].(*BracedWord)
	if !ok {
		return nil, false, fmt.Errorf("tclbc: proc argument list must be brace-quoted")
	}
	bodyWord, ok := words[3].(*BracedWord)
	if !ok {
		return nil, false, fmt.Errorf("tclbc: proc body must be brace-quoted")
	}

	args, err := parseArgList(argsWord.Value)
	if err != nil {
		return nil, false, procCompileError(name, 0, err)
	}
	return &ProcCommand{Name: name, Args: args, Body: bodyWord.Value}, true, nil
}

// parseArgList parses a proc argument specification list, each element
// either a bare name or a {name default} pair.
func parseArgList(spec string) ([]ProcArg, error) {
	p := NewParser(spec)
	words, err := p.readWords()
	if err != nil {
		return nil, err
	}
	args := make([]ProcArg, 0, len(words))
	for _, w := range words {
		switch v := w.(type) {
		case *LiteralWord:
			if err := rejectArrayElementName(v.Value); err != nil {
				return nil, err
			}
			args = append(args, ProcArg{Name: v.Value})
		case *BracedWord:
			inner := NewParser(v.Value)
			innerWords, err := inner.readWords()
			if err != nil {
				return nil, err
			}
			if len(innerWords) != 2 {
				return nil, fmt.Errorf("tclbc: proc argument default must be {name default}")
			}
			nameWord, ok := literalText(innerWords[0])
			if !ok {
				return nil, fmt.Errorf("tclbc: proc argument name must be literal")
			}
			if err := rejectArrayElementName(nameWord); err != nil {
				return nil, err
			}
			args = append(args, ProcArg{Name: nameWord, Default: innerWords[1]})
		default:
			return nil, fmt.Errorf("tclbc: unsupported proc argument form")
		}
	}
	return args, nil
}

// rejectArrayElementName rejects a formal parameter name written with
// array-element syntax (e.g. "x(0)"): a proc's formal parameters name
// plain scalars or the frame, never one element of an array, so this
// shape is always a compile error rather than something codegen could
// give frame-slot semantics to.
func rejectArrayElementName(name string) error {
	if paren := strings.IndexByte(name, '('); paren >= 0 && strings.HasSuffix(name, ")") {
		return fmt.Errorf("tclbc: parameter %q uses array-element syntax, which is not allowed in a formal parameter list", name)
	}
	return nil
}

// buildIf parses: if cond body [elseif cond body ...] [else body]
func (p *Parser) buildIf(words []Word) (Command, bool, error) {
	if len(words) < 3 {
		return nil, false, fmt.Errorf("tclbc: if requires a condition and a body")
	}
	cmd := &IfCommand{}
	i := 1
	for i < len(words) {
		cond := words[i]
		i++
		if i >= len(words) {
			return nil, false, fmt.Errorf("tclbc: if clause missing body")
		}
		body, ok := words[i].(*BracedWord)
		if !ok {
			return nil, false, fmt.Errorf("tclbc: if body must be brace-quoted")
		}
		i++
		branchScript, err := parseBody(body.Value)
		if err != nil {
			return nil, false, err
		}
		cmd.Branches = append(cmd.Branches, IfBranch{Cond: cond, Body: branchScript.Commands})

		if i < len(words) {
			next, ok := literalText(words[i])
			if !ok {
				return nil, false, fmt.Errorf("tclbc: expected elseif/else")
			}
			switch next {
			case "elseif":
				i++
				continue
			case "else":
				i++
				if i >= len(words) {
					return nil, false, fmt.Errorf("tclbc: else missing body")
				}
				elseBody, ok := words[i].(*BracedWord)
				if !ok {
					return nil, false, fmt.Errorf("tclbc: else body must be brace-quoted")
				}
				elseScript, err := parseBody(elseBody.Value)
				if err != nil {
					return nil, false, err
				}
				cmd.Else = elseScript.Commands
				i++
				return cmd, true, nil
			default:
				if alt, ok := suggestCommand(next); ok {
					return nil, false, fmt.Errorf("tclbc: unexpected word %q in if (did you mean %q?)", next, alt)
				}
				return nil, false, fmt.Errorf("tclbc: unexpected word %q in if", next)
			}
		}
	}
	return cmd, true, nil
}

// buildWhile parses: while cond body
func (p *Parser) buildWhile(words []Word) (Command, bool, error) {
	if len(words) != 3 {
		return nil, false, fmt.Errorf("tclbc: while expects a condition and a body")
	}
	body, ok := words[2].(*BracedWord)
	if !ok {
		return nil, false, fmt.Errorf("tclbc: while body must be brace-quoted")
	}
	bodyScript, err := parseBody(body.Value)
	if err != nil {
		return nil, false, err
	}
	return &WhileCommand{Cond: words[1], Body: bodyScript.Commands}, true, nil
}

// buildForeach parses: foreach varName listExpr body
func (p *Parser) buildForeach(words []Word) (Command, bool, error) {
	if len(words) != 4 {
		return nil, false, fmt.Errorf("tclbc: foreach expects varName, list, and body")
	}
	name, ok := literalText(words[1])
	if !ok {
		return nil, false, fmt.Errorf("tclbc: foreach requires a literal loop variable name")
	}
	body, ok := words[3].(*BracedWord)
	if !ok {
		return nil, false, fmt.Errorf("tclbc: foreach body must be brace-quoted")
	}
	bodyScript, err := parseBody(body.Value)
	if err != nil {
		return nil, false, err
	}
	return &ForeachCommand{VarName: name, ListExpr: words[2], Body: bodyScript.Commands}, true, nil
}

// parseBody parses a brace-quoted body's contents as a nested Script.
func parseBody(text string) (*Script, error) {
	p := NewParser(text)
	return p.ParseScript()
}
