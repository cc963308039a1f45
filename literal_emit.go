// literal_emit.go - literal table, exception-range table, and auxdata
// table serialization
package tclbc

import "strconv"

// Literal kind tags, one ASCII letter per Literal.Kind, written as the
// first field of every literal-table entry.
const (
	tagInt      = 'i'
	tagDouble   = 'd'
	tagBool     = 'b'
	tagString   = 's'
	tagOpaque   = 'x'
	tagProcBody = 'p'
	tagBytecode = 'c'
)

// Exception-range type tags.
const (
	tagLoopRange  = 'L'
	tagCatchRange = 'C'
)

// AuxData kind tags.
const (
	tagJumpTable   = 'J'
	tagDictUpdate  = 'D'
	tagNewForeach  = 'f'
)

// emitLiteral writes one literal-table entry: its kind tag, then the
// kind-specific payload. LitProcBody and LitBytecode both carry a nested
// Image, emitted recursively through emitImage so the format is
// self-describing to arbitrary nesting depth.
func emitLiteral(sink *fieldSink, lit Literal) error {
	switch lit.Kind {
	case LitInt:
		if err := sink.emitChar(tagInt, ' '); err != nil {
			return err
		}
		return sink.emitString(strconv.FormatInt(lit.Int, 10), '\n')

	case LitDouble:
		if err := sink.emitChar(tagDouble, ' '); err != nil {
			return err
		}
		return sink.emitString(strconv.FormatFloat(lit.Double, 'g', -1, 64), '\n')

	case LitBool:
		if err := sink.emitChar(tagBool, ' '); err != nil {
			return err
		}
		v := "0"
		if lit.Bool {
			v = "1"
		}
		return sink.emitString(v, '\n')

	case LitString:
		if err := sink.emitChar(tagString, '\n'); err != nil {
			return err
		}
		return sink.emitBytes([]byte(lit.Str))

	case LitOpaque:
		if err := sink.emitChar(tagOpaque, '\n'); err != nil {
			return err
		}
		return sink.emitBytes(lit.Opaque)

	case LitProcBody:
		if err := sink.emitChar(tagProcBody, '\n'); err != nil {
			return err
		}
		if err := emitProcDescriptor(sink, lit.Proc); err != nil {
			return err
		}
		return emitImage(sink, lit.Bytecode)

	case LitBytecode:
		if err := sink.emitChar(tagBytecode, '\n'); err != nil {
			return err
		}
		return emitImage(sink, lit.Bytecode)

	default:
		return formatError("literal_emit: unrecognized literal kind %d", lit.Kind)
	}
}

// emitProcDescriptor writes a procedure descriptor's argument count and
// one line per Local: name, frame index, flags, and an optional default
// value.
func emitProcDescriptor(sink *fieldSink, desc *ProcDescriptor) error {
	if desc == nil {
		return sink.emitInt(-1, '\n')
	}
	if err := sink.emitInt(desc.NumArgs, ' '); err != nil {
		return err
	}
	if err := sink.emitInt(len(desc.Locals), '\n'); err != nil {
		return err
	}
	for _, local := range desc.Locals {
		if err := emitLocal(sink, local); err != nil {
			return err
		}
	}
	return nil
}

func emitLocal(sink *fieldSink, local Local) error {
	if err := sink.emitInt(local.FrameIndex, ' '); err != nil {
		return err
	}
	if err := sink.emitInt(int(local.Flags), ' '); err != nil {
		return err
	}
	if err := sink.emitBytes([]byte(local.Name)); err != nil {
		return err
	}
	if local.Default == nil {
		return sink.emitChar('0', '\n')
	}
	if err := sink.emitChar('1', '\n'); err != nil {
		return err
	}
	return emitLiteral(sink, *local.Default)
}

// emitExceptionRange writes one exception-range entry: its type tag, the
// fields common to both kinds, then the kind-specific fields.
func emitExceptionRange(sink *fieldSink, r ExceptionRange) error {
	tag := byte(tagLoopRange)
	if r.Type == CatchExceptionRange {
		tag = tagCatchRange
	}
	if err := sink.emitChar(tag, ' '); err != nil {
		return err
	}
	if err := sink.emitInt(r.NestingLevel, ' '); err != nil {
		return err
	}
	if err := sink.emitInt(r.CodeOffset, ' '); err != nil {
		return err
	}
	if err := sink.emitInt(r.CodeLength, ' '); err != nil {
		return err
	}

	if r.Type == CatchExceptionRange {
		return sink.emitInt(r.CatchOffset, '\n')
	}
	if err := sink.emitInt(r.BreakOffset, ' '); err != nil {
		return err
	}
	return sink.emitInt(r.ContinueOffset, '\n')
}

// emitAuxData writes one auxiliary-data entry: its kind tag, then the
// kind-specific payload.
func emitAuxData(sink *fieldSink, a AuxData) error {
	switch a.Kind {
	case AuxJumpTable:
		if err := sink.emitChar(tagJumpTable, ' '); err != nil {
			return err
		}
		if err := sink.emitInt(len(a.JumpTable), '\n'); err != nil {
			return err
		}
		for _, e := range a.JumpTable {
			if err := sink.emitBytes([]byte(e.Key)); err != nil {
				return err
			}
			if err := sink.emitInt(e.TargetOffset, '\n'); err != nil {
				return err
			}
		}
		return nil

	case AuxDictUpdate:
		if err := sink.emitChar(tagDictUpdate, ' '); err != nil {
			return err
		}
		if err := sink.emitInt(len(a.DictUpdateVarIndexes), '\n'); err != nil {
			return err
		}
		for _, idx := range a.DictUpdateVarIndexes {
			if err := sink.emitInt(idx, '\n'); err != nil {
				return err
			}
		}
		return nil

	case AuxNewForeach:
		if err := sink.emitChar(tagNewForeach, ' '); err != nil {
			return err
		}
		if err := sink.emitInt(a.ForeachNumLists, ' '); err != nil {
			return err
		}
		if err := sink.emitInt(a.ForeachLoopTemp, ' '); err != nil {
			return err
		}
		if err := sink.emitInt(len(a.ForeachLists), '\n'); err != nil {
			return err
		}
		for _, list := range a.ForeachLists {
			if len(list.VarIndexes) == 0 {
				if err := sink.emitInt(0, '\n'); err != nil {
					return err
				}
				continue
			}
			if err := sink.emitInt(len(list.VarIndexes), ' '); err != nil {
				return err
			}
			for i, idx := range list.VarIndexes {
				sep := byte(' ')
				if i == len(list.VarIndexes)-1 {
					sep = '\n'
				}
				if err := sink.emitInt(idx, sep); err != nil {
					return err
				}
			}
		}
		return nil

	default:
		return formatError("literal_emit: unrecognized auxdata kind %d", a.Kind)
	}
}
