// bytecode_emit.go - full Image serialization
package tclbc

// emitImage serializes img's code, literal table, exception-range table,
// auxiliary-data table, and command-location table into sink, in that
// fixed order. img.Code is already in its final wire form by the time
// this runs: rewrite.go leaves every push/jump operand byte-for-byte as
// the loader expects, including push4's big-endian literal index, so
// emitImage only needs to ASCII85-encode the buffer as-is.
func emitImage(sink *fieldSink, img *Image) error {
	if img == nil {
		return formatError("bytecode_emit: nil image")
	}

	if err := sink.emitInt(img.NumCommands, ' '); err != nil {
		return err
	}
	if err := sink.emitInt(img.MaxExceptDepth, ' '); err != nil {
		return err
	}
	if err := sink.emitInt(img.MaxStackDepth, '\n'); err != nil {
		return err
	}

	if err := sink.emitBytes(img.Code); err != nil {
		return err
	}

	if err := sink.emitInt(len(img.Literals), '\n'); err != nil {
		return err
	}
	for _, lit := range img.Literals {
		if err := emitLiteral(sink, lit); err != nil {
			return err
		}
	}

	if err := sink.emitInt(len(img.ExceptionRanges), '\n'); err != nil {
		return err
	}
	for _, r := range img.ExceptionRanges {
		if err := emitExceptionRange(sink, r); err != nil {
			return err
		}
	}

	if err := sink.emitInt(len(img.AuxData), '\n'); err != nil {
		return err
	}
	for _, a := range img.AuxData {
		if err := emitAuxData(sink, a); err != nil {
			return err
		}
	}

	return emitCmdLocations(sink, img.CmdLocations)
}

// emitCmdLocations writes the command-location table delta-encoded: each
// entry after the first records the difference from its predecessor
// rather than an absolute offset, since CmdLocations[i].CodeOffset is
// strictly increasing and the deltas are almost always small.
func emitCmdLocations(sink *fieldSink, locs []CmdLocation) error {
	if err := sink.emitInt(len(locs), '\n'); err != nil {
		return err
	}

	prevOffset, prevEnd := 0, 0
	for _, loc := range locs {
		deltaOffset := loc.CodeOffset - prevOffset
		if err := sink.emitInt(deltaOffset, ' '); err != nil {
			return err
		}
		if err := sink.emitInt(loc.CodeLength, ' '); err != nil {
			return err
		}
		if err := sink.emitInt(loc.SrcOffset-prevEnd, ' '); err != nil {
			return err
		}
		if err := sink.emitInt(loc.SrcLength, '\n'); err != nil {
			return err
		}
		prevOffset = loc.CodeOffset
		prevEnd = loc.SrcOffset
	}
	return nil
}
