// preamble.go - object file preamble, signature line, and postamble
package tclbc

import "fmt"

// Named constants for the object file's wire format.
const (
	// ObjectFileExt is the conventional output extension for a written
	// object file, used by cmd/tclbc to derive a default output path.
	ObjectFileExt     = ".tbc"
	loaderPackageName = "tbcload"
	signatureMagic    = "TclPro ByteCode"
	scriptEvalCommand = "bceval" // invokes a compiled top-level script body
	procLoadCommand   = "bcproc" // invokes a compiled proc body (rewrite.go)
)

// WriteObjectFile assembles img into the complete text object file: a
// `package require` preamble guarding the loader package (it reports
// LoaderErrorMessage if that require fails), then a scriptEvalCommand call
// whose braced payload is the signature line identifying format/writer/host
// versions followed by the serialized image, and a closing-brace postamble.
func WriteObjectFile(img *Image, options CompileOptions) ([]byte, error) {
	if img == nil {
		return nil, badArgsError("WriteObjectFile: nil image")
	}

	loaderVersion := options.LoaderVersion
	if loaderVersion == "" {
		loaderVersion = LoaderVersion()
	}

	sink := newFieldSink()

	if err := writePreamble(sink, loaderVersion); err != nil {
		return nil, err
	}
	if err := sink.emitString(scriptEvalCommand+" {", '\n'); err != nil {
		return nil, err
	}
	if err := writeSignature(sink); err != nil {
		return nil, err
	}
	if err := emitImage(sink, img); err != nil {
		return nil, err
	}
	if err := sink.emitString("}", '\n'); err != nil {
		return nil, err
	}

	return sink.Bytes(), nil
}

// writePreamble emits the `package require` guard that ensures a
// compatible loader is present before the object file's body is
// evaluated. A failed require reports LoaderErrorMessage rather than Tcl's
// own "can't find package" text, since the object file is meant to be
// read back by a loader that knows nothing about the script it came from.
func writePreamble(sink *fieldSink, loaderVersion string) error {
	line := fmt.Sprintf(
		"if {[catch {package require %s %s}]} { error {%s} }",
		loaderPackageName, loaderVersion, LoaderErrorMessage(),
	)
	return sink.emitString(line, '\n')
}

// writeSignature emits the single line a loader reads first to decide
// whether it can parse the rest of the file at all: the object-file
// format version, this writer's own version, and the host scripting
// language version the script was compiled against.
func writeSignature(sink *fieldSink) error {
	line := fmt.Sprintf("%s %d %s %s", signatureMagic, FormatVersion(), WriterVersion(), TclVersion())
	return sink.emitString(line, '\n')
}
