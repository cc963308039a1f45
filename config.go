// config.go - environment-overridable knobs for the writer
package tclbc

import "github.com/xyproto/env/v2"

// Verbose gates every diagnostic trace line the writer emits
// (compilation_pipeline.go, compiler_state.go, and codegen.go's typo
// warning).
var Verbose = env.Bool("TCLBC_VERBOSE")

// defaultLoaderVersion is the loader package version written into the
// preamble's package-require guard when no override is configured.
const defaultLoaderVersion = "1.9"

// defaultFormatVersion is the object-file format version written into the
// signature line.
const defaultFormatVersion = 3

// defaultWriterVersion is this writer's own version, the signature line's
// writer_version field.
const defaultWriterVersion = "1.0.0"

// defaultHostVersion is the host scripting-language runtime version the
// signature line's host_version field reports, returned by TclVersion.
const defaultHostVersion = "8.4"

// LoaderVersion resolves the loader package version for the preamble's
// package-require guard.
func LoaderVersion() string {
	return env.StrOr("TCLBC_LOADER_VERSION", defaultLoaderVersion)
}

// FormatVersion resolves the object-file format version, overridable for
// test harnesses that need to pin the signature line to a specific value.
func FormatVersion() int {
	return env.IntOr("TCLBC_FORMAT_VERSION", defaultFormatVersion)
}

// WriterVersion resolves this writer's own version for the signature
// line's writer_version field.
func WriterVersion() string {
	return env.StrOr("TCLBC_WRITER_VERSION", defaultWriterVersion)
}

// TclVersion is the getTclVer public operation: it reports the host
// scripting-language runtime version the signature line's host_version
// field names, for a consumer that needs to check compatibility before
// handing source to Compile.
func TclVersion() string {
	return env.StrOr("TCLBC_HOST_VERSION", defaultHostVersion)
}

// BytecodeExtension is the getBytecodeExtension public operation: the
// conventional output extension for a written object file.
func BytecodeExtension() string {
	return ObjectFileExt
}

// LoaderErrorMessage resolves the textual fallback embedded in the
// preamble for a companion loader to report on package-load failure.
func LoaderErrorMessage() string {
	return env.StrOr("TCLBC_LOADER_ERROR", defaultLoaderErrorMessage)
}

// EmitSourceMaps reports whether source-line maps should be populated
// instead of the sentinel -1 sizes written by default. This is a runtime
// flag rather than a build tag: the original's EMIT_SRCMAP was a
// compile-time C macro, which Go has no equivalent need for.
func EmitSourceMaps() bool {
	return env.Bool("TCLBC_EMIT_SRCMAP")
}
