// cmd/tclbc is the writer's command-line front end: build, builddir, ext,
// tclver, version.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xyproto/tclbc"
)

var versionString = "tclbc " + tclbc.WriterVersion()

// CommandContext holds the execution context a subcommand needs: args,
// option flags, and output path.
type CommandContext struct {
	Args          []string
	Verbose       bool
	OutputPath    string
	PreamblePath  string
	LoaderVersion string
}

func main() {
	var outputFlag = flag.String("o", "", "output object file path (defaults to input path with .tbc)")
	var preambleFlag = flag.String("preamble", "", "path to a custom preamble to prepend before the default package-require guard")
	var loaderVersionFlag = flag.String("loader-version", "", "override the loader package version written into the package-require guard")
	var verboseFlag = flag.Bool("v", false, "verbose mode")
	var versionFlag = flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Println(versionString)
		return
	}

	if *verboseFlag {
		tclbc.Verbose = true
	}

	ctx := &CommandContext{
		Args:          flag.Args(),
		Verbose:       *verboseFlag,
		OutputPath:    *outputFlag,
		PreamblePath:  *preambleFlag,
		LoaderVersion: *loaderVersionFlag,
	}

	if len(ctx.Args) == 0 {
		cmdHelp()
		os.Exit(1)
	}

	var err error
	switch ctx.Args[0] {
	case "build":
		err = cmdBuild(ctx, ctx.Args[1:])
	case "builddir":
		err = cmdBuildDir(ctx, ctx.Args[1:])
	case "ext":
		fmt.Println(tclbc.BytecodeExtension())
	case "tclver":
		fmt.Println(tclbc.TclVersion())
	case "version":
		fmt.Println(versionString)
	case "help", "--help", "-h":
		cmdHelp()
	default:
		err = cmdBuild(ctx, ctx.Args)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "tclbc: %v\n", err)
		os.Exit(1)
	}
}

// cmdBuild compiles a single Tcl source file to a .tbc object file.
func cmdBuild(ctx *CommandContext, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tclbc build <file.tcl> [-o output]")
	}
	path := args[0]

	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	outputPath := ctx.OutputPath
	if outputPath == "" {
		outputPath = strings.TrimSuffix(path, filepath.Ext(path)) + tclbc.BytecodeExtension()
	}

	options := tclbc.CompileOptions{
		OutputPath:    outputPath,
		Verbose:       ctx.Verbose,
		LoaderVersion: ctx.LoaderVersion,
	}

	frontend := tclbc.NewTclFrontend()
	img, err := tclbc.Compile(string(source), frontend, options)
	if err != nil {
		return err
	}

	object, err := tclbc.WriteObjectFile(img, options)
	if err != nil {
		return fmt.Errorf("writing object file: %w", err)
	}

	if ctx.PreamblePath != "" {
		custom, err := os.ReadFile(ctx.PreamblePath)
		if err != nil {
			return fmt.Errorf("reading preamble %s: %w", ctx.PreamblePath, err)
		}
		object = append(custom, object...)
	}

	if err := os.WriteFile(outputPath, object, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outputPath, err)
	}

	if err := tclbc.PreservePermissions(path, outputPath); err != nil && ctx.Verbose {
		fmt.Fprintf(os.Stderr, "tclbc: warning: %v\n", err)
	}

	if ctx.Verbose {
		fmt.Fprintf(os.Stderr, "-> wrote %s\n", outputPath)
	} else {
		fmt.Println(outputPath)
	}
	return nil
}

// cmdBuildDir compiles every .tcl file in a directory.
func cmdBuildDir(ctx *CommandContext, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*.tcl"))
	if err != nil {
		return fmt.Errorf("globbing %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("no .tcl files found in %s", dir)
	}

	for _, path := range matches {
		fileCtx := &CommandContext{
			Verbose:       ctx.Verbose,
			PreamblePath:  ctx.PreamblePath,
			LoaderVersion: ctx.LoaderVersion,
		}
		if err := cmdBuild(fileCtx, []string{path}); err != nil {
			return err
		}
	}
	return nil
}

func cmdHelp() {
	fmt.Println(versionString)
	fmt.Println(`usage:
  tclbc build <file.tcl> [-o output] [-preamble file] [-loader-version v] [-v]
  tclbc builddir [dir]
  tclbc ext
  tclbc tclver
  tclbc version`)
}
