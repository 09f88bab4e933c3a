package flagparse

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lithammer/dedent"

	"github.com/paulschiretz/pgl-tree/pkg/buildinfo"
)

// cliFlags holds pointers to all possible command-line flags.
// Fields are pointers so we can distinguish between "not registered for this command" (nil)
// and "registered but not set by user" (non-nil pointer to zero value).
type cliFlags struct {
	// Global
	LogLevel *string
	Quiet    *bool

	// Shared: Build / Tree
	Spec     *string
	Format   *string
	Selector *string

	// Shared: Build / Init
	Out            *string
	Overwrite      *bool
	DirPerm        *string
	FilePerm       *string
	Metrics        *bool
	FailFast       *bool
	Archive        *bool
	ArchiveFormat  *string
	ArchiveLevel   *string
	PostBuildHooks *string

	// Build specific
	DryRun *bool

	// Tree specific
	Encoding *string

	// Init specific
	Force   *bool
	Default *bool
}

func registerGlobalFlags(fs *flag.FlagSet, f *cliFlags) {
	f.LogLevel = fs.String("log-level", "info", "Set the logging level: 'debug', 'notice', 'info', 'warn', 'error'.")
	f.Quiet = fs.Bool("quiet", false, "Only log warnings and errors.")
}

func registerSpecFlags(fs *flag.FlagSet, f *cliFlags) {
	f.Spec = fs.String("spec", "", "Path of the project spec file, '-' for stdin. May also be given as the first argument. (Required)")
	f.Format = fs.String("format", "", "Spec format: 'json', 'yaml' or 'toml'. Detected from the file extension when empty.")
	f.Selector = fs.String("select", "", "JSONPath selecting the project inside the spec document, e.g. '$.project'.")
}

func registerOutputFlags(fs *flag.FlagSet, f *cliFlags) {
	f.Out = fs.String("out", ".", "Directory in which the project root is created.")
	f.Overwrite = fs.Bool("overwrite", false, "Overwrite files that already exist.")
	f.DirPerm = fs.String("dir-perm", "", "Octal permission for created directories (default 0755).")
	f.FilePerm = fs.String("file-perm", "", "Octal permission for created files (default 0644).")
	f.Metrics = fs.Bool("metrics", true, "Log a summary of created, skipped and planned entries.")
	f.FailFast = fs.Bool("fail-fast", true, "Stop on the first failing post-build hook.")
	f.Archive = fs.Bool("archive", false, "Pack the built root into an archive next to it.")
	f.ArchiveFormat = fs.String("archive-format", "", "Archive format: 'zip', 'tar.gz', or 'tar.zst'.")
	f.ArchiveLevel = fs.String("archive-level", "", "Archive compression level: 'default', 'fastest', 'better', 'best'.")
	f.PostBuildHooks = fs.String("post-build-hooks", "", "Comma-separated list of commands to run inside the built root.")
}

func registerBuildFlags(fs *flag.FlagSet, f *cliFlags) {
	registerSpecFlags(fs, f)
	registerOutputFlags(fs, f)
	f.DryRun = fs.Bool("dry-run", false, "Show what would be done without making any changes.")
}

func registerTreeFlags(fs *flag.FlagSet, f *cliFlags) {
	registerSpecFlags(fs, f)
	f.Encoding = fs.String("encoding", "text", "Output encoding of the tree: 'text', 'json', 'yaml' or 'toml'.")
}

func registerInitFlags(fs *flag.FlagSet, f *cliFlags) {
	registerOutputFlags(fs, f)
	f.Force = fs.Bool("force", false, "Bypass confirmation prompts.")
	f.Default = fs.Bool("default", false, "Overwrite existing configuration with defaults.")
}

// subcommands maps every runnable command to its flag registration and description.
var subcommands = map[Command]struct {
	register func(*flag.FlagSet, *cliFlags)
	desc     string
}{
	Build: {registerBuildFlags, "Create the folders and files described by a project spec."},
	Tree:  {registerTreeFlags, "Print the tree a project spec describes without touching the disk."},
	Init:  {registerInitFlags, "Write a pgl-tree.config.json with the given settings into the output directory."},
}

// Parse parses the provided arguments (usually os.Args[1:]) and returns the command and
// a map holding only the flags the user set explicitly.
func Parse(args []string) (Command, map[string]interface{}, error) {
	return parse(args, os.Stderr)
}

func parse(args []string, output io.Writer) (Command, map[string]interface{}, error) {
	// No arguments or an explicit help request prints the top level usage.
	if len(args) == 0 {
		printTopLevelUsage(output)
		return None, nil, nil
	}

	cmdStr := strings.ToLower(args[0])
	if cmdStr == "help" || cmdStr == "-h" || cmdStr == "-help" || cmdStr == "--help" {
		printTopLevelUsage(output)
		return None, nil, nil
	}

	command, err := ParseCommand(cmdStr)
	if err != nil {
		return None, nil, err
	}
	if command == Version {
		return command, nil, nil
	}

	sub, ok := subcommands[command]
	if !ok {
		return None, nil, fmt.Errorf("unknown command: %s", args[0])
	}

	f := &cliFlags{}
	fs := flag.NewFlagSet(command.String(), flag.ContinueOnError)
	fs.SetOutput(output)
	registerGlobalFlags(fs, f)
	sub.register(fs, f)
	fs.Usage = func() {
		printSubcommandUsage(command, sub.desc, fs)
	}

	if err := fs.Parse(args[1:]); err != nil {
		return command, nil, err
	}
	// flag stops at the first non-flag argument; collect it and keep parsing
	// so "build project.json -out dir" works.
	var positional []string
	for fs.NArg() > 0 {
		positional = append(positional, fs.Arg(0))
		if err := fs.Parse(fs.Args()[1:]); err != nil {
			return command, nil, err
		}
	}

	flagMap, err := flagsToMap(fs, f, positional)
	if err != nil {
		return command, nil, err
	}
	return command, flagMap, nil
}

func flagsToMap(fs *flag.FlagSet, f *cliFlags, positional []string) (map[string]interface{}, error) {
	// Create a map of the flags that were explicitly set by the user, along with their values.
	// This map is used to selectively override the base configuration.
	usedFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { usedFlags[f.Name] = true })

	flagMap := make(map[string]any)

	addIfUsed(flagMap, usedFlags, "log-level", f.LogLevel)
	addIfUsed(flagMap, usedFlags, "quiet", f.Quiet)

	addIfUsed(flagMap, usedFlags, "spec", f.Spec)
	addIfUsed(flagMap, usedFlags, "format", f.Format)
	addIfUsed(flagMap, usedFlags, "select", f.Selector)

	addIfUsed(flagMap, usedFlags, "out", f.Out)
	addIfUsed(flagMap, usedFlags, "overwrite", f.Overwrite)
	addIfUsed(flagMap, usedFlags, "dir-perm", f.DirPerm)
	addIfUsed(flagMap, usedFlags, "file-perm", f.FilePerm)
	addIfUsed(flagMap, usedFlags, "metrics", f.Metrics)
	addIfUsed(flagMap, usedFlags, "fail-fast", f.FailFast)
	addIfUsed(flagMap, usedFlags, "archive", f.Archive)
	addIfUsed(flagMap, usedFlags, "archive-format", f.ArchiveFormat)
	addIfUsed(flagMap, usedFlags, "archive-level", f.ArchiveLevel)
	addIfUsed(flagMap, usedFlags, "dry-run", f.DryRun)
	addIfUsed(flagMap, usedFlags, "encoding", f.Encoding)

	addIfUsed(flagMap, usedFlags, "force", f.Force)
	addIfUsed(flagMap, usedFlags, "default", f.Default)

	addParsedIfUsed(flagMap, usedFlags, "post-build-hooks", f.PostBuildHooks, ParseCmdList)

	// The spec may also be given as the first positional argument.
	rest := positional
	if f.Spec != nil && len(rest) > 0 {
		if usedFlags["spec"] {
			return nil, fmt.Errorf("spec given twice: -spec %q and argument %q", *f.Spec, rest[0])
		}
		flagMap["spec"] = rest[0]
		rest = rest[1:]
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(rest, " "))
	}
	return flagMap, nil
}

// addIfUsed adds the value of ptr to flagMap if ptr is not nil and the flag was set.
func addIfUsed[T any](flagMap map[string]interface{}, usedFlags map[string]bool, name string, ptr *T) {
	if ptr != nil && usedFlags[name] {
		flagMap[name] = *ptr
	}
}

// addParsedIfUsed adds the parsed value of ptr to flagMap if ptr is not nil and the flag was set.
func addParsedIfUsed(flagMap map[string]interface{}, usedFlags map[string]bool, name string, ptr *string, parser func(string) []string) {
	if ptr != nil && usedFlags[name] {
		flagMap[name] = parser(*ptr)
	}
}

const topLevelUsage = `
	Usage: %[1]s <command> [flags]

	Commands:
	  build       Create the folders and files described by a project spec
	  tree        Print the planned tree without touching the disk
	  init        Write a configuration file into the output directory
	  version     Print the application version

	Examples:
	  %[1]s build project.json -out ~/src
	  %[1]s build -spec stack.yaml -select '$.services.api' -dry-run
	  cat project.toml | %[1]s tree -spec - -format toml

	Run '%[1]s <command> -help' for more information on a command.
`

// printTopLevelUsage prints the main help message.
func printTopLevelUsage(w io.Writer) {
	execName := filepath.Base(os.Args[0])
	fmt.Fprintf(w, "%s(%s) ", buildinfo.Name, buildinfo.Version)
	fmt.Fprintf(w, "Creates project folder and file trees from a JSON, YAML or TOML spec.\n")
	fmt.Fprintf(w, dedent.Dedent(topLevelUsage), execName)
}

// printSubcommandUsage prints the help message for a specific subcommand.
func printSubcommandUsage(command Command, desc string, fs *flag.FlagSet) {
	execName := filepath.Base(os.Args[0])
	fmt.Fprintf(fs.Output(), "%s(%s) ", buildinfo.Name, buildinfo.Version)
	fmt.Fprintf(fs.Output(), "Creates project folder and file trees from a JSON, YAML or TOML spec.\n\n")
	fmt.Fprintf(fs.Output(), "Usage of the %s command: %s %s [flags]\n\n", command, execName, command)
	fmt.Fprintf(fs.Output(), "%s\n\n", desc)
	fmt.Fprintf(fs.Output(), "Flags:\n")
	fs.PrintDefaults()
}

// ParseCmdList parses a comma-separated list of shell-like commands.
// It preserves quotes and handles backslash escapes so they can be interpreted by the shell.
func ParseCmdList(s string) []string {
	var list []string
	var current strings.Builder
	var quoteChar rune

	// Helper to add the current buffered item to the list after trimming whitespace.
	appendItem := func() {
		trimmed := strings.TrimSpace(current.String())
		if trimmed != "" {
			list = append(list, trimmed)
		}
		current.Reset()
	}

	var isEscaped bool
	for _, r := range s {
		if isEscaped {
			current.WriteRune(r)
			isEscaped = false
			continue
		}

		switch {
		case r == '\\':
			isEscaped = true
			// The backslash is kept for the shell to interpret.
			current.WriteRune(r)
		case r == '\'' || r == '"':
			if quoteChar == 0 {
				quoteChar = r
			} else if quoteChar == r {
				quoteChar = 0
			}
			current.WriteRune(r)
		case r == ',' && quoteChar == 0: // Comma outside of any quotes.
			appendItem()
		default:
			current.WriteRune(r)
		}
	}
	appendItem() // Add the final item after the loop finishes.
	return list
}
