// Package run implements the main logic for the calcgen tool in a testable way.
package run

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/alexflint/go-arg"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"k8s.io/klog/v2"

	"github.com/toejough/calc"
	parse "github.com/toejough/calc/calcgen/run/1_parse"
	generate "github.com/toejough/calc/calcgen/run/2_generate"
	output "github.com/toejough/calc/calcgen/run/3_output"
)

// Exported variables.
var (
	ErrInvalidRepeat = errors.New("repeat must be at least 1")
	ErrNoCommand     = errors.New("no command given")
)

// FileSystem interface for mocking.
type FileSystem interface {
	MkdirAll(path string, perm os.FileMode) error
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
}

// Run executes the calcgen tool logic. It takes command-line arguments, an environment variable getter, a FileSystem
// for file operations, and the writer user-facing output goes to. It returns an error if any step fails.
func Run(args []string, getEnv func(string) string, fileSys FileSystem, out io.Writer) error {
	parsed, parser, err := parseArgs(args)
	if errors.Is(err, arg.ErrHelp) {
		return parser.WriteHelpForSubcommand(out, parser.SubcommandNames()...) //nolint:wrapcheck // help output only
	}

	if err != nil {
		return err
	}

	if parsed.Verbosity > 0 {
		err = setVerbosity(parsed.Verbosity)
		if err != nil {
			return err
		}
	}

	switch {
	case parsed.Bindings != nil:
		return runBindings(parsed.Bindings, getEnv, fileSys, out)
	case parsed.Eval != nil:
		return runEval(parsed.Eval, out)
	case parsed.Version != nil:
		_, _ = fmt.Fprintln(out, calc.Version())

		return nil
	default:
		parser.WriteHelp(out)

		return ErrNoCommand
	}
}

// unexported constants.
const (
	outputDirPermissions = 0o750
	programName          = "calcgen"
)

// bindingsCmd generates Go bindings for a C header.
type bindingsCmd struct {
	Header  string `arg:"--header,required" help:"C header to generate bindings for"`
	Output  string `arg:"--output"          help:"directory to write the bindings into"                                    default:"."`
	Package string `arg:"--package"         help:"package name for the bindings (defaults to $GOPACKAGE, then the library name)"`
	Lib     string `arg:"--lib"             help:"shared library name (defaults to the header's base name)"`
	Check   bool   `arg:"--check"           help:"report stale bindings instead of writing them"`
}

// cliArgs defines the command-line arguments for calcgen.
type cliArgs struct {
	Bindings  *bindingsCmd `arg:"subcommand:bindings" help:"generate Go FFI bindings from a C header"`
	Eval      *evalCmd     `arg:"subcommand:eval"     help:"add two numbers and print the formatted result"`
	Version   *versionCmd  `arg:"subcommand:version"  help:"print the calculator library version"`
	Verbosity int          `arg:"-v,--verbosity"      help:"diagnostic log verbosity"`
}

// evalCmd drives a calculator from the command line. Negative operands go after "--".
type evalCmd struct {
	A         float64  `arg:"positional,required" help:"first operand"`
	B         float64  `arg:"positional,required" help:"second operand"`
	Value     *float64 `arg:"--value"             help:"starting value (default 0)"`
	Precision *int32   `arg:"--precision"         help:"decimal digits to render (default 6)"`
	Cache     bool     `arg:"--cache"             help:"memoize additions"`
	CacheSize int      `arg:"--cache-size"        help:"number of memoized additions"             default:"1024"`
	Repeat    int      `arg:"--repeat"            help:"number of times to perform the addition"  default:"1"`
	Stats     bool     `arg:"--stats"             help:"print calculator metrics after the result"`
}

type versionCmd struct{}

// bindingsPackage picks the generated package name: the flag, then $GOPACKAGE, then the library name.
func bindingsPackage(cmd *bindingsCmd, lib string, getEnv func(string) string) string {
	if cmd.Package != "" {
		return cmd.Package
	}

	if pkg := getEnv("GOPACKAGE"); pkg != "" {
		return pkg
	}

	pkg := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || !(unicode.IsLetter(r) || unicode.IsDigit(r)) {
			return -1
		}

		return unicode.ToLower(r)
	}, lib)

	if pkg == "" || !unicode.IsLetter(rune(pkg[0])) {
		return "bindings"
	}

	return pkg
}

// parseArgs parses command-line arguments into cliArgs.
func parseArgs(args []string) (cliArgs, *arg.Parser, error) {
	var parsed cliArgs

	parser, err := arg.NewParser(arg.Config{Program: programName}, &parsed)
	if err != nil {
		return cliArgs{}, nil, fmt.Errorf("failed to create argument parser: %w", err)
	}

	var cmdArgs []string
	if len(args) > 1 {
		cmdArgs = args[1:]
	}

	err = parser.Parse(cmdArgs)
	if errors.Is(err, arg.ErrHelp) {
		return cliArgs{}, parser, err
	}

	if err != nil {
		return cliArgs{}, nil, fmt.Errorf("failed to parse arguments: %w", err)
	}

	return parsed, parser, nil
}

func runBindings(cmd *bindingsCmd, getEnv func(string) string, fileSys FileSystem, out io.Writer) error {
	src, err := fileSys.ReadFile(cmd.Header)
	if err != nil {
		return fmt.Errorf("failed to read header %s: %w", cmd.Header, err)
	}

	header, err := parse.Parse(string(src))
	if err != nil {
		return fmt.Errorf("failed to parse header %s: %w", cmd.Header, err)
	}

	klog.V(1).InfoS("parsed header", "path", cmd.Header,
		"structs", len(header.Structs), "functions", len(header.Functions),
		"typedefs", len(header.TypeDefs), "enums", len(header.Enums))

	lib := cmd.Lib
	if lib == "" {
		lib = strings.TrimSuffix(filepath.Base(cmd.Header), filepath.Ext(cmd.Header))
	}

	pkg := bindingsPackage(cmd, lib, getEnv)
	gen := generate.New(pkg, lib, header)

	files, err := gen.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate bindings for %s: %w", cmd.Header, err)
	}

	for _, name := range gen.Skipped() {
		klog.InfoS("skipped variadic function", "function", name)
	}

	klog.V(1).InfoS("generated bindings", "package", pkg, "lib", lib, "files", len(files))

	if cmd.Check {
		return output.Check(files, cmd.Output, fileSys, out)
	}

	err = fileSys.MkdirAll(cmd.Output, outputDirPermissions)
	if err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", cmd.Output, err)
	}

	return output.Write(files, cmd.Output, fileSys, out)
}

func runEval(cmd *evalCmd, out io.Writer) error {
	if cmd.Repeat < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidRepeat, cmd.Repeat)
	}

	cfg := calc.DefaultConfig()
	cfg.UseCache = cmd.Cache

	if cmd.Value != nil {
		cfg.Value = *cmd.Value
	}

	if cmd.Precision != nil {
		cfg.Precision = *cmd.Precision
	}

	registry := prometheus.NewRegistry()

	calculator, err := calc.New(cfg, calc.WithCacheSize(cmd.CacheSize), calc.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create calculator: %w", err)
	}

	err = evaluate(calculator, cmd, registry, out)
	closeErr := calculator.Close()

	return errors.Join(err, closeErr)
}

// evaluate runs the additions, prints the result, and optionally the metrics gathered while doing so.
func evaluate(calculator *calc.Calculator, cmd *evalCmd, registry *prometheus.Registry, out io.Writer) error {
	for range cmd.Repeat {
		sum, err := calculator.Add(cmd.A, cmd.B)
		if err != nil {
			return fmt.Errorf("failed to add: %w", err)
		}

		klog.V(2).InfoS("added", "a", cmd.A, "b", cmd.B, "sum", sum, "cached", calculator.CacheLen())
	}

	text, err := calculator.Format()
	if err != nil {
		return fmt.Errorf("failed to format: %w", err)
	}

	_, _ = fmt.Fprintln(out, text)

	if !cmd.Stats {
		return nil
	}

	families, err := registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	for _, family := range families {
		_, err = expfmt.MetricFamilyToText(out, family)
		if err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	return nil
}

// setVerbosity routes the verbosity flag into klog.
func setVerbosity(level int) error {
	flags := flag.NewFlagSet(programName, flag.ContinueOnError)
	klog.InitFlags(flags)

	err := flags.Set("v", strconv.Itoa(level))
	if err != nil {
		return fmt.Errorf("failed to set verbosity: %w", err)
	}

	return nil
}
