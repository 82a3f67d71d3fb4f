package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"runtime"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/oakwood-commons/dotget/internal/expr"
	"github.com/oakwood-commons/dotget/internal/formatter"
	"github.com/oakwood-commons/dotget/pkg/core"
	"github.com/oakwood-commons/dotget/pkg/loader"
	"github.com/oakwood-commons/dotget/pkg/logger"
	"github.com/oakwood-commons/dotget/pkg/resolver"
	"github.com/oakwood-commons/dotget/pkg/settings"
)

// errShowHelp is returned by loadInputData when no input is provided and help should be shown.
var errShowHelp = errors.New("no input provided")

var (
	defaultValue   string
	nullAsMissing  bool
	emptyAsMissing bool
	debug          bool
	expression     string
	decodeNested   bool
	output         string
	quiet          bool
)

// Indirections for tests.
var (
	stdinIsPiped     = func() bool { stat, _ := os.Stdin.Stat(); return (stat.Mode() & os.ModeCharDevice) == 0 }
	stdoutIsTerminal = func() bool { return term.IsTerminal(int(os.Stdout.Fd())) }
	stdout           io.Writer = os.Stdout
	stderr           io.Writer = os.Stderr
	exit                       = os.Exit
)

var rootCtx = context.Background()

// loadInputData reads input from a file argument or piped stdin. Empty piped
// input defaults to an empty object so expressions can still evaluate.
func loadInputData(args []string, lgr logr.Logger) (any, error) {
	if len(args) > 0 {
		root, err := core.LoadFileWithLogger(args[0], lgr)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", args[0], err)
		}
		return root, nil
	}

	if !stdinIsPiped() {
		return nil, errShowHelp
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read from stdin: %w", err)
	}
	if len(data) == 0 {
		data = []byte("{}")
	}
	root, err := core.LoadRootBytesWithLogger(data, lgr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse input: %w", err)
	}
	return root, nil
}

var rootCmd = &cobra.Command{
	Use:   "dotget <path> [file]",
	Short: "Resolve dotted/bracket paths into structured data",
	Long: `dotget resolves a dot or bracket path ("user.profile.theme",
"items[0].name") into JSON, YAML, TOML, NDJSON, or JWT input and prints the
value found there, or the --default fallback when the path does not resolve.

Paths never fail: missing keys, out-of-range indexes, and scalar
intermediates all fall back to the default. With --expr the first argument is
skipped and a CEL expression is evaluated instead, with '_' bound to the
loaded document.`,
	Example: "\n  dotget user.profile.theme config.yaml\n" +
		"  dotget 'items[0].name' --default unknown data.json\n" +
		"  cat data.json | dotget meta.owner --default nobody\n" +
		"  cat data.json | dotget --expr '_.items.filter(x, x.active)'\n",
	Args: cobra.MaximumNArgs(2),
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		var level int8 = 0
		if debug {
			level = -1
		}
		lgr := logger.Get(level)
		lgr = logger.WithValues(lgr, "command", cmd.Name())
		rootCtx = logger.WithLogger(context.Background(), lgr)

		params := settings.NewCliParams()
		params.MinLogLevel = level
		params.IsQuiet = quiet
		rootCtx = settings.IntoContext(rootCtx, params)

		if debug && !quiet {
			cmd.Flags().Visit(func(f *pflag.Flag) {
				lgr.V(1).Info("flag set", "name", f.Name, "value", f.Value.String())
			})
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		lgr := logger.FromContext(rootCtx)
		if quiet {
			lgr = logger.GetNoopLogger()
		}

		pathArg := ""
		fileArgs := args
		if expression == "" {
			if len(args) == 0 {
				if !stdinIsPiped() {
					_ = cmd.Help()
					return
				}
				fmt.Fprintln(stderr, "error: a path argument is required (or use --expr)")
				exit(2)
				return
			}
			pathArg = args[0]
			fileArgs = args[1:]
		}

		root, err := loadInputData(fileArgs, *lgr)
		if err != nil {
			if errors.Is(err, errShowHelp) {
				_ = cmd.Help()
				return
			}
			fmt.Fprintln(stderr, err)
			exit(2)
			return
		}

		if decodeNested {
			root = loader.RecursiveDecode(root)
		}

		var node any
		if expression != "" {
			engine, err := core.New()
			if err != nil {
				fmt.Fprintf(stderr, "failed to init evaluator: %v\n", err)
				exit(1)
				return
			}
			node, err = engine.Evaluate(expression, root)
			if err != nil {
				fmt.Fprintf(stderr, "expression error: %v\n", err)
				exit(2)
				return
			}
		} else {
			if expr.IsExpression(pathArg) && !quiet {
				fmt.Fprintf(stderr, "hint: %q looks like a CEL expression; pass it via --expr to evaluate it\n", pathArg)
			}
			var def any
			if cmd.Flags().Changed("default") {
				// Structured defaults ({"a":1}, [1,2]) decode; plain strings
				// pass through as-is.
				if decoded, ok := loader.TryDecode(defaultValue); ok {
					def = decoded
				} else {
					def = defaultValue
				}
			}
			opts := resolver.Options{
				NilAsMissing:         nullAsMissing,
				EmptyStringAsMissing: emptyAsMissing,
				DebugTrace:           debug && !quiet,
				Logger:               lgr,
			}
			node = resolver.ResolveWith(root, pathArg, def, opts)
		}

		if err := printResult(node); err != nil {
			fmt.Fprintln(stderr, err)
			exit(2)
		}
	},
}

// printResult renders the resolved node according to --output. "auto" prints
// scalars bare and containers as YAML on a terminal, compact JSON when piped.
func printResult(node any) error {
	switch output {
	case "auto":
		if isContainer(node) {
			if stdoutIsTerminal() {
				return writeYAML(node)
			}
			return writeJSON(node, false)
		}
		fmt.Fprintln(stdout, rawString(node))
		return nil
	case "yaml":
		return writeYAML(node)
	case "json":
		return writeJSON(node, true)
	case "compact":
		return writeJSON(node, false)
	case "raw":
		fmt.Fprintln(stdout, rawString(node))
		return nil
	default:
		return fmt.Errorf("invalid output format %q (expected auto|yaml|json|compact|raw)", output)
	}
}

// rawString renders a scalar for bare output. nil prints as "null" so that a
// present null leaf is distinguishable from an empty string.
func rawString(node any) string {
	if node == nil {
		return "null"
	}
	return formatter.Stringify(node)
}

func writeYAML(node any) error {
	s, err := formatter.FormatYAML(node, formatter.YAMLOptions{})
	if err != nil {
		return fmt.Errorf("failed to marshal yaml: %w", err)
	}
	fmt.Fprint(stdout, s)
	return nil
}

func writeJSON(node any, pretty bool) error {
	s, err := formatter.FormatJSON(node, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal json: %w", err)
	}
	fmt.Fprintln(stdout, s)
	return nil
}

// isContainer reports whether node renders as a multi-line document rather
// than a bare scalar line.
func isContainer(node any) bool {
	switch node.(type) {
	case nil:
		return false
	case map[string]any, []any:
		return true
	}
	switch reflect.ValueOf(node).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	default:
		return false
	}
}

func cliVersionString() string {
	v := settings.VersionInformation
	return fmt.Sprintf("%s %s (commit %s, built %s, go %s)",
		settings.CliBinaryName, v.BuildVersion, v.Commit, v.BuildTime, runtime.Version())
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print dotget version",
	RunE: func(_ *cobra.Command, _ []string) error {
		fmt.Fprintln(stdout, cliVersionString())
		return nil
	},
}

func init() { //nolint:gochecknoinits
	rootCmd.Flags().StringVarP(&defaultValue, "default", "d", "", "fallback value printed when the path does not resolve")
	rootCmd.Flags().BoolVar(&nullAsMissing, "null-as-missing", false, "treat null leaf values as missing (fall back to --default)")
	rootCmd.Flags().BoolVar(&emptyAsMissing, "empty-as-missing", false, "treat empty-string leaf values as missing (fall back to --default)")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "log resolution steps and format detection to stderr")
	rootCmd.Flags().StringVarP(&expression, "expr", "e", "", "CEL expression using '_' as root, instead of a path. Example: '_.items.filter(x, x.active)'")
	rootCmd.Flags().BoolVar(&decodeNested, "decode", false, "recursively decode serialized scalars (embedded JSON/YAML strings) before resolving")
	rootCmd.Flags().StringVarP(&output, "output", "o", "auto", "output format: auto|yaml|json|compact|raw")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "suppress all diagnostics; print only the result")
	rootCmd.Version = cliVersionString()
	rootCmd.SetVersionTemplate("{{.Version}}\n")
	rootCmd.AddCommand(versionCmd)
}

func Execute() error {
	return rootCmd.Execute()
}
