// Command repl is an interactive front end to the GQL parser. It reads
// statements from the terminal, parses them and prints the resulting tree.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	docopt "github.com/docopt/docopt-go"
	"github.com/google/uuid"
	"github.com/muesli/termenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"graphene/gql"
	"graphene/highlight"
)

const usage = `repl is an interactive parser for GQL queries.

With no FILE, statements are read from standard input. A statement runs once
a line ends with ';' or an empty line is entered. With FILEs, each file is
parsed as one query and the results are printed in order.

Usage:
  repl [--log-level=LEVEL --json --workers=NUM --plain] [FILE...]

Options:
  --log-level=LEVEL    Logging level: trace, debug, info, warn, error [default: warn]
  --json               Write logs as JSON.
  --workers=NUM        Number of files parsed at once, 0 for no limit [default: 4]
  --plain              Do not colorize output.
`

type options struct {
	LogLevel      string `docopt:"--log-level"`
	JSON          bool   `docopt:"--json"`
	Workers       int
	WorkersString string   `docopt:"--workers"`
	Plain         bool     `docopt:"--plain"`
	Files         []string `docopt:"FILE"`
}

func parseArgs(argv []string) (*options, error) {
	opts, err := docopt.ParseArgs(usage, argv, "")
	if err != nil {
		return nil, fmt.Errorf("error parsing command-line arguments: %w", err)
	}
	var options options
	if err := opts.Bind(&options); err != nil {
		return nil, fmt.Errorf("error binding command-line arguments: %w", err)
	}
	options.Workers, err = strconv.Atoi(options.WorkersString)
	if err != nil {
		return nil, fmt.Errorf("invalid --workers %q: %w", options.WorkersString, err)
	}
	return &options, nil
}

// queryError reports a failed parse with the offending line marked.
type queryError struct {
	input string
	err   error
}

func (e *queryError) Error() string {
	return gql.Annotate(e.input, e.err)
}

func (e *queryError) Unwrap() error {
	return e.err
}

// replState holds the state of the REPL
type replState struct {
	logger     *logrus.Logger
	out        io.Writer
	theme      highlight.Theme
	errorStyle lipgloss.Style
	pending    []string
	queryNum   int
	isRunning  bool
}

// newReplState initializes the REPL state
func newReplState(logger *logrus.Logger, out io.Writer, plain bool) *replState {
	r := lipgloss.NewRenderer(out)
	if plain {
		r.SetColorProfile(termenv.Ascii)
	}
	return &replState{
		logger:     logger,
		out:        out,
		theme:      highlight.DefaultTheme(r),
		errorStyle: r.NewStyle().Foreground(lipgloss.Color("203")).TabWidth(lipgloss.NoTabConversion),
		isRunning:  true,
	}
}

// executeQuery parses one query text and prints its tree
func (rs *replState) executeQuery(query string) error {
	rs.queryNum++
	log := rs.logger.WithFields(logrus.Fields{
		"component": "Main",
		"query_id":  uuid.New().String(),
		"query_num": rs.queryNum,
	})
	log.WithField("query", query).Debug("Parsing query")
	q, err := gql.Parse(query)
	if err != nil {
		log.WithError(err).Warn("Failed to parse query")
		return &queryError{input: query, err: err}
	}
	if len(q.Statements) == 0 {
		fmt.Fprintln(rs.out, "No statements")
	} else {
		fmt.Fprint(rs.out, gql.Dump(q))
	}
	log.WithField("statements", len(q.Statements)).Info("Query parsed")
	return nil
}

// printTokens lists every token of text with its position
func (rs *replState) printTokens(text string) {
	for _, e := range highlight.Tokens(text, rs.theme) {
		line := fmt.Sprintf("%4d:%-4d %-16s %s", e.Token.Line, e.Token.Column, e.Token.Type, e.Styled)
		if e.Token.Err != nil {
			line += "  " + rs.errorStyle.Render(e.Token.Err.Error())
		}
		fmt.Fprintln(rs.out, strings.TrimRight(line, " "))
	}
}

// printStats writes the parser's metrics as collected so far
func (rs *replState) printStats() error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	var lines []string
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "graphene_gql_") {
			continue
		}
		for _, m := range mf.GetMetric() {
			var labels []string
			for _, lp := range m.GetLabel() {
				labels = append(labels, lp.GetName()+"="+lp.GetValue())
			}
			name := mf.GetName()
			if len(labels) > 0 {
				name += "{" + strings.Join(labels, ",") + "}"
			}
			switch {
			case m.GetCounter() != nil:
				lines = append(lines, fmt.Sprintf("  %s %v", name, m.GetCounter().GetValue()))
			case m.GetHistogram() != nil:
				h := m.GetHistogram()
				lines = append(lines, fmt.Sprintf("  %s count=%d sum=%v", name, h.GetSampleCount(), h.GetSampleSum()))
			}
		}
	}
	sort.Strings(lines)
	fmt.Fprintln(rs.out, "Parser metrics:")
	for _, line := range lines {
		fmt.Fprintln(rs.out, line)
	}
	return nil
}

// printHelp displays the help message
func (rs *replState) printHelp() {
	fmt.Fprintln(rs.out, "GQL REPL Commands:")
	fmt.Fprintln(rs.out, "  .help                     Show this help message")
	fmt.Fprintln(rs.out, "  .exit                     Exit the REPL")
	fmt.Fprintln(rs.out, "  .tokens <text>            List the tokens of <text>")
	fmt.Fprintln(rs.out, "  .stats                    Show parser metrics")
	fmt.Fprintln(rs.out, "Statements (end with ';' or an empty line):")
	fmt.Fprintln(rs.out, "  create type %Person(name:str, age:int);")
	fmt.Fprintln(rs.out, "  create relation $knows %Person %Person;")
	fmt.Fprintln(rs.out, "  explain match (a:%Person)-(knows)->(b:%Person);")
	fmt.Fprintln(rs.out, "Type '.exit' or 'quit' to exit.")
}

// processCommand handles a REPL command
func (rs *replState) processCommand(input string) error {
	command, arg, _ := strings.Cut(input, " ")
	switch strings.ToLower(command) {
	case ".help":
		rs.printHelp()
		return nil
	case ".exit", "quit":
		rs.isRunning = false
		return nil
	case ".tokens":
		rs.printTokens(arg)
		return nil
	case ".stats":
		return rs.printStats()
	default:
		return fmt.Errorf("unknown command: %s; type '.help' for assistance", input)
	}
}

// processLine handles one line of input, running the pending statement
// once it is complete
func (rs *replState) processLine(line string) error {
	trimmed := strings.TrimSpace(line)
	if len(rs.pending) == 0 {
		if trimmed == "" {
			return nil
		}
		if strings.HasPrefix(trimmed, ".") || strings.EqualFold(trimmed, "quit") {
			return rs.processCommand(trimmed)
		}
	}
	if trimmed != "" {
		rs.pending = append(rs.pending, line)
		if !strings.HasSuffix(trimmed, ";") {
			return nil
		}
	}
	query := strings.Join(rs.pending, "\n")
	rs.pending = nil
	return rs.executeQuery(query)
}

func (rs *replState) printError(err error) {
	for _, line := range strings.Split("Error: "+err.Error(), "\n") {
		fmt.Fprintln(rs.out, rs.errorStyle.Render(line))
	}
}

// runREPL runs the REPL loop
func (rs *replState) runREPL(in io.Reader) {
	rs.logger.WithField("component", "Main").Info("Starting GQL REPL")
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(rs.out, "Welcome to the GQL REPL. Type '.help' for commands or 'quit' to exit.")

	for rs.isRunning {
		prompt := "gql> "
		if len(rs.pending) > 0 {
			prompt = "...> "
		}
		fmt.Fprint(rs.out, prompt)
		if !scanner.Scan() {
			break
		}
		if err := rs.processLine(scanner.Text()); err != nil {
			rs.printError(err)
		}
	}
	if len(rs.pending) > 0 && rs.isRunning {
		fmt.Fprintln(rs.out)
		if err := rs.processLine(""); err != nil {
			rs.printError(err)
		}
	}
	fmt.Fprintln(rs.out, "Goodbye!")
}

// runFiles parses every file as one query and prints the results in
// argument order. It reports whether all of them parsed.
func (rs *replState) runFiles(ctx context.Context, files []string, workers int) (bool, error) {
	inputs := make([]string, len(files))
	for i, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return false, fmt.Errorf("failed to read %s: %w", file, err)
		}
		inputs[i] = string(data)
	}
	results, err := gql.ParseAll(ctx, inputs, workers)
	if err != nil {
		return false, fmt.Errorf("failed to parse files: %w", err)
	}
	ok := true
	for i, res := range results {
		fmt.Fprintf(rs.out, "== %s\n", files[i])
		if res.Err != nil {
			ok = false
			rs.logger.WithFields(logrus.Fields{
				"component": "Main",
				"file":      files[i],
			}).WithError(res.Err).Warn("Failed to parse file")
			rs.printError(&queryError{input: inputs[i], err: res.Err})
			continue
		}
		fmt.Fprint(rs.out, gql.Dump(res.Query))
	}
	return ok, nil
}

func newLogger(opts *options) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	// The parser logs through the standard logger, so configure that one.
	logger := logrus.StandardLogger()
	logger.SetOutput(os.Stderr)
	logger.SetLevel(level)
	if opts.JSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, nil
}

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		logrus.Fatal(err)
	}
	logger, err := newLogger(opts)
	if err != nil {
		logrus.Fatal(err)
	}
	rs := newReplState(logger, os.Stdout, opts.Plain)
	if len(opts.Files) == 0 {
		rs.runREPL(os.Stdin)
		return
	}
	ok, err := rs.runFiles(context.Background(), opts.Files, opts.Workers)
	if err != nil {
		rs.printError(err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}
