// Command chrysanthemum type checks and evaluates lambda calculus
// expressions from files, standard input, the command line or a REPL.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/omentic/chrysanthemum/ast"
	"github.com/omentic/chrysanthemum/parser"
	"github.com/omentic/chrysanthemum/prelude"
	"github.com/omentic/chrysanthemum/repl"
	"github.com/omentic/chrysanthemum/types"
)

var (
	mode        repl.Mode
	expr        string
	preludeFile string
	trace       bool
	maxDepth    int
	historyFile string
)

func init() {
	flag.Var(&mode, "mode", "what to do with each expression: infer, check or execute")
	flag.StringVar(&expr, "e", "", "run a single command")
	flag.StringVar(&preludeFile, "prelude", "", "YAML file of bindings and implementations to load first")
	flag.BoolVar(&trace, "trace", false, "trace checking, parsing and evaluation to stderr")
	flag.IntVar(&maxDepth, "max-depth", types.DefaultMaxDepth, "expression nesting limit")
	flag.StringVar(&historyFile, "history", "", "REPL history file")
}

func main() {
	flag.Usage = printUsage
	flag.Parse()

	opts := repl.Options{Mode: mode}
	opts.Types.MaxDepth = maxDepth
	opts.Eval.MaxDepth = maxDepth
	opts.Parser.MaxDepth = maxDepth
	if trace {
		opts.Types.Trace = os.Stderr
		opts.Eval.Trace = os.Stderr
		opts.Parser.Trace = os.Stderr
	}
	session := repl.NewSession(ast.NewContext(nil), opts)

	if preludeFile != "" {
		f, err := prelude.Load(os.DirFS(filepath.Dir(preludeFile)), filepath.Base(preludeFile))
		checkErr(err)
		checkErr(f.Apply(session.Context(), session.Checker()))
	}

	switch args := flag.Args(); {
	case expr != "":
		out, err := session.Eval(expr)
		checkErr(err)
		printOut(out)
	case len(args) > 0:
		failed := false
		for _, name := range args {
			if err := runFile(session, opts.Parser, name); err != nil {
				fmt.Fprintln(os.Stderr, err)
				failed = true
			}
		}
		if failed {
			os.Exit(1)
		}
	case !isTerminal(os.Stdin):
		exprs, err := opts.Parser.ParseReader("<stdin>", os.Stdin)
		checkErr(errors.Join(err, runAll(session, exprs)))
	default:
		fmt.Fprint(os.Stderr, "chrysanthemum\nType :help for commands. Press ctrl-c to quit or clear the current input.\n")
		checkErr(session.Run(historyFile))
	}
}

func runFile(session *repl.Session, cfg parser.Config, name string) error {
	exprs, err := cfg.ParseFile(os.DirFS(filepath.Dir(name)), filepath.Base(name))
	return errors.Join(err, runAll(session, exprs))
}

// runAll reports every failing expression and keeps going.
func runAll(session *repl.Session, exprs []ast.Expression) error {
	var errs error
	for _, x := range exprs {
		out, err := session.Do(x)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("%s: %w", x, err))
			continue
		}
		printOut(out)
	}
	return errs
}

func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	return err == nil && stat.Mode()&os.ModeCharDevice != 0
}

func printOut(out string) {
	if out != "" {
		fmt.Println(out)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, "Usage: chrysanthemum [options] [file.lam ...]\n")
	flag.PrintDefaults()
}

func checkErr(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
