package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"plume/internal/compiler"
	"plume/internal/config"
	"plume/internal/diag"
	"plume/internal/heap"
	"plume/internal/image"
	"plume/internal/lexer"
	"plume/internal/object"
	"plume/internal/repl"
	"plume/internal/token"
	"plume/internal/vm"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

// Exit statuses follow sysexits.h.
const (
	exitOK      = 0
	exitUsage   = 64
	exitData    = 65
	exitRuntime = 70
	exitIO      = 74
)

const imageExt = ".plmc"

var log = commonlog.GetLogger("plume.cli")

type options struct {
	tokens    bool
	dis       bool
	trace     bool
	config    string
	maxFrames int
	maxMemory int64
	verbosity int
	set       map[string]bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "usage: plume [flags] [script.plm]")
	fmt.Fprintln(w, "       plume [flags] run <script.plm|image.plmc>")
	fmt.Fprintln(w, "       plume [flags] build [-o out.plmc] <script.plm>")
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fl := flag.NewFlagSet("plume", flag.ContinueOnError)
	fl.SetOutput(stderr)
	fl.Usage = func() {
		usage(stderr)
		fl.PrintDefaults()
	}

	var opts options
	fl.BoolVar(&opts.tokens, "tokens", false, "print tokens instead of running")
	fl.BoolVar(&opts.dis, "dis", false, "print the bytecode listing of every function")
	fl.BoolVar(&opts.trace, "trace", false, "trace the stack and each instruction while running")
	fl.StringVar(&opts.config, "config", "", "read settings from `file` instead of searching for "+config.FileName)
	fl.IntVar(&opts.maxFrames, "max-frames", 0, "maximum call depth")
	fl.Int64Var(&opts.maxMemory, "max-memory", 0, "heap limit in bytes, 0 for unlimited")
	fl.IntVar(&opts.verbosity, "v", 0, "log verbosity")
	if err := fl.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	opts.set = map[string]bool{}
	fl.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	rest := fl.Args()
	cmd := "run"
	if len(rest) > 0 && (rest[0] == "run" || rest[0] == "build") {
		cmd, rest = rest[0], rest[1:]
	} else if len(rest) == 0 {
		cmd = "repl"
	}

	switch cmd {
	case "build":
		return runBuild(rest, &opts, stdout, stderr)
	case "repl":
		cfg, status := loadConfig(&opts, ".", stderr)
		if status != exitOK {
			return status
		}
		m := newVM(cfg, stdout, stderr)
		defer m.Free()
		interactive := false
		if f, ok := stdin.(*os.File); ok {
			interactive = repl.IsInteractive(f)
		}
		repl.Start(stdin, stdout, m, interactive)
		return exitOK
	default:
		if len(rest) != 1 {
			usage(stderr)
			return exitUsage
		}
		return runFile(rest[0], &opts, stdout, stderr)
	}
}

// loadConfig reads -config or the nearest plume.toml above dir, applies
// flag overrides and configures logging.
func loadConfig(opts *options, dir string, stderr io.Writer) (*config.Config, int) {
	var (
		cfg *config.Config
		err error
	)
	if opts.config != "" {
		cfg, err = config.Load(opts.config)
	} else {
		cfg, err = config.FindAndLoad(dir)
	}
	if err != nil {
		fmt.Fprintln(stderr, "config error:", err)
		return nil, exitUsage
	}

	if opts.set["max-frames"] {
		cfg.VM.MaxFrames = opts.maxFrames
	}
	if opts.set["max-memory"] {
		cfg.VM.MaxMemory = opts.maxMemory
	}
	if opts.set["v"] {
		cfg.Log.Verbosity = opts.verbosity
	}
	if opts.dis {
		cfg.Debug.PrintCode = true
	}
	if opts.trace {
		cfg.Debug.TraceExecution = true
	}

	var logPath *string
	if cfg.Log.File != "" {
		logPath = &cfg.Log.File
	}
	commonlog.Configure(cfg.Log.Verbosity, logPath)
	if cfg.Path != "" {
		log.Infof("config loaded from %s", cfg.Path)
	}
	return cfg, exitOK
}

func newVM(cfg *config.Config, stdout, stderr io.Writer) *vm.VM {
	m := vm.New()
	m.SetOutput(stdout)
	m.SetErrorOutput(stderr)
	m.SetMaxFrames(cfg.VM.MaxFrames)
	m.SetMaxMemory(cfg.VM.MaxMemory)
	if cfg.Debug.PrintCode {
		m.SetListing(stdout)
	}
	if cfg.Debug.TraceExecution {
		m.SetTrace(stdout)
	}
	return m
}

func runFile(path string, opts *options, stdout, stderr io.Writer) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stderr, "read error:", err)
		return exitIO
	}

	if opts.tokens {
		if image.IsImage(data) {
			fmt.Fprintf(stderr, "%s is a bytecode image; -tokens needs source\n", path)
			return exitUsage
		}
		dumpTokens(stdout, string(data))
		return exitOK
	}

	cfg, status := loadConfig(opts, filepath.Dir(path), stderr)
	if status != exitOK {
		return status
	}
	m := newVM(cfg, stdout, stderr)
	defer m.Free()

	var res vm.Result
	if image.IsImage(data) {
		fn, err := image.Unmarshal(data, m.Heap())
		if err != nil {
			fmt.Fprintf(stderr, "%s: %v\n", path, err)
			return exitData
		}
		log.Debugf("loaded image %s", path)
		if cfg.Debug.PrintCode {
			listFunctions(stdout, fn)
		}
		res = m.Execute(fn)
	} else {
		res = m.Interpret(string(data))
	}
	return resultStatus(res)
}

func resultStatus(res vm.Result) int {
	switch res {
	case vm.ResultCompileError:
		return exitData
	case vm.ResultRuntimeError:
		return exitRuntime
	default:
		return exitOK
	}
}

func runBuild(args []string, opts *options, stdout, stderr io.Writer) int {
	fl := flag.NewFlagSet("build", flag.ContinueOnError)
	fl.SetOutput(stderr)
	out := fl.String("o", "", "write the image to `file` (default: script name with "+imageExt+")")
	if err := fl.Parse(args); err != nil {
		return exitUsage
	}
	if fl.NArg() != 1 {
		usage(stderr)
		return exitUsage
	}
	path := fl.Arg(0)
	if *out == "" {
		*out = strings.TrimSuffix(path, filepath.Ext(path)) + imageExt
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintln(stderr, "read error:", err)
		return exitIO
	}
	cfg, status := loadConfig(opts, filepath.Dir(path), stderr)
	if status != exitOK {
		return status
	}

	h := heap.New()
	defer h.Free()
	c := compiler.New(string(data), h)
	if cfg.Debug.PrintCode {
		c.SetListing(stdout)
	}
	fn, err := c.Compile()
	if err != nil {
		return reportCompileError(stderr, err)
	}
	if err := image.WriteFile(*out, fn); err != nil {
		fmt.Fprintln(stderr, "write error:", err)
		var pathErr *fs.PathError
		if errors.As(err, &pathErr) {
			return exitIO
		}
		return exitData
	}
	log.Infof("wrote %s", *out)
	return exitOK
}

func reportCompileError(stderr io.Writer, err error) int {
	var list diag.List
	if errors.As(err, &list) {
		for _, d := range list {
			fmt.Fprintln(stderr, d.Format())
		}
	} else {
		fmt.Fprintln(stderr, err)
	}
	return exitData
}

func dumpTokens(w io.Writer, src string) {
	l := lexer.New(src)
	for {
		tok := l.NextToken()
		fmt.Fprintf(w, "%4d:%-3d  %-10s  %q\n", tok.Line, tok.Col, tok.Type, tok.Literal)
		if tok.Type == token.EOF {
			break
		}
	}
}

// listFunctions prints a loaded image the way the compiler lists a fresh
// compilation: nested functions before the function that declares them.
func listFunctions(w io.Writer, fn *object.Function) {
	for _, v := range fn.Chunk.Constants {
		if inner, ok := v.AsFunction(); ok {
			listFunctions(w, inner)
		}
	}
	name := fn.DisplayName()
	if fn.Name == nil {
		name = "<script>"
	}
	compiler.DisassembleChunk(w, fn.Chunk, name)
}
