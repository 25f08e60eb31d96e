// Command isa-interprerter is the CLI front end of spec §6. It is a
// trivial wrapper around the core (spec §1): it parses flags, loads
// programs, and hands off to one of the two interactive front ends. The
// flag layout and exit-code discipline are grounded on the teacher's
// main.go.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/K-dizzled/isa-interprerter/config"
	"github.com/K-dizzled/isa-interprerter/loader"
	"github.com/K-dizzled/isa-interprerter/machine"
	"github.com/K-dizzled/isa-interprerter/machine/stats"
	"github.com/K-dizzled/isa-interprerter/repl"
	"github.com/K-dizzled/isa-interprerter/tui"
)

// runLog is the aborts logger: constructed the way the teacher's service
// package builds serviceLog (conditional destination), defaulting to
// stderr so parse/runtime aborts are always visible, optionally also
// duplicated to -log-file.
var runLog *log.Logger = log.New(os.Stderr, "", log.Ltime)

// Exit codes (spec §6).
const (
	exitOK         = 0
	exitUsage      = 1
	exitParseError = 2
	exitRuntimeErr = 3
)

var (
	Version = "dev" // overridable with -ldflags "-X main.Version=..."
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 || (args[0] != "run" && args[0] != "-version" && args[0] != "-help") {
		printUsage()
		return exitUsage
	}

	if args[0] == "-version" {
		fmt.Printf("isa-interprerter %s\n", Version)
		return exitOK
	}
	if args[0] == "-help" {
		printUsage()
		return exitOK
	}

	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	modelFlag := fs.String("m", "", "memory model: SC, TSO or PSO")
	pathsFlag := fs.String("p", "", "comma-separated list of program files, one per thread")
	tuiFlag := fs.Bool("tui", false, "use the full-screen TUI front end")
	configFlag := fs.String("config", "", "path to a TOML config file (default: platform config dir)")
	logFileFlag := fs.String("log-file", "", "also write aborts to this file, in addition to stderr")
	if err := fs.Parse(args[1:]); err != nil {
		return exitUsage
	}
	setupLogging(*logFileFlag)

	cfg, cfgErr := loadConfig(*configFlag)
	if cfgErr != nil {
		runLog.Println("config error:", cfgErr)
		return exitUsage
	}

	modelName := *modelFlag
	if modelName == "" {
		modelName = cfg.Execution.DefaultModel
	}
	model, err := machine.ParseModelKind(modelName)
	if err != nil {
		runLog.Println("usage error:", err)
		return exitUsage
	}

	if *pathsFlag == "" {
		runLog.Println("usage error: -p <PATHS> is required")
		return exitUsage
	}

	// Loading only ever fails at parse time: UnknownLabel is an issue-time
	// error the step engine raises later, from Apply (spec §4.1, §7).
	state, err := loader.NewMachine(*pathsFlag, model)
	if err != nil {
		runLog.Println("parse error:", err)
		return exitParseError
	}

	collector := stats.NewCollector(cfg.Statistics.Enabled || cfg.Trace.Enabled, cfg.Interactive.HistorySize)
	collector.Start()
	defer writeDiagnostics(cfg, collector)

	if *tuiFlag {
		t := tui.New(state).WithStats(collector).WithNumberFormat(cfg.Display.NumberFormat)
		if err := t.Run(); err != nil {
			runLog.Println("runtime error:", err)
			return exitRuntimeErr
		}
		return exitOK
	}

	front := repl.New(state, os.Stdin, os.Stdout, cfg.Interactive.HistorySize).WithStats(collector).WithNumberFormat(cfg.Display.NumberFormat)
	if err := front.Run(); err != nil {
		runLog.Println("runtime error:", err)
		return exitRuntimeErr
	}
	return exitOK
}

// setupLogging reconstructs runLog's destination the way the teacher's
// service package conditionally builds serviceLog: stderr always, and a
// second copy duplicated to -log-file when one is given.
func setupLogging(logFile string) {
	if logFile == "" {
		runLog = log.New(os.Stderr, "", log.Ltime)
		return
	}
	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		runLog = log.New(os.Stderr, "", log.Ltime)
		runLog.Println("could not open -log-file, logging to stderr only:", err)
		return
	}
	runLog = log.New(io.MultiWriter(os.Stderr, f), "", log.Ltime)
}

// writeDiagnostics persists the collector's JSON summary and/or trace to
// the files named in config, matching the teacher's "always write what was
// enabled on exit" behavior for its own statistics/trace toggles.
func writeDiagnostics(cfg *config.Config, c *stats.Collector) {
	if cfg.Statistics.Enabled {
		f, err := os.Create(cfg.Statistics.OutputFile)
		if err == nil {
			defer f.Close()
			_ = c.ExportJSON(f)
		}
	}
	if cfg.Trace.Enabled {
		f, err := os.Create(cfg.Trace.OutputFile)
		if err == nil {
			defer f.Close()
			for _, line := range c.Trace() {
				fmt.Fprintln(f, line)
			}
		}
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `isa-interprerter — interactive weak-memory interleaving interpreter

Usage:
  isa-interprerter run -m <SC|TSO|PSO> -p <file1,file2,...> [-tui] [-config <path>]
  isa-interprerter -version
  isa-interprerter -help

Flags:
  -m       memory model to interpret under (SC, TSO or PSO)
  -p       comma-separated program files, one per thread, indexed by position
  -tui     use the full-screen TUI front end instead of the plain prompt
  -config  path to a TOML config file (default: platform config dir)
  -log-file  also write aborts to this file, in addition to stderr

Interactive commands: <index> | exit | memory | registers | stats | graph <path>`)
}
