// Cheevocore evaluates achievement and leaderboard rules against emulated
// memory, one frame at a time.
// Usage: cheevocore [--version] [--plain] [--script <file>] [--trace] [--memory <dump>] [--memsize <bytes>] <rules_directory>
package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/nathoo/cheevocore/cli"
	"github.com/nathoo/cheevocore/engine"
	"github.com/nathoo/cheevocore/engine/parser"
	"github.com/nathoo/cheevocore/loader"
	"github.com/nathoo/cheevocore/memory"
	"github.com/nathoo/cheevocore/tui"
)

// Set via -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = "Usage: cheevocore [--version] [--plain] [--script <file>] [--trace] [--memory <dump>] [--memsize <bytes>] <rules_directory>\n"

func main() {
	plain := false
	trace := false
	var rulesDir string
	var scriptFile string
	var memoryFile string
	memSize := 0

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--version":
			fmt.Printf("cheevocore %s (commit %s, built %s)\n", version, commit, date)
			return
		case "--plain":
			plain = true
		case "--trace":
			trace = true
		case "--script", "--memory", "--memsize":
			if i+1 >= len(args) {
				fmt.Fprintf(os.Stderr, "%s requires a value\n", args[i])
				os.Exit(1)
			}
			i++
			switch args[i-1] {
			case "--script":
				scriptFile = args[i]
			case "--memory":
				memoryFile = args[i]
			case "--memsize":
				n, err := parser.ParseNumber(args[i])
				if err != nil || n == 0 {
					fmt.Fprintf(os.Stderr, "--memsize must be a positive number\n")
					os.Exit(1)
				}
				memSize = int(n)
			}
		default:
			if rulesDir == "" {
				rulesDir = args[i]
			}
		}
	}

	if rulesDir == "" {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	// Load and compile Lua rule files.
	set, err := loader.Load(rulesDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading rules: %v\n", err)
		os.Exit(1)
	}
	if memSize == 0 {
		memSize = set.MemorySize
	}

	var mem *memory.Image
	if memoryFile != "" {
		img, name, err := memory.LoadImage(memoryFile, memSize)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading memory: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Loaded %d bytes of memory from %s.\n", img.Size(), name)
		mem = img
	} else if memSize > 0 {
		mem = memory.NewImage(memSize)
	}

	eng, err := engine.New(set, mem)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Script mode: open file, force plain, echo commands.
	if scriptFile != "" {
		f, err := os.Open(scriptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening script: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		c := cli.New(eng)
		c.In = f
		c.EchoInput = true
		c.Trace = trace
		c.Run()
		return
	}

	// Use plain CLI if --plain flag or stdout is not a terminal.
	if plain || !term.IsTerminal(int(os.Stdout.Fd())) {
		c := cli.New(eng)
		c.Trace = trace
		c.Run()
		return
	}

	if err := tui.Run(eng); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
