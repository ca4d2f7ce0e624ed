package main

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___  ___   ___  ___ _____
  | _ \/ _ \ / _ \/ __|_   _|
  |   / (_) | (_) \__ \ | |
  |_|_\\___/ \___/|___/ |_|

  Local post archive and static snapshot builder

  Usage: roost <command> [options]
         roost --help

  MCP server mode requires piped input.`)
}

func main() {
	args := os.Args
	if len(args) < 2 {
		// No args + interactive terminal → show banner and exit
		if isTerminal() {
			printBanner()
			return
		}
		// Piped stdin with no command → MCP server
		args = append(args, "mcp")
	}

	app := newCLIApp(&session{})
	if err := app.Run(args); err != nil {
		code := 1
		var exitErr cli.ExitCoder
		if stderrors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		if msg := err.Error(); msg != "" {
			fmt.Fprintf(os.Stderr, "error: %s\n", msg)
		}
		os.Exit(code)
	}
}
