package app

import (
	"fmt"
	"os"
	"strings"
)

// Run executes the CLI command and returns a process exit code.
func Run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "help", "--help", "-h":
		printUsage()
		return 0
	case "run", "serve":
		return runBot(args[1:])
	case "health":
		return runHealth(args[1:])
	case "translate":
		return runTranslate(args[1:])
	case "languages":
		return runLanguages(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", args[0])
		printUsage()
		return 2
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "glossa CLI")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Usage:")
	fmt.Fprintln(os.Stderr, "  glossa <command> [flags]")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  run        Connect to the chat gateway and translate messages")
	fmt.Fprintln(os.Stderr, "  serve      Alias for run")
	fmt.Fprintln(os.Stderr, "  health     Verify provider and storage configuration")
	fmt.Fprintln(os.Stderr, "  translate  Translate one text from the command line")
	fmt.Fprintln(os.Stderr, "  languages  List the supported languages")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Use \"glossa <command> -h\" for command-specific flags.")
}
