// Command unbundle repairs module graphs recovered from production
// bundles: it regenerates directory indexes, resolves missing exports, and
// materializes transitively referenced bundle files.
package main

import (
	"fmt"
	"os"

	"github.com/gnana997/unbundle/pkg/pipeline"
	"github.com/gnana997/unbundle/pkg/util"
)

const version = "0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "indexes":
		os.Exit(runIndexes(args))
	case "exports":
		os.Exit(runExports(args))
	case "cascade":
		os.Exit(runCascade(args))
	case "watch":
		os.Exit(runWatch(args))
	case "serve":
		os.Exit(runServe(args))
	case "version":
		fmt.Printf("unbundle %s\n", version)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// newPipeline builds the shared stack with logging per the config file.
func newPipeline(cfg Config) (*pipeline.Pipeline, error) {
	logCfg := util.DefaultLoggerConfig()
	if cfg.LogLevel != "" {
		logCfg.Level = util.LogLevel(cfg.LogLevel)
	}
	if cfg.LogFormat != "" {
		logCfg.Format = util.LogFormat(cfg.LogFormat)
	}
	return pipeline.New(util.NewLogger(logCfg))
}

// flagValue extracts "--name value" from args. Single occurrence only.
func flagValue(args []string, name string) (string, bool) {
	for i, arg := range args {
		if arg == "--"+name && i+1 < len(args) {
			return args[i+1], true
		}
	}
	return "", false
}

func hasFlag(args []string, name string) bool {
	for _, arg := range args {
		if arg == "--"+name {
			return true
		}
	}
	return false
}

// positional returns the first argument that is not a flag or a flag value.
func positional(args []string) (string, bool) {
	skip := false
	for _, arg := range args {
		if skip {
			skip = false
			continue
		}
		if len(arg) > 2 && arg[:2] == "--" {
			skip = arg != "--write" && arg != "--dry-run"
			continue
		}
		return arg, true
	}
	return "", false
}

func printUsage() {
	fmt.Println("Usage: unbundle <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  indexes <root> [--write]             Regenerate directory index files")
	fmt.Println("  exports <root> --source <specifier>  Resolve missing exports for one specifier")
	fmt.Println("  cascade <bundlesDir> [--static-dir d] [--base-url u] [--max-iterations n]")
	fmt.Println("                                       Materialize transitively referenced bundle files")
	fmt.Println("  watch <root>                         Re-run index reconstruction on changes")
	fmt.Println("  serve                                Start MCP server on stdin/stdout")
	fmt.Println("  version                              Print version")
	fmt.Println("  help                                 Show this help message")
}
