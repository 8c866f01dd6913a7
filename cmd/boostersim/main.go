package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
)

// Version and BuildDate can be set at build time via ldflags.
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)

const AppName = "boostersim"

const usage = `usage: boostersim <command> [flags]

commands:
  serve      run the real-time simulation behind the HTTP API (default)
  headless   fly a fixed-step simulation and write telemetry CSV
  export     write the JSON recording of a stored flight run
  version    print the version`

func main() {
	if err := run(os.Args[1:]); err != nil && !errors.Is(err, pflag.ErrHelp) {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cmd := "serve"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd = strings.ToLower(args[0])
		args = args[1:]
	}

	switch cmd {
	case "serve":
		return runServe(args)
	case "headless":
		return runHeadless(args)
	case "export":
		return runExport(args)
	case "version":
		fmt.Printf("%s %s (built %s)\n", AppName, Version, BuildDate)
		return nil
	case "help":
		fmt.Println(usage)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

// sessionStart names log, dump and backup files for this process.
var sessionStart = time.Now()
