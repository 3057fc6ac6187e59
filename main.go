package main

import (
	"fmt"
	"os"

	"github.com/openroad/driveadmin/internal/cli"
	"github.com/openroad/driveadmin/internal/config"
	"github.com/openroad/driveadmin/internal/entrypoint"
)

// Set at build time via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	// Bare invocation serves; everything else dispatches on the first arg.
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		entrypoint.Run(config.NewConfig(), Version)
		return
	}

	if err := dispatch(os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func dispatch(command string, args []string) error {
	switch command {
	case "seed-demo":
		cmd := cli.NewSeedDemoCommand()
		if err := cmd.ParseFlags(args); err != nil {
			return err
		}
		return cmd.Run()

	case "version":
		fmt.Printf("driveadmin %s (%s)\n", Version, Commit)
		return nil

	case "-h", "--help", "help":
		printUsage()
		return nil

	default:
		printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: %s <command> [options]

Commands:
  serve       Start the HTTP server (default if no command given)
  seed-demo   Populate a database with demo data
  version     Print version information

Use '%s <command> -h' for help on a specific command.
`, os.Args[0], os.Args[0])
}
