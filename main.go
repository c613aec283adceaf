package main

import (
	"fmt"
	"os"

	"github.com/mrlokans/librarium/internal/cli"
	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "import-books":
		cmd := cli.NewImportBooksCommand()
		if err := cmd.ParseFlags(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := cmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "create-admin":
		cmd := cli.NewCreateAdminCommand()
		if err := cmd.ParseFlags(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := cmd.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "version":
		fmt.Printf("librarium %s (%s)\n", Version, Commit)

	case "help", "-h", "--help":
		printUsage()

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Printf(`Librarium - library management service

Usage: %s [command] [options]

Commands:
  serve          Run the HTTP server (default when no command is given)
  import-books   Import a book catalog from a CSV file
  create-admin   Create an administrator account for local auth mode
  version        Print version information
  help           Show this help

Run '%s <command> -h' for command-specific options.
`, os.Args[0], os.Args[0])
}
