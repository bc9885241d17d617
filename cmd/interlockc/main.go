package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "compile":
		if err := compile(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "inspect":
		if err := inspect(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "prove":
		if err := prove(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Println("interlockc version 1.0.0")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`interlockc - interlocking table compiler

Usage:
  interlockc <command> [options]

Commands:
  compile    Compile station interlocking tables into a SQLite database
  inspect    Show locks, condition trees and signal chains from a database
  prove      Build and prove the arithmetic circuit of one lock
  help       Show this help message
  version    Show version information

Examples:
  # Compile every station table under tables/ into interlock.db
  interlockc compile --tables tables --topology topology.json --adjacency stations.hcl --db interlock.db

  # Show the locks of one route
  interlockc inspect --db interlock.db TH65_１２Ｌ

  # Prove a lock evaluation
  interlockc prove --db interlock.db --lock 3

For command-specific help, run:
  interlockc <command> --help`)
}
