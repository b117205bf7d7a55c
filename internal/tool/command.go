// Package tool dispatches the podgen CLI's subcommands.
package tool

import (
	"context"
	"fmt"
	"os"
	"sort"

	"golang.org/x/exp/maps"
)

type Command struct {
	Name        string
	Description string
	Help        string
	Fn          func(ctx context.Context, args []string) error
}

func Run(commands map[string]*Command, args []string) {
	if len(args) == 0 {
		usage(commands)
		os.Exit(1)
	}

	cmd, ok := commands[args[0]]
	if !ok {
		_, _ = fmt.Fprintf(os.Stderr, "command %q not found\n", args[0])
		usage(commands)
		os.Exit(1)
	}

	if err := cmd.Fn(context.Background(), args[1:]); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "command %q failed: %v\n", cmd.Name, err)
		os.Exit(1)
	}
}

func usage(commands map[string]*Command) {
	names := maps.Keys(commands)
	sort.Strings(names)

	_, _ = fmt.Fprintln(os.Stderr, "Available commands:")
	for _, name := range names {
		_, _ = fmt.Fprintf(os.Stderr, "  %-10s %s\n", name, commands[name].Description)
	}
}
