// Command podgen generates binary codec methods for marked struct types.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/kanengo/podgen/internal/codegen"
	"github.com/kanengo/podgen/internal/tool"
	"github.com/kanengo/podgen/runtime/logging"
	"github.com/kanengo/podgen/runtime/version"
)

//go:generate go install

const usage = `USAGE

	podgen generate [packages]	// generate codec methods
	podgen version			// print the tool version
`

func main() {
	slog.SetDefault(slog.New(logging.NewLogHandler(os.Stderr, logging.Options{
		Tool:    "podgen",
		Version: version.ToolVersion.String(),
	}, slog.LevelInfo)))

	flag.Usage = func() {
		_, _ = fmt.Fprint(os.Stderr, usage)
	}
	flag.Parse()

	commands := map[string]*tool.Command{
		"generate": {
			Name:        "generate",
			Description: "Generate codec methods",
			Help:        codegen.Usage,
			Fn: func(_ context.Context, args []string) error {
				if len(args) == 1 && (args[0] == "-h" || args[0] == "--help") {
					fmt.Fprintln(os.Stderr, codegen.Usage)
					return nil
				}
				pkgs := args
				if len(pkgs) == 0 {
					pkgs = []string{"."}
				}
				if err := codegen.Generate(".", pkgs); err != nil {
					return err
				}
				slog.Info("codec generation complete", "packages", pkgs)
				return nil
			},
		},
		"version": {
			Name:        "version",
			Description: "Print the tool version",
			Help:        "Usage:\n  podgen version",
			Fn: func(context.Context, []string) error {
				fmt.Printf("podgen %s\n", version.ToolVersion)
				return nil
			},
		},
	}

	tool.Run(commands, flag.Args())
}
