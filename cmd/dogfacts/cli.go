package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/dogfacts/dogfacts/internal/errors"
	"github.com/dogfacts/dogfacts/internal/mcp"
	"github.com/dogfacts/dogfacts/internal/ops"
	"github.com/dogfacts/dogfacts/internal/store"
	"github.com/dogfacts/dogfacts/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *appEnv) *cli.App {
	app := &cli.App{
		Name:    "dogfacts",
		Usage:   "Serve and manage a collection of dog facts",
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "Config file (default: ~/.dogfacts/config.json or config.yaml)"},
			&cli.StringFlag{Name: "store", Usage: "Store backend: file|sqlite|redis|memory"},
			&cli.StringFlag{Name: "facts-file", Usage: "Fact document for the file store"},
			&cli.StringFlag{Name: "log-level", Usage: "Log level: debug|info|warn|error"},
		},
		Before: env.load,
		After: func(*cli.Context) error {
			return env.close()
		},
		Commands: []*cli.Command{
			serveCmd(env),
			mcpCmd(env),
			getCmd(env),
			addCmd(env),
			exportCmd(env),
			importCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// serveCmd creates the serve command.
func serveCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (default from config)"},
			&cli.BoolFlag{Name: "seed", Usage: "Write the built-in facts if the store is empty"},
		},
		Action: func(c *cli.Context) error {
			if addr := c.String("addr"); addr != "" {
				env.cfg.Addr = addr
			}

			st, err := env.openStore()
			if err != nil {
				return err
			}

			if c.Bool("seed") {
				seeded, err := store.Seed(c.Context, st, store.DefaultFacts())
				if err != nil {
					return outputError(err)
				}
				env.logger.Info("seed", zap.Bool("written", seeded))
			}

			srv := web.NewServer(st, env.cfg, env.logger, Version)
			return web.Run(c.Context, srv, env.logger)
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			if unknown := mcp.ValidateDisabledTools(env.cfg.DisabledTools); len(unknown) > 0 {
				env.logger.Warn("unknown tools in disabled_tools", zap.Strings("tools", unknown))
			}

			st, err := env.openStore()
			if err != nil {
				return err
			}
			return mcp.Run(st, env.cfg, env.logger, Version)
		},
	}
}

// getCmd creates the get command.
func getCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Print random facts",
		ArgsUsage: "<count>",
		Action: func(c *cli.Context) error {
			st, err := env.openStore()
			if err != nil {
				return err
			}

			count := 1
			if c.NArg() > 0 {
				if count, err = ops.ParseCount(c.Context, st, c.Args().First()); err != nil {
					return outputError(err)
				}
			}

			output, err := ops.GetFacts(c.Context, st, ops.GetInput{Count: count})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// addCmd creates the add command.
func addCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a fact (description from arguments or stdin)",
		ArgsUsage: "[description...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "token", Aliases: []string{"t"}, Required: true, Usage: "Shared write token"},
		},
		Action: func(c *cli.Context) error {
			description, err := readDescription(c)
			if err != nil {
				return outputError(err)
			}

			st, err := env.openStore()
			if err != nil {
				return err
			}

			output, err := ops.CreateFact(c.Context, st, env.cfg, ops.CreateInput{
				Description: description,
				Token:       c.String("token"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export facts to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output path (default: ~/.dogfacts/exports/facts-<timestamp>.jsonl)"},
		},
		Action: func(c *cli.Context) error {
			st, err := env.openStore()
			if err != nil {
				return err
			}

			output, err := ops.Export(c.Context, st, env.cfg, ops.ExportInput{Path: c.String("path")})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// importCmd creates the import command.
func importCmd(env *appEnv) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import facts from a JSONL export file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Input file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Duplicate mode: error|skip"},
			&cli.StringFlag{Name: "token", Aliases: []string{"t"}, Required: true, Usage: "Shared write token"},
		},
		Action: func(c *cli.Context) error {
			st, err := env.openStore()
			if err != nil {
				return err
			}

			output, err := ops.Import(c.Context, st, env.cfg, ops.ImportInput{
				Path:  c.String("path"),
				Mode:  ops.ImportMode(c.String("mode")),
				Token: c.String("token"),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// outputJSON writes indented JSON to w.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	fErr := errors.As(err)
	return cli.Exit(fmt.Sprintf("[%s] %s", fErr.Code, fErr.Message), 1)
}

// readDescription joins the positional arguments, or reads stdin when there
// are none. Only the trailing newline of stdin input is dropped.
func readDescription(c *cli.Context) (string, error) {
	if c.NArg() > 0 {
		return strings.Join(c.Args().Slice(), " "), nil
	}

	if f, ok := c.App.Reader.(*os.File); ok && isTerminal(f) {
		return "", errors.NewInvalidRequest("description is required (argument or stdin)")
	}

	data, err := io.ReadAll(c.App.Reader)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

// isTerminal returns true if f is a terminal (not piped).
func isTerminal(f *os.File) bool {
	stat, err := f.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) != 0
}
