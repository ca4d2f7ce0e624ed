package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/roost/internal/archive"
	"github.com/hpungsan/roost/internal/config"
	"github.com/hpungsan/roost/internal/db"
	"github.com/hpungsan/roost/internal/errors"
	"github.com/hpungsan/roost/internal/logger"
	"github.com/hpungsan/roost/internal/mcp"
	"github.com/hpungsan/roost/internal/ops"
	"github.com/hpungsan/roost/internal/twitter"
	"github.com/hpungsan/roost/internal/web"
)

// session holds what one invocation resolves from the global flags.
// The store is opened only by commands that need it.
type session struct {
	home  string
	cfg   *config.Config
	log   *slog.Logger
	store *db.Store

	// newFetcher and wire are replaced in tests.
	newFetcher func(cfg *config.Config, log *slog.Logger) (ops.PostFetcher, error)
	wire       func(d *ops.Deps)
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(s *session) *cli.App {
	app := &cli.App{
		Name:        "roost",
		Usage:       "Archive posts locally and render them as a static snapshot",
		Version:     Version,
		Description: "Environment variables:\n" + config.EnvHelp(),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "home", Usage: "Data directory (default: ~/.roost)", EnvVars: []string{"ROOST_HOME"}},
			&cli.StringFlag{Name: "log-level", Usage: "Log level: debug|info|warn|error (default: config log_level)"},
		},
		Before: s.setup,
		After:  s.teardown,
		Commands: []*cli.Command{
			addCmd(s),
			removeCmd(s),
			outputCmd(s),
			listCmd(s),
			exportCmd(s),
			importCmd(s),
			serveCmd(s),
			mcpCmd(s),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// setup resolves the data dir, configuration and logger.
func (s *session) setup(c *cli.Context) error {
	home := c.String("home")
	if home == "" {
		userHome, err := os.UserHomeDir()
		if err != nil {
			return outputError(errors.NewInvalidRequest(fmt.Sprintf("could not determine home directory: %v", err)))
		}
		home = filepath.Join(userHome, ".roost")
	}
	s.home = home

	cwd, err := os.Getwd()
	if err != nil {
		cwd = home
	}
	cfg, err := config.LoadWithRepo(home, cwd)
	if err != nil {
		return outputError(errors.NewInvalidRequest(fmt.Sprintf("failed to load config: %v", err)))
	}
	s.cfg = cfg

	level := cfg.LogLevel
	if c.IsSet("log-level") {
		level = c.String("log-level")
	}
	s.log = logger.New(logger.Opts{Level: level, Writer: c.App.ErrWriter})
	return nil
}

func (s *session) teardown(_ *cli.Context) error {
	if s.store == nil {
		return nil
	}
	err := s.store.Close()
	s.store = nil
	return err
}

// deps opens the store and wires the operation collaborators.
// withFetcher builds the API client; a construction failure is returned.
func (s *session) deps(c *cli.Context, withFetcher bool) (ops.Deps, error) {
	if s.store == nil {
		store, err := db.Open(c.Context, s.home)
		if err != nil {
			return ops.Deps{}, err
		}
		s.store = store
	}

	var fetcher ops.PostFetcher
	if withFetcher {
		f, err := s.fetcher()
		if err != nil {
			return ops.Deps{}, err
		}
		fetcher = f
	}

	d := ops.NewDeps(s.home, s.cfg, s.store, fetcher, s.log)
	if s.wire != nil {
		s.wire(&d)
	}
	return d, nil
}

func (s *session) fetcher() (ops.PostFetcher, error) {
	if s.newFetcher != nil {
		return s.newFetcher(s.cfg, s.log)
	}
	client, err := twitter.New(twitter.Options{
		Credentials: s.cfg.Twitter,
		BaseURL:     s.cfg.APIBaseURL,
		Timeout:     s.cfg.Timeout(),
		Logger:      s.log,
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// addCmd creates the add command.
func addCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Fetch a post, cache its images and archive it",
		ArgsUsage: "<post_url>",
		Action: func(c *cli.Context) error {
			if err := s.checkReference(c); err != nil {
				return err
			}

			d, err := s.deps(c, true)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Add(c.Context, d, ops.AddInput{URL: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// removeCmd creates the remove command.
func removeCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Usage:     "Remove archived posts matching a post URL",
		ArgsUsage: "<post_url>",
		Action: func(c *cli.Context) error {
			if err := s.checkReference(c); err != nil {
				return err
			}

			d, err := s.deps(c, false)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Remove(c.Context, d, ops.RemoveInput{URL: c.Args().First()})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// outputCmd creates the output command.
func outputCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "output",
		Usage: "Render every archived post into a new snapshot directory",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "root", Aliases: []string{"r"}, Usage: "Directory snapshots are created in (default: config output_root)"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Page title (default: config site_title)"},
		},
		Action: func(c *cli.Context) error {
			d, err := s.deps(c, false)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Output(c.Context, d, ops.OutputInput{
				Root:  c.String("root"),
				Title: c.String("title"),
			})
			if errors.Is(err, errors.ErrEmptyArchive) {
				fmt.Fprintln(c.App.Writer, "no posts found")
				return nil
			}
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// listCmd creates the list command.
func listCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List archived posts",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "handle", Usage: "Filter by author handle"},
		},
		Action: func(c *cli.Context) error {
			d, err := s.deps(c, false)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.List(c.Context, d.Store, ops.ListInput{Handle: c.String("handle")})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export the archive to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.roost/exports/roost-<timestamp>.jsonl)"},
		},
		Action: func(c *cli.Context) error {
			d, err := s.deps(c, false)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Export(c.Context, d, ops.ExportInput{Path: c.String("path")})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// importCmd creates the import command.
func importCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Import posts from a JSONL export",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Required: true, Usage: "Import file path"},
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Duplicate handling: error|skip"},
		},
		Action: func(c *cli.Context) error {
			d, err := s.deps(c, false)
			if err != nil {
				return outputError(err)
			}

			output, err := ops.Import(c.Context, d, ops.ImportInput{
				Path: c.String("path"),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}

			return outputJSON(c.App.Writer, output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Preview a rendered snapshot over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "dir", Aliases: []string{"d"}, Usage: "Snapshot directory (default: newest under output_root)"},
			&cli.IntFlag{Name: "port", Value: 8080, Usage: "Port to listen on"},
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
		},
		Action: func(c *cli.Context) error {
			dir, err := web.ResolveDir(s.cfg.OutputRoot, c.String("dir"))
			if err != nil {
				return outputError(err)
			}

			s.log.Info("serving snapshot", "dir", dir)
			if err := web.Run(web.NewServer(dir, c.String("bind"), c.Int("port")), s.log); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(s *session) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the archive as MCP tools over stdio",
		Action: func(c *cli.Context) error {
			d, err := s.deps(c, false)
			if err != nil {
				return outputError(err)
			}

			// Missing credentials only disable archive_add.
			if f, err := s.fetcher(); err != nil {
				s.log.Warn("post API client unavailable", "error", err)
			} else {
				d.Fetcher = f
			}

			if err := mcp.Run(d, Version); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// Helper functions

// outputJSON marshals result to w as JSON.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	var rErr *errors.RoostError
	if stderrors.As(err, &rErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", rErr.Code, rErr.Message), rErr.ExitCode)
	}
	return cli.Exit(err.Error(), 1)
}

// checkReference validates the single <post_url> argument before anything is
// opened or fetched. A malformed URL prints the command usage.
func (s *session) checkReference(c *cli.Context) error {
	raw := c.Args().First()
	if c.NArg() == 1 {
		if _, ok := archive.ParseReference(raw, s.cfg.AllowedHosts); ok {
			return nil
		}
	}

	if err := showCommandUsage(c); err != nil {
		s.log.Warn("could not print usage", "command", c.Command.Name, "error", err)
	}
	return outputError(errors.NewInvalidReference(raw))
}

// showCommandUsage prints help for the running command. The lookup has to
// happen in the parent context, where the command is listed.
func showCommandUsage(c *cli.Context) error {
	lineage := c.Lineage()
	if len(lineage) < 2 {
		return cli.ShowAppHelp(c)
	}
	return cli.ShowCommandHelp(lineage[1], c.Command.Name)
}
