package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/scribe/internal"
	"github.com/starford/scribe/internal/journal"
	"github.com/starford/scribe/internal/mcpserver"
	"github.com/starford/scribe/internal/models"
	"github.com/starford/scribe/internal/scribeservice"
	pkgconfig "github.com/starford/scribe/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if err := pkgconfig.LoadIfPresent(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

// withService builds the service stack for one-shot commands and tears it
// down after the action returns.
func withService(cmd *cli.Command, fn func(svc *scribeservice.Service) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	svc, db, err := internal.NewService(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(svc)
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcpAction(_ context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	// Logs go to stderr so they never corrupt the stdio transport.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	svc, db, err := internal.NewService(cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()
	return mcpserver.New(svc).ServeStdio()
}

func appendAction(ctx context.Context, cmd *cli.Command) error {
	return withService(cmd, func(svc *scribeservice.Service) error {
		in := journal.AppendInput{
			Time:    cmd.String("time"),
			Title:   cmd.String("title"),
			Body:    cmd.String("body"),
			Related: cmd.StringSlice("related"),
			Status:  cmd.String("status"),
		}
		for _, f := range cmd.StringSlice("file") {
			path, desc, _ := strings.Cut(f, ":")
			in.Files = append(in.Files, models.FileTouched{
				Path:        strings.TrimSpace(path),
				Description: strings.TrimSpace(desc),
			})
		}
		for _, a := range cmd.StringSlice("archive") {
			path, desc, _ := strings.Cut(a, ":")
			in.Archive = append(in.Archive, journal.ArchiveRequest{
				Path:        strings.TrimSpace(path),
				Description: strings.TrimSpace(desc),
			})
		}

		rec, err := svc.Append(ctx, cmd.String("date"), in)
		if err != nil {
			if rec != nil {
				fmt.Println(rec.ID)
			}
			return err
		}
		fmt.Println(rec.ID)
		return nil
	})
}

func newIDAction(ctx context.Context, cmd *cli.Command) error {
	return withService(cmd, func(svc *scribeservice.Service) error {
		id, err := svc.NewID(ctx, cmd.String("date"), cmd.String("time"))
		if err != nil {
			return err
		}
		fmt.Println(id)
		return nil
	})
}

func lastAction(ctx context.Context, cmd *cli.Command) error {
	return withService(cmd, func(svc *scribeservice.Service) error {
		id, title, err := svc.Last(ctx, cmd.String("date"))
		if err != nil {
			return err
		}
		if cmd.Bool("with-title") {
			fmt.Printf("%s\t%s\n", id, title)
		} else {
			fmt.Println(id)
		}
		return nil
	})
}

func showLatestAction(ctx context.Context, cmd *cli.Command) error {
	return withService(cmd, func(svc *scribeservice.Service) error {
		b, err := svc.ShowLatest(ctx, cmd.String("date"))
		if err != nil {
			return err
		}
		fmt.Print(b.Raw)
		return nil
	})
}

func deleteLatestAction(ctx context.Context, cmd *cli.Command) error {
	return withService(cmd, func(svc *scribeservice.Service) error {
		id, deleted, err := svc.DeleteLatest(ctx, cmd.String("date"))
		if err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", id)
		for _, name := range deleted {
			fmt.Printf("removed asset %s\n", name)
		}
		return nil
	})
}

func replaceLatestAction(ctx context.Context, cmd *cli.Command) error {
	return withService(cmd, func(svc *scribeservice.Service) error {
		content, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		id, err := svc.ReplaceLatest(ctx, cmd.String("date"), string(content))
		if err != nil {
			return err
		}
		fmt.Printf("replaced %s\n", id)
		return nil
	})
}

func rearchiveAction(ctx context.Context, cmd *cli.Command) error {
	return withService(cmd, func(svc *scribeservice.Service) error {
		name, err := svc.Rearchive(ctx, cmd.String("date"), cmd.Args().First())
		if err != nil {
			return err
		}
		fmt.Println(name)
		return nil
	})
}

func unarchiveAction(ctx context.Context, cmd *cli.Command) error {
	return withService(cmd, func(svc *scribeservice.Service) error {
		id, deleted, err := svc.Unarchive(ctx, cmd.String("date"))
		if err != nil {
			return err
		}
		if len(deleted) == 0 {
			fmt.Printf("no assets owned by %s\n", id)
			return nil
		}
		for _, name := range deleted {
			fmt.Printf("removed asset %s\n", name)
		}
		return nil
	})
}

func assetsSaveAction(ctx context.Context, cmd *cli.Command) error {
	return withService(cmd, func(svc *scribeservice.Service) error {
		id := cmd.String("id")
		paths := cmd.Args().Slice()
		if id == "" || len(paths) == 0 {
			return fmt.Errorf("usage: assets save --id <record-id> <path>...")
		}
		names, err := svc.SaveAssets(ctx, id, paths)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	})
}

func assetsGetAction(ctx context.Context, cmd *cli.Command) error {
	return withService(cmd, func(svc *scribeservice.Service) error {
		name := cmd.Args().First()
		if name == "" {
			return fmt.Errorf("usage: assets get <asset-filename>")
		}
		dest, err := svc.RestoreAsset(ctx, name, cmd.String("dest"))
		if err != nil {
			return err
		}
		fmt.Println(dest)
		return nil
	})
}

func assetsListAction(ctx context.Context, cmd *cli.Command) error {
	return withService(cmd, func(svc *scribeservice.Service) error {
		names, err := svc.ListAssets(ctx, cmd.String("filter"))
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	})
}

func searchAction(ctx context.Context, cmd *cli.Command) error {
	return withService(cmd, func(svc *scribeservice.Service) error {
		query := strings.Join(cmd.Args().Slice(), " ")
		if query == "" {
			return fmt.Errorf("usage: search <query>")
		}
		hits, err := svc.Search(ctx, query, int(cmd.Int("limit")))
		if err != nil {
			return err
		}
		for _, hit := range hits {
			fmt.Printf("%s\t%s\n", hit.ID, hit.Title)
		}
		return nil
	})
}

func validateAction(ctx context.Context, cmd *cli.Command) error {
	return withService(cmd, func(svc *scribeservice.Service) error {
		violations, count, err := svc.Validate(ctx)
		if err != nil {
			return err
		}
		if len(violations) == 0 {
			fmt.Printf("ok: %d records, no violations\n", count)
			return nil
		}
		for _, v := range violations {
			fmt.Println(v.String())
		}
		return cli.Exit(fmt.Sprintf("%d violation(s) across %d records", len(violations), count), 1)
	})
}

func main() {
	configFlag := &cli.StringFlag{
		Name:        "config",
		Aliases:     []string{"c"},
		Usage:       "Path to config file",
		DefaultText: "config/config.yaml",
		Value:       "config/config.yaml",
		Sources:     cli.EnvVars("APP_CONFIG_FILE"),
	}
	dateFlag := &cli.StringFlag{
		Name:  "date",
		Usage: "Partition date YYYY-MM-DD (empty for today / newest)",
	}

	cmd := &cli.Command{
		Name:  "scribe",
		Usage: "Append-only work log with a date-partitioned Markdown corpus, asset snapshots, and full-text search",
		Flags: []cli.Flag{configFlag},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API with the partition watcher and SSE stream",
				Action: serveAction,
			},
			{
				Name:   "mcp",
				Usage:  "Run the MCP server on stdin/stdout",
				Action: mcpAction,
			},
			{
				Name:  "append",
				Usage: "Append a new entry to the log",
				Flags: []cli.Flag{
					dateFlag,
					&cli.StringFlag{Name: "time", Usage: "Entry time HH:MM (empty for now)"},
					&cli.StringFlag{Name: "title", Required: true, Usage: "Entry title"},
					&cli.StringFlag{Name: "body", Usage: "Markdown body text"},
					&cli.StringSliceFlag{Name: "file", Usage: "Touched file as path[:description], repeatable"},
					&cli.StringSliceFlag{Name: "archive", Usage: "File to snapshot as path[:description], repeatable"},
					&cli.StringSliceFlag{Name: "related", Usage: "Id of a related entry, repeatable"},
					&cli.StringFlag{Name: "status", Usage: "Status token, e.g. in-progress"},
				},
				Action: appendAction,
			},
			{
				Name:  "new-id",
				Usage: "Print the id the next append would receive",
				Flags: []cli.Flag{
					dateFlag,
					&cli.StringFlag{Name: "time", Usage: "Entry time HH:MM (empty for now)"},
				},
				Action: newIDAction,
			},
			{
				Name:  "last",
				Usage: "Print the id of the most recent entry",
				Flags: []cli.Flag{
					dateFlag,
					&cli.BoolFlag{Name: "with-title", Usage: "Also print the entry title"},
				},
				Action: lastAction,
			},
			{
				Name:  "amend-latest",
				Usage: "Inspect or rewrite the most recent entry",
				Commands: []*cli.Command{
					{
						Name:   "show",
						Usage:  "Print the most recent entry block verbatim",
						Flags:  []cli.Flag{dateFlag},
						Action: showLatestAction,
					},
					{
						Name:   "delete",
						Usage:  "Remove the most recent entry and the assets it owns",
						Flags:  []cli.Flag{dateFlag},
						Action: deleteLatestAction,
					},
					{
						Name:   "replace",
						Usage:  "Replace the most recent entry block with content read from stdin",
						Flags:  []cli.Flag{dateFlag},
						Action: replaceLatestAction,
					},
					{
						Name:      "rearchive",
						Usage:     "Snapshot a file again under the most recent entry",
						ArgsUsage: "<path>",
						Flags:     []cli.Flag{dateFlag},
						Action:    rearchiveAction,
					},
					{
						Name:   "unarchive",
						Usage:  "Delete every asset owned by the most recent entry",
						Flags:  []cli.Flag{dateFlag},
						Action: unarchiveAction,
					},
				},
			},
			{
				Name:  "assets",
				Usage: "Manage the write-once asset store",
				Commands: []*cli.Command{
					{
						Name:      "save",
						Usage:     "Snapshot files under an existing entry's id",
						ArgsUsage: "<path>...",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "id", Required: true, Usage: "Id of the owning entry"},
						},
						Action: assetsSaveAction,
					},
					{
						Name:      "get",
						Usage:     "Restore an archived asset (written with a '_' prefix)",
						ArgsUsage: "<asset-filename>",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "dest", Value: ".", Usage: "Destination directory"},
						},
						Action: assetsGetAction,
					},
					{
						Name:  "list",
						Usage: "List stored asset filenames",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "filter", Usage: "Substring filter"},
						},
						Action: assetsListAction,
					},
				},
			},
			{
				Name:      "search",
				Usage:     "Full-text search through entry titles and bodies",
				ArgsUsage: "<query>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 20, Usage: "Maximum number of results"},
				},
				Action: searchAction,
			},
			{
				Name:   "validate",
				Usage:  "Check the corpus for integrity violations (exit 1 when any are found)",
				Action: validateAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
