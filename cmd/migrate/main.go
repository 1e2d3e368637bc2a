package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/luxemarket/storefront-backend/pkg/config"
	"github.com/luxemarket/storefront-backend/pkg/db"
	"github.com/luxemarket/storefront-backend/pkg/logger"
	"github.com/luxemarket/storefront-backend/pkg/migrate"
)

func main() {
	_ = godotenv.Load()
	if err := newRootCmd(os.Stdout).ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// newRootCmd wires the subcommands. Commands that touch the database open
// it lazily so create and validate work without any LUXE_* settings.
func newRootCmd(out io.Writer) *cobra.Command {
	var dir string

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the storefront database schema",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dir, "dir", "", "migrations directory (default: the set compiled into the binary)")

	withRunner := func(fn func(ctx context.Context, r *migrate.Runner) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			return runAgainstDB(cmd.Context(), dir, fn)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply every pending migration",
			RunE: withRunner(func(ctx context.Context, r *migrate.Runner) error {
				n, err := r.Up(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "applied %d migration(s)\n", n)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the newest migration",
			RunE: withRunner(func(ctx context.Context, r *migrate.Runner) error {
				v, err := r.Down(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "rolled back %d\n", v)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			RunE: withRunner(func(ctx context.Context, r *migrate.Runner) error {
				status, err := r.Status(ctx)
				if err != nil {
					return err
				}
				for _, s := range status {
					applied := "-"
					if !s.AppliedAt.IsZero() {
						applied = s.AppliedAt.Format(time.RFC3339)
					}
					fmt.Fprintf(out, "%-8s %-25s %s\n", s.State, applied, s.Source.Path)
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "to <version>",
			Short: "Migrate up or down to an exact version",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				target, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("version %q: expected YYYYMMDDHHMMSS", args[0])
				}
				return runAgainstDB(cmd.Context(), dir, func(ctx context.Context, r *migrate.Runner) error {
					if err := r.To(ctx, target); err != nil {
						return err
					}
					fmt.Fprintf(out, "schema at %d\n", target)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "create <name>",
			Short: "Write an empty migration file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				target := dir
				if target == "" {
					target = migrate.DefaultDir
				}
				path, err := migrate.NewFile(target, args[0], time.Now())
				if err != nil {
					return err
				}
				fmt.Fprintln(out, "created", path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "validate",
			Short: "Check migration file names and goose markers",
			RunE: func(cmd *cobra.Command, _ []string) error {
				if err := migrate.Validate(migrate.Source(dir)); err != nil {
					return err
				}
				fmt.Fprintln(out, "migrations ok")
				return nil
			},
		},
	)
	return root
}

func runAgainstDB(ctx context.Context, dir string, fn func(context.Context, *migrate.Runner) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver, "dir": dir})

	client, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "open database", err)
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logg.Error(ctx, "close database", err)
		}
	}()

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extract sql.DB: %w", err)
	}
	runner, err := migrate.NewRunner(sqlDB, cfg.DB.Driver, migrate.Source(dir))
	if err != nil {
		return err
	}
	return fn(ctx, runner)
}
