package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sakif/booping/internal/config"
	"github.com/sakif/booping/internal/metrics"
	"github.com/sakif/booping/internal/model"
	"github.com/sakif/booping/internal/repository/sqldb"
	"github.com/sakif/booping/internal/service"
)

type rootOptions struct {
	envFile     string
	databaseURL string
	dbPath      string
	verbose     bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "boopctl",
		Short:         "Administer a BOOPING database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.envFile, "env-file", ".env", "dotenv file to read settings from")
	root.PersistentFlags().StringVar(&opts.databaseURL, "database-url", "", "Postgres URL (overrides DATABASE_URL)")
	root.PersistentFlags().StringVar(&opts.dbPath, "db-path", "", "SQLite file (overrides DB_PATH)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log storage activity to stderr")

	root.AddCommand(
		newInitDBCmd(opts),
		newStatsCmd(opts),
		newBadgesCmd(opts),
		newCheckBadgesCmd(opts),
	)
	return root
}

// open connects to the configured database and makes sure the schema is
// in place. Every command runs InitSchema, which is idempotent.
func (o *rootOptions) open(ctx context.Context) (*sqldb.DB, *slog.Logger, error) {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return nil, nil, err
	}
	if o.databaseURL != "" {
		cfg.DatabaseURL = o.databaseURL
	}
	if o.dbPath != "" {
		cfg.DBPath = o.dbPath
		if o.databaseURL == "" {
			cfg.DatabaseURL = ""
		}
	}

	level := slog.LevelWarn
	if o.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	db, err := sqldb.Open(ctx, sqldb.Options{DatabaseURL: cfg.DatabaseURL, Path: cfg.DBPath}, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := db.InitSchema(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, logger, nil
}

func newInitDBCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create tables, apply migrations and seed the badge catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "Database ready (%s)\n", db.Dialect().Name())
			return nil
		},
	}
}

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print the global counters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := db.GlobalStats(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total boops:  %d\n", stats.TotalBoops)
			fmt.Fprintf(out, "Total users:  %d\n", stats.TotalUsers)
			fmt.Fprintf(out, "Last updated: %s\n", stats.LastUpdated.UTC().Format("2006-01-02 15:04:05"))
			return nil
		},
	}
}

func newBadgesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "badges",
		Short: "List the badge catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, _, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			badges, err := db.ListBadges(cmd.Context())
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ICON\tNAME\tTHRESHOLD\tUNLOCKS")
			for _, b := range badges {
				unlocks := "-"
				if b.UnlocksPaw != nil {
					unlocks = *b.UnlocksPaw
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", b.Icon, b.Name, b.Threshold, unlocks)
			}
			return tw.Flush()
		},
	}
}

// newCheckBadgesCmd re-evaluates a user's badges. Useful after the catalog
// gains a badge with a threshold some users have already passed.
func newCheckBadgesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check-badges <username>",
		Short: "Award any badges a user has earned but not yet received",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, logger, err := opts.open(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			user, err := db.GetUserByUsername(ctx, service.NormalizeUsername(args[0]))
			if err != nil {
				return fmt.Errorf("looking up %q: %w", args[0], err)
			}

			badges := service.NewBadgeService(db, db, metrics.New(), logger)
			awarded, err := badges.CheckAndAward(ctx, user.ID)
			if err != nil {
				return err
			}
			return printAwarded(cmd.OutOrStdout(), user.Username, awarded)
		},
	}
}

func printAwarded(w io.Writer, username string, awarded []model.Badge) error {
	if len(awarded) == 0 {
		_, err := fmt.Fprintf(w, "%s has no new badges\n", username)
		return err
	}
	for _, b := range awarded {
		if _, err := fmt.Fprintf(w, "Awarded %q to %s\n", b.Name, username); err != nil {
			return err
		}
	}
	return nil
}
