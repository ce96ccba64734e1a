// Package rosterctl implements the roster operations CLI.
package rosterctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	entrypoint "github.com/louisbranch/raidroster/internal/platform/cmd"
	platformgrpc "github.com/louisbranch/raidroster/internal/platform/grpc"
	"github.com/louisbranch/raidroster/internal/platform/i18n"
	"github.com/louisbranch/raidroster/internal/platform/id"
	rosterapp "github.com/louisbranch/raidroster/internal/services/roster/app"
	"github.com/louisbranch/raidroster/internal/services/roster/channel"
	"github.com/louisbranch/raidroster/internal/services/roster/channel/discord"
	"github.com/louisbranch/raidroster/internal/services/roster/domain"
	"github.com/louisbranch/raidroster/internal/services/roster/render"
	"github.com/louisbranch/raidroster/internal/services/roster/storage/sqlite"
)

const defaultEventLimit = 20

// Config holds the settings shared by every subcommand. Keys are read with
// the RAIDROSTER_ prefix and overridden by flags.
type Config struct {
	DBPath       string `env:"DB_PATH" envDefault:"data/roster.db"`
	Locale       string `env:"LOCALE" envDefault:"en"`
	DiscordToken string `env:"DISCORD_TOKEN"`
}

// Options injects process dependencies into the command tree.
type Options struct {
	Out    io.Writer
	Logger *zap.Logger
	Now    func() time.Time
	// NewChannel builds the notification channel used by reproject. Nil
	// uses a Discord REST session.
	NewChannel func(token string) (channel.Channel, error)
}

// NewRootCommand builds the rosterctl command tree with env defaults
// loaded.
func NewRootCommand(opts Options) (*cobra.Command, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return nil, err
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewChannel == nil {
		opts.NewChannel = discordChannel
	}

	root := &cobra.Command{
		Use:           entrypoint.ServiceRosterCtl,
		Short:         "Operate a raid roster database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(opts.Out)
	root.PersistentFlags().StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The roster SQLite database path")
	root.PersistentFlags().StringVar(&cfg.Locale, "locale", cfg.Locale, "The language of rendered messages")

	root.AddCommand(
		migrateCommand(&cfg, opts),
		eventsCommand(&cfg, opts),
		reprojectCommand(&cfg, opts),
		healthCommand(opts),
	)
	return root, nil
}

func migrateCommand(cfg *Config, opts Options) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if dir := filepath.Dir(cfg.DBPath); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create roster storage dir: %w", err)
				}
			}
			pending, err := sqlite.PendingMigrations(cmd.Context(), cfg.DBPath)
			if err != nil {
				return fmt.Errorf("list pending migrations: %w", err)
			}
			if len(pending) == 0 {
				fmt.Fprintln(opts.Out, "schema is up to date")
				return nil
			}
			for _, name := range pending {
				fmt.Fprintf(opts.Out, "pending %s\n", name)
			}
			if dryRun {
				return nil
			}
			store, err := sqlite.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open roster sqlite store: %w", err)
			}
			if err := store.Close(); err != nil {
				return fmt.Errorf("close roster sqlite store: %w", err)
			}
			fmt.Fprintf(opts.Out, "applied %d migrations\n", len(pending))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List pending migrations without applying them")
	return cmd
}

func eventsCommand(cfg *Config, opts Options) *cobra.Command {
	var (
		limit int
		from  string
	)
	cmd := &cobra.Command{
		Use:   "events",
		Short: "List upcoming events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start := opts.Now().UTC()
			if strings.TrimSpace(from) != "" {
				parsed, err := time.Parse(time.RFC3339, from)
				if err != nil {
					return fmt.Errorf("parse --from: %w", err)
				}
				start = parsed
			}
			store, err := sqlite.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open roster sqlite store: %w", err)
			}
			defer store.Close()

			service := domain.NewService(store, opts.Now, id.NewID)
			events, err := service.ListEvents(cmd.Context(), start, limit)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(opts.Out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSCHEDULED\tTITLE\tCHANNEL\tANNOUNCEMENT")
			for _, event := range events {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					event.ID,
					event.ScheduledAt.UTC().Format(time.RFC3339),
					event.Title,
					orDash(event.ChannelRef),
					orDash(event.AnnouncementRef))
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&limit, "limit", defaultEventLimit, "Maximum events to list")
	cmd.Flags().StringVar(&from, "from", "", "List events scheduled at or after this RFC 3339 time")
	return cmd
}

func reprojectCommand(cfg *Config, opts Options) *cobra.Command {
	return &cobra.Command{
		Use:   "reproject <event-id>",
		Short: "Re-render an event onto its notification channel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loc, err := i18n.Printer(cfg.Locale)
			if err != nil {
				return err
			}
			ch, err := opts.NewChannel(cfg.DiscordToken)
			if err != nil {
				return err
			}
			store, err := sqlite.Open(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open roster sqlite store: %w", err)
			}
			defer store.Close()

			publisher := render.NewPublisher(store, ch, loc,
				render.WithClock(opts.Now),
				render.WithLogger(opts.Logger.Named("render")))
			outcome, err := publisher.Publish(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if outcome.Skipped {
				return fmt.Errorf("event %s has no channel attached", args[0])
			}
			fmt.Fprintf(opts.Out, "announcement %s\nroster %s\n", outcome.AnnouncementRef, outcome.RosterRef)
			if outcome.Recreated > 0 {
				fmt.Fprintln(opts.Out, "recreated missing messages")
			}
			return nil
		},
	}
}

func healthCommand(opts Options) *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Wait until a roster process reports healthy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			conn, err := platformgrpc.Dial(addr)
			if err != nil {
				return err
			}
			defer conn.Close()
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := platformgrpc.WaitForHealth(ctx, conn, rosterapp.HealthService, opts.Logger); err != nil {
				return err
			}
			fmt.Fprintf(opts.Out, "%s serving\n", addr)
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "localhost:8089", "The roster gRPC health address")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "How long to wait for SERVING")
	return cmd
}

func discordChannel(token string) (channel.Channel, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("RAIDROSTER_DISCORD_TOKEN is required to reproject")
	}
	session, err := discord.NewSession(token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return discord.NewChannel(session), nil
}

// Execute runs the command tree with args.
func Execute(ctx context.Context, root *cobra.Command, args []string) error {
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
