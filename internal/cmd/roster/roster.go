// Package roster parses roster command flags and launches the roster runtime.
package roster

import (
	"context"
	"flag"
	"strings"

	"go.uber.org/zap"

	entrypoint "github.com/louisbranch/raidroster/internal/platform/cmd"
	rosterapp "github.com/louisbranch/raidroster/internal/services/roster/app"
	"github.com/louisbranch/raidroster/internal/services/roster/channel/discord"
)

// Config holds roster command configuration. Keys are read with the
// RAIDROSTER_ prefix.
type Config struct {
	DBPath        string `env:"DB_PATH" envDefault:"data/roster.db"`
	HTTPAddr      string `env:"HTTP_ADDR" envDefault:":8080"`
	GRPCAddr      string `env:"GRPC_ADDR" envDefault:":8089"`
	Locale        string `env:"LOCALE" envDefault:"en"`
	CharactersURL string `env:"CHARACTERS_URL"`

	DiscordToken string   `env:"DISCORD_TOKEN"`
	LeadRoleIDs  []string `env:"DISCORD_LEAD_ROLES" envSeparator:","`
	AdminRoleIDs []string `env:"DISCORD_ADMIN_ROLES" envSeparator:","`

	TokenIssuer    string `env:"TOKEN_ISSUER"`
	TokenAudience  string `env:"TOKEN_AUDIENCE" envDefault:"raidroster"`
	TokenPublicKey string `env:"TOKEN_PUBLIC_KEY"`
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := entrypoint.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "The roster SQLite database path")
	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "The admin HTTP listen address")
	fs.StringVar(&cfg.GRPCAddr, "grpc-addr", cfg.GRPCAddr, "The gRPC health listen address")
	fs.StringVar(&cfg.Locale, "locale", cfg.Locale, "The language of rendered messages")
	fs.StringVar(&cfg.CharactersURL, "characters-url", cfg.CharactersURL, "Where users register characters")
	fs.Func("lead-roles", "Comma separated guild role ids granted lead", roleListFlag(&cfg.LeadRoleIDs))
	fs.Func("admin-roles", "Comma separated guild role ids granted admin", roleListFlag(&cfg.AdminRoleIDs))
	fs.StringVar(&cfg.TokenIssuer, "token-issuer", cfg.TokenIssuer, "Expected issuer of API bearer tokens")
	fs.StringVar(&cfg.TokenAudience, "token-audience", cfg.TokenAudience, "Expected audience of API bearer tokens")
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Run starts the roster runtime.
func Run(ctx context.Context, cfg Config, logger *zap.Logger) error {
	return entrypoint.RunWithTelemetry(ctx, entrypoint.ServiceRoster, entrypoint.RunOptions{Logger: logger}, func(ctx context.Context) error {
		return rosterapp.Run(ctx, rosterapp.RuntimeConfig{
			DBPath:        cfg.DBPath,
			HTTPAddr:      cfg.HTTPAddr,
			GRPCAddr:      cfg.GRPCAddr,
			Locale:        cfg.Locale,
			DiscordToken:  cfg.DiscordToken,
			CharactersURL: cfg.CharactersURL,
			Roles: discord.RoleMapping{
				LeadRoleIDs:  cfg.LeadRoleIDs,
				AdminRoleIDs: cfg.AdminRoleIDs,
			},
			TokenIssuer:    cfg.TokenIssuer,
			TokenAudience:  cfg.TokenAudience,
			TokenPublicKey: cfg.TokenPublicKey,
			Logger:         logger,
		})
	})
}

func roleListFlag(target *[]string) func(string) error {
	return func(value string) error {
		ids := make([]string, 0)
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				ids = append(ids, part)
			}
		}
		*target = ids
		return nil
	}
}
