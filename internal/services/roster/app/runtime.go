package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	platformgrpc "github.com/louisbranch/raidroster/internal/platform/grpc"
	"github.com/louisbranch/raidroster/internal/platform/i18n"
	"github.com/louisbranch/raidroster/internal/platform/id"
	"github.com/louisbranch/raidroster/internal/platform/timeouts"
	httpapi "github.com/louisbranch/raidroster/internal/services/roster/api/http"
	"github.com/louisbranch/raidroster/internal/services/roster/channel"
	"github.com/louisbranch/raidroster/internal/services/roster/channel/discord"
	"github.com/louisbranch/raidroster/internal/services/roster/metrics"
	"github.com/louisbranch/raidroster/internal/services/roster/storage/sqlite"
)

// HealthService is the gRPC health service name reported while the
// runtime serves.
const HealthService = "roster.runtime"

const (
	defaultDBPath   = "data/roster.db"
	defaultHTTPAddr = ":8080"
	defaultGRPCAddr = ":8089"
	defaultLocale   = "en"
)

// RuntimeConfig controls roster startup and its adapters.
type RuntimeConfig struct {
	DBPath   string
	HTTPAddr string
	GRPCAddr string
	Locale   string

	// DiscordToken enables the Discord gateway and channel when set.
	DiscordToken string
	Roles        discord.RoleMapping
	// CharactersURL is where users register characters.
	CharactersURL string

	TokenIssuer    string
	TokenAudience  string
	TokenPublicKey string

	Logger *zap.Logger
}

// Server owns the listeners and adapters of one roster process.
type Server struct {
	deps         *Deps
	store        *sqlite.Store
	session      *discordgo.Session
	httpServer   *http.Server
	httpListener net.Listener
	grpcServer   *grpc.Server
	grpcListener net.Listener
	health       *health.Server
	logger       *zap.Logger
}

// New opens storage, builds the dependency graph and binds listeners. The
// Discord session is created but not connected until Serve.
func New(cfg RuntimeConfig) (*Server, error) {
	cfg = cfg.normalized()
	logger := cfg.Logger

	loc, err := i18n.Printer(cfg.Locale)
	if err != nil {
		return nil, err
	}
	tokens, err := httpapi.LoadTokenConfig(cfg.TokenIssuer, cfg.TokenAudience, cfg.TokenPublicKey, nil)
	if err != nil {
		return nil, fmt.Errorf("load token config: %w", err)
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create roster storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open roster sqlite store: %w", err)
	}

	s := &Server{store: store, logger: logger}
	ok := false
	defer func() {
		if !ok {
			s.close()
		}
	}()

	var ch channel.Channel
	if cfg.DiscordToken != "" {
		session, err := discord.NewSession(cfg.DiscordToken)
		if err != nil {
			return nil, fmt.Errorf("create discord session: %w", err)
		}
		s.session = session
		ch = discord.NewChannel(session)
	} else {
		logger.Warn("discord token not set; events with a channel cannot be published")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	s.deps = NewDeps(DepsConfig{
		Store:         store,
		Channel:       ch,
		Logger:        logger,
		Metrics:       metrics.New(registry),
		Localizer:     loc,
		NewID:         id.NewID,
		CharactersURL: cfg.CharactersURL,
	})

	if s.session != nil {
		gateway := discord.NewGateway(s.session, s.deps.Dispatcher, cfg.Roles, loc, logger.Named("discord"))
		s.session.AddHandler(gateway.OnInteractionCreate)
	}

	api := httpapi.NewServer(httpapi.Config{
		Service:    s.deps.Service,
		Dispatcher: s.deps.Dispatcher,
		Projector:  s.deps.Publisher,
		Localizer:  loc,
		Tokens:     tokens,
		Logger:     logger.Named("http"),
	})
	s.httpServer = &http.Server{
		Handler: api.Handler(map[string]http.Handler{
			"/metrics": promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		}),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	s.httpListener, err = net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on http addr %s: %w", cfg.HTTPAddr, err)
	}

	s.grpcListener, err = net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return nil, fmt.Errorf("listen on grpc addr %s: %w", cfg.GRPCAddr, err)
	}
	s.grpcServer, s.health = platformgrpc.NewHealthServer(HealthService)

	ok = true
	return s, nil
}

// Run creates and serves a roster server until the context ends.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	server, err := New(cfg)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Deps exposes the wired dependencies.
func (s *Server) Deps() *Deps {
	return s.deps
}

// HTTPAddr returns the bound HTTP address.
func (s *Server) HTTPAddr() string {
	return s.httpListener.Addr().String()
}

// GRPCAddr returns the bound health service address.
func (s *Server) GRPCAddr() string {
	return s.grpcListener.Addr().String()
}

// Serve connects the gateway and serves HTTP and gRPC health until the
// context ends or a server fails.
func (s *Server) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.close()

	if s.session != nil {
		if err := s.session.Open(); err != nil {
			return fmt.Errorf("open discord session: %w", err)
		}
		s.logger.Info("discord gateway connected")
	}

	s.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	s.health.SetServingStatus(HealthService, grpc_health_v1.HealthCheckResponse_SERVING)

	grpcErr := make(chan error, 1)
	go func() {
		grpcErr <- s.grpcServer.Serve(s.grpcListener)
	}()
	httpErr := make(chan error, 1)
	go func() {
		httpErr <- s.httpServer.Serve(s.httpListener)
	}()
	s.logger.Info("roster listening",
		zap.String("http", s.HTTPAddr()),
		zap.String("grpc", s.GRPCAddr()))

	shutdownGRPC := func() {
		s.health.Shutdown()
		s.grpcServer.GracefulStop()
	}
	shutdownHTTP := func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}

	select {
	case <-ctx.Done():
		if err := shutdownHTTP(); err != nil {
			s.logger.Warn("http shutdown", zap.Error(err))
		}
		shutdownGRPC()
		<-httpErr
		return grpcResult(<-grpcErr)
	case err := <-httpErr:
		shutdownGRPC()
		<-grpcErr
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case err := <-grpcErr:
		if shutdownErr := shutdownHTTP(); shutdownErr != nil {
			s.logger.Warn("http shutdown", zap.Error(shutdownErr))
		}
		<-httpErr
		return grpcResult(err)
	}
}

func (s *Server) close() {
	if s.session != nil {
		if err := s.session.Close(); err != nil {
			s.logger.Warn("close discord session", zap.Error(err))
		}
	}
	for _, l := range []net.Listener{s.httpListener, s.grpcListener} {
		if l != nil {
			_ = l.Close()
		}
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn("close roster sqlite store", zap.Error(err))
		}
	}
}

func grpcResult(err error) error {
	if err == nil || errors.Is(err, grpc.ErrServerStopped) {
		return nil
	}
	return fmt.Errorf("serve grpc: %w", err)
}

func (cfg RuntimeConfig) normalized() RuntimeConfig {
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultDBPath
	}
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		cfg.HTTPAddr = defaultHTTPAddr
	}
	if strings.TrimSpace(cfg.GRPCAddr) == "" {
		cfg.GRPCAddr = defaultGRPCAddr
	}
	if strings.TrimSpace(cfg.Locale) == "" {
		cfg.Locale = defaultLocale
	}
	cfg.DiscordToken = strings.TrimSpace(cfg.DiscordToken)
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return cfg
}
