// Package server wires the HTTP router, services, and storage together
// and owns the server lifecycle.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/hyperbolichq/loyalty-api/internal/auth"
	"github.com/hyperbolichq/loyalty-api/internal/cache"
	"github.com/hyperbolichq/loyalty-api/internal/clock"
	"github.com/hyperbolichq/loyalty-api/internal/handler"
	"github.com/hyperbolichq/loyalty-api/internal/middleware"
	"github.com/hyperbolichq/loyalty-api/internal/random"
	"github.com/hyperbolichq/loyalty-api/internal/repository/sqlite"
	"github.com/hyperbolichq/loyalty-api/internal/service"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port   int
	DBPath string

	// JWTSecret signs player and staff tokens. Must be at least 16 bytes.
	JWTSecret string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// RedisAddr enables the leaderboard cache when non-empty. The server
	// runs without a cache otherwise.
	RedisAddr string

	// Timezone is the store's local zone for daily-gate day boundaries.
	Timezone *time.Location

	// Staff bootstrap account, created at startup when email and
	// password are both set.
	StaffEmail    string
	StaffName     string
	StaffPassword string
}

// Server is the assembled application.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqlite.DB
	cache  *cache.LeaderboardCache
	staff  *service.StaffService
}

// New builds the full dependency graph from cfg. The returned server is
// not yet listening; call Start.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("server: opening database: %w", err)
	}

	var leaderboards *cache.LeaderboardCache
	if cfg.RedisAddr != "" {
		leaderboards, err = cache.New(cfg.RedisAddr)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("server: connecting to redis: %w", err)
		}
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret)
	if err != nil {
		db.Close()
		leaderboards.Close()
		return nil, fmt.Errorf("server: %w", err)
	}

	github := auth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubCallbackURL)
	passwords := auth.NewPasswordService()
	clk := clock.New()
	rng := random.New()

	playerSvc := service.NewPlayerService(db, db, rng, logger)
	xpSvc := service.NewXPService(db, db, db, leaderboards, clk, rng, cfg.Timezone, logger)
	communitySvc := service.NewCommunityService(db, db, leaderboards, logger)
	staffSvc := service.NewStaffService(db, tokens, passwords, logger)

	authHandler := handler.NewAuthHandler(github, tokens, logger)
	playerHandler := handler.NewPlayerHandler(playerSvc, logger)
	xpHandler := handler.NewXPHandler(playerSvc, xpSvc, logger)
	communityHandler := handler.NewCommunityHandler(communitySvc, playerSvc, logger)
	staffHandler := handler.NewStaffHandler(staffSvc, playerSvc, xpSvc, logger)

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
		cache:  leaderboards,
		staff:  staffSvc,
	}
	s.setupRoutes(tokens, authHandler, playerHandler, xpHandler, communityHandler, staffHandler)

	return s, nil
}

func (s *Server) setupRoutes(
	tokens *auth.TokenService,
	authH *handler.AuthHandler,
	playerH *handler.PlayerHandler,
	xpH *handler.XPHandler,
	communityH *handler.CommunityHandler,
	staffH *handler.StaffHandler,
) {
	r := s.router

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)

	// Public routes.
	r.Get("/auth/github/login", authH.HandleGitHubLogin)
	r.Get("/auth/github/callback", authH.HandleGitHubCallback)
	r.Post("/auth/logout", authH.HandleLogout)
	r.Post("/staff/login", staffH.HandleLogin)
	r.Get("/games", xpH.HandleListGames)
	r.Get("/community/leaderboard", communityH.HandleLeaderboard)
	r.With(auth.OptionalPlayer(tokens)).Get("/player/{shortCode}", playerH.HandleGetProfile)

	// Player routes require a valid player token. The token carries the
	// external identity principal; a principal without a linked player
	// can still call POST /player/link, which creates the link.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequirePlayer(tokens))

		r.Get("/community/search", communityH.HandleSearch)
		r.Get("/player/by-identity", playerH.HandleGetOwnProfile)
		r.Post("/player/link", playerH.HandleLink)
		r.Get("/player/privacy", playerH.HandleGetPrivacy)
		r.Post("/player/privacy", playerH.HandleUpdatePrivacy)
		r.Get("/xp/checkin", xpH.HandleCheckInStatus)
		r.Post("/xp/checkin", xpH.HandleCheckIn)
		r.Get("/xp/daily-spin", xpH.HandleSpinStatus)
		r.Post("/xp/daily-spin", xpH.HandleSpin)
	})

	// Staff routes require a staff token.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireStaff(tokens))

		r.Post("/staff/players", staffH.HandleCreatePlayer)
		r.Post("/staff/xp", staffH.HandleAwardXP)
	})
}

// Bootstrap runs one-time startup tasks, currently only ensuring the
// configured staff account exists.
func (s *Server) Bootstrap(ctx context.Context) error {
	cfg := s.config
	if cfg.StaffEmail == "" || cfg.StaffPassword == "" {
		return nil
	}
	if err := s.staff.EnsureAccount(ctx, cfg.StaffEmail, cfg.StaffName, cfg.StaffPassword); err != nil {
		return fmt.Errorf("server: bootstrapping staff account: %w", err)
	}
	return nil
}

// Start runs the HTTP server and blocks until SIGINT or SIGTERM, then
// drains in-flight requests before returning.
func (s *Server) Start() error {
	defer s.db.Close()
	defer s.cache.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", slog.Int("port", s.config.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-quit:
		s.logger.Info("shutting down", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
