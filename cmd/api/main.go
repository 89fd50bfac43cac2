package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/hackfest/ideavote/internal/domain"
	"github.com/hackfest/ideavote/internal/http/handlers"
	mw "github.com/hackfest/ideavote/internal/http/middleware"
	"github.com/hackfest/ideavote/internal/identity"
	"github.com/hackfest/ideavote/internal/mailer"
	"github.com/hackfest/ideavote/internal/otp"
	"github.com/hackfest/ideavote/internal/ratelimit"
	"github.com/hackfest/ideavote/internal/realtime"
	"github.com/hackfest/ideavote/internal/repo/postgres"
	"github.com/hackfest/ideavote/internal/scoring"
	"github.com/hackfest/ideavote/internal/session"
	"github.com/hackfest/ideavote/pkg/config"
	"github.com/hackfest/ideavote/pkg/database"
	"github.com/hackfest/ideavote/pkg/events"
	"github.com/hackfest/ideavote/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Invalid redis URL", "error", err)
		os.Exit(1)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()

	bus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer bus.Close()

	// Repositories
	usersRepo := postgres.NewUsersRepo(pool)
	ideasRepo := postgres.NewIdeasRepo(pool)
	codesRepo := postgres.NewCodesRepo(pool)

	// Services
	codeMailer := pickMailer(cfg)
	codes := otp.NewService(codesRepo, codeMailer, cfg.Auth.CodeTTL)
	resolver := identity.NewResolver(usersRepo, cfg.Auth.AllowedDomain)
	sessions := session.NewManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, session.NewRedisRevoker(rdb))
	limiter := ratelimit.NewLimiter(rdb, cfg.Auth.CodeRequestLimit, cfg.Auth.CodeRequestWindow)
	ledger := scoring.NewLedger(ideasRepo, bus)

	// Realtime
	hub := realtime.NewHub()
	broadcaster := realtime.NewBroadcaster(hub, ledger)
	if err := broadcaster.Start(bus); err != nil {
		logger.Error("Failed to subscribe broadcaster", "error", err)
		os.Exit(1)
	}
	ws := realtime.NewHandler(hub, sessions, ledger, ledger)

	// Handlers
	authHandler := handlers.NewAuthHandler(resolver, codes, sessions, usersRepo, limiter, bus)
	scoresHandler := handlers.NewScoresHandler(ledger)
	resultsHandler := handlers.NewResultsHandler(ledger, ideasRepo)

	// Router
	r := chi.NewRouter()
	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Mount("/auth", authHandler.Routes())
	r.Get("/results", resultsHandler.GetResults)
	r.Get("/ws", ws.ServeWS)

	r.Group(func(r chi.Router) {
		r.Use(mw.Require(sessions, domain.RoleJudge, domain.RoleAudience))
		r.Post("/scores", scoresHandler.Submit)
	})
	r.Group(func(r chi.Router) {
		r.Use(mw.Require(sessions, domain.RoleAdmin))
		r.Get("/ideas", resultsHandler.ListIdeas)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		return hub.Run(gctx)
	})

	g.Go(func() error {
		return codes.RunSweeper(gctx, cfg.Auth.SweepInterval)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func pickMailer(cfg *config.Config) mailer.Service {
	switch {
	case cfg.Email.DevMode:
		return mailer.NewDevMailer()
	case cfg.Email.MailerSendKey != "":
		return mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.SMTPFrom)
	default:
		return mailer.NewSMTPMailer(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.SMTPFrom,
			cfg.Email.SMTPUser,
			cfg.Email.SMTPPass,
			cfg.Email.SMTPUseTLS,
		)
	}
}
