package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"github.com/mparaz/cloudflare-ranking/internal/config"
	"github.com/mparaz/cloudflare-ranking/internal/db"
	"github.com/mparaz/cloudflare-ranking/internal/handler"
	"github.com/mparaz/cloudflare-ranking/internal/middleware"
	"github.com/mparaz/cloudflare-ranking/internal/repository"
	"github.com/mparaz/cloudflare-ranking/internal/router"
	"github.com/mparaz/cloudflare-ranking/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cmd := &cli.Command{
		Name:   "ranking",
		Usage:  "Link ranking API with CAPTCHA-gated voting",
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "Apply the database schema",
				Action: migrate,
			},
			{
				Name:  "approve",
				Usage: "Publish a pending link",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "id",
						Usage:    "Link id to approve",
						Required: true,
					},
				},
				Action: approve,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Error().Err(err).Msg("application error")
		os.Exit(1)
	}
}

// setup loads configuration, initialises logging and opens the database.
func setup(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	middleware.InitLogger(cfg.LogLevel, "ranking-api")

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return cfg, pool, nil
}

func migrate(ctx context.Context, _ *cli.Command) error {
	_, pool, err := setup(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}
	log.Info().Msg("schema applied")
	return nil
}

func approve(ctx context.Context, cmd *cli.Command) error {
	cfg, pool, err := setup(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	cache := service.NewCacheService(cfg.RedisURL)
	defer cache.Close()

	id := int64(cmd.Int("id"))
	links := service.NewLinkService(repository.NewLinkRepo(pool), cache)
	if err := links.Approve(ctx, id); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return fmt.Errorf("link %d does not exist", id)
		}
		return err
	}
	log.Info().Int64("link_id", id).Msg("link approved")
	return nil
}

func serve(ctx context.Context, _ *cli.Command) error {
	cfg, pool, err := setup(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		return err
	}

	cache := service.NewCacheService(cfg.RedisURL)
	defer cache.Close()

	var (
		sessions service.SessionStore
		sweeper  *service.SessionSweeper
	)
	switch cfg.SessionBackend {
	case config.SessionBackendRedis:
		if cache.Client() == nil {
			return errors.New("session backend redis requires a reachable REDIS_URL")
		}
		sessions = service.NewRedisSessionStore(cache.Client())
	case config.SessionBackendMemory:
		mem := service.NewMemorySessionStore()
		sessions = mem
		sweeper = service.NewSessionSweeper(mem, cfg.SweepInterval)
	default:
		repo := repository.NewSessionRepo(pool)
		sessions = repo
		sweeper = service.NewSessionSweeper(repo, cfg.SweepInterval)
	}

	handler.InitMetrics(pool)

	clientIP := middleware.NewClientIPFunc(cfg.ClientIPHeader)
	verifier := service.NewTurnstileVerifier(cfg.TurnstileSecret, cfg.TurnstileVerifyURL)
	captchaSvc := service.NewCaptchaService(verifier, sessions, cfg.FingerprintSalt, cfg.SessionTTL)
	linkSvc := service.NewLinkService(repository.NewLinkRepo(pool), cache)

	app := fiber.New(fiber.Config{
		AppName:      "Ranking API",
		ServerHeader: "ranking",
	})
	router.Setup(app, &router.Handlers{
		Captcha: handler.NewCaptchaHandler(captchaSvc, clientIP, cfg.CookieSecure),
		Link:    handler.NewLinkHandler(linkSvc),
		Vote:    handler.NewVoteHandler(linkSvc),
		Health: handler.NewHealthHandler(
			handler.PostgresDependency(pool),
			handler.RedisDependency(cache.Client(), cfg.SessionBackend == config.SessionBackendRedis),
		),
	}, router.Options{
		CORSOrigins: cfg.CORSOrigins,
		ClientIP:    clientIP,
		Sessions:    captchaSvc,
	})

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gCtx := errgroup.WithContext(ctx)

	if sweeper != nil {
		g.Go(func() error {
			sweeper.Start(gCtx)
			return nil
		})
	}

	g.Go(func() error {
		log.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Environment).
			Str("session_backend", cfg.SessionBackend).
			Dur("session_ttl", cfg.SessionTTL).
			Msg("ranking API starting")
		if err := app.Listen(":"+cfg.Port, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info().Msg("shutting down")
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Error().Err(err).Msg("http server shutdown error")
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
