package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/hafizmfadli/cinescope/internal/auth"
	"github.com/hafizmfadli/cinescope/internal/config"
	"github.com/hafizmfadli/cinescope/internal/data"
	"github.com/hafizmfadli/cinescope/internal/enrich"
	"github.com/hafizmfadli/cinescope/internal/jsonlog"
	"github.com/hafizmfadli/cinescope/internal/mailer"
)

const version = "1.0.0"

// application holds the dependencies shared by handlers, helpers and middleware.
type application struct {
	config *config.Config
	logger *jsonlog.Logger
	models data.Models
	mailer mailer.Sender
	tokens *auth.Manager
	// enricher is nil when no TMDB key is configured.
	enricher *enrich.Enricher
	// wg tracks goroutines started by background so shutdown can wait for them.
	wg sync.WaitGroup
}

func main() {
	// Defaults, config file and environment are layered first. Flags can then
	// override any of them for a single run.
	cfg, err := config.Load(os.Getenv(config.PathEnvVar))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	flag.IntVar(&cfg.Port, "port", cfg.Port, "API server port")
	flag.StringVar(&cfg.Env, "env", cfg.Env, "Environment (development|staging|production)")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Minimum log level (info|error|fatal|off)")
	flag.StringVar(&cfg.StaticDir, "static-dir", cfg.StaticDir, "Directory of the built frontend to serve (empty disables)")

	flag.StringVar(&cfg.DB.Driver, "db-driver", cfg.DB.Driver, "Database driver (mongo|memory)")
	flag.StringVar(&cfg.DB.URI, "db-uri", cfg.DB.URI, "MongoDB connection URI")
	flag.StringVar(&cfg.DB.Name, "db-name", cfg.DB.Name, "MongoDB database name")
	flag.Uint64Var(&cfg.DB.MaxPoolSize, "db-max-pool-size", cfg.DB.MaxPoolSize, "MongoDB max connection pool size")
	flag.DurationVar(&cfg.DB.ConnectTimeout, "db-connect-timeout", cfg.DB.ConnectTimeout, "MongoDB connect timeout")

	flag.StringVar(&cfg.JWT.Secret, "jwt-secret", cfg.JWT.Secret, "Session token signing secret")
	flag.DurationVar(&cfg.JWT.TTL, "jwt-ttl", cfg.JWT.TTL, "Session token lifetime")

	flag.Float64Var(&cfg.Limiter.RPS, "limiter-rps", cfg.Limiter.RPS, "Rate limiter maximum requests per second")
	flag.IntVar(&cfg.Limiter.Burst, "limiter-burst", cfg.Limiter.Burst, "Rate limiter maximum burst")
	flag.BoolVar(&cfg.Limiter.Enabled, "limiter-enabled", cfg.Limiter.Enabled, "Enable rate limiter")

	flag.StringVar(&cfg.SMTP.Host, "smtp-host", cfg.SMTP.Host, "SMTP host")
	flag.IntVar(&cfg.SMTP.Port, "smtp-port", cfg.SMTP.Port, "SMTP port")
	flag.StringVar(&cfg.SMTP.Username, "smtp-username", cfg.SMTP.Username, "SMTP username")
	flag.StringVar(&cfg.SMTP.Password, "smtp-password", cfg.SMTP.Password, "SMTP password")
	flag.StringVar(&cfg.SMTP.Sender, "smtp-sender", cfg.SMTP.Sender, "SMTP sender")

	flag.StringVar(&cfg.TMDB.APIKey, "tmdb-api-key", cfg.TMDB.APIKey, "TMDB API key (enables enrichment of new movies)")
	flag.StringVar(&cfg.OMDb.APIKey, "omdb-api-key", cfg.OMDb.APIKey, "OMDb API key (poster and plot fallback)")

	flag.Func("cors-trusted-origins", "Trusted CORS origins (space separated)", func(val string) error {
		cfg.CORS.TrustedOrigins = strings.Fields(val)
		return nil
	})

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := jsonlog.NewLogger(os.Stdout, jsonlog.ParseLevel(cfg.LogLevel))

	if err := cfg.Validate(); err != nil {
		logger.PrintFatal(err, nil)
	}

	models, closeDB, err := data.Open(context.Background(), cfg.DB.Driver, cfg.DB.URI, cfg.DB.Name, cfg.DB.MaxPoolSize, cfg.DB.ConnectTimeout)
	if err != nil {
		logger.PrintFatal(err, nil)
	}
	defer closeDB()

	logger.PrintInfo("database connection established", map[string]string{
		"driver": cfg.DB.Driver,
	})

	tokens, err := auth.NewManager(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		logger.PrintFatal(err, nil)
	}

	enricher, err := enrich.FromConfig(cfg, models.Movies, logger)
	if err != nil {
		logger.PrintFatal(err, nil)
	}

	app := &application{
		config:   cfg,
		logger:   logger,
		models:   models,
		mailer:   mailer.New(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.Sender),
		tokens:   tokens,
		enricher: enricher,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.serve(ctx); err != nil {
		logger.PrintFatal(err, nil)
	}
}
