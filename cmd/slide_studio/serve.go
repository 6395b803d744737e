package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/slideshow-studio/internal/config"
	"github.com/jonathan/slideshow-studio/internal/db"
	"github.com/jonathan/slideshow-studio/internal/ingestion"
	"github.com/jonathan/slideshow-studio/internal/llm"
	"github.com/jonathan/slideshow-studio/internal/server"
	"github.com/jonathan/slideshow-studio/internal/server/ratelimit"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the slideshow editor over REST. Requires DATABASE_URL and GEMINI_API_KEY.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides config and PORT)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "Apply the database schema before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadRuntime()
	if err != nil {
		return err
	}
	defer logger.Sync()

	if servePort != 0 {
		cfg.Port = servePort
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return err
	}
	passwords, err := config.NewPasswordConfig()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if serveMigrate {
		if err := database.Migrate(ctx); err != nil {
			return err
		}
	}

	client, err := llm.NewClient(ctx, llm.DefaultConfig(), cfg.APIKey)
	if err != nil {
		return fmt.Errorf("failed to create LLM client: %w", err)
	}
	defer func() { _ = client.Close() }()

	renderer, closeRenderer, err := newRenderer(ctx, cfg.RenderEngine)
	if err != nil {
		return err
	}
	defer closeRenderer()

	srv, err := server.New(server.Options{
		Config:    cfg,
		Store:     database,
		LLM:       client,
		JWT:       jwtCfg,
		Passwords: passwords,
		RateLimit: ratelimit.LoadConfig(),
		Renderer:  renderer,
		Fetcher:   ingestion.NewFetcher(ingestion.Options{UseBrowser: cfg.UseBrowser, Logger: logger}),
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("starting server", "port", cfg.Port, "render_engine", cfg.RenderEngine, "model_tier", cfg.ModelTier)
	return srv.Start(ctx)
}
