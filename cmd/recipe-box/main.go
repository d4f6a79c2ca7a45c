package main

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/zombor/recipe-box/internal/extraction"
	"github.com/zombor/recipe-box/internal/recipe"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// A missing .env is fine; flags and the environment still apply
	_ = godotenv.Load()

	fs := ff.NewFlagSet("recipe-box")
	var (
		port         = fs.IntLong("port", 8080, "HTTP server port")
		dbPath       = fs.StringLong("db", "recipe-box.db", "Database file path")
		storageType  = fs.StringLong("storage", "local", "Upload storage backend: 'local' or 's3'")
		storagePath  = fs.StringLong("storage-path", "./uploads", "Upload directory for local storage")
		s3Bucket     = fs.StringLong("s3-bucket", "", "S3 bucket for uploads")
		s3Region     = fs.StringLong("s3-region", "", "S3 region (default 'auto')")
		s3Endpoint   = fs.StringLong("s3-endpoint", "", "Custom S3 endpoint for R2 or MinIO")
		s3AccessKey  = fs.StringLong("s3-access-key", "", "S3 access key (default credential chain if empty)")
		s3SecretKey  = fs.StringLong("s3-secret-key", "", "S3 secret key")
		s3Prefix     = fs.StringLong("s3-prefix", "uploads", "Object key prefix for uploads")
		provider     = fs.StringLong("provider", "openai", "Model provider: 'openai', 'gemini' or 'ollama'")
		apiKey       = fs.StringLong("api-key", "", "Model provider API key")
		baseURL      = fs.StringLong("base-url", "", "Model provider base URL (provider default if empty)")
		style        = fs.StringLong("style", string(extraction.StyleChat), "OpenAI-compatible endpoint style: 'chat' or 'responses'")
		model        = fs.StringLong("model", "", "Model name (provider default if empty)")
		maxTokens    = fs.IntLong("max-tokens", extraction.DefaultMaxOutputTokens, "Output token cap (clamped to 1500-1700)")
		textTimeout  = fs.DurationLong("text-timeout", extraction.DefaultTextTimeout, "Model call timeout for text input")
		imageTimeout = fs.DurationLong("image-timeout", extraction.DefaultImageTimeout, "Model call timeout for image input")
		authUser     = fs.StringLong("auth-user", "", "Basic auth username (optional)")
		authPass     = fs.StringLong("auth-pass", "", "Basic auth password (optional)")
		_            = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("RECIPE_BOX"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Initializing database...")
	db, err := recipe.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cfg := extraction.Config{
		APIKey:          *apiKey,
		BaseURL:         *baseURL,
		Model:           *model,
		Style:           extraction.EndpointStyle(*style),
		MaxOutputTokens: *maxTokens,
		TextTimeout:     *textTimeout,
		ImageTimeout:    *imageTimeout,
	}
	client, err := newModelClient(ctx, *provider, cfg)
	if err != nil {
		slog.Error("Failed to initialize model client", "provider", *provider, "error", err)
		os.Exit(1)
	}
	defer client.Close()

	store, err := newStorage(ctx, *storageType, *storagePath, recipe.S3Config{
		Bucket:    *s3Bucket,
		Region:    *s3Region,
		Endpoint:  *s3Endpoint,
		AccessKey: *s3AccessKey,
		SecretKey: *s3SecretKey,
		Prefix:    *s3Prefix,
	})
	if err != nil {
		slog.Error("Failed to initialize storage", "type", *storageType, "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	extractor := extraction.NewExtractor(client, extraction.NewMetrics(registry))
	service := recipe.NewService(db, extractor, store)
	server := recipe.NewServer(service, recipe.BasicAuth{
		Username: *authUser,
		Password: *authPass,
	}, registry)

	if *authUser != "" || *authPass != "" {
		slog.Info("Basic auth enabled", "user", *authUser)
	}

	addr := fmt.Sprintf(":%d", *port)
	if err := server.Start(ctx, addr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
	slog.Info("Shut down")
}

func newModelClient(ctx context.Context, provider string, cfg extraction.Config) (extraction.ModelClient, error) {
	switch provider {
	case "openai":
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		slog.Info("Initializing OpenAI-compatible client...", "style", cfg.Style, "model", cfg.Model)
		return extraction.NewOpenAI(cfg), nil
	case "gemini":
		if cfg.APIKey == "" {
			cfg.APIKey = os.Getenv("GEMINI_API_KEY")
		}
		slog.Info("Initializing Gemini client...", "model", cfg.Model)
		return extraction.NewGemini(ctx, cfg)
	case "ollama":
		slog.Info("Initializing Ollama client...", "url", cfg.BaseURL, "model", cfg.Model)
		return extraction.NewOllama(cfg), nil
	}
	return nil, fmt.Errorf("invalid provider %q: want openai, gemini or ollama", provider)
}

func newStorage(ctx context.Context, storageType, path string, s3cfg recipe.S3Config) (recipe.Storage, error) {
	switch storageType {
	case "local":
		slog.Info("Initializing local storage...", "path", path)
		return recipe.NewLocalStorage(path)
	case "s3":
		slog.Info("Initializing S3 storage...", "bucket", s3cfg.Bucket, "endpoint", s3cfg.Endpoint)
		return recipe.NewS3Storage(ctx, s3cfg)
	}
	return nil, fmt.Errorf("invalid storage type %q: want local or s3", storageType)
}
