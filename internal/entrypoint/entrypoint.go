package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clipshelf/clipshelf/internal/auth"
	"github.com/clipshelf/clipshelf/internal/books"
	"github.com/clipshelf/clipshelf/internal/config"
	http_controllers "github.com/clipshelf/clipshelf/internal/http"
	"github.com/clipshelf/clipshelf/internal/kvstore"
	"github.com/clipshelf/clipshelf/internal/metadata"
	"github.com/clipshelf/clipshelf/internal/migration"
	"github.com/clipshelf/clipshelf/internal/ocr"
	"github.com/clipshelf/clipshelf/internal/scheduler"
	"github.com/clipshelf/clipshelf/internal/storage"
	"github.com/clipshelf/clipshelf/internal/storage/local"
	"github.com/clipshelf/clipshelf/internal/storage/remote"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve starts the HTTP server and blocks until SIGINT/SIGTERM, then shuts
// down within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

// BuildEngine constructs the OCR engine named in the config, with the
// canned engine as fallback when enabled.
func BuildEngine(cfg config.OCR) (ocr.Engine, ocr.Engine) {
	var engine ocr.Engine
	switch cfg.Engine {
	case config.OCREngineCanned:
		log.Printf("OCR: using canned engine; recognized text will be placeholder data")
		engine = ocr.NewCannedEngine()
	default:
		engine = ocr.NewTesseractEngine()
	}

	var fallback ocr.Engine
	if cfg.Fallback && cfg.Engine != config.OCREngineCanned {
		fallback = ocr.NewCannedEngine()
	}
	return engine, fallback
}

func splitLanguages(raw string) []string {
	var langs []string
	for _, lang := range strings.Split(raw, ",") {
		if lang != "" {
			langs = append(langs, lang)
		}
	}
	return langs
}

// Run wires the whole application together and serves until interrupted.
func Run(cfg *config.Config, version string) {
	log.Printf("Starting Clipshelf v%s", version)

	kv, err := kvstore.Open(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open local store at %s: %v", cfg.Database.Path, err)
	}
	defer kv.Close()

	authProvider := auth.NewProvider(auth.NewClient(cfg.Auth.BaseURL, cfg.Auth.APIKey), kv)

	localBackend := local.New(kv)
	remoteBackend := remote.New(
		remote.NewClient(cfg.Remote.BaseURL, cfg.Remote.APIKey),
		authProvider.CurrentUserID,
	)
	store := storage.NewService(localBackend, remoteBackend)

	var strategy migration.Strategy
	switch cfg.Migration.Strategy {
	case config.MigrationStrategyCopy:
		strategy = migration.NewCopyStrategy(localBackend, remoteBackend)
	default:
		strategy = migration.NoopStrategy{}
	}
	coordinator := migration.NewCoordinator(store, localBackend, strategy)
	detach := coordinator.Attach(context.Background(), authProvider)
	defer detach()

	if cfg.Auth.Anonymous && !authProvider.CurrentState().SignedIn() && cfg.Auth.BaseURL != "" {
		if err := authProvider.SignInAnonymously(context.Background()); err != nil {
			log.Printf("Anonymous sign-in failed, staying on local storage: %v", err)
		}
	}

	engine, fallback := BuildEngine(cfg.OCR)
	adapterOpts := []ocr.Option{
		ocr.WithLanguages(splitLanguages(cfg.OCR.Languages)...),
		ocr.WithMaxWidth(cfg.OCR.MaxWidth),
		ocr.WithJPEGQuality(cfg.OCR.JPEGQuality),
	}
	if fallback != nil {
		adapterOpts = append(adapterOpts, ocr.WithFallback(fallback))
	}
	adapter := ocr.NewAdapter(engine, adapterOpts...)

	booksService := books.NewService(store, metadata.NewOpenLibraryClient())

	syncScheduler := scheduler.NewSyncScheduler(cfg.Sync, coordinator, authProvider)
	if err := syncScheduler.Start(context.Background()); err != nil {
		log.Fatalf("Failed to start sync scheduler: %v", err)
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Store:        store,
		BooksService: booksService,
		Extractor:    adapter,
		AuthProvider: authProvider,
		Coordinator:  coordinator,
		KV:           kv,
		Version:      version,
	})

	Serve(router, cfg, func(ctx context.Context) {
		syncScheduler.Stop()
	})
}
