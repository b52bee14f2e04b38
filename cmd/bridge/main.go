package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/Actual-Reality/ai-master-engineer/internal/config"
	"github.com/Actual-Reality/ai-master-engineer/internal/handler"
	"github.com/Actual-Reality/ai-master-engineer/internal/model/bot"
	"github.com/Actual-Reality/ai-master-engineer/internal/service/history"
	"github.com/Actual-Reality/ai-master-engineer/internal/service/orchestrator"
	ragservice "github.com/Actual-Reality/ai-master-engineer/internal/service/rag"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// History store: durable driver when configured, memory fallback when
	// the configured driver fails to open.
	repo := history.OpenRepository(cfg.History.Driver, cfg.History.Path, logger)
	historySvc := history.NewService(repo, cfg.History.MaxTurns, logger)
	defer historySvc.Close()

	ragClient := ragservice.NewClient(cfg.RAG, logger)
	orch := orchestrator.New(historySvc, ragClient, bot.DefaultProfile(cfg.Bot.Name), logger)

	router := handler.NewRouter(orch, historySvc, ragClient, logger)

	startServer(ctx, cfg.Server, router, logger)
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = lvl
	return zapCfg.Build()
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("conversation bridge listening", zap.String("addr", serverCfg.Addr))
	if err := runServer(ctx, srv); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		// In-flight turns finish within the shutdown window; persistence
		// only happens after a complete parsed answer, so no mid-flight
		// cancellation is needed for history integrity.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
