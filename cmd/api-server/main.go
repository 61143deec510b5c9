package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"recipehub/internal/auth"
	"recipehub/internal/blog"
	"recipehub/internal/events"
	"recipehub/internal/recipe"
	"recipehub/internal/storage"
	"recipehub/pkg/logging"
	"recipehub/pkg/utils"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "api-server: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := utils.LoadConfig()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Log.Format == "json" {
		gin.SetMode(gin.ReleaseMode)
	}

	users, err := auth.LoadRepo(cfg.Auth.UsersFile)
	if err != nil {
		return err
	}
	if users.Len() == 0 {
		logger.Warn("no admin users configured; admin API will reject every login",
			zap.String("users_file", cfg.Auth.UsersFile))
	}
	authSvc := auth.NewService(users, auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.JWTDuration,
	})

	ctx := context.Background()
	store, err := storage.Open(ctx, cfg.Storage, logger.Named("storage"))
	if err != nil {
		return err
	}
	defer store.Close()

	recipes, err := recipe.NewRepo(ctx, store)
	if err != nil {
		return err
	}
	posts, err := blog.NewRepo(cfg.Blog.Dir, logger.Named("blog"))
	if err != nil {
		return err
	}
	logger.Info("content loaded",
		zap.String("driver", cfg.Storage.Driver),
		zap.Int("recipes", recipes.Len()),
		zap.Int("posts", posts.Len()),
		zap.Int("admins", users.Len()),
	)

	hub := events.NewHub(logger.Named("events"))

	router := newRouter(&app{
		cfg:     cfg,
		logger:  logger,
		auth:    authSvc,
		recipes: recipes,
		posts:   posts,
		store:   store,
		hub:     hub,
	})

	httpSrv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	var tcpSrv *events.Server
	if cfg.Events.TCPAddr != "" {
		tcpSrv = events.NewServer(cfg.Events.TCPAddr, hub)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := tcpSrv.Run(); err != nil {
				errCh <- fmt.Errorf("tcp change feed: %w", err)
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("http api listening", zap.String("addr", cfg.Server.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", zap.String("signal", sig.String()))
	case runErr = <-errCh:
		logger.Error("server error", zap.Error(runErr))
	}

	logger.Info("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if tcpSrv != nil {
		if err := tcpSrv.Close(); err != nil {
			logger.Error("tcp shutdown", zap.Error(err))
		}
	}

	wg.Wait()
	logger.Info("servers stopped")
	return runErr
}
