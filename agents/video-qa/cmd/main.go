package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	videoqa "video-qa/agents/video-qa"
	"video-qa/agents/video-qa/api"
	"video-qa/shared/config"
	"video-qa/shared/logging"
	"video-qa/shared/monitoring"
	"video-qa/shared/scheduler"
)

func main() {
	log := logging.Base()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := logging.Setup(cfg.Logging); err != nil {
		log.Fatalf("Invalid logging configuration: %v", err)
	}
	log = logging.Base()

	// Create context that responds to signals
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if len(os.Args) > 1 && os.Args[1] == "--once" {
		if len(os.Args) < 3 {
			log.Fatal("usage: video-qa --once <video-url>")
		}
		if err := runOnce(ctx, cfg, os.Args[2]); err != nil {
			log.Fatalf("Failed to run: %v", err)
		}
		return
	}

	if err := serve(ctx, cfg); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// runOnce acquires a single transcript and prints it.
func runOnce(ctx context.Context, cfg *config.Config, rawURL string) error {
	acquirer, err := videoqa.NewAcquirer(ctx, cfg, nil)
	if err != nil {
		return err
	}

	res, err := acquirer.Acquire(ctx, rawURL)
	if err != nil {
		return err
	}

	strategy := res.Strategy
	if strategy == "" {
		strategy = "none"
	}
	fmt.Printf("Title:      %s\n", res.Title)
	fmt.Printf("Video ID:   %s\n", res.Video.ID)
	fmt.Printf("Strategy:   %s\n", strategy)
	for _, a := range res.Attempts {
		status := "ok"
		if !a.Success {
			status = a.Cause
		}
		fmt.Printf("  %-9s %-8s %s\n", a.Strategy, a.Duration.Round(time.Millisecond), status)
	}
	fmt.Printf("\n%s\n", res.Transcript)
	return nil
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logging.Base()

	svc, err := videoqa.NewService(ctx, cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	sched := scheduler.New(svc.Monitor)
	if err := sched.Add(ctx, cfg.Janitor.Schedule, svc.Janitor); err != nil {
		return err
	}

	router := api.NewRouter(api.NewHandler(svc.Agent), monitoring.NewHealthServer(svc.Monitor), cfg.Server)
	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("HTTP server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := sched.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
