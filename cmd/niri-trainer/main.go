package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nrodrigues/niri-trainer-go/internal/api"
	"github.com/nrodrigues/niri-trainer-go/internal/config"
	"github.com/nrodrigues/niri-trainer-go/internal/content"
	"github.com/nrodrigues/niri-trainer-go/internal/ranking"
	"github.com/nrodrigues/niri-trainer-go/internal/store"
	"github.com/nrodrigues/niri-trainer-go/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config (defaults apply when omitted)")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	log := logger.New(
		logger.WithPrefix("[niri-trainer] "),
		logger.WithVerbose(*verbose),
	)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatal("load config: %v", err)
		}
		cfg = loaded
	}

	db, err := store.NewSQLiteDB(cfg.Database.Path)
	if err != nil {
		log.Fatal("open database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("migrate database: %v", err)
	}

	// A missing annotations file is not fatal: the server comes up and
	// refuses to start sessions until records arrive over the API.
	records, err := content.Load(cfg.Annotations.File)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Warn("annotations file %s not found, starting with no content", cfg.Annotations.File)
		} else {
			log.Fatal("load annotations: %v", err)
		}
	}
	log.Info("loaded %d annotation records", len(records))

	persisted, err := db.LoadRanking()
	if err != nil {
		log.Fatal("load ranking: %v", err)
	}
	board := ranking.NewBoard(persisted)
	log.Debug("ranking restored with %d entries", board.Len())

	server := api.NewServer(db, records, board, api.Options{
		AnnotationsPath: cfg.Annotations.File,
		StartingLives:   cfg.Game.StartingLives,
	})

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      server.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening on %s", cfg.ListenAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("serve: %v", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown: %v", err)
		}
	}
}
