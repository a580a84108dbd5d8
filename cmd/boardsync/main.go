package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/openboard/boardsync/internal/board"
	"github.com/openboard/boardsync/internal/httpapi"
)

func main() {
	addr := os.Getenv("BOARDSYNC_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	boardPath := resolveBoardPath()

	flag := board.NewSelfWriteFlag()
	store, err := board.NewStore(boardPath, flag)
	if err != nil {
		log.Fatalf("failed to initialize board store: %v", err)
	}
	watcher, err := board.NewWatcher(boardPath, flag, board.WatcherOptions{
		Debounce:     durationEnv("BOARDSYNC_DEBOUNCE_WINDOW", 0),
		PollInterval: durationEnv("BOARDSYNC_POLL_INTERVAL", 0),
		Logger:       log.Default(),
	})
	if err != nil {
		log.Fatalf("failed to initialize change watcher: %v", err)
	}
	archive, err := board.BuildArchiveFromDSN(os.Getenv("BOARDSYNC_ARCHIVE_DSN"))
	if err != nil {
		log.Fatalf("failed to initialize revision archive: %v", err)
	}
	engine, err := board.NewEngine(store, watcher, board.EngineOptions{
		HistoryDepth: intEnv("BOARDSYNC_HISTORY_DEPTH", 0),
		Archive:      archive,
		Logger:       log.Default(),
	})
	if err != nil {
		log.Fatalf("failed to initialize engine: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	engine.Start(ctx)

	server := httpapi.NewServer(engine, archive, httpapi.ServerConfig{
		Token:        strings.TrimSpace(os.Getenv("BOARDSYNC_TOKEN")),
		MaxBodyBytes: int64Env("BOARDSYNC_MAX_BODY_BYTES", 0),
	})
	httpServer := &http.Server{Addr: addr, Handler: server}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		if archive != nil {
			_ = archive.Close()
		}
	}()

	log.Printf("boardsync listening on %s (board file %s)", addr, boardPath)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server failed: %v", err)
	}
}

func resolveBoardPath() string {
	if path := strings.TrimSpace(os.Getenv("BOARDSYNC_BOARD_FILE")); path != "" {
		return path
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}
	return filepath.Join(cwd, "board.json")
}

func intEnv(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %d", name, raw, fallback)
		return fallback
	}
	return value
}

func int64Env(name string, fallback int64) int64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %d", name, raw, fallback)
		return fallback
	}
	return value
}

func durationEnv(name string, fallback time.Duration) time.Duration {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using fallback %s", name, raw, fallback.String())
		return fallback
	}
	return value
}
