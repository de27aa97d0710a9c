package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/tarunlokjeet/historia/internal/config"
	"github.com/tarunlokjeet/historia/internal/handler"
	"github.com/tarunlokjeet/historia/internal/service/audio"
	"github.com/tarunlokjeet/historia/internal/service/ollama"
	"github.com/tarunlokjeet/historia/internal/service/speech"
	"github.com/tarunlokjeet/historia/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Warn("failed to load .env file, continuing with system environment", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", "error", err)
	}

	messages := newMessageStore(ctx, cfg.Database)
	defer messages.Close()

	audioMgr, err := audio.NewManager(cfg.Audio.Dir, cfg.Audio.Retention, cfg.Audio.SweepInterval)
	if err != nil {
		log.Fatal("failed to prepare audio directory", "dir", cfg.Audio.Dir, "error", err)
	}
	audioMgr.Start(ctx)

	llm := ollama.NewClient(cfg.Ollama.BaseURL, cfg.Ollama.Model)

	transcriber := speech.NewTranscriber(func() (speech.RecognitionEngine, error) {
		return speech.NewWhisperEngine(cfg.Speech.WhisperBinDir, cfg.Speech.WhisperModelDir, cfg.Speech.WhisperModel)
	})
	synthesizer := speech.NewSynthesizer(audioMgr.Dir(), func() (speech.SynthesisEngine, error) {
		return speech.NewPiperEngine(cfg.Speech.PiperBinDir, cfg.Speech.PiperModelDir, cfg.Speech.PiperVoice)
	})

	router := handler.NewRouter(llm, transcriber, synthesizer, audioMgr, messages)

	startServer(ctx, cfg.Server, router)
}

func newMessageStore(ctx context.Context, cfg config.DatabaseConfig) store.MessageStore {
	if cfg.URL == "" {
		log.Info("DATABASE_URL not set, using in-memory message store")
		return store.NewMemoryStore()
	}

	pg, err := store.NewPostgresStore(ctx, cfg.URL)
	if err != nil {
		log.Warn("failed to connect to database, falling back to in-memory store", "error", err)
		return store.NewMemoryStore()
	}

	log.Info("connected to message store")
	return pg
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info("Historia backend listening", "addr", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatal("server error", "error", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
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
