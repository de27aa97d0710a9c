package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	chathandler "github.com/tarunlokjeet/historia/internal/handler/chat"
	speechhandler "github.com/tarunlokjeet/historia/internal/handler/speech"
	middlewarePkg "github.com/tarunlokjeet/historia/internal/middleware"
	"github.com/tarunlokjeet/historia/internal/service/audio"
	"github.com/tarunlokjeet/historia/internal/service/ollama"
	speechsvc "github.com/tarunlokjeet/historia/internal/service/speech"
	"github.com/tarunlokjeet/historia/internal/store"
	"github.com/tarunlokjeet/historia/pkg/utils"
)

const version = "1.0.0"

// NewRouter wires HTTP routes to core services.
func NewRouter(llm *ollama.Client, transcriber *speechsvc.Transcriber, synthesizer *speechsvc.Synthesizer, audioMgr *audio.Manager, messages store.MessageStore) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chathandler.New(llm, messages)
	speechHandler := speechhandler.New(transcriber, synthesizer, audioMgr)

	r.Get("/", handleRoot)
	r.Get("/health", handleHealth(llm, transcriber, synthesizer))

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		speechHandler.RegisterRoutes(api)
		api.Get("/models", handleModels(llm))
		api.Get("/stats", handleStats(audioMgr, transcriber, synthesizer))
	})

	return r
}

func handleRoot(w http.ResponseWriter, _ *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"message":   "Historia API is running",
		"version":   version,
		"features":  []string{"Chat with Ollama", "Speech-to-Text", "Text-to-Speech"},
		"endpoints": []string{"/api/chat", "/api/transcribe", "/api/synthesize", "/health"},
	})
}

func handleHealth(llm *ollama.Client, transcriber *speechsvc.Transcriber, synthesizer *speechsvc.Synthesizer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := "healthy"
		services := make(map[string]any)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		if tags, err := llm.Tags(ctx); err != nil {
			status = "degraded"
			key := "disconnected"
			if errors.Is(err, ollama.ErrBadStatus) {
				key = "error"
			}
			services["ollama"] = map[string]any{"status": key, "error": err.Error()}
		} else {
			services["ollama"] = map[string]any{
				"status":           "connected",
				"models_available": ollama.CountModels(tags),
				"current_model":    llm.Model(),
			}
		}

		services["whisper"] = map[string]string{"status": loadStatus(transcriber.Loaded())}
		services["tts"] = map[string]string{"status": loadStatus(synthesizer.Loaded())}

		utils.RespondJSON(w, http.StatusOK, map[string]any{
			"status":    status,
			"timestamp": time.Now().UTC(),
			"services":  services,
		})
	}
}

func handleModels(llm *ollama.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tags, err := llm.Tags(r.Context())
		if err != nil {
			log.Error("could not fetch models", "error", err)
			utils.RespondError(w, http.StatusInternalServerError, "Could not fetch models")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(tags)
	}
}

func handleStats(audioMgr *audio.Manager, transcriber *speechsvc.Transcriber, synthesizer *speechsvc.Synthesizer) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		count, totalBytes, err := audioMgr.Stats()
		if err != nil {
			utils.RespondError(w, http.StatusInternalServerError, "failed to read audio directory")
			return
		}

		stats := map[string]any{
			"audio_files_count":       count,
			"audio_directory_size_mb": float64(totalBytes) / (1024 * 1024),
			"whisper_loaded":          transcriber.Loaded(),
			"tts_loaded":              synthesizer.Loaded(),
		}

		if percentages, err := cpu.Percent(0, false); err == nil && len(percentages) > 0 {
			stats["cpu_percent"] = percentages[0]
		}
		if vm, err := mem.VirtualMemory(); err == nil {
			stats["memory_percent"] = vm.UsedPercent
		}

		utils.RespondJSON(w, http.StatusOK, stats)
	}
}

func loadStatus(loaded bool) string {
	if loaded {
		return "loaded"
	}
	return "not_loaded"
}
