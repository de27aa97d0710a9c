package speech

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/tarunlokjeet/historia/internal/service/audio"
	speechsvc "github.com/tarunlokjeet/historia/internal/service/speech"
	"github.com/tarunlokjeet/historia/pkg/utils"
)

const maxUploadBytes = 32 << 20

// TranscriptionService abstracts the speech-to-text adapter for testing.
type TranscriptionService interface {
	Transcribe(ctx context.Context, contentType string, audioBytes []byte) (*speechsvc.Transcription, error)
}

// SynthesisService abstracts the text-to-speech adapter for testing.
type SynthesisService interface {
	Synthesize(ctx context.Context, text string) (string, error)
}

// Handler serves the speech endpoints and audio file management.
type Handler struct {
	transcriber TranscriptionService
	synthesizer SynthesisService
	audio       *audio.Manager
}

func New(transcriber TranscriptionService, synthesizer SynthesisService, audioMgr *audio.Manager) *Handler {
	return &Handler{
		transcriber: transcriber,
		synthesizer: synthesizer,
		audio:       audioMgr,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/transcribe", h.handleTranscribe)
	r.Post("/synthesize", h.handleSynthesize)
	r.Delete("/audio/{filename}", h.handleDeleteAudio)
}

func (h *Handler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to parse multipart form: "+err.Error())
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("audio_file")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "audio_file is required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	audioBytes, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	result, err := h.transcriber.Transcribe(r.Context(), contentType, audioBytes)
	if err != nil {
		log.Error("transcription failed", "error", err)
		utils.RespondError(w, speechErrorStatus(err), err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text  string `json:"text"`
		Voice string `json:"voice,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name, err := h.synthesizer.Synthesize(r.Context(), payload.Text)
	if err != nil {
		log.Error("speech synthesis failed", "error", err)
		utils.RespondError(w, speechErrorStatus(err), err.Error())
		return
	}

	path, err := h.audio.Path(name)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "generated audio file missing")
		return
	}

	f, err := os.Open(path)
	if err != nil {
		utils.RespondError(w, http.StatusInternalServerError, "failed to open audio file")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	if _, err := io.Copy(w, f); err != nil {
		log.Error("failed to send audio file", "file", name, "error", err)
	}
}

func (h *Handler) handleDeleteAudio(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	if err := h.audio.Delete(filename); err != nil {
		if errors.Is(err, audio.ErrNotFound) {
			utils.RespondError(w, http.StatusNotFound, "File not found")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "File deleted successfully"})
}

func speechErrorStatus(err error) int {
	if errors.Is(err, speechsvc.ErrInvalidInput) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
