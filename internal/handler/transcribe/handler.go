package transcribe

import (
	"context"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dhruvmehta/callguard/backend/internal/model/fraud"
	transcribesvc "github.com/dhruvmehta/callguard/backend/internal/service/transcribe"
	"github.com/dhruvmehta/callguard/backend/pkg/utils"
)

// maxUploadSize bounds multipart parsing.
const maxUploadSize = 32 << 20

// Evaluator abstracts the decision engine for testing.
type Evaluator interface {
	Evaluate(ctx context.Context, text string) (fraud.Result, error)
}

// languageCodes is the closed set of supported languages mapped to provider
// codes.
var languageCodes = map[string]string{
	"english": "en",
	"hindi":   "hi",
}

// Handler serves the audio endpoints: transcription-plus-scoring and raw
// uploads.
type Handler struct {
	transcriber transcribesvc.Transcriber
	engine      Evaluator
}

// New creates the transcribe handler. A nil transcriber keeps the routes
// registered but answers with a configuration error.
func New(transcriber transcribesvc.Transcriber, engine Evaluator) *Handler {
	return &Handler{transcriber: transcriber, engine: engine}
}

// RegisterRoutes mounts the audio routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/transcribe/{language}", h.handleTranscribe)
	r.Post("/api/upload-audio", h.handleUploadAudio)
}

func (h *Handler) handleTranscribe(w http.ResponseWriter, r *http.Request) {
	language := strings.ToLower(chi.URLParam(r, "language"))
	code, ok := languageCodes[language]
	if !ok {
		utils.RespondError(w, http.StatusBadRequest, "Unsupported language")
		return
	}

	audio, mimeType, ok := h.readAudioPart(w, r)
	if !ok {
		return
	}

	transcript, ok := h.transcribeAudio(w, r, audio, mimeType, code)
	if !ok {
		return
	}

	result, err := h.engine.Evaluate(r.Context(), transcript)
	if err != nil {
		log.Printf("[transcribe] scoring failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "prediction failed")
		return
	}

	result.Transcript = transcript
	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleUploadAudio(w http.ResponseWriter, r *http.Request) {
	audio, mimeType, ok := h.readAudioPart(w, r)
	if !ok {
		return
	}

	// Spool the upload to a temp file; it is removed on every exit path.
	tmp, err := os.CreateTemp("", "callguard-upload-*")
	if err != nil {
		log.Printf("[upload] create temp file: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(audio); err != nil {
		tmp.Close()
		log.Printf("[upload] write temp file: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}
	if err := tmp.Close(); err != nil {
		log.Printf("[upload] close temp file: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	stored, err := os.ReadFile(tmpPath)
	if err != nil {
		log.Printf("[upload] read temp file: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "failed to store upload")
		return
	}

	transcript, ok := h.transcribeAudio(w, r, stored, mimeType, "en")
	if !ok {
		return
	}

	result, err := h.engine.Evaluate(r.Context(), transcript)
	if err != nil {
		log.Printf("[upload] scoring failed: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "prediction failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"transcript":      transcript,
		"fraud_detection": result,
		"status":          "success",
	})
}

// readAudioPart extracts and validates the multipart audio file. It writes
// the error response itself and reports success via the bool.
func (h *Handler) readAudioPart(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "No audio file provided")
		return nil, "", false
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "No audio file provided")
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read audio file")
		return nil, "", false
	}
	if len(data) == 0 {
		utils.RespondError(w, http.StatusBadRequest, "Empty file")
		return nil, "", false
	}

	return data, audioMimeType(header), true
}

// transcribeAudio runs the adapter and maps taxonomy failures to responses.
func (h *Handler) transcribeAudio(w http.ResponseWriter, r *http.Request, audio []byte, mimeType, code string) (string, bool) {
	if h.transcriber == nil {
		utils.RespondError(w, http.StatusInternalServerError, "Transcription service is not configured")
		return "", false
	}

	transcript, err := h.transcriber.Transcribe(r.Context(), audio, mimeType, code)
	if err != nil {
		log.Printf("[transcribe] provider error (%s): %v", transcribesvc.KindOf(err), err)
		utils.RespondError(w, http.StatusInternalServerError, transcribesvc.UserMessage(err))
		return "", false
	}

	return transcript, true
}

// audioMimeType takes the part's declared type, falling back to the
// extension and finally to audio/mpeg.
func audioMimeType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}

	switch strings.ToLower(filepath.Ext(header.Filename)) {
	case ".wav":
		return "audio/wav"
	case ".webm":
		return "audio/webm"
	case ".ogg":
		return "audio/ogg"
	case ".m4a":
		return "audio/mp4"
	default:
		return "audio/mpeg"
	}
}
