package predict

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/dhruvmehta/callguard/backend/internal/model/fraud"
	"github.com/dhruvmehta/callguard/backend/internal/session"
	"github.com/dhruvmehta/callguard/backend/pkg/utils"
)

// Evaluator abstracts the decision engine for testing.
type Evaluator interface {
	Evaluate(ctx context.Context, text string) (fraud.Result, error)
}

// Handler serves the one-shot prediction endpoint.
type Handler struct {
	engine   Evaluator
	sessions *session.Store
}

// New creates the predict handler.
func New(engine Evaluator, sessions *session.Store) *Handler {
	return &Handler{engine: engine, sessions: sessions}
}

// RegisterRoutes mounts the prediction route.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/predict", h.handlePredict)
}

func (h *Handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
		ID   string `json:"id"`
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.Text == "" {
		utils.RespondError(w, http.StatusBadRequest, "No input text provided")
		return
	}

	sessionKey := payload.ID
	if sessionKey == "" {
		// Anonymous callers still get windowed scoring, just never across
		// requests.
		sessionKey = uuid.NewString()
	}

	text := h.sessions.Append(sessionKey, payload.Text, session.PredictPolicy)

	result, err := h.engine.Evaluate(r.Context(), text)
	if err != nil {
		log.Printf("[predict] scoring failed session=%s: %v", sessionKey, err)
		utils.RespondError(w, http.StatusInternalServerError, "prediction failed")
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}
