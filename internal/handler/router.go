package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dhruvmehta/callguard/backend/internal/config"
	predicthandler "github.com/dhruvmehta/callguard/backend/internal/handler/predict"
	streamhandler "github.com/dhruvmehta/callguard/backend/internal/handler/stream"
	transcribehandler "github.com/dhruvmehta/callguard/backend/internal/handler/transcribe"
	middlewarePkg "github.com/dhruvmehta/callguard/backend/internal/middleware"
	"github.com/dhruvmehta/callguard/backend/internal/service/engine"
	transcribesvc "github.com/dhruvmehta/callguard/backend/internal/service/transcribe"
	"github.com/dhruvmehta/callguard/backend/internal/session"
	"github.com/dhruvmehta/callguard/backend/pkg/utils"
)

// NewRouter wires HTTP and WebSocket routes to the decision engine.
func NewRouter(eng *engine.Engine, sessions *session.Store, transcriber transcribesvc.Transcriber, corsCfg config.CORSConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS(corsCfg))

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"message": "Welcome to the Fraud Detection API!",
		})
	})

	predicthandler.New(eng, sessions).RegisterRoutes(r)
	transcribehandler.New(transcriber, eng).RegisterRoutes(r)
	streamhandler.New(eng, sessions, corsCfg).RegisterRoutes(r)

	return r
}
