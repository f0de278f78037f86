package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dhruvmehta/callguard/backend/internal/config"
	"github.com/dhruvmehta/callguard/backend/internal/handler"
	"github.com/dhruvmehta/callguard/backend/internal/service/engine"
	"github.com/dhruvmehta/callguard/backend/internal/service/explain"
	"github.com/dhruvmehta/callguard/backend/internal/service/scoring"
	"github.com/dhruvmehta/callguard/backend/internal/service/transcribe"
	"github.com/dhruvmehta/callguard/backend/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// The classifier is the primary signal; without it the service has
	// nothing to offer.
	if !cfg.Scoring.Enabled() {
		log.Fatal("SCORING_URL is required")
	}
	scorer := scoring.NewClient(cfg.Scoring.URL, cfg.Scoring.APIKey, 10*time.Second)

	explainer := buildExplainer(ctx, cfg.Explain)

	var transcriber transcribe.Transcriber
	if cfg.Transcription.Enabled() {
		transcriber = transcribe.NewDeepgram(cfg.Transcription.BaseURL, cfg.Transcription.APIKey, cfg.Transcription.Timeout)
		log.Println("transcription service initialized")
	} else {
		log.Println("DEEPGRAM_API_KEY not set, audio endpoints will report a configuration error")
	}

	sessions := session.NewStore(cfg.Session.TTL)
	sessions.StartJanitor(ctx, cfg.Session.SweepInterval)

	eng := engine.New(scorer, explainer)

	router := handler.NewRouter(eng, sessions, transcriber, cfg.CORS)

	startServer(ctx, cfg.Server, router)
}

// buildExplainer constructs the configured explanation provider. Explanation
// is an enrichment, so missing credentials degrade to fallback reasons
// instead of failing startup.
func buildExplainer(ctx context.Context, cfg config.ExplainConfig) explain.Explainer {
	if !cfg.Enabled() {
		log.Println("explanation provider credentials not set, high scores will carry fallback reasons")
		return nil
	}

	switch cfg.Provider {
	case "ark":
		chatModel, err := cfg.NewArkChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to create ark chat model: %v", err)
			return nil
		}
		explainer, err := explain.NewArk(ctx, chatModel)
		if err != nil {
			log.Printf("warning: failed to initialize ark explainer: %v", err)
			return nil
		}
		log.Println("explanation provider initialized (ark)")
		return explainer
	default:
		explainer, err := explain.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Printf("warning: failed to initialize gemini explainer: %v", err)
			return nil
		}
		log.Println("explanation provider initialized (gemini)")
		return explainer
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("callguard backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
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
