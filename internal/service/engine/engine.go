package engine

import (
	"context"
	"errors"
	"log"
	"math"
	"strings"

	"github.com/dhruvmehta/callguard/backend/internal/model/fraud"
	"github.com/dhruvmehta/callguard/backend/internal/service/explain"
)

// Threshold is the fraud score at or above which an explanation is
// requested. Below it the explanation call is skipped entirely.
const Threshold = 75

// Scorer is the trained classifier boundary: text in, class probability
// distribution out. Index 1 is the legitimacy probability.
type Scorer interface {
	Probabilities(ctx context.Context, text string) ([]float64, error)
}

// Engine orchestrates scoring and conditional explanation. The explanation
// is an enrichment, never a dependency of the score: any failure past the
// scorer degrades into an in-result fallback instead of an error.
type Engine struct {
	scorer    Scorer
	explainer explain.Explainer
}

// New creates an engine. A nil explainer is allowed; high scores then carry
// the generic fallback reason.
func New(scorer Scorer, explainer explain.Explainer) *Engine {
	return &Engine{scorer: scorer, explainer: explainer}
}

// Evaluate scores the text and, for high scores, attaches a generated
// reason. The only error it returns is a scorer failure.
func (e *Engine) Evaluate(ctx context.Context, text string) (fraud.Result, error) {
	probs, err := e.scorer.Probabilities(ctx, text)
	if err != nil {
		return fraud.Result{}, err
	}

	// Single-class distributions give no usable legitimacy signal; 0.5 is
	// the conservative midpoint.
	legit := 0.5
	if len(probs) >= 2 {
		legit = probs[1]
	}
	score := 100 - int(math.Round(legit*100))

	if score < Threshold {
		return fraud.Result{FraudProbability: score, Reason: ""}, nil
	}

	return e.explainResult(ctx, text, score), nil
}

func (e *Engine) explainResult(ctx context.Context, text string, score int) fraud.Result {
	if e.explainer == nil {
		return fallbackResult(score, errors.New("explanation provider not configured"))
	}

	raw, err := e.explainer.Explain(ctx, text)
	if err != nil {
		log.Printf("[engine] explanation call failed: %v", err)
		return fallbackResult(score, err)
	}

	reason, err := explain.ParseReason(raw)
	if err != nil {
		log.Printf("[engine] explanation output unusable: %v", err)
		return fraud.Result{
			FraudProbability: score,
			Reason:           "AI error in analysis",
			APIError:         true,
		}
	}

	return fraud.Result{FraudProbability: score, Reason: reason}
}

// fallbackResult keeps the computed score and classifies the failure into a
// human-readable reason by keyword matching on the provider message.
func fallbackResult(score int, err error) fraud.Result {
	return fraud.Result{
		FraudProbability: score,
		Reason:           classifyFailure(err),
		APIError:         true,
	}
}

func classifyFailure(err error) string {
	msg := strings.ToLower(err.Error())

	switch {
	case containsAny(msg, "quota", "exceeded", "billing", "insufficient"):
		return "AI analysis unavailable: quota exceeded"
	case containsAny(msg, "api key", "unauthorized", "unauthenticated", "permission", "forbidden"):
		return "AI analysis unavailable: authentication failed"
	case containsAny(msg, "rate limit", "rate-limit", "too many requests", "429"):
		return "AI analysis unavailable: rate limited"
	default:
		return "AI error in analysis"
	}
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
