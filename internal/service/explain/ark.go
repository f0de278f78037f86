package explain

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// Ark implements Explainer on an eino chat model (Volcengine Ark). The
// prompt template and chain are compiled once at construction.
type Ark struct {
	chain compose.Runnable[map[string]any, *schema.Message]
}

// NewArk builds the explanation chain on top of the provided chat model.
func NewArk(ctx context.Context, chatModel model.ChatModel) (*Ark, error) {
	promptTemplate := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("You are an AI fraud detection assistant. Respond only with valid JSON."),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(promptTemplate)
	chain.AppendChatModel(chatModel)

	runnable, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("compile explanation chain: %w", err)
	}

	return &Ark{chain: runnable}, nil
}

// Explain runs the chain and returns the model's raw text.
func (a *Ark) Explain(ctx context.Context, transcript string) (string, error) {
	response, err := a.chain.Invoke(ctx, map[string]any{
		"query": buildPrompt(transcript),
	})
	if err != nil {
		return "", fmt.Errorf("run explanation chain: %w", err)
	}
	if response.Content == "" {
		return "", fmt.Errorf("model returned an empty response")
	}
	return response.Content, nil
}
