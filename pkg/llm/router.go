package llm

import (
	"context"
	"fmt"
	"strings"
)

// Router dispatches a completion to the provider that owns the model id:
// claude-* models go to Anthropic, everything else to OpenAI.
type Router struct {
	openai    Completer
	anthropic Completer
}

func NewRouter(openai, anthropic Completer) *Router {
	return &Router{openai: openai, anthropic: anthropic}
}

func (r *Router) Complete(ctx context.Context, req Request) (string, error) {
	if strings.HasPrefix(req.Model, "claude") {
		if r.anthropic == nil {
			return "", fmt.Errorf("model %q requires an anthropic API key", req.Model)
		}
		return r.anthropic.Complete(ctx, req)
	}

	if r.openai == nil {
		return "", fmt.Errorf("model %q requires an openai API key", req.Model)
	}
	return r.openai.Complete(ctx, req)
}
