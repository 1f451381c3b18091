package llm

import "context"

// Request is one completion call. Model is a provider model id; the caller
// decides it per stage.
type Request struct {
	System      string
	User        string
	Model       string
	Temperature float64
}

// Completer produces free-form text from a prompt pair. Implementations make
// no promise about the output format beyond "a string".
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}
