package overview

import (
	"context"
	"sync"
	"time"

	"github.com/leofalp/agentgraph/core/cost"
	"github.com/leofalp/agentgraph/providers/ai"
)

type contextKey struct{}

// Call records one successful completion.
type Call struct {
	Provider     string        `json:"provider"`
	Model        string        `json:"model"`
	Tokens       int           `json:"tokens"`
	Cost         float64       `json:"cost"`
	Duration     time.Duration `json:"duration"`
	FallbackUsed bool          `json:"fallbackUsed"`
}

// Overview aggregates completions for a single execution. It is safe for
// concurrent use.
type Overview struct {
	mu        sync.Mutex
	calls     []Call
	usage     ai.Usage
	totalCost float64
	startedAt time.Time
}

// New returns an empty Overview started now.
func New() *Overview {
	return &Overview{startedAt: time.Now()}
}

// ToContext stores o in ctx.
func (o *Overview) ToContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, o)
}

// FromContext returns the Overview stored in ctx, or nil.
func FromContext(ctx context.Context) *Overview {
	o, _ := ctx.Value(contextKey{}).(*Overview)
	return o
}

// Record adds one completion. A nil receiver is a no-op so callers need not
// check whether an Overview is attached.
func (o *Overview) Record(provider ai.ProviderID, response *ai.ChatResponse, duration time.Duration, fallbackUsed bool) {
	if o == nil || response == nil {
		return
	}

	tokens := response.TotalTokens()
	estimate := cost.EstimateFor(provider.String(), response.Model, tokens)

	o.mu.Lock()
	defer o.mu.Unlock()

	o.calls = append(o.calls, Call{
		Provider:     provider.String(),
		Model:        response.Model,
		Tokens:       tokens,
		Cost:         estimate.Amount,
		Duration:     duration,
		FallbackUsed: fallbackUsed,
	})
	if response.Usage != nil {
		o.usage.PromptTokens += response.Usage.PromptTokens
		o.usage.CompletionTokens += response.Usage.CompletionTokens
	}
	o.usage.TotalTokens += tokens
	o.totalCost += estimate.Amount
}

// Summary is a point-in-time copy of an Overview.
type Summary struct {
	Calls     []Call        `json:"calls"`
	Usage     ai.Usage      `json:"usage"`
	TotalCost float64       `json:"totalCost"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Summary returns a snapshot of the recorded calls.
func (o *Overview) Summary() Summary {
	if o == nil {
		return Summary{}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	return Summary{
		Calls:     append([]Call(nil), o.calls...),
		Usage:     o.usage,
		TotalCost: o.totalCost,
		Elapsed:   time.Since(o.startedAt),
	}
}
