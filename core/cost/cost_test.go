package cost

import (
	"math"
	"testing"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		provider, model string
		want            Price
		known           bool
	}{
		{"openai", "gpt-4", 0.03, true},
		{"openai", "gpt-4-turbo", 0.01, true},
		{"openai", "gpt-4-0613", 0.03, true},
		{"anthropic", "claude-3-haiku", 0.00025, true},
		{"google", "gemini-pro-vision", 0.0025, true},
		{"huggingface", "meta-llama/Llama-3.2-3B-Instruct", fallbackRate, false},
		{"unknown", "x", fallbackRate, false},
	}

	for _, tt := range tests {
		got, known := Lookup(tt.provider, tt.model)
		if got != tt.want || known != tt.known {
			t.Errorf("Lookup(%s, %s) = (%v, %v), want (%v, %v)", tt.provider, tt.model, got, known, tt.want, tt.known)
		}
	}
}

func TestEstimateFor(t *testing.T) {
	estimate := EstimateFor("openai", "gpt-4", 2000)
	if math.Abs(estimate.Amount-0.06) > 1e-9 {
		t.Errorf("Amount = %v, want 0.06", estimate.Amount)
	}
	if estimate.Currency != "USD" || !estimate.Known {
		t.Errorf("estimate = %+v", estimate)
	}
	if estimate.String() == "" {
		t.Error("String must not be empty")
	}
}
