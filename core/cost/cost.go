package cost

import (
	"fmt"
	"strings"
)

// Price is the USD cost of one thousand tokens.
type Price float64

// Estimate is the cost breakdown of one completion.
type Estimate struct {
	Provider string  `json:"provider"`
	Model    string  `json:"model"`
	Tokens   int     `json:"tokens"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	// Known is false when the model is not in the price table and the
	// provider's fallback rate was used.
	Known bool `json:"known"`
}

// String returns a formatted string representation of the cost.
func (e Estimate) String() string {
	return fmt.Sprintf("%.6f %s (%d tokens, %s/%s)", e.Amount, e.Currency, e.Tokens, e.Provider, e.Model)
}

// prices holds the per-1K-token rates. Keys are provider then model.
var prices = map[string]map[string]Price{
	"openai": {
		"gpt-4":         0.03,
		"gpt-4-turbo":   0.01,
		"gpt-3.5-turbo": 0.002,
		"gpt-4o-mini":   0.00015,
	},
	"anthropic": {
		"claude-3-opus":             0.015,
		"claude-3-sonnet":           0.003,
		"claude-3-haiku":            0.00025,
		"claude-3-5-haiku-20241022": 0.0008,
	},
	"google": {
		"gemini-pro":        0.0005,
		"gemini-pro-vision": 0.0025,
		"gemini-1.5-flash":  0.000075,
	},
	"huggingface": {},
}

// fallbackRate is charged for models missing from the table.
const fallbackRate Price = 0.001

// Lookup returns the per-1K price for provider and model. Model names are
// matched exactly first, then by the longest known prefix, so dated variants
// such as "gpt-4-0613" resolve to "gpt-4".
func Lookup(provider, model string) (Price, bool) {
	table, ok := prices[strings.ToLower(provider)]
	if !ok {
		return fallbackRate, false
	}
	if price, ok := table[model]; ok {
		return price, true
	}

	bestLen := 0
	var best Price
	for known, price := range table {
		if strings.HasPrefix(model, known) && len(known) > bestLen {
			best, bestLen = price, len(known)
		}
	}
	if bestLen > 0 {
		return best, true
	}
	return fallbackRate, false
}

// EstimateFor prices tokens for provider and model.
func EstimateFor(provider, model string, tokens int) Estimate {
	price, known := Lookup(provider, model)
	return Estimate{
		Provider: provider,
		Model:    model,
		Tokens:   tokens,
		Amount:   float64(tokens) / 1000 * float64(price),
		Currency: "USD",
		Known:    known,
	}
}
