package orchestrator

import "github.com/leofalp/agentgraph/providers/ai"

// defaultModels favors the fastest model of each vendor.
var defaultModels = map[ai.ProviderID]string{
	ai.OpenAI:      "gpt-4o-mini",
	ai.Anthropic:   "claude-3-5-haiku-20241022",
	ai.Google:      "gemini-1.5-flash",
	ai.HuggingFace: "meta-llama/Llama-3.2-3B-Instruct",
}

// compatibleModels maps a requested model to its nearest equivalent per
// provider.
var compatibleModels = map[string]map[ai.ProviderID]string{
	"gpt-4":            defaultModels,
	"gpt-4o-mini":      defaultModels,
	"claude-3-sonnet":  defaultModels,
	"gemini-pro":       defaultModels,
	"gemini-2.5-flash": defaultModels,
}

// DefaultModel returns the provider's default model.
func DefaultModel(provider ai.ProviderID) string {
	return defaultModels[provider]
}

// CompatibleModel resolves requested for provider, falling back to the
// provider default when the table has no entry.
func CompatibleModel(requested string, provider ai.ProviderID) string {
	if byProvider, ok := compatibleModels[requested]; ok {
		if model, ok := byProvider[provider]; ok {
			return model
		}
	}
	return DefaultModel(provider)
}

const baseSystemPrompt = `Você é um assistente especializado em análise de documentos e processos de Recursos Humanos (RH).

Suas especialidades incluem:
- Análise de contratos de trabalho e conformidade com a CLT
- Processamento de documentos de RH (currículos, avaliações, onboarding)
- Validação de dados e documentos trabalhistas
- Suporte a processos de recrutamento e seleção

Sempre forneça respostas precisas, profissionais e em conformidade com a legislação trabalhista brasileira.`

// DefaultSystemPrompt is used when the caller supplies no system prompt.
func DefaultSystemPrompt(provider ai.ProviderID) string {
	switch provider {
	case ai.Anthropic:
		return baseSystemPrompt + "\n\nSeja detalhado e estruturado em suas análises."
	case ai.OpenAI:
		return baseSystemPrompt + "\n\nForneça respostas claras e organizadas."
	case ai.Google:
		return baseSystemPrompt + "\n\nSeja preciso e objetivo em suas respostas."
	default:
		return baseSystemPrompt
	}
}
