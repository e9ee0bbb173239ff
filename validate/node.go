package validate

import (
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/leofalp/agentgraph/agent"
	"github.com/leofalp/agentgraph/providers/ai"
)

const (
	msgAIMissingProvider  = "Nó de IA deve ter provedor definido"
	msgAIMissingPrompt    = "Nó de IA deve ter prompt definido"
	msgAPIMissingEndpoint = "Nó de API deve ter endpoint definido"
)

// minPromptLength below which a prompt is flagged as lacking context.
const minPromptLength = 20

var supportedModels = map[ai.ProviderID][]string{
	ai.OpenAI:    {"gpt-4", "gpt-4-turbo", "gpt-3.5-turbo", "gpt-4o-mini"},
	ai.Anthropic: {"claude-3-sonnet", "claude-3-haiku", "claude-3-opus", "claude-3-5-haiku-20241022"},
	ai.Google:    {"gemini-pro", "gemini-pro-vision", "gemini-1.5-flash", "gemini-2.5-flash"},
	// HuggingFace hosts arbitrary models.
	ai.HuggingFace: nil,
}

var actionVerbs = []string{"analise", "gere", "extraia", "resuma", "classifique", "analyze", "generate", "extract", "summarize", "classify"}

// ValidateNode applies the rules of the node's kind. a supplies the edges for
// checks that depend on neighbors and may be nil.
func ValidateNode(node agent.Node, a *agent.Agent) agent.ValidationResult {
	payload, err := node.Payload()
	if err != nil {
		return agent.Fail(fmt.Sprintf("Tipo de nó '%s' não suportado", node.Kind()))
	}

	switch data := payload.(type) {
	case agent.InputData:
		return validateInput(data)
	case agent.AIData:
		return validateAI(data)
	case agent.LogicData:
		return validateLogic(node, data, a)
	case agent.APIData:
		return validateAPI(data)
	case agent.OutputData:
		return validateOutput(data)
	default:
		return agent.Fail(fmt.Sprintf("Tipo de nó '%s' não suportado", node.Kind()))
	}
}

func validateInput(data agent.InputData) agent.ValidationResult {
	schema := data.InputSchema
	if schema == nil {
		return agent.Pass("Nó de entrada sem schema definido")
	}

	var warnings []string
	if len(schema.Properties) > 0 && len(schema.Required) == 0 {
		warnings = append(warnings, "Nenhum campo obrigatório definido no schema de entrada")
	}
	for _, name := range schema.PropertyNames() {
		if property := schema.Properties[name]; property == nil || property.Description == "" {
			warnings = append(warnings, fmt.Sprintf("Campo '%s' sem descrição", name))
		}
	}
	return agent.Pass(warnings...)
}

func validateAI(data agent.AIData) agent.ValidationResult {
	if strings.TrimSpace(data.Provider) == "" {
		return agent.Fail(msgAIMissingProvider)
	}
	provider, known := ai.ParseProviderID(data.Provider)
	if !known {
		return agent.Fail(fmt.Sprintf("Provedor '%s' não suportado", data.Provider))
	}

	var warnings []string
	switch models := supportedModels[provider]; {
	case data.Model == "":
		warnings = append(warnings, "Nó de IA sem modelo definido; o modelo padrão do provedor será usado")
	case models != nil && !slices.Contains(models, data.Model):
		warnings = append(warnings, fmt.Sprintf("Modelo '%s' não reconhecido para o provedor '%s'", data.Model, provider))
	}

	if data.Temperature != nil && (*data.Temperature < 0 || *data.Temperature > 2) {
		warnings = append(warnings, fmt.Sprintf("Temperatura %.2f fora do intervalo [0, 2]", *data.Temperature))
	}
	if data.MaxTokens != nil && *data.MaxTokens <= 0 {
		warnings = append(warnings, "maxTokens deve ser maior que zero")
	}

	if strings.TrimSpace(data.Prompt) == "" {
		return agent.Fail(msgAIMissingPrompt, warnings...)
	}
	warnings = append(warnings, promptQuality(data.Prompt)...)

	return agent.Pass(warnings...)
}

func promptQuality(prompt string) []string {
	var warnings []string
	lower := strings.ToLower(prompt)

	if len([]rune(strings.TrimSpace(prompt))) < minPromptLength {
		warnings = append(warnings, "Prompt muito curto - considere adicionar mais contexto")
	}

	hasVerb := slices.ContainsFunc(actionVerbs, func(verb string) bool {
		return strings.Contains(lower, verb)
	})
	if !hasVerb {
		warnings = append(warnings, "Prompt deveria conter instruções claras (analise, gere, extraia, etc.)")
	}

	if strings.Contains(lower, "json") && !strings.Contains(lower, "estruturado") && !strings.Contains(lower, "structured") {
		warnings = append(warnings, "Para saída JSON, especifique \"formato estruturado\" no prompt")
	}

	return warnings
}

func validateLogic(node agent.Node, data agent.LogicData, a *agent.Agent) agent.ValidationResult {
	var warnings []string
	if data.LogicType == "" && data.Condition == "" && data.Transformation == "" {
		warnings = append(warnings, "Nó de lógica sem condições ou transformações definidas")
	}
	if a != nil && len(a.Outgoing(node.ID)) <= 1 {
		warnings = append(warnings, "Nó de lógica geralmente deveria ter múltiplas saídas para diferentes condições")
	}
	return agent.Pass(warnings...)
}

func validateAPI(data agent.APIData) agent.ValidationResult {
	if strings.TrimSpace(data.Endpoint) == "" {
		return agent.Fail(msgAPIMissingEndpoint)
	}

	endpoint, err := url.Parse(data.Endpoint)
	if err != nil || (endpoint.Scheme != "http" && endpoint.Scheme != "https") || endpoint.Host == "" {
		return agent.Fail(fmt.Sprintf("Endpoint de API inválido: '%s'", data.Endpoint))
	}

	var warnings []string
	if data.Method == "" {
		warnings = append(warnings, "Endpoint de API sem método HTTP definido")
	}
	if len(data.Headers) == 0 {
		warnings = append(warnings, "API externa pode precisar de configuração de autenticação")
	}
	return agent.Pass(warnings...)
}

func validateOutput(data agent.OutputData) agent.ValidationResult {
	schema := data.OutputSchema
	if schema == nil {
		return agent.Pass("Nó de saída sem schema definido")
	}

	if len(schema.Properties) == 0 {
		return agent.Pass("Schema de saída sem propriedades definidas")
	}

	var warnings []string
	for _, name := range schema.PropertyNames() {
		if property := schema.Properties[name]; property == nil || property.Description == "" {
			warnings = append(warnings, fmt.Sprintf("Propriedade de saída '%s' sem descrição", name))
		}
	}
	return agent.Pass(warnings...)
}
