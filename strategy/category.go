package strategy

import (
	"fmt"
	"strings"

	"github.com/leofalp/agentgraph/agent"
	"github.com/leofalp/agentgraph/synth"
)

// TestCase is a canned scenario for a known agent.
type TestCase struct {
	Name            string         `json:"name"`
	TestData        map[string]any `json:"testData"`
	Validations     []string       `json:"validations"`
	ExpectedOutputs []string       `json:"expectedOutputs,omitempty"`
}

// CategoryValidator bundles the domain checks and fixtures of a category.
type CategoryValidator interface {
	ValidateCategory(a *agent.Agent) agent.ValidationResult
	TestCases(agentID string) []TestCase
	GenerateTestData(a *agent.Agent) map[string]any
}

// ValidatorFor picks a validator purely by category string.
func ValidatorFor(category string) CategoryValidator {
	switch category {
	case CategoryHRLegal:
		return HRLegalValidator{}
	default:
		return GenericValidator{}
	}
}

// HRLegalValidator covers document and contract workflows for HR and legal
// teams.
type HRLegalValidator struct{}

var hrTestCases = map[string]TestCase{
	"contract-analyzer": {
		Name: "Análise de contrato",
		TestData: map[string]any{
			"file":         "contrato-exemplo.pdf",
			"email_gestor": "gestor@test.com",
			"departamento": "RH",
		},
		Validations: []string{
			"partes_envolvidas_extraidas",
			"valor_contrato_identificado",
			"prazo_contrato_validado",
			"clausulas_importantes_listadas",
		},
		ExpectedOutputs: []string{"relatorio_pdf", "dados_extraidos", "status_conformidade"},
	},
	"recruitment-screening": {
		Name: "Triagem de currículos",
		TestData: map[string]any{
			"curriculos":     []any{"curriculo1.pdf", "curriculo2.pdf"},
			"descricao_vaga": "Desenvolvedor Full Stack - React/Node.js",
			"criterios_peso": map[string]any{"experiencia": 0.4, "formacao": 0.2, "habilidades": 0.3, "idiomas": 0.1},
		},
		Validations: []string{"curriculos_analisados", "pontuacao_calculada", "ranking_gerado", "recomendacoes_entrevista"},
	},
	"document-processor": {
		Name: "Processamento de documentos",
		TestData: map[string]any{
			"documentos":     []any{"rg.pdf", "cpf.pdf", "carteira-trabalho.pdf"},
			"funcionario_id": "func-123",
			"tipo_documento": "rg",
		},
		Validations: []string{"ocr_executado", "dados_extraidos", "validacao_autenticidade", "alertas_vencimento"},
	},
	"onboarding-automation": {
		Name: "Onboarding",
		TestData: map[string]any{
			"nome":          "Maria Santos",
			"cargo":         "Analista de RH",
			"departamento":  "RH",
			"data_inicio":   "2024-02-01",
			"email":         "maria.santos@empresa.com",
			"gestor_direto": "Carlos Silva",
		},
		Validations: []string{"checklist_personalizado", "treinamentos_agendados", "kit_boas_vindas_enviado"},
	},
}

func (HRLegalValidator) ValidateCategory(a *agent.Agent) agent.ValidationResult {
	var warnings []string

	hasFiles := hasInputField(a, "file", "documentos", "curriculos")
	hasEmail := hasInputField(a, "email")
	hasDomainPrompt := false
	for _, node := range a.Nodes {
		if strings.Contains(strings.ToLower(node.Label()), "email") {
			hasEmail = true
		}
		prompt, _ := node.Data["prompt"].(string)
		prompt = strings.ToLower(prompt)
		for _, word := range []string{"rh", "contrato", "funcionário", "currículo"} {
			if strings.Contains(prompt, word) {
				hasDomainPrompt = true
			}
		}
	}
	if !hasFiles && !hasEmail && !hasDomainPrompt {
		warnings = append(warnings, "Agente de RH deveria ter processamento de arquivos, integração de email ou prompts específicos de RH")
	}

	if len(a.NodesOfType(agent.NodeAI)) == 0 {
		return agent.Fail("Agentes de RH precisam de pelo menos um nó de IA para análise", warnings...)
	}

	if synth.OutputSchema(a) == nil {
		warnings = append(warnings, "Recomendado definir schema de saída estruturado para relatórios de RH")
	}

	return agent.Pass(warnings...)
}

func (HRLegalValidator) TestCases(agentID string) []TestCase {
	if testCase, ok := hrTestCases[agentID]; ok {
		return []TestCase{testCase}
	}
	return nil
}

// GenerateTestData synthesizes from the input schema; agents without one get
// a resume-screening payload.
func (HRLegalValidator) GenerateTestData(a *agent.Agent) map[string]any {
	if synth.InputSchema(a).Empty() {
		return map[string]any{
			"documentos": []any{"curriculo-teste.pdf"},
			"vaga":       "Desenvolvedor",
		}
	}
	return synth.ForAgent(a)
}

// GenericValidator enforces only the structural minimum. It serves custom
// and unknown categories.
type GenericValidator struct{}

func (GenericValidator) ValidateCategory(a *agent.Agent) agent.ValidationResult {
	counts := a.CountByType()
	if counts[agent.NodeInput] == 0 || counts[agent.NodeOutput] == 0 {
		return agent.Fail("Agente customizado deve ter fluxo de entrada e saída")
	}

	var warnings []string
	for _, node := range a.NodesOfType(agent.NodeAPI) {
		if endpoint, _ := node.Data["apiEndpoint"].(string); endpoint != "" {
			warnings = append(warnings, fmt.Sprintf("Nó de API '%s' pode precisar de configuração de autenticação", node.ID))
		}
	}

	for _, node := range a.NodesOfType(agent.NodeAI) {
		if prompt, _ := node.Data["prompt"].(string); strings.TrimSpace(prompt) == "" {
			return agent.Fail(fmt.Sprintf("Nó AI '%s' sem prompt definido", node.ID), warnings...)
		}
	}

	return agent.Pass(warnings...)
}

func (GenericValidator) TestCases(string) []TestCase {
	return []TestCase{{
		Name: "Execução genérica",
		TestData: map[string]any{
			"text": "Teste de execução do agente customizado",
		},
		Validations: []string{"fluxo_executado", "saida_gerada"},
	}}
}

func (GenericValidator) GenerateTestData(a *agent.Agent) map[string]any {
	return synth.ForAgent(a)
}
