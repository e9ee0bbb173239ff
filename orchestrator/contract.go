package orchestrator

import (
	"strings"
	"time"
)

// OutputContract is the structured-output policy injected ahead of every
// system prompt.
type OutputContract struct {
	Name string

	// JSONMode asks vendors that support it for a JSON object response.
	JSONMode bool

	preamble func(now time.Time) string
}

// ForcedJSON makes every provider answer with the analysis envelope decoded
// by [ParseEnvelope].
var ForcedJSON = OutputContract{
	Name:     "forced-json",
	JSONMode: true,
	preamble: forcedJSONPreamble,
}

// FreeForm injects nothing; the caller's system prompt is used as is.
var FreeForm = OutputContract{Name: "free-form"}

// SystemPrompt joins the contract preamble with the caller's system prompt.
func (c OutputContract) SystemPrompt(now time.Time, system string) string {
	if c.preamble == nil {
		return system
	}
	preamble := c.preamble(now)
	if strings.TrimSpace(system) == "" {
		return preamble
	}
	return preamble + "\n\n" + system
}

func forcedJSONPreamble(now time.Time) string {
	return `Você é um assistente especializado em análise de documentos.
IMPORTANTE: Responda SEMPRE em formato JSON válido, seguindo esta estrutura:

{
  "metadata": {
    "tipo_documento": "tipo detectado automaticamente",
    "titulo_relatorio": "Título adequado para o tipo de documento",
    "data_analise": "` + now.Format("02/01/2006") + `",
    "tipo_analise": "Tipo de análise realizada"
  },
  "analise_payload": {
    "resumo_executivo": "Resumo conciso da análise",
    "dados_principais": {
      "informacao_extraida": "valores extraídos do documento"
    },
    "pontos_principais": [
      "Primeiro ponto importante",
      "Segundo ponto importante"
    ],
    "recomendacoes": [
      "Primeira recomendação",
      "Segunda recomendação"
    ],
    "conclusao": "Conclusão final da análise"
  }
}

REGRAS OBRIGATÓRIAS:
- Responda APENAS JSON válido.
- Não use markdown, asteriscos ou formatação.
- Dentro de 'analise_payload', você tem a flexibilidade de adicionar, remover ou renomear campos para melhor representar os dados do documento analisado.
- Use "Não informado" se dados não disponíveis.`
}
