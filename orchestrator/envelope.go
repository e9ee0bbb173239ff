package orchestrator

import (
	"fmt"

	"github.com/leofalp/agentgraph/core/parse"
)

// NotInformed is the placeholder the contract mandates for missing data.
const NotInformed = "Não informado"

// Envelope is the JSON document every answer under [ForcedJSON] follows.
type Envelope struct {
	Metadata       EnvelopeMetadata `json:"metadata"`
	AnalisePayload map[string]any   `json:"analise_payload"`
}

// EnvelopeMetadata is the fixed header every answer must carry.
type EnvelopeMetadata struct {
	TipoDocumento   string `json:"tipo_documento"`
	TituloRelatorio string `json:"titulo_relatorio"`
	DataAnalise     string `json:"data_analise"`
	TipoAnalise     string `json:"tipo_analise"`
}

// ParseEnvelope decodes content, tolerating code fences, surrounding prose
// and repairable JSON damage. Missing metadata fields become NotInformed.
func ParseEnvelope(content string) (*Envelope, error) {
	envelope, err := parse.ParseStringAs[Envelope](content)
	if err != nil {
		return nil, fmt.Errorf("parse response envelope: %w", err)
	}

	for _, field := range []*string{
		&envelope.Metadata.TipoDocumento,
		&envelope.Metadata.TituloRelatorio,
		&envelope.Metadata.DataAnalise,
		&envelope.Metadata.TipoAnalise,
	} {
		if *field == "" {
			*field = NotInformed
		}
	}
	if envelope.AnalisePayload == nil {
		envelope.AnalisePayload = map[string]any{}
	}

	return &envelope, nil
}

// Summary returns analise_payload.resumo_executivo, or NotInformed.
func (e *Envelope) Summary() string {
	if summary, ok := e.AnalisePayload["resumo_executivo"].(string); ok && summary != "" {
		return summary
	}
	return NotInformed
}
