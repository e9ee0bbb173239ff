package agent

import (
	"errors"
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// ErrUnknownNodeType is returned when a node's effective kind is outside the
// closed set.
var ErrUnknownNodeType = errors.New("unknown node type")

// Payload is the typed configuration of a node. The concrete type is one of
// InputData, AIData, LogicData, APIData or OutputData.
type Payload interface {
	NodeType() NodeType
}

// InputData configures an input node.
type InputData struct {
	Label       string  `mapstructure:"label"`
	Placeholder string  `mapstructure:"placeholder"`
	InputSchema *Schema `mapstructure:"inputSchema"`
}

// AIData configures an ai node.
type AIData struct {
	Label        string   `mapstructure:"label"`
	Provider     string   `mapstructure:"provider"`
	Model        string   `mapstructure:"model"`
	Prompt       string   `mapstructure:"prompt"`
	SystemPrompt string   `mapstructure:"systemPrompt"`
	Temperature  *float64 `mapstructure:"temperature"`
	MaxTokens    *int     `mapstructure:"maxTokens"`
}

// LogicData configures a logic node. LogicType selects which expression runs.
type LogicData struct {
	Label          string `mapstructure:"label"`
	LogicType      string `mapstructure:"logicType"`
	Condition      string `mapstructure:"condition"`
	Transformation string `mapstructure:"transformation"`
	Validation     string `mapstructure:"validation"`
}

// APIData configures an api node.
type APIData struct {
	Label      string            `mapstructure:"label"`
	Endpoint   string            `mapstructure:"apiEndpoint"`
	Method     string            `mapstructure:"apiMethod"`
	Headers    map[string]string `mapstructure:"apiHeaders"`
	BodyFormat string            `mapstructure:"bodyFormat"`
}

// OutputData configures an output node.
type OutputData struct {
	Label        string  `mapstructure:"label"`
	Format       string  `mapstructure:"format"`
	OutputSchema *Schema `mapstructure:"outputSchema"`
}

func (InputData) NodeType() NodeType  { return NodeInput }
func (AIData) NodeType() NodeType     { return NodeAI }
func (LogicData) NodeType() NodeType  { return NodeLogic }
func (APIData) NodeType() NodeType    { return NodeAPI }
func (OutputData) NodeType() NodeType { return NodeOutput }

// Payload decodes n.Data into the payload matching the node's kind.
func (n Node) Payload() (Payload, error) {
	switch kind := n.Kind(); kind {
	case NodeInput:
		return decodePayload[InputData](n)
	case NodeAI:
		return decodePayload[AIData](n)
	case NodeLogic:
		return decodePayload[LogicData](n)
	case NodeAPI:
		return decodePayload[APIData](n)
	case NodeOutput:
		return decodePayload[OutputData](n)
	default:
		return nil, fmt.Errorf("node %s: %w %q", n.ID, ErrUnknownNodeType, kind)
	}
}

// AI decodes the payload of an ai node. Decoding does not check the kind.
func (n Node) AI() (AIData, error) { return decodePayload[AIData](n) }

func (n Node) Input() (InputData, error) { return decodePayload[InputData](n) }

func (n Node) Logic() (LogicData, error) { return decodePayload[LogicData](n) }

func (n Node) API() (APIData, error) { return decodePayload[APIData](n) }

func (n Node) Output() (OutputData, error) { return decodePayload[OutputData](n) }

func decodePayload[T any](n Node) (T, error) {
	var out T
	if len(n.Data) == 0 {
		return out, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &out,
	})
	if err != nil {
		return out, err
	}
	if err := decoder.Decode(n.Data); err != nil {
		return out, fmt.Errorf("decode %s payload of node %s: %w", n.Kind(), n.ID, err)
	}
	return out, nil
}
