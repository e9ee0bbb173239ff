package parse

import (
	"errors"
	"testing"
)

type report struct {
	Title  string   `json:"title"`
	Points []string `json:"points"`
}

func TestParseStringAs_ValidJSON(t *testing.T) {
	got, err := ParseStringAs[report](`{"title":"ok","points":["a","b"]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "ok" || len(got.Points) != 2 {
		t.Errorf("got %+v", got)
	}
}

func TestParseStringAs_CodeFence(t *testing.T) {
	input := "```json\n{\"title\":\"fenced\",\"points\":[]}\n```"
	got, err := ParseStringAs[report](input)
	if err != nil || got.Title != "fenced" {
		t.Fatalf("got %+v, err %v", got, err)
	}
}

func TestParseStringAs_SurroundingProse(t *testing.T) {
	input := `Claro! Aqui está: {"title":"prose","points":["x"]} Espero ter ajudado.`
	got, err := ParseStringAs[report](input)
	if err != nil || got.Title != "prose" {
		t.Fatalf("got %+v, err %v", got, err)
	}
}

// TestParseStringAs_RepairsMalformedJSON verifies jsonrepair handles single
// quotes, unquoted keys and trailing commas.
func TestParseStringAs_RepairsMalformedJSON(t *testing.T) {
	got, err := ParseStringAs[report](`{title: 'repaired', points: ['a',],}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "repaired" || len(got.Points) != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestParseStringAs_UnwrapsSchemaValues(t *testing.T) {
	input := `{"title": {"type": "string", "value": "wrapped"}, "points": {"type": "array", "value": ["p"]}}`
	got, err := ParseStringAs[report](input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Title != "wrapped" || len(got.Points) != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestParseStringAs_Map(t *testing.T) {
	got, err := ParseStringAs[map[string]any](`{"a": 1}`)
	if err != nil || got["a"] != float64(1) {
		t.Fatalf("got %v, err %v", got, err)
	}
}

func TestParseStringAs_Empty(t *testing.T) {
	if _, err := ParseStringAs[report]("   "); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}
