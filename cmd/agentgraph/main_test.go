package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const agentYAML = `
id: resumo
name: Resumo de textos
nodes:
  - id: in
    type: input
    data:
      inputSchema:
        type: object
        properties:
          texto: {type: string, description: Texto a resumir}
        required: [texto]
  - id: llm
    type: ai
    data:
      provider: openai
      model: gpt-4o-mini
      prompt: Analise o texto recebido e gere um resumo executivo
  - id: out
    type: output
    data:
      outputSchema:
        type: object
        properties:
          resumo: {type: string, description: Resumo}
edges:
  - {id: e1, source: in, target: llm}
  - {id: e2, source: llm, target: out}
`

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, key := range []string{
		"AGENTGRAPH_CONFIG", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY",
		"HUGGINGFACE_API_KEY", "HF_TOKEN", "REDIS_URL", "AGENTGRAPH_FALLBACK_ORDER",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("AGENTGRAPH_DB_PATH", filepath.Join(dir, "history.db"))
	return dir
}

func writeAgent(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append([]string{"--log-level", "ERROR"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestValidateCommand(t *testing.T) {
	dir := setupEnv(t)

	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{"valid yaml", agentYAML, false},
		{"empty graph", `{"id":"vazio","nodes":[],"edges":[]}`, true},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeAgent(t, dir, []string{"agent.yaml", "agent.json"}[i], tt.content)

			out, err := execute(t, "validate", path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}

			var result map[string]any
			if err := json.Unmarshal([]byte(out), &result); err != nil {
				t.Fatalf("output is not JSON: %v\n%s", err, out)
			}
			if result["isValid"] != !tt.wantErr {
				t.Errorf("isValid = %v", result["isValid"])
			}
		})
	}
}

func TestStrategyAndSimulateCommands(t *testing.T) {
	dir := setupEnv(t)
	path := writeAgent(t, dir, "agent.yaml", agentYAML)
	data := writeAgent(t, dir, "data.json", `{"texto":"Um texto de exemplo"}`)

	out, err := execute(t, "strategy", path)
	if err != nil {
		t.Fatalf("strategy: %v", err)
	}
	if !strings.Contains(out, `"complexity": "beginner"`) {
		t.Errorf("strategy output = %s", out)
	}

	out, err = execute(t, "simulate", path, "--data", data)
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if !strings.Contains(out, "Um texto de exemplo") {
		t.Errorf("simulation did not use the supplied data: %s", out)
	}
}

func TestTestAndHistoryCommands(t *testing.T) {
	dir := setupEnv(t)
	path := writeAgent(t, dir, "agent.yaml", agentYAML)

	out, err := execute(t, "test", path)
	if err != nil {
		t.Fatalf("test: %v\n%s", err, out)
	}
	if !strings.Contains(out, `"status": "completed"`) {
		t.Errorf("test output = %s", out)
	}

	out, err = execute(t, "history", "--kind", "test")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "resumo") || !strings.Contains(out, "completed") {
		t.Errorf("history output = %s", out)
	}
}

func TestProvidersCommand(t *testing.T) {
	setupEnv(t)
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AGENTGRAPH_FALLBACK_ORDER", "openai,anthropic")

	out, err := execute(t, "providers")
	if err != nil {
		t.Fatalf("providers: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 3 {
		t.Fatalf("output = %q", out)
	}
	if !strings.HasPrefix(lines[1], "openai") || !strings.Contains(lines[1], "true") {
		t.Errorf("openai line = %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "anthropic") || !strings.Contains(lines[2], "false") {
		t.Errorf("anthropic line = %q", lines[2])
	}
}

func TestCompleteCommand_UnknownProvider(t *testing.T) {
	setupEnv(t)
	if _, err := execute(t, "complete", "--provider", "mistral", "oi"); err == nil || !strings.Contains(err.Error(), "mistral") {
		t.Errorf("err = %v", err)
	}
}
