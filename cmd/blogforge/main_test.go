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

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--env-file", "", "--cache.dir", ""))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func estimate(t *testing.T, args ...string) map[string]any {
	t.Helper()
	out, err := execute(t, append([]string{"estimate"}, args...)...)
	if err != nil {
		t.Fatalf("estimate: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("estimate output is not JSON: %v\n%s", err, out)
	}
	return m
}

func TestEstimate_UsesWords(t *testing.T) {
	t.Setenv("LLM_MODEL", "")
	m := estimate(t, "--words", "1000", "--url", "https://example.com")
	if m["output_tokens"] != 1500.0 || m["prompt_tokens"] != 500.0 || m["url"] != "https://example.com" {
		t.Fatalf("unexpected estimate: %v", m)
	}
}

func TestConfigPrecedence_FlagsOverEnvOverFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "blogforge.yaml")
	if err := os.WriteFile(cfgPath, []byte("llm:\n  model: file-model\nwordCount: 1200\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("LLM_MODEL", "")
	if m := estimate(t, "--config", cfgPath); m["model"] != "file-model" || m["word_count"] != 1200.0 {
		t.Fatalf("file values not applied: %v", m)
	}

	t.Setenv("LLM_MODEL", "env-model")
	if m := estimate(t, "--config", cfgPath); m["model"] != "env-model" {
		t.Fatalf("env should beat file: %v", m)
	}

	if m := estimate(t, "--config", cfgPath, "--llm.model", "flag-model", "--words", "400"); m["model"] != "flag-model" || m["word_count"] != 400.0 {
		t.Fatalf("flags should beat env and file: %v", m)
	}
}

func TestGenerate_RequiresURL(t *testing.T) {
	_, err := execute(t, "generate", "--dry-run")
	if err == nil || !strings.Contains(err.Error(), "--url") {
		t.Fatalf("expected missing url error, got %v", err)
	}
}

func TestGenerate_ValidationFailureIsReported(t *testing.T) {
	_, err := execute(t, "generate", "--dry-run", "--url", "http://localhost/page")
	if err == nil || !strings.HasPrefix(err.Error(), "validation: ") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil || !strings.HasPrefix(out, "blogforge ") {
		t.Fatalf("unexpected version output %q (%v)", out, err)
	}
}
