package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gonkalabs/smarttext-go/internal/smarttext"
)

var envKeys = []string{
	"SMARTTEXT_DETECTORS", "SMARTTEXT_NER_URL", "SMARTTEXT_NER_UNIT",
	"SMARTTEXT_LLM_URL", "SMARTTEXT_LLM_MODEL", "SMARTTEXT_DETECT_BUDGET",
	"SMARTTEXT_CACHE_SIZE", "SMARTTEXT_ECHO_UNMATCHED", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{DetectorRules}, cfg.Detectors)
	assert.Equal(t, "http://smarttext-ner:8001", cfg.NERURL)
	assert.Equal(t, smarttext.UnitRune, cfg.NERUnit)
	assert.Equal(t, "http://ollama:11434", cfg.LLMURL)
	assert.Equal(t, "qwen2.5:0.5b", cfg.LLMModel)
	assert.Equal(t, 30*time.Second, cfg.DetectBudget)
	assert.Zero(t, cfg.CacheSize)
	assert.False(t, cfg.EchoUnmatched)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("SMARTTEXT_DETECTORS", " Rules, ner,,llm ")
	t.Setenv("SMARTTEXT_NER_URL", "http://localhost:9000/")
	t.Setenv("SMARTTEXT_NER_UNIT", "utf-16")
	t.Setenv("SMARTTEXT_DETECT_BUDGET", "2s")
	t.Setenv("SMARTTEXT_CACHE_SIZE", "128")
	t.Setenv("SMARTTEXT_ECHO_UNMATCHED", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"rules", "ner", "llm"}, cfg.Detectors)
	assert.Equal(t, "http://localhost:9000", cfg.NERURL)
	assert.Equal(t, smarttext.UnitUTF16, cfg.NERUnit)
	assert.Equal(t, 2*time.Second, cfg.DetectBudget)
	assert.Equal(t, 128, cfg.CacheSize)
	assert.True(t, cfg.EchoUnmatched)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"SMARTTEXT_DETECTORS", "rules,spacy"},
		{"SMARTTEXT_NER_URL", "not a url"},
		{"SMARTTEXT_NER_UNIT", "nibble"},
		{"SMARTTEXT_DETECT_BUDGET", "soon"},
		{"SMARTTEXT_DETECT_BUDGET", "-1s"},
		{"SMARTTEXT_CACHE_SIZE", "lots"},
		{"SMARTTEXT_CACHE_SIZE", "-5"},
		{"LOG_LEVEL", "chatty"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
