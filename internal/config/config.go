package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/gonkalabs/smarttext-go/internal/smarttext"
)

// Detector names accepted in SMARTTEXT_DETECTORS.
const (
	DetectorRules = "rules"
	DetectorNER   = "ner"
	DetectorLLM   = "llm"
)

// Cfg holds all runtime configuration loaded from environment variables.
type Cfg struct {
	// Detectors lists the detector layers in priority order.
	// SMARTTEXT_DETECTORS=rules,ner,llm
	Detectors []string `validate:"required,min=1,dive,oneof=rules ner llm"`

	// NER sidecar layer
	NERURL  string         `validate:"required,url"` // SMARTTEXT_NER_URL=http://smarttext-ner:8001
	NERUnit smarttext.Unit // SMARTTEXT_NER_UNIT=rune|utf16|byte

	// LLM layer
	LLMURL   string `validate:"required,url"` // SMARTTEXT_LLM_URL=http://ollama:11434
	LLMModel string `validate:"required"`     // SMARTTEXT_LLM_MODEL=qwen2.5:0.5b

	// DetectBudget bounds a combined detection call. SMARTTEXT_DETECT_BUDGET=30s
	DetectBudget time.Duration `validate:"gte=0"`

	// CacheSize is the number of texts memoized; 0 disables. SMARTTEXT_CACHE_SIZE=0
	CacheSize int `validate:"gte=0"`

	// EchoUnmatched returns text without entities as one text span
	// instead of an empty list. SMARTTEXT_ECHO_UNMATCHED=false
	EchoUnmatched bool

	// LogLevel is LOG_LEVEL=debug|info|warn|error.
	LogLevel slog.Level
}

// Load reads .env (if present) then environment variables and returns Cfg.
func Load() (*Cfg, error) {
	// Best-effort: load .env from current directory
	_ = godotenv.Load()

	detectors := splitList(os.Getenv("SMARTTEXT_DETECTORS"))
	if len(detectors) == 0 {
		detectors = []string{DetectorRules}
	}

	nerUnit := smarttext.UnitRune
	if raw := strings.TrimSpace(os.Getenv("SMARTTEXT_NER_UNIT")); raw != "" {
		u, err := smarttext.ParseUnit(raw)
		if err != nil {
			return nil, fmt.Errorf("config: SMARTTEXT_NER_UNIT: %w", err)
		}
		nerUnit = u
	}

	budget := 30 * time.Second
	if raw := strings.TrimSpace(os.Getenv("SMARTTEXT_DETECT_BUDGET")); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("config: SMARTTEXT_DETECT_BUDGET: %w", err)
		}
		budget = d
	}

	var cacheSize int
	if raw := strings.TrimSpace(os.Getenv("SMARTTEXT_CACHE_SIZE")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("config: SMARTTEXT_CACHE_SIZE: %w", err)
		}
		cacheSize = n
	}

	var level slog.Level
	if raw := strings.TrimSpace(os.Getenv("LOG_LEVEL")); raw != "" {
		if err := level.UnmarshalText([]byte(raw)); err != nil {
			return nil, fmt.Errorf("config: LOG_LEVEL: %w", err)
		}
	}

	cfg := &Cfg{
		Detectors:     detectors,
		NERURL:        envOr("SMARTTEXT_NER_URL", "http://smarttext-ner:8001"),
		NERUnit:       nerUnit,
		LLMURL:        envOr("SMARTTEXT_LLM_URL", "http://ollama:11434"),
		LLMModel:      envOr("SMARTTEXT_LLM_MODEL", "qwen2.5:0.5b"),
		DetectBudget:  budget,
		CacheSize:     cacheSize,
		EchoUnmatched: envBool("SMARTTEXT_ECHO_UNMATCHED"),
		LogLevel:      level,
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c *Cfg) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return strings.TrimRight(v, "/")
}

func envBool(key string) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	return raw == "1" || strings.EqualFold(raw, "true")
}

// splitList parses "a, b,,c" into ["a" "b" "c"], lowercased.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
