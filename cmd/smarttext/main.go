// Package main implements the smarttext CLI: classify text into typed spans
// and verify span documents.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gonkalabs/smarttext-go/internal/config"
	"github.com/gonkalabs/smarttext-go/internal/smarttext"
	"github.com/gonkalabs/smarttext-go/internal/smarttext/cache"
	"github.com/gonkalabs/smarttext-go/internal/smarttext/llmdetect"
	"github.com/gonkalabs/smarttext-go/internal/smarttext/ner"
	"github.com/gonkalabs/smarttext-go/internal/smarttext/rules"
)

func newRootCmd() *cobra.Command {
	var cfg config.Cfg

	root := &cobra.Command{
		Use:           "smarttext",
		Short:         "Split text into typed spans",
		Long:          "smarttext finds addresses, phone numbers, emails, datetimes and URLs in plain text and returns the text as an ordered list of typed spans.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			loaded, err := config.Load()
			if err != nil {
				return err
			}
			cfg = *loaded
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: cfg.LogLevel})))
			return nil
		},
	}

	root.AddCommand(newClassifyCmd(&cfg), newVerifyCmd())
	return root
}

// buildDetector wires the configured detector layers together.
func buildDetector(cfg *config.Cfg) (smarttext.Detector, error) {
	var detectors []smarttext.Detector
	for _, name := range cfg.Detectors {
		switch name {
		case config.DetectorRules:
			detectors = append(detectors, rules.New())
			slog.Debug("smarttext: rules layer enabled")
		case config.DetectorNER:
			detectors = append(detectors, ner.New(cfg.NERURL, ner.WithUnit(cfg.NERUnit)))
			slog.Info("smarttext: NER layer enabled", "url", cfg.NERURL, "unit", cfg.NERUnit)
		case config.DetectorLLM:
			detectors = append(detectors, llmdetect.New(cfg.LLMURL, cfg.LLMModel))
			slog.Info("smarttext: LLM layer enabled", "url", cfg.LLMURL, "model", cfg.LLMModel)
		}
	}

	d := smarttext.Combine(cfg.DetectBudget, detectors...)
	if cfg.CacheSize > 0 {
		cached, err := cache.New(d, cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		d = cached
	}
	return d, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
