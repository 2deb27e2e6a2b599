package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gonkalabs/smarttext-go/internal/smarttext"
	"github.com/gonkalabs/smarttext-go/internal/spanschema"
	"github.com/gonkalabs/smarttext-go/internal/textio"
)

func newVerifyCmd() *cobra.Command {
	var textPath, spansPath string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a spans JSON file against its source text",
		Long:  "Validates a spans JSON file against the span schema and checks that the spans reconstruct the source text.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runVerify(cmd, textPath, spansPath)
		},
	}

	cmd.Flags().StringVarP(&textPath, "text", "t", "", "Path to source text file (required)")
	cmd.Flags().StringVarP(&spansPath, "spans", "s", "", "Path to spans JSON file (required)")
	if err := cmd.MarkFlagRequired("text"); err != nil {
		panic(fmt.Sprintf("failed to mark text flag as required: %v", err))
	}
	if err := cmd.MarkFlagRequired("spans"); err != nil {
		panic(fmt.Sprintf("failed to mark spans flag as required: %v", err))
	}
	return cmd
}

func runVerify(cmd *cobra.Command, textPath, spansPath string) error {
	file, err := os.Open(textPath)
	if err != nil {
		return fmt.Errorf("failed to open text file: %w", err)
	}
	defer file.Close()
	text, err := textio.Decode(file)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(spansPath)
	if err != nil {
		return fmt.Errorf("failed to read spans file: %w", err)
	}
	if err := spanschema.Validate(data); err != nil {
		return err
	}

	var spans []smarttext.Span
	if err := json.Unmarshal(data, &spans); err != nil {
		return fmt.Errorf("failed to unmarshal spans JSON: %w", err)
	}
	if err := spanschema.Verify(text, spans); err != nil {
		return err
	}

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "ok: %d spans\n", len(spans))
	return err
}
