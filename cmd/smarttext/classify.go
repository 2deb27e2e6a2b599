package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/gonkalabs/smarttext-go/internal/config"
	"github.com/gonkalabs/smarttext-go/internal/smarttext"
	"github.com/gonkalabs/smarttext-go/internal/textio"
)

type classifyFlags struct {
	in            string
	out           string
	echoUnmatched bool
	pretty        bool
}

func newClassifyCmd(cfg *config.Cfg) *cobra.Command {
	var f classifyFlags

	cmd := &cobra.Command{
		Use:   "classify [text]",
		Short: "Classify text into typed spans",
		Long:  "Classifies the text argument, the --in file, or stdin, and writes the spans as a JSON array.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, cfg, &f, args)
		},
	}

	cmd.Flags().StringVarP(&f.in, "in", "i", "", "Path to input text file, - for stdin")
	cmd.Flags().StringVarP(&f.out, "out", "o", "", "Path to output spans JSON file (default stdout)")
	cmd.Flags().BoolVar(&f.echoUnmatched, "echo-unmatched", false, "Return text without entities as one text span instead of []")
	cmd.Flags().BoolVar(&f.pretty, "pretty", false, "Indent JSON output")
	return cmd
}

func runClassify(cmd *cobra.Command, cfg *config.Cfg, f *classifyFlags, args []string) error {
	if len(args) == 1 && f.in != "" {
		return fmt.Errorf("pass either a text argument or --in, not both")
	}

	text, err := readClassifyInput(cmd, f.in, args)
	if err != nil {
		return err
	}

	detector, err := buildDetector(cfg)
	if err != nil {
		return err
	}
	var opts []smarttext.Option
	if f.echoUnmatched || cfg.EchoUnmatched {
		opts = append(opts, smarttext.WithEchoUnmatched())
	}

	spans, err := smarttext.New(detector, opts...).Classify(cmd.Context(), text)
	if err != nil {
		return err
	}
	if spans == nil {
		spans = []smarttext.Span{}
	}

	var out []byte
	if f.pretty {
		out, err = json.MarshalIndent(spans, "", "  ")
	} else {
		out, err = json.Marshal(spans)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal spans to JSON: %w", err)
	}
	out = append(out, '\n')

	if f.out == "" {
		_, err = cmd.OutOrStdout().Write(out)
		return err
	}
	if err := os.WriteFile(f.out, out, 0644); err != nil {
		return fmt.Errorf("failed to write spans to output file: %w", err)
	}
	return nil
}

func readClassifyInput(cmd *cobra.Command, in string, args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}

	var r io.Reader = cmd.InOrStdin()
	if in != "" && in != "-" {
		file, err := os.Open(in)
		if err != nil {
			return "", fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		r = file
	}
	return textio.Decode(r)
}
