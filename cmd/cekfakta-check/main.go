package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mikey/cekfakta-ai/internal/adapters/cli"
	"github.com/mikey/cekfakta-ai/internal/core"
	"github.com/mikey/cekfakta-ai/internal/di"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	// Build the dependency injection container
	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	err = container.Invoke(func(logger *zap.Logger, reporter *cli.Reporter, llmClient core.LLMClient) error {
		defer logger.Sync()

		// Close any resources that need closing
		defer func() {
			if closer, ok := llmClient.(interface{ Close() error }); ok {
				if err := closer.Close(); err != nil {
					logger.Error("Failed to close LLM client", zap.Error(err))
				}
			}
		}()

		text, err := readInput(flags, logger)
		if err != nil {
			return err
		}

		_, err = reporter.Run(context.Background(), &core.AnalysisRequest{
			Text:         text,
			LanguageHint: flags.Language,
		})
		return err
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		os.Exit(1)
	}
}

// readInput takes the text from the arguments, the -file flag or stdin, in that order
func readInput(flags *di.CLIFlags, logger *zap.Logger) (string, error) {
	if len(flags.Args) > 0 {
		return strings.Join(flags.Args, " "), nil
	}

	var reader io.Reader
	if flags.InputFile != "" {
		file, err := os.Open(flags.InputFile)
		if err != nil {
			return "", fmt.Errorf("failed to open input file: %w", err)
		}
		defer file.Close()
		reader = file
		logger.Info("Reading text from file", zap.String("file", flags.InputFile))
	} else {
		reader = os.Stdin
		logger.Info("Reading text from stdin")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return string(data), nil
}
