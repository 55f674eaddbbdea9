package di

import (
	"flag"
	"os"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/cekfakta-ai/internal/adapters/cli"
	"github.com/mikey/cekfakta-ai/internal/config"
	"github.com/mikey/cekfakta-ai/internal/core"
	"github.com/mikey/cekfakta-ai/internal/factory"
	"github.com/mikey/cekfakta-ai/internal/keywords"
	"github.com/mikey/cekfakta-ai/internal/logging"
	"github.com/mikey/cekfakta-ai/internal/utils"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	ConfigFile string
	InputFile  string
	Language   string
	JSON       bool
	JSONLog    bool
	Verbose    bool
	Args       []string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags := &CLIFlags{}

	flag.StringVar(&flags.ConfigFile, "config", "", "Path to config file (default: search standard locations)")
	flag.StringVar(&flags.InputFile, "file", "", "Read the text from a file (use arguments or stdin if not specified)")
	flag.StringVar(&flags.Language, "language", "", "Answer language as an ISO 639-1 code (detected if not specified)")
	flag.BoolVar(&flags.JSON, "json", false, "Print the result as JSON")
	flag.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	flag.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")

	flag.Parse()
	flags.Args = flag.Args()
	return flags
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		cfg, err := config.New(flags.ConfigFile)
		if err != nil {
			return nil, err
		}
		// One-shot runs never reuse results
		cfg.Set("cache.enabled", false)
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
		if used := cfg.GetViper().ConfigFileUsed(); used != "" {
			logger.Info("Loaded configuration from file", zap.String("file", used))
		}
		return cfg, nil
	}); err != nil {
		return nil, err
	}

	if err := provideClassifier(container); err != nil {
		return nil, err
	}

	// Register classifier service with no cache and no metrics
	if err := container.Provide(func(
		llmClient core.LLMClient,
		analyzers *factory.Analyzers,
		keywordChecker *keywords.Checker,
		textProcessor *utils.TextProcessor,
		logger *zap.Logger,
		svcCfg core.ServiceConfig,
	) (*core.ClassifierService, error) {
		return core.NewClassifierService(
			llmClient,
			analyzers.Sentiment,
			analyzers.Languages,
			nil, // No cache for CLI
			keywordChecker,
			textProcessor,
			nil, // No metrics for CLI
			logger,
			svcCfg,
		)
	}); err != nil {
		return nil, err
	}

	// Register reporter
	if err := container.Provide(func(
		service *core.ClassifierService,
		textProcessor *utils.TextProcessor,
		logger *zap.Logger,
		flags *CLIFlags,
	) *cli.Reporter {
		return cli.NewReporter(service, textProcessor, os.Stdout, logger, flags.JSON, flags.Verbose)
	}); err != nil {
		return nil, err
	}

	return container, nil
}
