package transcribe

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"audio2json/internal/app"
	appconfig "audio2json/internal/app/config"
	"audio2json/internal/app/logging"
	"audio2json/internal/app/model"
	"audio2json/internal/app/pipeline"
	"audio2json/internal/app/util/files"
	envconfig "audio2json/internal/config"
)

var (
	inputDir     string
	outputDir    string
	configPath   string
	modelName    string
	pollInterval time.Duration
	pollTimeout  time.Duration
	collision    string
	showProgress bool
	metricsFile  string
)

// Cmd represents the transcribe command
var Cmd = &cobra.Command{
	Use:   "transcribe",
	Short: "Transcribe every audio file in a directory to JSON",
	Long: `Transcribe every audio file in a directory to JSON.

Each audio file in the input directory is uploaded to Gemini, transcribed with
the configured prompts, and saved as <name>.json in the output directory.
A file that fails is logged and skipped; the rest of the batch continues.`,
	Example: `  a2j transcribe
  a2j transcribe --input ./calls --output ./json --model gemini-2.0-flash
  a2j transcribe --config ./a2j.yaml --collision disambiguate --metrics-file run.prom`,
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger, err := logging.NewLogger(verbose)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logger.Sync()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		apiKeys, err := envconfig.GetAPIKeys()
		if err != nil {
			return err
		}
		if err := envconfig.RequireAPIKeys(apiKeys); err != nil {
			return err
		}
		cfg.APIKey = apiKeys.Gemini

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return run(ctx, cfg, logger)
	},
}

func run(ctx context.Context, cfg *appconfig.TranscribeConfig, logger *zap.Logger) error {
	audioFiles, err := files.DiscoverAudioFiles(cfg.InputDir, logger)
	if err != nil {
		return fmt.Errorf("failed to read input directory: %w", err)
	}
	if len(audioFiles) == 0 {
		logger.Warn("No audio files found", zap.String("input_dir", cfg.InputDir))
	}

	p, err := app.InitializePipeline(ctx, cfg, logger, pipeline.ProgressConfig{
		Enabled: pipeline.ShouldShowProgress(showProgress),
	})
	if err != nil {
		return err
	}
	defer p.Close()

	summary, runErr := p.Run(ctx, audioFiles)
	if summary != nil {
		printSummary(summary)
	}

	if metricsFile != "" {
		if err := p.Metrics().WriteTextfile(metricsFile); err != nil {
			logger.Error("Failed to write metrics file", zap.String("path", metricsFile), zap.Error(err))
		}
	}

	return runErr
}

// loadConfig resolves the config file and lets explicitly set flags override it.
func loadConfig(cmd *cobra.Command) (*appconfig.TranscribeConfig, error) {
	path := configPath
	if path == "" {
		path = appconfig.GetDefaultConfigPath()
	}

	cfg, err := appconfig.LoadTranscribeConfig(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("input") {
		cfg.InputDir = inputDir
	}
	if flags.Changed("output") {
		cfg.OutputDir = outputDir
	}
	if flags.Changed("model") {
		cfg.Model = modelName
	}
	if flags.Changed("poll-interval") {
		cfg.Polling.Interval = pollInterval
		if cfg.Polling.MaxInterval < pollInterval {
			cfg.Polling.MaxInterval = pollInterval
		}
	}
	if flags.Changed("poll-timeout") {
		cfg.Polling.Timeout = pollTimeout
	}
	if flags.Changed("collision") {
		cfg.Output.Collision = collision
	}

	cfg.ApplyNetwork(envconfig.GetNetworkConfig())

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func printSummary(summary *model.Summary) {
	fmt.Fprintf(os.Stderr, "\nProcessed %d file(s): %d succeeded, %d skipped, %d failed\n",
		len(summary.Results), summary.Succeeded, summary.Skipped, summary.Failed)
	for _, r := range summary.Results {
		if r.Outcome == model.OutcomeFailed {
			fmt.Fprintf(os.Stderr, "  %s (%s): %v\n", r.File.Name, r.Stage, r.Err)
		}
	}
}

func init() {
	Cmd.Flags().StringVarP(&inputDir, "input", "i", envconfig.DefaultInputDir, "directory containing audio files")
	Cmd.Flags().StringVarP(&outputDir, "output", "o", envconfig.DefaultOutputDir, "directory for JSON transcriptions")
	Cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (default $A2J_CONFIG or ~/.a2j/config.yaml)")
	Cmd.Flags().StringVarP(&modelName, "model", "m", envconfig.DefaultModel, "Gemini model name")
	Cmd.Flags().DurationVar(&pollInterval, "poll-interval", envconfig.DefaultPollInterval, "initial delay between readiness checks")
	Cmd.Flags().DurationVar(&pollTimeout, "poll-timeout", envconfig.DefaultPollTimeout, "maximum wait for an uploaded file to become ready")
	Cmd.Flags().StringVar(&collision, "collision", envconfig.DefaultCollisionPolicy, "output name collision policy: overwrite or disambiguate")
	Cmd.Flags().BoolVarP(&showProgress, "progress", "p", false, "show progress bar even when stderr is not a terminal")
	Cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics for the run to this file")
}
