package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/candidate"
	"github.com/spigell/resume-screener/internal/config"
	"github.com/spigell/resume-screener/internal/drafts"
	"github.com/spigell/resume-screener/internal/extract"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/outbox"
	"github.com/spigell/resume-screener/internal/pipeline"
	"github.com/spigell/resume-screener/internal/report"
	"github.com/spigell/resume-screener/internal/scoring"
	"github.com/spigell/resume-screener/internal/secrets"
	"github.com/spigell/resume-screener/internal/summary"
)

const (
	PromptOutbox = "Write email drafts to outbox"
	PromptDump   = "Dump candidates to file"
	PromptExit   = "Exit"

	defaultReport = "screening_report.xlsx"
)

// Environment variables checked for the LLM credential, in order.
var credentialEnv = []string{"SCREENER_LLM_API_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY"}

var errExit = errors.New("exit requested")

var prompt = promptui.Select{
	Label: "Next step?",
	Items: []string{PromptOutbox, PromptDump, PromptExit},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Screen resumes against a job description",
	Run: func(cmd *cobra.Command, _ []string) {
		run(cmd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringSliceP("input", "i", nil, "resume files or directories with resumes (repeatable)")
	runCmd.Flags().StringP("job-description", "J", "", "job description text or path to a text file")
	runCmd.Flags().StringP("output", "o", defaultReport, "path of the xlsx report")
	runCmd.Flags().String("json-out", "", "also write the report as JSON to this path")
	runCmd.Flags().String("api-key-file", "", "file with the LLM API key. Without a key the keyword scorer is used")
	runCmd.Flags().Int("workers", 0, "number of resumes processed at once (default from config)")
	runCmd.Flags().BoolP("yes", "y", false, "do not ask, write email drafts to the outbox")
	runCmd.Flags().Bool("dry-run", false, "log email drafts instead of writing them to the outbox")

	runCmd.MarkFlagRequired("input")
	runCmd.MarkFlagRequired("job-description")
}

// run is the main command for the cli.
func run(cmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	base, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer base.Sync()

	runID := uuid.NewString()
	logger := logger.WithRun(base, runID)

	cfg := getConfig(logger)
	logger.Info("starting the resume-screener", zap.String("version", version))
	logger.Debug("starting with config", zap.Any("config", cfg))

	jdArg, _ := cmd.Flags().GetString("job-description")
	jobDescription, err := pipeline.ReadJobDescription(jdArg)
	if err != nil {
		logger.Fatal("reading the job description", zap.Error(err),
			zap.String("hint", "pass the text or a path to a text file with --job-description"),
		)
	}

	inputs, _ := cmd.Flags().GetStringSlice("input")
	files, err := pipeline.CollectFiles(inputs, cfg.Batch.Extensions)
	if err != nil {
		logger.Fatal("collecting resumes", zap.Error(err),
			zap.String("hint", "make sure every --input directory exists and is readable"),
		)
	}
	if len(files) == 0 {
		logger.Info("exiting", zap.String("reason", "no resumes found"))
		return
	}

	scorer, err := newScorer(ctx, cmd, cfg, logger)
	if err != nil {
		logger.Fatal("loading the LLM api key", zap.Error(err),
			zap.String("hint", "check --api-key-file or llm.api_key_file, or remove them to use keyword scoring"),
		)
	}

	workers := cfg.Batch.Workers
	if n, _ := cmd.Flags().GetInt("workers"); n > 0 {
		workers = n
	}

	processor := pipeline.NewProcessor(
		extract.NewTextExtractor(cfg.Batch.MaxPDFPages),
		scorer,
		drafts.NewGenerator(cfg.EmailTemplates, logger),
		jobDescription,
		pipeline.Options{
			Workers: workers,
			OnProgress: func(p pipeline.Progress) {
				logger.Debug("progress",
					zap.Int("done", p.Done),
					zap.Int("total", p.Total),
					zap.String("filename", p.Filename),
				)
			},
		},
		logger,
	)

	logger.Info("starting the screening", zap.Int("files", len(files)), zap.Int("workers", workers))

	batch, err := processor.Process(ctx, files)
	if err != nil {
		logger.Fatal("screening failed", zap.Error(err))
	}

	sum := summary.Summarize(batch.Items)
	if err := writeReports(cmd, batch, sum, logger); err != nil {
		logger.Fatal("writing the report", zap.Error(err),
			zap.String("hint", "check that the output directory exists and the file is not open elsewhere"),
		)
	}
	report.PrintSummary(os.Stdout, sum)

	dryRun, _ := cmd.Flags().GetBool("dry-run")

	action := PromptOutbox
	for {
		if auto, _ := cmd.Flags().GetBool("yes"); !auto {
			_, action, err = prompt.Run()
			if err != nil {
				logger.Fatal("exiting", zap.Error(err))
			}
		}

		if err := handleAction(ctx, action, cfg, batch, dryRun, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}

		if auto, _ := cmd.Flags().GetBool("yes"); auto {
			return
		}
	}
}

func newScorer(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *zap.Logger) (scoring.Scorer, error) {
	keyFile, _ := cmd.Flags().GetString("api-key-file")
	if keyFile == "" {
		keyFile = cfg.LLM.APIKeyFile
	}

	src := secrets.Source{Name: "llm api key", File: keyFile, Env: credentialEnv}
	credential, err := secrets.LoadOptional(src)
	if err != nil {
		return nil, err
	}
	logger.Debug("llm credential", zap.String("source", secrets.Describe(src)))

	return scoring.NewSelector(cfg, logger).Select(ctx, credential), nil
}

func writeReports(cmd *cobra.Command, batch *candidate.Batch, sum summary.Summary, logger *zap.Logger) error {
	output, _ := cmd.Flags().GetString("output")
	if err := report.WriteExcel(output, batch, sum); err != nil {
		return err
	}
	logger.Info("report written", zap.String("path", output))

	if jsonOut, _ := cmd.Flags().GetString("json-out"); jsonOut != "" {
		if err := report.WriteJSON(jsonOut, batch, sum); err != nil {
			return err
		}
		logger.Info("json report written", zap.String("path", jsonOut))
	}
	return nil
}

func handleAction(ctx context.Context, action string, cfg *config.Config, batch *candidate.Batch, dryRun bool, logger *zap.Logger) error {
	switch action {
	case PromptOutbox:
		sender, err := newSender(cfg, dryRun, logger)
		if err != nil {
			return err
		}
		stats, err := outbox.Deliver(ctx, sender, batch.Items, outbox.Options{
			From:    cfg.Outbox.From,
			Subject: cfg.Outbox.Subject,
		}, logger)
		if err != nil {
			return fmt.Errorf("deliver drafts: %w", err)
		}
		logger.Info("email drafts written",
			zap.String("dir", cfg.Outbox.Dir),
			zap.Int("count", stats.Sent),
			zap.Bool("dry_run", dryRun),
		)
		return nil
	case PromptDump:
		file, err := batch.DumpToTmpFile()
		if err != nil {
			return err
		}
		logger.Info("candidates dumped", zap.String("file", file))
		return nil
	case PromptExit:
		logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

func newSender(cfg *config.Config, dryRun bool, logger *zap.Logger) (outbox.Sender, error) {
	if dryRun {
		return outbox.NopSender{Logger: logger}, nil
	}
	sender, err := outbox.NewDirSender(cfg.Outbox.Dir)
	if err != nil {
		return nil, err
	}
	return sender, nil
}
