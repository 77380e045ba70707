package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-screener/internal/ai"
	"github.com/spigell/resume-screener/internal/logger"
	"github.com/spigell/resume-screener/internal/scoring"
	"github.com/spigell/resume-screener/internal/secrets"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the LLM models reachable with the configured api key",
	Run: func(cmd *cobra.Command, _ []string) {
		models(cmd)
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)

	modelsCmd.Flags().String("api-key-file", "", "file with the LLM API key")
}

func models(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	cfg := getConfig(logger)

	keyFile, _ := cmd.Flags().GetString("api-key-file")
	if keyFile == "" {
		keyFile = cfg.LLM.APIKeyFile
	}
	credential, err := secrets.Load(secrets.Source{Name: "llm api key", File: keyFile, Env: credentialEnv})
	if err != nil {
		logger.Fatal("loading the LLM api key", zap.Error(err),
			zap.String("hint", "set --api-key-file, llm.api_key_file, OPENAI_API_KEY or GEMINI_API_KEY"),
		)
	}

	provider := scoring.DetectProvider(credential, cfg.LLM.Provider)
	generator, err := scoring.NewGenerator(ctx, provider, credential, cfg, logger)
	if err != nil {
		logger.Fatal("creating the LLM client", zap.Error(err), zap.String("ai_provider", provider))
	}

	lister, ok := generator.(ai.ModelLister)
	if !ok {
		logger.Fatal("provider cannot list models", zap.String("ai_provider", provider))
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.LLM.RequestTimeout)
	defer cancel()

	found, err := lister.ListModels(ctx)
	if err != nil {
		logger.Fatal("listing models", zap.Error(err), zap.String("ai_provider", provider))
	}
	if provider == ai.ProviderGemini {
		found = scoring.RankModels(found)
	}

	fmt.Printf("%s models (%d):\n", provider, len(found))
	for _, m := range found {
		fmt.Printf("  %s\n", m)
	}
}
