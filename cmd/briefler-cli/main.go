package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/briefler/briefler/internal/core"
	"github.com/briefler/briefler/internal/di"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run executes one analysis and prints the result
func run(
	flags *di.CLIFlags,
	logger *zap.Logger,
	service *core.AnalysisService,
	llmClient core.LLMClient,
) error {
	defer logger.Sync()

	req := &core.AnalysisRequest{
		Language: flags.Language,
		Days:     flags.Days,
	}
	for _, sender := range strings.Split(flags.Senders, ",") {
		if sender = strings.TrimSpace(sender); sender != "" {
			req.SenderEmails = append(req.SenderEmails, sender)
		}
	}

	record, err := service.Analyze(context.Background(), req, func(stage, status string) {
		logger.Info("Pipeline progress", zap.String("stage", stage), zap.String("status", status))
	})
	if err != nil {
		logger.Fatal("Analysis failed", zap.Error(err))
	}

	fmt.Printf("\n=== Analysis %s ===\n", record.ID)
	fmt.Printf("Senders: %s\n", strings.Join(record.Parameters.SenderEmails, ", "))
	fmt.Printf("Language: %s, window: %d days\n", record.Parameters.Language, record.Parameters.Days)
	if record.Structured != nil {
		fmt.Printf("Messages analyzed: %d\n", record.Structured.TotalCount)
		fmt.Printf("Priority: %s\n", record.Structured.PriorityAssessment)
	}
	if record.TokenUsage != nil {
		fmt.Printf("Tokens used: %d\n", record.TokenUsage.TotalTokens)
	}
	fmt.Printf("Execution time: %.2fs\n", record.ExecutionSeconds)

	fmt.Printf("\n=== Summary ===\n%s\n", record.Result)

	if record.Structured != nil && len(record.Structured.ActionItems) > 0 {
		fmt.Printf("\n=== Action items ===\n")
		for _, item := range record.Structured.ActionItems {
			fmt.Printf("  - %s\n", item)
		}
	}

	// Close any resources that need closing
	if closer, ok := llmClient.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close LLM client", zap.Error(err))
		}
	}
	return nil
}
