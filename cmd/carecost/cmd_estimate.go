package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/carecost/carecost/analytics"
	"github.com/carecost/carecost/directory"
	"github.com/carecost/carecost/estimate"
	"github.com/carecost/carecost/llm"
	"github.com/carecost/carecost/pkg/logging"
	"github.com/carecost/carecost/pkg/telemetry"
	"github.com/carecost/carecost/search"
	"github.com/carecost/carecost/session"
)

var (
	careNeeded     string
	zipCode        string
	insuranceInput string
	planFile       string
	medicalHistory string
	sessionID      string
	fromTranscript bool
)

// estimateResponse is the JSON document written to stdout.
type estimateResponse struct {
	SessionID string           `json:"session_id"`
	Greeting  string           `json:"greeting,omitempty"`
	Answer    *estimate.Answer `json:"answer"`
}

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Run one cost estimate and print the answer as JSON",
	RunE:  runEstimate,
}

func init() {
	f := estimateCmd.Flags()
	f.StringVar(&careNeeded, "care", "", "What care the patient needs, in their words (required)")
	f.StringVar(&zipCode, "zip", "", "Patient ZIP code")
	f.StringVar(&insuranceInput, "insurance", "", "Insurance description, e.g. \"Aetna Silver PPO\"")
	f.StringVar(&planFile, "plan-file", "", "Path to an insurance card image or plan document")
	f.StringVar(&medicalHistory, "history", "", "Relevant medical history, free text")
	f.StringVar(&sessionID, "session", "", "Session ID for returning users (generated when omitted)")
	f.BoolVar(&fromTranscript, "transcript", false, "Treat --care and --insurance as raw voice transcriptions and clean them first")
	_ = estimateCmd.MarkFlagRequired("care")
	rootCmd.AddCommand(estimateCmd)
}

func runEstimate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	logger := logging.WithComponent("cli")

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    "carecost",
		ServiceVersion: version,
		Environment:    cfg.Telemetry.Environment,
		Disable:        cfg.Telemetry.Disable,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() { _ = shutdown(ctx) }()

	store, closeStore, err := newSessionStore(&cfg.Session)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer closeStore()

	manager := session.NewManager(store)
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	userContext := manager.Returning(ctx, sessionID)
	if insuranceInput == "" && planFile == "" {
		insuranceInput = userContext.InsuranceInput
	}
	if zipCode == "" {
		zipCode = userContext.ZipCode
	}

	client := newLLMClient(&cfg.LLM)
	if fromTranscript {
		careNeeded = estimate.CleanTranscript(ctx, client, careNeeded)
		insuranceInput = estimate.CleanTranscript(ctx, client, insuranceInput)
	}
	searcher := search.NewTavily(cfg.Search.TavilyAPIKey)
	registry := directory.NewRegistryClient(directory.WithBaseURL(cfg.Directory.RegistryURL))

	opts := []estimate.PipelineOption{estimate.WithLogger(logging.WithComponent("pipeline"))}
	if budget, err := llm.NewTokenBudget(budgetModel(cfg.LLM.Model)); err == nil {
		opts = append(opts, estimate.WithTokenBudget(budget))
	} else {
		logger.Warn("token budget unavailable, context will not be trimmed", "error", err)
	}

	pipeline := estimate.NewPipeline(
		client,
		estimate.NewLLMPlanExtractor(client),
		estimate.NewSearchNetworkChecker(searcher),
		estimate.NewSearchAlternativesFinder(searcher),
		registry,
		opts...,
	)

	answer := pipeline.Run(ctx, &estimate.Request{
		CareNeeded:     careNeeded,
		ZipCode:        zipCode,
		InsuranceInput: insuranceInput,
		Medium:         mediumForFile(planFile),
		FilePath:       planFile,
		MedicalHistory: medicalHistory,
	})

	critic := estimate.NewCritic(client)
	answer = critic.Refine(ctx, answer, careNeeded, insuranceInput != "" || planFile != "")

	manager.SaveRun(ctx, sessionID, insuranceInput, careNeeded, zipCode, answer.PlanDetails)

	recorder, closeRecorder, err := newAnalyticsRecorder(&cfg.Analytics)
	if err != nil {
		logger.Warn("analytics backend unavailable", "error", err)
	} else {
		defer closeRecorder()
		analytics.NewReporter(recorder).Report(ctx, &analytics.Query{
			SessionID:      sessionID,
			Symptoms:       answer.SymptomReason,
			CareNeeded:     careNeeded,
			ZipCode:        zipCode,
			Insurance:      insuranceInput,
			ProvidersFound: len(answer.Providers),
			Confidence:     answer.Confidence,
			FinalScore:     answer.FinalScore,
			UsedDefaults:   answer.UsedDefaults,
			Urgency:        string(answer.Urgency),
		})
	}

	resp := estimateResponse{
		SessionID: sessionID,
		Greeting:  userContext.Greeting,
		Answer:    answer,
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

// mediumForFile infers the input medium from the plan file extension.
func mediumForFile(path string) estimate.InputMedium {
	if path == "" {
		return estimate.MediumText
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return estimate.MediumImage
	default:
		return estimate.MediumDocument
	}
}

// budgetModel picks the encoding model for context trimming. Non-OpenAI
// model names fall back to a tokenizer that approximates them closely
// enough for budgeting.
func budgetModel(model string) string {
	if model != "" && strings.HasPrefix(model, "gpt") {
		return model
	}
	return "gpt-4o"
}
