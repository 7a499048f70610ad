package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/SAP-F-2025/competency-assessment/internal/cache"
	"github.com/SAP-F-2025/competency-assessment/internal/repositories/postgres"
	"github.com/SAP-F-2025/competency-assessment/internal/services"
	"github.com/SAP-F-2025/competency-assessment/internal/validator"
	"github.com/SAP-F-2025/competency-assessment/pkg"
)

// seedActor is recorded as the actor of imported rows in the audit log.
const seedActor = "seed"

const seedBatchSize = 500

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import competencies and questions from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")

		cfg, logger, closer, err := bootstrap()
		if err != nil {
			return err
		}
		defer closer.Close()

		data, err := readSeedFile(file)
		if err != nil {
			return err
		}

		db, err := pkg.InitDatabase(cfg)
		if err != nil {
			return err
		}
		repo := postgres.NewRepository(db, cache.NewNoopCache(), logger)
		questions := services.NewQuestionService(repo, logger, validator.New())

		report, err := importSeed(cmd.Context(), questions, data, logger)
		if err != nil {
			return err
		}
		logger.Info("Seed finished",
			"competencies_created", report.CompetenciesCreated,
			"questions_created", report.QuestionsCreated,
			"questions_rejected", report.QuestionsRejected)
		return nil
	},
}

func init() {
	seedCmd.Flags().StringP("file", "f", "configs/questions.sample.json", "Seed file")
}

type seedCompetency struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type seedQuestion struct {
	services.QuestionRequest
	CompetencyCode string `json:"competency_code"`
}

type seedFile struct {
	Competencies []seedCompetency `json:"competencies"`
	Questions    []seedQuestion   `json:"questions"`
}

type seedReport struct {
	CompetenciesCreated int
	QuestionsCreated    int
	QuestionsRejected   int
}

func readSeedFile(path string) (*seedFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}
	var data seedFile
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	return &data, nil
}

// importSeed creates the missing competencies and then every question,
// linking questions to competencies by code. Re-running it adds the
// questions again; competencies are matched by code and kept.
func importSeed(ctx context.Context, svc services.QuestionService, data *seedFile, logger *slog.Logger) (*seedReport, error) {
	report := &seedReport{}

	existing, err := svc.ListCompetencies(ctx)
	if err != nil {
		return nil, err
	}
	byCode := make(map[string]string, len(existing))
	for _, c := range existing {
		byCode[c.Code] = c.ID
	}

	for _, c := range data.Competencies {
		code := strings.ToUpper(strings.TrimSpace(c.Code))
		if _, ok := byCode[code]; ok {
			continue
		}
		created, err := svc.CreateCompetency(ctx, seedActor, &services.CompetencyRequest{
			Name:        c.Name,
			Description: c.Description,
			Code:        code,
		})
		if err != nil {
			return nil, fmt.Errorf("competency %s: %w", code, err)
		}
		byCode[created.Code] = created.ID
		report.CompetenciesCreated++
	}

	requests := make([]services.QuestionRequest, 0, len(data.Questions))
	for _, q := range data.Questions {
		req := q.QuestionRequest
		if q.CompetencyCode != "" {
			id, ok := byCode[strings.ToUpper(q.CompetencyCode)]
			if !ok {
				logger.Warn("Skipping question with unknown competency", "code", q.CompetencyCode, "text", q.Text)
				report.QuestionsRejected++
				continue
			}
			req.CompetencyID = &id
		}
		requests = append(requests, req)
	}

	for start := 0; start < len(requests); start += seedBatchSize {
		end := min(start+seedBatchSize, len(requests))
		result, err := svc.BulkCreate(ctx, seedActor, &services.BulkCreateQuestionsRequest{Questions: requests[start:end]})
		if err != nil {
			return nil, err
		}
		report.QuestionsCreated += result.Created
		report.QuestionsRejected += len(result.Errors)
		for _, be := range result.Errors {
			logger.Warn("Rejected seed question", "index", start+be.Index, "error", be.Message)
		}
	}
	return report, nil
}
