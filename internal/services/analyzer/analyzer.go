// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

// Package analyzer ties the PageSpeed client to the analysis store: it
// runs both strategies for a URL and records each successful outcome.
package analyzer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/testlegion/testlegion/internal/models"
	"github.com/testlegion/testlegion/internal/repository"
	"github.com/testlegion/testlegion/internal/services/pagespeed"
)

type Service struct {
	client *pagespeed.Client
	repo   *repository.Repository
}

func NewService(client *pagespeed.Client, repo *repository.Repository) *Service {
	return &Service{client: client, repo: repo}
}

// Analyze fetches both strategies and persists every successful outcome
// for the given user. Anonymous runs (userID 0) are not persisted. The
// returned error covers persistence only; per-strategy fetch failures
// live in the run result.
func (s *Service) Analyze(ctx context.Context, url string, userID int64) (*pagespeed.RunResult, error) {
	run := s.client.Run(ctx, url)

	if userID == 0 {
		return run, nil
	}

	var storeErr error
	for _, outcome := range []pagespeed.Outcome{run.Results.Desktop, run.Results.Mobile} {
		if outcome.Err != nil {
			continue
		}
		if err := s.record(ctx, outcome.Result, url, userID); err != nil {
			storeErr = errors.Join(storeErr, err)
		}
	}

	return run, storeErr
}

// AnalyzeAll is Analyze with every failure folded into one error, for
// callers that only observe success or failure, like the background
// runner.
func (s *Service) AnalyzeAll(ctx context.Context, url string, userID int64) error {
	run, storeErr := s.Analyze(ctx, url, userID)
	return errors.Join(run.Results.Desktop.Err, run.Results.Mobile.Err, storeErr)
}

func (s *Service) record(ctx context.Context, result *pagespeed.Result, url string, userID int64) error {
	analysis := &models.Analysis{
		URL:              url,
		Strategy:         result.Strategy,
		PerformanceScore: result.PerformanceScore,
		UserID:           sql.NullInt64{Int64: userID, Valid: true},
	}

	audits := make([]models.Audit, 0, len(result.Improvements))
	for _, improvement := range result.Improvements {
		audits = append(audits, models.Audit{
			Title:        improvement.Title,
			Description:  improvement.Description,
			DisplayValue: improvement.DisplayValue,
			AuditScore:   sql.NullFloat64{Float64: improvement.Score, Valid: true},
		})
	}

	if err := s.repo.CreateAnalysis(ctx, analysis, audits); err != nil {
		return fmt.Errorf("recording %s analysis: %w", result.Strategy, err)
	}

	slog.Info("analysis_recorded",
		"analysis_id", analysis.ID,
		"url", url,
		"strategy", result.Strategy,
		"score", result.PerformanceScore,
		"improvements", len(audits),
	)
	return nil
}
