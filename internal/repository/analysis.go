// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"

	"github.com/testlegion/testlegion/internal/models"
)

// CreateAnalysis persists an analysis row and its improvement audits in
// one transaction. Callers pass only audits worth persisting, i.e. those
// that scored below perfect.
func (r *Repository) CreateAnalysis(ctx context.Context, analysis *models.Analysis, audits []models.Audit) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO pagespeed_analyses (url, strategy, performance_score, user_id) VALUES (?, ?, ?, ?)`,
		analysis.URL, analysis.Strategy, analysis.PerformanceScore, analysis.UserID)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	analysis.ID = id

	for i := range audits {
		audits[i].AnalysisID = id
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO pagespeed_audits (analysis_id, title, description, display_value, audit_score)
			 VALUES (?, ?, ?, ?, ?)`,
			id, audits[i].Title, audits[i].Description, audits[i].DisplayValue, audits[i].AuditScore); err != nil {
			return fmt.Errorf("insert audit: %w", err)
		}
	}

	return tx.Commit()
}

// ListRecentAnalyses returns the newest analyses for a user, limited.
func (r *Repository) ListRecentAnalyses(ctx context.Context, userID int64, limit int) ([]models.Analysis, error) {
	var analyses []models.Analysis
	err := r.db.SelectContext(ctx, &analyses,
		`SELECT * FROM pagespeed_analyses WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	return analyses, nil
}

// ListAnalyses returns all analyses for a user, newest first.
func (r *Repository) ListAnalyses(ctx context.Context, userID int64) ([]models.Analysis, error) {
	var analyses []models.Analysis
	err := r.db.SelectContext(ctx, &analyses,
		`SELECT * FROM pagespeed_analyses WHERE user_id = ? ORDER BY created_at DESC, id DESC`,
		userID)
	if err != nil {
		return nil, err
	}
	return analyses, nil
}

// LatestAnalysisByStrategy returns a user's most recent analysis for the
// given strategy.
func (r *Repository) LatestAnalysisByStrategy(ctx context.Context, userID int64, strategy string) (*models.Analysis, error) {
	var analysis models.Analysis
	err := r.db.GetContext(ctx, &analysis,
		`SELECT * FROM pagespeed_analyses WHERE user_id = ? AND strategy = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		userID, strategy)
	if err != nil {
		return nil, wrapError(err)
	}
	return &analysis, nil
}

// ListAuditsByAnalysis returns the improvement audits of one analysis.
func (r *Repository) ListAuditsByAnalysis(ctx context.Context, analysisID int64) ([]models.Audit, error) {
	var audits []models.Audit
	err := r.db.SelectContext(ctx, &audits,
		`SELECT * FROM pagespeed_audits WHERE analysis_id = ? ORDER BY id`, analysisID)
	if err != nil {
		return nil, err
	}
	return audits, nil
}

// DeleteAnalysis removes an analysis; its audits go with it via FK cascade.
func (r *Repository) DeleteAnalysis(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pagespeed_analyses WHERE id = ?`, id)
	return err
}
