// Copyright 2025 The TestLegion Authors
// Licensed under the EUPL-1.2

package models

import (
	"database/sql"
	"time"
)

// Device strategies a performance audit can run against.
const (
	StrategyDesktop = "desktop"
	StrategyMobile  = "mobile"
)

// Analysis is one PageSpeed run for a URL under a single strategy.
// Immutable after creation; its audits are removed with it (FK cascade).
type Analysis struct { //nolint:govet // fieldalignment: readability over optimization
	ID               int64         `db:"id" json:"id"`
	URL              string        `db:"url" json:"url"`
	Strategy         string        `db:"strategy" json:"strategy"`
	PerformanceScore float64       `db:"performance_score" json:"performance_score"`
	CreatedAt        time.Time     `db:"created_at" json:"created_at"`
	UserID           sql.NullInt64 `db:"user_id" json:"-"`
}

// Audit is a single improvement opportunity reported by the performance
// API. Only audits that scored below perfect are persisted.
type Audit struct { //nolint:govet // fieldalignment: readability over optimization
	ID           int64           `db:"id" json:"id"`
	AnalysisID   int64           `db:"analysis_id" json:"analysis_id"`
	Title        string          `db:"title" json:"title"`
	Description  string          `db:"description" json:"description"`
	DisplayValue string          `db:"display_value" json:"display_value"`
	AuditScore   sql.NullFloat64 `db:"audit_score" json:"audit_score"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
