package ai

import (
	"context"

	"github.com/cannonQ/pow-tracker-site/internal/dashboard"
)

// Summarizer defines methods for AI analysis
type Summarizer interface {
	// SummarizeProject explains a project's distribution in plain language
	SummarizeProject(ctx context.Context, view *dashboard.ProjectView) (*Summary, error)
}

// Summary 项目摘要
type Summary struct {
	Project  string   `json:"project"`
	Headline string   `json:"headline"`
	Summary  string   `json:"summary"`
	Concerns []string `json:"concerns"`
}
