package dashboard

import (
	"context"
	"time"

	"github.com/cannonQ/pow-tracker-site/internal/models"
	"github.com/cannonQ/pow-tracker-site/internal/risk"
)

type Logger interface {
	Error(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
}

// RiskChecker is the part of risk.RiskManager used when building views.
type RiskChecker interface {
	CheckProjectRiskAt(ctx context.Context, rec *models.Record, now time.Time) (*risk.RiskAssessment, error)
}
