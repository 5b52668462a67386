package risk

import (
	"context"
	"time"

	"github.com/cannonQ/pow-tracker-site/internal/models"
)

// RiskManager defines methods for tokenomics risk assessment
type RiskManager interface {
	// CheckProjectRisk evaluates the distribution risk of a project record
	CheckProjectRisk(ctx context.Context, rec *models.Record) (*RiskAssessment, error)

	// CheckProjectRiskAt evaluates the record at a fixed reference time
	CheckProjectRiskAt(ctx context.Context, rec *models.Record, now time.Time) (*RiskAssessment, error)

	// SetRiskParameters sets risk thresholds
	SetRiskParameters(ctx context.Context, params *RiskParameters) error

	// MonitorUnlocks watches vesting schedules for large upcoming unlocks
	MonitorUnlocks(ctx context.Context, records RecordSource) (<-chan RiskAlert, error)
}

// RecordSource returns the records to watch on each monitoring tick.
type RecordSource func(ctx context.Context) []models.Record

// RiskParameters 风险参数配置
type RiskParameters struct {
	MaxPreminePct           float64 `json:"max_premine_pct" yaml:"max_premine_pct"`
	MaxInsiderPct           float64 `json:"max_insider_pct" yaml:"max_insider_pct"`
	MaxYearsToParity        float64 `json:"max_years_to_parity" yaml:"max_years_to_parity"`
	MaxUndisclosedInvestors int     `json:"max_undisclosed_investors" yaml:"max_undisclosed_investors"`
	// UpcomingUnlockPct is the share of the genesis allocation above which a
	// single future unlock is flagged.
	UpcomingUnlockPct float64 `json:"upcoming_unlock_pct" yaml:"upcoming_unlock_pct"`
	// UnlockWindowDays bounds how far ahead an unlock counts as upcoming.
	UnlockWindowDays int `json:"unlock_window_days" yaml:"unlock_window_days"`
}

// DefaultParameters are the thresholds used when none are configured.
var DefaultParameters = RiskParameters{
	MaxPreminePct:           10,
	MaxInsiderPct:           15,
	MaxYearsToParity:        4,
	MaxUndisclosedInvestors: 0,
	UpcomingUnlockPct:       5,
	UnlockWindowDays:        90,
}

// RiskAssessment 风险评估结果
type RiskAssessment struct {
	IsAcceptable    bool     `json:"is_acceptable"`
	RiskLevel       float64  `json:"risk_level"`
	RiskFactors     []string `json:"risk_factors"`
	Recommendations []string `json:"recommendations"`
}

// RiskAlert 风险预警信息
type RiskAlert struct {
	Project     string    `json:"project"`
	AlertType   string    `json:"alert_type"`
	Severity    string    `json:"severity"`
	Description string    `json:"description"`
	UnlockDate  time.Time `json:"unlock_date"`
	Timestamp   time.Time `json:"timestamp"`
}
