package risk

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/cannonQ/pow-tracker-site/internal/fairness"
	"github.com/cannonQ/pow-tracker-site/internal/metrics"
	"github.com/cannonQ/pow-tracker-site/internal/models"
	"github.com/cannonQ/pow-tracker-site/internal/vesting"
)

type BasicRiskManager struct {
	params   RiskParameters
	paramsMu sync.RWMutex

	interval time.Duration
	now      func() time.Time
}

func NewBasicRiskManager(initialParams RiskParameters) *BasicRiskManager {
	return &BasicRiskManager{
		params:   initialParams,
		interval: time.Hour,
		now:      time.Now,
	}
}

// WithInterval sets the monitoring tick.
func (rm *BasicRiskManager) WithInterval(d time.Duration) *BasicRiskManager {
	rm.interval = d
	return rm
}

// WithClock replaces the reference clock.
func (rm *BasicRiskManager) WithClock(now func() time.Time) *BasicRiskManager {
	rm.now = now
	return rm
}

func (rm *BasicRiskManager) parameters() RiskParameters {
	rm.paramsMu.RLock()
	defer rm.paramsMu.RUnlock()
	return rm.params
}

func (rm *BasicRiskManager) CheckProjectRisk(ctx context.Context, rec *models.Record) (*RiskAssessment, error) {
	return rm.CheckProjectRiskAt(ctx, rec, rm.now())
}

// CheckProjectRiskAt evaluates rec as of now, so the assessment matches
// metrics computed for the same reference time.
func (rm *BasicRiskManager) CheckProjectRiskAt(ctx context.Context, rec *models.Record, now time.Time) (*RiskAssessment, error) {
	if rec == nil || rec.Project == nil {
		return nil, fmt.Errorf("failed to check project risk: empty record")
	}
	params := rm.parameters()
	p, g := rec.Project, rec.Genesis

	assessment := &RiskAssessment{
		IsAcceptable:    true,
		RiskLevel:       0,
		RiskFactors:     make([]string, 0),
		Recommendations: make([]string, 0),
	}
	add := func(level float64, blocking bool, factor, recommendation string) {
		assessment.RiskLevel += level
		if blocking {
			assessment.IsAcceptable = false
		}
		assessment.RiskFactors = append(assessment.RiskFactors, factor)
		if recommendation != "" {
			assessment.Recommendations = append(assessment.Recommendations, recommendation)
		}
	}

	// 预挖比例 - 最主要的风险检查
	premine := fairness.PreminePercent(p, g)
	if premine > params.MaxPreminePct {
		add(0.3, true,
			fmt.Sprintf("Genesis allocation of %.2f%% exceeds %.2f%%", premine, params.MaxPreminePct),
			"Compare insider unlock dates with expected miner output before accumulating")
	}

	// 内部人集中度
	if c := metrics.AllocationConcentration(p, g); c != nil && c.InsiderPct > params.MaxInsiderPct {
		add(0.25, true,
			fmt.Sprintf("Insiders hold %.2f%% of max supply", c.InsiderPct),
			fmt.Sprintf("Treat supply as concentrated until insider share falls below %.2f%%", params.MaxInsiderPct))
		if c.UndisclosedInvestors > params.MaxUndisclosedInvestors {
			add(0.1, false,
				fmt.Sprintf("%d undisclosed investors", c.UndisclosedInvestors),
				"Request the full investor list from the project")
		}
	}

	// 矿工追平时间
	if metrics.HasAllocation(p, g) && g != nil {
		status := metrics.Parity(p, g, now)
		switch status.State {
		case metrics.ParityIndeterminate:
			add(0.1, false, "Miner parity cannot be estimated from the available data", "")
		case metrics.ParityPending:
			if *status.YearsRemaining > params.MaxYearsToParity {
				add(0.2, false,
					fmt.Sprintf("Miners need %.1f more years to match the genesis allocation", *status.YearsRemaining),
					"Expect allocation holders to dominate liquid supply in the medium term")
			}
		}
	}

	// 即将解锁
	if unlocks := upcomingUnlocks(rec, now, params); len(unlocks) > 0 {
		u := unlocks[0]
		add(0.15, false,
			fmt.Sprintf("Unlock of %.2f%% of the genesis allocation on %s", u.pct, u.date.Format("2006-01-02")),
			"Watch for sell pressure around the unlock date")
	}

	if fairness.IsSuspicious(p) || (g != nil && g.SuspectedInsiderMining != nil && g.SuspectedInsiderMining.Suspected) {
		add(0.15, false, "Suspected insider mining at launch", "")
	}

	if g != nil {
		for _, flag := range g.RedFlags {
			add(0.05, false, flag, "")
		}
	}

	assessment.RiskLevel = math.Min(1, math.Round(assessment.RiskLevel*100)/100)
	return assessment, nil
}

func (rm *BasicRiskManager) SetRiskParameters(ctx context.Context, params *RiskParameters) error {
	if params.MaxPreminePct <= 0 || params.MaxInsiderPct <= 0 ||
		params.MaxYearsToParity <= 0 || params.UpcomingUnlockPct <= 0 || params.UnlockWindowDays <= 0 {
		return fmt.Errorf("invalid risk parameters: thresholds must be positive")
	}
	if params.MaxUndisclosedInvestors < 0 {
		return fmt.Errorf("invalid risk parameters: undisclosed investor limit must not be negative")
	}

	rm.paramsMu.Lock()
	rm.params = *params
	rm.paramsMu.Unlock()

	return nil
}

func (rm *BasicRiskManager) MonitorUnlocks(ctx context.Context, records RecordSource) (<-chan RiskAlert, error) {
	if records == nil {
		return nil, fmt.Errorf("failed to monitor unlocks: nil record source")
	}
	alerts := make(chan RiskAlert, 100)

	go func() {
		defer close(alerts)

		ticker := time.NewTicker(rm.interval)
		defer ticker.Stop()

		// 已告警的解锁, 避免重复
		seen := make(map[string]bool)

		for {
			select {
			case <-ctx.Done():
				return

			case <-ticker.C:
				params := rm.parameters()
				now := rm.now()
				for _, rec := range records(ctx) {
					for _, u := range upcomingUnlocks(&rec, now, params) {
						key := fmt.Sprintf("%s/%d", rec.Name, u.month)
						if seen[key] {
							continue
						}
						seen[key] = true

						alert := RiskAlert{
							Project:     rec.Name,
							AlertType:   "Upcoming Unlock",
							Severity:    getSeverityLevel(u.pct),
							Description: fmt.Sprintf("%.2f%% of the genesis allocation unlocks at month %d", u.pct, u.month),
							UnlockDate:  u.date,
							Timestamp:   now,
						}

						select {
						case alerts <- alert:
						default:
							// channel full, drop
						}
					}
				}
			}
		}
	}()

	return alerts, nil
}

type unlock struct {
	month int
	date  time.Time
	pct   float64
}

// upcomingUnlocks lists future schedule entries inside the unlock window whose
// unlock exceeds the configured share of the genesis allocation.
func upcomingUnlocks(rec *models.Record, now time.Time, params RiskParameters) []unlock {
	s := rec.Vesting
	if s == nil || !s.GenesisDate.Valid() || s.TotalGenesisAllocationTokens == nil || *s.TotalGenesisAllocationTokens <= 0 {
		return nil
	}
	total := *s.TotalGenesisAllocationTokens
	months := vesting.MonthsSinceGenesis(s.GenesisDate.Time, now)
	horizon := now.AddDate(0, 0, params.UnlockWindowDays)

	var out []unlock
	for _, e := range s.MonthlySchedule {
		if e.Month <= months {
			continue
		}
		date := e.Date.Time
		if !e.Date.Valid() {
			offset := time.Duration(float64(e.Month) * vesting.AverageMonthDays * float64(24*time.Hour))
			date = s.GenesisDate.Add(offset)
		}
		if date.After(horizon) {
			break
		}
		// 日历日期已过的条目不算即将解锁
		if !date.After(now) {
			continue
		}
		pct := e.Total.UnlockTokens / total * 100
		if pct > params.UpcomingUnlockPct {
			out = append(out, unlock{month: e.Month, date: date, pct: pct})
		}
	}
	return out
}

func getSeverityLevel(unlockPct float64) string {
	switch {
	case unlockPct >= 20:
		return "HIGH"
	case unlockPct >= 10:
		return "MEDIUM"
	default:
		return "LOW"
	}
}
