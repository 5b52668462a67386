// Package dashboard assembles computed metrics into the views served to the
// presentation layer.
package dashboard

import (
	"context"
	"math"
	"time"

	"github.com/cannonQ/pow-tracker-site/internal/fairness"
	"github.com/cannonQ/pow-tracker-site/internal/metrics"
	"github.com/cannonQ/pow-tracker-site/internal/models"
	"github.com/cannonQ/pow-tracker-site/internal/risk"
	"github.com/cannonQ/pow-tracker-site/internal/utils/format"
	"github.com/cannonQ/pow-tracker-site/internal/vesting"
)

// discrepancyTolerance is the allowed distance of tier plus mining percents
// from 100 before the record is reported.
const discrepancyTolerance = 0.5

// ProjectView is everything the dashboard shows for one project at a fixed
// reference time.
type ProjectView struct {
	Name    string                    `json:"name"`
	Project *models.Project           `json:"data"`
	Genesis *models.GenesisAllocation `json:"genesis,omitempty"`

	Badge            fairness.Badge `json:"badge"`
	Suspicious       bool           `json:"suspicious"`
	PreminePct       float64        `json:"premine_pct"`
	CurrentSupplyPct *float64       `json:"current_supply_pct"`
	MinedPct         *float64       `json:"mined_pct"`
	FDMC             *float64       `json:"fdmc"`
	LaunchAge        string         `json:"launch_age"`

	Composition           []metrics.Slice         `json:"composition"`
	Allocation            []metrics.Slice         `json:"allocation,omitempty"`
	AllocationDiscrepancy *float64                `json:"allocation_discrepancy,omitempty"`
	Card                  metrics.CardComposition `json:"card"`

	Halvings         metrics.HalvingSplit          `json:"halvings"`
	Parity           metrics.ParityStatus          `json:"parity"`
	ParityAchieved   bool                          `json:"parity_achieved"`
	Decentralization *metrics.DecentralizationPath `json:"decentralization,omitempty"`
	Concentration    *metrics.Concentration        `json:"concentration,omitempty"`
	ROI              []metrics.BucketROI           `json:"roi,omitempty"`
	Waterfall        []metrics.WaterfallEntry      `json:"waterfall,omitempty"`
	Vesting          *vesting.Progress             `json:"vesting,omitempty"`

	Risk        *risk.RiskAssessment `json:"risk,omitempty"`
	GeneratedAt time.Time            `json:"generated_at"`
}

// Build computes the view of rec at now. It is a pure function of its inputs.
// Callers must not pass a record without a project.
func Build(rec models.Record, now time.Time) ProjectView {
	p, g := rec.Project, rec.Genesis
	v := ProjectView{
		Name:             rec.Name,
		Project:          p,
		Genesis:          g,
		Badge:            fairness.ClassifyAt(p, g, now),
		Suspicious:       fairness.IsSuspicious(p),
		PreminePct:       fairness.PreminePercent(p, g),
		CurrentSupplyPct: metrics.CurrentSupplyPct(p),
		MinedPct:         metrics.MinedPct(p, g),
		FDMC:             metrics.FDMC(p),
		Composition:      metrics.Composition(p, g),
		Allocation:       metrics.AllocationBreakdown(p, g),
		Card:             metrics.CirculatingComposition(p, g),
		Halvings:         metrics.SplitHalvingSchedule(p, now),
		Parity:           metrics.Parity(p, g, now),
		ParityAchieved:   fairness.HasMinersAchievedParity(p, g, now),
		Decentralization: metrics.Decentralization(p, g),
		Concentration:    metrics.AllocationConcentration(p, g),
		ROI:              metrics.InvestorROI(p, g),
		Waterfall:        metrics.VestingWaterfall(g, now),
		Vesting:          vesting.Calculate(rec.Vesting, now),
		GeneratedAt:      now,
	}
	if p != nil {
		v.LaunchAge = format.LaunchAge(p.LaunchDate, now)
	}
	if diff, ok := metrics.AllocationSumDiscrepancy(g); ok {
		v.AllocationDiscrepancy = models.Float(diff)
	}
	return v
}

// Snapshot extracts the persisted figures of v.
func Snapshot(v ProjectView) models.MetricsSnapshot {
	snap := models.MetricsSnapshot{
		Name:             v.Name,
		Category:         string(v.Badge.Category),
		PreminePct:       v.PreminePct,
		CurrentSupplyPct: v.CurrentSupplyPct,
		MinedPct:         v.MinedPct,
		FDMC:             v.FDMC,
		ParityAchieved:   v.ParityAchieved,
		Timestamp:        v.GeneratedAt,
	}
	if v.Project != nil {
		snap.Ticker = v.Project.Ticker
	}
	if v.Vesting != nil {
		snap.VestingProgressPct = v.Vesting.ProgressPct
	}
	return snap
}

// Builder builds views for a whole listing, attaching risk assessments and
// reporting inconsistent allocation records.
type Builder struct {
	risk   RiskChecker
	logger Logger
}

// NewBuilder returns a Builder. checker may be nil.
func NewBuilder(checker RiskChecker, logger Logger) *Builder {
	return &Builder{risk: checker, logger: logger}
}

// BuildAll builds one view per record, skipping records without a project.
func (b *Builder) BuildAll(ctx context.Context, records []models.Record, now time.Time) []ProjectView {
	views := make([]ProjectView, 0, len(records))
	for i := range records {
		rec := records[i]
		if rec.Project == nil {
			b.logger.Error("record has no project data", "project", rec.Name)
			continue
		}
		views = append(views, b.build(ctx, &rec, now))
	}
	return views
}

// BuildOne builds the view of the record named name. ok is false when no such
// record exists.
func (b *Builder) BuildOne(ctx context.Context, records []models.Record, name string, now time.Time) (ProjectView, bool) {
	for i := range records {
		if records[i].Name == name && records[i].Project != nil {
			rec := records[i]
			return b.build(ctx, &rec, now), true
		}
	}
	return ProjectView{}, false
}

func (b *Builder) build(ctx context.Context, rec *models.Record, now time.Time) ProjectView {
	v := Build(*rec, now)

	// 仅记录，不影响计算
	if v.AllocationDiscrepancy != nil && math.Abs(*v.AllocationDiscrepancy) > discrepancyTolerance {
		b.logger.Info("allocation percents do not sum to 100",
			"project", rec.Name,
			"difference", *v.AllocationDiscrepancy)
	}

	if b.risk != nil {
		assessment, err := b.risk.CheckProjectRiskAt(ctx, rec, now)
		if err != nil {
			b.logger.Error("failed to assess risk", "project", rec.Name, "error", err)
		} else {
			v.Risk = assessment
		}
	}
	return v
}
